// Package web serves the dashboard HTML surface: the athlete directory, the
// clinic training board, and the per-athlete detail pages.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/csipacific/dashboard/internal/auth"
	"github.com/csipacific/dashboard/internal/export"
	"github.com/csipacific/dashboard/internal/platform/httpx"
	"github.com/csipacific/dashboard/internal/registry"
	"github.com/csipacific/dashboard/internal/storage"
	"github.com/csipacific/dashboard/internal/training"
	"github.com/csipacific/dashboard/internal/web/templates"
)

// profilesPerPage is the directory page size.
const profilesPerPage = 20

// commentsPerPage is the comment list page size on the athlete page.
const commentsPerPage = 10

// wellnessListLimit bounds the wellness history shown on the athlete page.
const wellnessListLimit = 30

// directoryClient is the subset of the registry API the handlers consume.
type directoryClient interface {
	Profiles(ctx context.Context, token string, filters url.Values, limit, offset int) (registry.ProfilePage, error)
	AllProfiles(ctx context.Context, token string, filters url.Values) ([]registry.Profile, error)
	Provinces(ctx context.Context, token string) ([]registry.Option, error)
	Locations(ctx context.Context, token, provinceID string) ([]registry.Option, error)
	Places(ctx context.Context, token, provinceID, locationID string) ([]registry.Option, error)
	Sports(ctx context.Context, token string) ([]registry.Option, error)
}

// boardService is the subset of the Board the handlers consume.
type boardService interface {
	GroupOptions(ctx context.Context) ([]string, error)
	Roster(ctx context.Context, groups []string) ([]RosterEntry, error)
	Athlete(ctx context.Context, athleteID int64) (AthleteDetail, error)
	CustomerLabel(ctx context.Context, athleteID int64) (string, error)
}

// Handler serves every dashboard route.
type Handler struct {
	registry directoryClient
	board    boardService
	store    storage.Store
	auth     *auth.Service
	logger   *log.Logger
	printer  *message.Printer
}

// NewHandler wires the page handlers with their upstream clients and storage.
func NewHandler(directory directoryClient, board boardService, store storage.Store, authSvc *auth.Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		registry: directory,
		board:    board,
		store:    store,
		auth:     authSvc,
		logger:   logger,
		printer:  message.NewPrinter(language.English),
	}
}

// Routes registers every route on a fresh mux. Pages behind RequireSession
// redirect anonymous browsers to /login.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", h.handleLoginPage)
	mux.HandleFunc("GET /auth/login", h.auth.HandleLogin)
	mux.HandleFunc("GET /auth/callback", h.auth.HandleCallback)
	mux.HandleFunc("GET /logout", h.auth.HandleLogout)
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	protected := func(handler http.HandlerFunc) http.Handler {
		return h.auth.RequireSession(handler)
	}
	mux.Handle("GET /{$}", protected(h.handleHome))
	mux.Handle("GET /athletes", protected(h.handleProfiles))
	mux.Handle("GET /athletes/export.csv", protected(h.handleProfilesExport))
	mux.Handle("GET /athletes/{id}", protected(h.handleAthlete))
	mux.Handle("POST /athletes/{id}/comments", protected(h.handleCreateComment))
	mux.Handle("POST /athletes/{id}/wellness", protected(h.handleCreateWellness))
	mux.Handle("GET /roster", protected(h.handleRoster))

	return mux
}

// renderPage writes a body wrapped in the shared layout.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, title string, body templ.Component) {
	userLabel := ""
	if session, ok := auth.SessionFrom(r.Context()); ok {
		userLabel = session.UserLabel
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Layout(title, userLabel, body).Render(r.Context(), w); err != nil {
		h.logger.Printf("render %s: %v", r.URL.Path, err)
	}
}

// renderError writes an error card with the given status.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, text string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Layout("Error", "", templates.ErrorPage(text)).Render(r.Context(), w); err != nil {
		h.logger.Printf("render error page: %v", err)
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if err := httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		h.logger.Printf("write healthz: %v", err)
	}
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/athletes", http.StatusFound)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "Sign in", templates.LoginPage(r.URL.Query().Get("next")))
}

// selectOptions marks the chosen option in a dropdown option list.
func selectOptions(options []registry.Option, selected string) []templates.SelectOption {
	out := make([]templates.SelectOption, 0, len(options))
	for _, option := range options {
		out = append(out, templates.SelectOption{
			Label:    option.Label,
			Value:    option.Value,
			Selected: option.Value == selected && selected != "",
		})
	}
	return out
}

// profileFilters maps directory form fields onto registry query parameters.
func profileFilters(query url.Values) url.Values {
	filters := url.Values{}
	for field, param := range map[string]string{
		"province": "province_territory",
		"location": "location",
		"place":    "place",
		"sport":    "sport",
	} {
		if value := strings.TrimSpace(query.Get(field)); value != "" {
			filters.Set(param, value)
		}
	}
	return filters
}

// pageURL rebuilds the directory URL for a different page of the same filters.
func pageURL(query url.Values, page int) string {
	rebuilt := url.Values{}
	for key, values := range query {
		if key == "page" {
			continue
		}
		rebuilt[key] = values
	}
	if page > 1 {
		rebuilt.Set("page", strconv.Itoa(page))
	}
	if encoded := rebuilt.Encode(); encoded != "" {
		return "/athletes?" + encoded
	}
	return "/athletes"
}

// geographyOptions loads the cascading filter dropdowns. Children only load
// once their parent is chosen.
func (h *Handler) geographyOptions(ctx context.Context, token string, query url.Values) (templates.GeographyView, error) {
	province := strings.TrimSpace(query.Get("province"))
	location := strings.TrimSpace(query.Get("location"))
	place := strings.TrimSpace(query.Get("place"))

	provinces, err := h.registry.Provinces(ctx, token)
	if err != nil {
		return templates.GeographyView{}, err
	}
	view := templates.GeographyView{Provinces: selectOptions(provinces, province)}

	if province != "" {
		locations, err := h.registry.Locations(ctx, token, province)
		if err != nil {
			return templates.GeographyView{}, err
		}
		view.Locations = selectOptions(locations, location)
	}
	if location != "" {
		places, err := h.registry.Places(ctx, token, province, location)
		if err != nil {
			return templates.GeographyView{}, err
		}
		view.Places = selectOptions(places, place)
	}
	return view, nil
}

func (h *Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	geography, err := h.geographyOptions(r.Context(), session.AccessToken, query)
	if err != nil {
		h.logger.Printf("load geography filters: %v", err)
		h.renderError(w, r, http.StatusBadGateway, "The registration service is unavailable.")
		return
	}
	sports, err := h.registry.Sports(r.Context(), session.AccessToken)
	if err != nil {
		h.logger.Printf("load sport filter: %v", err)
		h.renderError(w, r, http.StatusBadGateway, "The registration service is unavailable.")
		return
	}

	filters := profileFilters(query)
	result, err := h.registry.Profiles(r.Context(), session.AccessToken, filters, profilesPerPage, (page-1)*profilesPerPage)
	if err != nil {
		h.logger.Printf("load profiles: %v", err)
		h.renderError(w, r, http.StatusBadGateway, "The registration service is unavailable.")
		return
	}

	pageCount := (result.Count + profilesPerPage - 1) / profilesPerPage
	if pageCount < 1 {
		pageCount = 1
	}
	view := templates.ProfilesView{
		Geography:  geography,
		Sports:     selectOptions(sports, query.Get("sport")),
		Profiles:   result.Profiles,
		CountLabel: h.printer.Sprintf("%d athletes", result.Count),
		Page:       page,
		PageCount:  pageCount,
		ExportURL:  exportURL(query),
	}
	if page > 1 {
		view.PrevURL = pageURL(query, page-1)
	}
	if result.Next != "" && page < pageCount {
		view.NextURL = pageURL(query, page+1)
	}
	h.renderPage(w, r, "Athletes", templates.ProfilesPage(view))
}

// exportURL carries the active filters onto the CSV download link.
func exportURL(query url.Values) string {
	rebuilt := url.Values{}
	for _, field := range []string{"province", "location", "place", "sport"} {
		if value := strings.TrimSpace(query.Get(field)); value != "" {
			rebuilt.Set(field, value)
		}
	}
	if encoded := rebuilt.Encode(); encoded != "" {
		return "/athletes/export.csv?" + encoded
	}
	return "/athletes/export.csv"
}

func (h *Handler) handleProfilesExport(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	profiles, err := h.registry.AllProfiles(r.Context(), session.AccessToken, profileFilters(r.URL.Query()))
	if err != nil {
		h.logger.Printf("export profiles: %v", err)
		http.Error(w, "export failed", http.StatusBadGateway)
		return
	}
	if err := export.ServeCSV(w, r, "athlete_profiles.csv", profiles); err != nil {
		h.logger.Printf("serve profiles csv: %v", err)
	}
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	selected := make(map[string]bool)
	var groups []string
	for _, group := range query["group"] {
		group = strings.TrimSpace(group)
		if group == "" || selected[group] {
			continue
		}
		selected[group] = true
		groups = append(groups, group)
	}

	options, err := h.board.GroupOptions(r.Context())
	if err != nil {
		h.logger.Printf("load group options: %v", err)
		h.renderError(w, r, http.StatusBadGateway, "The clinic service is unavailable.")
		return
	}

	view := templates.RosterView{Loaded: len(groups) > 0}
	for _, group := range options {
		view.Groups = append(view.Groups, templates.SelectOption{
			Label:    group,
			Value:    group,
			Selected: selected[group],
		})
	}

	if view.Loaded {
		entries, err := h.board.Roster(r.Context(), groups)
		if err != nil {
			h.logger.Printf("build roster: %v", err)
			h.renderError(w, r, http.StatusBadGateway, "The clinic service is unavailable.")
			return
		}
		for _, entry := range entries {
			row := templates.RosterRow{
				AthleteID:  entry.Customer.ID,
				Athlete:    entry.Customer.Label(),
				Groups:     entry.Customer.Groups,
				Complaints: entry.Complaints,
				LastAppt:   entry.LastAppt,
			}
			if entry.Status != "" {
				row.Status = string(entry.Status)
				row.StatusColor = entry.Status.Color()
			}
			view.Rows = append(view.Rows, row)
		}
	}
	h.renderPage(w, r, "Training Board", templates.RosterPage(view))
}

// athleteID reads the {id} path value.
func athleteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// calendarMonths folds the day timeline into renderable month grids with
// Monday-first weeks.
func calendarMonths(days []training.Day) []templates.CalendarMonth {
	var months []templates.CalendarMonth
	var current *templates.CalendarMonth
	var week [7]templates.CalendarDay

	flushWeek := func() {
		if week == ([7]templates.CalendarDay{}) {
			return
		}
		current.Weeks = append(current.Weeks, week)
		week = [7]templates.CalendarDay{}
	}

	for _, day := range days {
		label := day.Date.Format("January 2006")
		if current == nil || current.Label != label {
			if current != nil {
				flushWeek()
				months = append(months, *current)
			}
			current = &templates.CalendarMonth{Label: label}
		}

		// time.Weekday is Sunday-based; shift so Monday lands in column 0.
		column := (int(day.Date.Weekday()) + 6) % 7
		week[column] = templates.CalendarDay{
			Day:         day.Date.Day(),
			Date:        day.Date.Format("2006-01-02"),
			Color:       day.Status.Color(),
			Appointment: day.Appointment,
		}
		if column == 6 {
			flushWeek()
		}
	}
	if current != nil {
		flushWeek()
		months = append(months, *current)
	}
	return months
}

// statusLegend lists every status with its swatch for the calendar key.
func statusLegend() []templates.SelectOption {
	var legend []templates.SelectOption
	for _, status := range training.Order() {
		legend = append(legend, templates.SelectOption{
			Label: string(status),
			Value: status.Color(),
		})
	}
	return legend
}

// flashMessage maps the post-redirect marker onto a banner.
func flashMessage(query url.Values) string {
	switch query.Get("saved") {
	case "comment":
		return "Comment saved."
	case "wellness":
		return "Wellness entry saved."
	}
	return ""
}

func (h *Handler) handleAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := athleteID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Athlete not found.")
		return
	}

	detail, err := h.board.Athlete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "Athlete not found.")
		return
	}
	if err != nil {
		h.logger.Printf("load athlete %d: %v", id, err)
		h.renderError(w, r, http.StatusBadGateway, "The clinic service is unavailable.")
		return
	}

	comments, err := h.store.ListComments(r.Context(), []int64{id}, commentsPerPage, r.URL.Query().Get("comments_page"))
	if err != nil {
		h.logger.Printf("list comments for athlete %d: %v", id, err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load comments.")
		return
	}
	wellness, err := h.store.ListWellnessEntries(r.Context(), id, wellnessListLimit)
	if err != nil {
		h.logger.Printf("list wellness for athlete %d: %v", id, err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load wellness entries.")
		return
	}

	view := templates.AthleteView{
		AthleteID:    id,
		Label:        detail.Customer.Label(),
		DOB:          detail.Customer.DOB,
		Sex:          detail.Customer.Sex,
		Email:        detail.Customer.Email,
		Phone:        detail.Customer.Phone,
		Groups:       detail.Customer.Groups,
		Calendar:     calendarMonths(detail.Calendar),
		Legend:       statusLegend(),
		CommentsNext: comments.NextPageToken,
		Flash:        flashMessage(r.URL.Query()),
	}
	if detail.CurrentStatus != "" {
		view.CurrentStatus = string(detail.CurrentStatus)
		view.StatusColor = detail.CurrentStatus.Color()
	}
	for _, complaint := range detail.Complaints {
		view.Complaints = append(view.Complaints, templates.ComplaintRow{
			Title:    complaint.Title,
			Onset:    complaint.Onset,
			Priority: complaint.Priority,
			Status:   complaint.Status,
		})
	}
	for _, comment := range comments.Comments {
		view.Comments = append(view.Comments, templates.CommentRow{
			Date: comment.Date.Format("2006-01-02"),
			Body: comment.Body,
		})
	}
	for _, entry := range wellness {
		view.Wellness = append(view.Wellness, templates.WellnessRow{
			Date:       entry.Date.Format("2006-01-02"),
			Mood:       entry.Mood,
			Fatigue:    entry.Fatigue,
			SleepHours: entry.SleepHours,
			Notes:      entry.Notes,
		})
	}
	h.renderPage(w, r, view.Label, templates.AthletePage(view))
}

// parseFormDay reads a yyyy-mm-dd form field as a UTC day.
func parseFormDay(value string) (time.Time, bool) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := athleteID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Athlete not found.")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	date, ok := parseFormDay(r.PostFormValue("date"))
	if !ok {
		h.renderError(w, r, http.StatusBadRequest, "A valid date is required.")
		return
	}

	// The label is denormalized onto the comment row; the cached customer
	// list answers this without rebuilding the athlete detail.
	label := ""
	if got, err := h.board.CustomerLabel(r.Context(), id); err == nil {
		label = got
	}

	if _, err := h.store.CreateComment(r.Context(), storage.Comment{
		AthleteID:    id,
		AthleteLabel: label,
		Date:         date,
		Body:         r.PostFormValue("body"),
	}); err != nil {
		h.logger.Printf("create comment for athlete %d: %v", id, err)
		h.renderError(w, r, http.StatusBadRequest, "Could not save the comment.")
		return
	}
	http.Redirect(w, r, "/athletes/"+strconv.FormatInt(id, 10)+"?saved=comment", http.StatusSeeOther)
}

func (h *Handler) handleCreateWellness(w http.ResponseWriter, r *http.Request) {
	id, ok := athleteID(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Athlete not found.")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	date, ok := parseFormDay(r.PostFormValue("date"))
	if !ok {
		h.renderError(w, r, http.StatusBadRequest, "A valid survey date is required.")
		return
	}
	mood, moodErr := strconv.Atoi(r.PostFormValue("mood"))
	fatigue, fatigueErr := strconv.Atoi(r.PostFormValue("fatigue"))
	sleepHours, sleepErr := strconv.ParseFloat(r.PostFormValue("sleep_hours"), 64)
	if moodErr != nil || fatigueErr != nil || sleepErr != nil {
		h.renderError(w, r, http.StatusBadRequest, "Mood, fatigue and sleep hours must be numbers.")
		return
	}

	if _, err := h.store.CreateWellnessEntry(r.Context(), storage.WellnessEntry{
		AthleteID:  id,
		Date:       date,
		Mood:       mood,
		Fatigue:    fatigue,
		SleepHours: sleepHours,
		Notes:      r.PostFormValue("notes"),
	}); err != nil {
		h.logger.Printf("create wellness entry for athlete %d: %v", id, err)
		h.renderError(w, r, http.StatusBadRequest, "Could not save the wellness entry.")
		return
	}
	http.Redirect(w, r, "/athletes/"+strconv.FormatInt(id, 10)+"?saved=wellness", http.StatusSeeOther)
}
