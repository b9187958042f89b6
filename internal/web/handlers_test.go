package web

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/csipacific/dashboard/internal/auth"
	"github.com/csipacific/dashboard/internal/auth/sessioncookie"
	"github.com/csipacific/dashboard/internal/clinic"
	"github.com/csipacific/dashboard/internal/registry"
	"github.com/csipacific/dashboard/internal/storage"
	"github.com/csipacific/dashboard/internal/training"
)

type fakeDirectory struct {
	page      registry.ProfilePage
	all       []registry.Profile
	provinces []registry.Option
	locations []registry.Option
	places    []registry.Option
	sports    []registry.Option

	lastFilters url.Values
}

func (f *fakeDirectory) Profiles(_ context.Context, _ string, filters url.Values, _, _ int) (registry.ProfilePage, error) {
	f.lastFilters = filters
	return f.page, nil
}

func (f *fakeDirectory) AllProfiles(_ context.Context, _ string, filters url.Values) ([]registry.Profile, error) {
	f.lastFilters = filters
	return f.all, nil
}

func (f *fakeDirectory) Provinces(context.Context, string) ([]registry.Option, error) {
	return f.provinces, nil
}

func (f *fakeDirectory) Locations(context.Context, string, string) ([]registry.Option, error) {
	return f.locations, nil
}

func (f *fakeDirectory) Places(context.Context, string, string, string) ([]registry.Option, error) {
	return f.places, nil
}

func (f *fakeDirectory) Sports(context.Context, string) ([]registry.Option, error) {
	return f.sports, nil
}

type fakeBoard struct {
	groups       []string
	roster       []RosterEntry
	detail       AthleteDetail
	detailErr    error
	label        string
	labelErr     error
	athleteCalls int
}

func (f *fakeBoard) GroupOptions(context.Context) ([]string, error) {
	return f.groups, nil
}

func (f *fakeBoard) Roster(context.Context, []string) ([]RosterEntry, error) {
	return f.roster, nil
}

func (f *fakeBoard) Athlete(context.Context, int64) (AthleteDetail, error) {
	f.athleteCalls++
	return f.detail, f.detailErr
}

func (f *fakeBoard) CustomerLabel(context.Context, int64) (string, error) {
	return f.label, f.labelErr
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]storage.Session
	states   map[string]storage.LoginState
	comments []storage.Comment
	wellness []storage.WellnessEntry
	cache    map[string]storage.CacheEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]storage.Session{},
		states:   map[string]storage.LoginState{},
		cache:    map[string]storage.CacheEntry{},
	}
}

func (s *fakeStore) CreateComment(_ context.Context, comment storage.Comment) (storage.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.ID = int64(len(s.comments) + 1)
	s.comments = append(s.comments, comment)
	return comment, nil
}

func (s *fakeStore) ListComments(_ context.Context, athleteIDs []int64, _ int, _ string) (storage.CommentPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var page storage.CommentPage
	for _, comment := range s.comments {
		for _, id := range athleteIDs {
			if comment.AthleteID == id {
				page.Comments = append(page.Comments, comment)
			}
		}
	}
	return page, nil
}

func (s *fakeStore) CreateWellnessEntry(_ context.Context, entry storage.WellnessEntry) (storage.WellnessEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = int64(len(s.wellness) + 1)
	s.wellness = append(s.wellness, entry)
	return entry, nil
}

func (s *fakeStore) ListWellnessEntries(_ context.Context, athleteID int64, _ int) ([]storage.WellnessEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []storage.WellnessEntry
	for _, entry := range s.wellness {
		if entry.AthleteID == athleteID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *fakeStore) CreateSession(_ context.Context, session storage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeStore) GetSession(_ context.Context, id string) (storage.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return storage.Session{}, storage.ErrNotFound
	}
	return session, nil
}

func (s *fakeStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStore) CreateLoginState(_ context.Context, state storage.LoginState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.State] = state
	return nil
}

func (s *fakeStore) ConsumeLoginState(_ context.Context, state string) (storage.LoginState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.states[state]
	if !ok {
		return storage.LoginState{}, storage.ErrNotFound
	}
	delete(s.states, state)
	return pending, nil
}

func (s *fakeStore) GetCache(_ context.Context, key string, now time.Time) (storage.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok || !entry.ExpiresAt.After(now) {
		return storage.CacheEntry{}, storage.ErrNotFound
	}
	return entry, nil
}

func (s *fakeStore) PutCache(_ context.Context, entry storage.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[entry.Key] = entry
	return nil
}

var _ storage.Store = (*fakeStore)(nil)

type handlerFixture struct {
	routes    http.Handler
	store     *fakeStore
	directory *fakeDirectory
	board     *fakeBoard
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	store := newFakeStore()
	store.sessions["sess-1"] = storage.Session{
		ID:          "sess-1",
		AccessToken: "token-1",
		UserLabel:   "Jo Tremblay",
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	logger := log.New(testWriter{}, "", 0)
	authSvc, err := auth.NewService(auth.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		AppURL:       "http://localhost:8050",
		SiteURL:      "https://auth.example",
		SecretKey:    "signing-key",
	}, store, nil, logger)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	directory := &fakeDirectory{}
	board := &fakeBoard{}
	handler := NewHandler(directory, board, store, authSvc, logger)
	return &handlerFixture{
		routes:    handler.Routes(),
		store:     store,
		directory: directory,
		board:     board,
	}
}

func (f *handlerFixture) request(method, target string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: "sess-1"})
	return req
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/athletes", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if location := rec.Header().Get("Location"); !strings.HasPrefix(location, "/login") {
		t.Fatalf("location = %q, want /login", location)
	}
}

func TestHealthzIsPublic(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestProfilesPageRenders(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	fixture.directory.provinces = []registry.Option{{Label: "British Columbia", Value: "1"}}
	fixture.directory.sports = []registry.Option{{Label: "Rowing", Value: "3"}}
	fixture.directory.page = registry.ProfilePage{
		Count: 1234,
		Next:  "https://apps.example/api/registration/profile/?offset=20",
		Profiles: []registry.Profile{
			{ID: "10", FirstName: "Ines", LastName: "Moreau", Email: "ines@example.ca", Sport: "Rowing", EnrollmentStatus: "Enrolled"},
		},
	}

	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodGet, "/athletes?sport=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"1,234 athletes",
		"Ines Moreau",
		"Signed in as: Jo Tremblay",
		"/athletes/export.csv?sport=3",
		"British Columbia",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if got := fixture.directory.lastFilters.Get("sport"); got != "3" {
		t.Fatalf("sport filter = %q, want 3", got)
	}
}

func TestProfilesExportServesCSV(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	fixture.directory.all = []registry.Profile{
		{ID: "10", FirstName: "Ines", LastName: "Moreau", Email: "ines@example.ca", Sport: "Rowing", EnrollmentStatus: "Enrolled"},
	}

	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodGet, "/athletes/export.csv?province=1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "id,first_name,last_name,email,sport,enrollment_status\n") {
		t.Fatalf("csv header missing: %q", body)
	}
	if !strings.Contains(body, "10,Ines,Moreau,ines@example.ca,Rowing,Enrolled") {
		t.Fatalf("csv record missing: %q", body)
	}
	if got := fixture.directory.lastFilters.Get("province_territory"); got != "1" {
		t.Fatalf("province filter = %q, want 1", got)
	}
}

func TestAthletePageNotFound(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	fixture.board.detailErr = storage.ErrNotFound

	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodGet, "/athletes/42", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAthletePageRenders(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	fixture.board.detail = AthleteDetail{
		Customer: clinic.Customer{
			ID:        5,
			FirstName: "Ines",
			LastName:  "Moreau",
			DOB:       "1999-04-02",
			Groups:    []string{"rowing"},
		},
		CurrentStatus: training.StatusFullParticipation,
		Complaints:    []clinic.Complaint{{Title: "Knee pain", Onset: "2025-03-09", Status: "Open"}},
		Calendar: []training.Day{
			{Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), Status: training.StatusFullParticipation, Appointment: true},
		},
	}
	fixture.store.comments = []storage.Comment{
		{ID: 1, AthleteID: 5, Date: time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC), Body: "Cleared for full sessions"},
	}

	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodGet, "/athletes/5?saved=comment", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Ines Moreau (ID 5)",
		"Knee pain",
		"Cleared for full sessions",
		"Comment saved.",
		"March 2025",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestCreateCommentRedirects(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	fixture.board.label = "Ines Moreau (ID 5)"

	form := url.Values{"date": {"2025-03-11"}, "body": {"Back to practice"}}
	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodPost, "/athletes/5/comments", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/athletes/5?saved=comment" {
		t.Fatalf("location = %q", location)
	}
	if len(fixture.store.comments) != 1 {
		t.Fatalf("comments stored = %d, want 1", len(fixture.store.comments))
	}
	stored := fixture.store.comments[0]
	if stored.AthleteID != 5 || stored.Body != "Back to practice" {
		t.Fatalf("stored comment = %+v", stored)
	}
	if stored.AthleteLabel != "Ines Moreau (ID 5)" {
		t.Fatalf("stored label = %q", stored.AthleteLabel)
	}
	if got := stored.Date.Format("2006-01-02"); got != "2025-03-11" {
		t.Fatalf("stored date = %s", got)
	}
	if fixture.board.athleteCalls != 0 {
		t.Fatalf("athlete detail rebuilds = %d, want 0", fixture.board.athleteCalls)
	}
}

func TestCreateWellnessRejectsBadNumbers(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	form := url.Values{
		"date":        {"2025-03-11"},
		"mood":        {"great"},
		"fatigue":     {"2"},
		"sleep_hours": {"8"},
	}
	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodPost, "/athletes/5/wellness", form))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(fixture.store.wellness) != 0 {
		t.Fatalf("wellness stored = %d, want 0", len(fixture.store.wellness))
	}
}

func TestCreateWellnessStoresEntry(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	form := url.Values{
		"date":        {"2025-03-11"},
		"mood":        {"4"},
		"fatigue":     {"2"},
		"sleep_hours": {"7.75"},
		"notes":       {"slept well"},
	}
	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodPost, "/athletes/5/wellness", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/athletes/5?saved=wellness" {
		t.Fatalf("location = %q", location)
	}
	if len(fixture.store.wellness) != 1 {
		t.Fatalf("wellness stored = %d, want 1", len(fixture.store.wellness))
	}
	stored := fixture.store.wellness[0]
	if stored.Mood != 4 || stored.Fatigue != 2 || stored.SleepHours != 7.75 || stored.Notes != "slept well" {
		t.Fatalf("stored entry = %+v", stored)
	}
}

func TestRosterPageRendersRows(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	fixture.board.groups = []string{"rowing", "skiing"}
	fixture.board.roster = []RosterEntry{
		{
			Customer:   clinic.Customer{ID: 5, FirstName: "Ines", LastName: "Moreau", Groups: []string{"rowing"}},
			Status:     training.StatusReducedParticipation,
			LastAppt:   "2025-03-15",
			Complaints: []string{"Knee pain"},
		},
	}

	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodGet, "/roster?group=rowing", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`href="/athletes/5"`,
		"Ines Moreau (ID 5)",
		"Knee pain",
		"2025-03-15",
		string(training.StatusReducedParticipation),
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestRosterPagePromptsForGroups(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	fixture.board.groups = []string{"rowing"}

	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodGet, "/roster", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Select one or more patient groups.") {
		t.Fatalf("missing prompt: %q", rec.Body.String())
	}
}

func TestHomeRedirectsToAthletes(t *testing.T) {
	t.Parallel()

	fixture := newHandlerFixture(t)
	rec := httptest.NewRecorder()
	fixture.routes.ServeHTTP(rec, fixture.request(http.MethodGet, "/", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/athletes" {
		t.Fatalf("location = %q", location)
	}
}

func TestCalendarMonthsMondayFirst(t *testing.T) {
	t.Parallel()

	// 2025-03-01 is a Saturday; the first week should pad Monday-Friday.
	var days []training.Day
	for day := 1; day <= 31; day++ {
		days = append(days, training.Day{
			Date:   time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
			Status: training.StatusFullParticipation,
		})
	}
	months := calendarMonths(days)

	if len(months) != 1 {
		t.Fatalf("months = %d, want 1", len(months))
	}
	month := months[0]
	if month.Label != "March 2025" {
		t.Fatalf("label = %q", month.Label)
	}
	if len(month.Weeks) != 6 {
		t.Fatalf("weeks = %d, want 6", len(month.Weeks))
	}
	first := month.Weeks[0]
	for column := 0; column < 5; column++ {
		if first[column].Day != 0 {
			t.Fatalf("column %d = %d, want empty", column, first[column].Day)
		}
	}
	if first[5].Day != 1 || first[6].Day != 2 {
		t.Fatalf("weekend cells = %d, %d", first[5].Day, first[6].Day)
	}
	last := month.Weeks[5]
	if last[0].Day != 31 {
		t.Fatalf("last week monday = %d, want 31", last[0].Day)
	}
}
