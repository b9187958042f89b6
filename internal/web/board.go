package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/csipacific/dashboard/internal/clinic"
	"github.com/csipacific/dashboard/internal/storage"
	"github.com/csipacific/dashboard/internal/training"
)

// clinicClient is the subset of the clinic API the board consumes.
type clinicClient interface {
	Customers(ctx context.Context) ([]clinic.Customer, error)
	Appointments(ctx context.Context, branch int) ([]clinic.Appointment, error)
	CustomerComplaints(ctx context.Context, customerID int64, appointments []clinic.Appointment) ([]clinic.Complaint, error)
	TrainingStatusForAppointment(ctx context.Context, appointmentID int64) (training.Status, bool, error)
}

// boardCacheTTL bounds how long clinic rosters are served from cache.
const boardCacheTTL = 10 * time.Minute

// defaultBranch is the clinic branch whose appointments feed the board.
const defaultBranch = 1

// Board aggregates clinic data into the training board views.
type Board struct {
	clinic clinicClient
	cache  storage.CacheStore
	logger *log.Logger
	branch int
	now    func() time.Time
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithBranch selects the clinic branch whose appointments feed the board.
func WithBranch(branch int) BoardOption {
	return func(b *Board) {
		if branch > 0 {
			b.branch = branch
		}
	}
}

// NewBoard wires the clinic client with the upstream response cache.
func NewBoard(client clinicClient, cache storage.CacheStore, logger *log.Logger, opts ...BoardOption) *Board {
	if logger == nil {
		logger = log.Default()
	}
	board := &Board{
		clinic: client,
		cache:  cache,
		logger: logger,
		branch: defaultBranch,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(board)
	}
	return board
}

// cachedFetch serves a payload from the cache, falling back to fetch and
// storing the result. Cache failures degrade to direct fetches.
func cachedFetch[T any](ctx context.Context, b *Board, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if b.cache != nil {
		if entry, err := b.cache.GetCache(ctx, key, b.now()); err == nil {
			var cached T
			if err := json.Unmarshal(entry.Payload, &cached); err == nil {
				return cached, nil
			}
			b.logger.Printf("decode cached %s: stale payload dropped", key)
		} else if !errors.Is(err, storage.ErrNotFound) {
			b.logger.Printf("read cache %s: %v", key, err)
		}
	}

	fetched, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	if b.cache != nil {
		payload, err := json.Marshal(fetched)
		if err != nil {
			b.logger.Printf("encode cache %s: %v", key, err)
			return fetched, nil
		}
		if err := b.cache.PutCache(ctx, storage.CacheEntry{
			Key:       key,
			Payload:   payload,
			ExpiresAt: b.now().Add(boardCacheTTL),
		}); err != nil {
			b.logger.Printf("write cache %s: %v", key, err)
		}
	}
	return fetched, nil
}

// Customers lists active clinic customers, served from cache when fresh.
func (b *Board) Customers(ctx context.Context) ([]clinic.Customer, error) {
	return cachedFetch(ctx, b, "clinic:customers", func(ctx context.Context) ([]clinic.Customer, error) {
		return b.clinic.Customers(ctx)
	})
}

// Appointments lists branch appointments, served from cache when fresh.
func (b *Board) Appointments(ctx context.Context) ([]clinic.Appointment, error) {
	return cachedFetch(ctx, b, fmt.Sprintf("clinic:appointments:%d", b.branch), func(ctx context.Context) ([]clinic.Appointment, error) {
		return b.clinic.Appointments(ctx, b.branch)
	})
}

// statusResult carries a resolved training status through the cache; Known
// distinguishes "no status recorded" from a cache miss.
type statusResult struct {
	Status training.Status
	Known  bool
}

// trainingStatus resolves the status recorded on an appointment, served from
// cache when fresh. Encounter probing is the most expensive clinic call chain,
// so each appointment is resolved at most once per TTL window.
func (b *Board) trainingStatus(ctx context.Context, appointmentID int64) (training.Status, bool, error) {
	result, err := cachedFetch(ctx, b, fmt.Sprintf("clinic:status:%d", appointmentID), func(ctx context.Context) (statusResult, error) {
		status, ok, err := b.clinic.TrainingStatusForAppointment(ctx, appointmentID)
		if err != nil {
			return statusResult{}, err
		}
		return statusResult{Status: status, Known: ok}, nil
	})
	if err != nil {
		return "", false, err
	}
	return result.Status, result.Known, nil
}

// complaints merges every complaint source for a customer, served from cache
// when fresh.
func (b *Board) complaints(ctx context.Context, customerID int64, appointments []clinic.Appointment) ([]clinic.Complaint, error) {
	return cachedFetch(ctx, b, fmt.Sprintf("clinic:complaints:%d", customerID), func(ctx context.Context) ([]clinic.Complaint, error) {
		return b.clinic.CustomerComplaints(ctx, customerID, appointments)
	})
}

// CustomerLabel resolves an athlete's display label from the cached customer
// list without touching the per-athlete endpoints.
func (b *Board) CustomerLabel(ctx context.Context, athleteID int64) (string, error) {
	customers, err := b.Customers(ctx)
	if err != nil {
		return "", err
	}
	for _, customer := range customers {
		if customer.ID == athleteID {
			return customer.Label(), nil
		}
	}
	return "", storage.ErrNotFound
}

// GroupOptions lists the selectable patient groups.
func (b *Board) GroupOptions(ctx context.Context) ([]string, error) {
	customers, err := b.Customers(ctx)
	if err != nil {
		return nil, err
	}
	return clinic.GroupNames(customers), nil
}

// RosterEntry is one athlete line on the training board.
type RosterEntry struct {
	Customer   clinic.Customer
	Status     training.Status
	LastAppt   string
	Complaints []string
}

// latestAppointment picks the appointment with the newest parseable date.
func latestAppointment(appointments []clinic.Appointment) (clinic.Appointment, bool) {
	var best clinic.Appointment
	var bestDay time.Time
	found := false
	for _, appointment := range appointments {
		parsed, ok := clinic.ParseDay(appointment.Date)
		if !ok {
			continue
		}
		if !found || parsed.After(bestDay) {
			best, bestDay, found = appointment, parsed, true
		}
	}
	return best, found
}

// latestStatusFast resolves the current status from only the most recent
// appointment's encounters, which keeps the roster cheap to build.
func (b *Board) latestStatusFast(ctx context.Context, appointments []clinic.Appointment) training.Status {
	latest, ok := latestAppointment(appointments)
	if !ok {
		return ""
	}
	status, ok, err := b.trainingStatus(ctx, latest.ID)
	if err != nil {
		b.logger.Printf("resolve status for appointment %d: %v", latest.ID, err)
		return ""
	}
	if !ok {
		return ""
	}
	return status
}

// Roster builds the board rows for athletes in the selected groups, sorted by
// athlete name.
func (b *Board) Roster(ctx context.Context, groups []string) ([]RosterEntry, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	customers, err := b.Customers(ctx)
	if err != nil {
		return nil, err
	}
	appointments, err := b.Appointments(ctx)
	if err != nil {
		return nil, err
	}
	byCustomer := clinic.ByCustomer(appointments)

	var entries []RosterEntry
	for _, customer := range customers {
		if !customer.InGroups(groups) {
			continue
		}
		myAppointments := byCustomer[customer.ID]

		entry := RosterEntry{
			Customer: customer,
			Status:   b.latestStatusFast(ctx, myAppointments),
		}
		if latest, ok := latestAppointment(myAppointments); ok {
			entry.LastAppt = latest.Date
		}

		complaints, err := b.complaints(ctx, customer.ID, myAppointments)
		if err != nil {
			return nil, err
		}
		for _, complaint := range complaints {
			if complaint.Title != "" {
				entry.Complaints = append(entry.Complaints, complaint.Title)
			}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Customer.Label()) < strings.ToLower(entries[j].Customer.Label())
	})
	return entries, nil
}

// AthleteDetail carries everything the athlete page needs from the clinic.
type AthleteDetail struct {
	Customer      clinic.Customer
	CurrentStatus training.Status
	Complaints    []clinic.Complaint
	Calendar      []training.Day
}

// Athlete resolves one athlete's full detail: demographics, complaints, the
// forward-filled status timeline, and the calendar through today.
func (b *Board) Athlete(ctx context.Context, athleteID int64) (AthleteDetail, error) {
	customers, err := b.Customers(ctx)
	if err != nil {
		return AthleteDetail{}, err
	}
	var customer clinic.Customer
	found := false
	for _, candidate := range customers {
		if candidate.ID == athleteID {
			customer, found = candidate, true
			break
		}
	}
	if !found {
		return AthleteDetail{}, storage.ErrNotFound
	}

	appointments, err := b.Appointments(ctx)
	if err != nil {
		return AthleteDetail{}, err
	}
	myAppointments := clinic.ByCustomer(appointments)[athleteID]

	var entries []training.DatedStatus
	var appointmentDays []time.Time
	for _, appointment := range myAppointments {
		day, ok := clinic.ParseDay(appointment.Date)
		if !ok {
			continue
		}
		appointmentDays = append(appointmentDays, day)

		status, ok, err := b.trainingStatus(ctx, appointment.ID)
		if err != nil {
			b.logger.Printf("resolve status for appointment %d: %v", appointment.ID, err)
			continue
		}
		if ok {
			entries = append(entries, training.DatedStatus{Date: day, Status: status})
		}
	}

	complaints, err := b.complaints(ctx, athleteID, myAppointments)
	if err != nil {
		return AthleteDetail{}, err
	}

	today := b.now()
	return AthleteDetail{
		Customer:      customer,
		CurrentStatus: training.CurrentStatus(entries, today),
		Complaints:    complaints,
		Calendar:      training.Calendar(entries, appointmentDays, today),
	}, nil
}
