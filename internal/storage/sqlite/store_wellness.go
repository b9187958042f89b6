package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/csipacific/dashboard/internal/storage"
)

// Wellness survey bounds.
const (
	moodMin       = 1
	moodMax       = 5
	fatigueMin    = 0
	fatigueMax    = 10
	sleepHoursMax = 24
	notesMaxLen   = 500
)

// CreateWellnessEntry validates and inserts one survey response.
func (s *Store) CreateWellnessEntry(ctx context.Context, entry storage.WellnessEntry) (storage.WellnessEntry, error) {
	if err := ctx.Err(); err != nil {
		return storage.WellnessEntry{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.WellnessEntry{}, fmt.Errorf("storage is not configured")
	}
	if entry.AthleteID == 0 {
		return storage.WellnessEntry{}, fmt.Errorf("athlete id is required")
	}
	if entry.Date.IsZero() {
		return storage.WellnessEntry{}, fmt.Errorf("entry date is required")
	}
	if entry.Mood < moodMin || entry.Mood > moodMax {
		return storage.WellnessEntry{}, fmt.Errorf("mood must be between %d and %d", moodMin, moodMax)
	}
	if entry.Fatigue < fatigueMin || entry.Fatigue > fatigueMax {
		return storage.WellnessEntry{}, fmt.Errorf("fatigue must be between %d and %d", fatigueMin, fatigueMax)
	}
	if entry.SleepHours < 0 || entry.SleepHours > sleepHoursMax {
		return storage.WellnessEntry{}, fmt.Errorf("sleep hours must be between 0 and %d", sleepHoursMax)
	}
	notes := strings.TrimSpace(entry.Notes)
	if len(notes) > notesMaxLen {
		return storage.WellnessEntry{}, fmt.Errorf("notes must be at most %d characters", notesMaxLen)
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO wellness_entries (athlete_id, date, mood, fatigue, sleep_hours, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.AthleteID,
		toMillis(entry.Date),
		entry.Mood,
		entry.Fatigue,
		entry.SleepHours,
		notes,
		toMillis(createdAt),
	)
	if err != nil {
		return storage.WellnessEntry{}, fmt.Errorf("create wellness entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storage.WellnessEntry{}, fmt.Errorf("create wellness entry: %w", err)
	}

	entry.ID = id
	entry.Notes = notes
	entry.Date = entry.Date.UTC()
	entry.CreatedAt = createdAt
	return entry, nil
}

// ListWellnessEntries returns the athlete's most recent entries, newest first.
func (s *Store) ListWellnessEntries(ctx context.Context, athleteID int64, limit int) ([]storage.WellnessEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if athleteID == 0 {
		return nil, fmt.Errorf("athlete id is required")
	}
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, athlete_id, date, mood, fatigue, sleep_hours, notes, created_at
		   FROM wellness_entries
		  WHERE athlete_id = ?
		  ORDER BY date DESC, id DESC
		  LIMIT ?`,
		athleteID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list wellness entries: %w", err)
	}
	defer rows.Close()

	var entries []storage.WellnessEntry
	for rows.Next() {
		var entry storage.WellnessEntry
		var date int64
		var createdAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.AthleteID,
			&date,
			&entry.Mood,
			&entry.Fatigue,
			&entry.SleepHours,
			&entry.Notes,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list wellness entries: %w", err)
		}
		entry.Date = fromMillis(date)
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wellness entries: %w", err)
	}
	return entries, nil
}
