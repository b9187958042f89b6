// Package storage defines persistence contracts for dashboard state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing or expired.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// Comment stores one practitioner note about an athlete on a date.
type Comment struct {
	ID           int64
	AthleteID    int64
	AthleteLabel string
	Date         time.Time
	Body         string
	CreatedAt    time.Time
}

// CommentPage stores one page of comment records.
type CommentPage struct {
	Comments      []Comment
	NextPageToken string
}

// CommentStore persists athlete comments.
type CommentStore interface {
	CreateComment(ctx context.Context, comment Comment) (Comment, error)
	ListComments(ctx context.Context, athleteIDs []int64, pageSize int, pageToken string) (CommentPage, error)
}

// WellnessEntry stores one athlete wellness survey response.
type WellnessEntry struct {
	ID         int64
	AthleteID  int64
	Date       time.Time
	Mood       int
	Fatigue    int
	SleepHours float64
	Notes      string
	CreatedAt  time.Time
}

// WellnessStore persists wellness survey responses.
type WellnessStore interface {
	CreateWellnessEntry(ctx context.Context, entry WellnessEntry) (WellnessEntry, error)
	ListWellnessEntries(ctx context.Context, athleteID int64, limit int) ([]WellnessEntry, error)
}

// Session stores one authenticated browser session and its upstream tokens.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	UserLabel    string
	UserEmail    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// SessionStore persists browser sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// LoginState stores one in-flight OAuth authorization attempt.
type LoginState struct {
	State     string
	Verifier  string
	Redirect  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LoginStateStore persists pending OAuth states. Consume removes the state so
// each authorization code exchange happens at most once.
type LoginStateStore interface {
	CreateLoginState(ctx context.Context, state LoginState) error
	ConsumeLoginState(ctx context.Context, state string) (LoginState, error)
}

// CacheEntry stores one cached upstream response payload.
type CacheEntry struct {
	Key       string
	Payload   []byte
	ExpiresAt time.Time
}

// CacheStore persists upstream responses with a TTL. Get on a missing or
// expired key returns ErrNotFound.
type CacheStore interface {
	GetCache(ctx context.Context, key string, now time.Time) (CacheEntry, error)
	PutCache(ctx context.Context, entry CacheEntry) error
}

// Store aggregates every dashboard persistence contract.
type Store interface {
	CommentStore
	WellnessStore
	SessionStore
	LoginStateStore
	CacheStore
}
