package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/csipacific/dashboard/internal/storage"
)

// CreateSession inserts one browser session.
func (s *Store) CreateSession(ctx context.Context, session storage.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(session.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.AccessToken) == "" {
		return fmt.Errorf("access token is required")
	}
	if session.ExpiresAt.IsZero() {
		return fmt.Errorf("session expiry is required")
	}
	createdAt := session.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (
		   id, access_token, refresh_token, token_expiry,
		   user_label, user_email, created_at, expires_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		session.AccessToken,
		session.RefreshToken,
		toMillis(session.TokenExpiry),
		strings.TrimSpace(session.UserLabel),
		strings.TrimSpace(session.UserEmail),
		toMillis(createdAt),
		toMillis(session.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns one unexpired session by id.
func (s *Store) GetSession(ctx context.Context, id string) (storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return storage.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Session{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.Session{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, access_token, refresh_token, token_expiry,
		        user_label, user_email, created_at, expires_at
		   FROM sessions
		  WHERE id = ?`,
		id,
	)

	var session storage.Session
	var tokenExpiry, createdAt, expiresAt int64
	err := row.Scan(
		&session.ID,
		&session.AccessToken,
		&session.RefreshToken,
		&tokenExpiry,
		&session.UserLabel,
		&session.UserEmail,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}

	session.TokenExpiry = fromMillis(tokenExpiry)
	session.CreatedAt = fromMillis(createdAt)
	session.ExpiresAt = fromMillis(expiresAt)
	if !session.ExpiresAt.After(time.Now().UTC()) {
		return storage.Session{}, storage.ErrNotFound
	}
	return session, nil
}

// DeleteSession removes one session. Deleting a missing session is not an
// error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions and login states past their expiry.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	cutoff := toMillis(now)

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM login_states WHERE expires_at <= ?`, cutoff); err != nil {
		return deleted, fmt.Errorf("delete expired login states: %w", err)
	}
	return deleted, nil
}

// CreateLoginState inserts one pending OAuth state.
func (s *Store) CreateLoginState(ctx context.Context, state storage.LoginState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	value := strings.TrimSpace(state.State)
	if value == "" {
		return fmt.Errorf("state is required")
	}
	if strings.TrimSpace(state.Verifier) == "" {
		return fmt.Errorf("verifier is required")
	}
	if state.ExpiresAt.IsZero() {
		return fmt.Errorf("state expiry is required")
	}
	createdAt := state.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO login_states (state, verifier, redirect, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		value,
		state.Verifier,
		strings.TrimSpace(state.Redirect),
		toMillis(createdAt),
		toMillis(state.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create login state: %w", err)
	}
	return nil
}

// ConsumeLoginState returns one unexpired pending state and removes it.
func (s *Store) ConsumeLoginState(ctx context.Context, state string) (storage.LoginState, error) {
	if err := ctx.Err(); err != nil {
		return storage.LoginState{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.LoginState{}, fmt.Errorf("storage is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return storage.LoginState{}, fmt.Errorf("state is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT state, verifier, redirect, created_at, expires_at
		   FROM login_states
		  WHERE state = ?`,
		state,
	)

	var pending storage.LoginState
	var createdAt, expiresAt int64
	err := row.Scan(&pending.State, &pending.Verifier, &pending.Redirect, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.LoginState{}, storage.ErrNotFound
		}
		return storage.LoginState{}, fmt.Errorf("consume login state: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM login_states WHERE state = ?`, state); err != nil {
		return storage.LoginState{}, fmt.Errorf("consume login state: %w", err)
	}

	pending.CreatedAt = fromMillis(createdAt)
	pending.ExpiresAt = fromMillis(expiresAt)
	if !pending.ExpiresAt.After(time.Now().UTC()) {
		return storage.LoginState{}, storage.ErrNotFound
	}
	return pending, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
