package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/csipacific/dashboard/internal/storage"
)

// commentPageToken encodes the keyset cursor for comment listing, which
// orders by (date, id).
func commentPageToken(comment storage.Comment) string {
	return strconv.FormatInt(toMillis(comment.Date), 10) + ":" + strconv.FormatInt(comment.ID, 10)
}

func parseCommentPageToken(token string) (int64, int64, error) {
	dateRaw, idRaw, ok := strings.Cut(token, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed page token")
	}
	date, err := strconv.ParseInt(dateRaw, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed page token")
	}
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed page token")
	}
	return date, id, nil
}

// CreateComment inserts one comment and returns it with the assigned id.
func (s *Store) CreateComment(ctx context.Context, comment storage.Comment) (storage.Comment, error) {
	if err := ctx.Err(); err != nil {
		return storage.Comment{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Comment{}, fmt.Errorf("storage is not configured")
	}
	body := strings.TrimSpace(comment.Body)
	if comment.AthleteID == 0 {
		return storage.Comment{}, fmt.Errorf("athlete id is required")
	}
	if body == "" {
		return storage.Comment{}, fmt.Errorf("comment body is required")
	}
	if comment.Date.IsZero() {
		return storage.Comment{}, fmt.Errorf("comment date is required")
	}
	createdAt := comment.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO comments (athlete_id, athlete_label, date, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.AthleteID,
		strings.TrimSpace(comment.AthleteLabel),
		toMillis(comment.Date),
		body,
		toMillis(createdAt),
	)
	if err != nil {
		return storage.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storage.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	comment.ID = id
	comment.Body = body
	comment.AthleteLabel = strings.TrimSpace(comment.AthleteLabel)
	comment.Date = comment.Date.UTC()
	comment.CreatedAt = createdAt
	return comment, nil
}

// ListComments returns one page of comments for the athletes, oldest first.
// An empty athlete filter lists every comment.
func (s *Store) ListComments(ctx context.Context, athleteIDs []int64, pageSize int, pageToken string) (storage.CommentPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.CommentPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CommentPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.CommentPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		clauses []string
		args    []any
	)
	if len(athleteIDs) > 0 {
		placeholders := make([]string, len(athleteIDs))
		for i, id := range athleteIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		clauses = append(clauses, "athlete_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		afterDate, afterID, err := parseCommentPageToken(pageToken)
		if err != nil {
			return storage.CommentPage{}, err
		}
		clauses = append(clauses, "(date > ? OR (date = ? AND id > ?))")
		args = append(args, afterDate, afterDate, afterID)
	}

	query := `SELECT id, athlete_id, athlete_label, date, body, created_at FROM comments`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date ASC, id ASC LIMIT ?"
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.CommentPage{}, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	page := storage.CommentPage{Comments: make([]storage.Comment, 0, pageSize)}
	for rows.Next() {
		var comment storage.Comment
		var date int64
		var createdAt int64
		if err := rows.Scan(
			&comment.ID,
			&comment.AthleteID,
			&comment.AthleteLabel,
			&date,
			&comment.Body,
			&createdAt,
		); err != nil {
			return storage.CommentPage{}, fmt.Errorf("list comments: %w", err)
		}
		comment.Date = fromMillis(date)
		comment.CreatedAt = fromMillis(createdAt)
		page.Comments = append(page.Comments, comment)
	}
	if err := rows.Err(); err != nil {
		return storage.CommentPage{}, fmt.Errorf("list comments: %w", err)
	}
	if len(page.Comments) > pageSize {
		page.NextPageToken = commentPageToken(page.Comments[pageSize-1])
		page.Comments = page.Comments[:pageSize]
	}
	return page, nil
}
