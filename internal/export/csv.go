// Package export renders filtered athlete profiles as CSV downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/csipacific/dashboard/internal/registry"
)

// header is the stable CSV column order consumers script against.
var header = []string{"id", "first_name", "last_name", "email", "sport", "enrollment_status"}

// Render encodes profiles as CSV with the stable header row.
func Render(profiles []registry.Profile) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, profile := range profiles {
		record := []string{
			profile.ID,
			profile.FirstName,
			profile.LastName,
			profile.Email,
			profile.Sport,
			profile.EnrollmentStatus,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ETag derives a strong validator from the rendered bytes.
func ETag(data []byte) string {
	return fmt.Sprintf("\"%x\"", xxhash.Sum64(data))
}

// ServeCSV writes the rendered profiles as an attachment, answering 304 when
// the client already holds the current bytes.
func ServeCSV(w http.ResponseWriter, r *http.Request, filename string, profiles []registry.Profile) error {
	data, err := Render(profiles)
	if err != nil {
		return err
	}

	etag := ETag(data)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	if strings.TrimSpace(filename) == "" {
		filename = "profiles.csv"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write csv response: %w", err)
	}
	return nil
}
