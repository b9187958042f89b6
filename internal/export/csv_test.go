package export

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/csipacific/dashboard/internal/registry"
)

var sample = []registry.Profile{
	{ID: "7", FirstName: "Ana", LastName: "Silva", Email: "ana@example.ca", Sport: "Rowing", EnrollmentStatus: "Active"},
	{ID: "8", FirstName: "Lee", LastName: "O'Neil, Jr.", Email: "lee@example.ca", Sport: "Swimming", EnrollmentStatus: "Paused"},
}

func TestRenderHeaderAndQuoting(t *testing.T) {
	t.Parallel()

	data, err := Render(sample)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != "id,first_name,last_name,email,sport,enrollment_status" {
		t.Fatalf("header = %q", lines[0])
	}
	// Commas inside a field stay quoted.
	if !strings.Contains(lines[2], `"O'Neil, Jr."`) {
		t.Fatalf("row = %q, want quoted last name", lines[2])
	}
}

func TestRenderEmptyStillHasHeader(t *testing.T) {
	t.Parallel()

	data, err := Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(string(data)) != "id,first_name,last_name,email,sport,enrollment_status" {
		t.Fatalf("data = %q, want header only", data)
	}
}

func TestETagStableAcrossIdenticalContent(t *testing.T) {
	t.Parallel()

	first, err := Render(sample)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := Render(sample)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if ETag(first) != ETag(second) {
		t.Fatal("identical content should share an etag")
	}

	other, err := Render(sample[:1])
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if ETag(first) == ETag(other) {
		t.Fatal("different content should change the etag")
	}
}

func TestServeCSVSetsDownloadHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	if err := ServeCSV(rec, httptest.NewRequest(http.MethodGet, "/export.csv", nil), "athletes.csv", sample); err != nil {
		t.Fatalf("serve csv: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("content-type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="athletes.csv"` {
		t.Fatalf("content-disposition = %q", got)
	}
	if rec.Header().Get("ETag") == "" {
		t.Fatal("expected etag header")
	}
}

func TestServeCSVAnswersNotModified(t *testing.T) {
	t.Parallel()

	data, err := Render(sample)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/export.csv", nil)
	req.Header.Set("If-None-Match", ETag(data))
	rec := httptest.NewRecorder()
	if err := ServeCSV(rec, req, "athletes.csv", sample); err != nil {
		t.Fatalf("serve csv: %v", err)
	}

	if rec.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotModified)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body = %q, want empty", rec.Body.String())
	}
}
