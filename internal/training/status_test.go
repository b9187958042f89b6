package training

import "testing"

func TestParseNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	status, ok := Parse("  Full participation   without injury/illness/other health problems ")
	if !ok {
		t.Fatal("expected recognised status")
	}
	if status != StatusFullParticipation {
		t.Fatalf("status = %q, want %q", status, StatusFullParticipation)
	}
}

func TestParseRejectsUnknownText(t *testing.T) {
	t.Parallel()

	if _, ok := Parse("resting comfortably"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := Parse(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestStatusCodeFollowsSeverityOrder(t *testing.T) {
	t.Parallel()

	for idx, status := range Order() {
		if status.Code() != idx {
			t.Fatalf("code(%q) = %d, want %d", status, status.Code(), idx)
		}
	}
	if Status("unknown").Code() != -1 {
		t.Fatalf("unknown code = %d, want -1", Status("unknown").Code())
	}
}

func TestStatusColorFallsBack(t *testing.T) {
	t.Parallel()

	if got := StatusNoParticipation.Color(); got != "#F5B1B1" {
		t.Fatalf("color = %q, want %q", got, "#F5B1B1")
	}
	if got := Status("unknown").Color(); got != UnknownColor {
		t.Fatalf("unknown color = %q, want %q", got, UnknownColor)
	}
}
