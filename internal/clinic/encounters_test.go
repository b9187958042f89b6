package clinic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/csipacific/dashboard/internal/training"
)

func parseAppointmentBody(t *testing.T, body string) Appointment {
	t.Helper()
	return parseAppointment(gjson.Parse(body))
}

func TestEncounterIDsCollectsChartsAndIntakes(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("appointment_id"); got != "42" {
			t.Errorf("appointment_id = %q, want 42", got)
		}
		fmt.Fprint(w, `{"charts": [3, 9, "oops"], "intakes": [7]}`)
	}))

	ids, err := client.EncounterIDs(context.Background(), 42)
	if err != nil {
		t.Fatalf("encounter ids: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %v, want 3 numeric ids", ids)
	}
	if ids[0] != 3 || ids[1] != 9 || ids[2] != 7 {
		t.Fatalf("ids = %v, want [3 9 7]", ids)
	}
}

func TestEncounterIDsToleratesUpstreamError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	ids, err := client.EncounterIDs(context.Background(), 42)
	if err != nil {
		t.Fatalf("encounter ids: %v", err)
	}
	if ids != nil {
		t.Fatalf("ids = %v, want nil", ids)
	}
}

func TestEncounterFallsThroughRoots(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/encounters/charts/") {
			fmt.Fprint(w, `{"encounter": {"fields": [{"id": "id_select_2"}]}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	payload, err := client.Encounter(context.Background(), 9)
	if err != nil {
		t.Fatalf("encounter: %v", err)
	}
	if !gjson.GetBytes(payload, "fields").Exists() {
		t.Fatalf("payload = %s, want unwrapped encounter envelope", payload)
	}
}

func TestEncounterExhaustedRootsYieldsEmpty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	payload, err := client.Encounter(context.Background(), 9)
	if err != nil {
		t.Fatalf("encounter: %v", err)
	}
	if payload != nil {
		t.Fatalf("payload = %s, want nil", payload)
	}
}

func TestExtractTrainingStatus(t *testing.T) {
	t.Parallel()

	full := string(training.StatusFullParticipation)
	reduced := string(training.StatusReducedParticipation)

	tests := []struct {
		name    string
		payload string
		want    training.Status
		wantOK  bool
	}{
		{
			"select field id",
			`{"fields": [{"id": "ID_SELECT_2", "value": "` + full + `"}]}`,
			training.StatusFullParticipation, true,
		},
		{
			"named field nested deep",
			`{"sections": [{"items": [{"label": "Training  Status", "value": "` + reduced + `"}]}]}`,
			training.StatusReducedParticipation, true,
		},
		{
			"title variant",
			`{"questions": [{"title": "Current training status", "value": "` + full + `"}]}`,
			training.StatusFullParticipation, true,
		},
		{
			"matching field with invalid value",
			`{"fields": [{"id": "id_select_2", "value": "resting"}]}`,
			"", false,
		},
		{
			"no matching node",
			`{"fields": [{"id": "id_text_1", "value": "` + full + `"}]}`,
			"", false,
		},
		{
			"empty payload",
			``,
			"", false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ExtractTrainingStatus([]byte(tt.payload))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrainingStatusForAppointmentUsesLatestEncounter(t *testing.T) {
	t.Parallel()

	full := string(training.StatusFullParticipation)
	noPart := string(training.StatusNoParticipation)

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/encounters/appointment":
			fmt.Fprint(w, `{"charts": [11], "intakes": [15]}`)
		case "/encounters/15":
			fmt.Fprint(w, `{"fields": [{"id": "id_select_2", "value": "`+noPart+`"}]}`)
		case "/encounters/11":
			t.Error("older encounter should not be fetched")
			fmt.Fprint(w, `{"fields": [{"id": "id_select_2", "value": "`+full+`"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	status, ok, err := client.TrainingStatusForAppointment(context.Background(), 42)
	if err != nil {
		t.Fatalf("training status: %v", err)
	}
	if !ok {
		t.Fatal("expected a status")
	}
	if status != training.StatusNoParticipation {
		t.Fatalf("status = %q, want %q", status, training.StatusNoParticipation)
	}
}

func TestTrainingStatusForAppointmentWithoutEncounters(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"charts": [], "intakes": []}`)
	}))

	_, ok, err := client.TrainingStatusForAppointment(context.Background(), 42)
	if err != nil {
		t.Fatalf("training status: %v", err)
	}
	if ok {
		t.Fatal("expected no status without encounters")
	}
}
