package clinic

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/csipacific/dashboard/internal/training"
)

// encounterFlags are the include variants tried in order for each encounter
// root; tenants expose the form answers under different ones.
var encounterFlags = []url.Values{
	nil,
	{"include": {"fields"}},
	{"include": {"answers"}},
	{"full": {"1"}},
}

// EncounterIDs resolves the chart and intake encounter ids recorded against
// an appointment. Upstream errors yield no ids rather than failing the whole
// board.
func (c *Client) EncounterIDs(ctx context.Context, appointmentID int64) ([]int64, error) {
	body, err := c.get(ctx, "encounters/appointment", url.Values{
		"appointment_id": {strconv.FormatInt(appointmentID, 10)},
	})
	if err != nil {
		if _, ok := err.(*StatusError); ok {
			return nil, nil
		}
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	var ids []int64
	for _, key := range []string{"charts", "intakes"} {
		arr := parsed.Get(key)
		if !arr.IsArray() {
			continue
		}
		arr.ForEach(func(_, value gjson.Result) bool {
			if id := value.Int(); id != 0 {
				ids = append(ids, id)
			}
			return true
		})
	}
	return ids, nil
}

// Encounter fetches the raw encounter payload, trying the generic, chart and
// intake roots with each include variant. A 400/404 on one variant falls
// through to the next; exhausting them all yields an empty payload.
func (c *Client) Encounter(ctx context.Context, encounterID int64) ([]byte, error) {
	id := strconv.FormatInt(encounterID, 10)
	roots := []string{
		"encounters/" + id,
		"encounters/charts/" + id,
		"encounters/intakes/" + id,
	}
	for _, root := range roots {
		for _, flags := range encounterFlags {
			body, err := c.get(ctx, root, flags)
			if err != nil {
				if IsNotFound(err) {
					continue
				}
				return nil, err
			}
			// Some roots wrap the payload in an "encounter" envelope.
			parsed := gjson.ParseBytes(body)
			if envelope := parsed.Get("encounter"); envelope.Exists() {
				return []byte(envelope.Raw), nil
			}
			return body, nil
		}
	}
	return nil, nil
}

// ExtractTrainingStatus walks an encounter payload for the training status
// answer. It matches the dedicated form field id, or any node whose
// name/label/title mentions "training status", as long as the value belongs
// to the participation taxonomy.
func ExtractTrainingStatus(payload []byte) (training.Status, bool) {
	if len(payload) == 0 {
		return "", false
	}
	return walkForStatus(gjson.ParseBytes(payload))
}

func walkForStatus(node gjson.Result) (training.Status, bool) {
	if node.IsObject() {
		nodeID := strings.ToLower(node.Get("id").String())
		value := node.Get("value").String()

		name := node.Get("name").String()
		if name == "" {
			name = node.Get("label").String()
		}
		if name == "" {
			name = node.Get("title").String()
		}
		name = strings.ToLower(strings.Join(strings.Fields(name), " "))

		if nodeID == "id_select_2" || strings.Contains(name, "training status") {
			if status, ok := training.Parse(value); ok {
				return status, true
			}
		}
	}

	if node.IsObject() || node.IsArray() {
		var found training.Status
		var ok bool
		node.ForEach(func(_, child gjson.Result) bool {
			if child.IsObject() || child.IsArray() {
				if status, matched := walkForStatus(child); matched {
					found, ok = status, true
					return false
				}
			}
			return true
		})
		return found, ok
	}
	return "", false
}

// TrainingStatusForAppointment resolves the training status recorded on an
// appointment via its most recent encounter.
func (c *Client) TrainingStatusForAppointment(ctx context.Context, appointmentID int64) (training.Status, bool, error) {
	ids, err := c.EncounterIDs(ctx, appointmentID)
	if err != nil {
		return "", false, err
	}
	if len(ids) == 0 {
		return "", false, nil
	}

	// The highest encounter id is the latest write for the appointment.
	latest := ids[0]
	for _, id := range ids[1:] {
		if id > latest {
			latest = id
		}
	}

	payload, err := c.Encounter(ctx, latest)
	if err != nil {
		return "", false, err
	}
	status, ok := ExtractTrainingStatus(payload)
	return status, ok, nil
}
