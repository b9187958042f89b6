package clinic

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Complaint is one normalized clinic complaint (injury or problem).
type Complaint struct {
	ID       string
	Title    string
	Onset    string
	Priority string
	Status   string
}

// titleKeys are tried in order when extracting a complaint name; tenants
// store it under different fields.
var titleKeys = []string{"name", "title", "problem", "injury", "body_part", "complaint"}

var onsetKeys = []string{"onset_date", "onsetDate", "onset", "start_date", "date", "injury_onset"}

var priorityKeys = []string{"priority", "priority_name", "priorityName", "priority_level"}

var complaintStatusKeys = []string{"status", "status_name", "statusName", "state", "complaint_status"}

var complaintIDKeys = []string{"id", "complaint_id", "complaintId"}

func firstString(item gjson.Result, keys []string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(item.Get(key).String()); value != "" {
			return value
		}
	}
	return ""
}

// normalizeComplaint maps one raw record onto the shared complaint shape.
// A status is always rendered, falling back to an em-dash placeholder.
func normalizeComplaint(item gjson.Result) Complaint {
	complaint := Complaint{
		ID:       firstString(item, complaintIDKeys),
		Title:    firstString(item, titleKeys),
		Onset:    tidyDateString(firstString(item, onsetKeys)),
		Priority: firstString(item, priorityKeys),
		Status:   firstString(item, complaintStatusKeys),
	}
	if complaint.Status == "" {
		complaint.Status = "—"
	}
	return complaint
}

// dedupeComplaints collapses records sharing an id, or a casefolded title
// when no id exists. Later records fill fields the first occurrence left
// blank.
func dedupeComplaints(complaints []Complaint) []Complaint {
	var ordered []string
	byKey := map[string]*Complaint{}

	for _, complaint := range complaints {
		key := complaint.ID
		if key == "" {
			key = strings.ToLower(complaint.Title)
		}
		if key == "" {
			continue
		}
		if existing, ok := byKey[key]; ok {
			if existing.Title == "" {
				existing.Title = complaint.Title
			}
			if existing.Onset == "" {
				existing.Onset = complaint.Onset
			}
			if existing.Priority == "" {
				existing.Priority = complaint.Priority
			}
			if existing.Status == "" || existing.Status == "—" {
				if complaint.Status != "" {
					existing.Status = complaint.Status
				}
			}
			continue
		}
		copied := complaint
		byKey[key] = &copied
		ordered = append(ordered, key)
	}

	result := make([]Complaint, 0, len(ordered))
	for _, key := range ordered {
		result = append(result, *byKey[key])
	}
	return result
}

// sortComplaints orders newest onset first, with undated complaints last.
func sortComplaints(complaints []Complaint) {
	sort.SliceStable(complaints, func(i, j int) bool {
		left, leftOK := ParseDay(complaints[i].Onset)
		right, rightOK := ParseDay(complaints[j].Onset)
		if leftOK != rightOK {
			return leftOK
		}
		if !leftOK {
			return false
		}
		return left.After(right)
	})
}

// AppointmentComplaints lists the complaints attached to one appointment.
// Upstream errors yield no complaints rather than failing the page.
func (c *Client) AppointmentComplaints(ctx context.Context, appointmentID int64) ([]Complaint, error) {
	path := "appointments/" + strconv.FormatInt(appointmentID, 10) + "/complaints"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		if _, ok := err.(*StatusError); ok {
			return nil, nil
		}
		return nil, err
	}

	var complaints []Complaint
	listBlock(body).ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			complaints = append(complaints, normalizeComplaint(item))
		}
		return true
	})
	return complaints, nil
}

// CustomerComplaints merges every complaint source for one customer: the
// customer-level endpoints, the per-appointment endpoint, and complaints
// inlined on appointment records. The result is deduped and sorted newest
// onset first.
func (c *Client) CustomerComplaints(ctx context.Context, customerID int64, appointments []Appointment) ([]Complaint, error) {
	var raw []Complaint
	id := strconv.FormatInt(customerID, 10)

	collect := func(rows []gjson.Result, err error) error {
		if err != nil {
			// Tenants without the endpoint answer with an error status.
			if _, ok := err.(*StatusError); ok {
				return nil
			}
			return err
		}
		for _, row := range rows {
			if row.IsObject() {
				raw = append(raw, normalizeComplaint(row))
			}
		}
		return nil
	}

	rows, err := c.pagedList(ctx, "customers/"+id+"/complaints", url.Values{"include": {"full"}})
	if err := collect(rows, err); err != nil {
		return nil, err
	}

	rows, err = c.pagedList(ctx, "complaints/list", url.Values{"customer_id": {id}})
	if err := collect(rows, err); err != nil {
		return nil, err
	}

	for _, appointment := range appointments {
		fromAppointment, err := c.AppointmentComplaints(ctx, appointment.ID)
		if err != nil {
			return nil, err
		}
		raw = append(raw, fromAppointment...)
		if appointment.HasInline {
			raw = append(raw, appointment.InlineComplaint)
		}
	}

	deduped := dedupeComplaints(raw)
	sortComplaints(deduped)
	return deduped, nil
}
