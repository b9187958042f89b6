package clinic

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// appointmentsSince is far enough back to cover every clinic record.
const appointmentsSince = "2000-01-01"

// Appointment is one clinic visit for a customer.
type Appointment struct {
	ID         int64
	CustomerID int64
	Date       string
	// InlineComplaint carries the complaint object embedded on the
	// appointment record, when present.
	InlineComplaint Complaint
	HasInline       bool
}

func parseAppointment(item gjson.Result) Appointment {
	appointment := Appointment{
		ID:         item.Get("id").Int(),
		CustomerID: item.Get("customer.id").Int(),
		Date:       tidyDate(item.Get("date")),
	}
	if inline := item.Get("complaint"); inline.IsObject() {
		complaint := normalizeComplaint(inline)
		if complaint.Title != "" {
			appointment.InlineComplaint = complaint
			appointment.HasInline = true
		}
	}
	return appointment
}

// Appointments lists every appointment for a branch, oldest filter window
// first so history is complete.
func (c *Client) Appointments(ctx context.Context, branch int) ([]Appointment, error) {
	path := "appointments/list/" + strconv.Itoa(branch)
	rows, err := c.pagedList(ctx, path, url.Values{
		"start_date": {appointmentsSince},
		"status":     {"all"},
	})
	if err != nil {
		return nil, err
	}

	appointments := make([]Appointment, 0, len(rows))
	for _, row := range rows {
		appointments = append(appointments, parseAppointment(row))
	}
	return appointments, nil
}

// ByCustomer groups appointments by their customer id, dropping records that
// carry no customer.
func ByCustomer(appointments []Appointment) map[int64][]Appointment {
	grouped := make(map[int64][]Appointment)
	for _, appointment := range appointments {
		if appointment.CustomerID == 0 {
			continue
		}
		grouped[appointment.CustomerID] = append(grouped[appointment.CustomerID], appointment)
	}
	return grouped
}
