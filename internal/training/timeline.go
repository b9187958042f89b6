package training

import (
	"sort"
	"time"
)

// DatedStatus records the status reported on a specific day.
type DatedStatus struct {
	Date   time.Time
	Status Status
}

// Day represents one rendered calendar cell.
type Day struct {
	Date        time.Time
	Status      Status
	Appointment bool
}

// truncateDay drops the time-of-day component in UTC.
func truncateDay(value time.Time) time.Time {
	value = value.UTC()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

// dedupeByDay sorts entries by date and keeps the last report for each day.
func dedupeByDay(entries []DatedStatus) []DatedStatus {
	sorted := make([]DatedStatus, 0, len(entries))
	for _, entry := range entries {
		if entry.Date.IsZero() || !entry.Status.Known() {
			continue
		}
		sorted = append(sorted, DatedStatus{Date: truncateDay(entry.Date), Status: entry.Status})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := sorted[:0]
	for _, entry := range sorted {
		if len(deduped) > 0 && deduped[len(deduped)-1].Date.Equal(entry.Date) {
			deduped[len(deduped)-1] = entry
			continue
		}
		deduped = append(deduped, entry)
	}
	return deduped
}

// ForwardFill expands dated status reports into one entry per day from the
// earliest report through the given end day, carrying the last known status
// forward across gaps. Later reports on the same day win.
func ForwardFill(entries []DatedStatus, through time.Time) []DatedStatus {
	deduped := dedupeByDay(entries)
	if len(deduped) == 0 {
		return nil
	}

	end := truncateDay(through)
	if end.Before(deduped[0].Date) {
		end = deduped[0].Date
	}

	var filled []DatedStatus
	idx := 0
	current := deduped[0].Status
	for day := deduped[0].Date; !day.After(end); day = day.AddDate(0, 0, 1) {
		for idx < len(deduped) && deduped[idx].Date.Equal(day) {
			current = deduped[idx].Status
			idx++
		}
		filled = append(filled, DatedStatus{Date: day, Status: current})
	}
	return filled
}

// CurrentStatus returns the forward-filled status as of the given day, or
// empty when no reports exist.
func CurrentStatus(entries []DatedStatus, asOf time.Time) Status {
	filled := ForwardFill(entries, asOf)
	if len(filled) == 0 {
		return ""
	}
	return filled[len(filled)-1].Status
}

// Calendar merges a forward-filled timeline with the set of appointment days
// into renderable cells.
func Calendar(entries []DatedStatus, appointments []time.Time, through time.Time) []Day {
	filled := ForwardFill(entries, through)
	if len(filled) == 0 {
		return nil
	}
	appointmentDays := make(map[time.Time]struct{}, len(appointments))
	for _, day := range appointments {
		appointmentDays[truncateDay(day)] = struct{}{}
	}
	days := make([]Day, 0, len(filled))
	for _, entry := range filled {
		_, hasAppointment := appointmentDays[entry.Date]
		days = append(days, Day{Date: entry.Date, Status: entry.Status, Appointment: hasAppointment})
	}
	return days
}
