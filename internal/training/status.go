// Package training models the training-status taxonomy reported through
// clinic encounters and derives per-athlete timelines from it.
package training

import "strings"

// Status is one of the five participation levels recorded on an encounter.
type Status string

// The five recognised participation statuses, in severity order.
const (
	StatusFullParticipation        Status = "Full participation without injury/illness/other health problems"
	StatusFullWithProblem          Status = "Full participation with injury/illness/other health problems"
	StatusReducedParticipation     Status = "Reduced participation with injury/illness/other health problems"
	StatusNoParticipation          Status = "No participation due to injury/illness/other health problems"
	StatusNoParticipationUnrelated Status = "No participation unrelated to injury/illness/other health problems"
)

// statusOrder fixes the display and severity ordering of statuses.
var statusOrder = []Status{
	StatusFullParticipation,
	StatusFullWithProblem,
	StatusReducedParticipation,
	StatusNoParticipation,
	StatusNoParticipationUnrelated,
}

// statusColors maps each status to its pastel swatch.
var statusColors = map[Status]string{
	StatusFullParticipation:        "#BDE7BD",
	StatusFullWithProblem:          "#D6F2C6",
	StatusReducedParticipation:     "#FFD9A8",
	StatusNoParticipation:          "#F5B1B1",
	StatusNoParticipationUnrelated: "#D8C6F0",
}

// UnknownColor is the swatch used when no status is known for a day.
const UnknownColor = "#e6e6e6"

// Order returns the statuses in severity order.
func Order() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// Parse normalizes free-form text into a Status. The bool reports whether the
// value is one of the five recognised statuses.
func Parse(value string) (Status, bool) {
	normalized := strings.Join(strings.Fields(value), " ")
	for _, status := range statusOrder {
		if normalized == string(status) {
			return status, true
		}
	}
	return "", false
}

// Color returns the swatch for a status, falling back to UnknownColor.
func (s Status) Color() string {
	if color, ok := statusColors[s]; ok {
		return color
	}
	return UnknownColor
}

// Code returns the zero-based severity index, or -1 when unknown.
func (s Status) Code() int {
	for idx, status := range statusOrder {
		if s == status {
			return idx
		}
	}
	return -1
}

// Known reports whether the status is one of the recognised values.
func (s Status) Known() bool {
	return s.Code() >= 0
}
