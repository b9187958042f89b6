package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ComplaintRow is one complaint line in the athlete summary.
type ComplaintRow struct {
	Title    string
	Onset    string
	Priority string
	Status   string
}

// CommentRow is one saved practitioner note.
type CommentRow struct {
	Date string
	Body string
}

// WellnessRow is one saved wellness survey response.
type WellnessRow struct {
	Date       string
	Mood       int
	Fatigue    int
	SleepHours float64
	Notes      string
}

// CalendarDay is one cell in the training-status calendar. A zero Day renders
// an empty filler cell.
type CalendarDay struct {
	Day         int
	Date        string
	Color       string
	Appointment bool
}

// CalendarMonth is one month block of the status calendar.
type CalendarMonth struct {
	Label string
	Weeks [][7]CalendarDay
}

// AthleteView carries the athlete detail page.
type AthleteView struct {
	AthleteID     int64
	Label         string
	DOB           string
	Sex           string
	Email         string
	Phone         string
	Groups        []string
	CurrentStatus string
	StatusColor   string
	Complaints    []ComplaintRow
	Calendar      []CalendarMonth
	Legend        []SelectOption
	Comments      []CommentRow
	CommentsNext  string
	Wellness      []WellnessRow
	Flash         string
}

func cardHeader(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w,
		`<div class="card-header bg-light fw-semibold" style="background-color:#f2f3f5">%s</div>`,
		esc(title))
	return err
}

func orDash(value string) string {
	if value == "" {
		return "—"
	}
	return value
}

func summaryCard(ctx context.Context, w io.Writer, view AthleteView) error {
	if _, err := io.WriteString(w, `<div class="card mb-3 shadow-sm" style="border:1px solid #e9ecef;border-radius:0.5rem">`); err != nil {
		return err
	}
	if err := cardHeader(w, "Athlete Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<div class="card-body"><div class="row"><div class="col-md-5">
<h5 class="mb-2">%s</h5><div class="mb-2">`, esc(view.Label)); err != nil {
		return err
	}
	if err := pills(w, view.Groups); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `</div><div class="mb-2"><span class="fw-semibold me-1">Current Status:</span>`); err != nil {
		return err
	}
	if err := StatusDot(view.CurrentStatus, view.StatusColor).Render(ctx, w); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `</div>
<div style="font-size:14px">
<div><span class="fw-semibold">DOB:</span> %s</div>
<div><span class="fw-semibold">Sex:</span> %s</div>
<div><span class="fw-semibold">Email:</span> %s</div>
<div><span class="fw-semibold">Phone:</span> %s</div>
</div>
</div>
<div class="col-md-7">
<div class="fw-semibold mb-2">Complaints</div>`,
		esc(orDash(view.DOB)), esc(orDash(view.Sex)), esc(orDash(view.Email)), esc(orDash(view.Phone))); err != nil {
		return err
	}

	if len(view.Complaints) == 0 {
		if _, err := io.WriteString(w, `<div class="text-muted">No complaints found.</div>`); err != nil {
			return err
		}
	} else {
		if _, err := io.WriteString(w, `<table class="table table-sm">
<thead class="table-light"><tr><th>Title</th><th>Onset</th><th>Priority</th><th>Status</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, complaint := range view.Complaints {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				esc(complaint.Title), esc(complaint.Onset), esc(complaint.Priority), esc(complaint.Status)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</div></div></div></div>`)
	return err
}

func calendarCard(ctx context.Context, w io.Writer, view AthleteView) error {
	if _, err := io.WriteString(w, `<div class="card mb-3 shadow-sm" style="border:1px solid #e9ecef;border-radius:0.5rem">`); err != nil {
		return err
	}
	if err := cardHeader(w, "Training-Status Calendar"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `<div class="card-body">`); err != nil {
		return err
	}
	if len(view.Calendar) == 0 {
		if _, err := io.WriteString(w, `<div class="text-muted">No valid date/status for calendar.</div></div></div>`); err != nil {
			return err
		}
		return nil
	}

	for _, option := range view.Legend {
		if err := StatusDot(option.Label, option.Value).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<br>`); err != nil {
			return err
		}
	}

	for _, month := range view.Calendar {
		if _, err := fmt.Fprintf(w, `<div class="fw-semibold mt-3 mb-1">%s</div>
<table class="table table-bordered table-sm text-center" style="max-width:420px">
<thead><tr><th>Mon</th><th>Tue</th><th>Wed</th><th>Thu</th><th>Fri</th><th>Sat</th><th>Sun</th></tr></thead><tbody>`,
			esc(month.Label)); err != nil {
			return err
		}
		for _, week := range month.Weeks {
			if _, err := io.WriteString(w, `<tr>`); err != nil {
				return err
			}
			for _, day := range week {
				if day.Day == 0 {
					if _, err := io.WriteString(w, `<td></td>`); err != nil {
						return err
					}
					continue
				}
				style := ""
				if day.Color != "" {
					style = fmt.Sprintf(` style="background:%s"`, esc(day.Color))
				}
				label := fmt.Sprintf("%d", day.Day)
				if day.Appointment {
					label = "<b>" + label + "</b>"
				}
				if _, err := fmt.Fprintf(w, `<td title="%s"%s>%s</td>`, esc(day.Date), style, label); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tr>`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</div></div>`)
	return err
}

func commentsCard(w io.Writer, view AthleteView) error {
	if _, err := io.WriteString(w, `<div class="card mb-3 shadow-sm" style="border:1px solid #e9ecef;border-radius:0.5rem">`); err != nil {
		return err
	}
	if err := cardHeader(w, "Comments"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<div class="card-body">
<form method="POST" action="/athletes/%d/comments" class="row g-2 mb-3">
<div class="col-md-3"><input class="form-control" type="date" name="date" required></div>
<div class="col-md-7"><textarea class="form-control" name="body" rows="2" placeholder="Add a note about the athlete for this date…" required></textarea></div>
<div class="col-md-2"><button type="submit" class="btn btn-success w-100">Save</button></div>
</form>`, view.AthleteID); err != nil {
		return err
	}

	if len(view.Comments) == 0 {
		if _, err := io.WriteString(w, `<div class="text-muted">No comments yet.</div>`); err != nil {
			return err
		}
	} else {
		if _, err := io.WriteString(w, `<table class="table table-sm">
<thead class="table-light"><tr><th style="width:140px">Date</th><th>Comment</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, comment := range view.Comments {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td></tr>`,
				esc(comment.Date), esc(comment.Body)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
			return err
		}
		if view.CommentsNext != "" {
			if _, err := fmt.Fprintf(w, `<a class="btn btn-link btn-sm" href="/athletes/%d?comments_page=%s">More comments</a>`,
				view.AthleteID, esc(view.CommentsNext)); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, `</div></div>`)
	return err
}

func wellnessCard(w io.Writer, view AthleteView) error {
	if _, err := io.WriteString(w, `<div class="card mb-3 shadow-sm" style="border:1px solid #e9ecef;border-radius:0.5rem">`); err != nil {
		return err
	}
	if err := cardHeader(w, "Daily Wellness Survey"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, `<div class="card-body">
<form method="POST" action="/athletes/%d/wellness" class="row g-3 mb-3">
<div class="col-md-3">
<label class="form-label">Survey date</label>
<input class="form-control" type="date" name="date" required>
</div>
<div class="col-md-3">
<label class="form-label">Mood (1&ndash;5: 1=very poor, 5=very good)</label>
<input class="form-control" type="number" name="mood" min="1" max="5" step="1" required>
</div>
<div class="col-md-3">
<label class="form-label">Fatigue (0&ndash;10: 0=none, 10=extreme)</label>
<input class="form-control" type="number" name="fatigue" min="0" max="10" step="1" required>
</div>
<div class="col-md-3">
<label class="form-label">Sleep hours (0&ndash;24)</label>
<input class="form-control" type="number" name="sleep_hours" min="0" max="24" step="0.25" required>
</div>
<div class="col-12">
<label class="form-label">Notes (optional, max 500 chars)</label>
<textarea class="form-control" name="notes" rows="3" maxlength="500" style="resize:vertical"></textarea>
</div>
<div class="col-auto"><button type="submit" class="btn btn-primary">Submit</button></div>
</form>`, view.AthleteID); err != nil {
		return err
	}

	if len(view.Wellness) > 0 {
		if _, err := io.WriteString(w, `<table class="table table-sm">
<thead class="table-light"><tr><th>Date</th><th>Mood</th><th>Fatigue</th><th>Sleep</th><th>Notes</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, entry := range view.Wellness {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td><td>%d</td><td>%.2f</td><td>%s</td></tr>`,
				esc(entry.Date), entry.Mood, entry.Fatigue, entry.SleepHours, esc(entry.Notes)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</div></div>`)
	return err
}

// AthletePage renders the athlete detail: summary, calendar, comments and
// wellness survey.
func AthletePage(view AthleteView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if view.Flash != "" {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-success">%s</div>`, esc(view.Flash)); err != nil {
				return err
			}
		}
		if err := summaryCard(ctx, w, view); err != nil {
			return err
		}
		if err := calendarCard(ctx, w, view); err != nil {
			return err
		}
		if err := commentsCard(w, view); err != nil {
			return err
		}
		return wellnessCard(w, view)
	})
}
