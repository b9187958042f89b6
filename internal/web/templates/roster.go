package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// RosterRow is one athlete line on the training board.
type RosterRow struct {
	AthleteID   int64
	Athlete     string
	Groups      []string
	Status      string
	StatusColor string
	Complaints  []string
	LastAppt    string
}

// RosterView carries the by-group training board page.
type RosterView struct {
	Groups []SelectOption
	Rows   []RosterRow
	Loaded bool
}

func pills(w io.Writer, values []string) error {
	for _, value := range values {
		if _, err := fmt.Fprintf(w,
			`<span style="display:inline-block;padding:3px 8px;border-radius:9999px;font-size:12px;background:#f1f3f5;color:#111;border:1px solid #e3e6eb;margin:2px 4px 2px 0">%s</span>`,
			esc(value)); err != nil {
			return err
		}
	}
	return nil
}

// RosterPage renders the group filter and the athlete status table.
func RosterPage(view RosterView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h3 class="mt-1">Training Board</h3>
<form method="GET" action="/roster" class="row g-2 mb-3">
<div class="col-md-6">
<select class="form-select" name="group" multiple size="4">`); err != nil {
			return err
		}
		for _, group := range view.Groups {
			selected := ""
			if group.Selected {
				selected = " selected"
			}
			if _, err := fmt.Fprintf(w, `<option value="%s"%s>%s</option>`,
				esc(group.Value), selected, esc(group.Label)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</select>
</div>
<div class="col-md-2">
<button type="submit" class="btn btn-primary w-100">Load</button>
</div>
</form>`); err != nil {
			return err
		}

		if !view.Loaded {
			_, err := io.WriteString(w, `<div class="text-muted">Select one or more patient groups.</div>`)
			return err
		}
		if len(view.Rows) == 0 {
			_, err := io.WriteString(w, `<div class="text-muted">No athletes found for those groups.</div>`)
			return err
		}

		if _, err := io.WriteString(w, `<div class="table-responsive"><table class="table table-hover align-middle">
<thead class="table-light"><tr>
<th>Athlete</th><th>Groups</th><th>Current Status</th><th>Complaints</th><th>Last Appt</th>
</tr></thead><tbody>`); err != nil {
			return err
		}
		for _, row := range view.Rows {
			if _, err := fmt.Fprintf(w, `<tr><td><a href="/athletes/%d">%s</a></td><td>`,
				row.AthleteID, esc(row.Athlete)); err != nil {
				return err
			}
			if err := pills(w, row.Groups); err != nil {
				return err
			}
			if _, err := io.WriteString(w, `</td><td>`); err != nil {
				return err
			}
			if err := StatusDot(row.Status, row.StatusColor).Render(ctx, w); err != nil {
				return err
			}
			if _, err := io.WriteString(w, `</td><td>`); err != nil {
				return err
			}
			if err := pills(w, row.Complaints); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, `</td><td>%s</td></tr>`, esc(row.LastAppt)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table></div>`)
		return err
	})
}
