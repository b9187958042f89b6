package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/csipacific/dashboard/internal/registry"
)

// SelectOption is one dropdown entry with selection state.
type SelectOption struct {
	Label    string
	Value    string
	Selected bool
}

// GeographyView carries the cascading province/location/place filters.
type GeographyView struct {
	Provinces []SelectOption
	Locations []SelectOption
	Places    []SelectOption
}

// ProfilesView carries everything the athlete directory page renders.
type ProfilesView struct {
	Geography  GeographyView
	Sports     []SelectOption
	Profiles   []registry.Profile
	CountLabel string
	Page       int
	PageCount  int
	PrevURL    string
	NextURL    string
	ExportURL  string
}

func selectControl(w io.Writer, name, label string, options []SelectOption) error {
	if _, err := fmt.Fprintf(w, `<label class="form-label" for="%s">%s</label>
<select class="form-select mb-3" id="%s" name="%s">
<option value="">All</option>`, esc(name), esc(label), esc(name), esc(name)); err != nil {
		return err
	}
	for _, option := range options {
		selected := ""
		if option.Selected {
			selected = " selected"
		}
		if _, err := fmt.Fprintf(w, `<option value="%s"%s>%s</option>`,
			esc(option.Value), selected, esc(option.Label)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</select>`)
	return err
}

// GeographyFilters renders the cascading dropdowns. Changing a parent submits
// the form so the children reload with narrowed options.
func GeographyFilters(view GeographyView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if err := selectControl(w, "province", "Province", view.Provinces); err != nil {
			return err
		}
		if err := selectControl(w, "location", "Location", view.Locations); err != nil {
			return err
		}
		return selectControl(w, "place", "Town/City", view.Places)
	})
}

// Pagination renders previous/next controls with the page position.
func Pagination(page, pageCount int, prevURL, nextURL string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if pageCount <= 1 {
			return nil
		}
		if _, err := io.WriteString(w, `<nav aria-label="pagination"><ul class="pagination">`); err != nil {
			return err
		}
		if prevURL != "" {
			if _, err := fmt.Fprintf(w, `<li class="page-item"><a class="page-link" href="%s">Previous</a></li>`, esc(prevURL)); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, `<li class="page-item disabled"><span class="page-link">Previous</span></li>`); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<li class="page-item disabled"><span class="page-link">%d of %d</span></li>`, page, pageCount); err != nil {
			return err
		}
		if nextURL != "" {
			if _, err := fmt.Fprintf(w, `<li class="page-item"><a class="page-link" href="%s">Next</a></li>`, esc(nextURL)); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, `<li class="page-item disabled"><span class="page-link">Next</span></li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></nav>`)
		return err
	})
}

// ProfilesPage renders the filterable athlete directory.
func ProfilesPage(view ProfilesView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h3 class="mt-1">Athletes</h3>
<form method="GET" action="/athletes" class="row g-3 mb-3">
<div class="col-md-3">`); err != nil {
			return err
		}
		if err := GeographyFilters(view.Geography).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</div><div class="col-md-3">`); err != nil {
			return err
		}
		if err := selectControl(w, "sport", "Sport", view.Sports); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<button type="submit" class="btn btn-primary w-100">Apply</button>
</div>
</form>`); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, `<div class="d-flex justify-content-between align-items-center mb-2">
<span class="text-muted">%s</span>
<a class="btn btn-outline-secondary btn-sm" href="%s"><i class="bi bi-download me-1"></i>Download CSV</a>
</div>`, esc(view.CountLabel), esc(view.ExportURL)); err != nil {
			return err
		}

		if len(view.Profiles) == 0 {
			if _, err := io.WriteString(w, `<div class="text-muted">No athletes match the current filters.</div>`); err != nil {
				return err
			}
			return nil
		}

		if _, err := io.WriteString(w, `<div class="table-responsive"><table class="table table-hover align-middle">
<thead class="table-light"><tr>
<th>Name</th><th>Email</th><th>Sport</th><th>Enrollment</th>
</tr></thead><tbody>`); err != nil {
			return err
		}
		for _, profile := range view.Profiles {
			if _, err := fmt.Fprintf(w, `<tr>
<td>%s %s</td><td>%s</td><td>%s</td><td>%s</td>
</tr>`,
				esc(profile.FirstName), esc(profile.LastName),
				esc(profile.Email), esc(profile.Sport), esc(profile.EnrollmentStatus)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table></div>`); err != nil {
			return err
		}
		return Pagination(view.Page, view.PageCount, view.PrevURL, view.NextURL).Render(ctx, w)
	})
}
