// Package templates renders the dashboard HTML surface.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// appName is the product title shown in the navbar.
const appName = "CSIP Apps"

func esc(value string) string {
	return templ.EscapeString(value)
}

// Layout wraps a page body with the shared chrome: head, navbar, footer.
func Layout(title, userLabel string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pageTitle := appName
		if title != "" {
			pageTitle = title + " | " + appName
		}
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap-icons@1.10.5/font/bootstrap-icons.css">
</head>
<body class="bg-white">`, esc(pageTitle)); err != nil {
			return err
		}
		if err := navbar(userLabel).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main class="container-fluid py-3">`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</main>`); err != nil {
			return err
		}
		if err := footer().Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func navbar(userLabel string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<nav class="navbar navbar-expand-lg navbar-dark bg-dark">
<div class="container-fluid">
<a class="navbar-brand" href="/">%s</a>
<ul class="navbar-nav me-auto">
<li class="nav-item"><a class="nav-link px-3 py-2" href="/athletes">Athletes</a></li>
<li class="nav-item"><a class="nav-link px-3 py-2" href="/roster">Training Board</a></li>
</ul>`, esc(appName)); err != nil {
			return err
		}
		if userLabel != "" {
			if _, err := fmt.Fprintf(w, `<span class="text-white-50 small me-3">Signed in as: %s</span>
<a class="btn btn-outline-light btn-sm" href="/logout">Sign out</a>`, esc(userLabel)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div></nav>`)
		return err
	})
}

func footer() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<footer class="mt-4 bg-dark text-white border-top border-light">
<div class="container d-flex flex-wrap justify-content-between align-items-center py-3">
<p class="col-md-4 mb-0">&copy; 2025 CSI Pacific</p>
</div>
</footer>`)
		return err
	})
}

// LoginPage invites the user to start the OAuth flow.
func LoginPage(next string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		target := "/auth/login"
		if next != "" {
			target += "?next=" + url.QueryEscape(next)
		}
		_, err := fmt.Fprintf(w, `<div class="row justify-content-center mt-5">
<div class="col-md-4">
<div class="card shadow-sm border-0">
<div class="card-body text-center py-4">
<h5 class="mb-3">Sign in</h5>
<p class="text-muted">Use your CSI Pacific account to continue.</p>
<a class="btn btn-primary w-100" href="%s">Sign in with CSI Pacific</a>
</div>
</div>
</div>
</div>`, target)
		return err
	})
}

// ErrorPage renders a plain error card.
func ErrorPage(message string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if message == "" {
			message = "Something went wrong."
		}
		_, err := fmt.Fprintf(w, `<div class="alert alert-danger" role="alert">%s</div>`, esc(message))
		return err
	})
}

// StatusDot renders the colored participation marker next to a status label.
func StatusDot(label, hexColor string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if label == "" {
			_, err := io.WriteString(w, `<span class="text-muted">&mdash;</span>`)
			return err
		}
		_, err := fmt.Fprintf(w,
			`<span style="display:inline-block;width:10px;height:10px;border-radius:50%%;background:%s;border:1px solid rgba(0,0,0,.25);margin-right:6px"></span>%s`,
			esc(hexColor), esc(label))
		return err
	})
}
