// internal/app/features/errors/render.go
package errors

import (
	"html/template"
	"net/http"
)

// pageData is the view model for error pages.
type pageData struct {
	Title   string
	Message string
	BackURL string
}

var errorPage = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .BackURL}}<p><a href="{{.BackURL}}">Go back</a></p>{{end}}
</body>
</html>
`))

// RenderError writes a minimal error page with the given status.
// It renders without the template engine.
func RenderError(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(msg))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorPage.Execute(w, pageData{Title: title, Message: msg, BackURL: backURL})
}

// NotFound renders the 404 page. It is the fallback for paths the router and
// the registration route table do not serve.
func NotFound(w http.ResponseWriter, r *http.Request) {
	RenderError(w, r, http.StatusNotFound, "Page not found", "The page you requested does not exist.", "/")
}
