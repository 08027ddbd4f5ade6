// Package view renders the server-side pages. Templates are embedded in the
// binary; each page is parsed together with the shared layout.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"appointment-booking-web/internal/model"
)

//go:embed templates/*.html static/*
var files embed.FS

// Base is the data every page shares: who is signed in and what to tell
// them.
type Base struct {
	Title   string
	Role    model.Role
	Email   string
	CSRF    string
	Flashes []model.Flash
	// Return is the current path and query; forms post it back so the
	// action can redirect to the same list view.
	Return string
}

func (b Base) SignedIn() bool { return b.Role != "" }
func (b Base) IsAdmin() bool  { return b.Role == model.RoleAdmin }

type Renderer struct {
	pages map[string]*template.Template
}

func New(loc *time.Location) (*Renderer, error) {
	funcs := template.FuncMap{
		"civil": func(d model.Date) string { return d.Civil(loc) },
		"longDate": func(d model.Date) string {
			if d.IsZero() {
				return ""
			}
			y, m, day := d.Day(loc)
			return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Format("Mon, Jan 2, 2006")
		},
		"statusClass": func(s model.Status) string { return "status-" + strings.ToLower(string(s)) },
		"join":        strings.Join,
	}

	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	v := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(files, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		v.pages[strings.TrimSuffix(base, ".html")] = t
	}
	return v, nil
}

// Render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (v *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := v.pages[page]
	if !ok {
		log.Printf("view: no page %q", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("view: %s: %v", page, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Static serves the embedded stylesheet and scripts under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
