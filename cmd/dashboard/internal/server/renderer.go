package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/auth"
	"github.com/startupverse/dashboard/cmd/dashboard/internal/guard"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// Page is the data every template receives.
type Page struct {
	Title   string
	Path    string
	Session auth.Session
	Nav     []guard.RouteDescriptor
	Flash   string
	// Notice is an inline message, e.g. a sign-in failure.
	Notice string
	// Error is an inline error block for a failed backend call.
	Error string
	// Fields holds per-field validation messages.
	Fields map[string]string
	// Form echoes submitted values back into the form.
	Form url.Values
	// RefreshSeconds adds a meta refresh when positive.
	RefreshSeconds int
	Data           any
}

// Value returns the submitted value of a form field.
func (p Page) Value(field string) string {
	if p.Form == nil {
		return ""
	}
	return p.Form.Get(field)
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.SugaredLogger
}

// NewRenderer parses the layout together with every page template.
func NewRenderer(logger *zap.SugaredLogger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	base, err := template.New("layout.html").Funcs(funcMap()).ParseFS(templateFS, layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutTemplate {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := clone.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		pages[name] = clone
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes the named page with the given status. The page is rendered
// to a buffer first so a template failure still yields a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.logger.Errorw("unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		r.logger.Errorw("render template failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func funcMap() template.FuncMap {
	funcs := sprig.FuncMap()

	funcs["landing"] = auth.LandingPath
	funcs["money"] = formatMoney
	funcs["when"] = formatTime
	funcs["active"] = func(current, path string) bool {
		return current == path || (path != "/" && strings.HasPrefix(current, path+"/"))
	}

	return funcs
}

func formatMoney(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fk", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}
