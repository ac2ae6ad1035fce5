package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/hpungsan/nextmeal/internal/errors"
	"github.com/hpungsan/nextmeal/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "predict", "about"
}

// MealForm holds one meal's form values as submitted, so a failed
// submission can be shown back unchanged.
type MealForm struct {
	Index     int
	Label     string
	ProteinG  string
	CarbsG    string
	FatG      string
	MealType  string
	Hour      string
	DayOfWeek string
}

// FormPageData is the template data for the prediction form.
type FormPageData struct {
	PageData
	Meals     []MealForm
	MealTypes []string
	Weekdays  []string
	Status    ops.StatusOutput
	Result    *ops.PredictOutput
	Error     string
}

// AboutPageData is the template data for the about page.
type AboutPageData struct {
	PageData
	Body template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	about     template.HTML
	version   string
	logger    *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
// about.md in the same FS is rendered once to HTML.
func NewRenderer(templateFS fs.FS, version string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"formatTime": formatTime,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"form":  "form.html",
		"about": "about.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	md, err := fs.ReadFile(templateFS, "about.md")
	if err != nil {
		logger.Warn("about text missing", zap.Error(err))
	}

	return &Renderer{
		templates: templates,
		about:     renderMarkdown(string(md)),
		version:   version,
		logger:    logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", zap.String("name", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// asNextMealError maps any error to a NextMealError, hiding unknown causes.
func asNextMealError(err error) *errors.NextMealError {
	var nErr *errors.NextMealError
	if !stderrors.As(err, &nErr) {
		nErr = errors.NewInternal(err)
	}
	return nErr
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	nErr := asNextMealError(err)
	if nErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Any("details", nErr.Details))
	}

	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		renderJSONError(w, nErr)
		return
	}

	r.renderPageStatus(w, nErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", nErr.Status),
			Version: r.version,
		},
		StatusCode: nErr.Status,
		Message:    nErr.Message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderJSONError writes the error envelope shared with the MCP surface.
func renderJSONError(w http.ResponseWriter, nErr *errors.NextMealError) {
	renderJSON(w, nErr.Status, map[string]any{
		"error": map[string]any{
			"code":    string(nErr.Code),
			"message": nErr.Message,
			"status":  nErr.Status,
		},
	})
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a time as "2006-01-02 15:04:05" UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
