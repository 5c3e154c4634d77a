package handlers

import (
	"html/template"
	"io/fs"
	"net/http"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/pages"
)

// PageHandler owns the parsed page templates and serves static assets.
type PageHandler struct {
	logger    *common.Logger
	templates *template.Template
	static    http.Handler
	devMode   bool
}

// NewPageHandler parses the embedded templates.
func NewPageHandler(logger *common.Logger, devMode bool) *PageHandler {
	return NewPageHandlerFS(logger, devMode, pages.Templates(), pages.Static())
}

// NewPageHandlerFS parses templates from tmpl and serves static files from static.
func NewPageHandlerFS(logger *common.Logger, devMode bool, tmpl fs.FS, static fs.FS) *PageHandler {
	templates := template.Must(template.ParseFS(tmpl, "*.html", "partials/*.html"))

	return &PageHandler{
		logger:    logger,
		templates: templates,
		static:    http.StripPrefix("/static/", http.FileServerFS(static)),
		devMode:   devMode,
	}
}

// Render executes a named template, answering 500 if it fails.
func (h *PageHandler) Render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		if h.logger != nil {
			h.logger.Error().Str("template", name).Str("error", err.Error()).Msg("failed to render page")
		}
		if h.devMode {
			http.Error(w, "template "+name+": "+err.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// StaticFileHandler serves static files (CSS, JS).
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	h.static.ServeHTTP(w, r)
}
