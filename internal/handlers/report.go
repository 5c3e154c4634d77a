package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/config"
	"github.com/bobmcallan/tahlil-portal/internal/models"
	"github.com/bobmcallan/tahlil-portal/internal/report"
	"github.com/bobmcallan/tahlil-portal/internal/session"
)

// maxWait bounds how long GET/POST /api/report?wait=1 blocks on a pending report.
const maxWait = 2 * time.Minute

// ReportHandler serves the report page and its JSON API. Each visitor is
// bound to one session.Machine through the session cookie.
type ReportHandler struct {
	logger   *common.Logger
	pages    *PageHandler
	store    *session.Store
	renderer *report.Renderer
	devMode  bool
}

// NewReportHandler creates a report handler.
func NewReportHandler(logger *common.Logger, pages *PageHandler, store *session.Store, renderer *report.Renderer, devMode bool) *ReportHandler {
	return &ReportHandler{
		logger:   logger,
		pages:    pages,
		store:    store,
		renderer: renderer,
		devMode:  devMode,
	}
}

// reportView is what the report_region template renders.
type reportView struct {
	Symbol       models.Symbol
	Status       string
	Loading      bool
	HasError     bool
	ErrorMessage string
	Report       report.Rendered
}

// reportResponse is the JSON form of a session.
type reportResponse struct {
	Session models.ReportSession `json:"session"`
	HTML    string               `json:"html,omitempty"`
	Empty   bool                 `json:"empty"`
}

func (h *ReportHandler) render(s models.ReportSession) report.Rendered {
	if s.Status != models.StatusSuccess {
		return report.Rendered{Empty: true}
	}
	return h.renderer.Render(s.ReportText)
}

func (h *ReportHandler) view(s models.ReportSession) reportView {
	return reportView{
		Symbol:       s.Symbol,
		Status:       s.Status.String(),
		Loading:      s.IsLoading(),
		HasError:     s.HasError(),
		ErrorMessage: s.ErrorMessage,
		Report:       h.render(s),
	}
}

func (h *ReportHandler) response(s models.ReportSession) reportResponse {
	rendered := h.render(s)
	return reportResponse{
		Session: s,
		HTML:    string(rendered.HTML),
		Empty:   rendered.Empty,
	}
}

// machineFor returns the caller's machine, issuing a session cookie for new visitors.
func (h *ReportHandler) machineFor(w http.ResponseWriter, r *http.Request) *session.Machine {
	var id string
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		id = cookie.Value
	}

	m, id, created := h.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   !h.devMode && r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return m
}

// ServePage handles GET /, the report page.
func (h *ReportHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	m := h.machineFor(w, r)

	data := map[string]interface{}{
		"Page":          "report",
		"DevMode":       h.devMode,
		"Input":         m.InputValue().String(),
		"View":          h.view(m.Snapshot()),
		"CSRFToken":     CSRFToken(r),
		"PortalVersion": config.GetVersion(),
	}
	h.pages.Render(w, "report.html", data)
}

// Fragment handles GET /report/fragment: the report region alone, polled while loading.
func (h *ReportHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	m := h.machineFor(w, r)
	h.pages.Render(w, "report_region", h.view(m.Snapshot()))
}

// Generate handles POST /generate from the page form and redirects back to the page.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	m := h.machineFor(w, r)
	if err := m.Submit(r.Context(), r.PostFormValue("symbol")); err != nil && h.logger != nil {
		h.logger.Debug().Str("reason", err.Error()).Msg("report submission not started")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Reset handles POST /reset.
func (h *ReportHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.machineFor(w, r).Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGet handles GET /api/report. With ?wait=1 it blocks until the
// pending report (if any) resolves.
func (h *ReportHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	m := h.machineFor(w, r)

	snapshot := m.Snapshot()
	if wantsWait(r) {
		snapshot = h.wait(r.Context(), m)
	}
	WriteJSON(w, http.StatusOK, h.response(snapshot))
}

// HandleSubmit handles POST /api/report with body {"symbol": "..."}.
// Answers 202 once the request is issued, 400 for an empty symbol and 409
// while a previous request is still pending. With ?wait=1 it answers 200
// with the resolved session instead of 202.
func (h *ReportHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m := h.machineFor(w, r)
	err := m.Submit(r.Context(), req.Symbol)
	switch {
	case errors.Is(err, session.ErrValidation):
		WriteError(w, http.StatusBadRequest, session.ValidationMessage)
		return
	case errors.Is(err, session.ErrBusy):
		WriteError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if wantsWait(r) {
		WriteJSON(w, http.StatusOK, h.response(h.wait(r.Context(), m)))
		return
	}
	WriteJSON(w, http.StatusAccepted, h.response(m.Snapshot()))
}

func (h *ReportHandler) wait(ctx context.Context, m *session.Machine) models.ReportSession {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	// On timeout the still-loading snapshot is returned.
	s, _ := m.Wait(ctx)
	return s
}

func wantsWait(r *http.Request) bool {
	v := r.URL.Query().Get("wait")
	return v == "1" || v == "true"
}
