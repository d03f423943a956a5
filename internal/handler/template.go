package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/event"
	"github.com/matthewbaird/rentroll/internal/store"
	"github.com/matthewbaird/rentroll/internal/template"
)

// TemplateHandler serves notice template CRUD plus validation and preview.
type TemplateHandler struct {
	store     store.Store
	generator *dunning.Generator
	recorder  event.Recorder
	log       *zap.Logger
	clock     func() time.Time
}

// NewTemplateHandler creates a template handler.
func NewTemplateHandler(s store.Store, g *dunning.Generator, rec event.Recorder, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{store: s, generator: g, recorder: rec, log: log, clock: time.Now}
}

type templateRequest struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

func (req templateRequest) validate() (string, bool) {
	if req.Name == "" {
		return "name is required", false
	}
	if req.Body == "" {
		return "body is required", false
	}
	return "", true
}

// CreateTemplate handles POST /v1/templates.
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if msg, ok := req.validate(); !ok {
		writeError(w, http.StatusBadRequest, "INVALID_TEMPLATE", msg)
		return
	}

	now := h.clock()
	tpl := dunning.NoticeTemplate{
		ID:        uuid.New(),
		Name:      req.Name,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateTemplate(r.Context(), tpl); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	if err := h.recorder.Record(r.Context(), event.NewTemplateSaved(event.TemplateSavedPayload{
		TemplateID: tpl.ID.String(),
		Name:       tpl.Name,
		Created:    true,
	})); err != nil {
		h.log.Warn("record template_saved failed", zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// GetTemplate handles GET /v1/templates/{id}.
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	tpl, err := h.store.GetTemplate(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// ListTemplates handles GET /v1/templates.
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.ListTemplates(r.Context())
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// UpdateTemplate handles PUT /v1/templates/{id}.
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if msg, ok := req.validate(); !ok {
		writeError(w, http.StatusBadRequest, "INVALID_TEMPLATE", msg)
		return
	}

	tpl, err := h.store.GetTemplate(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	tpl.Name = req.Name
	tpl.Body = req.Body
	tpl.UpdatedAt = h.clock()
	if err := h.store.UpdateTemplate(r.Context(), tpl); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	if err := h.recorder.Record(r.Context(), event.NewTemplateSaved(event.TemplateSavedPayload{
		TemplateID: tpl.ID.String(),
		Name:       tpl.Name,
	})); err != nil {
		h.log.Warn("record template_saved failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, tpl)
}

// DeleteTemplate handles DELETE /v1/templates/{id}.
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	tpl, err := h.store.GetTemplate(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	if err := h.store.DeleteTemplate(r.Context(), id); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	if err := h.recorder.Record(r.Context(), event.NewTemplateDeleted(id, tpl.Name)); err != nil {
		h.log.Warn("record template_deleted failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

type validateRequest struct {
	Body string `json:"body"`
}

type templateIssue struct {
	Message    string `json:"message"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidateTemplate handles POST /v1/templates/validate. It reports every
// syntax error with positions plus the full list of placeholder paths the
// template references.
func (h *TemplateHandler) ValidateTemplate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	tmpl, errs := template.ParseSource(req.Body)
	issues := make([]templateIssue, 0, len(errs))
	for _, pe := range errs {
		issues = append(issues, templateIssue{
			Message:    pe.Message,
			Line:       pe.Line,
			Col:        pe.Col,
			Suggestion: pe.Suggestion,
		})
	}

	var placeholders []string
	if tmpl != nil {
		placeholders = tmpl.Placeholders()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":        len(issues) == 0,
		"errors":       issues,
		"placeholders": placeholders,
	})
}

// PreviewTemplate handles POST /v1/templates/preview: render the submitted
// body against a fixed sample context so authors can see output without
// touching live data.
func (h *TemplateHandler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	ctx, err := dunning.SampleContext(h.generator.Policy())
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	out, err := h.generator.Renderer().Render(req.Body, ctx)
	if err != nil {
		var pe *template.ParseError
		if errors.As(err, &pe) {
			writeError(w, http.StatusUnprocessableEntity, "SYNTAX_ERROR", pe.Error())
			return
		}
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"html": out})
}
