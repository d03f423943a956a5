package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/template"
)

// PreviewHandler streams live template previews over a websocket. The
// template editor sends the draft body on every keystroke batch and gets
// back either rendered HTML or positioned errors.
type PreviewHandler struct {
	generator *dunning.Generator
	log       *zap.Logger
}

// NewPreviewHandler creates a live preview handler.
func NewPreviewHandler(g *dunning.Generator, log *zap.Logger) *PreviewHandler {
	return &PreviewHandler{generator: g, log: log}
}

type previewRequest struct {
	Body string `json:"body"`
}

type previewResponse struct {
	HTML         string          `json:"html,omitempty"`
	Errors       []templateIssue `json:"errors,omitempty"`
	Placeholders []string        `json:"placeholders,omitempty"`
}

// LivePreview handles GET /v1/templates/live. One render per inbound
// message; the connection stays open until the client closes it.
func (h *PreviewHandler) LivePreview(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sample, err := dunning.SampleContext(h.generator.Policy())
	if err != nil {
		h.log.Error("sample context build failed", zap.Error(err))
		conn.Close(websocket.StatusInternalError, "preview unavailable")
		return
	}

	for {
		var req previewRequest
		if err := wsjson.Read(r.Context(), conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			h.log.Debug("websocket read failed", zap.Error(err))
			return
		}

		resp := h.render(req.Body, sample)

		writeCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		err := wsjson.Write(writeCtx, conn, resp)
		cancel()
		if err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// render produces one preview frame. Syntax errors never close the
// connection; the editor shows them inline and keeps typing.
func (h *PreviewHandler) render(body string, sample template.Context) previewResponse {
	tmpl, errs := template.ParseSource(body)
	if len(errs) > 0 {
		issues := make([]templateIssue, 0, len(errs))
		for _, pe := range errs {
			issues = append(issues, templateIssue{
				Message:    pe.Message,
				Line:       pe.Line,
				Col:        pe.Col,
				Suggestion: pe.Suggestion,
			})
		}
		return previewResponse{Errors: issues}
	}

	out, err := h.generator.Renderer().Execute(tmpl, sample)
	if err != nil {
		return previewResponse{Errors: []templateIssue{{Message: err.Error()}}}
	}
	return previewResponse{HTML: out, Placeholders: tmpl.Placeholders()}
}
