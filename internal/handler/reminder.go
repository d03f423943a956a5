package handler

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/event"
	"github.com/matthewbaird/rentroll/internal/metrics"
	"github.com/matthewbaird/rentroll/internal/pdf"
	"github.com/matthewbaird/rentroll/internal/store"
	"github.com/matthewbaird/rentroll/internal/types"
)

// chargeLocks serializes escalation per charge. The engine assumes a stable
// history snapshot; two concurrent generations for the same charge would
// both observe the same prior count and issue duplicate stages.
type chargeLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newChargeLocks() *chargeLocks {
	return &chargeLocks{locks: map[uuid.UUID]*sync.Mutex{}}
}

func (c *chargeLocks) acquire(id uuid.UUID) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// ReminderHandler serves reminder generation, retrieval, and bulk dunning
// runs.
type ReminderHandler struct {
	store     store.Store
	generator *dunning.Generator
	pdf       *pdf.Client
	recorder  event.Recorder
	log       *zap.Logger
	locks     *chargeLocks
	clock     func() time.Time
}

// NewReminderHandler creates a reminder handler.
func NewReminderHandler(s store.Store, g *dunning.Generator, p *pdf.Client, rec event.Recorder, log *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		store:     s,
		generator: g,
		pdf:       p,
		recorder:  rec,
		log:       log,
		locks:     newChargeLocks(),
		clock:     time.Now,
	}
}

type generateReminderRequest struct {
	TemplateID uuid.UUID `json:"template_id"`
	Notes      string    `json:"notes"`
}

// templateBody loads the requested template or falls back to the built-in
// default.
func (h *ReminderHandler) templateBody(r *http.Request, templateID uuid.UUID) (string, error) {
	if templateID == uuid.Nil {
		return dunning.DefaultTemplateBody, nil
	}
	tpl, err := h.store.GetTemplate(r.Context(), templateID)
	if err != nil {
		return "", err
	}
	return tpl.Body, nil
}

// GenerateReminder handles POST /v1/charges/{id}/reminders.
func (h *ReminderHandler) GenerateReminder(w http.ResponseWriter, r *http.Request) {
	chargeID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req generateReminderRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
	}
	body, err := h.templateBody(r, req.TemplateID)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	unlock := h.locks.acquire(chargeID)
	defer unlock()

	res, outstanding, err := h.generate(r, chargeID, body, req.Notes)
	if err != nil {
		metrics.ReminderGenerationFailed.WithLabelValues(failureReason(err)).Inc()
		errorToHTTP(w, h.log, err)
		return
	}

	if err := h.recorder.Record(r.Context(), event.ReminderEventFromResult(res.charge, res.GenerateResult, outstanding)); err != nil {
		h.log.Warn("record reminder_generated failed", zap.Error(err))
	}
	metrics.RemindersGenerated.WithLabelValues(res.Reminder.Stage.Token()).Inc()

	writeJSON(w, http.StatusCreated, map[string]any{
		"reminder": res.Reminder,
		"html":     res.HTML,
	})
}

type generated struct {
	dunning.GenerateResult
	charge dunning.Charge
}

// generate runs the engine for one charge and persists the resulting
// reminder. The caller must hold the charge lock.
func (h *ReminderHandler) generate(r *http.Request, chargeID uuid.UUID, templateBody, notes string) (generated, types.Money, error) {
	ctx := r.Context()

	charge, err := h.store.GetCharge(ctx, chargeID)
	if err != nil {
		return generated{}, types.Money{}, err
	}
	parties, err := store.PartySetForCharge(ctx, h.store, charge)
	if err != nil {
		return generated{}, types.Money{}, err
	}
	history, err := h.store.ListRemindersByCharge(ctx, chargeID)
	if err != nil {
		return generated{}, types.Money{}, err
	}

	start := time.Now()
	res, err := h.generator.Generate(dunning.GenerateInput{
		Charge:       charge,
		Parties:      parties,
		History:      history,
		TemplateText: templateBody,
		Notes:        notes,
	})
	if err != nil {
		return generated{}, types.Money{}, err
	}
	metrics.TemplateRenderDuration.Observe(time.Since(start).Seconds())

	if err := h.store.CreateReminder(ctx, res.Reminder); err != nil {
		return generated{}, types.Money{}, err
	}

	assessment, err := dunning.EvaluateLedger(charge, h.clock())
	if err != nil {
		return generated{}, types.Money{}, err
	}
	return generated{GenerateResult: res, charge: charge}, assessment.Outstanding, nil
}

// GetReminder handles GET /v1/reminders/{id}.
func (h *ReminderHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	reminder, err := h.store.GetReminder(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}

// ListReminders handles GET /v1/reminders with an optional charge_id
// filter.
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	var (
		reminders []dunning.Reminder
		err       error
	)
	if raw := r.URL.Query().Get("charge_id"); raw != "" {
		chargeID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid charge_id")
			return
		}
		reminders, err = h.store.ListRemindersByCharge(r.Context(), chargeID)
	} else {
		reminders, err = h.store.ListReminders(r.Context())
	}
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}

// GetReminderDocument handles GET /v1/reminders/{id}/document. The default
// response is the stored HTML; format=pdf proxies through the rasterizer.
func (h *ReminderHandler) GetReminderDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	reminder, err := h.store.GetReminder(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		if !h.pdf.Enabled() {
			writeError(w, http.StatusNotImplemented, "PDF_DISABLED", "no pdf service configured")
			return
		}
		doc, err := h.pdf.Render(r.Context(), reminder.HTML)
		if err != nil {
			h.log.Error("pdf render failed", zap.Error(err), zap.String("reminder_id", id.String()))
			writeError(w, http.StatusBadGateway, "PDF_FAILED", "pdf rendering failed")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(doc)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(reminder.HTML))
}

type dunningRunRequest struct {
	TemplateID uuid.UUID `json:"template_id"`
	Notes      string    `json:"notes"`
}

type skippedCharge struct {
	ChargeID uuid.UUID `json:"charge_id"`
	Reason   string    `json:"reason"`
}

// RunDunning handles POST /v1/dunning-runs: generate the next reminder for
// every unsettled, overdue charge. Charges already at the final notice are
// skipped so the run never spams terminal notices; individual generation
// stays possible through the single-charge endpoint.
func (h *ReminderHandler) RunDunning(w http.ResponseWriter, r *http.Request) {
	var req dunningRunRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
	}
	body, err := h.templateBody(r, req.TemplateID)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	charges, err := h.store.ListCharges(r.Context(), store.ChargeFilter{
		Unsettled: true,
		OverdueAt: h.clock(),
	})
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	runID := uuid.New()
	var created []dunning.Reminder
	var skipped []skippedCharge

	for _, charge := range charges {
		unlock := h.locks.acquire(charge.ID)

		history, err := h.store.ListRemindersByCharge(r.Context(), charge.ID)
		if err != nil {
			unlock()
			errorToHTTP(w, h.log, err)
			return
		}
		if len(history) > 0 && history[len(history)-1].Stage.IsTerminal() {
			unlock()
			skipped = append(skipped, skippedCharge{ChargeID: charge.ID, Reason: "final_notice_issued"})
			metrics.DunningRunCharges.WithLabelValues("skipped").Inc()
			continue
		}

		res, outstanding, err := h.generate(r, charge.ID, body, req.Notes)
		unlock()
		if err != nil {
			skipped = append(skipped, skippedCharge{ChargeID: charge.ID, Reason: failureReason(err)})
			metrics.DunningRunCharges.WithLabelValues("skipped").Inc()
			continue
		}

		created = append(created, res.Reminder)
		metrics.DunningRunCharges.WithLabelValues("created").Inc()
		metrics.RemindersGenerated.WithLabelValues(res.Reminder.Stage.Token()).Inc()

		if err := h.recorder.Record(r.Context(), event.ReminderEventFromResult(res.charge, res.GenerateResult, outstanding)); err != nil {
			h.log.Warn("record reminder_generated failed", zap.Error(err))
		}
	}

	if err := h.recorder.Record(r.Context(), event.NewDunningRunCompleted(event.DunningRunCompletedPayload{
		RunID:   runID.String(),
		Created: len(created),
		Skipped: len(skipped),
	})); err != nil {
		h.log.Warn("record dunning_run_completed failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  runID,
		"created": created,
		"skipped": skipped,
	})
}

// failureReason buckets generation errors for metrics and run reports.
func failureReason(err error) string {
	var (
		settled       *dunning.AlreadySettledError
		premature     *dunning.PrematureEscalationError
		invalidCharge *dunning.InvalidChargeError
		missingField  *dunning.MissingFieldError
	)
	switch {
	case errors.As(err, &settled):
		return "already_settled"
	case errors.As(err, &premature):
		return "premature_escalation"
	case errors.As(err, &invalidCharge):
		return "invalid_charge"
	case errors.As(err, &missingField):
		return "missing_field"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "render_failed"
	}
}
