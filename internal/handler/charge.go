package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/audit"
	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/event"
	"github.com/matthewbaird/rentroll/internal/store"
	"github.com/matthewbaird/rentroll/internal/types"
)

// ChargeHandler serves charge and payment endpoints.
type ChargeHandler struct {
	store    store.Store
	audit    audit.Store
	recorder event.Recorder
	log      *zap.Logger
	clock    func() time.Time
}

// NewChargeHandler creates a charge handler.
func NewChargeHandler(s store.Store, a audit.Store, rec event.Recorder, log *zap.Logger) *ChargeHandler {
	return &ChargeHandler{store: s, audit: a, recorder: rec, log: log, clock: time.Now}
}

type createChargeRequest struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	UnitID      uuid.UUID `json:"unit_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	DueDate     time.Time `json:"due_date"`
}

// CreateCharge handles POST /v1/charges.
func (h *ChargeHandler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req createChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.AmountCents < 0 {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_CHARGE", "amount must not be negative")
		return
	}
	if req.TenantID == uuid.Nil || req.UnitID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "tenant_id and unit_id are required")
		return
	}
	if req.DueDate.IsZero() {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "due_date is required")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	charge := dunning.Charge{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		UnitID:      req.UnitID,
		Description: req.Description,
		Amount:      types.Cents(req.AmountCents, currency),
		PaidAmount:  types.Cents(0, currency),
		DueDate:     req.DueDate,
		CreatedAt:   h.clock(),
	}
	if err := h.store.CreateCharge(r.Context(), charge); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	if err := h.recorder.Record(r.Context(), event.NewChargeCreated(event.ChargeCreatedPayload{
		ChargeID:    charge.ID.String(),
		TenantID:    charge.TenantID.String(),
		UnitID:      charge.UnitID.String(),
		Amount:      charge.Amount,
		DueDate:     charge.DueDate,
		Description: charge.Description,
	})); err != nil {
		h.log.Warn("record charge_created failed", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, charge)
}

// GetCharge handles GET /v1/charges/{id}. The response embeds the current
// ledger assessment.
func (h *ChargeHandler) GetCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	charge, err := h.store.GetCharge(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	assessment, err := dunning.EvaluateLedger(charge, h.clock())
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"charge":     charge,
		"assessment": assessment,
	})
}

// ListCharges handles GET /v1/charges.
func (h *ChargeHandler) ListCharges(w http.ResponseWriter, r *http.Request) {
	var filter store.ChargeFilter
	q := r.URL.Query()
	if raw := q.Get("tenant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid tenant_id")
			return
		}
		filter.TenantID = id
	}
	if q.Get("unsettled") == "true" {
		filter.Unsettled = true
	}
	if q.Get("overdue") == "true" {
		filter.OverdueAt = h.clock()
	}

	charges, err := h.store.ListCharges(r.Context(), filter)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	p := parsePagination(r)
	total := len(charges)
	if p.Offset > total {
		p.Offset = total
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"charges": charges[p.Offset:end],
		"total":   total,
	})
}

type addPaymentRequest struct {
	AmountCents int64     `json:"amount_cents"`
	PaidAt      time.Time `json:"paid_at"`
	Note        string    `json:"note"`
}

// AddPayment handles POST /v1/charges/{id}/payments.
func (h *ChargeHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var req addPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_PAYMENT", "amount must be positive")
		return
	}

	charge, err := h.store.GetCharge(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = h.clock()
	}
	payment := dunning.Payment{
		ID:       uuid.New(),
		ChargeID: id,
		Amount:   types.Cents(req.AmountCents, charge.Amount.Currency),
		PaidAt:   paidAt,
		Note:     req.Note,
	}
	if err := h.store.AddPayment(r.Context(), payment); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}

	updated, err := h.store.GetCharge(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	if err := h.recorder.Record(r.Context(), event.NewPaymentRecorded(event.PaymentRecordedPayload{
		PaymentID:  payment.ID.String(),
		ChargeID:   id.String(),
		TenantID:   charge.TenantID.String(),
		Amount:     payment.Amount,
		NewBalance: updated.Amount.Sub(updated.PaidAmount),
	})); err != nil {
		h.log.Warn("record payment_recorded failed", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, payment)
}

// ListPayments handles GET /v1/charges/{id}/payments.
func (h *ChargeHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetCharge(r.Context(), id); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	payments, err := h.store.ListPayments(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

// GetChargeActivity handles GET /v1/charges/{id}/activity, returning the
// charge's audit trail newest first.
func (h *ChargeHandler) GetChargeActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	p := parsePagination(r)
	entries, err := h.audit.QueryByEntity(r.Context(), "charge", id.String(), p.Limit)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
