package handler

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/store"
)

// PartyHandler serves the party records reminders are addressed to and
// issued by: tenants, properties, units, and the letterhead singletons.
type PartyHandler struct {
	store store.Store
	log   *zap.Logger
}

// NewPartyHandler creates a party handler.
func NewPartyHandler(s store.Store, log *zap.Logger) *PartyHandler {
	return &PartyHandler{store: s, log: log}
}

// PutTenant handles PUT /v1/tenants/{id}.
func (h *PartyHandler) PutTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var t dunning.Tenant
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if t.LastName == "" {
		writeError(w, http.StatusBadRequest, "INVALID_TENANT", "last_name is required")
		return
	}
	t.ID = id
	if err := h.store.PutTenant(r.Context(), t); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetTenant handles GET /v1/tenants/{id}.
func (h *PartyHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.store.GetTenant(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// PutProperty handles PUT /v1/properties/{id}.
func (h *PartyHandler) PutProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var p dunning.Property
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "INVALID_PROPERTY", "name is required")
		return
	}
	p.ID = id
	if err := h.store.PutProperty(r.Context(), p); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetProperty handles GET /v1/properties/{id}.
func (h *PartyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.store.GetProperty(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PutUnit handles PUT /v1/units/{id}.
func (h *PartyHandler) PutUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var u dunning.Unit
	if err := decodeJSON(r, &u); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if u.PropertyID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "INVALID_UNIT", "property_id is required")
		return
	}
	if _, err := h.store.GetProperty(r.Context(), u.PropertyID); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	u.ID = id
	if err := h.store.PutUnit(r.Context(), u); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GetUnit handles GET /v1/units/{id}.
func (h *PartyHandler) GetUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.store.GetUnit(r.Context(), id)
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// PutClient handles PUT /v1/letterhead/client. The client is a singleton;
// the stored record is replaced wholesale.
func (h *PartyHandler) PutClient(w http.ResponseWriter, r *http.Request) {
	var c dunning.Client
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "INVALID_CLIENT", "name is required")
		return
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := h.store.PutClient(r.Context(), c); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetClient handles GET /v1/letterhead/client.
func (h *PartyHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetClient(r.Context())
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PutOwner handles PUT /v1/letterhead/owner.
func (h *PartyHandler) PutOwner(w http.ResponseWriter, r *http.Request) {
	var o dunning.Owner
	if err := decodeJSON(r, &o); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if o.Name == "" {
		writeError(w, http.StatusBadRequest, "INVALID_OWNER", "name is required")
		return
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if err := h.store.PutOwner(r.Context(), o); err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// GetOwner handles GET /v1/letterhead/owner.
func (h *PartyHandler) GetOwner(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetOwner(r.Context())
	if err != nil {
		errorToHTTP(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
