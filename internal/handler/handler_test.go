package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/audit"
	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/event"
	"github.com/matthewbaird/rentroll/internal/pdf"
	"github.com/matthewbaird/rentroll/internal/store"
	"github.com/matthewbaird/rentroll/internal/template"
	"github.com/matthewbaird/rentroll/internal/types"
)

type testEnv struct {
	store    *store.MemoryStore
	audit    *audit.MemoryStore
	recorder *event.AuditRecorder
	router   *chi.Mux

	tenantID uuid.UUID
	unitID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := store.NewMemoryStore()
	a := audit.NewMemoryStore()
	rec := event.NewAuditRecorder(a)
	log := zap.NewNop()

	policy := dunning.DefaultPolicy()
	gen := dunning.NewGenerator(policy, template.Strict, time.Now)

	charges := NewChargeHandler(s, a, rec, log)
	reminders := NewReminderHandler(s, gen, pdf.NewClient("", 0), rec, log)
	templates := NewTemplateHandler(s, gen, rec, log)
	parties := NewPartyHandler(s, log)

	r := chi.NewRouter()
	r.Post("/v1/charges", charges.CreateCharge)
	r.Get("/v1/charges", charges.ListCharges)
	r.Get("/v1/charges/{id}", charges.GetCharge)
	r.Post("/v1/charges/{id}/payments", charges.AddPayment)
	r.Get("/v1/charges/{id}/activity", charges.GetChargeActivity)
	r.Post("/v1/charges/{id}/reminders", reminders.GenerateReminder)
	r.Get("/v1/reminders", reminders.ListReminders)
	r.Get("/v1/reminders/{id}", reminders.GetReminder)
	r.Get("/v1/reminders/{id}/document", reminders.GetReminderDocument)
	r.Post("/v1/dunning-runs", reminders.RunDunning)
	r.Post("/v1/templates", templates.CreateTemplate)
	r.Post("/v1/templates/validate", templates.ValidateTemplate)
	r.Post("/v1/templates/preview", templates.PreviewTemplate)
	r.Put("/v1/tenants/{id}", parties.PutTenant)
	r.Get("/v1/tenants/{id}", parties.GetTenant)
	r.Put("/v1/letterhead/client", parties.PutClient)
	r.Get("/v1/letterhead/client", parties.GetClient)

	env := &testEnv{store: s, audit: a, recorder: rec, router: r}
	env.seed(t)
	return env
}

// seed installs the party graph every reminder needs.
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	property := dunning.Property{ID: uuid.New(), Name: "Lindenhof", Address: "Lindenstr. 5, 10115 Berlin"}
	require.NoError(t, e.store.PutProperty(ctx, property))

	unit := dunning.Unit{ID: uuid.New(), PropertyID: property.ID, Label: "Wohnung 3. OG links", UnitNumber: "12"}
	require.NoError(t, e.store.PutUnit(ctx, unit))

	tenant := dunning.Tenant{
		ID:        uuid.New(),
		FirstName: "Anna",
		LastName:  "Schmidt",
		Address:   "Lindenstr. 5, 10115 Berlin",
		Email:     "anna@example.com",
	}
	require.NoError(t, e.store.PutTenant(ctx, tenant))

	require.NoError(t, e.store.PutClient(ctx, dunning.Client{
		ID:      uuid.New(),
		Name:    "Hausverwaltung Meyer GmbH",
		Address: "Marktplatz 1, 10117 Berlin",
	}))
	require.NoError(t, e.store.PutOwner(ctx, dunning.Owner{ID: uuid.New(), Name: "Peter Vogel"}))

	e.tenantID = tenant.ID
	e.unitID = unit.ID
}

func (e *testEnv) addCharge(t *testing.T, amountCents, paidCents int64, dueDaysAgo int) dunning.Charge {
	t.Helper()
	now := time.Now().UTC()
	c := dunning.Charge{
		ID:          uuid.New(),
		TenantID:    e.tenantID,
		UnitID:      e.unitID,
		Description: "Miete Dezember 2024",
		Amount:      types.Cents(amountCents, "EUR"),
		PaidAmount:  types.Cents(paidCents, "EUR"),
		DueDate:     now.AddDate(0, 0, -dueDaysAgo),
		CreatedAt:   now.AddDate(0, 0, -dueDaysAgo-30),
	}
	require.NoError(t, e.store.CreateCharge(context.Background(), c))
	return c
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateChargeAndPayment(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/charges", map[string]any{
		"tenant_id":    env.tenantID,
		"unit_id":      env.unitID,
		"description":  "Miete Januar",
		"amount_cents": 70000,
		"due_date":     time.Now().AddDate(0, 0, -5).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	chargeID := created["id"].(string)

	w = env.do(t, http.MethodPost, "/v1/charges/"+chargeID+"/payments", map[string]any{
		"amount_cents": 20000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/charges/"+chargeID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)
	assessment := got["assessment"].(map[string]any)
	assert.EqualValues(t, 50000, assessment["outstanding"].(map[string]any)["amount_cents"])
	assert.Equal(t, false, assessment["is_settled"])
}

func TestCreateChargeRejectsNegativeAmount(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/charges", map[string]any{
		"tenant_id":    env.tenantID,
		"unit_id":      env.unitID,
		"amount_cents": -100,
		"due_date":     time.Now().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_CHARGE", decodeBody(t, w)["code"])
}

func TestGenerateReminder(t *testing.T) {
	env := newTestEnv(t)
	charge := env.addCharge(t, 70000, 0, 10)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/charges/%s/reminders", charge.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	reminder := body["reminder"].(map[string]any)
	assert.Equal(t, "payment_reminder", reminder["stage"])
	assert.Contains(t, body["html"], "Zahlungserinnerung")
	assert.Contains(t, body["html"], "700,00 €")

	// Generation was audited against the charge.
	entries, err := env.audit.QueryByEntity(context.Background(), "charge", charge.ID.String(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "reminder_generated", entries[0].EventType)
}

func TestGenerateReminderEscalates(t *testing.T) {
	env := newTestEnv(t)
	charge := env.addCharge(t, 70000, 20000, 10)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/charges/%s/reminders", charge.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/charges/%s/reminders", charge.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reminder := decodeBody(t, w)["reminder"].(map[string]any)
	assert.Equal(t, "first_reminder", reminder["stage"])
	fee := reminder["fee_amount"].(map[string]any)
	assert.EqualValues(t, 500, fee["amount_cents"])
}

func TestGenerateReminderSettledConflict(t *testing.T) {
	env := newTestEnv(t)
	charge := env.addCharge(t, 70000, 70000, 10)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/charges/%s/reminders", charge.ID), nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "ALREADY_SETTLED", decodeBody(t, w)["code"])
}

func TestGenerateReminderUnresolvedPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	charge := env.addCharge(t, 70000, 0, 10)

	tpl := dunning.NoticeTemplate{ID: uuid.New(), Name: "broken", Body: "Hallo {{ missing.path }}"}
	require.NoError(t, env.store.CreateTemplate(context.Background(), tpl))

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/charges/%s/reminders", charge.ID),
		map[string]any{"template_id": tpl.ID})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "UNRESOLVED_PLACEHOLDER", decodeBody(t, w)["code"])

	// A failed render must not leave a reminder behind.
	history, err := env.store.ListRemindersByCharge(context.Background(), charge.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDunningRun(t *testing.T) {
	env := newTestEnv(t)
	open := env.addCharge(t, 70000, 0, 10)
	settledLater := env.addCharge(t, 50000, 0, 20)

	// Drive the second charge to the final notice so the run skips it.
	for i := 0; i < 4; i++ {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/charges/%s/reminders", settledLater.ID), nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(t, http.MethodPost, "/v1/dunning-runs", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)

	created := body["created"].([]any)
	require.Len(t, created, 1)
	assert.Equal(t, open.ID.String(), created[0].(map[string]any)["charge_id"])

	skipped := body["skipped"].([]any)
	require.Len(t, skipped, 1)
	assert.Equal(t, "final_notice_issued", skipped[0].(map[string]any)["reason"])
}

func TestReminderDocument(t *testing.T) {
	env := newTestEnv(t)
	charge := env.addCharge(t, 70000, 0, 10)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/charges/%s/reminders", charge.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	reminderID := decodeBody(t, w)["reminder"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodGet, "/v1/reminders/"+reminderID+"/document", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Zahlungserinnerung")

	// No rasterizer configured.
	w = env.do(t, http.MethodGet, "/v1/reminders/"+reminderID+"/document?format=pdf", nil)
	require.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestValidateTemplate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/templates/validate", map[string]any{
		"body": "Betrag: {{ amount_formatted }} am {{ format_date(reminder_date) }}",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["valid"])
	placeholders := body["placeholders"].([]any)
	assert.Contains(t, placeholders, "amount_formatted")
	assert.Contains(t, placeholders, "reminder_date")

	w = env.do(t, http.MethodPost, "/v1/templates/validate", map[string]any{
		"body": "kaputt {{ tenant.",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, false, body["valid"])
	issues := body["errors"].([]any)
	require.NotEmpty(t, issues)
	first := issues[0].(map[string]any)
	assert.NotZero(t, first["line"])
}

func TestPreviewTemplate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/templates/preview", map[string]any{
		"body": "Offen: {{ amount_formatted }}",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decodeBody(t, w)["html"], "500,00 €")
}

func TestLetterheadSingleton(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/v1/letterhead/client", map[string]any{
		"name":    "Neue Verwaltung AG",
		"address": "Neustr. 9",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/v1/letterhead/client", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Neue Verwaltung AG", decodeBody(t, w)["name"])
}
