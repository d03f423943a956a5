package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/audit"
	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/event"
	"github.com/matthewbaird/rentroll/internal/pdf"
	"github.com/matthewbaird/rentroll/internal/store"
	"github.com/matthewbaird/rentroll/internal/template"
)

func testDeps() Deps {
	auditStore := audit.NewMemoryStore()
	return Deps{
		Store:     store.NewMemoryStore(),
		Audit:     auditStore,
		Recorder:  event.NewAuditRecorder(auditStore),
		Generator: dunning.NewGenerator(dunning.DefaultPolicy(), template.Strict, time.Now),
		PDF:       pdf.NewClient("", 0),
		Log:       zap.NewNop(),
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := NewRouter(testDeps())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouterUnknownChargeIs404(t *testing.T) {
	r := NewRouter(testDeps())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/charges/0b5fbb0a-78cf-4f8c-a912-3bbbbd130c63", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterRejectsMalformedID(t *testing.T) {
	r := NewRouter(testDeps())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reminders/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
