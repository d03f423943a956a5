package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/template"
)

func TestLivePreview(t *testing.T) {
	gen := dunning.NewGenerator(dunning.DefaultPolicy(), template.Strict, time.Now)
	h := NewPreviewHandler(gen, zap.NewNop())

	ts := httptest.NewServer(http.HandlerFunc(h.LivePreview))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// A valid draft renders against the sample context.
	require.NoError(t, wsjson.Write(ctx, conn, previewRequest{Body: "Offen: {{ amount_formatted }}"}))
	var resp previewResponse
	require.NoError(t, wsjson.Read(ctx, conn, &resp))
	assert.Contains(t, resp.HTML, "500,00 €")
	assert.Contains(t, resp.Placeholders, "amount_formatted")
	assert.Empty(t, resp.Errors)

	// A broken draft reports positioned errors without closing the stream.
	require.NoError(t, wsjson.Write(ctx, conn, previewRequest{Body: "kaputt {{ tenant."}))
	resp = previewResponse{}
	require.NoError(t, wsjson.Read(ctx, conn, &resp))
	assert.Empty(t, resp.HTML)
	require.NotEmpty(t, resp.Errors)
	assert.NotZero(t, resp.Errors[0].Line)

	// The stream recovers on the next valid draft.
	require.NoError(t, wsjson.Write(ctx, conn, previewRequest{Body: "{{ reminder_type_label }}"}))
	resp = previewResponse{}
	require.NoError(t, wsjson.Read(ctx, conn, &resp))
	assert.Contains(t, resp.HTML, "1. Mahnung")
}
