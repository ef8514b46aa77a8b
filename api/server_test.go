package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widget-estimate/adapters/storage"
	"widget-estimate/adapters/widgets"
	"widget-estimate/core/widget"
)

const acmeConfig = `{
	"id": "42",
	"name": "Acme Movers",
	"status": "active",
	"steps": {
		"project-scope": {"options": [{"id": "2br", "title": "2 Bedroom", "estimation": {"base_price": 500}}]}
	},
	"settings": {"tax_rate": 0.1}
}`

func newTestServer(t *testing.T, leads storage.Store) *Server {
	t.Helper()
	cfg, err := widget.Parse([]byte(acmeConfig))
	require.NoError(t, err)

	provider := widgets.NewMemoryProvider()
	provider.Put("acme", cfg)

	srv, err := NewServer(Options{Version: "test", Widgets: provider, Leads: leads, MaxBodyBytes: 1 << 16})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "widget-test/1.0")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var doc map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	}
	return rec, doc
}

func errorCode(t *testing.T, doc map[string]any) string {
	t.Helper()
	body, ok := doc["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", doc)
	code, _ := body["code"].(string)
	return code
}

func TestNewServerRequiresProvider(t *testing.T) {
	_, err := NewServer(Options{})
	require.Error(t, err)
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, doc := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", doc["status"])
	assert.Equal(t, "test", doc["version"])

	rec, doc = do(t, srv, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "widget-estimate", doc["engine"])
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestGetConfig(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, doc := do(t, srv, http.MethodGet, "/api/widget/acme/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Movers", doc["name"])
	assert.Contains(t, doc, "steps")

	rec, doc = do(t, srv, http.MethodGet, "/api/widget/missing/config", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, doc))
}

func TestListWidgets(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, doc := do(t, srv, http.MethodGet, "/api/widgets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, doc["count"])
}

func TestEstimate(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, doc := do(t, srv, http.MethodPost, "/api/widget/acme/estimate",
		`{"responses": {"project-scope": {"selectedOption": "2br"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "42", doc["widget_id"])
	assert.Equal(t, "Acme Movers", doc["widget_name"])
	assert.EqualValues(t, 550, doc["total_price"])
	assert.EqualValues(t, 500, doc["base_price"])
	assert.EqualValues(t, 500, doc["subtotal"])
	assert.EqualValues(t, 50, doc["tax_amount"])
	assert.Equal(t, "USD", doc["currency"])

	breakdown, ok := doc["breakdown"].([]any)
	require.True(t, ok)
	require.Len(t, breakdown, 2)
	first := breakdown[0].(map[string]any)
	assert.Equal(t, "base", first["type"])

	responses, ok := doc["responses"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, responses, "project-scope")

	meta, ok := doc["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, meta["input_hash"], 64)
	assert.NotEmpty(t, meta["engine_version"])
}

func TestEstimateErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown widget", "/api/widget/missing/estimate", `{"responses": {}}`, http.StatusNotFound, "NOT_FOUND"},
		{"responses absent", "/api/widget/acme/estimate", `{}`, http.StatusUnprocessableEntity, "INVALID_REQUEST"},
		{"responses null", "/api/widget/acme/estimate", `{"responses": null}`, http.StatusUnprocessableEntity, "INVALID_REQUEST"},
		{"responses array", "/api/widget/acme/estimate", `{"responses": [1, 2]}`, http.StatusUnprocessableEntity, "INVALID_REQUEST"},
		{"responses string", "/api/widget/acme/estimate", `{"responses": "2br"}`, http.StatusUnprocessableEntity, "INVALID_REQUEST"},
		{"body not json", "/api/widget/acme/estimate", `{responses`, http.StatusBadRequest, "INVALID_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, doc := do(t, srv, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, doc))
		})
	}
}

func TestEstimateIgnoresMalformedSteps(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, doc := do(t, srv, http.MethodPost, "/api/widget/acme/estimate",
		`{"responses": {"project-scope": "2br", "distance-calculation": {"distance": "far"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 385, doc["total_price"])
	assert.EqualValues(t, 350, doc["base_price"])
}

func TestCreateAndGetLead(t *testing.T) {
	leads := storage.NewMemoryStore()
	srv := newTestServer(t, leads)

	rec, doc := do(t, srv, http.MethodPost, "/api/widget/acme/leads", `{
		"responses": {"project-scope": {"selectedOption": "2br"}},
		"contact_info": {"name": " Jane Doe ", "email": "jane@example.com"},
		"source_url": "https://acme.example/quote"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	lead, ok := doc["lead"].(map[string]any)
	require.True(t, ok)
	id, _ := lead["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "acme", lead["widget_key"])
	assert.Equal(t, "new", lead["status"])
	assert.Equal(t, "widget-test/1.0", lead["user_agent"])

	stored, err := leads.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", stored.Contact.Name)
	assert.Equal(t, "550.00", stored.TotalPrice().StringFixed(2))
	assert.JSONEq(t, `{"project-scope":{"selectedOption":"2br"}}`, string(stored.Responses))

	rec, doc = do(t, srv, http.MethodGet, "/api/leads/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := doc["lead"].(map[string]any)
	assert.Equal(t, id, fetched["id"])

	rec, doc = do(t, srv, http.MethodGet, "/api/leads?widget_key=acme", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, doc["count"])
}

type chanNotifier chan *storage.Lead

func (c chanNotifier) LeadCreated(_ context.Context, lead *storage.Lead) error {
	c <- lead
	return nil
}

func TestCreateLeadNotifies(t *testing.T) {
	cfg, err := widget.Parse([]byte(acmeConfig))
	require.NoError(t, err)
	provider := widgets.NewMemoryProvider()
	provider.Put("acme", cfg)

	notified := make(chanNotifier, 1)
	srv, err := NewServer(Options{Widgets: provider, Leads: storage.NewMemoryStore(), Notifier: notified})
	require.NoError(t, err)

	rec, doc := do(t, srv, http.MethodPost, "/api/widget/acme/leads", `{"responses": {"project-scope": {"selectedOption": "2br"}}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := doc["lead"].(map[string]any)["id"]

	select {
	case lead := <-notified:
		assert.Equal(t, id, lead.ID)
		assert.Equal(t, "acme", lead.WidgetKey)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a lead notification")
	}
}

func TestLeadErrors(t *testing.T) {
	srv := newTestServer(t, storage.NewMemoryStore())

	rec, doc := do(t, srv, http.MethodPost, "/api/widget/missing/leads", `{"responses": {}}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, doc))

	rec, doc = do(t, srv, http.MethodPost, "/api/widget/acme/leads", `{"contact_info": {"name": "x"}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, doc))

	rec, doc = do(t, srv, http.MethodGet, "/api/leads/00000000-0000-0000-0000-000000000000", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, doc))

	rec, doc = do(t, srv, http.MethodGet, "/api/leads?limit=zero", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_QUERY", errorCode(t, doc))
}

func TestLeadsDisabled(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, doc := do(t, srv, http.MethodPost, "/api/widget/acme/leads", `{"responses": {}}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "LEADS_DISABLED", errorCode(t, doc))
}

func TestBodyTooLarge(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{"responses": {"note": "` + string(bytes.Repeat([]byte("x"), 1<<17)) + `"}}`
	rec, doc := do(t, srv, http.MethodPost, "/api/widget/acme/estimate", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "BODY_TOO_LARGE", errorCode(t, doc))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, doc := do(t, srv, http.MethodGet, "/api/nothing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, doc))
}
