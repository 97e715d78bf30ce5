package order

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/logger"
	"bistro/internal/models"
	"bistro/internal/outcome"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, _, _ := newTestService(t, outcome.Always())
	srv := httptest.NewServer(NewHandler(svc, logger.Discard()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else {
		out = map[string]any{"list": raw}
	}
	return resp, out
}

func TestHandler_OrderFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/staff", map[string]string{"name": "Gordon", "role": "kitchen"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "staff:kitchen:Gordon", body["id"])

	resp, body = do(t, srv, http.MethodPost, "/orders", map[string]string{"customer_name": "Ann", "email": "ann@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 1, body["order_id"])
	assert.Equal(t, "received", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = do(t, srv, http.MethodPost, "/orders/1/items", map[string]string{"name": "Grilled Salmon"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "24.99", body["total"])
	assert.EqualValues(t, 25, body["estimated_time"])

	resp, _ = do(t, srv, http.MethodPut, "/orders/1/payment-method", map[string]string{"method": "credit_card"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPut, "/orders/1/payment-info", map[string]string{
		"card_number":     "4111 1111 1111 1111",
		"expiry":          "12/30",
		"cvv":             "123",
		"cardholder_name": "Ann Lee",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/orders/1/payment", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pay := body["payment"].(map[string]any)
	assert.Equal(t, true, pay["success"])
	assert.Equal(t, "CC_123456", pay["transaction_id"])

	resp, body = do(t, srv, http.MethodPut, "/orders/1/status", map[string]string{"status": "preparing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notifications := body["notifications"].(map[string]any)
	assert.Equal(t, "order_preparing", notifications["event"])
	assert.Len(t, notifications["outcomes"], 2)

	resp, body = do(t, srv, http.MethodGet, "/orders/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "preparing", body["status"])

	resp, body = do(t, srv, http.MethodGet, "/orders?status=preparing", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body["list"].(json.RawMessage), &list))
	assert.Len(t, list, 1)

	resp, body = do(t, srv, http.MethodDelete, "/orders/1/items/Grilled%20Salmon", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", body["total"])
}

func TestHandler_Errors(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodPost, "/orders", map[string]string{"customer_name": "Ann"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		field  string
	}{
		{name: "missing customer", method: http.MethodPost, path: "/orders", body: map[string]string{"phone": "555"}, status: http.StatusBadRequest, field: "customer_name"},
		{name: "unknown json field", method: http.MethodPost, path: "/orders", body: map[string]string{"customer": "Ann"}, status: http.StatusBadRequest},
		{name: "bad order id", method: http.MethodGet, path: "/orders/abc", status: http.StatusBadRequest, field: "id"},
		{name: "unknown order", method: http.MethodGet, path: "/orders/99", status: http.StatusNotFound},
		{name: "unknown item", method: http.MethodPost, path: "/orders/1/items", body: map[string]string{"name": "Lobster"}, status: http.StatusNotFound},
		{name: "unknown method", method: http.MethodPut, path: "/orders/1/payment-method", body: map[string]string{"method": "cash"}, status: http.StatusBadRequest},
		{name: "pay without method", method: http.MethodPost, path: "/orders/1/payment", status: http.StatusBadRequest},
		{name: "unknown status", method: http.MethodPut, path: "/orders/1/status", body: map[string]string{"status": "lost"}, status: http.StatusBadRequest},
		{name: "unknown role", method: http.MethodPost, path: "/staff", body: map[string]string{"name": "Zed", "role": "janitor"}, status: http.StatusBadRequest, field: "role"},
		{name: "unknown category", method: http.MethodGet, path: "/menu/soup", status: http.StatusBadRequest, field: "category"},
		{name: "unknown route", method: http.MethodGet, path: "/kitchen", status: http.StatusNotFound},
		{name: "wrong verb", method: http.MethodPatch, path: "/orders/1", status: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
			if tt.field != "" {
				assert.Equal(t, tt.field, body["field"])
			}
		})
	}
}

func TestHandler_RequiresJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/orders", "text/plain", bytes.NewBufferString(`{"customer_name":"Ann"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Contains(t, e.Error, "Content-Type")
}

func TestHandler_MenuAndPromotions(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/menu/beverages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(body["list"].(json.RawMessage), &items))
	require.Len(t, items, 5)
	assert.Equal(t, "beverage", items[0]["category"])
	assert.Contains(t, items[0], "prep_time")

	resp, body = do(t, srv, http.MethodPost, "/subscribers", map[string]any{"name": "Ann", "email": "ann@example.com", "preferences": []string{"desserts"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "subscriber:Ann", body["id"])

	resp, body = do(t, srv, http.MethodPost, "/promotions", map[string]string{"category": "desserts", "message": "Half price cake", "promo_code": "CAKE50"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "promotion", body["event"])
	assert.Len(t, body["outcomes"], 2)
}

func TestHandler_HealthCheck(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, serviceName, body["service"])
	assert.EqualValues(t, 0, body["orders"])
}
