package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/internal/logger"
	"bistro/internal/models"
)

func TestLogging_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := Logging(logger.NewWithWriter("test", &buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"status_code":418`)
}

func TestLogging_KeepsIncomingRequestID(t *testing.T) {
	var seen string
	h := Logging(logger.Discard())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc", seen)
}

func TestDecode(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name        string
		contentType string
		payload     string
		wantErr     string
	}{
		{name: "ok", contentType: "application/json", payload: `{"name":"Coffee"}`},
		{name: "charset", contentType: "application/json; charset=utf-8", payload: `{"name":"Coffee"}`},
		{name: "wrong content type", contentType: "text/plain", payload: `{"name":"Coffee"}`, wantErr: "Content-Type"},
		{name: "unknown field", contentType: "application/json", payload: `{"nam":"Coffee"}`, wantErr: "invalid JSON"},
		{name: "broken", contentType: "application/json", payload: `{`, wantErr: "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", tt.contentType)

			var b body
			err := Decode(req, &b)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Coffee", b.Name)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "phone: invalid phone number", "phone", "req-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "phone", resp.Field)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.NotEmpty(t, resp.Timestamp)
}
