package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/chatmark/internal/logger"
)

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"marks.local", "marks.local", true},
		{"api.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil.com", "marks.local", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchHost(tt.host, tt.pattern), "%s vs %s", tt.host, tt.pattern)
	}
}

func TestMatchOrigin(t *testing.T) {
	assert.True(t, matchOrigin("chrome-extension://abc", "chrome-extension://*"))
	assert.False(t, matchOrigin("https://abc", "chrome-extension://*"))
	assert.False(t, matchOrigin("https://abc.example", "https://abc.example"))
}

func TestLogPassesFlushThrough(t *testing.T) {
	h := Log(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: x\n\n"))
		assert.NoError(t, http.NewResponseController(w).Flush())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, rec.Flushed)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req.RemoteAddr = "192.168.1.1:4000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
