package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/FCM-Registry/internal/interfaces/http/middleware"
)

func corsHandler(cfg middleware.CORSConfig) http.Handler {
	return middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
}

func doCORS(h http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/stats", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowAll(t *testing.T) {
	h := corsHandler(middleware.DefaultCORSConfig())

	rec := doCORS(h, http.MethodGet, "https://dashboard.example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORSPreflight(t *testing.T) {
	h := corsHandler(middleware.DefaultCORSConfig())

	rec := doCORS(h, http.MethodOptions, "https://dashboard.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Body.String())
}

func TestCORSSpecificOriginIsEchoed(t *testing.T) {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://lab.example.cn"}
	h := corsHandler(cfg)

	rec := doCORS(h, http.MethodGet, "https://lab.example.cn")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://lab.example.cn", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisallowedOriginPassesThroughBare(t *testing.T) {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://lab.example.cn"}
	h := corsHandler(cfg)

	// The handler still runs; the browser blocks on the missing header.
	rec := doCORS(h, http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSNoOriginHeader(t *testing.T) {
	h := corsHandler(middleware.DefaultCORSConfig())

	rec := doCORS(h, http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSOriginMatchIsCaseInsensitive(t *testing.T) {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://Lab.Example.CN"}
	h := corsHandler(cfg)

	rec := doCORS(h, http.MethodGet, "https://lab.example.cn")
	assert.Equal(t, "https://lab.example.cn", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddlewareHandler(t *testing.T) {
	m := middleware.NewCORSMiddleware(middleware.DefaultCORSConfig())
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := doCORS(h, http.MethodGet, "https://dashboard.example.com")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
