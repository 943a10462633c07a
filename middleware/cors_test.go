package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSPreflight(t *testing.T) {
	handler := CORSMiddleware(nil)(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSAllowList(t *testing.T) {
	handler := CORSMiddleware([]string{"https://blog.example/"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Origin", "https://blog.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "https://blog.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProxyMiddleware(t *testing.T) {
	var seen *http.Request
	handler := ProxyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "blog.example")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "https", seen.URL.Scheme)
	assert.Equal(t, "blog.example", seen.Host)
	assert.Equal(t, "203.0.113.7", seen.RemoteAddr)
}

func TestForwardedClientIP(t *testing.T) {
	h := http.Header{}
	assert.Empty(t, forwardedClientIP(h))

	h.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", forwardedClientIP(h))

	h.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "198.51.100.2", forwardedClientIP(h))
}
