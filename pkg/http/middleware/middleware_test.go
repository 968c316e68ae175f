package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	applogger "FinSignal/pkg/logger"
)

type denyAfter struct{ n int }

func (d *denyAfter) Allow(string, float64, float64) bool {
	d.n--
	return d.n >= 0
}

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Use(mw...)
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
	e.GET("/fail", func(c echo.Context) error { return errors.New("fail") })
	return e
}

func do(e *echo.Echo, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	e := newEcho(RateLimit(&denyAfter{n: 1}, 1, 1, "/healthz"))
	if rec := do(e, http.MethodGet, "/ok", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/ok", nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("skipped path was limited: %d", rec.Code)
	}
}

func TestRecoverAndLogging(t *testing.T) {
	l := applogger.Nop()
	e := newEcho(Recover(l), RequestLogging(l))
	if rec := do(e, http.MethodGet, "/boom", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic: %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/ok", map[string]string{echo.HeaderXRequestID: "abc"})
	if rec.Header().Get(echo.HeaderXRequestID) != "abc" {
		t.Fatalf("request id not echoed")
	}
	rec = do(e, http.MethodGet, "/ok", nil)
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("request id not generated")
	}
	if rec := do(e, http.MethodGet, "/fail", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("handler error: %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	e := newEcho(CORS(CORSConfig{AllowOrigins: []string{"https://app.example"}, AllowMethods: []string{"GET"}, MaxAge: 60}))
	rec := do(e, http.MethodOptions, "/ok", map[string]string{echo.HeaderOrigin: "https://app.example"})
	if rec.Code != http.StatusNoContent || rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "https://app.example" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}
	rec = do(e, http.MethodGet, "/ok", map[string]string{echo.HeaderOrigin: "https://evil.example"})
	if rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "" {
		t.Fatalf("foreign origin allowed")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	e := newEcho(Metrics(applogger.Nop(), 0))
	if rec := do(e, http.MethodGet, "/ok", nil); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/fail", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if statusClass(404) != "4xx" || statusClass(503) != "5xx" {
		t.Fatalf("statusClass")
	}
}
