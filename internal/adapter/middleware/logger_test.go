package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	cases := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   zapcore.Level
		msg     string
	}{
		{
			name:    "ok",
			handler: func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			status:  http.StatusOK,
			level:   zapcore.InfoLevel,
			msg:     "request",
		},
		{
			name:    "not found",
			handler: func(echo.Context) error { return echo.ErrNotFound },
			status:  http.StatusNotFound,
			level:   zapcore.InfoLevel,
			msg:     "request error",
		},
		{
			name:    "server error",
			handler: func(echo.Context) error { return errors.New("boom") },
			status:  http.StatusInternalServerError,
			level:   zapcore.ErrorLevel,
			msg:     "request error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			e := echo.New()
			e.Use(RequestLogger(zap.New(core)))
			e.GET("/x", tc.handler)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?fund=f1", nil))

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(entries))
			}
			got := entries[0]
			if got.Level != tc.level || got.Message != tc.msg {
				t.Fatalf("entry = %s %q", got.Level, got.Message)
			}
			fields := got.ContextMap()
			if fields["uri"] != "/x?fund=f1" || fields["method"] != http.MethodGet {
				t.Fatalf("fields = %v", fields)
			}
			if fields["status"] != int64(tc.status) {
				t.Fatalf("status field = %v", fields["status"])
			}
		})
	}
}
