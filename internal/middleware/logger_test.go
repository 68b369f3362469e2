package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bunnybingsu/api/internal/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{"ok", http.StatusOK, zapcore.InfoLevel},
		{"client error", http.StatusNotFound, zapcore.InfoLevel},
		{"server error", http.StatusInternalServerError, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			h := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", "/menu", nil))

			entries := logs.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("expected 1 log entry, got %d", len(entries))
			}
			e := entries[0]
			if e.Level != tt.wantLevel {
				t.Errorf("level: got %s, want %s", e.Level, tt.wantLevel)
			}
			fields := e.ContextMap()
			if fields["path"] != "/menu" || fields["status"] != int64(tt.status) {
				t.Errorf("unexpected fields: %v", fields)
			}
		})
	}
}
