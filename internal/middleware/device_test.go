package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bunnybingsu/api/internal/middleware"
	"go.uber.org/zap"
)

type mockTables struct {
	setTableFn func(ctx context.Context, deviceKey, table string) error
}

func (m *mockTables) SetTable(ctx context.Context, deviceKey, table string) error {
	return m.setTableFn(ctx, deviceKey, table)
}

func echoDevice(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := middleware.DeviceFromContext(r.Context())
		if got == "" {
			t.Fatal("expected device key in context")
		}
		if want != "" && got != want {
			t.Errorf("device: got %q, want %q", got, want)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestDevice_FromHeader(t *testing.T) {
	handler := middleware.Device(nil, zap.NewNop())(echoDevice(t, "abc"))

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set(middleware.DeviceHeader, "abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if len(rr.Result().Cookies()) != 0 {
		t.Error("no cookie expected when header is present")
	}
}

func TestDevice_FromCookie(t *testing.T) {
	handler := middleware.Device(nil, zap.NewNop())(echoDevice(t, "from-cookie"))

	req := httptest.NewRequest("GET", "/cart", nil)
	req.AddCookie(&http.Cookie{Name: middleware.DeviceCookie, Value: "from-cookie"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get(middleware.DeviceHeader) != "from-cookie" {
		t.Errorf("response header: got %q", rr.Header().Get(middleware.DeviceHeader))
	}
}

func TestDevice_MintsKey(t *testing.T) {
	handler := middleware.Device(nil, zap.NewNop())(echoDevice(t, ""))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/cart", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.DeviceCookie || cookies[0].Value == "" {
		t.Fatalf("expected customer_key cookie, got %v", cookies)
	}
}

func TestDevice_TableFromQuery(t *testing.T) {
	var gotDevice, gotTable string
	tables := &mockTables{setTableFn: func(ctx context.Context, deviceKey, table string) error {
		gotDevice, gotTable = deviceKey, table
		return nil
	}}
	handler := middleware.Device(tables, zap.NewNop())(echoDevice(t, "dev"))

	req := httptest.NewRequest("GET", "/menu?table=7", nil)
	req.Header.Set(middleware.DeviceHeader, "dev")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if gotDevice != "dev" || gotTable != "7" {
		t.Errorf("SetTable(%q, %q), want (dev, 7)", gotDevice, gotTable)
	}
}

func TestDevice_TableErrorDoesNotBlock(t *testing.T) {
	tables := &mockTables{setTableFn: func(context.Context, string, string) error {
		return errors.New("storage offline")
	}}
	handler := middleware.Device(tables, zap.NewNop())(echoDevice(t, "dev"))

	req := httptest.NewRequest("GET", "/menu?table=7", nil)
	req.Header.Set(middleware.DeviceHeader, "dev")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}
