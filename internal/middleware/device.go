package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DeviceHeader = "X-Customer-Key"
	DeviceCookie = "customer_key"
)

// TableSetter stores a device's table number.
// Satisfied by *service.CartService.
type TableSetter interface {
	SetTable(ctx context.Context, deviceKey, table string) error
}

// Device resolves the shopper's device key from the X-Customer-Key header or
// the customer_key cookie, minting one (and setting the cookie) when the
// request has neither. A ?table= query parameter is stored as the device's
// table number, so a QR code per table can seat the shopper.
func Device(tables TableSetter, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(DeviceHeader))
			if key == "" {
				if c, err := r.Cookie(DeviceCookie); err == nil {
					key = c.Value
				}
			}
			if key == "" {
				key = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    key,
					Path:     "/",
					Expires:  time.Now().AddDate(1, 0, 0),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(DeviceHeader, key)

			if table := strings.TrimSpace(r.URL.Query().Get("table")); table != "" && tables != nil {
				if err := tables.SetTable(r.Context(), key, table); err != nil {
					log.Warn("store table from url", zap.String("table", table), zap.Error(err))
				}
			}

			ctx := context.WithValue(r.Context(), deviceKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeviceFromContext returns the device key set by Device.
func DeviceFromContext(ctx context.Context) string {
	key, _ := ctx.Value(deviceKey).(string)
	return key
}

// WithDevice returns a context carrying deviceKey.
func WithDevice(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, deviceKey, key)
}
