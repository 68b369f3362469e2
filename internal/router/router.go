package router

import (
	"net/http"

	"github.com/bunnybingsu/api/internal/config"
	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/handler"
	mw "github.com/bunnybingsu/api/internal/middleware"
	"github.com/bunnybingsu/api/internal/service"
	"github.com/bunnybingsu/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Services are the application services the routes are served by.
type Services struct {
	Menu   *service.MenuService
	Carts  *service.CartService
	Orders *service.OrderService
}

// New creates a Chi router with all application routes wired up.
// Shopper routes resolve the device key; admin routes require an ADMIN token.
func New(cfg *config.Config, svc Services, hub *ws.Hub, log *zap.Logger) (chi.Router, error) {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.DeviceHeader},
		ExposedHeaders:   []string{mw.DeviceHeader},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler, err := handler.NewAuthHandler(cfg.AdminPassword, cfg.JWTSecret, log.Named("auth"))
	if err != nil {
		return nil, err
	}
	authHandler.RegisterRoutes(r)

	menuHandler := handler.NewMenuHandler(svc.Menu, log.Named("menu"))
	r.Route("/menu", menuHandler.RegisterRoutes)
	r.Get("/ws/menu", ws.ServeWS(hub, ws.TopicMenu, log))

	// Shopper routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Device(svc.Carts, log.Named("device")))
		cartHandler := handler.NewCartHandler(svc.Carts, svc.Orders, log.Named("cart"))
		cartHandler.RegisterRoutes(r)
	})

	// Staff routes (require an admin token; the websocket passes it as ?token=)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.RoleAdmin))

		r.Get("/ws/orders", ws.ServeWS(hub, ws.TopicOrders, log))

		r.Route("/admin", func(r chi.Router) {
			r.Route("/menu", menuHandler.RegisterAdminRoutes)

			orderHandler := handler.NewOrderHandler(svc.Orders, log.Named("orders"))
			orderHandler.RegisterRoutes(r)

			reportsHandler := handler.NewReportsHandler(svc.Orders, log.Named("reports"))
			r.Route("/reports", reportsHandler.RegisterRoutes)
		})
	})

	log.Info("router initialized")
	return r, nil
}
