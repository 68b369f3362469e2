package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bunnybingsu/api/internal/config"
	"github.com/bunnybingsu/api/internal/database"
	"github.com/bunnybingsu/api/internal/docstore"
	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/handler"
	"github.com/bunnybingsu/api/internal/notify"
	"github.com/bunnybingsu/api/internal/router"
	"github.com/bunnybingsu/api/internal/service"
	"github.com/bunnybingsu/api/internal/storage"
	"github.com/bunnybingsu/api/internal/ws"
	"go.uber.org/zap"
)

// documentStore is what the services and the live feeds need from the
// document backend.
type documentStore interface {
	service.Documents
	ws.Subscriber
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.AdminPassword == config.DefaultAdminPassword {
		logger.Warn("ADMIN_PASSWORD not set, using the default admin password")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, devices, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open stores", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	var notifier service.Notifier
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Fatal("connect telegram bot", zap.Error(err))
		}
		notifier = tg
		logger.Info("telegram notifications enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
	}

	orders, err := service.NewOrderService(docs, cfg.SalesFilter, cfg.Location, logger)
	if err != nil {
		logger.Fatal("create order service", zap.Error(err))
	}
	svc := router.Services{
		Menu:   service.NewMenuService(docs),
		Carts:  service.NewCartService(devices, docs, cfg.CartPolicy, notifier, logger),
		Orders: orders,
	}

	hub := ws.NewHub()
	go hub.Run(ctx)
	go runFeed(ctx, hub, docs, enum.CollectionMenu, ws.TopicMenu, enum.EventMenuSnapshot, handler.MenuPayload, logger)
	go runFeed(ctx, hub, docs, enum.CollectionOrders, ws.TopicOrders, enum.EventOrdersSnapshot, handler.OrdersPayload, logger)

	r, err := router.New(cfg, svc, hub, logger)
	if err != nil {
		logger.Fatal("create router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("backend", cfg.StoreBackend),
			zap.String("cart_policy", cfg.CartPolicy),
			zap.String("sales_filter", cfg.SalesFilter),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

// openStores opens the document store and the per-device storage for the
// configured backend. The returned func releases them.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (documentStore, storage.Store, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("using in-memory stores; data is lost on restart")
		return docstore.NewMemoryStore(), storage.NewMemoryStore(), func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return nil, nil, nil, err
		}
		logger.Info("migrations applied")
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return docstore.NewPGStore(pool, logger), storage.NewPGStore(pool), pool.Close, nil
}

// runFeed keeps a collection's live feed running until ctx is done,
// resubscribing after the stream drops.
func runFeed(ctx context.Context, hub *ws.Hub, docs ws.Subscriber, collection, topic, eventType string, encode ws.Encoder, logger *zap.Logger) {
	for {
		err := ws.Feed(ctx, hub, docs, collection, topic, eventType, encode, logger)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("live feed stopped, resubscribing", zap.String("collection", collection), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}
