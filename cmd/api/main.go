package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ebookstore/internal/catalog"
	"ebookstore/internal/config"
	"ebookstore/internal/entitlement"
	"ebookstore/internal/httpx"
	"ebookstore/internal/payment"
	"ebookstore/internal/platform/broker"
	"ebookstore/internal/platform/logging"
	"ebookstore/internal/platform/objectstore"
	"ebookstore/internal/purchase"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	books, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("cannot load catalog")
	}
	catalogService := catalog.NewService(books)

	slot, ready, closeSlot := mustOpenSlot(ctx, cfg, logger)
	defer closeSlot()

	sessions, err := payment.NewSessions(newWidget(cfg), cfg.MaxPendingSessions, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create payment sessions")
	}

	events, err := broker.NewRabbit(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to message broker")
	}
	defer events.Close()
	if events == nil {
		logger.Info().Msg("RABBITMQ_URL not set, receipts will not be published")
	}

	downloads, err := objectstore.New(ctx, objectstore.Config{
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		TTL:       cfg.DownloadURLTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot configure object storage")
	}

	purchaseService, err := purchase.NewService(catalogService, slot, sessions, events, downloads, purchase.Options{
		Currency:   cfg.Currency,
		MaxPending: cfg.MaxPendingSessions,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create purchase service")
	}

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxyHeaders)
	defer limiter.Close()

	router := buildRouter(routerDeps{
		cfg:      cfg,
		catalog:  catalog.NewHTTPHandler(catalogService, purchaseService),
		purchase: purchase.NewHTTPHandler(purchaseService),
		limiter:  limiter,
		ready:    ready,
		logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("payment_provider", sessions.Provider()).
			Str("entitlement_backend", string(cfg.EntitlementBackend)).
			Int("books", len(books.FindAll(ctx))).
			Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Warn().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

type routerDeps struct {
	cfg      config.Config
	catalog  *catalog.HTTPHandler
	purchase *purchase.HTTPHandler
	limiter  *httpx.RateLimitMiddleware
	ready    func(context.Context) error
	logger   zerolog.Logger
}

func buildRouter(d routerDeps) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := d.ready(ctx); err != nil {
				http.Error(w, "entitlement store not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /v1/books", d.catalog.List)
	router.HandleFunc("GET /v1/books/{id}", d.catalog.Detail)
	router.HandleFunc("GET /v1/books/{id}/download", d.purchase.Download)

	router.HandleFunc("GET /v1/checkout/{bookId}", d.purchase.View)
	router.Handle("POST /v1/checkout/{bookId}", d.limiter.Middleware(http.HandlerFunc(d.purchase.Checkout)))
	router.Handle("POST /v1/payments/{reference}/callback", d.limiter.Middleware(http.HandlerFunc(d.purchase.Callback)))
	router.HandleFunc("GET /v1/success", d.purchase.Success)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(d.logger),
		// device before access log so log lines carry the device id
		httpx.DeviceMiddleware(httpx.DeviceOptions{
			Secret: d.cfg.DeviceTokenSecret,
			TTL:    d.cfg.DeviceTokenTTL,
			Secure: d.cfg.SecureCookies,
		}, d.logger),
		httpx.AccessLogMiddleware(d.logger),
		httpx.SecurityHeadersMiddleware,
		httpx.CORSMiddleware(d.cfg.CORSAllowedOrigins),
		httpx.RequestSizeLimitMiddleware(d.cfg.MaxBodyBytes),
	)
}

func newWidget(cfg config.Config) payment.Widget {
	if cfg.PaymentProvider == "midtrans" {
		return payment.NewMidtransWidget(cfg.MidtransServerKey, cfg.MidtransClientKey, cfg.MidtransProduction)
	}
	return payment.PaystackWidget{PublicKey: cfg.PaystackPublicKey}
}

// mustOpenSlot returns the entitlement slot for the configured backend, a readiness check (nil when
// the backend has nothing to check) and a cleanup func.
func mustOpenSlot(ctx context.Context, cfg config.Config, logger zerolog.Logger) (entitlement.Slot, func(context.Context) error, func()) {
	switch cfg.EntitlementBackend {
	case config.BackendMemory:
		return entitlement.NewMemorySlot(), nil, func() {}
	case config.BackendNone:
		logger.Warn().Msg("entitlement storage disabled, purchases will not be remembered")
		return entitlement.UnavailableSlot{}, nil, func() {}
	case config.BackendPostgres:
		pool := mustOpenDB(cfg.DatabaseDSN, logger)
		return entitlement.NewPostgresSlot(pool, 2*time.Second), pool.Ping, pool.Close
	default:
		slot, err := entitlement.OpenSQLiteSlot(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("cannot open entitlement store")
		}
		return slot, nil, func() { _ = slot.Close() }
	}
}

func mustOpenDB(dsn string, logger zerolog.Logger) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create db pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Fatal().Err(err).Str("dsn", redactDSN(dsn)).Msg("cannot ping database")
	}
	logger.Info().Msg("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
