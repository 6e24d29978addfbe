package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slotsmith/slotsmith/internal/booking"
	"github.com/slotsmith/slotsmith/internal/cache"
	"github.com/slotsmith/slotsmith/internal/handlers"
	"github.com/slotsmith/slotsmith/internal/model"
	"github.com/slotsmith/slotsmith/internal/outbox"
	"github.com/slotsmith/slotsmith/internal/storage"
	"github.com/slotsmith/slotsmith/libs/config"
	"github.com/slotsmith/slotsmith/libs/db"
	"github.com/slotsmith/slotsmith/libs/httpx"
	"github.com/slotsmith/slotsmith/libs/kafkax"
	otelx "github.com/slotsmith/slotsmith/libs/otel"
	"github.com/slotsmith/slotsmith/libs/redisx"
	"github.com/slotsmith/slotsmith/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	service := config.String("SERVICE_NAME", "slotsmith")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc := time.UTC
	if tz := strings.TrimSpace(config.String("TIMEZONE", "")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			logger.Error("invalid TIMEZONE; using UTC", "tz", tz, "err", err)
		} else {
			loc = l
		}
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema setup failed", "err", err)
		panic(err)
	}

	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb, err = redisx.Open(redisx.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.String("REDIS_DB", "0"),
		})
		if err != nil {
			logger.Error("redis setup failed; running without cache", "err", err)
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	outboxRepo := outbox.NewRepository(pool)
	eventTypeRepo := storage.NewEventTypeRepository(pool)
	configRepo := storage.NewConfigRepository(pool)
	blackoutRepo := storage.NewBlackoutRepository(pool)
	appointmentRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	userRepo := storage.NewUserRepository(pool)

	// Read paths go through Redis when configured; admin writes invalidate.
	var (
		eventTypeStore booking.EventTypeStore = eventTypeRepo
		configStore    booking.ConfigStore    = configRepo
		blackoutStore  booking.BlackoutStore  = blackoutRepo
		invalidators   handlers.Invalidators
	)
	if rdb != nil {
		redisCache := cache.NewRedisCache(rdb)
		ttl := config.Duration("CACHE_TTL", cache.DefaultTTL)
		cachedEventTypes := cache.NewEventTypeStore(eventTypeRepo, redisCache, ttl, logger)
		cachedConfigs := cache.NewConfigStore(configRepo, redisCache, ttl, logger)
		cachedBlackouts := cache.NewBlackoutStore(blackoutRepo, redisCache, ttl, logger)
		eventTypeStore = cachedEventTypes
		configStore = cachedConfigs
		blackoutStore = cachedBlackouts
		invalidators = handlers.Invalidators{
			Config:    func(ctx context.Context, scope model.Scope) error { return cachedConfigs.Invalidate(ctx, scope) },
			Blackouts: func(ctx context.Context, scope model.Scope) error { return cachedBlackouts.Invalidate(ctx, scope) },
			EventType: func(ctx context.Context, id int64) error { return cachedEventTypes.Invalidate(ctx, id) },
		}
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	bookingService := booking.NewService(eventTypeStore, configStore, blackoutStore, appointmentRepo, userRepo, logger, loc)
	publicHandler := handlers.NewPublicHandler(bookingService, appointmentRepo, logger)
	adminHandler := handlers.NewAdminHandler(eventTypeRepo, configRepo, blackoutRepo, invalidators, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)})
	}
	if brokers := config.String("KAFKA_BROKERS", ""); strings.TrimSpace(brokers) != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/public/slots", publicHandler.Slots)
	mux.HandleFunc("/api/v1/public/occupancy", publicHandler.Occupancy)
	mux.HandleFunc("/api/v1/public/book", publicHandler.Book)
	mux.HandleFunc("/api/v1/public/cancel", publicHandler.Cancel)
	mux.HandleFunc("/api/v1/admin/event-types", adminHandler.EventTypes)
	mux.HandleFunc("/api/v1/admin/config", adminHandler.Config)
	mux.HandleFunc("/api/v1/admin/blackouts", adminHandler.Blackouts)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	}
	if origins := splitList(config.String("CORS_ALLOWED_ORIGINS", "")); len(origins) > 0 {
		middlewares = append(middlewares, httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}))
	}
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		middlewares = append(middlewares, rl.Middleware(logger, config.String("RATE_LIMIT_FAIL_OPEN", "true") == "true"))
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		middlewares = append(middlewares, rl.Middleware())
	}
	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
