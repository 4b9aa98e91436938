package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/example/freebusy/internal/application"
	"github.com/example/freebusy/internal/config"
	httptransport "github.com/example/freebusy/internal/http"
	"github.com/example/freebusy/internal/logging"
	"github.com/example/freebusy/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, parseLogLevel(cfg.LogLevel))

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Ping(context.Background()); err != nil {
		logger.Error("failed to verify storage connectivity", "error", err)
		os.Exit(1)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string {
		return uuid.NewString() + uuid.NewString()
	}
	now := time.Now

	availabilityCache := application.NewAvailabilityCache(cfg.CacheTTL)

	userService := application.NewUserService(storage, idGenerator, now, logger)
	commitmentService := application.NewCommitmentService(storage, availabilityCache, idGenerator, now, logger)
	availabilityService := application.NewAvailabilityService(storage, availabilityCache, application.AvailabilityDefaults{
		Hours:            cfg.WorkingHours,
		MinSlotDuration:  cfg.MinSlotDuration,
		MaxSuggestions:   cfg.MaxSuggestions,
		MaxMeetingLength: cfg.MaxMeetingLength,
	}, logger)
	authService := application.NewAuthService(storage, storage, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Commitments:  httptransport.NewCommitmentHandler(commitmentService, logger),
		Availability: httptransport.NewAvailabilityHandler(availabilityService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	throttled := httptransport.RateLimit(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	handler := httptransport.RequestLogger(logger)(throttled(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Session creation is the only route reachable without a session.
		if r.Method == http.MethodPost && strings.EqualFold(r.URL.Path, "/sessions") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("freebusy API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
