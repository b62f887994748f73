package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/AlexKimmel/nightout/internal/auth"
	"github.com/AlexKimmel/nightout/internal/config"
	"github.com/AlexKimmel/nightout/internal/gateway"
	"github.com/AlexKimmel/nightout/internal/obs"
	"github.com/AlexKimmel/nightout/internal/pages"
	"github.com/AlexKimmel/nightout/internal/ratelimit"
	"github.com/AlexKimmel/nightout/internal/ratelimit/memory"
	"github.com/AlexKimmel/nightout/internal/ratelimit/redisstore"
	"github.com/AlexKimmel/nightout/internal/ratelimit/tokenbucket"
	"github.com/AlexKimmel/nightout/internal/routing"
	"github.com/AlexKimmel/nightout/internal/users"
	"github.com/AlexKimmel/nightout/internal/users/pgstore"
	"github.com/AlexKimmel/nightout/internal/web"
)

const version = "v0.1.0"

func main() {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config file")
	envPath := flag.String("env", ".env", "path to a dotenv file")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envPath, err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "config from environment: %v\n", err)
		os.Exit(1)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("bye")
}

func run(ctx context.Context, cfg *config.Root, logger zerolog.Logger) error {
	store, err := openUsers(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "credential store", store)

	limiter, err := openLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "rate limiter", limiter)

	throttle := tokenbucket.New(cfg.Limits.Login.RatePerSecond, cfg.Limits.Login.Burst, cfg.Limits.Window())
	throttle.StartJanitor(ctx, time.Minute)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics(reg)

	service := users.NewService(store)
	tokens := auth.NewTokens(cfg.Session.Secret, cfg.Session.TTL())
	cookie := auth.Cookie{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure}
	clientID := ratelimit.ClientID(cfg.Limits.TrustProxy)

	gw := gateway.New(gateway.Options{
		Limiter:  limiter,
		ClientID: clientID,
		Verifier: auth.NewVerifier(tokens, service, cookie, cfg.Session.LookupTimeout()),
		Hooks:    metrics.Hooks(),
	})

	renderer, err := pages.New()
	if err != nil {
		return err
	}

	router, err := web.NewRouter(web.Deps{
		Table:   routing.Site(),
		Gateway: gw,
		Pages:   renderer,
		Accounts: web.NewAccounts(web.AccountsOptions{
			Users:    service,
			Tokens:   tokens,
			Cookie:   cookie,
			Throttle: throttle,
			ClientID: clientID,
		}),
		Metrics:     metrics,
		MetricsPath: cfg.Observability.PrometheusPath,
		StaticDir:   cfg.Server.StaticDir,
		CSP:         cfg.Server.CSP,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: gateway.Chain(
			router,
			obs.Logger(logger),
			gateway.BodyLimit(cfg.Server.MaxBody()),
		),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout(),
		WriteTimeout:      cfg.Server.WriteTimeout(),
		IdleTimeout:       cfg.Server.IdleTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Bool("redis", cfg.Redis.Addr != "").Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

func openUsers(ctx context.Context, cfg config.Store, logger zerolog.Logger) (users.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		s, err := pgstore.Open(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	default:
		logger.Warn().Msg("using in-memory credential store; accounts are lost on restart")
		return users.NewMemStore(), nil
	}
}

func openLimiter(ctx context.Context, cfg *config.Root, logger zerolog.Logger) (ratelimit.Store, error) {
	policy := ratelimit.Policy{Window: cfg.Limits.Window(), Max: cfg.Limits.MaxRequests}

	if cfg.Redis.Addr != "" {
		client, err := redisstore.Dial(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("rate limit counters in redis")
		return redisstore.New(client, policy), nil
	}

	var opts []memory.Option
	if r := cfg.Limits.Retention(); r > 0 {
		opts = append(opts, memory.WithRetention(r))
	}
	s := memory.New(policy, opts...)
	s.StartJanitor(ctx, policy.Window)
	return s, nil
}

type closer interface{ Close() error }

func closeLogged(logger zerolog.Logger, what string, c closer) {
	if err := c.Close(); err != nil {
		logger.Error().Err(err).Str("component", what).Msg("close failed")
	}
}
