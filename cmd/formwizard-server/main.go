package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	theme "github.com/goliatone/go-theme"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/pkg/definition"
	"github.com/goliatone/go-formwizard/pkg/metrics"
	"github.com/goliatone/go-formwizard/pkg/middleware"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/render/template"
	"github.com/goliatone/go-formwizard/pkg/session"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	cfg, err := loadConfig(*envFile)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config, logger *logrus.Logger) error {
	def, err := formwizard.LoadDefinition(cfg.Definition)
	if err != nil {
		return err
	}
	for _, v := range definition.Lint(def, definition.LintOptions{DefaultTemplates: true}) {
		logger.WithField("step", v.Step).Warn(v.Message)
	}

	themeCfg, err := resolveTheme(cfg)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"theme":   themeCfg.Theme,
		"variant": themeCfg.Variant,
	}).Debug("theme selected")

	renderer, err := formwizard.NewRenderer(cfg.Templates, template.WithTheme(themeCfg))
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(ctx, cfg, def.Name, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	binder := session.NewBinder(store,
		session.WithTTL(cfg.SessionTTL),
		session.WithSecureCookie(cfg.SecureCookie),
		session.WithCookiePath(def.Base),
		session.WithLogger(logger),
	)

	wiz, err := formwizard.New(def,
		wizard.WithLogger(logger),
		wizard.WithRenderer(renderer),
		wizard.WithSessionBinder(binder),
	)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return err
	}
	collector.Subscribe(wiz.Events())

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, middleware.WithRateLimitLogger(logger))
	done := make(chan struct{})
	defer close(done)
	limiter.StartCleanup(time.Minute, 10*time.Minute, done)

	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger), collector.Middleware, limiter.Handler)
	router.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/assets/").Handler(
		http.StripPrefix("/assets/", http.FileServer(http.FS(formwizard.AssetsFS()))),
	).Methods(http.MethodGet)

	for _, pattern := range wiz.RegisterRoutes(router) {
		logger.WithField("pattern", pattern).Debug("route registered")
	}
	if routes := wiz.Routes(); len(routes) > 0 && wiz.Base() != "/" {
		start := strings.TrimRight(wiz.Base(), "/") + routes[0]
		router.Handle(wiz.Base(), http.RedirectHandler(start, http.StatusFound)).Methods(http.MethodGet)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.Addr,
			"wizard": def.Name,
			"base":   def.Base,
		}).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// resolveTheme selects the configured theme among the built-in one and the
// optional manifest in FORMWIZARD_THEME_FILE.
func resolveTheme(cfg config) (*theme.RendererConfig, error) {
	var extra []*theme.Manifest
	if cfg.ThemeFile != "" {
		m, err := formwizard.LoadThemeManifest(cfg.ThemeFile)
		if err != nil {
			return nil, err
		}
		extra = append(extra, m)
	}
	selector, err := formwizard.NewThemeSelector(cfg.Theme, cfg.ThemeVariant, extra...)
	if err != nil {
		return nil, err
	}
	return render.ResolveTheme(selector, cfg.Theme, cfg.ThemeVariant)
}

// newStore connects to redis when an address is configured and falls back to
// the in-process store otherwise.
func newStore(ctx context.Context, cfg config, name string, logger logrus.FieldLogger) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Warn("FORMWIZARD_REDIS_ADDR not set, sessions are kept in memory")
		return session.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	prefix := "formwizard:session:"
	if name != "" {
		prefix = "formwizard:" + name + ":session:"
	}
	store := session.NewRedisStore(client, session.WithKeyPrefix(prefix))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return store, func() {
		if err := client.Close(); err != nil {
			logger.WithError(err).Warn("redis close")
		}
	}, nil
}
