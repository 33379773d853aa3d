package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-n-ai/learnly/internal/ai"
	"github.com/p-n-ai/learnly/internal/builder"
	"github.com/p-n-ai/learnly/internal/platform/cache"
	"github.com/p-n-ai/learnly/internal/platform/config"
	"github.com/p-n-ai/learnly/internal/platform/database"
	"github.com/p-n-ai/learnly/internal/progress"
	"github.com/p-n-ai/learnly/internal/quiz"
	"github.com/p-n-ai/learnly/internal/realtime"
	"github.com/p-n-ai/learnly/internal/resource"
	"github.com/p-n-ai/learnly/internal/server"
	"github.com/p-n-ai/learnly/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute, // curriculum builds wait on the model
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// app is the wired service graph.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	var checks []server.Check

	router, err := ai.NewRouterFromConfig(cfg.AI)
	if err != nil {
		return nil, err
	}
	rules, err := progress.LoadRules(cfg.Progress.RulesPath)
	if err != nil {
		return nil, err
	}

	clients := resource.Multi{}
	if cfg.YouTube.APIKey != "" {
		yt, err := resource.NewYouTubeClient(ctx, cfg.YouTube.APIKey)
		if err != nil {
			return nil, fmt.Errorf("creating YouTube client: %w", err)
		}
		clients = append(clients, yt)
	}
	clients = append(clients, resource.NewSuggestionClient(router))

	b := builder.New(builder.Config{
		Generator:     builder.NewAIGenerator(router, ai.NewInMemoryBudget(cfg.AI.TokenBudget)),
		Resources:     clients,
		Weeks:         cfg.Curriculum.Weeks,
		ResourceLimit: cfg.YouTube.MaxResults,
	})
	var curricula session.CurriculumBuilder = b
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		checks = append(checks, server.Check{Name: "cache", Fn: c.HealthCheck})
		curricula = builder.NewCachedBuilder(b, c, cfg.Cache.TTL)
		slog.Info("curriculum cache enabled", "ttl", cfg.Cache.TTL)
	}

	var (
		store  session.ProgressStore = session.NewMemoryStore()
		events session.EventLogger   = session.NopEventLogger{}
	)
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		pg, err := session.NewPostgresStore(db.Pool)
		if err != nil {
			a.close()
			return nil, err
		}
		store = pg
		events = session.NewPostgresEventLogger(db.Pool)
		checks = append(checks, server.Check{Name: "database", Fn: db.HealthCheck})
	} else {
		slog.Warn("LEARN_DATABASE_URL not set, learner progress is kept in memory")
	}

	hub := realtime.NewHub()
	svc := session.New(session.Config{
		Builder:   curricula,
		Quizzes:   quiz.NewGenerator(router),
		Store:     store,
		Events:    events,
		Publisher: hub,
		Rules:     rules,
	})

	a.handler = server.New(server.Config{
		Sessions: svc,
		Streamer: hub,
		Metrics:  promhttp.Handler(),
		Checks:   checks,
	})
	return a, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
