// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/weblithic/site/internal/api"
	"github.com/weblithic/site/internal/blog"
	"github.com/weblithic/site/internal/cache"
	"github.com/weblithic/site/internal/content"
	"github.com/weblithic/site/internal/docstore"
	"github.com/weblithic/site/internal/feed"
	"github.com/weblithic/site/internal/mailer"
	"github.com/weblithic/site/internal/mcpserver"
	"github.com/weblithic/site/internal/sse"
)

var errConfigRequired = errors.New("config is required")

// runtime is the set of components shared by every command.
type runtime struct {
	logger  *slog.Logger
	store   docstore.Store
	rdb     *redis.Client
	manager *blog.Manager
}

func (rt *runtime) close() {
	rt.manager.Wait()
	if rt.rdb != nil {
		_ = rt.rdb.Close()
	}
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("store close failed", slog.String("error", err.Error()))
	}
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// open connects the store and cache and builds the blog manager. notify is
// called after every successful mutation.
func open(ctx context.Context, cfg *Config, logger *slog.Logger, notify blog.NotifierFunc) (*runtime, error) {
	store, err := docstore.Open(ctx, cfg.Store.Driver, cfg.Store.Source())
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt := &runtime{logger: logger, store: store}

	opts := []blog.ManagerOption{
		blog.WithLogger(logger),
		blog.WithTimeout(cfg.Store.Timeout),
	}
	if notify != nil {
		opts = append(opts, blog.WithNotifier(notify))
	}
	if cfg.Cache.Enabled() {
		rt.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err := rt.rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, feed cache will miss", slog.String("error", err.Error()))
		}
		opts = append(opts, blog.WithCache(cache.NewRedis(rt.rdb, cfg.Cache.TTL, logger)))
	}
	rt.manager = blog.NewManager(store, opts...)
	return rt, nil
}

func newImporter(cfg *Config, manager *blog.Manager, logger *slog.Logger) (*content.Importer, error) {
	if err := os.MkdirAll(cfg.Content.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	dir, err := content.NewDir(cfg.Content.Dir)
	if err != nil {
		return nil, err
	}
	return content.NewImporter(dir, manager, logger), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.Bool("cache", cfg.Cache.Enabled()),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if !cfg.Auth.AuthEnabled() {
		logger.Warn("Authentication disabled, post changes are open to anyone")
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := open(ctx, cfg, logger, func(event blog.Event, id string) {
		broker.PublishPostChange(string(event), id)
	})
	if err != nil {
		return err
	}
	defer rt.close()

	var importer *content.Importer
	if cfg.Content.Dir != "" {
		importer, err = newImporter(cfg, rt.manager, logger)
		if err != nil {
			return err
		}
		if _, err := importer.Sync(ctx); err != nil {
			logger.Warn("initial content sync failed", slog.String("error", err.Error()))
		}
	}

	renderer, err := feed.NewRenderer(cfg.Site())
	if err != nil {
		return err
	}

	sender := app.sender
	if sender == nil {
		sender = mailer.NewSMTP(mailer.Config{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			User:      cfg.SMTP.User,
			Password:  cfg.SMTP.Password,
			Recipient: cfg.Contact.Recipient,
		})
	}

	handler := newHandler(cfg, rt, broker, renderer, sender, logger)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// The watcher only stops when its context ends, so shutdown cancels it.
	watchCtx, stopWatch := context.WithCancel(gCtx)
	defer stopWatch()

	// Watch the content directory.
	if importer != nil && cfg.Content.Watch {
		g.Go(func() error {
			if err := content.Watch(watchCtx, importer, cfg.Content.Debounce, logger); err != nil {
				logger.Warn("content watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		stopWatch()

		// SSE streams never finish on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newHandler builds the root router: health checks, the API under /api and
// the blog pages under /blog.
func newHandler(cfg *Config, rt *runtime, broker *sse.Broker, renderer *feed.Renderer, sender mailer.Sender, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.manager.Ping(ctx); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(api.Deps{
		Manager: rt.manager,
		Auth: api.AuthConfig{
			Mode:   cfg.Auth.Mode,
			Token:  cfg.Auth.Token,
			Secret: cfg.Auth.Secret,
		},
		Mailer:       sender,
		ClientConfig: cfg.Client,
		Events:       broker,
		Logger:       logger,
	}))

	r.Mount("/blog", api.NewPageHandler(rt.manager, renderer, cfg.Feed.Fallback(), logger).Routes())

	return r
}

// ServeMCP runs the MCP server on stdio. Logs go to stderr so stdout stays
// reserved for the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)
	slog.SetDefault(logger)

	rt, err := open(ctx, app.config, logger, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	return mcpserver.New(rt.manager, app.version).ServeStdio()
}

// Import performs a one-shot sync of the content directory into the store.
func Import(ctx context.Context, opts ...Option) (content.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return content.Report{}, err
	}
	cfg := app.config
	if cfg.Content.Dir == "" {
		return content.Report{}, errors.New("content.dir is not configured")
	}
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	rt, err := open(ctx, cfg, logger, nil)
	if err != nil {
		return content.Report{}, err
	}
	defer rt.close()

	importer, err := newImporter(cfg, rt.manager, logger)
	if err != nil {
		return content.Report{}, err
	}
	return importer.Sync(ctx)
}
