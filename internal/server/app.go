// Package server wires configuration, storage backends, the upload behavior
// and the HTTP API into a runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/remotefiles/internal/cfimages"
	"github.com/dmitrijs2005/remotefiles/internal/delivery"
	"github.com/dmitrijs2005/remotefiles/internal/logging"
	"github.com/dmitrijs2005/remotefiles/internal/metrics"
	"github.com/dmitrijs2005/remotefiles/internal/remote"
	"github.com/dmitrijs2005/remotefiles/internal/server/config"
	"github.com/dmitrijs2005/remotefiles/internal/server/httpapi"
	"github.com/dmitrijs2005/remotefiles/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/remotefiles/internal/server/services"
	"github.com/dmitrijs2005/remotefiles/internal/upload"
)

// App is the assembled photo server.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// NewApp opens the database, applies migrations and wires the storage
// backend, the optional image CDN and the HTTP API from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := buildHandler(ctx, c, db, rm, reg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler:   handler,
		JWTSecret: []byte(c.SecretKey),
		Gatherer:  reg,
		Logger:    logger,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewServer(c.HTTPAddr, router, logger),
	}, nil
}

// buildHandler assembles everything between the database and the router.
func buildHandler(ctx context.Context, c *config.Config, db *sql.DB, rm repomanager.RepositoryManager,
	reg *prometheus.Registry, logger logging.Logger) (*httpapi.Handler, error) {
	mt, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	manager, err := remote.New(ctx, c.RemoteOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("remote storage init error: %w", err)
	}
	manager = remote.Instrument(manager, mt)

	var mirror upload.ImageMirror
	if c.Cloudflare.Enabled() {
		cf, err := cfimages.New(cfimages.Config{
			Token:   c.Cloudflare.Token,
			Account: c.Cloudflare.Account,
			APIURL:  c.Cloudflare.APIURL,
			Timeout: c.Cloudflare.Timeout,
		}, logger, cfimages.WithMetrics(mt))
		if err != nil {
			return nil, fmt.Errorf("cloudflare images init error: %w", err)
		}
		mirror = cf
	}

	uploader, err := upload.New(upload.Options{
		Manager:      manager,
		Mirror:       mirror,
		Fields:       c.Fields,
		GlobalPrefix: c.GlobalPrefix,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	images := c.Cloudflare.Delivery
	resolver := delivery.NewResolver(manager, &images)

	svc, err := services.NewPhotoService(db, rm, uploader, resolver, logger)
	if err != nil {
		return nil, err
	}
	return httpapi.NewHandler(svc, c.MaxUploadMB<<20, logger), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.RemoteStorage)
	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		return err
	}
	return nil
}
