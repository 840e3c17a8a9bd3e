package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/chatmark/internal/config"
	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/events"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver"
	"github.com/MrSnakeDoc/chatmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/scheduler"
	"github.com/MrSnakeDoc/chatmark/internal/service"
	"github.com/MrSnakeDoc/chatmark/internal/store"
	"github.com/MrSnakeDoc/chatmark/internal/utils"
	"github.com/MrSnakeDoc/chatmark/internal/version"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	backend    store.Backend
	dispatcher *events.Dispatcher
	debouncer  *events.Debouncer
	auditor    *scheduler.OrphanAuditor
	gc         *scheduler.GarbageCollector
}

// New wires the backend, the service and the HTTP server from cfg.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	if cfg.LogLevel == "debug" {
		loggerClient.Debugf("cfg: %+v", cfg.Redacted())
	}

	loggerClient.Info("opening storage backend", logger.String("backend", cfg.Backend))
	backend, err := OpenBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("storage backend initialized successfully")

	dispatcher := events.NewDispatcher()
	var publisher events.Publisher = dispatcher
	var debouncer *events.Debouncer
	if cfg.DebounceWindow > 0 {
		debouncer = events.NewDebouncer(dispatcher, cfg.DebounceWindow)
		publisher = debouncer
	}

	svc, err := service.New(service.Config{
		Repository: backend,
		Sessions:   backend,
		Settings:   backend,
		IDProvider: domain.NewUUIDProvider(),
		Events:     publisher,
		Clock:      time.Now,
		Logger:     loggerClient.With(logger.String("component", "service")),
	})
	if err != nil {
		utils.CloseLogged(backend, loggerClient, "storage backend")
		return nil, fmt.Errorf("failed to build service: %w", err)
	}

	var auditor *scheduler.OrphanAuditor
	var auditTrigger func() bool
	if cfg.AuditInterval > 0 {
		auditor = scheduler.NewOrphanAuditor(svc, loggerClient.With(logger.String("component", "auditor")), cfg.AuditInterval)
		auditTrigger = auditor.Trigger
	} else {
		loggerClient.Info("orphan audit disabled")
	}

	var gc *scheduler.GarbageCollector
	if cfg.GCInterval > 0 {
		gc = scheduler.NewGarbageCollector(svc, loggerClient.With(logger.String("component", "gc")), cfg.GCInterval, cfg.GCThreshold)
	}

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		Service:        svc,
		Events:         dispatcher,
		Store:          backend,
		Backend:        cfg.Backend,
		RequestTimeout: cfg.RequestTimeout,
		Heartbeat:      cfg.Heartbeat,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AuditTrigger:   auditTrigger,
	}

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		server:     httpserver.New(cfg, loggerClient, d),
		backend:    backend,
		dispatcher: dispatcher,
		debouncer:  debouncer,
		auditor:    auditor,
		gc:         gc,
	}, nil
}

// Run serves until SIGINT/SIGTERM or a server error, then shuts down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting chatmark %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.auditor != nil {
		if err := a.auditor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start orphan auditor: %w", err)
		}
		a.logger.Info("orphan auditor started",
			logger.Duration("interval", a.cfg.AuditInterval))
	}

	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start garbage collector: %w", err)
		}
		a.logger.Info("garbage collector started",
			logger.Duration("interval", a.cfg.GCInterval),
			logger.Duration("threshold", a.cfg.GCThreshold))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.auditor != nil {
		a.auditor.Stop()
	}
	if a.gc != nil {
		a.gc.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Pending notifications go out before the backend closes.
	if a.debouncer != nil {
		a.debouncer.Close()
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Warnf("failed to close %s backend: %v", a.cfg.Backend, err)
	} else {
		a.logger.Info("storage backend closed cleanly")
	}

	if runErr == nil {
		a.logger.Info("chatmark stopped cleanly")
	}
	return runErr
}
