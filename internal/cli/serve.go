package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gtrackerpro/unitconverter/internal/config"
	"github.com/gtrackerpro/unitconverter/internal/history"
	"github.com/gtrackerpro/unitconverter/internal/httpapi"
	"github.com/gtrackerpro/unitconverter/internal/manager"
)

const shutdownTimeout = 10 * time.Second

// fnServe is swapped in tests.
var fnServe = runServe

// runServe opens the history store, starts the workers and serves HTTP
// until ctx is canceled. Shutdown order: HTTP, workers, history queue.
func runServe(ctx context.Context, cfg config.Config, opts *Options) error {
	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, opts.Stderr)
	if err != nil {
		return err
	}

	store, err := history.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	rec := history.NewRecorder(store, 0, &log)

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Workers:        workerFactories(cfg),
		RequestTimeout: cfg.RequestTimeout(),
		RestartDelay:   cfg.RestartDelay(),
		StopGrace:      cfg.StopGrace(),
		Logger:         &log,
		Publisher:      logPublisher{log: log},
		Recorder:       rec,
		History:        store,
	})
	if err := mgr.Start(); err != nil {
		log.Warn().Err(err).Msg("some workers failed to launch; they will be retried")
	}

	httpapi.SetLogger(log)
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	settings := httpapi.Settings{
		MaxBodyBytes: cfg.MaxBodyBytes,
		HistoryLimit: cfg.HistoryLimit,
		BaseContext:  baseCtx,
	}
	if cfg.CORS.Enabled {
		settings.CORS = httpapi.CORSOptions(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders)
	}
	httpapi.Configure(settings)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = mgr.StopAll(context.Background())
		_ = rec.Close(context.Background())
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	srv := &http.Server{Handler: httpapi.NewMux(mgr), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Str("db", cfg.DBPath).Int("workers", len(workerFactories(cfg))).Msg("unitconverter listening")

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	// Handlers not yet dispatched to a worker fail fast once the base
	// context ends. Calls already written still run to a reply, the
	// request timeout or a worker exit, and Shutdown waits for them.
	cancelBase()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	if err := mgr.StopAll(sctx); err != nil {
		log.Error().Err(err).Msg("worker stop error")
	}
	if err := rec.Close(sctx); err != nil {
		log.Error().Err(err).Msg("history drain error")
	}
	return serveErr
}
