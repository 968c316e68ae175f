package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinSignal/internal/handler/ws"
	mid "FinSignal/internal/middleware"
	"FinSignal/internal/usecase"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
)

// Components is everything the App starts and stops. Optional parts are nil
// when disabled in config.
type Components struct {
	Logger     *applogger.Logger
	HTTP       *xhttp.Server
	Hub        *ws.Hub
	Pipeline   *mid.SignalPipeline
	Dispatcher *usecase.SignalDispatcher
	Scanner    *usecase.WatchlistScanner
	Consumer   *pkgkafka.Consumer
	Requests   pkgkafka.MessageHandler
	ClickHouse *pkgch.Client
	Closers    []func() error
	// Maintenance runs every MaintenanceInterval while the app is up.
	Maintenance []func()
}

const MaintenanceInterval = time.Minute

// App encapsulates the application lifecycle.
type App struct {
	cfg *config.Config
	c   Components
	l   *applogger.Logger
}

func New(cfg *config.Config, c Components) *App {
	l := c.Logger
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, c: c, l: l}
}

// Start launches every component in dependency order.
func (a *App) Start(ctx context.Context) error {
	if a.c.Pipeline != nil {
		a.c.Pipeline.Start(ctx)
	}

	if a.c.Consumer != nil && a.c.Requests != nil {
		a.c.Consumer.RegisterHandler(a.c.Requests)
		if err := a.c.Consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.c.Requests.Topic()))
	}

	if a.c.Scanner != nil {
		if err := a.c.Scanner.Start(ctx); err != nil {
			return fmt.Errorf("scanner: %w", err)
		}
	}

	if len(a.c.Maintenance) > 0 {
		go a.maintain(ctx)
	}

	if err := a.c.HTTP.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.l.Info("finsignal started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("dispatch", a.cfg.Dispatch.Backend),
		applogger.Int("port", a.cfg.Server.Port),
	)
	return nil
}

// Run starts the app and blocks until SIGINT/SIGTERM or an HTTP listener failure.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		a.l.Error("startup failed", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case s := <-sigCh:
		a.l.Info("shutdown signal received", applogger.String("signal", s.String()))
	case err := <-a.c.HTTP.Errors():
		runErr = err
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer stop()
	return errors.Join(runErr, a.Shutdown(shutdownCtx))
}

// Shutdown stops producers of signals first, then the sinks they feed.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if a.c.HTTP != nil {
		if err := a.c.HTTP.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.c.Scanner != nil {
		a.c.Scanner.Stop()
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.c.Pipeline != nil {
		if n := a.c.Pipeline.Buffered(); n > 0 {
			a.l.Warn("dropping undelivered signals", applogger.Int("count", n))
		}
		a.c.Pipeline.Stop()
	}
	if a.c.Hub != nil {
		a.c.Hub.Close()
	}

	// the log collector publishes through the Kafka producer the dispatcher closes
	a.l.RemoveCollector()
	if a.c.Dispatcher != nil {
		if err := a.c.Dispatcher.Close(); err != nil {
			a.l.Warn("dispatcher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for _, closeFn := range a.c.Closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.c.ClickHouse != nil {
		if err := a.c.ClickHouse.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.l.Info("shutdown complete", applogger.Duration("grace_left", remaining(ctx)))
	return errors.Join(errs...)
}

func (a *App) maintain(ctx context.Context) {
	t := time.NewTicker(MaintenanceInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, fn := range a.c.Maintenance {
				fn()
			}
		}
	}
}

func remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		return time.Until(dl)
	}
	return 0
}
