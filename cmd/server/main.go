// Command server runs the rentroll HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/audit"
	"github.com/matthewbaird/rentroll/internal/config"
	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/event"
	"github.com/matthewbaird/rentroll/internal/eventbus"
	"github.com/matthewbaird/rentroll/internal/logger"
	"github.com/matthewbaird/rentroll/internal/pdf"
	"github.com/matthewbaird/rentroll/internal/server"
	"github.com/matthewbaird/rentroll/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.OpenSQLite(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	auditStore, err := audit.NewSQLiteStore(ctx, st.DB())
	if err != nil {
		return err
	}

	bus := eventbus.New(256, log)
	bus.Subscribe("event-log", eventbus.HandlerFunc(func(_ context.Context, evt event.DomainEvent) error {
		log.Info("domain event",
			zap.String("event_type", evt.EventType),
			zap.String("event_id", evt.ID),
			zap.String("summary", evt.Summary))
		return nil
	}))
	bus.Start(ctx)

	recorder := event.NewAuditRecorder(auditStore)
	recorder.SetPublisher(bus)

	generator := dunning.NewGenerator(cfg.Policy(), cfg.RenderMode(), time.Now)
	pdfClient := pdf.NewClient(cfg.PDF.ServiceURL, time.Duration(cfg.PDF.TimeoutSeconds)*time.Second)

	srv := server.New(cfg.Addr(), server.Deps{
		Store:     st,
		Audit:     auditStore,
		Recorder:  recorder,
		Generator: generator,
		PDF:       pdfClient,
		Log:       log,
	})

	err = srv.Run(ctx)
	stop()
	bus.Wait()
	return err
}
