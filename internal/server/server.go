// Package server assembles the HTTP surface: routes, middleware, and
// graceful shutdown.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matthewbaird/rentroll/internal/audit"
	"github.com/matthewbaird/rentroll/internal/dunning"
	"github.com/matthewbaird/rentroll/internal/event"
	"github.com/matthewbaird/rentroll/internal/handler"
	"github.com/matthewbaird/rentroll/internal/pdf"
	"github.com/matthewbaird/rentroll/internal/store"
)

// Deps carries everything the HTTP layer needs, constructed by main.
type Deps struct {
	Store     store.Store
	Audit     audit.Store
	Recorder  event.Recorder
	Generator *dunning.Generator
	PDF       *pdf.Client
	Log       *zap.Logger
}

// Server wraps the HTTP server with its router.
type Server struct {
	http *http.Server
	log  *zap.Logger
}

// New builds the router and binds it to addr.
func New(addr string, deps Deps) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: deps.Log,
	}
}

// NewRouter assembles the full route tree.
func NewRouter(deps Deps) *chi.Mux {
	charges := handler.NewChargeHandler(deps.Store, deps.Audit, deps.Recorder, deps.Log)
	reminders := handler.NewReminderHandler(deps.Store, deps.Generator, deps.PDF, deps.Recorder, deps.Log)
	templates := handler.NewTemplateHandler(deps.Store, deps.Generator, deps.Recorder, deps.Log)
	preview := handler.NewPreviewHandler(deps.Generator, deps.Log)
	parties := handler.NewPartyHandler(deps.Store, deps.Log)

	r := chi.NewRouter()
	r.Use(handler.Recovery(deps.Log))
	r.Use(handler.Logging(deps.Log))
	r.Use(handler.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/charges", func(r chi.Router) {
			r.Post("/", charges.CreateCharge)
			r.Get("/", charges.ListCharges)
			r.Get("/{id}", charges.GetCharge)
			r.Get("/{id}/activity", charges.GetChargeActivity)
			r.Post("/{id}/payments", charges.AddPayment)
			r.Get("/{id}/payments", charges.ListPayments)
			r.Post("/{id}/reminders", reminders.GenerateReminder)
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/", reminders.ListReminders)
			r.Get("/{id}", reminders.GetReminder)
			r.Get("/{id}/document", reminders.GetReminderDocument)
		})

		r.Post("/dunning-runs", reminders.RunDunning)

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", templates.CreateTemplate)
			r.Get("/", templates.ListTemplates)
			r.Post("/validate", templates.ValidateTemplate)
			r.Post("/preview", templates.PreviewTemplate)
			r.Get("/live", preview.LivePreview)
			r.Get("/{id}", templates.GetTemplate)
			r.Put("/{id}", templates.UpdateTemplate)
			r.Delete("/{id}", templates.DeleteTemplate)
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Put("/{id}", parties.PutTenant)
			r.Get("/{id}", parties.GetTenant)
		})
		r.Route("/properties", func(r chi.Router) {
			r.Put("/{id}", parties.PutProperty)
			r.Get("/{id}", parties.GetProperty)
		})
		r.Route("/units", func(r chi.Router) {
			r.Put("/{id}", parties.PutUnit)
			r.Get("/{id}", parties.GetUnit)
		})
		r.Route("/letterhead", func(r chi.Router) {
			r.Put("/client", parties.PutClient)
			r.Get("/client", parties.GetClient)
			r.Put("/owner", parties.PutOwner)
			r.Get("/owner", parties.GetOwner)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info("shutting down http server")
	return s.http.Shutdown(shutdownCtx)
}
