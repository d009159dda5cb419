package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Asclepia-Market/Procure/internal/allocator"
	"github.com/Asclepia-Market/Procure/internal/config"
	"github.com/Asclepia-Market/Procure/internal/notify"
	"github.com/Asclepia-Market/Procure/internal/parser"
	"github.com/Asclepia-Market/Procure/internal/scoring"
	"github.com/Asclepia-Market/Procure/internal/store"
	"github.com/Asclepia-Market/Procure/internal/watch"
)

func NewRouter(s store.Store, n notify.Client, p parser.Client, alloc *allocator.Allocator, sc *scoring.Scorer, wt *watch.Watcher, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMinute))

	rfqs := NewRFQsHandler(s, n)
	items := NewLineItemsHandler(s, p)
	envelopes := NewEnvelopesHandler(s, alloc, n)
	quotations := NewQuotationsHandler(s, n, wt)
	evaluation := NewEvaluationHandler(s, sc)
	award := NewAwardHandler(s, n, cfg)
	exports := NewExportHandler(s, sc)
	admin := NewAdminHandler(s)

	// Ingestion contract used by the document parsing pipeline.
	r.Post("/rfq/line-items", items.Create)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ActorIDMiddleware)

		r.Post("/rfqs", rfqs.Create)
		r.Get("/rfqs", rfqs.List)
		r.Get("/rfqs/{id}", rfqs.Get)
		r.Post("/rfqs/{id}/publish", rfqs.Publish)
		r.Post("/rfqs/{id}/close", rfqs.Close)
		r.Post("/rfqs/{id}/reject-all", rfqs.RejectAll)

		r.Get("/rfqs/{id}/line-items", items.List)
		r.Post("/rfqs/{id}/line-items", items.Add)

		r.Get("/rfqs/{id}/candidates", envelopes.Candidates)
		r.Post("/rfqs/{id}/envelopes", envelopes.Allocate)
		r.Get("/rfqs/{id}/envelopes", envelopes.List)
		r.Get("/rfqs/{id}/vendors/{vendor_id}/envelopes", envelopes.VendorList)
		r.Post("/envelopes/{id}/status", envelopes.UpdateStatus)

		r.Post("/rfqs/{id}/quotations", quotations.Submit)
		r.Get("/rfqs/{id}/quotations", quotations.List)
		r.Get("/quotations/{id}", quotations.Get)

		r.Get("/rfqs/{id}/evaluation", evaluation.Evaluate)
		r.Post("/rfqs/{id}/award", award.Award)

		r.Get("/rfqs/{id}/export/comparison", exports.Comparison)
		r.Get("/rfqs/{id}/export/purchase-order", exports.PurchaseOrder)

		r.Post("/imports", items.Import)
		r.Post("/imports/inline", items.Ingest)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
			r.Get("/stats", admin.Stats)
			r.Get("/rfqs/overdue", admin.Overdue)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
