package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pintuan-backend/api/controllers"
	"github.com/angelmondragon/pintuan-backend/api/middleware"
	"github.com/angelmondragon/pintuan-backend/pkg/config"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

// Deps are the collaborators the management surface is built from.
type Deps struct {
	Checks    map[string]controllers.Pinger
	Scheduler controllers.SchedulerService
	Reports   controllers.ReportReader
	Refunds   controllers.RefundReviewer
	Shipments controllers.ShipmentRecorder
	Gatherer  prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Get("/healthz", controllers.Healthz(cfg, logg, deps.Checks))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if deps.Scheduler != nil {
		r.Route("/admin/scheduler", func(r chi.Router) {
			r.Use(middleware.OperatorAuth(cfg.JWT, logg))
			r.Get("/", controllers.SchedulerStatus(deps.Scheduler, deps.Reports, logg))
			r.With(middleware.RequireWrite(logg)).Post("/run", controllers.SchedulerRun(deps.Scheduler, deps.Reports, logg))
		})
	}

	if deps.Refunds != nil {
		r.Route("/admin/orders/{orderID}/refund", func(r chi.Router) {
			r.Use(middleware.OperatorAuth(cfg.JWT, logg), middleware.RequireWrite(logg))
			r.Post("/approve", controllers.ApproveRefund(deps.Refunds, logg))
			r.Post("/reject", controllers.RejectRefund(deps.Refunds, logg))
		})
	}

	if deps.Shipments != nil {
		r.With(middleware.OperatorAuth(cfg.JWT, logg), middleware.RequireWrite(logg)).
			Post("/admin/orders/{orderID}/ship", controllers.MarkShipped(deps.Shipments, logg))
	}

	return r
}
