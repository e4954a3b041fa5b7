package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/pintuan-backend/api/middleware"
	"github.com/angelmondragon/pintuan-backend/api/responses"
	"github.com/angelmondragon/pintuan-backend/internal/cron"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

// SchedulerService is the part of cron.Service the management surface uses.
type SchedulerService interface {
	Interval() time.Duration
	Jobs() []string
	LastCycle() *cron.CycleResult
	RunOnce(ctx context.Context) (cron.CycleResult, error)
}

// ReportReader loads the latest tick report, from any instance.
type ReportReader interface {
	Latest(ctx context.Context, job string) (*cron.TickReport, error)
}

type schedulerStatus struct {
	IntervalSeconds float64           `json:"intervalSeconds"`
	Jobs            []string          `json:"jobs"`
	LastCycle       *cron.CycleResult `json:"lastCycle"`
	LastReport      *cron.TickReport  `json:"lastReport"`
}

type runResponse struct {
	Cycle  cron.CycleResult `json:"cycle"`
	Report *cron.TickReport `json:"report"`
}

// SchedulerStatus returns the cadence, registered jobs and the latest
// group closing report.
func SchedulerStatus(svc SchedulerService, reports ReportReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := latestReport(r.Context(), reports)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedulerStatus{
			IntervalSeconds: svc.Interval().Seconds(),
			Jobs:            svc.Jobs(),
			LastCycle:       svc.LastCycle(),
			LastReport:      report,
		})
	}
}

// SchedulerRun executes one cycle now. It shares the scheduler lock, so a
// request that lands while another cycle runs is answered with 409.
func SchedulerRun(svc SchedulerService, reports ReportReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if logg != nil {
			logg.Info(ctx, "manual scheduler run requested")
		}

		// A cycle that finished groups must still deliver their notifications
		// if the operator disconnects; no later tick revisits a finished group.
		cycle, err := svc.RunOnce(context.WithoutCancel(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "run scheduler cycle"))
			return
		}
		if cycle.LockSkipped {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeConflict, "another scheduler cycle is running").
					WithDetails(map[string]string{"operator": middleware.OperatorIDFromContext(ctx)}))
			return
		}

		report, err := latestReport(ctx, reports)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, runResponse{Cycle: cycle, Report: report})
	}
}

func latestReport(ctx context.Context, reports ReportReader) (*cron.TickReport, error) {
	if reports == nil {
		return nil, nil
	}
	report, err := reports.Latest(ctx, cron.GroupClosingJobName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tick report")
	}
	return report, nil
}
