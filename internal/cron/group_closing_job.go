package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pintuan-backend/internal/grouporders"
	"github.com/angelmondragon/pintuan-backend/internal/notifications"
	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
	"github.com/angelmondragon/pintuan-backend/pkg/metrics"
)

const (
	GroupClosingJobName = "group-closing"
	defaultGroupTimeout = 30 * time.Second
)

// Failure stages reported on group_order_failures_total.
const (
	stageMembers = "members"
	stageFinish  = "finish"
	stageTimeout = "timeout"
	stagePanic   = "panic"
)

type groupOrderStore interface {
	ListByStatus(ctx context.Context, status enums.GroupOrderStatus) ([]models.GroupOrder, error)
	ListMembers(ctx context.Context, groupOrderID uuid.UUID) ([]models.IndividualOrder, error)
	FinishIfOpen(ctx context.Context, settled models.GroupOrder) (bool, error)
}

// GroupClosingJobParams configure the group closing job.
type GroupClosingJobParams struct {
	Logger       *logger.Logger
	Repo         groupOrderStore
	Notifier     notifications.Notifier
	Dispatcher   Dispatcher
	Metrics      *metrics.SettlementMetrics
	Reports      ReportStore
	GroupTimeout time.Duration
}

// GroupClosingJob finalizes every open group whose close deadline has passed.
type GroupClosingJob struct {
	logg         *logger.Logger
	repo         groupOrderStore
	notifier     notifications.Notifier
	dispatcher   Dispatcher
	metrics      *metrics.SettlementMetrics
	reports      ReportStore
	groupTimeout time.Duration
	now          func() time.Time

	mu   sync.RWMutex
	last *TickReport
}

// NewGroupClosingJob validates dependencies and builds the job.
func NewGroupClosingJob(params GroupClosingJobParams) (*GroupClosingJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("group order repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	dispatcher := params.Dispatcher
	if dispatcher == nil {
		dispatcher = NewPoolDispatcher(defaultMaxConcurrency)
	}
	reports := params.Reports
	if reports == nil {
		reports = NewMemoryReportStore()
	}
	timeout := params.GroupTimeout
	if timeout <= 0 {
		timeout = defaultGroupTimeout
	}
	return &GroupClosingJob{
		logg:         params.Logger,
		repo:         params.Repo,
		notifier:     params.Notifier,
		dispatcher:   dispatcher,
		metrics:      params.Metrics,
		reports:      reports,
		groupTimeout: timeout,
		now:          time.Now,
	}, nil
}

func (j *GroupClosingJob) Name() string { return GroupClosingJobName }

// Run performs one tick. Only a failure to fetch open groups is returned;
// per-group failures are logged, counted and reported.
func (j *GroupClosingJob) Run(ctx context.Context) error {
	_, err := j.Tick(ctx)
	return err
}

// Tick performs one closing pass and returns its report.
func (j *GroupClosingJob) Tick(ctx context.Context) (TickReport, error) {
	started := time.Now()
	now := j.now().UTC()
	report := TickReport{TickAt: now}

	open, err := j.repo.ListByStatus(ctx, enums.GroupOrderStatusOpen)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open group orders")
	}
	report.Scanned = len(open)

	due := grouporders.DueForClosing(open, now)
	report.Due = len(due)

	outcomes := make([]groupOutcome, len(due))
	units := make([]func(context.Context), len(due))
	for i, group := range due {
		units[i] = func(ctx context.Context) {
			outcomes[i] = j.closeGroup(ctx, group, now)
		}
	}
	j.dispatcher.Dispatch(ctx, units)

	for _, outcome := range outcomes {
		switch outcome.result {
		case resultClosed:
			report.Closed++
		case resultSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		report.Anomalies += outcome.anomalies
		report.NotificationsSent += outcome.sent
		report.NotificationFailures += outcome.notifyFailures
	}
	report.DurationMS = time.Since(started).Milliseconds()

	j.remember(ctx, report)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"scanned":               report.Scanned,
		"due":                   report.Due,
		"closed":                report.Closed,
		"skipped":               report.Skipped,
		"failed":                report.Failed,
		"anomalies":             report.Anomalies,
		"notifications_sent":    report.NotificationsSent,
		"notification_failures": report.NotificationFailures,
	}), "group closing tick complete")
	return report, nil
}

// LastReport returns the most recent report produced by this process.
func (j *GroupClosingJob) LastReport() *TickReport {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.last == nil {
		return nil
	}
	report := *j.last
	return &report
}

func (j *GroupClosingJob) remember(ctx context.Context, report TickReport) {
	j.mu.Lock()
	j.last = &report
	j.mu.Unlock()
	if err := j.reports.Save(ctx, j.Name(), report); err != nil {
		j.logg.Warn(ctx, fmt.Sprintf("failed to store tick report: %v", err))
	}
}

type groupResult int

const (
	resultFailed groupResult = iota
	resultClosed
	resultSkipped
)

type groupOutcome struct {
	result         groupResult
	anomalies      int
	sent           int
	notifyFailures int
}

// closeGroup runs the isolated pipeline for one group: members, settle,
// guarded finish, then notifications.
func (j *GroupClosingJob) closeGroup(parent context.Context, group models.GroupOrder, now time.Time) (outcome groupOutcome) {
	ctx, cancel := context.WithTimeout(parent, j.groupTimeout)
	defer cancel()
	ctx = j.logg.WithGroupOrderID(ctx, group.ID.String())

	// A panic before the guarded finish leaves outcome.result at resultFailed.
	// Notifier panics are recovered per member in notifyMember.
	defer func() {
		if r := recover(); r != nil {
			j.logg.Error(ctx, "group closing panicked", fmt.Errorf("panic: %v", r))
			if outcome.result == resultFailed {
				j.metrics.IncFailure(stagePanic)
			}
		}
	}()

	members, err := j.repo.ListMembers(ctx, group.ID)
	if err != nil {
		j.fail(ctx, stageMembers, "list group members failed", err)
		return groupOutcome{result: resultFailed}
	}

	settlement := grouporders.Settle(group, members, now)
	outcome.anomalies = len(settlement.Anomalies)
	for _, anomaly := range settlement.Anomalies {
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"individual_order_id": anomaly.IndividualOrderID.String(),
			"user_id":             anomaly.UserID.String(),
			"reason":              anomaly.Reason,
		}), "member excluded from settlement")
	}
	j.metrics.AddAnomalies(grouporders.AnomalyUnpaid, outcome.anomalies)

	applied, err := j.repo.FinishIfOpen(ctx, settlement.Group)
	if err != nil {
		j.fail(ctx, stageFinish, "finish group order failed", err)
		outcome.result = resultFailed
		return outcome
	}
	if !applied {
		j.logg.Info(ctx, "group order already settled; skipping")
		j.metrics.IncSkipped()
		outcome.result = resultSkipped
		return outcome
	}
	outcome.result = resultClosed
	j.metrics.IncClosed()

	for _, task := range settlement.Notifications {
		if err := j.notifyMember(ctx, task); err != nil {
			outcome.notifyFailures++
			j.metrics.IncNotificationFailure(string(task.Kind))
			j.logg.Error(j.logg.WithFields(ctx, map[string]any{
				"individual_order_id": task.IndividualOrderID.String(),
				"user_id":             task.UserID.String(),
			}), "notify member failed", err)
			continue
		}
		outcome.sent++
		j.metrics.IncNotificationSent(string(task.Kind))
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"settled_total": settlement.Group.SettledTotal.StringFixed(2),
		"member_count":  settlement.MemberCount,
		"notified":      outcome.sent,
	}), "group order closed")
	return outcome
}

// notifyMember delivers one task. A panicking notifier fails that member's
// delivery only.
func (j *GroupClosingJob) notifyMember(ctx context.Context, task notifications.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return j.notifier.Notify(ctx, task)
}

func (j *GroupClosingJob) fail(ctx context.Context, stage, msg string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		stage = stageTimeout
	}
	j.metrics.IncFailure(stage)
	j.logg.Error(j.logg.WithField(ctx, "stage", stage), msg, err)
}
