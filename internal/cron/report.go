package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/pintuan-backend/pkg/redis"
)

const defaultReportTTL = 24 * time.Hour

// TickReport summarizes one group closing tick.
type TickReport struct {
	TickAt               time.Time `json:"tickAt"`
	Scanned              int       `json:"scanned"`
	Due                  int       `json:"due"`
	Closed               int       `json:"closed"`
	Skipped              int       `json:"skipped"`
	Failed               int       `json:"failed"`
	Anomalies            int       `json:"anomalies"`
	NotificationsSent    int       `json:"notificationsSent"`
	NotificationFailures int       `json:"notificationFailures"`
	DurationMS           int64     `json:"durationMs"`
}

// ReportStore keeps the latest report per job so the management surface can
// show it regardless of which instance ran the tick.
type ReportStore interface {
	Save(ctx context.Context, job string, report TickReport) error
	Latest(ctx context.Context, job string) (*TickReport, error)
}

// MemoryReportStore is a process-local ReportStore.
type MemoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]TickReport
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{reports: map[string]TickReport{}}
}

func (s *MemoryReportStore) Save(_ context.Context, job string, report TickReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[job] = report
	return nil
}

// Latest returns nil without error when the job has not run yet.
func (s *MemoryReportStore) Latest(_ context.Context, job string) (*TickReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[job]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

type reportRedis interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	ReportKey(job string) string
}

// RedisReportStore shares the latest report between instances.
type RedisReportStore struct {
	client reportRedis
	ttl    time.Duration
}

func NewRedisReportStore(client reportRedis, ttl time.Duration) (*RedisReportStore, error) {
	if client == nil {
		return nil, errors.New("redis client required for report store")
	}
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &RedisReportStore{client: client, ttl: ttl}, nil
}

func (s *RedisReportStore) Save(ctx context.Context, job string, report TickReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.client.Set(ctx, s.client.ReportKey(job), payload, s.ttl); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

func (s *RedisReportStore) Latest(ctx context.Context, job string) (*TickReport, error) {
	raw, err := s.client.Get(ctx, s.client.ReportKey(job))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	var report TickReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
