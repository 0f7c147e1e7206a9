package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roksva123/kinerja-planner/internal/cache"
	"github.com/roksva123/kinerja-planner/internal/capacity"
	"github.com/roksva123/kinerja-planner/internal/metrics"
	"github.com/roksva123/kinerja-planner/internal/model"
	"github.com/roksva123/kinerja-planner/internal/workload"
)

const keyPrefix = "workload:"

// WorkloadService serves the read side: snapshots, analysis and capacity,
// memoized in a cache that TaskService invalidates on every write.
type WorkloadService struct {
	agg     *workload.Aggregator
	calc    *capacity.Calculator
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewWorkloadService(agg *workload.Aggregator, calc *capacity.Calculator, c cache.Cache, ttl time.Duration, m *metrics.Metrics, log zerolog.Logger) *WorkloadService {
	if c == nil {
		c = cache.Nop{}
	}
	return &WorkloadService{
		agg:     agg,
		calc:    calc,
		cache:   c,
		ttl:     ttl,
		metrics: m,
		log:     log.With().Str("component", "workload_service").Logger(),
	}
}

func (s *WorkloadService) GetWorkload(ctx context.Context, department string, start, end *time.Time) (model.WorkloadSnapshot, error) {
	from, to := s.calc.Window(start, end)
	key := fmt.Sprintf("%s%s:snapshot:%s:%s", keyPrefix, deptKey(department), from.Format(model.DateLayout), to.Format(model.DateLayout))

	var snap model.WorkloadSnapshot
	if s.lookup(ctx, key, &snap) {
		return snap, nil
	}

	began := time.Now()
	snap, err := s.agg.GetWorkload(ctx, department, &from, &to)
	if err != nil {
		return model.WorkloadSnapshot{}, err
	}
	s.metrics.ObserveAggregation(time.Since(began))
	s.store(ctx, key, snap)
	return snap, nil
}

func (s *WorkloadService) GetCapacityAnalysis(ctx context.Context, department string, start, end *time.Time) (model.CapacityAnalysis, error) {
	snap, err := s.GetWorkload(ctx, department, start, end)
	if err != nil {
		return model.CapacityAnalysis{}, err
	}
	return workload.Analyze(snap), nil
}

func (s *WorkloadService) TaskStats(ctx context.Context, department string) model.TaskStats {
	key := fmt.Sprintf("%s%s:stats:%s", keyPrefix, deptKey(department), s.calc.Today().Format(model.DateLayout))
	var stats model.TaskStats
	if s.lookup(ctx, key, &stats) {
		return stats
	}
	stats = s.agg.TaskStats(ctx, department)
	s.store(ctx, key, stats)
	return stats
}

func (s *WorkloadService) EmployeeCapacity(ctx context.Context, employeeID string, start, end *time.Time) (model.CapacityResult, error) {
	return s.calc.Calculate(ctx, employeeID, start, end)
}

func (s *WorkloadService) DailyCapacity(ctx context.Context, employeeID string, start, end *time.Time) ([]model.CapacityRecord, error) {
	return s.calc.DailyRecords(ctx, employeeID, start, end)
}

func (s *WorkloadService) CheckCapacity(ctx context.Context, employeeID string, start, end *time.Time, additional float64) (model.CapacityCheck, error) {
	return s.calc.Check(ctx, employeeID, start, end, additional, s.agg.Thresholds().Overallocated)
}

// Invalidate drops every cached view of the given departments along with
// the cross-department views.
func (s *WorkloadService) Invalidate(ctx context.Context, departments ...string) {
	prefixes := []string{keyPrefix + deptKey("") + ":"}
	for _, d := range dedupe(departments) {
		prefixes = append(prefixes, keyPrefix+deptKey(d)+":")
	}
	for _, p := range dedupe(prefixes) {
		if err := s.cache.InvalidatePrefix(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("prefix", p).Msg("cache invalidation failed")
		}
	}
}

func (s *WorkloadService) lookup(ctx context.Context, key string, v interface{}) bool {
	err := s.cache.Get(ctx, key, v)
	switch {
	case err == nil:
		s.metrics.CacheLookup("hit")
		return true
	case errors.Is(err, cache.ErrMiss):
		s.metrics.CacheLookup("miss")
	default:
		s.metrics.CacheLookup("error")
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	return false
}

func (s *WorkloadService) store(ctx context.Context, key string, v interface{}) {
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func deptKey(department string) string {
	if department == "" {
		return "all"
	}
	return department
}
