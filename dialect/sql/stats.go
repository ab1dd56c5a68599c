package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// recorder records statement statistics and, in debug mode, logs every
// statement. It is shared by all executors of a DB.
type recorder struct {
	stats *QueryStats
	debug bool
	log   *slog.Logger

	slowHook SlowQueryHook

	mu            sync.RWMutex
	slowThreshold time.Duration
}

func newRecorder(cfg Config) *recorder {
	return &recorder{
		stats:         &QueryStats{},
		debug:         cfg.Debug,
		log:           cfg.Logger,
		slowThreshold: cfg.SlowThreshold,
		slowHook:      cfg.SlowHook,
	}
}

func (r *recorder) threshold() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slowThreshold
}

func (r *recorder) setThreshold(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slowThreshold = d
}

func (r *recorder) record(ctx context.Context, query string, args []any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		r.stats.TotalQueries.Add(1)
	} else {
		r.stats.TotalExecs.Add(1)
	}
	r.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		r.stats.Errors.Add(1)
	}
	if r.debug {
		kind := "exec"
		if isQuery {
			kind = "query"
		}
		r.log.InfoContext(ctx, kind, "query", query, "args", args, "duration", duration, "error", err)
	}

	if duration > r.threshold() {
		r.stats.SlowQueries.Add(1)
		if r.slowHook != nil {
			r.slowHook(ctx, query, args, duration)
		}
	}
}
