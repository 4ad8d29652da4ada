package sog

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting export metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see observability.PrometheusCollector).
type MetricsCollector interface {
	// RecordStage is called after each export stage.
	// duration is the time taken, err is nil if successful.
	RecordStage(stage Stage, duration time.Duration, err error)

	// RecordExport is called after each export.
	// count is the number of exported rows, bytes the archive size.
	RecordExport(count int, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordStage(Stage, time.Duration, error)       {}
func (NoopMetricsCollector) RecordExport(int, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ExportCount      atomic.Int64
	ExportErrors     atomic.Int64
	ExportRows       atomic.Int64
	ExportBytes      atomic.Int64
	ExportTotalNanos atomic.Int64

	stageCount  [numStages]atomic.Int64
	stageErrors [numStages]atomic.Int64
	stageNanos  [numStages]atomic.Int64
}

// RecordStage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage(stage Stage, duration time.Duration, err error) {
	if stage >= numStages {
		return
	}
	b.stageCount[stage].Add(1)
	b.stageNanos[stage].Add(duration.Nanoseconds())
	if err != nil {
		b.stageErrors[stage].Add(1)
	}
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(count int, bytes int64, duration time.Duration, err error) {
	b.ExportCount.Add(1)
	b.ExportTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExportErrors.Add(1)
		return
	}
	b.ExportRows.Add(int64(count))
	b.ExportBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		ExportCount:    b.ExportCount.Load(),
		ExportErrors:   b.ExportErrors.Load(),
		ExportRows:     b.ExportRows.Load(),
		ExportBytes:    b.ExportBytes.Load(),
		ExportAvgNanos: avg(b.ExportTotalNanos.Load(), b.ExportCount.Load()),
		Stages:         make(map[string]StageStats, numStages),
	}
	for i := range numStages {
		count := b.stageCount[i].Load()
		if count == 0 {
			continue
		}
		s.Stages[i.String()] = StageStats{
			Count:    count,
			Errors:   b.stageErrors[i].Load(),
			AvgNanos: avg(b.stageNanos[i].Load(), count),
		}
	}
	return s
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ExportCount    int64
	ExportErrors   int64
	ExportRows     int64
	ExportBytes    int64
	ExportAvgNanos int64

	// Stages is keyed by Stage.String(). Stages that never ran are absent.
	Stages map[string]StageStats
}

// StageStats aggregates one stage.
type StageStats struct {
	Count    int64
	Errors   int64
	AvgNanos int64
}
