package dashboard

import (
	"time"

	"github.com/wesm/kanbanpulse/internal/db"
	"github.com/wesm/kanbanpulse/internal/timeutil"
)

// Keys of the metric series exposed in Metrics.ByKey.
const (
	MetricProjectsTotal     = "projectsTotal"
	MetricActiveAttempts    = "activeAttempts"
	MetricAttemptsCompleted = "attemptsCompleted"
	MetricOpenCards         = "openCards"
)

// MetricPoint is one sampled value of a metric series.
type MetricPoint struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// MetricSeries is a keyed metric: a total plus its data points.
// Each snapshot carries a single point; the series shape leaves
// room for time-bucketed history later.
type MetricSeries struct {
	Total  float64       `json:"total"`
	Points []MetricPoint `json:"points"`
}

// Metrics holds the headline counters of the dashboard, both as
// keyed series and as flat convenience fields.
type Metrics struct {
	ByKey map[string]MetricSeries `json:"byKey"`

	ActiveAttempts  int `json:"activeAttempts"`
	AttemptsInRange int `json:"attemptsInRange"`
	// SuccessRateInRange is succeeded/created over the in-range
	// attempts, 0 when there are none. Note the contrast with the
	// per-agent rate, which is null on an empty sample.
	SuccessRateInRange   float64 `json:"successRateInRange"`
	ProjectsWithActivity int     `json:"projectsWithActivity"`
	ReviewItemsCount     int     `json:"reviewItemsCount"`
}

// BuildMetrics derives the headline metrics from the unscoped
// counters and the range-scoped attempt aggregates.
func BuildMetrics(
	counts db.OverviewCounts,
	rangeStats db.AttemptRangeStats,
	reviewItems int,
	now time.Time,
) Metrics {
	m := Metrics{
		ByKey: map[string]MetricSeries{
			MetricProjectsTotal:     singlePoint(counts.Boards, now),
			MetricActiveAttempts:    singlePoint(counts.ActiveAttempts, now),
			MetricAttemptsCompleted: singlePoint(rangeStats.Completed, now),
			MetricOpenCards:         singlePoint(counts.OpenCards, now),
		},
		ActiveAttempts:       counts.ActiveAttempts,
		AttemptsInRange:      rangeStats.Created,
		ProjectsWithActivity: rangeStats.ActiveBoards,
		ReviewItemsCount:     reviewItems,
	}
	if rangeStats.Created > 0 {
		m.SuccessRateInRange = float64(rangeStats.Succeeded) /
			float64(rangeStats.Created)
	}
	return m
}

func singlePoint(total int, now time.Time) MetricSeries {
	v := float64(total)
	return MetricSeries{
		Total: v,
		Points: []MetricPoint{
			{Timestamp: timeutil.Format(now), Value: v},
		},
	}
}
