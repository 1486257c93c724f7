package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/kanbanpulse/internal/db"
	"github.com/wesm/kanbanpulse/internal/timeutil"
)

func TestBuildMetrics(t *testing.T) {
	counts := db.OverviewCounts{
		Boards:         4,
		ActiveAttempts: 2,
		OpenCards:      17,
	}
	rangeStats := db.AttemptRangeStats{
		Created:      8,
		Succeeded:    6,
		Completed:    5,
		ActiveBoards: 3,
	}

	m := BuildMetrics(counts, rangeStats, 2, testNow)

	assert.Equal(t, 2, m.ActiveAttempts)
	assert.Equal(t, 8, m.AttemptsInRange)
	assert.Equal(t, 0.75, m.SuccessRateInRange)
	assert.Equal(t, 3, m.ProjectsWithActivity)
	assert.Equal(t, 2, m.ReviewItemsCount)

	wantSeries := map[string]float64{
		MetricProjectsTotal:     4,
		MetricActiveAttempts:    2,
		MetricAttemptsCompleted: 5,
		MetricOpenCards:         17,
	}
	require.Len(t, m.ByKey, len(wantSeries))
	for key, total := range wantSeries {
		series, ok := m.ByKey[key]
		require.True(t, ok, "missing series %s", key)
		assert.Equal(t, total, series.Total, key)
		require.Len(t, series.Points, 1, key)
		assert.Equal(t, total, series.Points[0].Value, key)
		assert.Equal(t,
			timeutil.Format(testNow), series.Points[0].Timestamp, key)
	}
}

func TestBuildMetricsZeroAttempts(t *testing.T) {
	m := BuildMetrics(
		db.OverviewCounts{}, db.AttemptRangeStats{}, 0, testNow,
	)

	// The aggregate rate is 0 on an empty sample, not null. The
	// per-agent rate goes the other way; see agents_test.go.
	assert.Equal(t, float64(0), m.SuccessRateInRange)
	assert.Equal(t, 0, m.AttemptsInRange)
	assert.Equal(t, 0, m.ProjectsWithActivity)
	require.Len(t, m.ByKey, 4)
	for key, series := range m.ByKey {
		assert.Equal(t, float64(0), series.Total, key)
	}
}
