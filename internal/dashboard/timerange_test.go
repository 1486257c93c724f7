package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/kanbanpulse/internal/timeutil"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestResolvePresetWindows(t *testing.T) {
	tests := []struct {
		preset Preset
		window time.Duration
	}{
		{PresetLast24h, 24 * time.Hour},
		{PresetLast7d, 7 * 24 * time.Hour},
		{PresetLast30d, 30 * 24 * time.Hour},
		{PresetLast90d, 90 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			r := ResolveTimeRange(&TimeRange{Preset: tt.preset}, testNow)

			assert.Equal(t, tt.preset, r.Preset)
			assert.Equal(t, timeutil.Format(testNow), r.To)
			assert.Equal(t,
				timeutil.Format(testNow.Add(-tt.window)), r.From)
		})
	}
}

func TestResolveAllTime(t *testing.T) {
	r := ResolveTimeRange(&TimeRange{Preset: PresetAllTime}, testNow)

	assert.Equal(t, PresetAllTime, r.Preset)
	assert.Empty(t, r.From, "all_time leaves the start unbounded")
	assert.Equal(t, timeutil.Format(testNow), r.To)

	b := ResolveBounds(r)
	assert.Nil(t, b.From)
	require.NotNil(t, b.To)
	assert.True(t, b.To.Equal(testNow))
}

func TestResolveNilInputUsesDefaultPreset(t *testing.T) {
	r := ResolveTimeRange(nil, testNow)

	assert.Equal(t, DefaultPreset, r.Preset)
	assert.Equal(t, timeutil.Format(testNow), r.To)
	assert.Equal(t,
		timeutil.Format(testNow.Add(-7*24*time.Hour)), r.From)
}

func TestResolveCustomBoundsPassthrough(t *testing.T) {
	in := &TimeRange{
		From: "2025-01-01T00:00:00Z",
		To:   "2025-02-01T00:00:00Z",
	}
	r := ResolveTimeRange(in, testNow)

	assert.Equal(t, in.From, r.From)
	assert.Equal(t, in.To, r.To)
	assert.Empty(t, r.Preset)
}

func TestResolveCustomBoundsKeepPresetLabel(t *testing.T) {
	in := &TimeRange{
		Preset: PresetLast30d,
		From:   "2025-01-01T00:00:00Z",
		To:     "2025-02-01T00:00:00Z",
	}
	r := ResolveTimeRange(in, testNow)

	// The label rides along; no windowing is applied.
	assert.Equal(t, PresetLast30d, r.Preset)
	assert.Equal(t, in.From, r.From)
	assert.Equal(t, in.To, r.To)
}

func TestResolveMalformedBoundsFallBack(t *testing.T) {
	defaultRange := ResolveTimeRange(nil, testNow)

	tests := []struct {
		name string
		in   *TimeRange
	}{
		{"garbage from", &TimeRange{From: "not-a-date", To: "2025-02-01T00:00:00Z"}},
		{"garbage to", &TimeRange{From: "2025-01-01T00:00:00Z", To: "nope"}},
		{"only from", &TimeRange{From: "2025-01-01T00:00:00Z"}},
		{"only to", &TimeRange{To: "2025-02-01T00:00:00Z"}},
		{"garbage from only", &TimeRange{From: "not-a-date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Both custom bounds are discarded together: never
			// apply one side and fall back on the other.
			r := ResolveTimeRange(tt.in, testNow)
			assert.Equal(t, defaultRange, r)
		})
	}
}

func TestResolveUnknownPresetFallsBack(t *testing.T) {
	r := ResolveTimeRange(&TimeRange{Preset: "last_neednt"}, testNow)
	assert.Equal(t, DefaultPreset, r.Preset)
}

func TestResolveBoundsIndependentSides(t *testing.T) {
	b := ResolveBounds(TimeRange{
		From: "bogus",
		To:   "2025-02-01T00:00:00Z",
	})

	assert.Nil(t, b.From, "bad side becomes unbounded")
	require.NotNil(t, b.To, "good side survives")
	assert.Equal(t,
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), b.To.UTC())
}

func TestBoundsStrings(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := Bounds{From: &from}

	fromStr, toStr := b.Strings()
	require.NotNil(t, fromStr)
	assert.Equal(t, "2025-01-01T00:00:00Z", *fromStr)
	assert.Nil(t, toStr)
}
