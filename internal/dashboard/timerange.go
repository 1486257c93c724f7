// Package dashboard computes one consistent, fully-populated
// dashboard snapshot per call: headline metrics, per-board
// snapshots, per-agent stats, and a triage inbox, overlaid with
// durable read state. All computation is pure; rows come in
// through the Store boundary.
package dashboard

import (
	"time"

	"github.com/wesm/kanbanpulse/internal/timeutil"
)

// Preset is a named relative time window.
type Preset string

const (
	PresetLast24h Preset = "last_24h"
	PresetLast7d  Preset = "last_7d"
	PresetLast30d Preset = "last_30d"
	PresetLast90d Preset = "last_90d"
	PresetAllTime Preset = "all_time"

	// DefaultPreset is the window used when the request carries
	// no usable preset or bounds.
	DefaultPreset = PresetLast7d
)

// presetWindows maps bounded presets to their lookback size.
// all_time is absent: it leaves the start unbounded.
var presetWindows = map[Preset]time.Duration{
	PresetLast24h: 24 * time.Hour,
	PresetLast7d:  7 * 24 * time.Hour,
	PresetLast30d: 30 * 24 * time.Hour,
	PresetLast90d: 90 * 24 * time.Hour,
}

// TimeRange is a loose time-range request: a preset, explicit
// RFC3339 bounds, or both. Resolve turns it into a concrete,
// always-usable range.
type TimeRange struct {
	Preset Preset `json:"preset,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// Bounds are concrete resolved instants. A nil side is unbounded.
type Bounds struct {
	From *time.Time
	To   *time.Time
}

// Strings returns the bounds as nullable RFC3339 strings in the
// shape the storage queries take.
func (b Bounds) Strings() (from, to *string) {
	if b.From != nil {
		from = timeutil.Ptr(*b.From)
	}
	if b.To != nil {
		to = timeutil.Ptr(*b.To)
	}
	return from, to
}

// ResolveTimeRange turns a loose request into a concrete range.
//
// When both custom bounds are supplied and parse, they are
// returned verbatim (any preset label carried through unchanged).
// In every other case, including a single-sided or malformed
// custom range, both custom bounds are discarded and a preset
// window ending at now is computed instead. Malformed input is
// never an error; the dashboard must always be renderable.
func ResolveTimeRange(in *TimeRange, now time.Time) TimeRange {
	if in != nil && in.From != "" && in.To != "" {
		_, fromOK := timeutil.Parse(in.From)
		_, toOK := timeutil.Parse(in.To)
		if fromOK && toOK {
			return TimeRange{
				Preset: in.Preset,
				From:   in.From,
				To:     in.To,
			}
		}
	}

	preset := DefaultPreset
	if in != nil && in.Preset != "" {
		if _, ok := presetWindows[in.Preset]; ok || in.Preset == PresetAllTime {
			preset = in.Preset
		}
	}

	r := TimeRange{Preset: preset, To: timeutil.Format(now)}
	if window, ok := presetWindows[preset]; ok {
		r.From = timeutil.Format(now.Add(-window))
	}
	return r
}

// ResolveBounds re-parses a resolved range into concrete
// instants. Each side is validated independently: a side that
// fails to parse becomes unbounded without failing the call or
// affecting the other side.
func ResolveBounds(r TimeRange) Bounds {
	var b Bounds
	if t, ok := timeutil.Parse(r.From); ok {
		b.From = &t
	}
	if t, ok := timeutil.Parse(r.To); ok {
		b.To = &t
	}
	return b
}
