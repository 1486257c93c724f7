package dashboard

import "time"

// Thresholds are the tunable knobs of the triage heuristics.
// They encode product judgment rather than aggregation mechanics,
// so they are named and overridable instead of inline literals.
type Thresholds struct {
	// HighActivity is the minimum number of in-range attempts for
	// a board to be flagged high-activity.
	HighActivity int
	// AtRiskMinSample is the minimum number of in-range attempts
	// before the at-risk flag is even considered. Low-volume
	// boards are never flagged regardless of failure ratio.
	AtRiskMinSample int
	// AtRiskFailureRatio is the failure ratio above which a board
	// with a sufficient sample is flagged at-risk.
	AtRiskFailureRatio float64
	// StuckAfter is how long an active attempt may go without an
	// update before it is surfaced as stuck.
	StuckAfter time.Duration

	// Row limits for the list-shaped reads.
	InboxLimit  int
	RecentLimit int
	ActiveLimit int
}

// DefaultThresholds returns the stock heuristic configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighActivity:       3,
		AtRiskMinSample:    5,
		AtRiskFailureRatio: 0.5,
		StuckAfter:         30 * time.Minute,
		InboxLimit:         50,
		RecentLimit:        20,
		ActiveLimit:        50,
	}
}

// normalized fills zero-valued fields with defaults so partially
// populated overrides stay usable.
func (t Thresholds) normalized() Thresholds {
	d := DefaultThresholds()
	if t.HighActivity <= 0 {
		t.HighActivity = d.HighActivity
	}
	if t.AtRiskMinSample <= 0 {
		t.AtRiskMinSample = d.AtRiskMinSample
	}
	if t.AtRiskFailureRatio <= 0 {
		t.AtRiskFailureRatio = d.AtRiskFailureRatio
	}
	if t.StuckAfter <= 0 {
		t.StuckAfter = d.StuckAfter
	}
	if t.InboxLimit <= 0 {
		t.InboxLimit = d.InboxLimit
	}
	if t.RecentLimit <= 0 {
		t.RecentLimit = d.RecentLimit
	}
	if t.ActiveLimit <= 0 {
		t.ActiveLimit = d.ActiveLimit
	}
	return t
}
