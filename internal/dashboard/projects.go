package dashboard

import (
	"strings"

	"github.com/wesm/kanbanpulse/internal/db"
)

// Canonical column buckets. Every snapshot reports all four, even
// for boards with entirely custom columns.
type columnBucket int

const (
	bucketBacklog columnBucket = iota
	bucketInProgress
	bucketReview
	bucketDone
)

// bucketMatchers pairs each bucket with its canonical key and
// title. A column lands in a bucket when its key equals the
// canonical key or its trimmed, case-insensitive title equals the
// canonical title; columns matching nothing stay out of every
// bucket (but still count toward the board total).
var bucketMatchers = []struct {
	bucket columnBucket
	key    string
	title  string
}{
	{bucketBacklog, "backlog", "backlog"},
	{bucketInProgress, "in_progress", "in progress"},
	{bucketReview, "review", "review"},
	{bucketDone, "done", "done"},
}

func classifyColumn(key, title string) (columnBucket, bool) {
	normTitle := strings.ToLower(strings.TrimSpace(title))
	for _, m := range bucketMatchers {
		if key == m.key || normTitle == m.title {
			return m.bucket, true
		}
	}
	return 0, false
}

// isDoneColumn reports whether a column is classified "done".
// The dashboard and the open-card SQL share this rule.
func isDoneColumn(key, title string) bool {
	b, ok := classifyColumn(key, title)
	return ok && b == bucketDone
}

// ColumnCardCounts is the per-bucket card breakdown of one board.
type ColumnCardCounts struct {
	Backlog    int `json:"backlog"`
	InProgress int `json:"inProgress"`
	Review     int `json:"review"`
	Done       int `json:"done"`
}

func (c *ColumnCardCounts) add(b columnBucket, n int) {
	switch b {
	case bucketBacklog:
		c.Backlog += n
	case bucketInProgress:
		c.InProgress += n
	case bucketReview:
		c.Review += n
	case bucketDone:
		c.Done += n
	}
}

// ProjectHealth carries the boolean health heuristics derived
// from the in-range counters.
type ProjectHealth struct {
	IsHighActivity bool `json:"isHighActivity"`
	IsAtRisk       bool `json:"isAtRisk"`
}

// ProjectSnapshot is the per-board card and attempt breakdown.
type ProjectSnapshot struct {
	ProjectID             string           `json:"projectId"`
	Name                  string           `json:"name"`
	TotalCards            int              `json:"totalCards"`
	OpenCards             int              `json:"openCards"`
	ColumnCardCounts      ColumnCardCounts `json:"columnCardCounts"`
	ActiveAttemptsCount   int              `json:"activeAttemptsCount"`
	AttemptsInRange       int              `json:"attemptsInRange"`
	FailedAttemptsInRange int              `json:"failedAttemptsInRange"`
	// FailureRateInRange is failed/attempts over the in-range
	// attempts, 0 when there are none.
	FailureRateInRange float64       `json:"failureRateInRange"`
	Health             ProjectHealth `json:"health"`
}

// BuildProjectSnapshots derives one snapshot per board, in board
// order, including boards with zero cards or zero attempts.
func BuildProjectSnapshots(
	boards []db.Board,
	columns []db.ColumnCardCount,
	attemptStats []db.BoardAttemptStats,
	th Thresholds,
) []ProjectSnapshot {
	th = th.normalized()

	colsByBoard := make(map[string][]db.ColumnCardCount)
	for _, c := range columns {
		colsByBoard[c.BoardID] = append(colsByBoard[c.BoardID], c)
	}
	statsByBoard := make(map[string]db.BoardAttemptStats)
	for _, s := range attemptStats {
		statsByBoard[s.BoardID] = s
	}

	snapshots := make([]ProjectSnapshot, 0, len(boards))
	for _, b := range boards {
		snap := ProjectSnapshot{ProjectID: b.ID, Name: b.Name}

		for _, c := range colsByBoard[b.ID] {
			snap.TotalCards += c.Cards
			if bucket, ok := classifyColumn(c.Key, c.Title); ok {
				snap.ColumnCardCounts.add(bucket, c.Cards)
			}
			if !isDoneColumn(c.Key, c.Title) {
				snap.OpenCards += c.Cards
			}
		}

		s := statsByBoard[b.ID]
		snap.ActiveAttemptsCount = s.ActiveAttempts
		snap.AttemptsInRange = s.AttemptsInRange
		snap.FailedAttemptsInRange = s.FailedInRange
		if s.AttemptsInRange > 0 {
			snap.FailureRateInRange = float64(s.FailedInRange) /
				float64(s.AttemptsInRange)
		}

		snap.Health.IsHighActivity =
			snap.AttemptsInRange >= th.HighActivity
		snap.Health.IsAtRisk =
			snap.AttemptsInRange >= th.AtRiskMinSample &&
				snap.FailureRateInRange > th.AtRiskFailureRatio

		snapshots = append(snapshots, snap)
	}
	return snapshots
}
