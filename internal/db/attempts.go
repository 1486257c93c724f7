package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tidwall/gjson"
)

// Attempt statuses. Queued, running, and stopping attempts are
// "active"; succeeded, failed, and stopped are terminal.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusStopping  = "stopping"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusStopped   = "stopped"
)

// SQL IN-sets for the two status classes. Keep in sync with the
// constants above.
const (
	activeStatusSet   = "('queued','running','stopping')"
	terminalStatusSet = "('succeeded','failed','stopped')"
)

// Attempt represents a row in the attempts table.
type Attempt struct {
	ID         string  `json:"id"`
	CardID     string  `json:"card_id"`
	BoardID    string  `json:"board_id"`
	AgentID    string  `json:"agent_id"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
}

// OverviewCounts holds the range-independent headline counters.
type OverviewCounts struct {
	Boards         int
	ActiveAttempts int
	OpenCards      int
}

// AttemptRangeStats holds range-scoped attempt aggregates:
// attempts created within the bounds (with a succeeded sub-count
// and distinct-board count) and attempts whose terminal timestamp
// falls within the bounds.
type AttemptRangeStats struct {
	Created      int
	Succeeded    int
	Completed    int
	ActiveBoards int
}

// AgentRangeStats holds per-agent attempt aggregates scoped to
// the requested range. Agents without in-range attempts are
// absent from the result; callers zero-fill.
type AgentRangeStats struct {
	AgentID        string
	Attempts       int
	Succeeded      int
	Failed         int
	LastActivityAt *string
}

// AttemptSummary is one attempt joined with its card, board, and
// agent display fields.
type AttemptSummary struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	BoardID    string  `json:"board_id"`
	BoardName  string  `json:"board_name"`
	CardID     string  `json:"card_id"`
	CardTitle  string  `json:"card_title"`
	AgentID    string  `json:"agent_id"`
	AgentName  string  `json:"agent_name"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
}

// InboxCandidate extends AttemptSummary with the fields the inbox
// classifier needs: the card's ticket key and current column.
type InboxCandidate struct {
	AttemptSummary
	TicketKey   string
	ColumnKey   string
	ColumnTitle string
}

// UpsertAttempt inserts or replaces an attempt.
func (db *DB) UpsertAttempt(a Attempt) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.Exec(`
		INSERT INTO attempts (
			id, card_id, board_id, agent_id, status,
			created_at, updated_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at,
			finished_at = excluded.finished_at`,
		a.ID, a.CardID, a.BoardID, a.AgentID, a.Status,
		a.CreatedAt, a.UpdatedAt, a.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting attempt %s: %w", a.ID, err)
	}
	return nil
}

// GetOverviewCounts returns the headline counters in one round
// trip: boards total, currently active attempts, and cards not in
// a done column.
func (db *DB) GetOverviewCounts(
	ctx context.Context,
) (OverviewCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM boards),
			(SELECT COUNT(*) FROM attempts
				WHERE status IN ` + activeStatusSet + `),
			(SELECT COUNT(*) FROM cards c
				JOIN board_columns col ON c.column_id = col.id
				WHERE NOT ` + doneColumnPred("col") + `)`

	var c OverviewCounts
	err := db.reader.QueryRowContext(ctx, query).Scan(
		&c.Boards, &c.ActiveAttempts, &c.OpenCards,
	)
	if err != nil {
		return OverviewCounts{}, fmt.Errorf(
			"fetching overview counts: %w", err,
		)
	}
	return c, nil
}

// GetAttemptRangeStats returns the range-scoped attempt counters.
// Creation counts are scoped by created_at; the completed count
// is scoped by finished_at over terminal statuses.
func (db *DB) GetAttemptRangeStats(
	ctx context.Context, from, to *string,
) (AttemptRangeStats, error) {
	var s AttemptRangeStats

	preds, args := rangePreds(nil, nil, "created_at", from, to)
	err := db.reader.QueryRowContext(ctx, `
		SELECT COUNT(*),
			SUM(CASE WHEN status = 'succeeded' THEN 1 ELSE 0 END),
			COUNT(DISTINCT board_id)
		FROM attempts
		WHERE `+wherePreds(preds), args...).Scan(
		&s.Created, &nullInt{&s.Succeeded}, &s.ActiveBoards,
	)
	if err != nil {
		return AttemptRangeStats{}, fmt.Errorf(
			"fetching attempt range stats: %w", err,
		)
	}

	preds, args = rangePreds(nil, nil, "finished_at", from, to)
	preds = append(preds, "finished_at IS NOT NULL")
	preds = append(preds, "status IN "+terminalStatusSet)
	err = db.reader.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM attempts
		WHERE `+wherePreds(preds), args...).Scan(&s.Completed)
	if err != nil {
		return AttemptRangeStats{}, fmt.Errorf(
			"fetching completed attempt count: %w", err,
		)
	}

	return s, nil
}

// GetAgentRangeStats returns per-agent aggregates for attempts
// created within the bounds, grouped by agent.
func (db *DB) GetAgentRangeStats(
	ctx context.Context, from, to *string,
) ([]AgentRangeStats, error) {
	preds, args := rangePreds(nil, nil, "created_at", from, to)

	rows, err := db.reader.QueryContext(ctx, `
		SELECT agent_id, COUNT(*),
			SUM(CASE WHEN status = 'succeeded' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			MAX(created_at)
		FROM attempts
		WHERE `+wherePreds(preds)+`
		GROUP BY agent_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying agent range stats: %w", err)
	}
	defer rows.Close()

	var stats []AgentRangeStats
	for rows.Next() {
		var s AgentRangeStats
		if err := rows.Scan(
			&s.AgentID, &s.Attempts,
			&nullInt{&s.Succeeded}, &nullInt{&s.Failed},
			&s.LastActivityAt,
		); err != nil {
			return nil, fmt.Errorf("scanning agent range stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

const attemptSummaryCols = `a.id, a.status,
	a.board_id, b.name, a.card_id, c.title,
	a.agent_id, COALESCE(g.name, a.agent_id),
	a.created_at, a.updated_at, a.finished_at`

const attemptSummaryJoins = `
	FROM attempts a
	JOIN cards c ON a.card_id = c.id
	JOIN boards b ON a.board_id = b.id
	LEFT JOIN agents g ON a.agent_id = g.id`

func scanAttemptSummary(rs rowScanner) (AttemptSummary, error) {
	var s AttemptSummary
	err := rs.Scan(
		&s.ID, &s.Status,
		&s.BoardID, &s.BoardName, &s.CardID, &s.CardTitle,
		&s.AgentID, &s.AgentName,
		&s.CreatedAt, &s.UpdatedAt, &s.FinishedAt,
	)
	return s, err
}

// ListActiveAttempts returns currently active attempts, newest
// first.
func (db *DB) ListActiveAttempts(
	ctx context.Context, limit int,
) ([]AttemptSummary, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT `+attemptSummaryCols+attemptSummaryJoins+`
		WHERE a.status IN `+activeStatusSet+`
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying active attempts: %w", err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

// ListRecentAttempts returns the most recently updated attempts
// regardless of status.
func (db *DB) ListRecentAttempts(
	ctx context.Context, limit int,
) ([]AttemptSummary, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT `+attemptSummaryCols+attemptSummaryJoins+`
		ORDER BY a.updated_at DESC, a.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent attempts: %w", err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

func collectSummaries(rows *sql.Rows) ([]AttemptSummary, error) {
	var out []AttemptSummary
	for rows.Next() {
		s, err := scanAttemptSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attempt summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListInboxCandidates returns the most recently updated attempts
// joined with card column and ticket information, for inbox
// classification. The ticket key falls back to the imported issue
// key in the card's source metadata when the column is empty.
func (db *DB) ListInboxCandidates(
	ctx context.Context, limit int,
) ([]InboxCandidate, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT `+attemptSummaryCols+`,
			c.ticket_key, c.source_meta, col.key, col.title
		`+attemptSummaryJoins+`
		JOIN board_columns col ON c.column_id = col.id
		ORDER BY a.updated_at DESC, a.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying inbox candidates: %w", err)
	}
	defer rows.Close()

	var out []InboxCandidate
	for rows.Next() {
		var ic InboxCandidate
		var meta *string
		if err := rows.Scan(
			&ic.ID, &ic.Status,
			&ic.BoardID, &ic.BoardName, &ic.CardID, &ic.CardTitle,
			&ic.AgentID, &ic.AgentName,
			&ic.CreatedAt, &ic.UpdatedAt, &ic.FinishedAt,
			&ic.TicketKey, &meta, &ic.ColumnKey, &ic.ColumnTitle,
		); err != nil {
			return nil, fmt.Errorf("scanning inbox candidate: %w", err)
		}
		if ic.TicketKey == "" && meta != nil {
			ic.TicketKey = gjson.Get(*meta, "issue.key").Str
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

// nullInt scans a nullable integer aggregate (SUM over zero rows
// yields NULL) into an int, treating NULL as 0.
type nullInt struct{ v *int }

func (n *nullInt) Scan(src any) error {
	if src == nil {
		*n.v = 0
		return nil
	}
	switch x := src.(type) {
	case int64:
		*n.v = int(x)
	case float64:
		*n.v = int(x)
	default:
		return fmt.Errorf("unsupported aggregate type %T", src)
	}
	return nil
}
