package db

import (
	"context"
	"fmt"
)

// Board represents a row in the boards table.
type Board struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Column represents a row in the board_columns table.
type Column struct {
	ID       string `json:"id"`
	BoardID  string `json:"board_id"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Card represents a row in the cards table.
type Card struct {
	ID         string  `json:"id"`
	BoardID    string  `json:"board_id"`
	ColumnID   string  `json:"column_id"`
	Title      string  `json:"title"`
	TicketKey  string  `json:"ticket_key"`
	SourceMeta *string `json:"source_meta,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// ColumnCardCount is one column of one board with its card count.
// Empty columns are included with a zero count.
type ColumnCardCount struct {
	BoardID string
	Key     string
	Title   string
	Cards   int
}

// BoardAttemptStats holds per-board attempt counters: counts
// scoped to the requested range plus a range-independent active
// count.
type BoardAttemptStats struct {
	BoardID         string
	AttemptsInRange int
	FailedInRange   int
	ActiveAttempts  int
}

// UpsertBoard inserts or replaces a board.
func (db *DB) UpsertBoard(b Board) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.Exec(`
		INSERT INTO boards (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		b.ID, b.Name,
	)
	if err != nil {
		return fmt.Errorf("upserting board %s: %w", b.ID, err)
	}
	return nil
}

// UpsertColumn inserts or replaces a board column.
func (db *DB) UpsertColumn(c Column) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.Exec(`
		INSERT INTO board_columns (id, board_id, key, title, position)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			key = excluded.key,
			title = excluded.title,
			position = excluded.position`,
		c.ID, c.BoardID, c.Key, c.Title, c.Position,
	)
	if err != nil {
		return fmt.Errorf("upserting column %s: %w", c.ID, err)
	}
	return nil
}

// UpsertCard inserts or replaces a card.
func (db *DB) UpsertCard(c Card) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.Exec(`
		INSERT INTO cards (
			id, board_id, column_id, title, ticket_key, source_meta
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			column_id = excluded.column_id,
			title = excluded.title,
			ticket_key = excluded.ticket_key,
			source_meta = excluded.source_meta,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		c.ID, c.BoardID, c.ColumnID, c.Title, c.TicketKey, c.SourceMeta,
	)
	if err != nil {
		return fmt.Errorf("upserting card %s: %w", c.ID, err)
	}
	return nil
}

// ListBoards returns all boards ordered by name.
func (db *DB) ListBoards(ctx context.Context) ([]Board, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM boards
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying boards: %w", err)
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// ColumnCardCounts returns the card count for every column of
// every board, including empty columns.
func (db *DB) ColumnCardCounts(
	ctx context.Context,
) ([]ColumnCardCount, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT col.board_id, col.key, col.title, COUNT(c.id)
		FROM board_columns col
		LEFT JOIN cards c ON c.column_id = col.id
		GROUP BY col.id
		ORDER BY col.board_id, col.position, col.id`)
	if err != nil {
		return nil, fmt.Errorf("querying column card counts: %w", err)
	}
	defer rows.Close()

	var counts []ColumnCardCount
	for rows.Next() {
		var cc ColumnCardCount
		if err := rows.Scan(
			&cc.BoardID, &cc.Key, &cc.Title, &cc.Cards,
		); err != nil {
			return nil, fmt.Errorf("scanning column card count: %w", err)
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// BoardAttemptStats returns per-board attempt counters: attempts
// created within the bounds (with a failed sub-count) and the
// range-independent count of currently active attempts. Boards
// without attempts are absent from the result; callers zero-fill.
func (db *DB) BoardAttemptStats(
	ctx context.Context, from, to *string,
) ([]BoardAttemptStats, error) {
	preds, args := rangePreds(nil, nil, "created_at", from, to)

	byBoard := make(map[string]*BoardAttemptStats)
	order := make([]string, 0)

	get := func(id string) *BoardAttemptStats {
		s, ok := byBoard[id]
		if !ok {
			s = &BoardAttemptStats{BoardID: id}
			byBoard[id] = s
			order = append(order, id)
		}
		return s
	}

	rows, err := db.reader.QueryContext(ctx, `
		SELECT board_id, COUNT(*),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END)
		FROM attempts
		WHERE `+wherePreds(preds)+`
		GROUP BY board_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying board attempt stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var total, failed int
		if err := rows.Scan(&id, &total, &failed); err != nil {
			return nil, fmt.Errorf("scanning board attempt stats: %w", err)
		}
		s := get(id)
		s.AttemptsInRange = total
		s.FailedInRange = failed
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating board attempt stats: %w", err)
	}

	active, err := db.reader.QueryContext(ctx, `
		SELECT board_id, COUNT(*)
		FROM attempts
		WHERE status IN `+activeStatusSet+`
		GROUP BY board_id`)
	if err != nil {
		return nil, fmt.Errorf("querying active board attempts: %w", err)
	}
	defer active.Close()

	for active.Next() {
		var id string
		var n int
		if err := active.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning active board attempts: %w", err)
		}
		get(id).ActiveAttempts = n
	}
	if err := active.Err(); err != nil {
		return nil, fmt.Errorf("iterating active board attempts: %w", err)
	}

	stats := make([]BoardAttemptStats, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byBoard[id])
	}
	return stats, nil
}
