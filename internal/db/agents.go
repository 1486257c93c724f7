package db

import (
	"context"
	"fmt"
)

// Agent represents a row in the agents table: one registered
// coding-agent profile. Registration is independent of attempt
// history, so idle agents still appear here.
type Agent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Executor  string `json:"executor"`
	CreatedAt string `json:"created_at"`
}

// UpsertAgent inserts or replaces an agent profile.
func (db *DB) UpsertAgent(a Agent) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.Exec(`
		INSERT INTO agents (id, name, executor)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			executor = excluded.executor`,
		a.ID, a.Name, a.Executor,
	)
	if err != nil {
		return fmt.Errorf("upserting agent %s: %w", a.ID, err)
	}
	return nil
}

// ListAgents returns every registered agent ordered by name.
func (db *DB) ListAgents(ctx context.Context) ([]Agent, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT id, name, executor, created_at
		FROM agents
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Executor, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}
