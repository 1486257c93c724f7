package db

import (
	"context"
	"fmt"
	"time"
)

// The inbox read-state table is a durable key->flag overlay keyed
// by attempt ID. It is the only state this engine owns; everything
// else is recomputed per call. Rows are created lazily by write
// operations and never by reads.

// LoadReadMap returns the read flag for every listed id that has
// a stored row. Missing ids are simply absent; callers treat a
// missing key as unread.
func (db *DB) LoadReadMap(
	ctx context.Context, ids []string,
) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(ids) == 0 {
		return result, nil
	}

	err := queryChunked(ids, func(chunk []string) error {
		ph, args := inPlaceholders(chunk)
		rows, err := db.reader.QueryContext(ctx, `
			SELECT id, is_read FROM inbox_read_state
			WHERE id IN `+ph, args...)
		if err != nil {
			return fmt.Errorf("querying read state: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			var isRead bool
			if err := rows.Scan(&id, &isRead); err != nil {
				return fmt.Errorf("scanning read state: %w", err)
			}
			result[id] = isRead
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetRead records the read flag for one inbox item, inserting the
// row if it does not exist yet. The upsert keeps the
// exists-check and the write atomic under concurrent toggles.
func (db *DB) SetRead(
	ctx context.Context, id string, isRead bool,
) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.writer.ExecContext(ctx, `
		INSERT INTO inbox_read_state (id, is_read, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_read = excluded.is_read,
			updated_at = excluded.updated_at`,
		id, isRead, nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("setting read state for %s: %w", id, err)
	}
	return nil
}

// MarkManyRead marks every listed id as read in one transaction,
// inserting rows for ids seen for the first time.
func (db *DB) MarkManyRead(
	ctx context.Context, ids []string,
) error {
	if len(ids) == 0 {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inbox_read_state (id, is_read, updated_at)
		VALUES (?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_read = 1,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := nowRFC3339()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, now); err != nil {
			return fmt.Errorf("marking %s read: %w", id, err)
		}
	}

	return tx.Commit()
}

// MarkAllRead flips every currently-unread row to read and
// returns the number of rows changed. It never inserts rows.
func (db *DB) MarkAllRead(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.writer.ExecContext(ctx, `
		UPDATE inbox_read_state
		SET is_read = 1, updated_at = ?
		WHERE is_read = 0`, nowRFC3339())
	if err != nil {
		return 0, fmt.Errorf("marking all read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting marked rows: %w", err)
	}
	return int(n), nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
