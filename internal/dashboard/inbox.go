package dashboard

import (
	"sort"
	"time"

	"github.com/wesm/kanbanpulse/internal/db"
	"github.com/wesm/kanbanpulse/internal/timeutil"
)

// InboxKind tags why an attempt needs human attention.
type InboxKind string

const (
	KindReview InboxKind = "review"
	KindFailed InboxKind = "failed"
	KindStuck  InboxKind = "stuck"
)

// InboxItem is one attempt surfaced for attention. ID equals the
// source attempt's ID and is the join key into the read-state
// overlay.
type InboxItem struct {
	ID          string    `json:"id"`
	Kind        InboxKind `json:"kind"`
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName"`
	CardID      string    `json:"cardId"`
	CardTitle   string    `json:"cardTitle"`
	TicketKey   string    `json:"ticketKey,omitempty"`
	AgentID     string    `json:"agentId"`
	AgentName   string    `json:"agentName"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
	FinishedAt  *string   `json:"finishedAt,omitempty"`
	IsRead      bool      `json:"isRead"`
}

// Inbox is the classified triage view. Buckets are always
// non-nil so empty states serialize as [].
type Inbox struct {
	Review []InboxItem `json:"review"`
	Failed []InboxItem `json:"failed"`
	Stuck  []InboxItem `json:"stuck"`
}

// IDs returns the ids of every item across all buckets.
func (in Inbox) IDs() []string {
	ids := make([]string, 0,
		len(in.Review)+len(in.Failed)+len(in.Stuck))
	for _, bucket := range [][]InboxItem{in.Review, in.Failed, in.Stuck} {
		for _, item := range bucket {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// ClassifyInbox sorts candidate attempts into the triage buckets.
// Each attempt yields at most one item, by priority:
//
//  1. review: succeeded, but the card has not reached the done
//     column (finished work awaiting acceptance).
//  2. failed: the attempt failed.
//  3. stuck: still active, but not updated within stuckAfter.
//
// Attempts matching nothing are omitted. Review and failed sort
// by completion time descending, stuck by last update descending.
func ClassifyInbox(
	candidates []db.InboxCandidate,
	now time.Time,
	stuckAfter time.Duration,
) Inbox {
	inbox := Inbox{
		Review: []InboxItem{},
		Failed: []InboxItem{},
		Stuck:  []InboxItem{},
	}
	staleBefore := now.Add(-stuckAfter)

	for _, c := range candidates {
		switch {
		case c.Status == db.StatusSucceeded &&
			!isDoneColumn(c.ColumnKey, c.ColumnTitle):
			inbox.Review = append(inbox.Review, newItem(c, KindReview))

		case c.Status == db.StatusFailed:
			inbox.Failed = append(inbox.Failed, newItem(c, KindFailed))

		case isActiveStatus(c.Status) && isStale(c.UpdatedAt, staleBefore):
			inbox.Stuck = append(inbox.Stuck, newItem(c, KindStuck))
		}
	}

	sortByCompletion(inbox.Review)
	sortByCompletion(inbox.Failed)
	sort.SliceStable(inbox.Stuck, func(i, j int) bool {
		return inbox.Stuck[i].UpdatedAt > inbox.Stuck[j].UpdatedAt
	})
	return inbox
}

// MergeReadState returns a copy of the inbox with each item's
// IsRead taken from readMap; a missing key means unread. The
// input inbox is not mutated.
func MergeReadState(in Inbox, readMap map[string]bool) Inbox {
	merge := func(items []InboxItem) []InboxItem {
		out := make([]InboxItem, len(items))
		for i, item := range items {
			item.IsRead = readMap[item.ID]
			out[i] = item
		}
		return out
	}
	return Inbox{
		Review: merge(in.Review),
		Failed: merge(in.Failed),
		Stuck:  merge(in.Stuck),
	}
}

func newItem(c db.InboxCandidate, kind InboxKind) InboxItem {
	return InboxItem{
		ID:          c.ID,
		Kind:        kind,
		ProjectID:   c.BoardID,
		ProjectName: c.BoardName,
		CardID:      c.CardID,
		CardTitle:   c.CardTitle,
		TicketKey:   c.TicketKey,
		AgentID:     c.AgentID,
		AgentName:   c.AgentName,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		FinishedAt:  c.FinishedAt,
	}
}

func isActiveStatus(status string) bool {
	switch status {
	case db.StatusQueued, db.StatusRunning, db.StatusStopping:
		return true
	}
	return false
}

// isStale reports whether ts parses and is older than the cutoff.
// An unparseable update timestamp never flags an attempt stuck.
func isStale(ts string, staleBefore time.Time) bool {
	t, ok := timeutil.Parse(ts)
	return ok && t.Before(staleBefore)
}

// sortByCompletion orders items by completion time descending,
// falling back to the last update for items without one.
// RFC3339 UTC strings compare chronologically.
func sortByCompletion(items []InboxItem) {
	key := func(it InboxItem) string {
		if it.FinishedAt != nil {
			return *it.FinishedAt
		}
		return it.UpdatedAt
	}
	sort.SliceStable(items, func(i, j int) bool {
		return key(items[i]) > key(items[j])
	})
}
