package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wesm/kanbanpulse/internal/db"
	"github.com/wesm/kanbanpulse/internal/timeutil"
)

// Store is the data access boundary the assembler reads through.
// *db.DB implements it; tests substitute a fake. All methods are
// read-only except LoadReadMap's siblings, which live outside
// this interface.
type Store interface {
	GetOverviewCounts(ctx context.Context) (db.OverviewCounts, error)
	GetAttemptRangeStats(
		ctx context.Context, from, to *string,
	) (db.AttemptRangeStats, error)
	ListBoards(ctx context.Context) ([]db.Board, error)
	ColumnCardCounts(ctx context.Context) ([]db.ColumnCardCount, error)
	BoardAttemptStats(
		ctx context.Context, from, to *string,
	) ([]db.BoardAttemptStats, error)
	ListAgents(ctx context.Context) ([]db.Agent, error)
	GetAgentRangeStats(
		ctx context.Context, from, to *string,
	) ([]db.AgentRangeStats, error)
	ListActiveAttempts(
		ctx context.Context, limit int,
	) ([]db.AttemptSummary, error)
	ListRecentAttempts(
		ctx context.Context, limit int,
	) ([]db.AttemptSummary, error)
	ListInboxCandidates(
		ctx context.Context, limit int,
	) ([]db.InboxCandidate, error)
	LoadReadMap(
		ctx context.Context, ids []string,
	) (map[string]bool, error)
}

// AttemptView is an attempt summary in the outbound snapshot
// shape.
type AttemptView struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	ProjectID   string  `json:"projectId"`
	ProjectName string  `json:"projectName"`
	CardID      string  `json:"cardId"`
	CardTitle   string  `json:"cardTitle"`
	AgentID     string  `json:"agentId"`
	AgentName   string  `json:"agentName"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	FinishedAt  *string `json:"finishedAt,omitempty"`
}

// Overview is the complete dashboard snapshot. It is recomputed
// from scratch on every call and never cached, so concurrent
// requests cannot observe partial state.
type Overview struct {
	TimeRange        TimeRange         `json:"timeRange"`
	Metrics          Metrics           `json:"metrics"`
	ActiveAttempts   []AttemptView     `json:"activeAttempts"`
	RecentActivity   []AttemptView     `json:"recentAttemptActivity"`
	ProjectSnapshots []ProjectSnapshot `json:"projectSnapshots"`
	AgentStats       []AgentStat       `json:"agentStats"`
	InboxItems       Inbox             `json:"inboxItems"`
	GeneratedAt      string            `json:"generatedAt"`
	UpdatedAt        string            `json:"updatedAt"`
}

// Assembler orchestrates one snapshot per call: resolve the
// range, issue a fixed set of reads, run the pure builders, and
// overlay read state.
type Assembler struct {
	store      Store
	thresholds func() Thresholds
	now        func() time.Time
	logger     *zap.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithThresholds installs a threshold source, read once per
// call. A func (rather than a value) lets config hot-reload feed
// new thresholds without restarting.
func WithThresholds(fn func() Thresholds) AssemblerOption {
	return func(a *Assembler) {
		if fn != nil {
			a.thresholds = fn
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AssemblerOption {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssembler creates an Assembler over the given store.
func NewAssembler(store Store, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		store:      store,
		thresholds: DefaultThresholds,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Overview computes one full snapshot. Empty storage is a valid
// state and produces a fully-shaped zero-valued result; storage
// errors propagate to the caller unmodified apart from wrapping.
func (a *Assembler) Overview(
	ctx context.Context, req *TimeRange,
) (*Overview, error) {
	now := a.now().UTC()
	th := a.thresholds().normalized()

	timeRange := ResolveTimeRange(req, now)
	from, to := ResolveBounds(timeRange).Strings()

	counts, err := a.store.GetOverviewCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("overview counts: %w", err)
	}
	rangeStats, err := a.store.GetAttemptRangeStats(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("attempt range stats: %w", err)
	}
	boards, err := a.store.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("boards: %w", err)
	}
	columns, err := a.store.ColumnCardCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("column card counts: %w", err)
	}
	boardStats, err := a.store.BoardAttemptStats(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("board attempt stats: %w", err)
	}
	agents, err := a.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}
	agentStats, err := a.store.GetAgentRangeStats(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("agent range stats: %w", err)
	}
	active, err := a.store.ListActiveAttempts(ctx, th.ActiveLimit)
	if err != nil {
		return nil, fmt.Errorf("active attempts: %w", err)
	}
	recent, err := a.store.ListRecentAttempts(ctx, th.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	candidates, err := a.store.ListInboxCandidates(ctx, th.InboxLimit)
	if err != nil {
		return nil, fmt.Errorf("inbox candidates: %w", err)
	}

	inbox := ClassifyInbox(candidates, now, th.StuckAfter)
	readMap, err := a.store.LoadReadMap(ctx, inbox.IDs())
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	inbox = MergeReadState(inbox, readMap)

	generatedAt := timeutil.Format(now)
	a.logger.Debug("assembled dashboard overview",
		zap.Int("boards", len(boards)),
		zap.Int("inbox_items", len(inbox.IDs())),
	)

	return &Overview{
		TimeRange: timeRange,
		Metrics: BuildMetrics(
			counts, rangeStats, len(inbox.Review), now,
		),
		ActiveAttempts: attemptViews(active),
		RecentActivity: attemptViews(recent),
		ProjectSnapshots: BuildProjectSnapshots(
			boards, columns, boardStats, th,
		),
		AgentStats:  BuildAgentStats(agents, agentStats),
		InboxItems:  inbox,
		GeneratedAt: generatedAt,
		UpdatedAt:   generatedAt,
	}, nil
}

func attemptViews(rows []db.AttemptSummary) []AttemptView {
	out := make([]AttemptView, len(rows))
	for i, r := range rows {
		out[i] = AttemptView{
			ID:          r.ID,
			Status:      r.Status,
			ProjectID:   r.BoardID,
			ProjectName: r.BoardName,
			CardID:      r.CardID,
			CardTitle:   r.CardTitle,
			AgentID:     r.AgentID,
			AgentName:   r.AgentName,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			FinishedAt:  r.FinishedAt,
		}
	}
	return out
}
