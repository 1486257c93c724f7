// Command testfixture generates a demo database with boards,
// cards, agents, and attempts in interesting states, for manual
// testing of the dashboard.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wesm/kanbanpulse/internal/db"
	"github.com/wesm/kanbanpulse/internal/timeutil"
)

type boardSpec struct {
	name  string
	cards []cardSpec
}

type cardSpec struct {
	title    string
	column   string // canonical column key
	attempts []attemptSpec
}

type attemptSpec struct {
	agent    string
	status   string
	age      time.Duration // created this long before now
	duration time.Duration // zero for unfinished attempts
}

var agents = []db.Agent{
	{ID: "agent-claude", Name: "Claude Code", Executor: "claude"},
	{ID: "agent-codex", Name: "Codex CLI", Executor: "codex"},
	{ID: "agent-gemini", Name: "Gemini CLI", Executor: "gemini"},
	// Registered but idle, to exercise the zero-activity path.
	{ID: "agent-amp", Name: "Amp", Executor: "amp"},
}

var boards = []boardSpec{
	{
		name: "payments-service",
		cards: []cardSpec{
			{"Add refund endpoint", "in_progress", []attemptSpec{
				{"agent-claude", db.StatusRunning, 20 * time.Minute, 0},
			}},
			{"Fix currency rounding", "review", []attemptSpec{
				{"agent-claude", db.StatusSucceeded, 3 * time.Hour, 40 * time.Minute},
				{"agent-codex", db.StatusFailed, 26 * time.Hour, 15 * time.Minute},
			}},
			{"Migrate ledger schema", "backlog", nil},
			{"Chargeback webhooks", "done", []attemptSpec{
				{"agent-claude", db.StatusSucceeded, 48 * time.Hour, time.Hour},
			}},
		},
	},
	{
		name: "mobile-app",
		cards: []cardSpec{
			{"Dark mode toggle", "in_progress", []attemptSpec{
				// Stale active attempt: surfaces as stuck.
				{"agent-gemini", db.StatusRunning, 5 * time.Hour, 0},
			}},
			{"Crash on cold start", "review", []attemptSpec{
				{"agent-codex", db.StatusFailed, 2 * time.Hour, 10 * time.Minute},
				{"agent-codex", db.StatusFailed, 90 * time.Minute, 12 * time.Minute},
				{"agent-codex", db.StatusFailed, 50 * time.Minute, 8 * time.Minute},
				{"agent-claude", db.StatusSucceeded, 30 * time.Minute, 25 * time.Minute},
			}},
			{"Onboarding carousel", "backlog", nil},
		},
	},
	{
		name: "docs-site",
		cards: []cardSpec{
			{"Rewrite quickstart", "backlog", nil},
		},
	},
}

func main() {
	out := flag.String("out", "", "output database path")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: testfixture -out <path>")
		os.Exit(1)
	}

	if err := os.Remove(*out); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		log.Fatalf("removing existing db: %v", err)
	}

	database, err := db.Open(*out)
	if err != nil {
		log.Fatalf("opening db: %v", err)
	}
	defer database.Close()

	for _, a := range agents {
		if err := database.UpsertAgent(a); err != nil {
			log.Fatalf("seeding agent %s: %v", a.ID, err)
		}
	}

	now := time.Now().UTC()
	for _, spec := range boards {
		if err := createBoardFixture(database, spec, now); err != nil {
			log.Fatalf("creating board %s: %v", spec.name, err)
		}
		fmt.Printf("  %s: %d cards\n", spec.name, len(spec.cards))
	}

	fmt.Printf("Fixture DB written to %s\n", *out)
}

// standardColumns is the column set every fixture board gets.
var standardColumns = []struct{ key, title string }{
	{"backlog", "Backlog"},
	{"in_progress", "In Progress"},
	{"review", "Review"},
	{"done", "Done"},
}

func createBoardFixture(
	database *db.DB, spec boardSpec, now time.Time,
) error {
	boardID := uuid.NewString()
	if err := database.UpsertBoard(db.Board{
		ID: boardID, Name: spec.name,
	}); err != nil {
		return err
	}

	columnIDs := make(map[string]string)
	for i, col := range standardColumns {
		id := uuid.NewString()
		columnIDs[col.key] = id
		if err := database.UpsertColumn(db.Column{
			ID:       id,
			BoardID:  boardID,
			Key:      col.key,
			Title:    col.title,
			Position: i,
		}); err != nil {
			return err
		}
	}

	for _, card := range spec.cards {
		cardID := uuid.NewString()
		if err := database.UpsertCard(db.Card{
			ID:       cardID,
			BoardID:  boardID,
			ColumnID: columnIDs[card.column],
			Title:    card.title,
		}); err != nil {
			return err
		}

		for _, att := range card.attempts {
			if err := createAttempt(
				database, boardID, cardID, att, now,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func createAttempt(
	database *db.DB, boardID, cardID string,
	spec attemptSpec, now time.Time,
) error {
	created := now.Add(-spec.age)
	a := db.Attempt{
		ID:        uuid.NewString(),
		CardID:    cardID,
		BoardID:   boardID,
		AgentID:   spec.agent,
		Status:    spec.status,
		CreatedAt: timeutil.Format(created),
		UpdatedAt: timeutil.Format(created),
	}
	if spec.duration > 0 {
		finished := created.Add(spec.duration)
		a.UpdatedAt = timeutil.Format(finished)
		a.FinishedAt = timeutil.Ptr(finished)
	}
	return database.UpsertAttempt(a)
}
