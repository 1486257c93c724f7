package dashboard

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/wesm/kanbanpulse/internal/db"
)

// AgentStat is the per-registered-agent activity summary.
type AgentStat struct {
	AgentID         string `json:"agentId"`
	AgentName       string `json:"agentName"`
	AttemptsInRange int    `json:"attemptsInRange"`
	AttemptsFailed  int    `json:"attemptsFailed"`
	// SuccessRateInRange is nil when the agent has no in-range
	// attempts. This deliberately differs from the aggregate
	// metric's 0-on-empty convention: "no data" and "0% success"
	// render differently.
	SuccessRateInRange *float64 `json:"successRateInRange"`
	HasActivityInRange bool     `json:"hasActivityInRange"`
	LastActivityAt     *string  `json:"lastActivityAt,omitempty"`
}

// BuildAgentStats returns exactly one entry per registered agent,
// sorted by display name. Agents with no in-range activity are
// kept with zero counters and a nil success rate; the registry,
// not attempt history, decides who appears.
func BuildAgentStats(
	agents []db.Agent, rangeStats []db.AgentRangeStats,
) []AgentStat {
	statsByAgent := make(map[string]db.AgentRangeStats)
	for _, s := range rangeStats {
		statsByAgent[s.AgentID] = s
	}

	out := make([]AgentStat, 0, len(agents))
	for _, a := range agents {
		stat := AgentStat{AgentID: a.ID, AgentName: a.Name}

		s, ok := statsByAgent[a.ID]
		if ok && s.Attempts > 0 {
			stat.AttemptsInRange = s.Attempts
			stat.AttemptsFailed = s.Failed
			stat.HasActivityInRange = true
			rate := float64(s.Succeeded) / float64(s.Attempts)
			stat.SuccessRateInRange = &rate
			stat.LastActivityAt = s.LastActivityAt
		}
		out = append(out, stat)
	}

	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if r := c.CompareString(out[i].AgentName, out[j].AgentName); r != 0 {
			return r < 0
		}
		return out[i].AgentID < out[j].AgentID
	})
	return out
}
