// Package stats aggregates saved entries into per-agent and per-player
// figures for the dashboard. Everything here is a pure function over
// in-memory slices; callers load the rows and pass them in.
package stats

import (
	"sort"

	"pph-ledger/internal/database"
)

// TotalProfitLoss sums the derived profit across all entries
func TotalProfitLoss(entries []*database.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.ProfitLoss
	}
	return total
}

// TotalEndingBalance sums ending balances, skipping blank ones
func TotalEndingBalance(entries []*database.Entry) float64 {
	var total float64
	for _, e := range entries {
		if e.EndingBalance != nil {
			total += *e.EndingBalance
		}
	}
	return total
}

// EntriesForAccount returns the account's entries ordered newest day first.
// The input slice is not modified.
func EntriesForAccount(entries []*database.Entry, accountID string) []*database.Entry {
	var out []*database.Entry
	for _, e := range entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// EntryForDate returns the entry for an account on a given day, or nil. When
// duplicates exist for the same day the most recently written one wins.
func EntryForDate(entries []*database.Entry, accountID string, date string) *database.Entry {
	var best *database.Entry
	for _, e := range entries {
		if e.AccountID != accountID || e.EntryDate.Format("2006-01-02") != date {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) {
			best = e
		}
	}
	return best
}

// AgentStats holds the aggregated position of one account holder
type AgentStats struct {
	AgentID          string  `json:"agent_id"`
	AgentName        string  `json:"agent_name"`
	AccountCount     int     `json:"account_count"`
	PlayerCount      int     `json:"player_count"`
	TotalProfit      float64 `json:"total_profit"`
	CommissionEarned float64 `json:"commission_earned"`
	FlatCommission   float64 `json:"flat_commission"`
}

// ComputeAgentStats aggregates one agent's accounts and their entries.
// Commission is the percentage cut of total profit; the flat amount is
// reported separately because it is owed regardless of profit.
func ComputeAgentStats(agent *database.Agent, accounts []*database.Account, entries []*database.Entry) AgentStats {
	stats := AgentStats{
		AgentID:        agent.ID,
		AgentName:      agent.Name,
		FlatCommission: agent.FlatCommission,
	}

	owned := make(map[string]bool)
	players := make(map[string]bool)
	for _, a := range accounts {
		if a.AgentID != agent.ID {
			continue
		}
		stats.AccountCount++
		owned[a.ID] = true
		if a.AssignedPlayerID != nil {
			players[*a.AssignedPlayerID] = true
		}
	}
	stats.PlayerCount = len(players)

	for _, e := range entries {
		if owned[e.AccountID] {
			stats.TotalProfit += e.ProfitLoss
		}
	}
	stats.CommissionEarned = stats.TotalProfit * agent.CommissionPercentage / 100

	return stats
}

// PlayerStats holds the aggregated activity of one player
type PlayerStats struct {
	PlayerID     string  `json:"player_id"`
	EntryCount   int     `json:"entry_count"`
	AccountCount int     `json:"account_count"`
	TotalProfit  float64 `json:"total_profit"`
}

// ComputePlayerStats aggregates the entries a player has recorded
func ComputePlayerStats(playerID string, entries []*database.Entry) PlayerStats {
	stats := PlayerStats{PlayerID: playerID}

	accounts := make(map[string]bool)
	for _, e := range entries {
		if e.PlayerID != playerID {
			continue
		}
		stats.EntryCount++
		stats.TotalProfit += e.ProfitLoss
		accounts[e.AccountID] = true
	}
	stats.AccountCount = len(accounts)

	return stats
}

// AccountUtilization returns the fraction of accounts in active status, as a
// percentage. Zero accounts means zero utilization. Callers reconcile the
// accounts first so the figure reflects effective status.
func AccountUtilization(accounts []*database.Account) float64 {
	if len(accounts) == 0 {
		return 0
	}

	var active int
	for _, a := range accounts {
		if a.Status == database.AccountActive {
			active++
		}
	}

	return float64(active) / float64(len(accounts)) * 100
}
