// Package search filters the account list for the dashboard. Filters are
// conjunctive: each one narrows the previous result, and the outcome does not
// depend on the order they are applied in.
package search

import (
	"strings"

	"pph-ledger/internal/database"
)

// AccountFilter narrows the account list; zero values mean "no constraint"
type AccountFilter struct {
	Text    string
	Status  database.AccountStatus
	Type    database.AccountType
	AgentID string
}

// Index resolves agent and player IDs to display names so free-text search
// can match on them. Build one per request from the loaded rows.
type Index struct {
	agentNames  map[string]string
	playerNames map[string]string
}

func NewIndex(agents []*database.Agent, players []*database.User) *Index {
	ix := &Index{
		agentNames:  make(map[string]string, len(agents)),
		playerNames: make(map[string]string, len(players)),
	}
	for _, a := range agents {
		ix.agentNames[a.ID] = a.Name
	}
	for _, p := range players {
		name := p.DisplayName
		if name == "" {
			name = p.Email
		}
		ix.playerNames[p.ID] = name
	}
	return ix
}

// AgentName returns the display name for an agent, or a placeholder when the
// agent record is missing
func (ix *Index) AgentName(agentID string) string {
	if name, ok := ix.agentNames[agentID]; ok {
		return name
	}
	return "Unknown Agent"
}

// PlayerName returns the display name for a player, or empty when unassigned
// or missing
func (ix *Index) PlayerName(playerID *string) string {
	if playerID == nil {
		return ""
	}
	return ix.playerNames[*playerID]
}

// FilterAccounts applies every constraint in the filter. Text search is a
// case-insensitive substring match over the account label, website, agent
// name, and assigned player name.
func (ix *Index) FilterAccounts(accounts []*database.Account, filter AccountFilter) []*database.Account {
	needle := strings.ToLower(strings.TrimSpace(filter.Text))

	var out []*database.Account
	for _, a := range accounts {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Type != "" && a.AccountType != filter.Type {
			continue
		}
		if filter.AgentID != "" && a.AgentID != filter.AgentID {
			continue
		}
		if needle != "" && !ix.matchesText(a, needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (ix *Index) matchesText(a *database.Account, needle string) bool {
	if strings.Contains(strings.ToLower(a.Label()), needle) {
		return true
	}
	if a.WebsiteURL != nil && strings.Contains(strings.ToLower(*a.WebsiteURL), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(ix.AgentName(a.AgentID)), needle) {
		return true
	}
	if name := ix.PlayerName(a.AssignedPlayerID); name != "" &&
		strings.Contains(strings.ToLower(name), needle) {
		return true
	}
	return false
}
