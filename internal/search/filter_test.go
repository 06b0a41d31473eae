package search

import (
	"testing"

	"pph-ledger/internal/database"
)

func strPtr(s string) *string { return &s }

func testFixtures() (*Index, []*database.Account) {
	agents := []*database.Agent{
		{ID: "ag1", Name: "John Smith"},
		{ID: "ag2", Name: "Maria Garcia"},
	}
	players := []*database.User{
		{ID: "p1", DisplayName: "Danny", Email: "danny@example.com"},
		{ID: "p2", DisplayName: "", Email: "kim@example.com"},
	}

	p1, p2 := "p1", "p2"
	accounts := []*database.Account{
		{
			ID: "a1", AccountType: database.AccountTypePPH, AgentID: "ag1",
			AssignedPlayerID: &p1, Status: database.AccountActive,
			Username: strPtr("sharpbettor22"), WebsiteURL: strPtr("https://betsite.example.com"),
		},
		{
			ID: "a2", AccountType: database.AccountTypePPH, AgentID: "ag2",
			Status: database.AccountUnused, Username: strPtr("freshacct"),
		},
		{
			ID: "a3", AccountType: database.AccountTypeLegal, AgentID: "ag1",
			AssignedPlayerID: &p2, Status: database.AccountInactive,
			DisplayName: strPtr("Smith Holdings LLC"),
		},
	}

	return NewIndex(agents, players), accounts
}

func TestFilterAccountsByText(t *testing.T) {
	ix, accounts := testFixtures()

	tests := []struct {
		name    string
		text    string
		wantIDs []string
	}{
		{"matches pph username", "sharpbettor", []string{"a1"}},
		{"matches legal display name", "holdings", []string{"a3"}},
		{"matches agent name across accounts", "smith", []string{"a1", "a3"}},
		{"matches assigned player name", "danny", []string{"a1"}},
		{"player fallback to email", "kim@", []string{"a3"}},
		{"matches website", "betsite", []string{"a1"}},
		{"case insensitive", "SHARP", []string{"a1"}},
		{"no match", "zzz", nil},
		{"blank text matches all", "", []string{"a1", "a2", "a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.FilterAccounts(accounts, AccountFilter{Text: tt.text})
			assertIDs(t, got, tt.wantIDs)
		})
	}
}

func TestFilterAccountsNarrowing(t *testing.T) {
	ix, accounts := testFixtures()

	// Each added constraint narrows the previous result.
	got := ix.FilterAccounts(accounts, AccountFilter{AgentID: "ag1"})
	assertIDs(t, got, []string{"a1", "a3"})

	got = ix.FilterAccounts(accounts, AccountFilter{AgentID: "ag1", Status: database.AccountActive})
	assertIDs(t, got, []string{"a1"})

	got = ix.FilterAccounts(accounts, AccountFilter{AgentID: "ag1", Status: database.AccountActive, Text: "smith"})
	assertIDs(t, got, []string{"a1"})

	got = ix.FilterAccounts(accounts, AccountFilter{Type: database.AccountTypeLegal})
	assertIDs(t, got, []string{"a3"})
}

func TestFilterAccountsOrderIndependent(t *testing.T) {
	ix, accounts := testFixtures()

	// The same constraint set always yields the same rows; the struct has no
	// ordering so this checks combined filters intersect rather than chain.
	a := ix.FilterAccounts(accounts, AccountFilter{Text: "smith", AgentID: "ag1"})
	b := ix.FilterAccounts(ix.FilterAccounts(accounts, AccountFilter{AgentID: "ag1"}), AccountFilter{Text: "smith"})
	c := ix.FilterAccounts(ix.FilterAccounts(accounts, AccountFilter{Text: "smith"}), AccountFilter{AgentID: "ag1"})

	assertIDs(t, a, []string{"a1", "a3"})
	assertIDs(t, b, []string{"a1", "a3"})
	assertIDs(t, c, []string{"a1", "a3"})
}

func TestUnknownAgentPlaceholder(t *testing.T) {
	ix, _ := testFixtures()

	if got := ix.AgentName("missing"); got != "Unknown Agent" {
		t.Errorf("AgentName(missing) = %q, want placeholder", got)
	}
	if got := ix.PlayerName(nil); got != "" {
		t.Errorf("PlayerName(nil) = %q, want empty", got)
	}
}

func assertIDs(t *testing.T, accounts []*database.Account, want []string) {
	t.Helper()
	if len(accounts) != len(want) {
		t.Fatalf("got %d accounts, want %d", len(accounts), len(want))
	}
	for i, id := range want {
		if accounts[i].ID != id {
			t.Errorf("account %d: ID = %s, want %s", i, accounts[i].ID, id)
		}
	}
}
