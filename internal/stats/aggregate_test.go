package stats

import (
	"testing"
	"time"

	"pph-ledger/internal/database"
)

func floatEquals(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func f(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func entry(accountID, playerID, date string, profit float64) *database.Entry {
	return &database.Entry{
		AccountID:  accountID,
		PlayerID:   playerID,
		EntryDate:  day(date),
		ProfitLoss: profit,
	}
}

func TestTotalProfitLoss(t *testing.T) {
	entries := []*database.Entry{
		entry("a1", "p1", "2026-08-01", 250),
		entry("a1", "p1", "2026-08-02", -100),
		entry("a2", "p2", "2026-08-02", 75.5),
	}

	if got := TotalProfitLoss(entries); !floatEquals(got, 225.5, 0.0001) {
		t.Errorf("TotalProfitLoss() = %v, want 225.5", got)
	}
	if got := TotalProfitLoss(nil); got != 0 {
		t.Errorf("TotalProfitLoss(nil) = %v, want 0", got)
	}
}

func TestTotalEndingBalanceSkipsBlanks(t *testing.T) {
	entries := []*database.Entry{
		{AccountID: "a1", EndingBalance: f(1000)},
		{AccountID: "a2", EndingBalance: nil},
		{AccountID: "a3", EndingBalance: f(500)},
	}

	if got := TotalEndingBalance(entries); !floatEquals(got, 1500, 0.0001) {
		t.Errorf("TotalEndingBalance() = %v, want 1500", got)
	}
}

func TestEntriesForAccountOrdering(t *testing.T) {
	entries := []*database.Entry{
		entry("a1", "p1", "2026-08-01", 10),
		entry("a2", "p1", "2026-08-05", 20),
		entry("a1", "p1", "2026-08-03", 30),
		entry("a1", "p1", "2026-08-02", 40),
	}

	got := EntriesForAccount(entries, "a1")
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	wantDates := []string{"2026-08-03", "2026-08-02", "2026-08-01"}
	for i, want := range wantDates {
		if got[i].EntryDate.Format("2006-01-02") != want {
			t.Errorf("entry %d: date = %s, want %s", i, got[i].EntryDate.Format("2006-01-02"), want)
		}
	}
}

func TestEntryForDateLatestWrittenWins(t *testing.T) {
	older := entry("a1", "p1", "2026-08-01", 100)
	older.CreatedAt = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := entry("a1", "p1", "2026-08-01", 200)
	newer.CreatedAt = time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)

	got := EntryForDate([]*database.Entry{older, newer}, "a1", "2026-08-01")
	if got == nil || got.ProfitLoss != 200 {
		t.Errorf("expected the most recently written entry to win, got %+v", got)
	}

	if got := EntryForDate([]*database.Entry{older}, "a1", "2026-08-09"); got != nil {
		t.Errorf("expected nil for a day with no entry, got %+v", got)
	}
}

func TestComputeAgentStats(t *testing.T) {
	agent := &database.Agent{
		ID:                   "ag1",
		Name:                 "John Smith",
		CommissionPercentage: 10,
		FlatCommission:       50,
	}
	p1, p2 := "p1", "p2"
	accounts := []*database.Account{
		{ID: "a1", AgentID: "ag1", AssignedPlayerID: &p1},
		{ID: "a2", AgentID: "ag1", AssignedPlayerID: &p2},
		{ID: "a3", AgentID: "ag1", AssignedPlayerID: &p1},
		{ID: "a4", AgentID: "other"},
	}
	entries := []*database.Entry{
		entry("a1", "p1", "2026-08-01", 1200),
		entry("a2", "p2", "2026-08-01", 800),
		entry("a4", "p3", "2026-08-01", 9999),
	}

	got := ComputeAgentStats(agent, accounts, entries)

	if got.AccountCount != 3 {
		t.Errorf("AccountCount = %d, want 3", got.AccountCount)
	}
	if got.PlayerCount != 2 {
		t.Errorf("PlayerCount = %d, want 2 (distinct players)", got.PlayerCount)
	}
	if !floatEquals(got.TotalProfit, 2000, 0.0001) {
		t.Errorf("TotalProfit = %v, want 2000", got.TotalProfit)
	}
	if !floatEquals(got.CommissionEarned, 200, 0.0001) {
		t.Errorf("CommissionEarned = %v, want 200", got.CommissionEarned)
	}
	if !floatEquals(got.FlatCommission, 50, 0.0001) {
		t.Errorf("FlatCommission = %v, want 50", got.FlatCommission)
	}
}

func TestComputePlayerStats(t *testing.T) {
	entries := []*database.Entry{
		entry("a1", "p1", "2026-08-01", 100),
		entry("a1", "p1", "2026-08-02", -30),
		entry("a2", "p1", "2026-08-02", 45),
		entry("a3", "p2", "2026-08-02", 500),
	}

	got := ComputePlayerStats("p1", entries)

	if got.EntryCount != 3 {
		t.Errorf("EntryCount = %d, want 3", got.EntryCount)
	}
	if got.AccountCount != 2 {
		t.Errorf("AccountCount = %d, want 2", got.AccountCount)
	}
	if !floatEquals(got.TotalProfit, 115, 0.0001) {
		t.Errorf("TotalProfit = %v, want 115", got.TotalProfit)
	}
}

func TestAccountUtilization(t *testing.T) {
	accounts := []*database.Account{
		{ID: "a1", Status: database.AccountActive},
		{ID: "a2", Status: database.AccountActive},
		{ID: "a3", Status: database.AccountInactive},
		{ID: "a4", Status: database.AccountUnused},
	}

	if got := AccountUtilization(accounts); !floatEquals(got, 50, 0.0001) {
		t.Errorf("AccountUtilization() = %v, want 50", got)
	}

	// Inactive and locked accounts have usage but do not count as utilized.
	locked := []*database.Account{
		{ID: "a1", Status: database.AccountLocked},
		{ID: "a2", Status: database.AccountInactive},
	}
	if got := AccountUtilization(locked); got != 0 {
		t.Errorf("AccountUtilization(no active) = %v, want 0", got)
	}

	if got := AccountUtilization(nil); got != 0 {
		t.Errorf("AccountUtilization(no accounts) = %v, want 0", got)
	}
}
