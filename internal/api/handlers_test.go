package api

import (
	"testing"

	"pph-ledger/internal/database"
)

func strPtr(s string) *string {
	return &s
}

func TestValidateAccountRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateAccountRequest
		wantErr bool
	}{
		{
			name: "valid pph account",
			req: CreateAccountRequest{
				AccountType: database.AccountTypePPH,
				AgentID:     "agent-1",
				Username:    strPtr("book_user01"),
			},
			wantErr: false,
		},
		{
			name: "pph account without username",
			req: CreateAccountRequest{
				AccountType: database.AccountTypePPH,
				AgentID:     "agent-1",
			},
			wantErr: true,
		},
		{
			name: "pph account with empty username",
			req: CreateAccountRequest{
				AccountType: database.AccountTypePPH,
				AgentID:     "agent-1",
				Username:    strPtr(""),
			},
			wantErr: true,
		},
		{
			name: "valid legal account",
			req: CreateAccountRequest{
				AccountType: database.AccountTypeLegal,
				AgentID:     "agent-1",
				DisplayName: strPtr("John Smith DraftKings"),
			},
			wantErr: false,
		},
		{
			name: "legal account without display name",
			req: CreateAccountRequest{
				AccountType: database.AccountTypeLegal,
				AgentID:     "agent-1",
			},
			wantErr: true,
		},
		{
			name: "unknown account type",
			req: CreateAccountRequest{
				AccountType: database.AccountType("offshore"),
				AgentID:     "agent-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccountRequest(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccountRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestDefaultStartingBalance(t *testing.T) {
	legal := &database.Account{
		AccountType:   database.AccountTypeLegal,
		DepositAmount: floatPtr(500),
	}
	pph := &database.Account{AccountType: database.AccountTypePPH}
	existing := &database.Entry{}

	tests := []struct {
		name     string
		account  *database.Account
		existing *database.Entry
		starting *float64
		want     *float64
	}{
		{"legal first entry opens at deposit", legal, nil, nil, floatPtr(500)},
		{"explicit starting wins over deposit", legal, nil, floatPtr(750), floatPtr(750)},
		{"repeat save for the day keeps blank blank", legal, existing, nil, nil},
		{"pph account never defaults", pph, nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaultStartingBalance(tt.account, tt.existing, tt.starting)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("defaultStartingBalance() = %v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("defaultStartingBalance() = nil, want %v", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("defaultStartingBalance() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestResolveEntryStatus(t *testing.T) {
	tests := []struct {
		name          string
		requested     database.AccountStatus
		current       database.AccountStatus
		want          database.AccountStatus
		wantPropagate bool
		wantErr       bool
	}{
		{"no toggle keeps current", "", database.AccountActive, database.AccountActive, false, false},
		{"deactivate while logging", database.AccountInactive, database.AccountActive, database.AccountInactive, true, false},
		{"reactivate while logging", database.AccountActive, database.AccountInactive, database.AccountActive, true, false},
		{"toggle matching stored status writes nothing", database.AccountActive, database.AccountActive, database.AccountActive, false, false},
		{"locked cannot be toggled by a player", database.AccountActive, database.AccountLocked, "", false, true},
		{"unused cannot be requested", database.AccountUnused, database.AccountActive, "", false, true},
		{"locked cannot be requested", database.AccountLocked, database.AccountActive, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, propagate, err := resolveEntryStatus(tt.requested, tt.current)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveEntryStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("resolveEntryStatus() status = %s, want %s", got, tt.want)
			}
			if propagate != tt.wantPropagate {
				t.Errorf("resolveEntryStatus() propagate = %v, want %v", propagate, tt.wantPropagate)
			}
		})
	}
}

func TestSSNLastFour(t *testing.T) {
	tests := []struct {
		ssn  string
		want string
	}{
		{"123-45-6789", "6789"},
		{"123456789", "6789"},
		{"678", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ssnLastFour(tt.ssn); got != tt.want {
			t.Errorf("ssnLastFour(%q) = %q, want %q", tt.ssn, got, tt.want)
		}
	}
}

func TestScopeToPlayer(t *testing.T) {
	accounts := []*database.Account{
		{ID: "a1", AssignedPlayerID: strPtr("p1")},
		{ID: "a2", AssignedPlayerID: strPtr("p2")},
		{ID: "a3"},
		{ID: "a4", AssignedPlayerID: strPtr("p1")},
	}

	scoped := scopeToPlayer(accounts, "p1")
	if len(scoped) != 2 || scoped[0].ID != "a1" || scoped[1].ID != "a4" {
		t.Fatalf("scoped = %v", scoped)
	}

	// The full listing must survive the scoping untouched.
	if len(accounts) != 4 {
		t.Fatalf("input slice was truncated to %d accounts", len(accounts))
	}
	for i, want := range []string{"a1", "a2", "a3", "a4"} {
		if accounts[i].ID != want {
			t.Errorf("accounts[%d] = %s, want %s", i, accounts[i].ID, want)
		}
	}

	if got := scopeToPlayer(accounts, "nobody"); len(got) != 0 {
		t.Errorf("unknown player received %d accounts", len(got))
	}
}
