package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"pph-ledger/internal/database"
)

type fakeStore struct {
	calls []database.AccountStatus
	err   error
}

func (s *fakeStore) UpdateAccountStatus(_ context.Context, _ string, status database.AccountStatus) error {
	s.calls = append(s.calls, status)
	return s.err
}

func strPtr(s string) *string { return &s }

func TestEffectiveStatus(t *testing.T) {
	player := strPtr("p1")

	tests := []struct {
		name       string
		stored     database.AccountStatus
		player     *string
		hasEntries bool
		want       database.AccountStatus
	}{
		{"fresh account is unused", database.AccountUnused, nil, false, database.AccountUnused},
		{"player assigned but no entries stays unused", database.AccountUnused, player, false, database.AccountUnused},
		{"entries but no player stays unused", database.AccountUnused, nil, true, database.AccountUnused},
		{"player and entries becomes active", database.AccountUnused, player, true, database.AccountActive},
		{"active stays active", database.AccountActive, player, true, database.AccountActive},
		{"active reverts to unused when player unassigned", database.AccountActive, nil, true, database.AccountUnused},
		{"manual inactive survives usage", database.AccountInactive, player, true, database.AccountInactive},
		{"inactive with no usage projects unused", database.AccountInactive, player, false, database.AccountUnused},
		{"locked is never derived away", database.AccountLocked, player, true, database.AccountLocked},
		{"locked with no usage stays locked", database.AccountLocked, nil, false, database.AccountLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &database.Account{ID: "a1", Status: tt.stored, AssignedPlayerID: tt.player}
			if got := EffectiveStatus(account, tt.hasEntries); got != tt.want {
				t.Errorf("EffectiveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReconcilePersistsDrift(t *testing.T) {
	store := &fakeStore{}
	policy := NewPolicy(store, zerolog.Nop())

	account := &database.Account{ID: "a1", Status: database.AccountUnused, AssignedPlayerID: strPtr("p1")}

	got := policy.Reconcile(context.Background(), account, true)
	if got != database.AccountActive {
		t.Errorf("Reconcile() = %s, want active", got)
	}
	if len(store.calls) != 1 || store.calls[0] != database.AccountActive {
		t.Errorf("expected one status write of active, got %v", store.calls)
	}
	if account.Status != database.AccountActive {
		t.Errorf("account status not updated in place: %s", account.Status)
	}

	// A second pass sees the repaired status and writes nothing.
	got = policy.Reconcile(context.Background(), account, true)
	if got != database.AccountActive {
		t.Errorf("second Reconcile() = %s, want active", got)
	}
	if len(store.calls) != 1 {
		t.Errorf("reconcile is not idempotent: %d writes", len(store.calls))
	}
}

func TestReconcileNeverPersistsUnused(t *testing.T) {
	tests := []struct {
		name       string
		stored     database.AccountStatus
		player     *string
		hasEntries bool
		want       database.AccountStatus
	}{
		{"active with no entries", database.AccountActive, strPtr("p1"), false, database.AccountUnused},
		{"active with player unassigned", database.AccountActive, nil, true, database.AccountUnused},
		{"inactive with no usage", database.AccountInactive, strPtr("p1"), false, database.AccountUnused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			policy := NewPolicy(store, zerolog.Nop())
			account := &database.Account{ID: "a1", Status: tt.stored, AssignedPlayerID: tt.player}

			got := policy.Reconcile(context.Background(), account, tt.hasEntries)
			if got != tt.want {
				t.Errorf("Reconcile() = %s, want %s", got, tt.want)
			}
			if account.Status != tt.want {
				t.Errorf("projection not served in place: %s", account.Status)
			}
			// The unused projection is read-time only and must never reach storage.
			if len(store.calls) != 0 {
				t.Errorf("unused must not be persisted, got writes %v", store.calls)
			}
		})
	}
}

func TestReconcileNoWriteWhenInSync(t *testing.T) {
	store := &fakeStore{}
	policy := NewPolicy(store, zerolog.Nop())

	account := &database.Account{ID: "a1", Status: database.AccountUnused}
	if got := policy.Reconcile(context.Background(), account, false); got != database.AccountUnused {
		t.Errorf("Reconcile() = %s, want unused", got)
	}
	if len(store.calls) != 0 {
		t.Errorf("expected no writes, got %d", len(store.calls))
	}
}

func TestReconcileServesProjectionOnWriteFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	policy := NewPolicy(store, zerolog.Nop())

	account := &database.Account{ID: "a1", Status: database.AccountUnused, AssignedPlayerID: strPtr("p1")}

	got := policy.Reconcile(context.Background(), account, true)
	if got != database.AccountActive {
		t.Errorf("Reconcile() = %s, want active despite write failure", got)
	}
	if account.Status != database.AccountActive {
		t.Errorf("projection should be served even when the write fails")
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to database.AccountStatus
		want     bool
	}{
		{database.AccountActive, database.AccountInactive, true},
		{database.AccountInactive, database.AccountActive, true},
		{database.AccountActive, database.AccountLocked, true},
		{database.AccountLocked, database.AccountActive, true},
		{database.AccountLocked, database.AccountInactive, true},
		{database.AccountActive, database.AccountActive, false},
		{database.AccountActive, database.AccountUnused, false},
		{database.AccountUnused, database.AccountInactive, false},
	}

	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
