// Package lifecycle derives the effective status of betting accounts from
// their usage and keeps the stored status in sync.
package lifecycle

import (
	"context"

	"github.com/rs/zerolog"

	"pph-ledger/internal/database"
)

// EffectiveStatus projects the status an account should report:
//
//   - locked is manual and never derived away
//   - an account with no entries or no assigned player is unused
//   - inactive is a manual deactivation and survives while usage continues
//   - everything else in use is active
func EffectiveStatus(account *database.Account, hasEntries bool) database.AccountStatus {
	if account.Status == database.AccountLocked {
		return database.AccountLocked
	}
	if !hasEntries || account.AssignedPlayerID == nil {
		return database.AccountUnused
	}
	if account.Status == database.AccountInactive {
		return database.AccountInactive
	}
	return database.AccountActive
}

type statusStore interface {
	UpdateAccountStatus(ctx context.Context, accountID string, status database.AccountStatus) error
}

// Policy reconciles stored account status against the projection. Writes are
// best effort: a failed write is logged and the projected status is served
// anyway, so a read-path repair never turns into a request failure.
type Policy struct {
	store  statusStore
	logger zerolog.Logger
}

func NewPolicy(store statusStore, logger zerolog.Logger) *Policy {
	return &Policy{
		store:  store,
		logger: logger.With().Str("component", "lifecycle").Logger(),
	}
}

// Reconcile returns the account's effective status. The only drift written
// back to storage is a stored unused account that is actually in use; every
// other projection (in particular the forcing to unused) is served in memory
// and the stored status is left alone. The account's Status field is updated
// in place so callers serve the projection regardless of write outcome.
func (p *Policy) Reconcile(ctx context.Context, account *database.Account, hasEntries bool) database.AccountStatus {
	effective := EffectiveStatus(account, hasEntries)
	if effective == account.Status {
		return effective
	}

	if effective == database.AccountActive {
		if err := p.store.UpdateAccountStatus(ctx, account.ID, effective); err != nil {
			p.logger.Warn().
				Err(err).
				Str("account_id", account.ID).
				Str("stored", string(account.Status)).
				Str("effective", string(effective)).
				Msg("failed to persist reconciled account status")
		} else {
			p.logger.Info().
				Str("account_id", account.ID).
				Str("from", string(account.Status)).
				Str("to", string(effective)).
				Msg("account status reconciled")
		}
	}

	account.Status = effective
	return effective
}

// CanDeactivate reports whether a manual active -> inactive toggle is allowed
func CanDeactivate(account *database.Account) bool {
	return account.Status == database.AccountActive
}

// CanActivate reports whether a manual inactive -> active toggle is allowed
func CanActivate(account *database.Account) bool {
	return account.Status == database.AccountInactive
}

// ValidTransition reports whether a manual status change is permitted. Locked
// can only be entered and left by hand; unused is never set manually, it is
// derived.
func ValidTransition(from, to database.AccountStatus) bool {
	if from == to {
		return false
	}
	switch to {
	case database.AccountLocked:
		return true
	case database.AccountActive:
		return from == database.AccountInactive || from == database.AccountLocked || from == database.AccountUnused
	case database.AccountInactive:
		return from == database.AccountActive || from == database.AccountLocked
	default:
		return false
	}
}
