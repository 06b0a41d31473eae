package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const entryColumns = `id, account_id, player_id, entry_date,
	starting_balance, ending_balance, refill_amount, withdrawal_amount,
	compliance_review_amount, profit_loss,
	clicker_settled, clicker_amount, agent_settled, agent_amount,
	company_settled, company_amount,
	taxable_amount, referral_amount, account_status_at_entry,
	COALESCE(notes, ''), created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	entry := &Entry{}
	err := row.Scan(
		&entry.ID, &entry.AccountID, &entry.PlayerID, &entry.EntryDate,
		&entry.StartingBalance, &entry.EndingBalance, &entry.RefillAmount, &entry.WithdrawalAmount,
		&entry.ComplianceReviewAmount, &entry.ProfitLoss,
		&entry.ClickerSettlement.Settled, &entry.ClickerSettlement.Amount,
		&entry.AgentSettlement.Settled, &entry.AgentSettlement.Amount,
		&entry.CompanySettlement.Settled, &entry.CompanySettlement.Amount,
		&entry.TaxableAmount, &entry.ReferralAmount, &entry.AccountStatusAtEntry,
		&entry.Notes, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SaveEntry inserts an entry, or replaces the existing one for the same
// account and date. One row per account per calendar day; a second save for
// the same day is an edit, not a duplicate.
func (r *Repository) SaveEntry(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO entries (
			account_id, player_id, entry_date,
			starting_balance, ending_balance, refill_amount, withdrawal_amount,
			compliance_review_amount, profit_loss,
			clicker_settled, clicker_amount, agent_settled, agent_amount,
			company_settled, company_amount,
			taxable_amount, referral_amount, account_status_at_entry, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (account_id, entry_date) DO UPDATE SET
			player_id = EXCLUDED.player_id,
			starting_balance = EXCLUDED.starting_balance,
			ending_balance = EXCLUDED.ending_balance,
			refill_amount = EXCLUDED.refill_amount,
			withdrawal_amount = EXCLUDED.withdrawal_amount,
			compliance_review_amount = EXCLUDED.compliance_review_amount,
			profit_loss = EXCLUDED.profit_loss,
			clicker_settled = EXCLUDED.clicker_settled,
			clicker_amount = EXCLUDED.clicker_amount,
			agent_settled = EXCLUDED.agent_settled,
			agent_amount = EXCLUDED.agent_amount,
			company_settled = EXCLUDED.company_settled,
			company_amount = EXCLUDED.company_amount,
			taxable_amount = EXCLUDED.taxable_amount,
			referral_amount = EXCLUDED.referral_amount,
			account_status_at_entry = EXCLUDED.account_status_at_entry,
			notes = EXCLUDED.notes
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		entry.AccountID,
		entry.PlayerID,
		entry.EntryDate,
		entry.StartingBalance,
		entry.EndingBalance,
		entry.RefillAmount,
		entry.WithdrawalAmount,
		entry.ComplianceReviewAmount,
		entry.ProfitLoss,
		entry.ClickerSettlement.Settled,
		entry.ClickerSettlement.Amount,
		entry.AgentSettlement.Settled,
		entry.AgentSettlement.Amount,
		entry.CompanySettlement.Settled,
		entry.CompanySettlement.Amount,
		entry.TaxableAmount,
		entry.ReferralAmount,
		entry.AccountStatusAtEntry,
		entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}

	return nil
}

// GetEntryByID retrieves an entry by ID
func (r *Repository) GetEntryByID(ctx context.Context, entryID string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`

	entry, err := scanEntry(r.db.Pool.QueryRow(ctx, query, entryID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

// GetEntryByAccountAndDate retrieves the entry for an account on a given day
func (r *Repository) GetEntryByAccountAndDate(ctx context.Context, accountID string, date string) (*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE account_id = $1 AND entry_date = $2`

	entry, err := scanEntry(r.db.Pool.QueryRow(ctx, query, accountID, date))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

// ListEntries retrieves entries matching the filter, newest day first
func (r *Repository) ListEntries(ctx context.Context, filter EntryFilter) ([]*Entry, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.AccountID != "" {
		addCondition("account_id = $%d", filter.AccountID)
	}
	if filter.PlayerID != "" {
		addCondition("player_id = $%d", filter.PlayerID)
	}
	if filter.DateFrom != nil {
		addCondition("entry_date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		addCondition("entry_date <= $%d", *filter.DateTo)
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY entry_date DESC, created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// UpdateEntrySettlement updates the settlement flags and amounts in place
func (r *Repository) UpdateEntrySettlement(ctx context.Context, entry *Entry) error {
	query := `
		UPDATE entries SET
			clicker_settled = $2, clicker_amount = $3,
			agent_settled = $4, agent_amount = $5,
			company_settled = $6, company_amount = $7
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		entry.ID,
		entry.ClickerSettlement.Settled, entry.ClickerSettlement.Amount,
		entry.AgentSettlement.Settled, entry.AgentSettlement.Amount,
		entry.CompanySettlement.Settled, entry.CompanySettlement.Amount,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry settlement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("entry not found")
	}

	return nil
}

// DeleteEntry deletes an entry by ID
func (r *Repository) DeleteEntry(ctx context.Context, entryID string) error {
	result, err := r.db.Pool.Exec(ctx, "DELETE FROM entries WHERE id = $1", entryID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("entry not found")
	}
	return nil
}

// HasEntries reports whether an account has at least one entry
func (r *Repository) HasEntries(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM entries WHERE account_id = $1)", accountID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entries: %w", err)
	}
	return exists, nil
}

// GetEntryCount returns the total number of entries
func (r *Repository) GetEntryCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}
