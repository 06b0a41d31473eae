package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, account_type, agent_id, assigned_player_id, status,
	referral_percentage,
	COALESCE(username, ''), COALESCE(website_url, ''), COALESCE(password, ''),
	COALESCE(deal, ''), COALESCE(ip_address, ''),
	COALESCE(display_name, ''), share_percentage, deposit_amount,
	created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.ID, &account.AccountType, &account.AgentID, &account.AssignedPlayerID,
		&account.Status, &account.ReferralPercentage,
		&account.Username, &account.WebsiteURL, &account.Password,
		&account.Deal, &account.IPAddress,
		&account.DisplayName, &account.SharePercentage, &account.DepositAmount,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount creates a new betting account
func (r *Repository) CreateAccount(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (
			account_type, agent_id, assigned_player_id, status, referral_percentage,
			username, website_url, password, deal, ip_address,
			display_name, share_percentage, deposit_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	if account.Status == "" {
		account.Status = AccountUnused
	}

	err := r.db.Pool.QueryRow(ctx, query,
		account.AccountType,
		account.AgentID,
		account.AssignedPlayerID,
		account.Status,
		account.ReferralPercentage,
		account.Username,
		account.WebsiteURL,
		account.Password,
		account.Deal,
		account.IPAddress,
		account.DisplayName,
		account.SharePercentage,
		account.DepositAmount,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves an account by ID
func (r *Repository) GetAccountByID(ctx context.Context, accountID string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.Pool.QueryRow(ctx, query, accountID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// ListAccounts retrieves all accounts, newest first
func (r *Repository) ListAccounts(ctx context.Context) ([]*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`
	return r.queryAccounts(ctx, query)
}

// ListAccountsByAgent retrieves all accounts owned by an agent
func (r *Repository) ListAccountsByAgent(ctx context.Context, agentID string) ([]*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE agent_id = $1 ORDER BY created_at DESC`
	return r.queryAccounts(ctx, query, agentID)
}

// ListAccountsByPlayer retrieves all accounts assigned to a player
func (r *Repository) ListAccountsByPlayer(ctx context.Context, playerID string) ([]*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE assigned_player_id = $1 ORDER BY created_at DESC`
	return r.queryAccounts(ctx, query, playerID)
}

func (r *Repository) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]*Account, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// UpdateAccount updates an account's details
func (r *Repository) UpdateAccount(ctx context.Context, account *Account) error {
	query := `
		UPDATE accounts SET
			account_type = $2,
			agent_id = $3,
			assigned_player_id = $4,
			status = $5,
			referral_percentage = $6,
			username = $7,
			website_url = $8,
			password = $9,
			deal = $10,
			ip_address = $11,
			display_name = $12,
			share_percentage = $13,
			deposit_amount = $14
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		account.ID,
		account.AccountType,
		account.AgentID,
		account.AssignedPlayerID,
		account.Status,
		account.ReferralPercentage,
		account.Username,
		account.WebsiteURL,
		account.Password,
		account.Deal,
		account.IPAddress,
		account.DisplayName,
		account.SharePercentage,
		account.DepositAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found")
	}

	return nil
}

// UpdateAccountStatus persists a status transition without touching other fields
func (r *Repository) UpdateAccountStatus(ctx context.Context, accountID string, status AccountStatus) error {
	query := `UPDATE accounts SET status = $2 WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, accountID, status)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found")
	}

	return nil
}

// AssignAccountPlayer sets or clears the player an account is assigned to
func (r *Repository) AssignAccountPlayer(ctx context.Context, accountID string, playerID *string) error {
	query := `UPDATE accounts SET assigned_player_id = $2 WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, accountID, playerID)
	if err != nil {
		return fmt.Errorf("failed to assign account player: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found")
	}

	return nil
}

// DeleteAccount deletes an account and its entries
func (r *Repository) DeleteAccount(ctx context.Context, accountID string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM entries WHERE account_id = $1", accountID); err != nil {
		return fmt.Errorf("failed to delete account entries: %w", err)
	}

	result, err := tx.Exec(ctx, "DELETE FROM accounts WHERE id = $1", accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found")
	}

	return tx.Commit(ctx)
}

// GetAccountCount returns the total number of accounts
func (r *Repository) GetAccountCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
