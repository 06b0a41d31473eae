package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, name, COALESCE(business_email, ''), COALESCE(personal_email, ''),
	COALESCE(phone, ''), date_of_birth, COALESCE(address, ''), COALESCE(ssn_last_four, ''),
	COALESCE(paypal_email, ''), COALESCE(vault_secret_path, ''),
	commission_percentage, flat_commission, created_at, updated_at`

func scanAgent(row pgx.Row) (*Agent, error) {
	agent := &Agent{}
	err := row.Scan(
		&agent.ID, &agent.Name, &agent.BusinessEmail, &agent.PersonalEmail,
		&agent.Phone, &agent.DateOfBirth, &agent.Address, &agent.SSNLastFour,
		&agent.PayPalEmail, &agent.VaultSecretPath,
		&agent.CommissionPercentage, &agent.FlatCommission,
		&agent.CreatedAt, &agent.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// CreateAgent creates a new account holder
func (r *Repository) CreateAgent(ctx context.Context, agent *Agent) error {
	query := `
		INSERT INTO agents (
			name, business_email, personal_email, phone, date_of_birth, address,
			ssn_last_four, paypal_email, vault_secret_path, commission_percentage, flat_commission
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		agent.Name,
		agent.BusinessEmail,
		agent.PersonalEmail,
		agent.Phone,
		agent.DateOfBirth,
		agent.Address,
		agent.SSNLastFour,
		agent.PayPalEmail,
		agent.VaultSecretPath,
		agent.CommissionPercentage,
		agent.FlatCommission,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return nil
}

// GetAgentByID retrieves an agent by ID
func (r *Repository) GetAgentByID(ctx context.Context, agentID string) (*Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	agent, err := scanAgent(r.db.Pool.QueryRow(ctx, query, agentID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return agent, nil
}

// ListAgents retrieves all agents ordered by name
func (r *Repository) ListAgents(ctx context.Context) ([]*Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents ORDER BY name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var agents []*Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}

	return agents, nil
}

// UpdateAgent updates an agent's profile and commission terms
func (r *Repository) UpdateAgent(ctx context.Context, agent *Agent) error {
	query := `
		UPDATE agents SET
			name = $2,
			business_email = $3,
			personal_email = $4,
			phone = $5,
			date_of_birth = $6,
			address = $7,
			ssn_last_four = $8,
			paypal_email = $9,
			vault_secret_path = $10,
			commission_percentage = $11,
			flat_commission = $12
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		agent.ID,
		agent.Name,
		agent.BusinessEmail,
		agent.PersonalEmail,
		agent.Phone,
		agent.DateOfBirth,
		agent.Address,
		agent.SSNLastFour,
		agent.PayPalEmail,
		agent.VaultSecretPath,
		agent.CommissionPercentage,
		agent.FlatCommission,
	)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("agent not found")
	}

	return nil
}

// DeleteAgent deletes an agent. Fails while accounts still reference the
// agent; callers must reassign or delete those accounts first.
func (r *Repository) DeleteAgent(ctx context.Context, agentID string) error {
	var accountCount int64
	err := r.db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM accounts WHERE agent_id = $1", agentID,
	).Scan(&accountCount)
	if err != nil {
		return fmt.Errorf("failed to check agent accounts: %w", err)
	}
	if accountCount > 0 {
		return fmt.Errorf("agent has %d accounts assigned", accountCount)
	}

	query := `DELETE FROM agents WHERE id = $1`
	result, err := r.db.Pool.Exec(ctx, query, agentID)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("agent not found")
	}
	return nil
}

// GetAgentCount returns the total number of agents
func (r *Repository) GetAgentCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM agents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return count, nil
}
