package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config) (*DB, error) {
	// Build connection string
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	// Parse connection string
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	// Configure connection pool
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Create connection pool
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Printf("Successfully connected to PostgreSQL database: %s", cfg.Database)

	return &DB{Pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Println("Database connection closed")
	}
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	log.Println("Running database migrations...")

	migrations := []string{
		// Create users table (players and admins)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(255),
			role VARCHAR(20) NOT NULL DEFAULT 'player',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			last_login_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,

		// Create user_sessions table for refresh token rotation
		`CREATE TABLE IF NOT EXISTS user_sessions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			refresh_token_hash VARCHAR(64) NOT NULL,
			device_info TEXT,
			ip_address VARCHAR(45),
			user_agent TEXT,
			expires_at TIMESTAMP NOT NULL,
			revoked_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_token_hash ON user_sessions(refresh_token_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_user_sessions_user ON user_sessions(user_id)`,

		// Create agents table (account holders)
		`CREATE TABLE IF NOT EXISTS agents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			business_email VARCHAR(255),
			personal_email VARCHAR(255),
			phone VARCHAR(50),
			date_of_birth DATE,
			address TEXT,
			ssn_last_four VARCHAR(4),
			paypal_email VARCHAR(255),
			vault_secret_path VARCHAR(255),
			commission_percentage DECIMAL(10, 4) NOT NULL DEFAULT 0,
			flat_commission DECIMAL(20, 8) NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_name ON agents(name)`,

		// Create accounts table
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_type VARCHAR(10) NOT NULL,
			agent_id UUID NOT NULL REFERENCES agents(id),
			assigned_player_id UUID REFERENCES users(id),
			status VARCHAR(20) NOT NULL DEFAULT 'unused',
			referral_percentage DECIMAL(10, 4),
			username VARCHAR(255),
			website_url VARCHAR(500),
			password VARCHAR(255),
			deal VARCHAR(255),
			ip_address VARCHAR(45),
			display_name VARCHAR(255),
			share_percentage DECIMAL(10, 4),
			deposit_amount DECIMAL(20, 8),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_agent ON accounts(agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_player ON accounts(assigned_player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts(status)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(account_type)`,

		// Create entries table - one row per account per calendar day
		`CREATE TABLE IF NOT EXISTS entries (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id),
			player_id UUID NOT NULL REFERENCES users(id),
			entry_date DATE NOT NULL,
			starting_balance DECIMAL(20, 8),
			ending_balance DECIMAL(20, 8),
			refill_amount DECIMAL(20, 8),
			withdrawal_amount DECIMAL(20, 8),
			compliance_review_amount DECIMAL(20, 8),
			profit_loss DECIMAL(20, 8) NOT NULL DEFAULT 0,
			clicker_settled BOOLEAN NOT NULL DEFAULT FALSE,
			clicker_amount DECIMAL(20, 8) NOT NULL DEFAULT 0,
			agent_settled BOOLEAN NOT NULL DEFAULT FALSE,
			agent_amount DECIMAL(20, 8) NOT NULL DEFAULT 0,
			company_settled BOOLEAN NOT NULL DEFAULT FALSE,
			company_amount DECIMAL(20, 8) NOT NULL DEFAULT 0,
			taxable_amount DECIMAL(20, 8),
			referral_amount DECIMAL(20, 8),
			account_status_at_entry VARCHAR(20) NOT NULL DEFAULT 'active',
			notes TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_account_date ON entries(account_id, entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_player ON entries(player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(entry_date DESC)`,

		// Create updated_at trigger function
		`CREATE OR REPLACE FUNCTION update_updated_at_column()
		RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = CURRENT_TIMESTAMP;
			RETURN NEW;
		END;
		$$ language 'plpgsql'`,

		// Create triggers for updated_at
		`DROP TRIGGER IF EXISTS update_users_updated_at ON users`,
		`CREATE TRIGGER update_users_updated_at BEFORE UPDATE ON users
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_agents_updated_at ON agents`,
		`CREATE TRIGGER update_agents_updated_at BEFORE UPDATE ON agents
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_accounts_updated_at ON accounts`,
		`CREATE TRIGGER update_accounts_updated_at BEFORE UPDATE ON accounts
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,

		`DROP TRIGGER IF EXISTS update_entries_updated_at ON entries`,
		`CREATE TRIGGER update_entries_updated_at BEFORE UPDATE ON entries
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`,
	}

	// Execute migrations
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// HealthCheck performs a database health check
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
