package database

import (
	"time"
)

// AccountType distinguishes the two account variants
type AccountType string

const (
	AccountTypePPH   AccountType = "pph"
	AccountTypeLegal AccountType = "legal"
)

// AccountStatus represents the stored lifecycle state of an account
type AccountStatus string

const (
	AccountUnused   AccountStatus = "unused"
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
	AccountLocked   AccountStatus = "locked"
)

// Account represents a tracked platform credential. The pph variant carries
// login/deal fields; the legal variant carries entity/deposit fields. The two
// sets are mutually exclusive, keyed by AccountType.
type Account struct {
	ID                 string        `json:"id"`
	AccountType        AccountType   `json:"account_type"`
	AgentID            string        `json:"agent_id"`
	AssignedPlayerID   *string       `json:"assigned_player_id,omitempty"`
	Status             AccountStatus `json:"status"`
	ReferralPercentage *float64      `json:"referral_percentage,omitempty"`

	// pph variant
	Username   *string `json:"username,omitempty"`
	WebsiteURL *string `json:"website_url,omitempty"`
	Password   *string `json:"password,omitempty"`
	Deal       *string `json:"deal,omitempty"`
	IPAddress  *string `json:"ip_address,omitempty"`

	// legal variant
	DisplayName     *string  `json:"display_name,omitempty"`
	SharePercentage *float64 `json:"share_percentage,omitempty"`
	DepositAmount   *float64 `json:"deposit_amount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Label returns the human-readable name for an account: the pph username or
// the legal display name, whichever variant is populated.
func (a *Account) Label() string {
	switch a.AccountType {
	case AccountTypePPH:
		if a.Username != nil {
			return *a.Username
		}
	case AccountTypeLegal:
		if a.DisplayName != nil {
			return *a.DisplayName
		}
	}
	return ""
}

// SettlementParty holds one side of the per-entry settlement triple
type SettlementParty struct {
	Settled bool    `json:"settled"`
	Amount  float64 `json:"amount"`
}

// Entry represents one day's financial snapshot for an account. ProfitLoss is
// derived from the four balance fields and is never set directly by a caller;
// nil balance fields mean "left blank" and are treated as 0 in computation.
type Entry struct {
	ID                     string          `json:"id"`
	AccountID              string          `json:"account_id"`
	PlayerID               string          `json:"player_id"`
	EntryDate              time.Time       `json:"entry_date"`
	StartingBalance        *float64        `json:"starting_balance,omitempty"`
	EndingBalance          *float64        `json:"ending_balance,omitempty"`
	RefillAmount           *float64        `json:"refill_amount,omitempty"`
	WithdrawalAmount       *float64        `json:"withdrawal_amount,omitempty"`
	ComplianceReviewAmount *float64        `json:"compliance_review_amount,omitempty"`
	ProfitLoss             float64         `json:"profit_loss"`
	ClickerSettlement      SettlementParty `json:"clicker_settlement"`
	AgentSettlement        SettlementParty `json:"agent_settlement"`
	CompanySettlement      SettlementParty `json:"company_settlement"`
	TaxableAmount          *float64        `json:"taxable_amount,omitempty"`
	ReferralAmount         *float64        `json:"referral_amount,omitempty"`
	AccountStatusAtEntry   AccountStatus   `json:"account_status_at_entry"`
	Notes                  string          `json:"notes,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Agent represents an account holder who owns accounts and earns commission.
// PayPal password and full SSN never touch this struct; they live in Vault at
// VaultSecretPath and only the SSN last four is kept here for display.
type Agent struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	BusinessEmail        string     `json:"business_email,omitempty"`
	PersonalEmail        string     `json:"personal_email,omitempty"`
	Phone                string     `json:"phone,omitempty"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	Address              string     `json:"address,omitempty"`
	SSNLastFour          string     `json:"ssn_last_four,omitempty"`
	PayPalEmail          string     `json:"paypal_email,omitempty"`
	VaultSecretPath      string     `json:"-"` // Never serialize
	CommissionPercentage float64    `json:"commission_percentage"`
	FlatCommission       float64    `json:"flat_commission"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// EntryFilter narrows entry queries; zero values mean "no constraint"
type EntryFilter struct {
	AccountID string
	PlayerID  string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
}
