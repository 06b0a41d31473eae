package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pph-ledger/internal/database"
	"pph-ledger/internal/ledger"
	"pph-ledger/internal/logging"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// SaveEntryRequest carries one day's figures for an account. Blank amounts
// ("" or null) are stored as absent, not zero. AccountStatus lets the player
// toggle the account active or inactive while logging the day.
type SaveEntryRequest struct {
	AccountID              string                 `json:"account_id" binding:"required"`
	EntryDate              string                 `json:"entry_date" binding:"required"`
	AccountStatus          database.AccountStatus `json:"account_status"`
	StartingBalance        ledger.Amount          `json:"starting_balance"`
	EndingBalance          ledger.Amount          `json:"ending_balance"`
	RefillAmount           ledger.Amount          `json:"refill_amount"`
	WithdrawalAmount       ledger.Amount          `json:"withdrawal_amount"`
	ComplianceReviewAmount ledger.Amount          `json:"compliance_review_amount"`
	TaxableAmount          ledger.Amount          `json:"taxable_amount"`
	ReferralAmount         ledger.Amount          `json:"referral_amount"`
	Notes                  string                 `json:"notes"`
}

// defaultStartingBalance resolves the starting balance for a save. A legal
// account's very first entry for a day opens at the account's deposit amount
// when the player leaves the field blank.
func defaultStartingBalance(account *database.Account, existing *database.Entry, starting *float64) *float64 {
	if starting != nil || existing != nil {
		return starting
	}
	if account.AccountType == database.AccountTypeLegal {
		return account.DepositAmount
	}
	return nil
}

// resolveEntryStatus validates the player's status toggle and decides what to
// stamp on the entry. The second return reports whether the account record
// must be updated to match.
func resolveEntryStatus(requested, current database.AccountStatus) (database.AccountStatus, bool, error) {
	if requested == "" {
		return current, false, nil
	}
	if requested != database.AccountActive && requested != database.AccountInactive {
		return "", false, fmt.Errorf("account_status must be active or inactive")
	}
	if current == database.AccountLocked {
		return "", false, fmt.Errorf("account is locked")
	}
	return requested, requested != current, nil
}

// UpdateSettlementRequest toggles one party's settlement on an entry
type UpdateSettlementRequest struct {
	Party   string        `json:"party" binding:"required"`
	Settled bool          `json:"settled"`
	Amount  ledger.Amount `json:"amount"`
}

// parseDateParam reads a YYYY-MM-DD query parameter. Returns ok=false when
// the parameter is absent; a malformed value aborts the request.
func parseDateParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, name+" must be YYYY-MM-DD")
		c.Abort()
		return nil, false
	}
	return &t, true
}

// handleSaveEntry creates or overwrites the entry for an account and day.
// A repeated save for the same account and date replaces the prior figures.
// POST /api/entries
func (s *Server) handleSaveEntry(c *gin.Context) {
	var req SaveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entryDate, err := time.Parse(dateLayout, req.EntryDate)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "entry_date must be YYYY-MM-DD")
		return
	}

	ctx := c.Request.Context()

	account, err := s.repo.GetAccountByID(ctx, req.AccountID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		errorResponse(c, http.StatusNotFound, "account not found")
		return
	}

	existing, err := s.repo.GetEntryByAccountAndDate(ctx, account.ID, req.EntryDate)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to check existing entry")
		return
	}

	s.policy.Reconcile(ctx, account, true)

	status, propagate, err := resolveEntryStatus(req.AccountStatus, account.Status)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entry := &database.Entry{
		AccountID:              account.ID,
		PlayerID:               s.getUserID(c),
		EntryDate:              entryDate,
		StartingBalance:        defaultStartingBalance(account, existing, req.StartingBalance.Ptr()),
		EndingBalance:          req.EndingBalance.Ptr(),
		RefillAmount:           req.RefillAmount.Ptr(),
		WithdrawalAmount:       req.WithdrawalAmount.Ptr(),
		ComplianceReviewAmount: req.ComplianceReviewAmount.Ptr(),
		TaxableAmount:          req.TaxableAmount.Ptr(),
		ReferralAmount:         req.ReferralAmount.Ptr(),
		AccountStatusAtEntry:   status,
		Notes:                  req.Notes,
	}
	ledger.ComputeEntryProfitLoss(entry)

	if err := s.repo.SaveEntry(ctx, entry); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to save entry")
		return
	}

	// The player's toggle wins over the stored status. The account write is a
	// separate best-effort step; the entry keeps the stamped status either way.
	if propagate {
		from := account.Status
		if err := s.repo.UpdateAccountStatus(ctx, account.ID, status); err != nil {
			logging.AccountContext(account.ID, string(account.AccountType)).
				Warn("Failed to propagate entry status to account", "error", err)
		} else {
			account.Status = status
			s.eventBus.PublishAccountStatusChanged(account.ID, string(from), string(status))
		}
	}

	logging.EntryContext(entry.AccountID, entry.PlayerID, entry.EntryDate.Format(dateLayout)).
		Info("Entry saved", "profit_loss", entry.ProfitLoss)

	s.eventBus.PublishEntrySaved(entry.ID, entry.AccountID, entry.PlayerID,
		entry.EntryDate.Format(dateLayout), entry.ProfitLoss)
	s.invalidateAggregates(ctx)

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": entry})
}

// handleListEntries returns entries narrowed by the optional filters,
// newest first
// GET /api/entries?account_id=&player_id=&from=&to=&limit=
func (s *Server) handleListEntries(c *gin.Context) {
	filter := database.EntryFilter{
		AccountID: c.Query("account_id"),
		PlayerID:  c.Query("player_id"),
	}
	// Players only see their own entries
	if !s.isUserAdmin(c) {
		filter.PlayerID = s.getUserID(c)
	}
	if from, ok := parseDateParam(c, "from"); ok {
		filter.DateFrom = from
	} else if c.IsAborted() {
		return
	}
	if to, ok := parseDateParam(c, "to"); ok {
		filter.DateTo = to
	} else if c.IsAborted() {
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			errorResponse(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := s.repo.ListEntries(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load entries")
		return
	}

	successResponse(c, entries)
}

// handleGetEntry returns a single entry
// GET /api/entries/:id
func (s *Server) handleGetEntry(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	entry, err := s.repo.GetEntryByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if entry == nil {
		errorResponse(c, http.StatusNotFound, "entry not found")
		return
	}
	successResponse(c, entry)
}

// handleUpdateSettlement records that a party has been paid out for an entry
// PATCH /api/entries/:id/settlement
func (s *Server) handleUpdateSettlement(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	entry, err := s.repo.GetEntryByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if entry == nil {
		errorResponse(c, http.StatusNotFound, "entry not found")
		return
	}

	settlement := database.SettlementParty{
		Settled: req.Settled,
		Amount:  req.Amount.Or(0),
	}
	switch req.Party {
	case "clicker":
		entry.ClickerSettlement = settlement
	case "agent":
		entry.AgentSettlement = settlement
	case "company":
		entry.CompanySettlement = settlement
	default:
		errorResponse(c, http.StatusBadRequest, "party must be clicker, agent or company")
		return
	}

	if err := s.repo.UpdateEntrySettlement(ctx, entry); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update settlement")
		return
	}

	logging.SettlementContext(entry.ID, req.Party).Info("Settlement updated", "settled", req.Settled)

	s.eventBus.PublishEntrySettled(entry.ID, entry.AccountID, req.Party,
		req.Settled, req.Amount.Or(0))
	successResponse(c, entry)
}

// handleDeleteEntry removes an entry. Players may remove only their own;
// admins may remove any.
// DELETE /api/entries/:id
func (s *Server) handleDeleteEntry(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	entry, err := s.repo.GetEntryByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if entry == nil {
		errorResponse(c, http.StatusNotFound, "entry not found")
		return
	}

	if !s.isUserAdmin(c) && entry.PlayerID != s.getUserID(c) {
		errorResponse(c, http.StatusForbidden, "entry belongs to another player")
		return
	}

	if err := s.repo.DeleteEntry(ctx, entry.ID); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete entry")
		return
	}

	s.eventBus.PublishEntryDeleted(entry.ID, entry.AccountID)
	s.invalidateAggregates(ctx)
	successResponse(c, gin.H{"deleted": entry.ID})
}
