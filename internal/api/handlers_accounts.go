package api

import (
	"context"
	"fmt"
	"net/http"

	"pph-ledger/internal/database"
	"pph-ledger/internal/lifecycle"
	"pph-ledger/internal/logging"
	"pph-ledger/internal/search"
	"pph-ledger/internal/stats"

	"github.com/gin-gonic/gin"
)

// AccountView is an account enriched with resolved names and the reconciled
// status, as the dashboard renders it
type AccountView struct {
	*database.Account
	AgentName  string `json:"agent_name"`
	PlayerName string `json:"player_name,omitempty"`
}

// CreateAccountRequest carries the fields to create or update an account.
// Exactly one variant's fields apply, keyed by AccountType.
type CreateAccountRequest struct {
	AccountType        database.AccountType `json:"account_type" binding:"required"`
	AgentID            string               `json:"agent_id" binding:"required"`
	AssignedPlayerID   *string              `json:"assigned_player_id"`
	ReferralPercentage *float64             `json:"referral_percentage"`

	Username   *string `json:"username"`
	WebsiteURL *string `json:"website_url"`
	Password   *string `json:"password"`
	Deal       *string `json:"deal"`
	IPAddress  *string `json:"ip_address"`

	DisplayName     *string  `json:"display_name"`
	SharePercentage *float64 `json:"share_percentage"`
	DepositAmount   *float64 `json:"deposit_amount"`
}

func validateAccountRequest(req *CreateAccountRequest) error {
	switch req.AccountType {
	case database.AccountTypePPH:
		if req.Username == nil || *req.Username == "" {
			return fmt.Errorf("username is required for pph accounts")
		}
	case database.AccountTypeLegal:
		if req.DisplayName == nil || *req.DisplayName == "" {
			return fmt.Errorf("display_name is required for legal accounts")
		}
	default:
		return fmt.Errorf("account_type must be pph or legal")
	}
	return nil
}

// buildSearchIndex loads agents and players for name resolution
func (s *Server) buildSearchIndex(ctx context.Context) (*search.Index, error) {
	agents, err := s.repo.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	players, err := s.repo.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return search.NewIndex(agents, players), nil
}

// reconcileAccounts repairs drifted statuses against actual usage before the
// accounts are served
func (s *Server) reconcileAccounts(ctx context.Context, accounts []*database.Account) {
	used := make(map[string]bool)
	entries, err := s.repo.ListEntries(ctx, database.EntryFilter{})
	if err == nil {
		for _, e := range entries {
			used[e.AccountID] = true
		}
	}
	for _, a := range accounts {
		s.policy.Reconcile(ctx, a, used[a.ID])
	}
}

// handleListAccounts returns accounts narrowed by the optional filters
// GET /api/accounts?q=&status=&type=&agent_id=
func (s *Server) handleListAccounts(c *gin.Context) {
	ctx := c.Request.Context()

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load accounts")
		return
	}

	index, err := s.buildSearchIndex(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account owners")
		return
	}

	// Players only see accounts assigned to them
	if !s.isUserAdmin(c) {
		accounts = scopeToPlayer(accounts, s.getUserID(c))
	}

	s.reconcileAccounts(ctx, accounts)

	filter := search.AccountFilter{
		Text:    c.Query("q"),
		Status:  database.AccountStatus(c.Query("status")),
		Type:    database.AccountType(c.Query("type")),
		AgentID: c.Query("agent_id"),
	}
	accounts = index.FilterAccounts(accounts, filter)

	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, AccountView{
			Account:    a,
			AgentName:  index.AgentName(a.AgentID),
			PlayerName: index.PlayerName(a.AssignedPlayerID),
		})
	}

	successResponse(c, views)
}

// scopeToPlayer returns the accounts assigned to the given player. The
// result is a fresh slice so the caller's full listing is left intact.
func scopeToPlayer(accounts []*database.Account, playerID string) []*database.Account {
	scoped := make([]*database.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.AssignedPlayerID != nil && *a.AssignedPlayerID == playerID {
			scoped = append(scoped, a)
		}
	}
	return scoped
}

// handleGetAccount returns one account with its entry history, newest first
// GET /api/accounts/:id
func (s *Server) handleGetAccount(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		errorResponse(c, http.StatusNotFound, "account not found")
		return
	}

	entries, err := s.repo.ListEntries(ctx, database.EntryFilter{AccountID: account.ID})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load entries")
		return
	}

	s.policy.Reconcile(ctx, account, len(entries) > 0)

	index, err := s.buildSearchIndex(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account owners")
		return
	}

	successResponse(c, gin.H{
		"account": AccountView{
			Account:    account,
			AgentName:  index.AgentName(account.AgentID),
			PlayerName: index.PlayerName(account.AssignedPlayerID),
		},
		"entries":      entries,
		"total_profit": stats.TotalProfitLoss(entries),
	})
}

// handleGetAccountEntries returns the entries for one account, newest first
// GET /api/accounts/:id/entries?from=&to=
func (s *Server) handleGetAccountEntries(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		errorResponse(c, http.StatusNotFound, "account not found")
		return
	}

	filter := database.EntryFilter{AccountID: account.ID}
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

	entries, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load entries")
		return
	}

	successResponse(c, gin.H{
		"entries":      entries,
		"total_profit": stats.TotalProfitLoss(entries),
	})
}

// handleCreateAccount creates a new account
// POST /api/admin/accounts
func (s *Server) handleCreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateAccountRequest(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	agent, err := s.repo.GetAgentByID(ctx, req.AgentID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to check agent")
		return
	}
	if agent == nil {
		errorResponse(c, http.StatusBadRequest, "agent does not exist")
		return
	}

	account := &database.Account{
		AccountType:        req.AccountType,
		AgentID:            req.AgentID,
		AssignedPlayerID:   req.AssignedPlayerID,
		Status:             database.AccountUnused,
		ReferralPercentage: req.ReferralPercentage,
		Username:           req.Username,
		WebsiteURL:         req.WebsiteURL,
		Password:           req.Password,
		Deal:               req.Deal,
		IPAddress:          req.IPAddress,
		DisplayName:        req.DisplayName,
		SharePercentage:    req.SharePercentage,
		DepositAmount:      req.DepositAmount,
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	s.eventBus.PublishAccountCreated(account.ID, string(account.AccountType), account.AgentID)
	s.invalidateAggregates(ctx)

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": account})
}

// handleUpdateAccount updates an account's details
// PUT /api/admin/accounts/:id
func (s *Server) handleUpdateAccount(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateAccountRequest(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		errorResponse(c, http.StatusNotFound, "account not found")
		return
	}

	account.AccountType = req.AccountType
	account.AgentID = req.AgentID
	account.AssignedPlayerID = req.AssignedPlayerID
	account.ReferralPercentage = req.ReferralPercentage
	account.Username = req.Username
	account.WebsiteURL = req.WebsiteURL
	account.Password = req.Password
	account.Deal = req.Deal
	account.IPAddress = req.IPAddress
	account.DisplayName = req.DisplayName
	account.SharePercentage = req.SharePercentage
	account.DepositAmount = req.DepositAmount

	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update account")
		return
	}

	s.invalidateAggregates(ctx)
	successResponse(c, account)
}

// handleUpdateAccountStatus applies a manual status transition
// PATCH /api/admin/accounts/:id/status
func (s *Server) handleUpdateAccountStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Status database.AccountStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		errorResponse(c, http.StatusNotFound, "account not found")
		return
	}

	if !lifecycle.ValidTransition(account.Status, req.Status) {
		errorResponse(c, http.StatusBadRequest,
			fmt.Sprintf("cannot transition account from %s to %s", account.Status, req.Status))
		return
	}

	from := account.Status
	if err := s.repo.UpdateAccountStatus(ctx, account.ID, req.Status); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update account status")
		return
	}
	account.Status = req.Status

	logging.AccountContext(account.ID, string(account.AccountType)).
		Info("Account status changed", "from", string(from), "to", string(req.Status))

	s.eventBus.PublishAccountStatusChanged(account.ID, string(from), string(req.Status))
	s.invalidateAggregates(ctx)
	successResponse(c, account)
}

// handleAssignAccount sets or clears the player assigned to an account
// PATCH /api/admin/accounts/:id/assign
func (s *Server) handleAssignAccount(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		PlayerID *string `json:"player_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		errorResponse(c, http.StatusNotFound, "account not found")
		return
	}

	if req.PlayerID != nil {
		player, err := s.repo.GetUserByID(ctx, *req.PlayerID)
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "failed to check player")
			return
		}
		if player == nil {
			errorResponse(c, http.StatusBadRequest, "player does not exist")
			return
		}
	}

	if err := s.repo.AssignAccountPlayer(ctx, account.ID, req.PlayerID); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to assign account")
		return
	}
	account.AssignedPlayerID = req.PlayerID

	// Assignment can flip the derived status either way
	hasEntries, err := s.repo.HasEntries(ctx, account.ID)
	if err == nil {
		s.policy.Reconcile(ctx, account, hasEntries)
	}

	if req.PlayerID != nil {
		s.eventBus.PublishAccountAssigned(account.ID, *req.PlayerID)
	}
	s.invalidateAggregates(ctx)
	successResponse(c, account)
}

// handleDeleteAccount deletes an account and its entries
// DELETE /api/admin/accounts/:id
func (s *Server) handleDeleteAccount(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load account")
		return
	}
	if account == nil {
		errorResponse(c, http.StatusNotFound, "account not found")
		return
	}

	if err := s.repo.DeleteAccount(ctx, account.ID); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete account")
		return
	}

	s.invalidateAggregates(ctx)
	successResponse(c, gin.H{"deleted": account.ID})
}
