package api

import (
	"context"
	"net/http"
	"time"

	"pph-ledger/internal/cache"
	"pph-ledger/internal/database"
	"pph-ledger/internal/events"
	"pph-ledger/internal/logging"
	"pph-ledger/internal/stats"
	"pph-ledger/internal/vault"

	"github.com/gin-gonic/gin"
)

// AgentRequest carries the fields to create or update an agent. The PayPal
// password and SSN never touch the database; they go to Vault and only the
// secret path and SSN last four are persisted.
type AgentRequest struct {
	Name                 string     `json:"name" binding:"required"`
	BusinessEmail        string     `json:"business_email"`
	PersonalEmail        string     `json:"personal_email"`
	Phone                string     `json:"phone"`
	DateOfBirth          *time.Time `json:"date_of_birth"`
	Address              string     `json:"address"`
	PayPalEmail          string     `json:"paypal_email"`
	PayPalPassword       string     `json:"paypal_password"`
	SSN                  string     `json:"ssn"`
	CommissionPercentage float64    `json:"commission_percentage"`
	FlatCommission       float64    `json:"flat_commission"`
}

func ssnLastFour(ssn string) string {
	if len(ssn) < 4 {
		return ""
	}
	return ssn[len(ssn)-4:]
}

// storeAgentSecrets writes the sensitive fields to Vault and stamps the agent
// with the resulting path. A Vault failure aborts the request rather than
// persisting an agent whose credentials were lost.
func (s *Server) storeAgentSecrets(c *gin.Context, agent *database.Agent, req *AgentRequest) bool {
	if s.vaultClient == nil || (req.PayPalPassword == "" && req.SSN == "") {
		return true
	}
	path, err := s.vaultClient.StoreAgentSecret(c.Request.Context(), agent.ID, vault.AgentSecretData{
		PayPalEmail:    req.PayPalEmail,
		PayPalPassword: req.PayPalPassword,
		SSN:            req.SSN,
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to store agent credentials")
		return false
	}
	agent.VaultSecretPath = path
	return true
}

// handleListAgents returns all agents with their aggregate stats
// GET /api/admin/agents
func (s *Server) handleListAgents(c *gin.Context) {
	ctx := c.Request.Context()

	agents, err := s.repo.ListAgents(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load agents")
		return
	}

	type agentWithStats struct {
		*database.Agent
		Stats *stats.AgentStats `json:"stats,omitempty"`
	}

	views := make([]agentWithStats, 0, len(agents))
	for _, agent := range agents {
		view := agentWithStats{Agent: agent}
		if st, err := s.agentStats(ctx, agent); err == nil {
			view.Stats = st
		}
		views = append(views, view)
	}

	successResponse(c, views)
}

// handleGetAgent returns one agent with their accounts
// GET /api/admin/agents/:id
func (s *Server) handleGetAgent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	agent, err := s.repo.GetAgentByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load agent")
		return
	}
	if agent == nil {
		errorResponse(c, http.StatusNotFound, "agent not found")
		return
	}

	accounts, err := s.repo.ListAccountsByAgent(ctx, agent.ID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load agent accounts")
		return
	}

	successResponse(c, gin.H{
		"agent":    agent,
		"accounts": accounts,
	})
}

// agentStats computes an agent's aggregates, served from cache when fresh
func (s *Server) agentStats(ctx context.Context, agent *database.Agent) (*stats.AgentStats, error) {
	if s.cacheSvc != nil {
		var cached stats.AgentStats
		if err := s.cacheSvc.GetJSON(ctx, cache.AgentStatsKey(agent.ID), &cached); err == nil {
			return &cached, nil
		}
	}

	accounts, err := s.repo.ListAccountsByAgent(ctx, agent.ID)
	if err != nil {
		return nil, err
	}

	allEntries := make([]*database.Entry, 0)
	for _, account := range accounts {
		entries, err := s.repo.ListEntries(ctx, database.EntryFilter{AccountID: account.ID})
		if err != nil {
			return nil, err
		}
		allEntries = append(allEntries, entries...)
	}

	st := stats.ComputeAgentStats(agent, accounts, allEntries)

	if s.cacheSvc != nil {
		s.cacheSvc.SetJSON(ctx, cache.AgentStatsKey(agent.ID), &st, cache.DefaultStatsTTL)
	}
	return &st, nil
}

// handleGetAgentStats returns an agent's aggregate performance
// GET /api/admin/agents/:id/stats
func (s *Server) handleGetAgentStats(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	agent, err := s.repo.GetAgentByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load agent")
		return
	}
	if agent == nil {
		errorResponse(c, http.StatusNotFound, "agent not found")
		return
	}

	st, err := s.agentStats(ctx, agent)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to compute agent stats")
		return
	}

	successResponse(c, st)
}

// handleGetAgentCredentials returns the agent's sensitive credentials from
// Vault. Admin only; the values never appear in list or detail responses.
// GET /api/admin/agents/:id/credentials
func (s *Server) handleGetAgentCredentials(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if s.vaultClient == nil {
		errorResponse(c, http.StatusServiceUnavailable, "credential storage is not configured")
		return
	}

	ctx := c.Request.Context()

	agent, err := s.repo.GetAgentByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load agent")
		return
	}
	if agent == nil {
		errorResponse(c, http.StatusNotFound, "agent not found")
		return
	}

	secret, err := s.vaultClient.GetAgentSecret(ctx, agent.ID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to read agent credentials")
		return
	}
	if secret == nil {
		errorResponse(c, http.StatusNotFound, "no credentials stored for agent")
		return
	}

	successResponse(c, secret)
}

// handleCreateAgent creates a new agent
// POST /api/admin/agents
func (s *Server) handleCreateAgent(c *gin.Context) {
	var req AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.CommissionPercentage < 0 || req.CommissionPercentage > 100 {
		errorResponse(c, http.StatusBadRequest, "commission_percentage must be between 0 and 100")
		return
	}

	ctx := c.Request.Context()

	agent := &database.Agent{
		Name:                 req.Name,
		BusinessEmail:        req.BusinessEmail,
		PersonalEmail:        req.PersonalEmail,
		Phone:                req.Phone,
		DateOfBirth:          req.DateOfBirth,
		Address:              req.Address,
		SSNLastFour:          ssnLastFour(req.SSN),
		PayPalEmail:          req.PayPalEmail,
		CommissionPercentage: req.CommissionPercentage,
		FlatCommission:       req.FlatCommission,
	}

	if err := s.repo.CreateAgent(ctx, agent); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create agent")
		return
	}

	if !s.storeAgentSecrets(c, agent, &req) {
		return
	}
	if agent.VaultSecretPath != "" {
		if err := s.repo.UpdateAgent(ctx, agent); err != nil {
			errorResponse(c, http.StatusInternalServerError, "failed to record credential path")
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": agent})
}

// handleUpdateAgent updates an agent's details and rotates their Vault
// credentials when new ones are supplied
// PUT /api/admin/agents/:id
func (s *Server) handleUpdateAgent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.CommissionPercentage < 0 || req.CommissionPercentage > 100 {
		errorResponse(c, http.StatusBadRequest, "commission_percentage must be between 0 and 100")
		return
	}

	ctx := c.Request.Context()

	agent, err := s.repo.GetAgentByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load agent")
		return
	}
	if agent == nil {
		errorResponse(c, http.StatusNotFound, "agent not found")
		return
	}

	agent.Name = req.Name
	agent.BusinessEmail = req.BusinessEmail
	agent.PersonalEmail = req.PersonalEmail
	agent.Phone = req.Phone
	agent.DateOfBirth = req.DateOfBirth
	agent.Address = req.Address
	agent.PayPalEmail = req.PayPalEmail
	agent.CommissionPercentage = req.CommissionPercentage
	agent.FlatCommission = req.FlatCommission
	if req.SSN != "" {
		agent.SSNLastFour = ssnLastFour(req.SSN)
	}

	if !s.storeAgentSecrets(c, agent, &req) {
		return
	}

	if err := s.repo.UpdateAgent(ctx, agent); err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update agent")
		return
	}

	s.eventBus.Publish(events.Event{Type: events.EventAgentUpdated, Data: map[string]interface{}{
		"agent_id": agent.ID,
	}})
	s.invalidateAggregates(ctx)
	successResponse(c, agent)
}

// handleDeleteAgent removes an agent and their Vault credentials. Agents
// with accounts still assigned cannot be removed.
// DELETE /api/admin/agents/:id
func (s *Server) handleDeleteAgent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	agent, err := s.repo.GetAgentByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load agent")
		return
	}
	if agent == nil {
		errorResponse(c, http.StatusNotFound, "agent not found")
		return
	}

	if err := s.repo.DeleteAgent(ctx, agent.ID); err != nil {
		errorResponse(c, http.StatusConflict, err.Error())
		return
	}

	if s.vaultClient != nil && agent.VaultSecretPath != "" {
		if err := s.vaultClient.DeleteAgentSecret(ctx, agent.ID); err != nil {
			logging.AgentContext(agent.ID).Warn("Failed to delete vault credentials", "error", err)
		}
	}

	s.invalidateAggregates(ctx)
	successResponse(c, gin.H{"deleted": agent.ID})
}
