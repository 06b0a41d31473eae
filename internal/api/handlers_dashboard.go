package api

import (
	"net/http"
	"time"

	"pph-ledger/internal/cache"
	"pph-ledger/internal/database"
	"pph-ledger/internal/stats"

	"github.com/gin-gonic/gin"
)

// DashboardSummary is the headline view the dashboard opens on
type DashboardSummary struct {
	TotalProfitLoss    float64   `json:"total_profit_loss"`
	TotalEndingBalance float64   `json:"total_ending_balance"`
	AccountCount       int64     `json:"account_count"`
	AgentCount         int64     `json:"agent_count"`
	EntryCount         int64     `json:"entry_count"`
	AccountUtilization float64   `json:"account_utilization"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// handleDashboardSummary returns platform-wide totals, cached briefly to keep
// the landing page cheap
// GET /api/dashboard/summary
func (s *Server) handleDashboardSummary(c *gin.Context) {
	ctx := c.Request.Context()

	if s.cacheSvc != nil {
		var cached DashboardSummary
		if err := s.cacheSvc.GetJSON(ctx, cache.DashboardSummaryKey(), &cached); err == nil {
			successResponse(c, cached)
			return
		}
	}

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load accounts")
		return
	}
	entries, err := s.repo.ListEntries(ctx, database.EntryFilter{})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load entries")
		return
	}
	agentCount, err := s.repo.GetAgentCount(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to count agents")
		return
	}

	s.reconcileAccounts(ctx, accounts)

	summary := DashboardSummary{
		TotalProfitLoss:    stats.TotalProfitLoss(entries),
		TotalEndingBalance: stats.TotalEndingBalance(entries),
		AccountCount:       int64(len(accounts)),
		AgentCount:         agentCount,
		EntryCount:         int64(len(entries)),
		AccountUtilization: stats.AccountUtilization(accounts),
		GeneratedAt:        time.Now().UTC(),
	}

	if s.cacheSvc != nil {
		s.cacheSvc.SetJSON(ctx, cache.DashboardSummaryKey(), &summary, cache.DefaultSummaryTTL)
	}

	successResponse(c, summary)
}
