package api

import (
	"net/http"

	"pph-ledger/internal/cache"
	"pph-ledger/internal/database"
	"pph-ledger/internal/stats"

	"github.com/gin-gonic/gin"
)

// handleListPlayers returns all player users with the accounts assigned to
// each
// GET /api/admin/players
func (s *Server) handleListPlayers(c *gin.Context) {
	ctx := c.Request.Context()

	players, err := s.repo.ListPlayers(ctx)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load players")
		return
	}

	type playerView struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		DisplayName  string `json:"display_name"`
		AccountCount int    `json:"account_count"`
	}

	views := make([]playerView, 0, len(players))
	for _, p := range players {
		accounts, err := s.repo.ListAccountsByPlayer(ctx, p.ID)
		if err != nil {
			errorResponse(c, http.StatusInternalServerError, "failed to load player accounts")
			return
		}
		views = append(views, playerView{
			ID:           p.ID,
			Email:        p.Email,
			DisplayName:  p.DisplayName,
			AccountCount: len(accounts),
		})
	}

	successResponse(c, views)
}

// handleGetPlayerStats returns one player's aggregate performance
// GET /api/admin/players/:id/stats
func (s *Server) handleGetPlayerStats(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	player, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load player")
		return
	}
	if player == nil {
		errorResponse(c, http.StatusNotFound, "player not found")
		return
	}

	if s.cacheSvc != nil {
		var cached stats.PlayerStats
		if err := s.cacheSvc.GetJSON(ctx, cache.PlayerStatsKey(player.ID), &cached); err == nil {
			successResponse(c, cached)
			return
		}
	}

	entries, err := s.repo.ListEntries(ctx, database.EntryFilter{PlayerID: player.ID})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load player entries")
		return
	}

	st := stats.ComputePlayerStats(player.ID, entries)

	if s.cacheSvc != nil {
		s.cacheSvc.SetJSON(ctx, cache.PlayerStatsKey(player.ID), &st, cache.DefaultStatsTTL)
	}

	successResponse(c, st)
}
