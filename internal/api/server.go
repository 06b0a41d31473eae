package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"pph-ledger/internal/auth"
	"pph-ledger/internal/cache"
	"pph-ledger/internal/database"
	"pph-ledger/internal/events"
	"pph-ledger/internal/lifecycle"
	"pph-ledger/internal/vault"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int           // max requests
	window   time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	// Filter out old requests
	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	repo        *database.Repository
	eventBus    *events.EventBus
	config      ServerConfig
	authService *auth.Service
	authEnabled bool
	vaultClient *vault.Client
	cacheSvc    *cache.CacheService
	policy      *lifecycle.Policy
	rateLimiter *RateLimiter
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins string
	ProductionMode bool
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	repo *database.Repository,
	eventBus *events.EventBus,
	authService *auth.Service,
	vaultClient *vault.Client, // Can be nil if vault is disabled
	cacheSvc *cache.CacheService, // Can be nil if redis is disabled
	policy *lifecycle.Policy,
) *Server {
	// Set Gin mode
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	origins := []string{"http://localhost:5173", "http://localhost:8088"}
	if config.AllowedOrigins != "" {
		origins = strings.Split(config.AllowedOrigins, ",")
	}
	corsConfig.AllowOrigins = origins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		repo:        repo,
		eventBus:    eventBus,
		config:      config,
		authService: authService,
		authEnabled: authService != nil,
		vaultClient: vaultClient,
		cacheSvc:    cacheSvc,
		policy:      policy,
		rateLimiter: NewRateLimiter(240, time.Minute),
	}

	server.setupRoutes()

	// Initialize WebSocket hub for real-time dashboard broadcasting
	InitWebSocketHub(eventBus)

	return server
}

// rateLimitMiddleware creates a middleware that rate limits requests by endpoint
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests to this endpoint. Please slow down.",
				"path":    path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Auth routes (public, no authentication required)
	if s.authEnabled {
		authHandlers := auth.NewHandlers(s.authService)
		authGroup := s.router.Group("/api/auth")
		authHandlers.RegisterRoutes(authGroup, s.authService.GetJWTManager())
	}

	// Auth status endpoint (always available, returns whether auth is enabled)
	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"auth_enabled": s.authEnabled,
		})
	})

	// API routes (protected when auth is enabled)
	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())

	if s.authEnabled {
		api.Use(auth.Middleware(s.authService.GetJWTManager()))
	}

	{
		// Account endpoints
		api.GET("/accounts", s.handleListAccounts)
		api.GET("/accounts/:id", s.handleGetAccount)
		api.GET("/accounts/:id/entries", s.handleGetAccountEntries)

		// Entry endpoints
		api.GET("/entries", s.handleListEntries)
		api.GET("/entries/:id", s.handleGetEntry)
		api.POST("/entries", s.handleSaveEntry)
		api.PATCH("/entries/:id/settlement", s.handleUpdateSettlement)
		api.DELETE("/entries/:id", s.handleDeleteEntry)

		// Dashboard endpoints
		api.GET("/dashboard/summary", s.handleDashboardSummary)

		// Admin endpoints
		admin := api.Group("/admin")
		admin.Use(auth.RequireAdmin())
		{
			admin.POST("/accounts", s.handleCreateAccount)
			admin.PUT("/accounts/:id", s.handleUpdateAccount)
			admin.PATCH("/accounts/:id/status", s.handleUpdateAccountStatus)
			admin.PATCH("/accounts/:id/assign", s.handleAssignAccount)
			admin.DELETE("/accounts/:id", s.handleDeleteAccount)

			admin.GET("/agents", s.handleListAgents)
			admin.GET("/agents/:id", s.handleGetAgent)
			admin.GET("/agents/:id/stats", s.handleGetAgentStats)
			admin.GET("/agents/:id/credentials", s.handleGetAgentCredentials)
			admin.POST("/agents", s.handleCreateAgent)
			admin.PUT("/agents/:id", s.handleUpdateAgent)
			admin.DELETE("/agents/:id", s.handleDeleteAgent)

			admin.GET("/players", s.handleListPlayers)
			admin.GET("/players/:id/stats", s.handleGetPlayerStats)
		}
	}

	// WebSocket endpoint for live dashboard updates
	s.router.GET("/ws", s.handleWebSocket)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Check database health
	dbHealthy := true
	if err := s.repo.HealthCheck(ctx); err != nil {
		dbHealthy = false
	}

	if !dbHealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unhealthy",
		})
		return
	}

	cacheStatus := "disabled"
	if s.cacheSvc != nil {
		if s.cacheSvc.IsHealthy() {
			cacheStatus = "healthy"
		} else {
			cacheStatus = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "healthy",
		"cache":    cacheStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// idParam returns the :id path parameter, rejecting anything that is not a
// UUID before it reaches the database
func idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}

// getUserID returns the user ID from the context, or empty string if not authenticated
func (s *Server) getUserID(c *gin.Context) string {
	if !s.authEnabled {
		// Default admin user ID for backward compatibility when auth is disabled
		return uuid.Nil.String()
	}
	return auth.GetUserID(c)
}

// getUserIDRequired returns the user ID from the context and sends error if not authenticated
func (s *Server) getUserIDRequired(c *gin.Context) (string, bool) {
	userID := s.getUserID(c)
	if userID == "" && s.authEnabled {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "UNAUTHORIZED",
			"message": "authentication required",
		})
		return "", false
	}
	return userID, true
}

// isUserAdmin checks if the current user is an admin
func (s *Server) isUserAdmin(c *gin.Context) bool {
	if !s.authEnabled {
		return true // Admin access when auth is disabled
	}
	return auth.IsAdmin(c)
}

// invalidateAggregates drops cached dashboard aggregates after a write
func (s *Server) invalidateAggregates(ctx context.Context) {
	if s.cacheSvc != nil {
		s.cacheSvc.InvalidateAggregates(ctx)
	}
}
