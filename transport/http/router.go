package http

import (
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/turfbook/adapters/store"
	"github.com/layer-3/turfbook/ports"
	"golang.org/x/crypto/bcrypt"
)

// Server is a gin implementation of the turf booking REST API. It backs the CLI's
// stub command and the end-to-end tests of the client.
type Server struct {
	sessions *Sessions
	backend  *Backend
	logger   watermill.LoggerAdapter
	logging  bool

	refreshCalls atomic.Int64
}

type serverConfig struct {
	revocations ports.RevocationList
	now         func() time.Time
	accessTTL   time.Duration
	refreshTTL  time.Duration
	rotate      bool
	cost        int
	logger      watermill.LoggerAdapter
	logging     bool
}

// ServerOption configures a Server
type ServerOption func(*serverConfig)

// WithRevocationList stores rotated refresh ids in l instead of in memory
func WithRevocationList(l ports.RevocationList) ServerOption {
	return func(c *serverConfig) { c.revocations = l }
}

// WithClock sets the time source for issued sessions. The tokenizer needs the same clock.
func WithClock(now func() time.Time) ServerOption {
	return func(c *serverConfig) { c.now = now }
}

// WithTTL sets the access and refresh token lifetimes
func WithTTL(access, refresh time.Duration) ServerOption {
	return func(c *serverConfig) {
		c.accessTTL = access
		c.refreshTTL = refresh
	}
}

// WithRefreshRotation makes every refresh revoke the presented refresh token and
// return a new one
func WithRefreshRotation(rotate bool) ServerOption {
	return func(c *serverConfig) { c.rotate = rotate }
}

// WithPasswordCost sets the bcrypt cost
func WithPasswordCost(cost int) ServerOption {
	return func(c *serverConfig) { c.cost = cost }
}

// WithServerLogger sets the logger for internal errors
func WithServerLogger(l watermill.LoggerAdapter) ServerOption {
	return func(c *serverConfig) { c.logger = l }
}

// WithRequestLogging writes one gin access log line per request
func WithRequestLogging(enabled bool) ServerOption {
	return func(c *serverConfig) { c.logging = enabled }
}

// NewServer creates a Server signing tokens with tokenizer
func NewServer(tokenizer ports.Tokenizer, opts ...ServerOption) *Server {
	cfg := serverConfig{
		now:        time.Now,
		accessTTL:  5 * time.Minute,
		refreshTTL: 24 * time.Hour,
		cost:       bcrypt.DefaultCost,
		logger:     watermill.NopLogger{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.revocations == nil {
		cfg.revocations = store.NewMemoryRevocationList(cfg.now)
	}

	return &Server{
		sessions: &Sessions{
			tokenizer:   tokenizer,
			revocations: cfg.revocations,
			now:         cfg.now,
			accessTTL:   cfg.accessTTL,
			refreshTTL:  cfg.refreshTTL,
			rotate:      cfg.rotate,
		},
		backend: newBackend(cfg.cost, cfg.now),
		logger:  cfg.logger,
		logging: cfg.logging,
	}
}

// RefreshCalls reports how many refresh requests the server has received
func (s *Server) RefreshCalls() int64 {
	return s.refreshCalls.Load()
}

// Backend exposes the server state, e.g. for seeding
func (s *Server) Backend() *Backend {
	return s.backend
}

// Router sets up the Gin router with every route under /api
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if s.logging {
		router.Use(gin.Logger())
	}

	api := router.Group("/api")

	user := api.Group("/user")
	{
		user.POST("/register/", s.Register)
		user.POST("/login/", s.Login)
		user.POST("/token/refresh/", s.Refresh)
	}

	protected := api.Group("")
	protected.Use(AuthMiddleware(s.sessions, s.backend))
	{
		protected.GET("/user/profile/", s.Profile)

		protected.GET("/turfs/", s.ListTurfs)
		protected.POST("/turfs/", s.CreateTurf)
		protected.GET("/turfs/:id/", s.GetTurf)
		protected.PATCH("/turfs/:id/", s.UpdateTurf)
		protected.DELETE("/turfs/:id/", s.DeleteTurf)

		protected.GET("/bookings/", s.ListBookings)
		protected.POST("/bookings/", s.CreateBooking)
		protected.DELETE("/bookings/:id/", s.CancelBooking)
	}

	return router
}
