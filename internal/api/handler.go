package api

import (
	"net/http"
	"time"

	"risk-core/internal/events"
	"risk-core/internal/monitor"
	"risk-core/internal/risk"
	"risk-core/pkg/db"

	"github.com/gin-gonic/gin"
)

// Server wires HTTP endpoints around the analyzer and the event bus.
type Server struct {
	Router          *gin.Engine
	Bus             *events.Bus
	DB              *db.Database
	Analyzer        *risk.Analyzer
	Metrics         *monitor.SystemMetrics
	JWTSecret       string
	RunHistoryLimit int
	Version         string
}

func NewServer(bus *events.Bus, database *db.Database, analyzer *risk.Analyzer, metrics *monitor.SystemMetrics, jwtSecret string, runHistoryLimit int, version string) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())               // Panic recovery (first)
	r.Use(RequestIDMiddleware())        // Request ID tracking
	r.Use(RequestLogger(metrics))       // Request logging (after ID is set)
	r.Use(RateLimitMiddleware())        // Rate limiting
	r.Use(TimeoutMiddleware(30 * time.Second)) // Request timeout (30s)
	r.Use(CORSMiddleware())             // CORS (last before routes)

	s := &Server{
		Router:          r,
		Bus:             bus,
		DB:              database,
		Analyzer:        analyzer,
		Metrics:         metrics,
		JWTSecret:       jwtSecret,
		RunHistoryLimit: runHistoryLimit,
		Version:         version,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/metrics", s.getMetrics)

		// Auth endpoints (no auth required)
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.registerUser)
			auth.POST("/login", s.loginUser)
		}

		// Protected API
		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.POST("/analyze", s.analyzeHistory)
			protected.POST("/exposure", s.analyzeExposure)
			protected.GET("/thresholds", s.getThresholds)
			protected.PUT("/thresholds", s.updateThresholds)
			protected.GET("/runs", s.getRuns)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.Version})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
