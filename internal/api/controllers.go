package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"risk-core/internal/events"
	"risk-core/internal/monitor"
	"risk-core/internal/risk"
	"risk-core/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type analyzeRequest struct {
	Trades         []risk.Trade `json:"trades"`
	CurrentBalance float64      `json:"current_balance"`
	InitialBalance float64      `json:"initial_balance"`
}

type exposureRequest struct {
	Positions []risk.Position `json:"positions"`
	Balance   float64         `json:"balance"`
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": msg,
	})
}

// analyzeHistory runs the full detector set over the supplied trade
// history and persists the run for audit.
func (s *Server) analyzeHistory(c *gin.Context) {
	var req analyzeRequest
	if err := c.BindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid request payload")
		return
	}

	timer := monitor.NewTimer(s.Metrics.AnalysisLatency)
	result, err := s.Analyzer.AnalyzeTradeHistory(req.Trades, req.CurrentBalance, req.InitialBalance)
	timer.Stop()

	if err != nil {
		var invalid *risk.InvalidRecordError
		if errors.As(err, &invalid) {
			respondError(c, http.StatusBadRequest, "INVALID_RECORD", invalid.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	s.Metrics.IncrementAnalyses()
	s.Metrics.AddWarnings(len(result.Warnings))

	s.recordRun(c, req, result)
	s.publishAlerts(result.Warnings)
	if s.Bus != nil {
		s.Bus.Publish(events.EventAnalysisCompleted, result)
	}

	c.JSON(http.StatusOK, result)
}

// recordRun persists the analysis outcome; failures are logged, not
// surfaced, so audit trouble never blocks the caller's result.
func (s *Server) recordRun(c *gin.Context, req analyzeRequest, result risk.Result) {
	if s.DB == nil {
		return
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		log.Printf("[API] marshal warnings: %v", err)
		return
	}
	run := db.AnalysisRun{
		ID:         uuid.NewString(),
		UserID:     CurrentUserID(c),
		TradeCount: len(req.Trades),
		RiskScore:  result.RiskScore,
		RiskLevel:  string(result.RiskLevel),
		Warnings:   string(warningsJSON),
		CreatedAt:  time.Now(),
	}
	if err := s.DB.InsertRun(c.Request.Context(), run); err != nil {
		log.Printf("[API] persist analysis run: %v", err)
	}
}

func (s *Server) publishAlerts(warnings []risk.Warning) {
	if s.Bus == nil {
		return
	}
	for _, w := range warnings {
		if monitor.AlertWorthy(w) {
			s.Bus.Publish(events.EventRiskAlert, w)
		}
	}
}

// analyzeExposure checks open positions against the balance. Exposure
// warnings are returned directly and never folded into a run's score.
func (s *Server) analyzeExposure(c *gin.Context) {
	var req exposureRequest
	if err := c.BindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid request payload")
		return
	}

	warnings := s.Analyzer.AnalyzeOpenPositions(req.Positions, req.Balance)
	s.Metrics.AddWarnings(len(warnings))
	s.publishAlerts(warnings)

	c.JSON(http.StatusOK, gin.H{"warnings": warnings})
}

func (s *Server) getThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, s.Analyzer.Thresholds())
}

// updateThresholds merges a partial override into the live configuration
// and persists the merged result.
func (s *Server) updateThresholds(c *gin.Context) {
	var override risk.ThresholdOverride
	if err := c.BindJSON(&override); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid request payload")
		return
	}

	merged := s.Analyzer.SetThresholds(override)

	if s.DB != nil {
		if err := s.DB.SaveThresholds(c.Request.Context(), thresholdConfig(merged)); err != nil {
			log.Printf("[API] persist thresholds: %v", err)
		}
	}
	if s.Bus != nil {
		s.Bus.Publish(events.EventThresholdsUpdated, merged)
	}

	c.JSON(http.StatusOK, merged)
}

func thresholdConfig(th risk.Thresholds) db.ThresholdConfig {
	return db.ThresholdConfig{
		Name:                 "active",
		MaxDailyTrades:       th.MaxDailyTrades,
		MaxLossStreak:        th.MaxLossStreak,
		MaxPositionPercent:   th.MaxPositionPercent,
		MinTradeIntervalSec:  th.MinTradeIntervalSec,
		MartingaleMultiplier: th.MartingaleMultiplier,
		BalanceDropPercent:   th.BalanceDropPercent,
		BotIntervalSec:       th.BotIntervalSec,
	}
}

type runView struct {
	ID         string          `json:"id"`
	TradeCount int             `json:"trade_count"`
	RiskScore  int             `json:"risk_score"`
	RiskLevel  string          `json:"risk_level"`
	Warnings   json.RawMessage `json:"warnings"`
	CreatedAt  time.Time       `json:"created_at"`
}

// getRuns returns the caller's recent analysis runs, newest first.
func (s *Server) getRuns(c *gin.Context) {
	limit := s.RunHistoryLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	runs, err := s.DB.GetRunsByUser(c.Request.Context(), CurrentUserID(c), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	views := make([]runView, 0, len(runs))
	for _, r := range runs {
		views = append(views, runView{
			ID:         r.ID,
			TradeCount: r.TradeCount,
			RiskScore:  r.RiskScore,
			RiskLevel:  r.RiskLevel,
			Warnings:   json.RawMessage(r.Warnings),
			CreatedAt:  r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": views})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Metrics.GetSnapshot())
}
