package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUserIDRequired = errors.New("user_id is required for data isolation")
	ErrNotFound       = errors.New("record not found")
)

// ThresholdConfig is the persisted detector configuration. Intervals are
// stored in seconds to match the trade timestamps.
type ThresholdConfig struct {
	ID                   int64
	Name                 string
	MaxDailyTrades       int
	MaxLossStreak        int
	MaxPositionPercent   float64
	MinTradeIntervalSec  int64
	MartingaleMultiplier float64
	BalanceDropPercent   float64
	BotIntervalSec       int64
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AnalysisRun is one persisted analysis result. Warnings are stored as a
// JSON blob; the engine itself never reads runs back.
type AnalysisRun struct {
	ID         string
	UserID     string // Multi-user isolation
	TradeCount int
	RiskScore  int
	RiskLevel  string
	Warnings   string // JSON-encoded []risk.Warning
	CreatedAt  time.Time
}

// User represents an authenticated API user.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoadActiveThresholds returns the active threshold row or nil when no
// configuration has been persisted yet.
func (d *Database) LoadActiveThresholds(ctx context.Context) (*ThresholdConfig, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT id, name, max_daily_trades, max_loss_streak, max_position_percent,
		       min_trade_interval_sec, martingale_multiplier, balance_drop_percent,
		       bot_interval_sec, is_active, created_at, updated_at
		FROM threshold_configs
		WHERE is_active = 1
		LIMIT 1
	`)

	var (
		cfg      ThresholdConfig
		isActive int
	)
	err := row.Scan(
		&cfg.ID,
		&cfg.Name,
		&cfg.MaxDailyTrades,
		&cfg.MaxLossStreak,
		&cfg.MaxPositionPercent,
		&cfg.MinTradeIntervalSec,
		&cfg.MartingaleMultiplier,
		&cfg.BalanceDropPercent,
		&cfg.BotIntervalSec,
		&isActive,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load threshold config: %w", err)
	}
	cfg.IsActive = isActive == 1
	return &cfg, nil
}

// SaveThresholds replaces the active threshold row with cfg.
func (d *Database) SaveThresholds(ctx context.Context, cfg ThresholdConfig) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE threshold_configs SET is_active = 0 WHERE is_active = 1
	`); err != nil {
		return fmt.Errorf("deactivate threshold configs: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "active"
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO threshold_configs (
			name, max_daily_trades, max_loss_streak, max_position_percent,
			min_trade_interval_sec, martingale_multiplier, balance_drop_percent,
			bot_interval_sec, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`,
		name,
		cfg.MaxDailyTrades,
		cfg.MaxLossStreak,
		cfg.MaxPositionPercent,
		cfg.MinTradeIntervalSec,
		cfg.MartingaleMultiplier,
		cfg.BalanceDropPercent,
		cfg.BotIntervalSec,
	); err != nil {
		return fmt.Errorf("insert threshold config: %w", err)
	}

	return tx.Commit()
}

// InsertRun stores one analysis run for audit.
func (d *Database) InsertRun(ctx context.Context, run AnalysisRun) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, user_id, trade_count, risk_score, risk_level, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
	`, run.ID, run.UserID, run.TradeCount, run.RiskScore, run.RiskLevel, run.Warnings, nullableTime(run.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// GetRunsByUser returns the most recent analysis runs for a user.
func (d *Database) GetRunsByUser(ctx context.Context, userID string, limit int) ([]AnalysisRun, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, COALESCE(user_id, ''), trade_count, risk_score, risk_level, warnings, created_at
		FROM analysis_runs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var r AnalysisRun
		if err := rows.Scan(&r.ID, &r.UserID, &r.TradeCount, &r.RiskScore, &r.RiskLevel, &r.Warnings, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CreateUser inserts a new user row.
func (d *Database) CreateUser(ctx context.Context, u User) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), COALESCE(?, CURRENT_TIMESTAMP))
	`, u.ID, strings.ToLower(u.Email), u.PasswordHash, nullableTime(u.CreatedAt), nullableTime(u.UpdatedAt))
	return err
}

// GetUserByEmail returns a user by email or nil if not found.
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?
	`, strings.ToLower(email))
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
