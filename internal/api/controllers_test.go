package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"risk-core/internal/events"
	"risk-core/internal/monitor"
	"risk-core/internal/risk"
	"risk-core/pkg/db"
)

func newTestAPIServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}

	bus := events.NewBus()
	metrics := monitor.NewSystemMetrics()
	analyzer := risk.NewAnalyzer()

	server := NewServer(bus, database, analyzer, metrics, "test-secret", 100, "test")

	httpServer := httptest.NewServer(server.Router)

	cleanup := func() {
		httpServer.Close()
		_ = database.Close()
	}
	return httpServer, cleanup
}

func doJSONRequest(t *testing.T, client *http.Client, method, url, token string, payload any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func registerAndLogin(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	var regResp struct {
		UserID string `json:"user_id"`
	}
	status := doJSONRequest(t, client, http.MethodPost, baseURL+"/api/auth/register", "", map[string]string{
		"email":    "tester@example.com",
		"password": "StrongPass123!",
	}, &regResp)
	if status != http.StatusCreated {
		t.Fatalf("register status=%d resp=%+v", status, regResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	status = doJSONRequest(t, client, http.MethodPost, baseURL+"/api/auth/login", "", map[string]string{
		"email":    "tester@example.com",
		"password": "StrongPass123!",
	}, &loginResp)
	if status != http.StatusOK || loginResp.Token == "" {
		t.Fatalf("login failed status=%d resp=%+v", status, loginResp)
	}
	return loginResp.Token
}

func losingTrades(n int, start int64, spacing int64) []map[string]any {
	trades := make([]map[string]any, n)
	for i := range trades {
		trades[i] = map[string]any{
			"purchase_time": start + int64(i)*spacing,
			"buy_price":     10.0,
			"sell_price":    8.0,
		}
	}
	return trades
}

func TestAnalyzeRequiresAuth(t *testing.T) {
	ts, cleanup := newTestAPIServer(t)
	defer cleanup()

	var resp struct {
		Code string `json:"code"`
	}
	status := doJSONRequest(t, ts.Client(), http.MethodPost, ts.URL+"/api/analyze", "", map[string]any{}, &resp)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if resp.Code != "MISSING_TOKEN" {
		t.Fatalf("expected code MISSING_TOKEN, got %s", resp.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts, cleanup := newTestAPIServer(t)
	defer cleanup()

	client := ts.Client()
	token := registerAndLogin(t, client, ts.URL)

	start := time.Now().Add(-time.Hour).Unix()

	var resp struct {
		Warnings  []risk.Warning `json:"warnings"`
		RiskScore int            `json:"risk_score"`
		RiskLevel string         `json:"risk_level"`
	}
	status := doJSONRequest(t, client, http.MethodPost, ts.URL+"/api/analyze", token, map[string]any{
		"trades":          losingTrades(8, start, 60),
		"current_balance": 900.0,
		"initial_balance": 1000.0,
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	// 8 consecutive losses: one CRITICAL loss-streak warning.
	if len(resp.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %+v", resp.Warnings)
	}
	if resp.Warnings[0].Type != risk.WarnHighLossStreak || resp.Warnings[0].Level != risk.LevelCritical {
		t.Fatalf("unexpected warning %+v", resp.Warnings[0])
	}
	if resp.RiskScore != 50 || resp.RiskLevel != "HIGH" {
		t.Fatalf("score=%d level=%s, expected 50/HIGH", resp.RiskScore, resp.RiskLevel)
	}

	// The run is persisted for this user.
	var runsResp struct {
		Runs []struct {
			TradeCount int    `json:"trade_count"`
			RiskScore  int    `json:"risk_score"`
			RiskLevel  string `json:"risk_level"`
		} `json:"runs"`
	}
	status = doJSONRequest(t, client, http.MethodGet, ts.URL+"/api/runs", token, nil, &runsResp)
	if status != http.StatusOK {
		t.Fatalf("runs status=%d", status)
	}
	if len(runsResp.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runsResp.Runs))
	}
	if runsResp.Runs[0].TradeCount != 8 || runsResp.Runs[0].RiskScore != 50 {
		t.Fatalf("unexpected run %+v", runsResp.Runs[0])
	}
}

func TestAnalyzeEmptyHistoryEndpoint(t *testing.T) {
	ts, cleanup := newTestAPIServer(t)
	defer cleanup()

	client := ts.Client()
	token := registerAndLogin(t, client, ts.URL)

	var resp struct {
		Warnings  []risk.Warning `json:"warnings"`
		RiskScore int            `json:"risk_score"`
		RiskLevel string         `json:"risk_level"`
	}
	status := doJSONRequest(t, client, http.MethodPost, ts.URL+"/api/analyze", token, map[string]any{
		"trades": []any{},
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(resp.Warnings) != 0 || resp.RiskScore != 0 || resp.RiskLevel != "" {
		t.Fatalf("expected empty zero-risk result, got %+v", resp)
	}
}

func TestAnalyzeRejectsMalformedRecord(t *testing.T) {
	ts, cleanup := newTestAPIServer(t)
	defer cleanup()

	client := ts.Client()
	token := registerAndLogin(t, client, ts.URL)

	var resp struct {
		Code string `json:"code"`
	}
	status := doJSONRequest(t, client, http.MethodPost, ts.URL+"/api/analyze", token, map[string]any{
		"trades": []map[string]any{
			{"purchase_time": 0, "buy_price": 10.0, "sell_price": 8.0},
		},
	}, &resp)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if resp.Code != "INVALID_RECORD" {
		t.Fatalf("expected code INVALID_RECORD, got %s", resp.Code)
	}
}

func TestExposureEndpoint(t *testing.T) {
	ts, cleanup := newTestAPIServer(t)
	defer cleanup()

	client := ts.Client()
	token := registerAndLogin(t, client, ts.URL)

	var resp struct {
		Warnings []risk.Warning `json:"warnings"`
	}
	status := doJSONRequest(t, client, http.MethodPost, ts.URL+"/api/exposure", token, map[string]any{
		"positions": []map[string]any{
			{"buy_price": 150.0, "contract_id": "c-1"},
			{"buy_price": 300.0, "contract_id": "c-2"},
			{"buy_price": 50.0, "contract_id": "c-3"},
		},
		"balance": 1000.0,
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(resp.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", resp.Warnings)
	}
	if resp.Warnings[0].Level != risk.LevelHigh || resp.Warnings[1].Level != risk.LevelCritical {
		t.Fatalf("unexpected levels in %+v", resp.Warnings)
	}
}

func TestThresholdEndpoints(t *testing.T) {
	ts, cleanup := newTestAPIServer(t)
	defer cleanup()

	client := ts.Client()
	token := registerAndLogin(t, client, ts.URL)

	var current risk.Thresholds
	status := doJSONRequest(t, client, http.MethodGet, ts.URL+"/api/thresholds", token, nil, &current)
	if status != http.StatusOK {
		t.Fatalf("get thresholds status=%d", status)
	}
	if current.MaxDailyTrades != 50 {
		t.Fatalf("MaxDailyTrades=%d, expected default 50", current.MaxDailyTrades)
	}

	var updated risk.Thresholds
	status = doJSONRequest(t, client, http.MethodPut, ts.URL+"/api/thresholds", token, map[string]any{
		"max_daily_trades": 5,
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("put thresholds status=%d", status)
	}
	if updated.MaxDailyTrades != 5 {
		t.Fatalf("MaxDailyTrades=%d after override, expected 5", updated.MaxDailyTrades)
	}
	if updated.MaxLossStreak != current.MaxLossStreak {
		t.Fatal("partial override changed an unrelated threshold")
	}

	// Six trades stamped "now" (same calendar day as the evaluation by
	// construction) now trip the overtrading rule.
	now := time.Now().Unix()
	trades := make([]map[string]any, 6)
	for i := range trades {
		trades[i] = map[string]any{
			"purchase_time": now,
			"buy_price":     10.0,
			"sell_price":    12.0,
		}
	}
	var resp struct {
		Warnings []risk.Warning `json:"warnings"`
	}
	status = doJSONRequest(t, client, http.MethodPost, ts.URL+"/api/analyze", token, map[string]any{
		"trades": trades,
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("analyze status=%d", status)
	}
	found := false
	for _, w := range resp.Warnings {
		if w.Type == risk.WarnOvertrading {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected overtrading warning after override, got %+v", resp.Warnings)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, cleanup := newTestAPIServer(t)
	defer cleanup()

	var resp struct {
		Status string `json:"status"`
	}
	status := doJSONRequest(t, ts.Client(), http.MethodGet, ts.URL+"/health", "", nil, &resp)
	if status != http.StatusOK || resp.Status != "ok" {
		t.Fatalf("health status=%d resp=%+v", status, resp)
	}
}
