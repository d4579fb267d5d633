package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Krishiv14/AlgoTradeX/internal/archive"
	"github.com/Krishiv14/AlgoTradeX/internal/engine"
	"github.com/Krishiv14/AlgoTradeX/internal/infrastructure"
	"github.com/Krishiv14/AlgoTradeX/internal/model"
	"github.com/Krishiv14/AlgoTradeX/internal/push"
	"github.com/Krishiv14/AlgoTradeX/internal/storage"
	"github.com/Krishiv14/AlgoTradeX/internal/strategy"
)

type Handler struct {
	db             *pgxpool.Pool
	store          *storage.Store
	loader         *engine.DataLoader
	tester         *engine.Backtester
	pool           *engine.WorkerPool
	fetcher        *archive.Fetcher
	gateway        *push.PushGateway
	logger         *zap.Logger
	defaultCapital decimal.Decimal
}

func NewHandler(
	db *pgxpool.Pool,
	store *storage.Store,
	loader *engine.DataLoader,
	tester *engine.Backtester,
	pool *engine.WorkerPool,
	fetcher *archive.Fetcher,
	gateway *push.PushGateway,
	logger *zap.Logger,
	defaultCapital float64,
) *Handler {
	return &Handler{
		db:             db,
		store:          store,
		loader:         loader,
		tester:         tester,
		pool:           pool,
		fetcher:        fetcher,
		gateway:        gateway,
		logger:         logger,
		defaultCapital: decimal.NewFromFloat(defaultCapital),
	}
}

// Auth Handlers

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	var userID int64
	err = h.db.QueryRow(c.Request.Context(),
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id",
		req.Email, string(hash)).Scan(&userID)

	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created", "id": userID})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID int64
	var hash string
	err := h.db.QueryRow(c.Request.Context(),
		"SELECT id, password_hash FROM users WHERE email = $1", req.Email).Scan(&userID, &hash)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Data Handlers

func (h *Handler) GetHistoryKLines(c *gin.Context) {
	symbol := archive.NormalizeSymbol(c.Param("symbol"))
	period := c.DefaultQuery("period", "1d")

	rows, err := h.db.Query(c.Request.Context(),
		"SELECT symbol, period, open, high, low, close, volume, time FROM klines WHERE symbol = $1 AND period = $2 ORDER BY time DESC LIMIT 500",
		symbol, period)
	if err != nil {
		h.logger.Error("failed to query klines", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer rows.Close()

	bars := make(model.PriceSeries, 0)
	for rows.Next() {
		var b model.PriceBar
		if err := rows.Scan(&b.Symbol, &b.Period, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Timestamp); err != nil {
			h.logger.Error("failed to scan kline", zap.Error(err))
			continue
		}
		bars = append(bars, b)
	}

	c.JSON(http.StatusOK, bars)
}

func (h *Handler) FetchData(c *gin.Context) {
	var req struct {
		Symbol    string    `json:"symbol" binding:"required"`
		StartTime time.Time `json:"start_time" binding:"required"`
		EndTime   time.Time `json:"end_time" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.fetcher.FetchDaily(c.Request.Context(), req.Symbol, req.StartTime, req.EndTime)
	if err != nil {
		h.logger.Error("failed to fetch history", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.store.SaveBars(c.Request.Context(), series)
	if err != nil {
		h.logger.Error("failed to save bars", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store bars"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": archive.NormalizeSymbol(req.Symbol), "bars_saved": saved})
}

// Strategy Catalog Handlers

func (h *Handler) CreateStrategy(c *gin.Context) {
	var req struct {
		Name         string          `json:"name" binding:"required"`
		Description  string          `json:"description"`
		StrategyType string          `json:"strategy_type" binding:"required"`
		Parameters   json.RawMessage `json:"parameters" binding:"required"`
		RiskParams   json.RawMessage `json:"risk_params"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject unknown strategy types at creation time, not at run time.
	if _, err := strategy.New(req.StrategyType, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.RiskParams == nil {
		req.RiskParams = json.RawMessage(`{}`)
	}
	id, err := h.store.SaveStrategy(c.Request.Context(), &model.Strategy{
		Name:         req.Name,
		Description:  req.Description,
		StrategyType: req.StrategyType,
		Parameters:   req.Parameters,
		RiskParams:   req.RiskParams,
		IsActive:     true,
	})
	if err != nil {
		h.logger.Error("failed to save strategy", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save strategy"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) ListStrategies(c *gin.Context) {
	strategies, err := h.store.ListStrategies(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list strategies", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, strategies)
}

func (h *Handler) StrategyTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, strategyTemplates)
}

// Backtest Handlers

type backtestRequest struct {
	Symbol         string             `json:"symbol" binding:"required"`
	StrategyID     int64              `json:"strategy_id"`
	StrategyType   string             `json:"strategy_type"`
	Parameters     map[string]float64 `json:"parameters"`
	RiskParams     map[string]float64 `json:"risk_params"`
	InitialCapital decimal.Decimal    `json:"initial_capital"`
	StartTime      time.Time          `json:"start_time" binding:"required"`
	EndTime        time.Time          `json:"end_time" binding:"required"`
}

// resolveConfig turns the request into a StrategyConfig, loading from the
// catalog when a strategy_id is given.
func (h *Handler) resolveConfig(c *gin.Context, req backtestRequest) (model.StrategyConfig, error) {
	if req.StrategyID == 0 {
		return model.StrategyConfig{
			StrategyType: req.StrategyType,
			Parameters:   req.Parameters,
			RiskParams:   req.RiskParams,
		}, nil
	}

	strat, err := h.store.GetStrategy(c.Request.Context(), req.StrategyID)
	if err != nil {
		return model.StrategyConfig{}, err
	}
	cfg := model.StrategyConfig{StrategyType: strat.StrategyType}
	if err := json.Unmarshal(strat.Parameters, &cfg.Parameters); err != nil {
		return model.StrategyConfig{}, err
	}
	if len(strat.RiskParams) > 0 {
		if err := json.Unmarshal(strat.RiskParams, &cfg.RiskParams); err != nil {
			return model.StrategyConfig{}, err
		}
	}
	return cfg, nil
}

func (h *Handler) RunBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.resolveConfig(c, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "strategy not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	capital := req.InitialCapital
	if capital.IsZero() {
		capital = h.defaultCapital
	}

	symbol := archive.NormalizeSymbol(req.Symbol)
	series, err := h.loader.LoadBars(c.Request.Context(), symbol, req.StartTime, req.EndTime, "1d")
	if err != nil {
		h.logger.Error("failed to load bars", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load price data"})
		return
	}

	result, err := h.tester.Run(series, cfg, capital)
	if err != nil {
		infrastructure.BacktestRuns.WithLabelValues(cfg.StrategyType, "error").Inc()
		c.JSON(backtestErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	infrastructure.BacktestRuns.WithLabelValues(cfg.StrategyType, "ok").Inc()
	infrastructure.BacktestDuration.WithLabelValues(cfg.StrategyType, symbol).
		Observe(float64(result.ExecutionTimeMs) / 1000)

	backtestID, err := h.store.SaveBacktest(c.Request.Context(), req.StrategyID, result)
	if err != nil {
		h.logger.Error("failed to persist backtest", zap.Error(err))
		// the run itself succeeded; report it anyway
	}

	h.gateway.PublishResult(symbol, result)

	c.JSON(http.StatusOK, gin.H{
		"backtest_id": backtestID,
		"result":      result,
	})
}

func (h *Handler) RunBatchBacktest(c *gin.Context) {
	var req struct {
		Symbol         string                 `json:"symbol" binding:"required"`
		Strategies     []model.StrategyConfig `json:"strategies" binding:"required,min=1"`
		InitialCapital decimal.Decimal        `json:"initial_capital"`
		StartTime      time.Time              `json:"start_time" binding:"required"`
		EndTime        time.Time              `json:"end_time" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	capital := req.InitialCapital
	if capital.IsZero() {
		capital = h.defaultCapital
	}

	symbol := archive.NormalizeSymbol(req.Symbol)
	series, err := h.loader.LoadBars(c.Request.Context(), symbol, req.StartTime, req.EndTime, "1d")
	if err != nil {
		h.logger.Error("failed to load bars", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load price data"})
		return
	}

	jobs := make([]engine.BacktestJob, len(req.Strategies))
	for i, cfg := range req.Strategies {
		jobs[i] = engine.BacktestJob{Series: series, Config: cfg, InitialCapital: capital}
	}

	outcomes := h.pool.RunBatch(c.Request.Context(), jobs)

	type batchItem struct {
		Strategy string                `json:"strategy_type"`
		Result   *model.BacktestResult `json:"result,omitempty"`
		Error    string                `json:"error,omitempty"`
	}
	items := make([]batchItem, len(outcomes))
	for i, o := range outcomes {
		items[i] = batchItem{Strategy: req.Strategies[i].StrategyType, Result: o.Result}
		if o.Err != nil {
			items[i].Error = o.Err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "results": items})
}

// Persisted-result Handlers

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) GetBacktest(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	bt, err := h.store.GetBacktest(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "backtest not found"})
			return
		}
		h.logger.Error("failed to load backtest", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, bt)
}

func (h *Handler) GetBacktestTrades(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if _, err := h.store.GetBacktest(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "backtest not found"})
			return
		}
		h.logger.Error("failed to load backtest", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	trades, err := h.store.GetBacktestTrades(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to load trades", zap.Int64("backtest_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (h *Handler) ListBacktests(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol != "" {
		symbol = archive.NormalizeSymbol(symbol)
	}
	strategyID, _ := strconv.ParseInt(c.Query("strategy_id"), 10, 64)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	backtests, err := h.store.ListBacktests(c.Request.Context(), symbol, strategyID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list backtests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, backtests)
}

func (h *Handler) DeleteBacktest(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.store.DeleteBacktest(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "backtest not found"})
			return
		}
		h.logger.Error("failed to delete backtest", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "backtest deleted", "id": id})
}

// backtestComparison puts several persisted runs side by side and names the
// winner on each headline metric.
type backtestComparison struct {
	Backtests      []model.BacktestRow `json:"backtests"`
	BestByReturn   int64               `json:"best_by_return"`
	BestBySharpe   int64               `json:"best_by_sharpe"`
	BestByDrawdown int64               `json:"best_by_drawdown"`
}

func buildComparison(rows []model.BacktestRow) backtestComparison {
	cmp := backtestComparison{Backtests: rows}
	for i, bt := range rows {
		if i == 0 {
			cmp.BestByReturn, cmp.BestBySharpe, cmp.BestByDrawdown = bt.ID, bt.ID, bt.ID
			continue
		}
		if bt.Metrics.TotalReturn > metricsByID(rows, cmp.BestByReturn).TotalReturn {
			cmp.BestByReturn = bt.ID
		}
		if bt.Metrics.SharpeRatio > metricsByID(rows, cmp.BestBySharpe).SharpeRatio {
			cmp.BestBySharpe = bt.ID
		}
		if bt.Metrics.MaxDrawdown < metricsByID(rows, cmp.BestByDrawdown).MaxDrawdown {
			cmp.BestByDrawdown = bt.ID
		}
	}
	return cmp
}

func metricsByID(rows []model.BacktestRow, id int64) model.MetricsRecord {
	for _, bt := range rows {
		if bt.ID == id {
			return bt.Metrics
		}
	}
	return model.MetricsRecord{}
}

func (h *Handler) CompareBacktests(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter is required"})
		return
	}

	rows := make([]model.BacktestRow, 0)
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id list"})
			return
		}
		bt, err := h.store.GetBacktest(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			h.logger.Error("failed to load backtest", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		rows = append(rows, *bt)
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no backtests found for given ids"})
		return
	}

	c.JSON(http.StatusOK, buildComparison(rows))
}

// Strategy catalog Handlers (by id)

func (h *Handler) GetStrategy(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	strat, err := h.store.GetStrategy(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "strategy not found"})
			return
		}
		h.logger.Error("failed to load strategy", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, strat)
}

func (h *Handler) UpdateStrategy(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	strat, err := h.store.GetStrategy(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "strategy not found"})
			return
		}
		h.logger.Error("failed to load strategy", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var req struct {
		Name         *string         `json:"name"`
		Description  *string         `json:"description"`
		StrategyType *string         `json:"strategy_type"`
		Parameters   json.RawMessage `json:"parameters"`
		RiskParams   json.RawMessage `json:"risk_params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		strat.Name = *req.Name
	}
	if req.Description != nil {
		strat.Description = *req.Description
	}
	if req.StrategyType != nil {
		if _, err := strategy.New(*req.StrategyType, nil); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		strat.StrategyType = *req.StrategyType
	}
	if req.Parameters != nil {
		strat.Parameters = req.Parameters
	}
	if req.RiskParams != nil {
		strat.RiskParams = req.RiskParams
	}

	if err := h.store.UpdateStrategy(c.Request.Context(), strat); err != nil {
		h.logger.Error("failed to update strategy", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, strat)
}

func (h *Handler) DeleteStrategy(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.store.DeactivateStrategy(c.Request.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "strategy not found"})
			return
		}
		h.logger.Error("failed to deactivate strategy", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "strategy deactivated", "id": id})
}

func (h *Handler) CreateStrategyFromTemplate(c *gin.Context) {
	name := c.Param("name")
	tpl := templateByName(name)
	if tpl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}

	params, _ := json.Marshal(tpl["parameters"])
	risk, _ := json.Marshal(tpl["risk_params"])
	id, err := h.store.SaveStrategy(c.Request.Context(), &model.Strategy{
		Name:         tpl["name"].(string),
		Description:  tpl["description"].(string),
		StrategyType: tpl["strategy_type"].(string),
		Parameters:   params,
		RiskParams:   risk,
		IsActive:     true,
	})
	if err != nil {
		h.logger.Error("failed to save strategy", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save strategy"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// backtestErrorStatus maps the core's configuration errors onto HTTP codes.
func backtestErrorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrEmptyPriceSeries):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidCapital),
		errors.Is(err, model.ErrInvalidRiskParams),
		errors.Is(err, strategy.ErrUnknownStrategy):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
