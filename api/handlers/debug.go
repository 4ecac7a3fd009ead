package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/capflow/api"
	"github.com/BaSui01/capflow/internal/cache"
	"github.com/BaSui01/capflow/internal/database"
	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/types"
)

// =============================================================================
// 🔍 决策调试 Handler
// =============================================================================

// RecentDecisions 最近决策来源（Redis 缓存）
type RecentDecisions interface {
	Recent(ctx context.Context, n int) ([]capability.Decision, error)
	Get(ctx context.Context, runID uuid.UUID) (capability.Decision, error)
}

// DecisionStore 可查询的决策存储（数据库审计日志）
type DecisionStore interface {
	List(ctx context.Context, f database.ListFilter) ([]capability.Decision, error)
	Get(ctx context.Context, runID uuid.UUID) (capability.Decision, error)
	ProviderFailures(ctx context.Context, c capability.Capability, since time.Time) ([]database.ProviderFailure, error)
}

const (
	defaultDecisionLimit = 20
	maxDecisionLimit     = 500
	defaultFailureWindow = 24 * time.Hour
)

// DebugHandler 决策调试处理器，recent 与 store 均可为 nil
type DebugHandler struct {
	recent RecentDecisions
	store  DecisionStore
	logger *zap.Logger
}

// NewDebugHandler 创建决策调试处理器
func NewDebugHandler(recent RecentDecisions, store DecisionStore, logger *zap.Logger) *DebugHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DebugHandler{
		recent: recent,
		store:  store,
		logger: logger.With(zap.String("component", "debug_handler")),
	}
}

// HandleDecisions 列出最近的决策
// @Summary 最近决策
// @Description 无过滤条件时优先读取缓存，带 capability / outcome 过滤时查询数据库
// @Tags 调试
// @Produce json
// @Param limit query int false "条数上限"
// @Param capability query string false "能力过滤"
// @Param outcome query string false "结果过滤"
// @Success 200 {object} Response{data=api.DecisionsResponse} "决策列表"
// @Failure 503 {object} Response "未配置决策存储"
// @Security ApiKeyAuth
// @Router /api/v1/debug/decisions [get]
func (h *DebugHandler) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, err.Error()), h.logger)
		return
	}
	filter := database.ListFilter{
		Capability: capability.Capability(strings.ToLower(q.Get("capability"))),
		Outcome:    capability.Outcome(strings.ToLower(q.Get("outcome"))),
		Limit:      limit,
	}
	if filter.Capability != "" && !filter.Capability.Valid() {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "unknown capability: "+q.Get("capability")), h.logger)
		return
	}
	filtered := filter.Capability != "" || filter.Outcome != ""

	if h.recent != nil && (!filtered || h.store == nil) {
		decisions, err := h.recent.Recent(r.Context(), limit)
		if err == nil {
			WriteSuccess(w, api.DecisionsResponse{Source: "cache", Decisions: applyFilter(decisions, filter)})
			return
		}
		h.logger.Warn("recent decisions unavailable", zap.Error(err))
		if h.store == nil {
			WriteError(w, types.NewError(types.ErrServiceUnavailable, "decision cache unavailable").WithCause(err), h.logger)
			return
		}
	}

	if h.store == nil {
		WriteError(w, types.NewError(types.ErrServiceUnavailable, "no decision store configured"), h.logger)
		return
	}
	decisions, err := h.store.List(r.Context(), filter)
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "list decisions failed").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, api.DecisionsResponse{Source: "database", Decisions: decisions})
}

// HandleDecision 按运行 ID 读取单个决策
// @Summary 决策详情
// @Tags 调试
// @Produce json
// @Param id path string true "运行 ID"
// @Success 200 {object} Response{data=capability.Decision} "决策"
// @Failure 404 {object} Response "决策不存在"
// @Security ApiKeyAuth
// @Router /api/v1/debug/decisions/{id} [get]
func (h *DebugHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "invalid run id").WithCause(err), h.logger)
		return
	}

	if h.recent != nil {
		d, err := h.recent.Get(r.Context(), runID)
		if err == nil {
			WriteSuccess(w, d)
			return
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("decision cache lookup failed", zap.Error(err))
		}
	}
	if h.store != nil {
		d, err := h.store.Get(r.Context(), runID)
		if err == nil {
			WriteSuccess(w, d)
			return
		}
		if !errors.Is(err, database.ErrDecisionNotFound) {
			WriteError(w, types.NewError(types.ErrInternalError, "get decision failed").WithCause(err), h.logger)
			return
		}
	}
	WriteError(w, types.NewError(types.ErrNotFound, "decision not found"), h.logger)
}

// HandleProviderFailures 统计某能力在时间窗口内的失败调用
// @Summary Provider 失败统计
// @Tags 调试
// @Produce json
// @Param capability query string true "能力名称"
// @Param since query string false "时间窗口（Go duration，默认 24h）"
// @Success 200 {object} Response "失败统计"
// @Failure 503 {object} Response "未配置数据库"
// @Security ApiKeyAuth
// @Router /api/v1/debug/provider-failures [get]
func (h *DebugHandler) HandleProviderFailures(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteError(w, types.NewError(types.ErrServiceUnavailable, "no decision store configured"), h.logger)
		return
	}

	q := r.URL.Query()
	c := capability.Capability(strings.ToLower(q.Get("capability")))
	if !c.Valid() {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "capability must be audio, vision or embedding"), h.logger)
		return
	}
	window := defaultFailureWindow
	if raw := q.Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			WriteError(w, types.NewError(types.ErrInvalidRequest, "since must be a positive duration"), h.logger)
			return
		}
		window = d
	}

	failures, err := h.store.ProviderFailures(r.Context(), c, time.Now().Add(-window))
	if err != nil {
		WriteError(w, types.NewError(types.ErrInternalError, "aggregate provider failures failed").WithCause(err), h.logger)
		return
	}
	if failures == nil {
		failures = []database.ProviderFailure{}
	}
	WriteSuccess(w, failures)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultDecisionLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxDecisionLimit), nil
}

// applyFilter 对缓存结果做内存过滤（缓存不支持条件查询）
func applyFilter(decisions []capability.Decision, f database.ListFilter) []capability.Decision {
	if f.Capability == "" && f.Outcome == "" {
		return decisions
	}
	out := make([]capability.Decision, 0, len(decisions))
	for _, d := range decisions {
		if f.Capability != "" && d.Capability != f.Capability {
			continue
		}
		if f.Outcome != "" && d.Outcome != f.Outcome {
			continue
		}
		out = append(out, d)
	}
	return out
}
