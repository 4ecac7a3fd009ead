package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/capflow/llm/capability"
)

const (
	decisionKeyPrefix = "capflow:decision:"
	recentKey         = "capflow:decisions:recent"
	cacheType         = "decision"
)

// HitRecorder 记录缓存命中与未命中，internal/metrics.Collector 实现了该接口
type HitRecorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// DecisionCache 在 Redis 中保存最近的运行决策，供调试接口查询
type DecisionCache struct {
	m        *Manager
	ttl      time.Duration
	limit    int
	recorder HitRecorder
	logger   *zap.Logger
}

var _ capability.DecisionSink = (*DecisionCache)(nil)

// NewDecisionCache 创建决策缓存，limit 为最近列表的最大长度
func NewDecisionCache(m *Manager, ttl time.Duration, limit int, recorder HitRecorder, logger *zap.Logger) *DecisionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 100
	}
	return &DecisionCache{
		m:        m,
		ttl:      ttl,
		limit:    limit,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "decision_cache")),
	}
}

// RecordDecision 实现 capability.DecisionSink
func (c *DecisionCache) RecordDecision(ctx context.Context, d capability.Decision) error {
	id := d.RunID.String()
	if err := c.m.SetJSON(ctx, decisionKeyPrefix+id, d, c.ttl); err != nil {
		return err
	}
	return c.m.PushCapped(ctx, recentKey, id, c.limit, c.ttl)
}

// Get 按运行 ID 读取决策，不存在时返回 ErrCacheMiss
func (c *DecisionCache) Get(ctx context.Context, runID uuid.UUID) (capability.Decision, error) {
	var d capability.Decision
	err := c.m.GetJSON(ctx, decisionKeyPrefix+runID.String(), &d)
	switch {
	case err == nil:
		c.hit()
	case IsCacheMiss(err):
		c.miss()
	}
	return d, err
}

// Recent 返回最近 n 条决策，最新的在前；已过期的条目被跳过
func (c *DecisionCache) Recent(ctx context.Context, n int) ([]capability.Decision, error) {
	if n <= 0 || n > c.limit {
		n = c.limit
	}
	ids, err := c.m.Range(ctx, recentKey, n)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []capability.Decision{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = decisionKeyPrefix + id
	}
	vals, err := c.m.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	out := make([]capability.Decision, 0, len(vals))
	var errs []error
	for i, v := range vals {
		if v == "" {
			c.miss()
			continue
		}
		var d capability.Decision
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			errs = append(errs, fmt.Errorf("decode decision %s: %w", ids[i], err))
			continue
		}
		c.hit()
		out = append(out, d)
	}
	if len(errs) > 0 {
		c.logger.Warn("skipped undecodable decisions", zap.Error(errors.Join(errs...)))
	}
	return out, nil
}

func (c *DecisionCache) hit() {
	if c.recorder != nil {
		c.recorder.RecordCacheHit(cacheType)
	}
}

func (c *DecisionCache) miss() {
	if c.recorder != nil {
		c.recorder.RecordCacheMiss(cacheType)
	}
}
