package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/capflow/llm/capability"
)

// =============================================================================
// 📜 决策审计日志
// =============================================================================

// DecisionRecord 一次能力运行的审计记录
type DecisionRecord struct {
	RunID       string    `gorm:"primaryKey;size:36"`
	Capability  string    `gorm:"size:32;index:idx_decision_cap_started,priority:1"`
	Outcome     string    `gorm:"size:16;index"`
	Reason      string    `gorm:"type:text"`
	Provider    string    `gorm:"size:64"`
	Model       string    `gorm:"size:128"`
	Partial     bool      `gorm:"not null;default:false"`
	Succeeded   int       `gorm:"not null"`
	Total       int       `gorm:"not null"`
	Attachments string    `gorm:"type:text"`
	Notes       string    `gorm:"type:text"`
	StartedAt   time.Time `gorm:"index:idx_decision_cap_started,priority:2"`
	DurationNS  int64     `gorm:"column:duration_ns"`
	CreatedAt   time.Time
}

// TableName 指定表名
func (DecisionRecord) TableName() string { return "capability_decisions" }

// AttemptRecord 一次 Provider 调用的审计记录
type AttemptRecord struct {
	ID              uint   `gorm:"primaryKey"`
	RunID           string `gorm:"size:36;index"`
	Capability      string `gorm:"size:32;index:idx_attempt_cap_provider,priority:1"`
	AttachmentIndex int    `gorm:"not null"`
	Seq             int    `gorm:"not null"`
	Provider        string `gorm:"size:64;index:idx_attempt_cap_provider,priority:2"`
	Model           string `gorm:"size:128"`
	Outcome         string `gorm:"size:16"`
	Kind            string `gorm:"size:32"`
	Reason          string `gorm:"type:text"`
	DurationNS      int64  `gorm:"column:duration_ns"`
	CreatedAt       time.Time
}

// TableName 指定表名
func (AttemptRecord) TableName() string { return "capability_attempts" }

// QueryRecorder 接收查询耗时，internal/metrics.Collector 实现了该接口
type QueryRecorder interface {
	RecordDBQuery(database, operation string, duration time.Duration)
}

// DecisionLog 把每次运行的决策写入关系数据库
type DecisionLog struct {
	pool     *PoolManager
	recorder QueryRecorder
	logger   *zap.Logger
}

var _ capability.DecisionSink = (*DecisionLog)(nil)

// ErrDecisionNotFound 决策不存在
var ErrDecisionNotFound = errors.New("decision not found")

// AutoMigrate 由 GORM 创建或补齐决策日志表，
// 与 internal/migration 中的 SQL 迁移生成相同的表结构
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&DecisionRecord{}, &AttemptRecord{}); err != nil {
		return fmt.Errorf("migrate decision log: %w", err)
	}
	return nil
}

// NewDecisionLog 创建决策日志，表结构需已存在（见 AutoMigrate）
func NewDecisionLog(pool *PoolManager, recorder QueryRecorder, logger *zap.Logger) (*DecisionLog, error) {
	if pool == nil {
		return nil, errors.New("decision log requires a pool")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecisionLog{
		pool:     pool,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "decision_log")),
	}, nil
}

// RecordDecision 实现 capability.DecisionSink，决策与全部调用记录在同一事务中写入
func (l *DecisionLog) RecordDecision(ctx context.Context, d capability.Decision) error {
	defer l.observe("insert", time.Now())

	rec, attempts, err := toRecords(d)
	if err != nil {
		return err
	}
	return l.pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert decision: %w", err)
		}
		if len(attempts) > 0 {
			if err := tx.CreateInBatches(attempts, 100).Error; err != nil {
				return fmt.Errorf("insert attempts: %w", err)
			}
		}
		return nil
	})
}

// ListFilter 查询条件，零值表示不限
type ListFilter struct {
	Capability capability.Capability
	Outcome    capability.Outcome
	Limit      int
}

// List 按开始时间倒序返回决策
func (l *DecisionLog) List(ctx context.Context, f ListFilter) ([]capability.Decision, error) {
	defer l.observe("select", time.Now())

	q := l.pool.DB().WithContext(ctx).Model(&DecisionRecord{})
	if f.Capability != "" {
		q = q.Where("capability = ?", string(f.Capability))
	}
	if f.Outcome != "" {
		q = q.Where("outcome = ?", string(f.Outcome))
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var recs []DecisionRecord
	if err := q.Order("started_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}

	out := make([]capability.Decision, 0, len(recs))
	for _, r := range recs {
		d, err := fromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Get 按运行 ID 读取决策，不存在时返回 ErrDecisionNotFound（同时包装 gorm.ErrRecordNotFound）
func (l *DecisionLog) Get(ctx context.Context, runID uuid.UUID) (capability.Decision, error) {
	defer l.observe("select", time.Now())

	var rec DecisionRecord
	if err := l.pool.DB().WithContext(ctx).First(&rec, "run_id = ?", runID.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return capability.Decision{}, fmt.Errorf("%w: %w", ErrDecisionNotFound, err)
		}
		return capability.Decision{}, err
	}
	return fromRecord(rec)
}

// ProviderFailure 按 Provider 与失败类型聚合的失败次数
type ProviderFailure struct {
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Count    int64  `json:"count"`
}

// ProviderFailures 统计 since 之后某能力的失败调用
func (l *DecisionLog) ProviderFailures(ctx context.Context, c capability.Capability, since time.Time) ([]ProviderFailure, error) {
	defer l.observe("aggregate", time.Now())

	var rows []ProviderFailure
	err := l.pool.DB().WithContext(ctx).Model(&AttemptRecord{}).
		Select("provider, kind, COUNT(*) AS count").
		Where("capability = ? AND outcome = ? AND created_at >= ?", string(c), string(capability.AttemptFailed), since).
		Group("provider, kind").
		Order("count DESC, provider ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate provider failures: %w", err)
	}
	return rows, nil
}

func (l *DecisionLog) observe(op string, start time.Time) {
	if l.recorder != nil {
		l.recorder.RecordDBQuery(l.pool.config.Name, op, time.Since(start))
	}
}

// =============================================================================
// 🔄 记录转换
// =============================================================================

func toRecords(d capability.Decision) (DecisionRecord, []AttemptRecord, error) {
	atts, err := json.Marshal(d.Attachments)
	if err != nil {
		return DecisionRecord{}, nil, fmt.Errorf("encode attachments: %w", err)
	}
	notes, err := json.Marshal(d.Notes)
	if err != nil {
		return DecisionRecord{}, nil, fmt.Errorf("encode notes: %w", err)
	}

	rec := DecisionRecord{
		RunID:       d.RunID.String(),
		Capability:  string(d.Capability),
		Outcome:     string(d.Outcome),
		Reason:      d.Reason,
		Provider:    d.Provider,
		Model:       d.Model,
		Partial:     d.Partial,
		Succeeded:   d.Succeeded,
		Total:       d.Total,
		Attachments: string(atts),
		Notes:       string(notes),
		StartedAt:   d.StartedAt.UTC(),
		DurationNS:  int64(d.Duration),
	}

	var attempts []AttemptRecord
	for _, ad := range d.Attachments {
		for seq, a := range ad.Attempts {
			attempts = append(attempts, AttemptRecord{
				RunID:           rec.RunID,
				Capability:      rec.Capability,
				AttachmentIndex: ad.Index,
				Seq:             seq,
				Provider:        a.Provider,
				Model:           a.Model,
				Outcome:         string(a.Outcome),
				Kind:            a.Kind,
				Reason:          a.Reason,
				DurationNS:      int64(a.Duration),
			})
		}
	}
	return rec, attempts, nil
}

func fromRecord(r DecisionRecord) (capability.Decision, error) {
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		return capability.Decision{}, fmt.Errorf("decode run id %q: %w", r.RunID, err)
	}
	d := capability.Decision{
		RunID:      id,
		Capability: capability.Capability(r.Capability),
		Outcome:    capability.Outcome(r.Outcome),
		Reason:     r.Reason,
		Provider:   r.Provider,
		Model:      r.Model,
		Partial:    r.Partial,
		Succeeded:  r.Succeeded,
		Total:      r.Total,
		StartedAt:  r.StartedAt,
		Duration:   time.Duration(r.DurationNS),
	}
	if r.Attachments != "" {
		if err := json.Unmarshal([]byte(r.Attachments), &d.Attachments); err != nil {
			return capability.Decision{}, fmt.Errorf("decode attachments of %s: %w", r.RunID, err)
		}
	}
	if r.Notes != "" {
		if err := json.Unmarshal([]byte(r.Notes), &d.Notes); err != nil {
			return capability.Decision{}, fmt.Errorf("decode notes of %s: %w", r.RunID, err)
		}
	}
	return d, nil
}
