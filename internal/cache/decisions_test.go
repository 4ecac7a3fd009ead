package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/capflow/llm/capability"
)

type countingRecorder struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (r *countingRecorder) RecordCacheHit(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *countingRecorder) RecordCacheMiss(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func newDecision(outcome capability.Outcome) capability.Decision {
	return capability.Decision{
		RunID:      uuid.New(),
		Capability: capability.CapabilityAudio,
		Outcome:    outcome,
		Provider:   "openai",
		Model:      "gpt-4o-mini-transcribe",
		Succeeded:  1,
		Total:      1,
		Attachments: []capability.AttachmentDecision{{
			Index: 0, Outcome: outcome, Provider: "openai",
			Attempts: []capability.Attempt{{Provider: "openai", Outcome: capability.AttemptSuccess}},
		}},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
}

func TestDecisionCache_RecordAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	rec := &countingRecorder{}
	dc := NewDecisionCache(manager, time.Hour, 10, rec, zap.NewNop())
	ctx := context.Background()

	d := newDecision(capability.OutcomeSuccess)
	require.NoError(t, dc.RecordDecision(ctx, d))

	got, err := dc.Get(ctx, d.RunID)
	require.NoError(t, err)
	assert.Equal(t, d.RunID, got.RunID)
	assert.Equal(t, d.Attachments, got.Attachments)
	assert.True(t, d.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, d.Duration, got.Duration)
	assert.Equal(t, time.Hour, mr.TTL(decisionKeyPrefix+d.RunID.String()))

	_, err = dc.Get(ctx, uuid.New())
	assert.True(t, IsCacheMiss(err))
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 1, rec.misses)
}

func TestDecisionCache_RecentNewestFirst(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	dc := NewDecisionCache(manager, time.Hour, 3, nil, nil)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		d := newDecision(capability.OutcomeSuccess)
		ids = append(ids, d.RunID)
		require.NoError(t, dc.RecordDecision(ctx, d))
	}

	recent, err := dc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[4], recent[0].RunID)
	assert.Equal(t, ids[3], recent[1].RunID)
	assert.Equal(t, ids[2], recent[2].RunID)

	recent, err = dc.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ids[4], recent[0].RunID)
}

func TestDecisionCache_RecentSkipsExpired(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	rec := &countingRecorder{}
	dc := NewDecisionCache(manager, time.Hour, 10, rec, nil)
	ctx := context.Background()

	kept := newDecision(capability.OutcomeError)
	gone := newDecision(capability.OutcomeSuccess)
	require.NoError(t, dc.RecordDecision(ctx, kept))
	require.NoError(t, dc.RecordDecision(ctx, gone))
	mr.Del(decisionKeyPrefix + gone.RunID.String())

	recent, err := dc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, kept.RunID, recent[0].RunID)
	assert.Equal(t, 1, rec.misses)
}

func TestDecisionCache_RecentEmpty(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	recent, err := NewDecisionCache(manager, time.Hour, 10, nil, nil).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.NotNil(t, recent)
}
