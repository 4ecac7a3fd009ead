// =============================================================================
// 🧾 MockDecisionSink - 决策接收器模拟实现
// =============================================================================
// 用于测试的决策接收器，记录运行器发布的每条决策
//
// 使用方法:
//
//	sink := mocks.NewMockDecisionSink()
//	runner := capability.NewRunner(reg, capability.WithDecisionSinks(sink))
//	decisions := sink.Decisions()
// =============================================================================
package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/BaSui01/capflow/llm/capability"
)

// MockDecisionSink 是 capability.DecisionSink 的模拟实现
type MockDecisionSink struct {
	mu sync.Mutex

	decisions []capability.Decision
	err       error
}

// NewMockDecisionSink 创建新的 MockDecisionSink
func NewMockDecisionSink() *MockDecisionSink {
	return &MockDecisionSink{}
}

// WithError 设置 RecordDecision 返回的错误（决策仍会被记录）
func (s *MockDecisionSink) WithError(err error) *MockDecisionSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

// RecordDecision 实现 capability.DecisionSink
func (s *MockDecisionSink) RecordDecision(_ context.Context, d capability.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
	return s.err
}

// Decisions 返回已记录决策的副本
func (s *MockDecisionSink) Decisions() []capability.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.decisions)
}

// Last 返回最近一条决策
func (s *MockDecisionSink) Last() (capability.Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.decisions) == 0 {
		return capability.Decision{}, false
	}
	return s.decisions[len(s.decisions)-1], true
}
