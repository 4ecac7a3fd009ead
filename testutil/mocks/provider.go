// MockCapabilityProvider 是能力 Provider 的测试模拟实现。
//
// 支持固定响应、错误注入、延迟与 panic 场景，并记录每次调用。
package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/BaSui01/capflow/llm/capability"
)

// DefaultMockModel 是请求未指定模型时回显的模型名
const DefaultMockModel = "mock-default"

// --- MockCapabilityProvider 结构 ---

// MockCapabilityProvider 实现 AudioTranscriber、ImageDescriber 与 Embedder，
// 声明的能力由构造参数决定。
type MockCapabilityProvider struct {
	mu sync.Mutex

	id           string
	capabilities []capability.Capability
	credentialed bool

	// 响应配置
	text   string
	vector []float64
	err    error

	// 行为控制
	delay      time.Duration
	failFirst  int
	panicValue any
	audioFunc  func(ctx context.Context, req *capability.AudioRequest) (*capability.AudioResult, error)

	// 调用记录
	calls []MockCapabilityCall
}

// MockCapabilityCall 记录单次调用
type MockCapabilityCall struct {
	Capability capability.Capability
	Model      string
	Data       []byte
	Input      string
	Prompt     string
}

// --- 构造函数和 Builder 方法 ---

// NewMockCapabilityProvider 创建声明给定能力的 MockCapabilityProvider
func NewMockCapabilityProvider(id string, caps ...capability.Capability) *MockCapabilityProvider {
	return &MockCapabilityProvider{
		id:           id,
		capabilities: caps,
		credentialed: true,
		text:         "ok",
		vector:       []float64{0.1, 0.2, 0.3},
	}
}

// WithText 设置转写或描述文本
func (m *MockCapabilityProvider) WithText(text string) *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return m
}

// WithVector 设置嵌入向量
func (m *MockCapabilityProvider) WithVector(v []float64) *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vector = v
	return m
}

// WithError 设置每次调用返回的错误
func (m *MockCapabilityProvider) WithError(err error) *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailFirst 前 n 次调用返回 WithError 设置的错误，之后成功
func (m *MockCapabilityProvider) WithFailFirst(n int) *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFirst = n
	return m
}

// WithDelay 设置模拟延迟，延迟期间响应 ctx 取消
func (m *MockCapabilityProvider) WithDelay(d time.Duration) *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithPanic 使调用以给定值 panic
func (m *MockCapabilityProvider) WithPanic(v any) *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicValue = v
	return m
}

// WithoutCredentials 使 HasCredentials 返回 false
func (m *MockCapabilityProvider) WithoutCredentials() *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentialed = false
	return m
}

// WithAudioFunc 自定义音频转写行为
func (m *MockCapabilityProvider) WithAudioFunc(fn func(ctx context.Context, req *capability.AudioRequest) (*capability.AudioResult, error)) *MockCapabilityProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audioFunc = fn
	return m
}

// --- capability.Provider 实现 ---

func (m *MockCapabilityProvider) ID() string { return m.id }

func (m *MockCapabilityProvider) Capabilities() []capability.Capability {
	return slices.Clone(m.capabilities)
}

func (m *MockCapabilityProvider) HasCredentials() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credentialed
}

// TranscribeAudio 实现 capability.AudioTranscriber
func (m *MockCapabilityProvider) TranscribeAudio(ctx context.Context, req *capability.AudioRequest) (*capability.AudioResult, error) {
	if err := m.begin(ctx, MockCapabilityCall{
		Capability: capability.CapabilityAudio, Model: req.Model, Data: req.Data, Prompt: req.Prompt,
	}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	fn := m.audioFunc
	text := m.text
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &capability.AudioResult{Text: text, Model: echoModel(req.Model), Language: req.Language}, nil
}

// DescribeImage 实现 capability.ImageDescriber
func (m *MockCapabilityProvider) DescribeImage(ctx context.Context, req *capability.ImageRequest) (*capability.ImageResult, error) {
	if err := m.begin(ctx, MockCapabilityCall{
		Capability: capability.CapabilityVision, Model: req.Model, Data: req.Data, Prompt: req.Prompt,
	}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &capability.ImageResult{Text: m.text, Model: echoModel(req.Model)}, nil
}

// GenerateEmbedding 实现 capability.Embedder
func (m *MockCapabilityProvider) GenerateEmbedding(ctx context.Context, req *capability.EmbeddingRequest) (*capability.EmbeddingResult, error) {
	if err := m.begin(ctx, MockCapabilityCall{
		Capability: capability.CapabilityEmbedding, Model: req.Model, Input: req.Input,
	}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &capability.EmbeddingResult{Vector: slices.Clone(m.vector), Model: echoModel(req.Model)}, nil
}

// begin 记录调用并应用延迟、panic 与错误注入
func (m *MockCapabilityProvider) begin(ctx context.Context, call MockCapabilityCall) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	n := len(m.calls)
	delay, panicValue, err, failFirst := m.delay, m.panicValue, m.err, m.failFirst
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if panicValue != nil {
		panic(panicValue)
	}
	if err != nil && (failFirst == 0 || n <= failFirst) {
		return err
	}
	return nil
}

func echoModel(model string) string {
	if model == "" {
		return DefaultMockModel
	}
	return model
}

// --- 调用记录 ---

// Calls 返回调用记录副本
func (m *MockCapabilityProvider) Calls() []MockCapabilityCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount 返回调用次数
func (m *MockCapabilityProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastModel 返回最近一次调用的模型，无调用时返回空字符串
func (m *MockCapabilityProvider) LastModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1].Model
}

// Reset 清空调用记录
func (m *MockCapabilityProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
