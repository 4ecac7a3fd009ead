package embedding

import (
	"time"

	"github.com/BaSui01/capflow/llm/providers"
)

// OpenAIConfig configures the OpenAI embedding provider.
type OpenAIConfig struct {
	providers.BaseProviderConfig `yaml:",inline"`
	Dimensions                   int `json:"dimensions,omitempty" yaml:"dimensions,omitempty"` // 256, 1024, 1536
}

// GeminiConfig 配置 Gemini 嵌入提供者.
type GeminiConfig struct {
	providers.BaseProviderConfig `yaml:",inline"`
	TaskType                     InputType `json:"task_type,omitempty" yaml:"task_type,omitempty"`
}

// DefaultOpenAIConfig returns default OpenAI embedding config.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "text-embedding-3-small",
			Timeout: 30 * time.Second,
		},
	}
}

// DefaultGeminiConfig 返回默认 Gemini 嵌入配置.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-embedding-001",
			Timeout: 30 * time.Second,
		},
		TaskType: InputTypeDocument,
	}
}
