package speech

import (
	"time"

	"github.com/BaSui01/capflow/llm/providers"
)

// OpenAISTTConfig配置了OpenAI兼容的转写供应商(OpenAI、Groq).
type OpenAISTTConfig struct {
	providers.BaseProviderConfig `yaml:",inline"`
	// ID 是注册表中的 Provider 标识，默认 "openai"
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
}

// DeepgramConfig配置了 Deepgram STT 供应商.
type DeepgramConfig struct {
	providers.BaseProviderConfig `yaml:",inline"`
	SmartFormat                  bool `json:"smart_format,omitempty" yaml:"smart_format,omitempty"`
}

// 默认 OpenAISTTConfig 返回默认 OpenAI STT 配置 。
func DefaultOpenAISTTConfig() OpenAISTTConfig {
	return OpenAISTTConfig{
		ID: "openai",
		BaseProviderConfig: providers.BaseProviderConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini-transcribe",
			Timeout: 120 * time.Second,
		},
	}
}

// DefaultGroqSTTConfig 返回 Groq 的 OpenAI 兼容转写配置 。
func DefaultGroqSTTConfig() OpenAISTTConfig {
	return OpenAISTTConfig{
		ID: "groq",
		BaseProviderConfig: providers.BaseProviderConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "whisper-large-v3-turbo",
			Timeout: 120 * time.Second,
		},
	}
}

// 默认 DeepgramConfig 返回默认 Deepgram 配置 。
func DefaultDeepgramConfig() DeepgramConfig {
	return DeepgramConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			BaseURL: "https://api.deepgram.com/v1",
			Model:   "nova-3",
			Timeout: 120 * time.Second,
		},
		SmartFormat: true,
	}
}
