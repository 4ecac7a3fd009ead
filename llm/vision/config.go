package vision

import (
	"time"

	"github.com/BaSui01/capflow/llm/providers"
)

// OpenAIConfig 配置 OpenAI 图像描述提供者.
type OpenAIConfig struct {
	providers.BaseProviderConfig `yaml:",inline"`
	Detail                       string `json:"detail,omitempty" yaml:"detail,omitempty"` // low, high, auto
	MaxTokens                    int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// GeminiConfig 配置 Gemini 图像描述提供者.
type GeminiConfig struct {
	providers.BaseProviderConfig `yaml:",inline"`
	MaxTokens                    int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// DefaultOpenAIConfig 返回默认 OpenAI 配置.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Detail:    "auto",
		MaxTokens: 512,
	}
}

// DefaultGeminiConfig 返回默认 Gemini 配置.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-2.5-flash",
			Timeout: 60 * time.Second,
		},
		MaxTokens: 512,
	}
}
