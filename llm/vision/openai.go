package vision

import (
	"context"
	"net/http"
	"strings"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
	"github.com/BaSui01/capflow/types"
)

// OpenAIProvider 通过 chat completions 的 image_url 内容描述图像.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
}

var (
	_ capability.ImageDescriber    = (*OpenAIProvider)(nil)
	_ capability.CredentialChecker = (*OpenAIProvider)(nil)
)

// NewOpenAIProvider 创建 OpenAI 图像描述提供者.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	def := DefaultOpenAIConfig()
	cfg.BaseProviderConfig = cfg.BaseProviderConfig.WithDefaults(def.BaseURL, def.Model, def.Timeout)
	if cfg.Detail == "" {
		cfg.Detail = def.Detail
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &OpenAIProvider{cfg: cfg, client: cfg.HTTPClient()}
}

func (p *OpenAIProvider) ID() string { return "openai" }

func (p *OpenAIProvider) Capabilities() []capability.Capability {
	return []capability.Capability{capability.CapabilityVision}
}

func (p *OpenAIProvider) HasCredentials() bool { return p.cfg.HasCredentials() }

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIChatRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// DescribeImage 实现 capability.ImageDescriber
func (p *OpenAIProvider) DescribeImage(ctx context.Context, req *capability.ImageRequest) (*capability.ImageResult, error) {
	if err := validate(p.ID(), req); err != nil {
		return nil, err
	}
	model := providers.ChooseModel(req.Model, p.cfg.Model)

	var parts []openAIContentPart
	if req.Prompt != "" {
		parts = append(parts, openAIContentPart{Type: "text", Text: req.Prompt})
	}
	parts = append(parts, openAIContentPart{
		Type:     "image_url",
		ImageURL: &openAIImageURL{URL: dataURL(req), Detail: p.cfg.Detail},
	})

	body := openAIChatRequest{
		Model:     model,
		Messages:  []openAIMessage{{Role: "user", Content: parts}},
		MaxTokens: maxTokens(req.MaxTokens, p.cfg.MaxTokens),
	}

	var resp openAIChatResponse
	err := providers.DoJSON(ctx, p.client, p.ID(), p.cfg.Endpoint("/chat/completions"),
		providers.BearerTokenHeaders(p.cfg.APIKey), body, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, types.NewProviderError(p.ID(), types.ProviderErrUpstream, "empty description")
	}

	return &capability.ImageResult{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Model: providers.ChooseModel(resp.Model, model),
	}, nil
}
