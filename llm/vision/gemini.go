package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
	"github.com/BaSui01/capflow/types"
)

// GeminiProvider 通过 generateContent 的 inline_data 描述图像.
type GeminiProvider struct {
	cfg    GeminiConfig
	client *http.Client
}

var (
	_ capability.ImageDescriber    = (*GeminiProvider)(nil)
	_ capability.CredentialChecker = (*GeminiProvider)(nil)
)

// NewGeminiProvider 创建 Gemini 图像描述提供者.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	def := DefaultGeminiConfig()
	cfg.BaseProviderConfig = cfg.BaseProviderConfig.WithDefaults(def.BaseURL, def.Model, def.Timeout)
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &GeminiProvider{cfg: cfg, client: cfg.HTTPClient()}
}

func (p *GeminiProvider) ID() string { return "gemini" }

func (p *GeminiProvider) Capabilities() []capability.Capability {
	return []capability.Capability{capability.CapabilityVision}
}

func (p *GeminiProvider) HasCredentials() bool { return p.cfg.HasCredentials() }

type geminiInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiFileData struct {
	FileURI  string `json:"file_uri"`
	MimeType string `json:"mime_type,omitempty"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiInline   `json:"inline_data,omitempty"`
	FileData   *geminiFileData `json:"file_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// DescribeImage 实现 capability.ImageDescriber
func (p *GeminiProvider) DescribeImage(ctx context.Context, req *capability.ImageRequest) (*capability.ImageResult, error) {
	if err := validate(p.ID(), req); err != nil {
		return nil, err
	}
	model := providers.ChooseModel(req.Model, p.cfg.Model)

	var parts []geminiPart
	if req.Prompt != "" {
		parts = append(parts, geminiPart{Text: req.Prompt})
	}
	if len(req.Data) > 0 {
		parts = append(parts, geminiPart{InlineData: &geminiInline{
			MimeType: imageMIME(req),
			Data:     base64.StdEncoding.EncodeToString(req.Data),
		}})
	} else {
		parts = append(parts, geminiPart{FileData: &geminiFileData{FileURI: req.URL, MimeType: req.MIME}})
	}

	var body geminiGenerateRequest
	body.Contents = []geminiContent{{Role: "user", Parts: parts}}
	body.GenerationConfig.MaxOutputTokens = maxTokens(req.MaxTokens, p.cfg.MaxTokens)

	var resp geminiGenerateResponse
	endpoint := p.cfg.Endpoint(fmt.Sprintf("/models/%s:generateContent", model))
	err := providers.DoJSON(ctx, p.client, p.ID(), endpoint, func(r *http.Request) {
		r.Header.Set("x-goog-api-key", p.cfg.APIKey)
	}, body, &resp)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, types.NewProviderError(p.ID(), types.ProviderErrUpstream, "empty description")
	}
	return &capability.ImageResult{Text: text, Model: model}, nil
}
