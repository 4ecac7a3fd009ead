package embedding

import (
	"context"
	"time"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
)

// OpenAIProvider implements embedding using OpenAI's API.
type OpenAIProvider struct {
	*BaseProvider
	cfg OpenAIConfig
}

var _ capability.Embedder = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI embedding provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	def := DefaultOpenAIConfig()
	cfg.BaseProviderConfig = cfg.BaseProviderConfig.WithDefaults(def.BaseURL, def.Model, def.Timeout)

	return &OpenAIProvider{
		BaseProvider: NewBaseProvider("openai", cfg.BaseProviderConfig),
		cfg:          cfg,
	}
}

type openAIEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed generates embeddings for the given inputs.
func (p *OpenAIProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	model := providers.ChooseModel(req.Model, p.cfg.Model)
	dims := req.Dimensions
	if dims == 0 {
		dims = p.cfg.Dimensions
	}

	body := openAIEmbedRequest{
		Input:      req.Input,
		Model:      model,
		Dimensions: dims,
	}

	var oaResp openAIEmbedResponse
	err := providers.DoJSON(ctx, p.client, p.ID(), p.cfg.Endpoint("/embeddings"),
		providers.BearerTokenHeaders(p.cfg.APIKey), body, &oaResp)
	if err != nil {
		return nil, err
	}

	embeddings := make([]EmbeddingData, len(oaResp.Data))
	for i, d := range oaResp.Data {
		embeddings[i] = EmbeddingData{
			Index:     d.Index,
			Embedding: d.Embedding,
		}
	}
	if oaResp.Model == "" {
		oaResp.Model = model
	}

	return &EmbeddingResponse{
		Provider:   p.ID(),
		Model:      oaResp.Model,
		Embeddings: embeddings,
		Usage: EmbeddingUsage{
			PromptTokens: oaResp.Usage.PromptTokens,
			TotalTokens:  oaResp.Usage.TotalTokens,
		},
		CreatedAt: time.Now(),
	}, nil
}

// GenerateEmbedding 实现 capability.Embedder
func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, req *capability.EmbeddingRequest) (*capability.EmbeddingResult, error) {
	return p.generate(ctx, req, p.Embed)
}
