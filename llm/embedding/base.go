package embedding

import (
	"context"
	"net/http"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
	"github.com/BaSui01/capflow/types"
)

// BaseProvider为嵌入提供者提供了共同的功能.
type BaseProvider struct {
	id     string
	cfg    providers.BaseProviderConfig
	client *http.Client
}

// NewBaseProvider 创建了一个新的基础提供者.
func NewBaseProvider(id string, cfg providers.BaseProviderConfig) *BaseProvider {
	return &BaseProvider{
		id:     id,
		cfg:    cfg,
		client: cfg.HTTPClient(),
	}
}

func (p *BaseProvider) ID() string { return p.id }

func (p *BaseProvider) Capabilities() []capability.Capability {
	return []capability.Capability{capability.CapabilityEmbedding}
}

func (p *BaseProvider) HasCredentials() bool { return p.cfg.HasCredentials() }

// generate 将单条能力请求交给 embedFn 并取第一条向量.
func (p *BaseProvider) generate(ctx context.Context, req *capability.EmbeddingRequest, embedFn func(context.Context, *EmbeddingRequest) (*EmbeddingResponse, error)) (*capability.EmbeddingResult, error) {
	if req.Input == "" {
		return nil, types.NewProviderError(p.id, types.ProviderErrInvalidRequest, "embedding input is empty")
	}
	resp, err := embedFn(ctx, &EmbeddingRequest{
		Input:      []string{req.Input},
		Model:      req.Model,
		Dimensions: req.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, types.NewProviderError(p.id, types.ProviderErrUpstream, "no embeddings returned")
	}
	return &capability.EmbeddingResult{
		Vector: resp.Embeddings[0].Embedding,
		Model:  resp.Model,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}
