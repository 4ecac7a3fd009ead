package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
)

// GeminiProvider 使用 Google Gemini API 执行嵌入.
// 注: Gemini 使用不同的端点格式: /models/{model}:embedContent
type GeminiProvider struct {
	*BaseProvider
	cfg GeminiConfig
}

var _ capability.Embedder = (*GeminiProvider)(nil)

// NewGeminiProvider 创建新的 Gemini 嵌入提供者.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	def := DefaultGeminiConfig()
	cfg.BaseProviderConfig = cfg.BaseProviderConfig.WithDefaults(def.BaseURL, def.Model, def.Timeout)
	if cfg.TaskType == "" {
		cfg.TaskType = def.TaskType
	}

	return &GeminiProvider{
		BaseProvider: NewBaseProvider("gemini", cfg.BaseProviderConfig),
		cfg:          cfg,
	}
}

// Gemini TaskType 映射
type geminiTaskType string

const (
	geminiTaskRetrievalQuery    geminiTaskType = "RETRIEVAL_QUERY"
	geminiTaskRetrievalDocument geminiTaskType = "RETRIEVAL_DOCUMENT"
	geminiTaskSemantic          geminiTaskType = "SEMANTIC_SIMILARITY"
)

type geminiEmbedRequest struct {
	Model                string         `json:"model"`
	Content              geminiContent  `json:"content"`
	TaskType             geminiTaskType `json:"taskType,omitempty"`
	OutputDimensionality int            `json:"outputDimensionality,omitempty"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []geminiContentEmbedding `json:"embeddings"`
}

type geminiEmbedResponse struct {
	Embedding geminiContentEmbedding `json:"embedding"`
}

type geminiContentEmbedding struct {
	Values []float64 `json:"values"`
}

// mapTaskType 将输入任务类型转换为 Gemini 任务类型.
func mapTaskType(inputType InputType) geminiTaskType {
	switch inputType {
	case InputTypeQuery:
		return geminiTaskRetrievalQuery
	case InputTypeSemantic:
		return geminiTaskSemantic
	default:
		return geminiTaskRetrievalDocument
	}
}

// Embed 使用 Gemini API 生成嵌入.
func (p *GeminiProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	model := providers.ChooseModel(req.Model, p.cfg.Model)
	inputType := req.InputType
	if inputType == "" {
		inputType = p.cfg.TaskType
	}

	requests := make([]geminiEmbedRequest, len(req.Input))
	for i, text := range req.Input {
		requests[i] = geminiEmbedRequest{
			Model:                "models/" + model,
			Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
			TaskType:             mapTaskType(inputType),
			OutputDimensionality: req.Dimensions,
		}
	}

	var vectors []geminiContentEmbedding
	if len(requests) == 1 {
		// 单嵌入
		var gResp geminiEmbedResponse
		endpoint := p.cfg.Endpoint(fmt.Sprintf("/models/%s:embedContent", model))
		if err := providers.DoJSON(ctx, p.client, p.ID(), endpoint, p.headers, requests[0], &gResp); err != nil {
			return nil, err
		}
		vectors = []geminiContentEmbedding{gResp.Embedding}
	} else {
		// 对多个输入使用批量端点
		var gResp geminiBatchEmbedResponse
		endpoint := p.cfg.Endpoint(fmt.Sprintf("/models/%s:batchEmbedContents", model))
		if err := providers.DoJSON(ctx, p.client, p.ID(), endpoint, p.headers, geminiBatchEmbedRequest{Requests: requests}, &gResp); err != nil {
			return nil, err
		}
		vectors = gResp.Embeddings
	}

	embeddings := make([]EmbeddingData, len(vectors))
	for i, v := range vectors {
		embeddings[i] = EmbeddingData{Index: i, Embedding: v.Values}
	}

	return &EmbeddingResponse{
		Provider:   p.ID(),
		Model:      model,
		Embeddings: embeddings,
		CreatedAt:  time.Now(),
	}, nil
}

// headers 设置 Gemini 认证头（x-goog-api-key，不是 Bearer 令牌）
func (p *GeminiProvider) headers(r *http.Request) {
	r.Header.Set("x-goog-api-key", p.cfg.APIKey)
}

// GenerateEmbedding 实现 capability.Embedder
func (p *GeminiProvider) GenerateEmbedding(ctx context.Context, req *capability.EmbeddingRequest) (*capability.EmbeddingResult, error) {
	return p.generate(ctx, req, p.Embed)
}
