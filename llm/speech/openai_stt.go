package speech

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
	"github.com/BaSui01/capflow/types"
)

// OpenAISTTProvider 调用 OpenAI 兼容的 /audio/transcriptions 接口执行 STT.
// Groq 使用同一协议，仅 BaseURL 与默认模型不同。
type OpenAISTTProvider struct {
	cfg    OpenAISTTConfig
	client *http.Client
}

var (
	_ STTProvider                  = (*OpenAISTTProvider)(nil)
	_ capability.AudioTranscriber  = (*OpenAISTTProvider)(nil)
	_ capability.CredentialChecker = (*OpenAISTTProvider)(nil)
)

// NewOpenAISTTProvider 创建新的 OpenAI 兼容 STT 提供者.
func NewOpenAISTTProvider(cfg OpenAISTTConfig) *OpenAISTTProvider {
	def := DefaultOpenAISTTConfig()
	if cfg.ID == "" {
		cfg.ID = def.ID
	}
	cfg.BaseProviderConfig = cfg.BaseProviderConfig.WithDefaults(def.BaseURL, def.Model, def.Timeout)

	return &OpenAISTTProvider{
		cfg:    cfg,
		client: cfg.HTTPClient(),
	}
}

func (p *OpenAISTTProvider) ID() string { return p.cfg.ID }

func (p *OpenAISTTProvider) Capabilities() []capability.Capability {
	return []capability.Capability{capability.CapabilityAudio}
}

func (p *OpenAISTTProvider) HasCredentials() bool { return p.cfg.HasCredentials() }

func (p *OpenAISTTProvider) SupportedFormats() []string {
	return []string{"flac", "m4a", "mp3", "mp4", "mpeg", "mpga", "oga", "ogg", "wav", "webm"}
}

type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments,omitempty"`
}

// responseFormat 选择响应格式。gpt-4o 系列转写模型只支持 json/text。
func responseFormat(model, requested string) string {
	if requested != "" {
		return requested
	}
	if strings.HasPrefix(model, "whisper") {
		return "verbose_json"
	}
	return "json"
}

// Transcribe 将语音转换为文本 。
func (p *OpenAISTTProvider) Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error) {
	if len(req.Audio) == 0 {
		return nil, types.NewProviderError(p.cfg.ID, types.ProviderErrInvalidRequest, "audio input is required")
	}

	model := providers.ChooseModel(req.Model, p.cfg.Model)

	// 构建多部分形式
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileName := req.FileName
	if fileName == "" {
		fileName = "audio" + extensionFor(req.MIME)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	if req.MIME != "" {
		header.Set("Content-Type", req.MIME)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, types.NewProviderError(p.cfg.ID, types.ProviderErrInternal, "create form file: "+err.Error())
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, types.NewProviderError(p.cfg.ID, types.ProviderErrInternal, "write audio: "+err.Error())
	}

	_ = writer.WriteField("model", model)
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	if req.Prompt != "" {
		_ = writer.WriteField("prompt", req.Prompt)
	}
	_ = writer.WriteField("response_format", responseFormat(model, req.ResponseFormat))
	if err := writer.Close(); err != nil {
		return nil, types.NewProviderError(p.cfg.ID, types.ProviderErrInternal, "close form: "+err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint("/audio/transcriptions"), &buf)
	if err != nil {
		return nil, types.NewProviderError(p.cfg.ID, types.ProviderErrInvalidRequest, "build request: "+err.Error())
	}
	providers.BearerTokenHeaders(p.cfg.APIKey)(httpReq)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	var wResp whisperResponse
	if err := providers.Do(p.client, p.cfg.ID, httpReq, &wResp); err != nil {
		return nil, err
	}

	result := &STTResponse{
		Provider:  p.cfg.ID,
		Model:     model,
		Text:      strings.TrimSpace(wResp.Text),
		Language:  wResp.Language,
		Duration:  seconds(wResp.Duration),
		CreatedAt: time.Now(),
	}
	for _, s := range wResp.Segments {
		result.Segments = append(result.Segments, Segment{
			ID:    s.ID,
			Start: seconds(s.Start),
			End:   seconds(s.End),
			Text:  s.Text,
		})
	}
	return result, nil
}

// TranscribeAudio 实现 capability.AudioTranscriber
func (p *OpenAISTTProvider) TranscribeAudio(ctx context.Context, req *capability.AudioRequest) (*capability.AudioResult, error) {
	return transcribeAudio(ctx, p, req)
}

// transcribeAudio 将能力请求转换为 STTRequest 并转换结果
func transcribeAudio(ctx context.Context, p STTProvider, req *capability.AudioRequest) (*capability.AudioResult, error) {
	resp, err := p.Transcribe(ctx, &STTRequest{
		Audio:    req.Data,
		FileName: req.FileName,
		MIME:     req.MIME,
		Model:    req.Model,
		Language: req.Language,
		Prompt:   req.Prompt,
	})
	if err != nil {
		return nil, err
	}
	return &capability.AudioResult{
		Text:     resp.Text,
		Model:    resp.Model,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])) {
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/flac":
		return ".flac"
	default:
		return ".mp3"
	}
}
