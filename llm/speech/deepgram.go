package speech

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
	"github.com/BaSui01/capflow/types"
)

// DeepgramProvider使用Deepgram API执行STT.
type DeepgramProvider struct {
	cfg    DeepgramConfig
	client *http.Client
}

var (
	_ STTProvider                  = (*DeepgramProvider)(nil)
	_ capability.AudioTranscriber  = (*DeepgramProvider)(nil)
	_ capability.CredentialChecker = (*DeepgramProvider)(nil)
)

// NewDeepgramProvider 创建新的 Deepgram STT 提供者.
func NewDeepgramProvider(cfg DeepgramConfig) *DeepgramProvider {
	def := DefaultDeepgramConfig()
	cfg.BaseProviderConfig = cfg.BaseProviderConfig.WithDefaults(def.BaseURL, def.Model, def.Timeout)

	return &DeepgramProvider{
		cfg:    cfg,
		client: cfg.HTTPClient(),
	}
}

func (p *DeepgramProvider) ID() string { return "deepgram" }

func (p *DeepgramProvider) Capabilities() []capability.Capability {
	return []capability.Capability{capability.CapabilityAudio}
}

func (p *DeepgramProvider) HasCredentials() bool { return p.cfg.HasCredentials() }

func (p *DeepgramProvider) SupportedFormats() []string {
	return []string{"mp3", "mp4", "mp2", "aac", "wav", "flac", "pcm", "m4a", "ogg", "opus", "webm"}
}

type deepgramResponse struct {
	Metadata struct {
		RequestID string  `json:"request_id"`
		Duration  float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language,omitempty"`
			Alternatives     []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Confidence float64 `json:"confidence"`
			Transcript string  `json:"transcript"`
			Speaker    int     `json:"speaker"`
		} `json:"utterances,omitempty"`
	} `json:"results"`
}

// Transcribe 将语音转换为使用Deepgram的文本。
func (p *DeepgramProvider) Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error) {
	if len(req.Audio) == 0 {
		return nil, types.NewProviderError(p.ID(), types.ProviderErrInvalidRequest, "audio input is required")
	}

	model := providers.ChooseModel(req.Model, p.cfg.Model)

	// 构建查询参数
	params := url.Values{}
	params.Set("model", model)
	params.Set("punctuate", "true")
	if p.cfg.SmartFormat {
		params.Set("smart_format", "true")
	}
	if req.Language != "" {
		params.Set("language", req.Language)
	} else {
		params.Set("detect_language", "true")
	}

	endpoint := fmt.Sprintf("%s?%s", p.cfg.Endpoint("/listen"), params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.Audio))
	if err != nil {
		return nil, types.NewProviderError(p.ID(), types.ProviderErrInvalidRequest, "build request: "+err.Error())
	}
	contentType := req.MIME
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Token "+p.cfg.APIKey)

	var dResp deepgramResponse
	if err := providers.Do(p.client, p.ID(), httpReq, &dResp); err != nil {
		return nil, err
	}

	result := &STTResponse{
		Provider:  p.ID(),
		Model:     model,
		Language:  req.Language,
		Duration:  seconds(dResp.Metadata.Duration),
		CreatedAt: time.Now(),
	}

	// 从第一个频道提取记录
	if len(dResp.Results.Channels) > 0 {
		ch := dResp.Results.Channels[0]
		if result.Language == "" {
			result.Language = ch.DetectedLanguage
		}
		if len(ch.Alternatives) > 0 {
			result.Text = strings.TrimSpace(ch.Alternatives[0].Transcript)
			result.Confidence = ch.Alternatives[0].Confidence
		}
	}

	for i, u := range dResp.Results.Utterances {
		result.Segments = append(result.Segments, Segment{
			ID:         i,
			Start:      seconds(u.Start),
			End:        seconds(u.End),
			Text:       u.Transcript,
			Speaker:    fmt.Sprintf("speaker_%d", u.Speaker),
			Confidence: u.Confidence,
		})
	}

	return result, nil
}

// TranscribeAudio 实现 capability.AudioTranscriber
func (p *DeepgramProvider) TranscribeAudio(ctx context.Context, req *capability.AudioRequest) (*capability.AudioResult, error) {
	return transcribeAudio(ctx, p, req)
}
