package speech

import (
	"context"
	"time"
)

// ============================================================
// 语音对文本( STT)
// ============================================================

// STTRequest 代表语音对文本请求.
type STTRequest struct {
	Audio          []byte `json:"-"`
	FileName       string `json:"file_name,omitempty"`
	MIME           string `json:"mime,omitempty"`
	Model          string `json:"model,omitempty"`
	Language       string `json:"language,omitempty"`        // ISO-639-1 code
	Prompt         string `json:"prompt,omitempty"`          // Context hint
	ResponseFormat string `json:"response_format,omitempty"` // json, text, verbose_json
}

// STTResponse代表来自STT请求的答复.
type STTResponse struct {
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	Text       string        `json:"text"`
	Language   string        `json:"language,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Segments   []Segment     `json:"segments,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Segment 代表了抄录片段.
type Segment struct {
	ID         int           `json:"id"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Text       string        `json:"text"`
	Speaker    string        `json:"speaker,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
}

// STTProvider定义了STT提供者接口.
type STTProvider interface {
	// Transcribe 将语音转换为文本 。
	Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error)

	// ID 返回注册表中的提供者标识 。
	ID() string

	// SupportedFormats 返回支持的音频格式 。
	SupportedFormats() []string
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
