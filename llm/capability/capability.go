package capability

import (
	"context"
	"time"
)

// Capability is a named category of AI operation that zero or more providers can fulfil.
type Capability string

const (
	CapabilityAudio     Capability = "audio"
	CapabilityVision    Capability = "vision"
	CapabilityEmbedding Capability = "embedding"
)

// All returns the capabilities known to the runner, in a stable order.
func All() []Capability {
	return []Capability{CapabilityAudio, CapabilityVision, CapabilityEmbedding}
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityAudio, CapabilityVision, CapabilityEmbedding:
		return true
	default:
		return false
	}
}

// OutputKind identifies what an Output holds.
type OutputKind string

const (
	KindAudioTranscription OutputKind = "audio.transcription"
	KindImageDescription   OutputKind = "image.description"
	KindEmbedding          OutputKind = "embedding.vector"
)

// KindFor returns the output kind produced by a capability.
func KindFor(c Capability) OutputKind {
	switch c {
	case CapabilityAudio:
		return KindAudioTranscription
	case CapabilityVision:
		return KindImageDescription
	case CapabilityEmbedding:
		return KindEmbedding
	default:
		return OutputKind(c)
	}
}

// defaultModels holds the model used for a candidate that leaves its model
// unset, per capability and provider. Providers missing here pick their own.
var defaultModels = map[Capability]map[string]string{
	CapabilityAudio: {
		"openai":   "gpt-4o-mini-transcribe",
		"groq":     "whisper-large-v3-turbo",
		"deepgram": "nova-3",
	},
	CapabilityVision: {
		"openai": "gpt-4o-mini",
		"gemini": "gemini-2.5-flash",
	},
	CapabilityEmbedding: {
		"openai": "text-embedding-3-small",
		"gemini": "gemini-embedding-001",
	},
}

// DefaultModel returns the default model for provider under capability, or "".
func DefaultModel(c Capability, provider string) string {
	return defaultModels[c][provider]
}

// =============================================================================
// Attachments
// =============================================================================

// Attachment is one unit of input data processed independently within a run.
// Its position in the run input is its index. Exactly one of Data, Path, URL
// or Text is normally set.
type Attachment struct {
	MIME     string `json:"mime,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Path     string `json:"path,omitempty"`
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"-"`
	// Text is the input for text-only capabilities such as embedding.
	Text string `json:"text,omitempty"`
}

// AttachmentSource supplies attachment bytes. Implementations read but never
// mutate the attachment.
type AttachmentSource interface {
	Fetch(ctx context.Context, att Attachment, maxBytes int64) ([]byte, error)
}

// =============================================================================
// Requests, results and provider interfaces
// =============================================================================

// AudioRequest asks a provider to transcribe one audio clip.
type AudioRequest struct {
	Model    string
	Data     []byte
	MIME     string
	FileName string
	Language string
	Prompt   string
}

// AudioResult is a transcription. Model echoes the model actually used.
type AudioResult struct {
	Text     string
	Model    string
	Language string
	Duration time.Duration
}

// ImageRequest asks a provider to describe one image.
type ImageRequest struct {
	Model     string
	Data      []byte
	MIME      string
	URL       string
	Prompt    string
	MaxTokens int
}

// ImageResult is an image description. Model echoes the model actually used.
type ImageResult struct {
	Text  string
	Model string
}

// EmbeddingRequest asks a provider to embed one text.
type EmbeddingRequest struct {
	Model      string
	Input      string
	Dimensions int
}

// EmbeddingResult is an embedding vector. Model echoes the model actually used.
type EmbeddingResult struct {
	Vector []float64
	Model  string
	Tokens int
}

// Provider is a configured backend able to perform one or more capabilities.
// A provider must also implement the interface matching each capability it
// declares; the registry checks this at registration.
type Provider interface {
	ID() string
	Capabilities() []Capability
}

// AudioTranscriber serves CapabilityAudio.
type AudioTranscriber interface {
	TranscribeAudio(ctx context.Context, req *AudioRequest) (*AudioResult, error)
}

// ImageDescriber serves CapabilityVision.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, req *ImageRequest) (*ImageResult, error)
}

// Embedder serves CapabilityEmbedding.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResult, error)
}

// CredentialChecker is implemented by providers that can report whether they
// hold usable credentials. Providers without it count as credentialed.
type CredentialChecker interface {
	HasCredentials() bool
}

// Request is the capability-agnostic input handed to Registry.Invoke. The
// registry turns it into the capability-specific request.
type Request struct {
	Model      string
	Attachment Attachment
	Data       []byte
	Prompt     string
	Language   string
	MaxTokens  int
	Dimensions int
}

// Output is one capability result, tied to the attachment that produced it.
type Output struct {
	Kind            OutputKind `json:"kind"`
	AttachmentIndex int        `json:"attachment_index"`
	Provider        string     `json:"provider"`
	Model           string     `json:"model,omitempty"`
	Text            string     `json:"text,omitempty"`
	Embedding       []float64  `json:"embedding,omitempty"`
	Language        string     `json:"language,omitempty"`
}
