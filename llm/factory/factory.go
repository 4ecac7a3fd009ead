package factory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/embedding"
	"github.com/BaSui01/capflow/llm/providers"
	"github.com/BaSui01/capflow/llm/speech"
	"github.com/BaSui01/capflow/llm/vision"
	"github.com/BaSui01/capflow/types"
)

// Supported provider types.
const (
	TypeOpenAI   = "openai"
	TypeGroq     = "groq"
	TypeDeepgram = "deepgram"
	TypeGemini   = "gemini"
)

// wellKnownKeyEnv is consulted when a provider has neither api_key nor api_key_env.
var wellKnownKeyEnv = map[string]string{
	TypeOpenAI:   "OPENAI_API_KEY",
	TypeGroq:     "GROQ_API_KEY",
	TypeDeepgram: "DEEPGRAM_API_KEY",
	TypeGemini:   "GEMINI_API_KEY",
}

// SupportedTypes returns the provider types the factory can build.
func SupportedTypes() []string {
	return []string{TypeOpenAI, TypeGroq, TypeDeepgram, TypeGemini}
}

// ResolveAPIKey returns the credential for a provider: the literal api_key,
// then the variable named by api_key_env, then the well-known variable of its type.
func ResolveAPIKey(providerType string, pc config.ProviderConfig) string {
	if key := strings.TrimSpace(pc.APIKey); key != "" {
		return key
	}
	if pc.APIKeyEnv != "" {
		if key := strings.TrimSpace(os.Getenv(pc.APIKeyEnv)); key != "" {
			return key
		}
	}
	if env, ok := wellKnownKeyEnv[providerType]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// NewProvider creates the provider configured under id.
func NewProvider(id string, pc config.ProviderConfig) (capability.Provider, error) {
	providerType := strings.ToLower(strings.TrimSpace(pc.Type))
	if providerType == "" {
		providerType = strings.ToLower(id)
	}

	base := providers.BaseProviderConfig{
		APIKey:  ResolveAPIKey(providerType, pc),
		BaseURL: pc.BaseURL,
		Timeout: pc.Timeout,
	}

	p := &compositeProvider{id: id, credentialed: base.HasCredentials()}
	switch providerType {
	case TypeOpenAI:
		stt := speech.DefaultOpenAISTTConfig()
		stt.BaseProviderConfig = base
		stt.ID = id
		p.audio = speech.NewOpenAISTTProvider(stt)
		p.vision = vision.NewOpenAIProvider(vision.OpenAIConfig{BaseProviderConfig: base})
		p.embedder = embedding.NewOpenAIProvider(embedding.OpenAIConfig{BaseProviderConfig: base})

	case TypeGroq:
		stt := speech.DefaultGroqSTTConfig()
		stt.BaseProviderConfig = base.WithDefaults(stt.BaseURL, stt.Model, stt.Timeout)
		stt.ID = id
		p.audio = speech.NewOpenAISTTProvider(stt)

	case TypeDeepgram:
		dg := speech.DefaultDeepgramConfig()
		dg.BaseProviderConfig = base
		p.audio = speech.NewDeepgramProvider(dg)

	case TypeGemini:
		p.vision = vision.NewGeminiProvider(vision.GeminiConfig{BaseProviderConfig: base})
		p.embedder = embedding.NewGeminiProvider(embedding.GeminiConfig{BaseProviderConfig: base})

	default:
		return nil, types.NewConfigError(types.ErrConfigInvalid, "models.providers."+id+".type",
			fmt.Sprintf("unsupported provider type %q (supported: %s)", providerType, strings.Join(SupportedTypes(), ", ")))
	}

	supported := p.supported()
	if len(pc.Capabilities) == 0 {
		p.caps = supported
		return p, nil
	}
	for _, name := range pc.Capabilities {
		c := capability.Capability(strings.ToLower(strings.TrimSpace(name)))
		if !slices.Contains(supported, c) {
			return nil, types.NewConfigError(types.ErrConfigInvalid, "models.providers."+id+".capabilities",
				fmt.Sprintf("provider type %q does not support %q", providerType, name))
		}
		if !slices.Contains(p.caps, c) {
			p.caps = append(p.caps, c)
		}
	}
	return p, nil
}

// BuildRegistry creates a registry holding every enabled provider, in the
// order the providers appear in the configuration.
func BuildRegistry(cfg config.ModelsConfig, logger *zap.Logger) (*capability.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "provider_factory"))

	reg := capability.NewRegistry()
	for _, id := range cfg.ProviderIDs() {
		pc := cfg.Providers[id]
		if pc.Disabled {
			logger.Debug("provider disabled", zap.String("provider", id))
			continue
		}
		p, err := NewProvider(id, pc)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(id, p); err != nil {
			return nil, err
		}

		fields := []zap.Field{
			zap.String("provider", id),
			zap.Strings("capabilities", capabilityNames(p.Capabilities())),
		}
		if reg.HasCredentials(id) {
			logger.Info("provider registered", fields...)
		} else {
			logger.Warn("provider registered without credentials", fields...)
		}
	}
	return reg, nil
}

func capabilityNames(caps []capability.Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return names
}

// =============================================================================
// compositeProvider
// =============================================================================

// compositeProvider exposes the capability adapters of one vendor account
// under a single registry id.
type compositeProvider struct {
	id           string
	caps         []capability.Capability
	credentialed bool

	audio    capability.AudioTranscriber
	vision   capability.ImageDescriber
	embedder capability.Embedder
}

var (
	_ capability.AudioTranscriber  = (*compositeProvider)(nil)
	_ capability.ImageDescriber    = (*compositeProvider)(nil)
	_ capability.Embedder          = (*compositeProvider)(nil)
	_ capability.CredentialChecker = (*compositeProvider)(nil)
)

func (p *compositeProvider) ID() string { return p.id }

func (p *compositeProvider) Capabilities() []capability.Capability {
	return append([]capability.Capability(nil), p.caps...)
}

func (p *compositeProvider) HasCredentials() bool { return p.credentialed }

// supported lists the capabilities backed by an adapter.
func (p *compositeProvider) supported() []capability.Capability {
	var caps []capability.Capability
	if p.audio != nil {
		caps = append(caps, capability.CapabilityAudio)
	}
	if p.vision != nil {
		caps = append(caps, capability.CapabilityVision)
	}
	if p.embedder != nil {
		caps = append(caps, capability.CapabilityEmbedding)
	}
	return caps
}

func (p *compositeProvider) unsupported(c capability.Capability) error {
	return &types.ProviderError{
		Provider: p.id, Capability: string(c), Kind: types.ProviderErrUnsupported,
		Message: fmt.Sprintf("provider %q does not support %s", p.id, c),
	}
}

func (p *compositeProvider) TranscribeAudio(ctx context.Context, req *capability.AudioRequest) (*capability.AudioResult, error) {
	if p.audio == nil {
		return nil, p.unsupported(capability.CapabilityAudio)
	}
	return p.audio.TranscribeAudio(ctx, req)
}

func (p *compositeProvider) DescribeImage(ctx context.Context, req *capability.ImageRequest) (*capability.ImageResult, error) {
	if p.vision == nil {
		return nil, p.unsupported(capability.CapabilityVision)
	}
	return p.vision.DescribeImage(ctx, req)
}

func (p *compositeProvider) GenerateEmbedding(ctx context.Context, req *capability.EmbeddingRequest) (*capability.EmbeddingResult, error) {
	if p.embedder == nil {
		return nil, p.unsupported(capability.CapabilityEmbedding)
	}
	return p.embedder.GenerateEmbedding(ctx, req)
}
