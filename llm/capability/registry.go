package capability

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/capflow/llm/batch"
	"github.com/BaSui01/capflow/types"
)

// invokeFunc is the capability-specific dispatch bound at registration time.
type invokeFunc func(ctx context.Context, req *Request) (*Output, error)

// descriptor is the immutable registry entry for one provider.
type descriptor struct {
	id           string
	provider     Provider
	capabilities map[Capability]invokeFunc
	credentialed bool
}

// Registry maps provider ids to descriptors. Registration happens once at
// startup; afterwards the registry is only read and is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*descriptor)}
}

// ============================================================
// Registration
// ============================================================

// Register adds provider under id. It fails with a *types.ConfigError when id
// is empty or already taken, or when the provider declares a capability
// without implementing the matching interface.
func (r *Registry) Register(id string, p Provider) error {
	if id == "" {
		return types.NewConfigError(types.ErrConfigInvalid, "provider.id", "provider id is required")
	}
	if p == nil {
		return types.NewConfigError(types.ErrConfigInvalid, "provider."+id, "provider is nil")
	}

	d := &descriptor{
		id:           id,
		provider:     p,
		capabilities: make(map[Capability]invokeFunc),
		credentialed: true,
	}
	if cc, ok := p.(CredentialChecker); ok {
		d.credentialed = cc.HasCredentials()
	}
	for _, c := range p.Capabilities() {
		fn, err := bind(c, p)
		if err != nil {
			return types.NewConfigError(types.ErrConfigInvalid, "provider."+id, err.Error())
		}
		d.capabilities[c] = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[id]; exists {
		return types.NewConfigError(types.ErrDuplicateProvider, "provider."+id, "duplicate provider id")
	}
	r.byID[id] = d
	r.order = append(r.order, id)
	return nil
}

// MustRegister is like Register but panics on error. Intended for tests and
// static wiring.
func (r *Registry) MustRegister(id string, p Provider) *Registry {
	if err := r.Register(id, p); err != nil {
		panic(err)
	}
	return r
}

// bind resolves the implementation of c on p.
func bind(c Capability, p Provider) (invokeFunc, error) {
	switch c {
	case CapabilityAudio:
		impl, ok := p.(AudioTranscriber)
		if !ok {
			return nil, fmt.Errorf("declares %s but does not implement AudioTranscriber", c)
		}
		return func(ctx context.Context, req *Request) (*Output, error) {
			res, err := impl.TranscribeAudio(ctx, &AudioRequest{
				Model:    req.Model,
				Data:     req.Data,
				MIME:     req.Attachment.MIME,
				FileName: req.Attachment.FileName,
				Language: req.Language,
				Prompt:   req.Prompt,
			})
			if err != nil {
				return nil, err
			}
			return &Output{Kind: KindAudioTranscription, Text: res.Text, Model: res.Model, Language: res.Language}, nil
		}, nil

	case CapabilityVision:
		impl, ok := p.(ImageDescriber)
		if !ok {
			return nil, fmt.Errorf("declares %s but does not implement ImageDescriber", c)
		}
		return func(ctx context.Context, req *Request) (*Output, error) {
			res, err := impl.DescribeImage(ctx, &ImageRequest{
				Model:     req.Model,
				Data:      req.Data,
				MIME:      req.Attachment.MIME,
				URL:       req.Attachment.URL,
				Prompt:    req.Prompt,
				MaxTokens: req.MaxTokens,
			})
			if err != nil {
				return nil, err
			}
			return &Output{Kind: KindImageDescription, Text: res.Text, Model: res.Model}, nil
		}, nil

	case CapabilityEmbedding:
		impl, ok := p.(Embedder)
		if !ok {
			return nil, fmt.Errorf("declares %s but does not implement Embedder", c)
		}
		return func(ctx context.Context, req *Request) (*Output, error) {
			input := req.Attachment.Text
			if input == "" {
				input = string(req.Data)
			}
			res, err := impl.GenerateEmbedding(ctx, &EmbeddingRequest{
				Model:      req.Model,
				Input:      input,
				Dimensions: req.Dimensions,
			})
			if err != nil {
				return nil, err
			}
			return &Output{Kind: KindEmbedding, Embedding: res.Vector, Model: res.Model}, nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown capability %q", c)
	}
}

// ============================================================
// Lookup
// ============================================================

// ProvidersFor returns the ids of providers declaring c, in registration order.
func (r *Registry) ProvidersFor(c Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, id := range r.order {
		if _, ok := r.byID[id].capabilities[c]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Supports reports whether provider id is registered and declares c.
func (r *Registry) Supports(id string, c Capability) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok {
		return false
	}
	_, ok = d.capabilities[c]
	return ok
}

// Has reports whether a provider is registered under id.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// HasCredentials reports whether provider id holds usable credentials.
func (r *Registry) HasCredentials(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return ok && d.credentialed
}

// IDs returns all provider ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ============================================================
// Invocation
// ============================================================

// Invoke dispatches req to provider id for capability c. Every failure,
// including a panic inside the provider, is returned as a *types.ProviderError.
func (r *Registry) Invoke(ctx context.Context, id string, c Capability, req *Request) (out *Output, err error) {
	r.mu.RLock()
	d, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &types.ProviderError{
			Provider: id, Capability: string(c), Kind: types.ProviderErrUnknownProvider,
			Message: fmt.Sprintf("provider %q not registered", id),
		}
	}
	fn, ok := d.capabilities[c]
	if !ok {
		return nil, &types.ProviderError{
			Provider: id, Capability: string(c), Kind: types.ProviderErrUnsupported,
			Message: fmt.Sprintf("provider %q does not support %s", id, c),
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = &types.ProviderError{
				Provider: id, Capability: string(c), Kind: types.ProviderErrInternal,
				Message: batch.FormatUnavailableBatchError(rec),
			}
		}
	}()

	out, err = fn(ctx, req)
	if err != nil {
		// AsProviderError hands back a copy, so the provider's value stays untouched.
		pe := types.AsProviderError(id, err)
		if pe.Capability == "" {
			pe.Capability = string(c)
		}
		return nil, pe
	}
	if out == nil {
		return nil, &types.ProviderError{
			Provider: id, Capability: string(c), Kind: types.ProviderErrInternal,
			Message: "provider returned no result",
		}
	}
	out.Provider = id
	if out.Model == "" {
		out.Model = req.Model
	}
	return out, nil
}
