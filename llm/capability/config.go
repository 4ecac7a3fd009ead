package capability

import (
	"slices"
	"strings"
	"time"

	"github.com/BaSui01/capflow/config"
)

// Toggle is the tri-state enabled flag of a capability.
type Toggle string

const (
	ToggleAuto Toggle = "auto"
	ToggleOn   Toggle = "on"
	ToggleOff  Toggle = "off"
)

// ToggleFrom converts an optional boolean into a Toggle; nil means auto.
func ToggleFrom(b *bool) Toggle {
	switch {
	case b == nil:
		return ToggleAuto
	case *b:
		return ToggleOn
	default:
		return ToggleOff
	}
}

// ModelEntry is one explicit (provider, model) pair. An empty Model lets the
// provider default apply.
type ModelEntry struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// Config is the merged, read-only view of one capability's configuration.
type Config struct {
	Enabled     Toggle
	Models      []ModelEntry
	Prompt      string
	Language    string
	MaxTokens   int
	Dimensions  int
	MaxBytes    int64
	Timeout     time.Duration
	Concurrency int
}

const (
	defaultTimeout     = 60 * time.Second
	defaultConcurrency = 2
)

var defaultMaxBytes = map[Capability]int64{
	CapabilityAudio:     20 << 20,
	CapabilityVision:    10 << 20,
	CapabilityEmbedding: 1 << 20,
}

var defaultPrompts = map[Capability]string{
	CapabilityAudio:  "Transcribe the audio.",
	CapabilityVision: "Describe the image.",
}

// DefaultConfig returns the built-in configuration of c: auto mode, no
// explicit models, default limits.
func DefaultConfig(c Capability) Config {
	return Config{
		Enabled:     ToggleAuto,
		Prompt:      defaultPrompts[c],
		MaxBytes:    defaultMaxBytes[c],
		Timeout:     defaultTimeout,
		Concurrency: defaultConcurrency,
	}
}

// MergeConfig collapses the configuration layers of capability c into one
// Config. Precedence, lowest first: built-in defaults, the global media
// settings, the per-capability section. Per-capability models replace the
// shared list entirely; shared entries apply only when their capabilities
// scope is empty or names c.
func MergeConfig(c Capability, media config.MediaToolsConfig) Config {
	cfg := DefaultConfig(c)
	per := media.ForCapability(string(c))

	switch {
	case per.Enabled != nil:
		cfg.Enabled = ToggleFrom(per.Enabled)
	case media.Enabled != nil:
		cfg.Enabled = ToggleFrom(media.Enabled)
	}

	if len(per.Models) > 0 {
		cfg.Models = toEntries(per.Models, "")
	} else {
		cfg.Models = toEntries(media.Models, c)
	}

	if media.Timeout > 0 {
		cfg.Timeout = media.Timeout
	}
	if per.Timeout > 0 {
		cfg.Timeout = per.Timeout
	}
	if media.MaxBytes > 0 {
		cfg.MaxBytes = media.MaxBytes
	}
	if per.MaxBytes > 0 {
		cfg.MaxBytes = per.MaxBytes
	}
	if media.Concurrency > 0 {
		cfg.Concurrency = media.Concurrency
	}
	if per.Concurrency > 0 {
		cfg.Concurrency = per.Concurrency
	}
	if per.Prompt != "" {
		cfg.Prompt = per.Prompt
	}
	cfg.Language = per.Language
	cfg.MaxTokens = per.MaxTokens
	cfg.Dimensions = per.Dimensions
	return cfg
}

// toEntries converts configured models. When scope is non-empty, entries whose
// capabilities list is set but does not contain scope are skipped.
func toEntries(models []config.MediaModelConfig, scope Capability) []ModelEntry {
	var out []ModelEntry
	for _, m := range models {
		if scope != "" && len(m.Capabilities) > 0 && !slices.ContainsFunc(m.Capabilities, func(s string) bool {
			return strings.EqualFold(strings.TrimSpace(s), string(scope))
		}) {
			continue
		}
		out = append(out, ModelEntry{
			Provider: strings.TrimSpace(m.Provider),
			Model:    strings.TrimSpace(m.Model),
		})
	}
	return out
}
