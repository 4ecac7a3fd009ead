package capability_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/testutil/mocks"
)

func audioRegistry() *capability.Registry {
	return capability.NewRegistry().
		MustRegister("openai", mocks.NewMockCapabilityProvider("openai", capability.CapabilityAudio, capability.CapabilityVision)).
		MustRegister("deepgram", mocks.NewMockCapabilityProvider("deepgram", capability.CapabilityAudio)).
		MustRegister("gemini", mocks.NewMockCapabilityProvider("gemini", capability.CapabilityEmbedding))
}

func TestResolve(t *testing.T) {
	reg := audioRegistry()

	noVision := capability.NewRegistry().
		MustRegister("deepgram", mocks.NewMockCapabilityProvider("deepgram", capability.CapabilityAudio))

	tests := []struct {
		name       string
		reg        *capability.Registry
		cap        capability.Capability
		cfg        capability.Config
		enabled    bool
		candidates []capability.Candidate
		reason     string
		notes      []string
	}{
		{
			name:   "explicit off wins over models",
			cap:    capability.CapabilityAudio,
			cfg:    capability.Config{Enabled: capability.ToggleOff, Models: []capability.ModelEntry{{Provider: "openai"}}},
			reason: capability.ReasonDisabled,
		},
		{
			name:    "auto uses registration order",
			cap:     capability.CapabilityAudio,
			cfg:     capability.Config{Enabled: capability.ToggleAuto},
			enabled: true,
			candidates: []capability.Candidate{
				{Provider: "openai"},
				{Provider: "deepgram"},
			},
		},
		{
			name:    "explicit entries verbatim",
			cap:     capability.CapabilityAudio,
			cfg:     capability.Config{Models: []capability.ModelEntry{{Provider: "deepgram", Model: "nova-2"}, {Provider: "openai", Model: "whisper-1"}}},
			enabled: true,
			candidates: []capability.Candidate{
				{Provider: "deepgram", Model: "nova-2"},
				{Provider: "openai", Model: "whisper-1"},
			},
		},
		{
			name:       "unknown and unsupported entries dropped",
			cap:        capability.CapabilityAudio,
			cfg:        capability.Config{Models: []capability.ModelEntry{{Provider: "ghost"}, {Provider: "gemini"}, {Provider: "openai", Model: "whisper-1"}}},
			enabled:    true,
			candidates: []capability.Candidate{{Provider: "openai", Model: "whisper-1"}},
			notes: []string{
				`provider "ghost" not registered`,
				`provider "gemini" does not support audio`,
			},
		},
		{
			name:   "all explicit entries dropped",
			cap:    capability.CapabilityVision,
			cfg:    capability.Config{Models: []capability.ModelEntry{{Provider: "deepgram"}}},
			reason: capability.ReasonConfiguredUnavail,
			notes:  []string{`provider "deepgram" does not support vision`},
		},
		{
			name:   "no provider declares capability",
			reg:    noVision,
			cap:    capability.CapabilityVision,
			cfg:    capability.Config{Enabled: capability.ToggleAuto},
			reason: capability.ReasonNoProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reg
			if tt.reg != nil {
				r = tt.reg
			}
			res := capability.Resolve(tt.cap, tt.cfg, r)
			assert.Equal(t, tt.enabled, res.Enabled)
			assert.Equal(t, tt.candidates, res.Candidates)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.notes, res.Notes)
		})
	}
}

func TestResolve_AutoRequiresCredentials(t *testing.T) {
	reg := capability.NewRegistry().
		MustRegister("openai", mocks.NewMockCapabilityProvider("openai", capability.CapabilityAudio).WithoutCredentials()).
		MustRegister("deepgram", mocks.NewMockCapabilityProvider("deepgram", capability.CapabilityAudio))

	res := capability.Resolve(capability.CapabilityAudio, capability.Config{Enabled: capability.ToggleAuto}, reg)
	assert.True(t, res.Enabled)
	assert.Equal(t, []capability.Candidate{{Provider: "deepgram"}}, res.Candidates)
	assert.Equal(t, []string{`provider "openai" has no credentials`}, res.Notes)

	keyless := capability.NewRegistry().
		MustRegister("openai", mocks.NewMockCapabilityProvider("openai", capability.CapabilityAudio).WithoutCredentials())
	res = capability.Resolve(capability.CapabilityAudio, capability.Config{Enabled: capability.ToggleAuto}, keyless)
	assert.False(t, res.Enabled)
	assert.Equal(t, capability.ReasonNoCredentials, res.Reason)

	// Explicitly enabled capabilities try declaring providers regardless of credentials.
	res = capability.Resolve(capability.CapabilityAudio, capability.Config{Enabled: capability.ToggleOn}, keyless)
	assert.True(t, res.Enabled)
	assert.Equal(t, []capability.Candidate{{Provider: "openai"}}, res.Candidates)
}

// entriesGen draws explicit model entries over a small provider alphabet so
// that known, unknown and unsupported providers all show up.
func entriesGen() gopter.Gen {
	ids := []string{"openai", "deepgram", "gemini", "ghost"}
	return gen.SliceOf(gen.IntRange(0, len(ids)-1)).
		Map(func(picks []int) []capability.ModelEntry {
			out := make([]capability.ModelEntry, len(picks))
			for i, p := range picks {
				out[i] = capability.ModelEntry{Provider: ids[p], Model: fmt.Sprintf("m-%d", i)}
			}
			return out
		})
}

func TestProperty_ResolveInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	reg := audioRegistry()
	toggles := []capability.Toggle{capability.ToggleAuto, capability.ToggleOn, capability.ToggleOff}

	properties.Property("off never yields candidates", prop.ForAll(
		func(models []capability.ModelEntry) bool {
			res := capability.Resolve(capability.CapabilityAudio, capability.Config{Enabled: capability.ToggleOff, Models: models}, reg)
			return !res.Enabled && len(res.Candidates) == 0 && res.Reason == capability.ReasonDisabled
		},
		entriesGen(),
	))

	properties.Property("enabled iff candidates non-empty", prop.ForAll(
		func(models []capability.ModelEntry, toggle int) bool {
			cfg := capability.Config{Enabled: toggles[toggle], Models: models}
			res := capability.Resolve(capability.CapabilityAudio, cfg, reg)
			if res.Enabled != (len(res.Candidates) > 0) {
				return false
			}
			return res.Enabled == (res.Reason == "")
		},
		entriesGen(),
		gen.IntRange(0, 2),
	))

	properties.Property("explicit candidates are an ordered subsequence of supported entries", prop.ForAll(
		func(models []capability.ModelEntry) bool {
			if len(models) == 0 {
				return true
			}
			res := capability.Resolve(capability.CapabilityAudio, capability.Config{Models: models}, reg)
			var want []capability.Candidate
			for _, m := range models {
				if reg.Supports(m.Provider, capability.CapabilityAudio) {
					want = append(want, capability.Candidate{Provider: m.Provider, Model: m.Model})
				}
			}
			return slices.Equal(want, res.Candidates) && len(res.Notes) == len(models)-len(want)
		},
		entriesGen(),
	))

	properties.Property("resolution is deterministic", prop.ForAll(
		func(models []capability.ModelEntry, toggle int) bool {
			cfg := capability.Config{Enabled: toggles[toggle], Models: models}
			a := capability.Resolve(capability.CapabilityAudio, cfg, reg)
			b := capability.Resolve(capability.CapabilityAudio, cfg, reg)
			return slices.Equal(a.Candidates, b.Candidates) && a.Reason == b.Reason
		},
		entriesGen(),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}
