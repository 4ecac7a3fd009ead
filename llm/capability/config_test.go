package capability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/testutil/fixtures"
)

func TestToggleFrom(t *testing.T) {
	assert.Equal(t, capability.ToggleAuto, capability.ToggleFrom(nil))
	assert.Equal(t, capability.ToggleOn, capability.ToggleFrom(fixtures.BoolPtr(true)))
	assert.Equal(t, capability.ToggleOff, capability.ToggleFrom(fixtures.BoolPtr(false)))
}

func TestMergeConfig_Defaults(t *testing.T) {
	cfg := capability.MergeConfig(capability.CapabilityAudio, config.MediaToolsConfig{})

	assert.Equal(t, capability.ToggleAuto, cfg.Enabled)
	assert.Empty(t, cfg.Models)
	assert.Equal(t, int64(20<<20), cfg.MaxBytes)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "Transcribe the audio.", cfg.Prompt)
}

func TestMergeConfig_PerCapabilityWins(t *testing.T) {
	media := config.MediaToolsConfig{
		Enabled:     fixtures.BoolPtr(true),
		Concurrency: 4,
		Timeout:     10 * time.Second,
		MaxBytes:    1000,
		Audio: config.MediaCapabilityConfig{
			Enabled:  fixtures.BoolPtr(false),
			Timeout:  3 * time.Second,
			Language: "de",
			Prompt:   "custom",
		},
	}

	audio := capability.MergeConfig(capability.CapabilityAudio, media)
	assert.Equal(t, capability.ToggleOff, audio.Enabled)
	assert.Equal(t, 3*time.Second, audio.Timeout)
	assert.Equal(t, int64(1000), audio.MaxBytes)
	assert.Equal(t, 4, audio.Concurrency)
	assert.Equal(t, "de", audio.Language)
	assert.Equal(t, "custom", audio.Prompt)

	vision := capability.MergeConfig(capability.CapabilityVision, media)
	assert.Equal(t, capability.ToggleOn, vision.Enabled, "global toggle applies when section is unset")
	assert.Equal(t, 10*time.Second, vision.Timeout)
	assert.Equal(t, "Describe the image.", vision.Prompt)
	assert.Empty(t, vision.Language)
}

func TestMergeConfig_Models(t *testing.T) {
	media := config.MediaToolsConfig{
		Models: []config.MediaModelConfig{
			{Provider: "openai", Model: "gpt-4o-mini", Capabilities: []string{"vision"}},
			{Provider: " deepgram ", Model: "nova-3", Capabilities: []string{"Audio"}},
			{Provider: "gemini"},
		},
		Embedding: config.MediaCapabilityConfig{
			Models: []config.MediaModelConfig{{Provider: "openai", Model: "text-embedding-3-large"}},
		},
	}

	assert.Equal(t, []capability.ModelEntry{
		{Provider: "openai", Model: "gpt-4o-mini"},
		{Provider: "gemini"},
	}, capability.MergeConfig(capability.CapabilityVision, media).Models)

	assert.Equal(t, []capability.ModelEntry{
		{Provider: "deepgram", Model: "nova-3"},
		{Provider: "gemini"},
	}, capability.MergeConfig(capability.CapabilityAudio, media).Models)

	assert.Equal(t, []capability.ModelEntry{
		{Provider: "openai", Model: "text-embedding-3-large"},
	}, capability.MergeConfig(capability.CapabilityEmbedding, media).Models, "section models replace the shared list")
}

func TestMergeConfig_DoesNotAliasInput(t *testing.T) {
	media := config.MediaToolsConfig{
		Audio: config.MediaCapabilityConfig{
			Models: []config.MediaModelConfig{{Provider: "openai", Model: "whisper-1"}},
		},
	}
	cfg := capability.MergeConfig(capability.CapabilityAudio, media)
	cfg.Models[0].Model = "changed"

	assert.Equal(t, "whisper-1", media.Audio.Models[0].Model)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini-transcribe", capability.DefaultModel(capability.CapabilityAudio, "openai"))
	assert.Equal(t, "nova-3", capability.DefaultModel(capability.CapabilityAudio, "deepgram"))
	assert.Equal(t, "text-embedding-3-small", capability.DefaultModel(capability.CapabilityEmbedding, "openai"))
	assert.Empty(t, capability.DefaultModel(capability.CapabilityVision, "deepgram"))
}
