package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/capflow/llm/capability"
)

func TestParseRunArgs(t *testing.T) {
	opts, err := parseRunArgs([]string{
		"--capability", "Vision",
		"--prompt", "what is this?",
		"--timeout", "30s",
		"cat.jpg", "https://example.com/dog.png",
	})
	require.NoError(t, err)

	assert.Equal(t, capability.CapabilityVision, opts.capability)
	assert.Equal(t, "what is this?", opts.prompt)
	assert.Equal(t, 30*time.Second, opts.timeout)
	assert.Equal(t, []capability.Attachment{
		{Path: "cat.jpg"},
		{URL: "https://example.com/dog.png"},
	}, opts.attachments)
}

func TestParseRunArgs_RepeatedText(t *testing.T) {
	opts, err := parseRunArgs([]string{"--capability", "embedding", "--text", "hello", "--text", "world"})
	require.NoError(t, err)

	assert.Equal(t, []capability.Attachment{{Text: "hello"}, {Text: "world"}}, opts.attachments)
	assert.Equal(t, 5*time.Minute, opts.timeout)
}

func TestParseRunArgs_Errors(t *testing.T) {
	tests := map[string][]string{
		"missing capability": {"note.ogg"},
		"unknown capability": {"--capability", "video", "clip.mp4"},
		"bad timeout":        {"--capability", "audio", "--timeout", "0s"},
		"unknown flag":       {"--capability", "audio", "--nope"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseRunArgs(args)
			assert.Error(t, err)
		})
	}
}

// writeRunConfig 写入指向 baseURL 的 OpenAI 兼容服务商配置
func writeRunConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `log:
  level: error
models:
  providers:
    local:
      type: openai
      api_key: sk-local
      base_url: ` + baseURL + `
tools:
  media:
    embedding:
      models:
        - provider: local
          model: text-embedding-3-small
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunOnce_Embedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "hello")
		_, _ = w.Write([]byte(`{"model":"text-embedding-3-small","data":[{"index":0,"embedding":[0.5,0.25]}]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	code, err := runOnce([]string{"--config", writeRunConfig(t, srv.URL), "--capability", "embedding", "--text", "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	var res capability.RunResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, capability.OutcomeSuccess, res.Decision.Outcome)
	assert.Equal(t, "local", res.Decision.Provider)
	require.Len(t, res.Outputs, 1)
	assert.Equal(t, []float64{0.5, 0.25}, res.Outputs[0].Embedding)
}

func TestRunOnce_ProviderFailureExitsNonZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out bytes.Buffer
	code, err := runOnce([]string{"--config", writeRunConfig(t, srv.URL), "--capability", "embedding", "--text", "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	var res capability.RunResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, capability.OutcomeError, res.Decision.Outcome)
	assert.Empty(t, res.Outputs)
}

func TestRunOnce_InvalidArgs(t *testing.T) {
	_, err := runOnce([]string{"--capability", "video"}, io.Discard)
	assert.Error(t, err)
}
