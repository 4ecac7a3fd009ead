package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/llm/providers"
	"github.com/BaSui01/capflow/types"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-payload")

func testServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestOpenAIProvider_DescribeImage(t *testing.T) {
	url := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		assert.Equal(t, 300, body.MaxTokens)
		require.Len(t, body.Messages, 1)
		parts := body.Messages[0].Content
		require.Len(t, parts, 2)
		assert.Equal(t, "Describe the image.", parts[0].Text)
		assert.Equal(t, "image_url", parts[1].Type)
		assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,"))
		assert.Equal(t, "auto", parts[1].ImageURL.Detail)

		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini-2024-07-18","choices":[{"message":{"content":" A red square. "}}]}`))
	})

	p := NewOpenAIProvider(OpenAIConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: "sk-test", BaseURL: url + "/v1"},
	})
	res, err := p.DescribeImage(context.Background(), &capability.ImageRequest{
		Model:     "gpt-4o-mini",
		Data:      pngBytes,
		Prompt:    "Describe the image.",
		MaxTokens: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, "A red square.", res.Text)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", res.Model)
}

func TestOpenAIProvider_RemoteURL(t *testing.T) {
	url := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/cat.jpg", body.Messages[0].Content[0].ImageURL.URL)
		assert.Equal(t, 512, body.MaxTokens)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A cat."}}]}`))
	})

	p := NewOpenAIProvider(OpenAIConfig{BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: url}})
	res, err := p.DescribeImage(context.Background(), &capability.ImageRequest{URL: "https://example.com/cat.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "A cat.", res.Text)
	assert.Equal(t, "gpt-4o-mini", res.Model)
}

func TestOpenAIProvider_Rejects(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{})

	_, err := p.DescribeImage(context.Background(), &capability.ImageRequest{})
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ProviderErrInvalidRequest, pe.Kind)

	_, err = p.DescribeImage(context.Background(), &capability.ImageRequest{Data: []byte("plain text, not an image")})
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "unsupported image type")
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	url := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	p := NewOpenAIProvider(OpenAIConfig{BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: url}})

	_, err := p.DescribeImage(context.Background(), &capability.ImageRequest{Data: pngBytes, MIME: "image/png"})
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ProviderErrUpstream, pe.Kind)
}

func TestGeminiProvider_DescribeImage(t *testing.T) {
	url := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var body geminiGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		parts := body.Contents[0].Parts
		require.Len(t, parts, 2)
		assert.Equal(t, "What is this?", parts[0].Text)
		require.NotNil(t, parts[1].InlineData)
		assert.Equal(t, "image/png", parts[1].InlineData.MimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), parts[1].InlineData.Data)
		assert.Equal(t, 512, body.GenerationConfig.MaxOutputTokens)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A "},{"text":"logo."}]}}]}`))
	})

	p := NewGeminiProvider(GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: "g-key", BaseURL: url + "/v1beta"},
	})
	res, err := p.DescribeImage(context.Background(), &capability.ImageRequest{
		Data:   pngBytes,
		Prompt: "What is this?",
	})
	require.NoError(t, err)
	assert.Equal(t, "A logo.", res.Text)
	assert.Equal(t, "gemini-2.5-flash", res.Model)
}

func TestGeminiProvider_Error(t *testing.T) {
	url := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Permission denied","status":"PERMISSION_DENIED"}}`))
	})
	p := NewGeminiProvider(GeminiConfig{BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: url}})

	_, err := p.DescribeImage(context.Background(), &capability.ImageRequest{Data: pngBytes})
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ProviderErrAuth, pe.Kind)
	assert.Equal(t, "Permission denied", pe.UpstreamMessage())
}

func TestImageMIME(t *testing.T) {
	assert.Equal(t, "image/jpeg", imageMIME(&capability.ImageRequest{MIME: "image/jpeg; q=1"}))
	assert.Equal(t, "image/png", imageMIME(&capability.ImageRequest{Data: pngBytes}))
}
