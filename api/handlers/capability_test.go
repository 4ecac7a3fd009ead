package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/capflow/api"
	"github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/testutil/fixtures"
	"github.com/BaSui01/capflow/testutil/mocks"
	"github.com/BaSui01/capflow/types"
)

// runResponse 用于解码 Response.Data 中的 RunResult
type runResponse struct {
	Success bool                 `json:"success"`
	Data    capability.RunResult `json:"data"`
	Error   *ErrorInfo           `json:"error"`
}

func newCapabilityMux(t *testing.T, media config.MediaToolsConfig, providers ...*mocks.MockCapabilityProvider) *http.ServeMux {
	t.Helper()
	reg := capability.NewRegistry()
	for _, p := range providers {
		reg.MustRegister(p.ID(), p)
	}
	h := NewCapabilityHandler(capability.NewRunner(reg), media, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/capabilities/{capability}/run", h.HandleRun)
	mux.HandleFunc("GET /api/v1/capabilities", h.HandleList)
	return mux
}

func postRun(t *testing.T, mux http.Handler, capabilityName string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/capabilities/"+capabilityName+"/run", bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

// =============================================================================
// 🧪 CapabilityHandler 测试
// =============================================================================

func TestCapabilityHandler_RunVision(t *testing.T) {
	p := mocks.NewMockCapabilityProvider("openai", capability.CapabilityVision).WithText("A red square.")
	mux := newCapabilityMux(t, config.MediaToolsConfig{}, p)

	w := postRun(t, mux, "vision", api.RunRequest{
		Prompt: "What is shown?",
		Attachments: []api.AttachmentInput{
			{MIME: "image/png", FileName: "photo.png", Data: base64.StdEncoding.EncodeToString(fixtures.ImageBytes)},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp runResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, capability.OutcomeSuccess, resp.Data.Decision.Outcome)
	require.Len(t, resp.Data.Outputs, 1)
	assert.Equal(t, "A red square.", resp.Data.Outputs[0].Text)
	assert.Equal(t, "openai", resp.Data.Outputs[0].Provider)

	calls := p.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "What is shown?", calls[0].Prompt)
	assert.Equal(t, fixtures.ImageBytes, calls[0].Data)
}

func TestCapabilityHandler_RunEmbeddingText(t *testing.T) {
	p := mocks.NewMockCapabilityProvider("openai", capability.CapabilityEmbedding).WithVector([]float64{0.1, 0.2})
	mux := newCapabilityMux(t, config.MediaToolsConfig{}, p)

	w := postRun(t, mux, "embedding", api.RunRequest{
		Attachments: []api.AttachmentInput{{Text: "hello"}, {Text: "world"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp runResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data.Outputs, 2)
	assert.Equal(t, 0, resp.Data.Outputs[0].AttachmentIndex)
	assert.Equal(t, 1, resp.Data.Outputs[1].AttachmentIndex)
	assert.Equal(t, []float64{0.1, 0.2}, resp.Data.Outputs[1].Embedding)
	assert.Equal(t, 2, resp.Data.Decision.Succeeded)
}

func TestCapabilityHandler_DisabledIsReportedInDecision(t *testing.T) {
	p := mocks.NewMockCapabilityProvider("openai", capability.CapabilityAudio)
	media := config.MediaToolsConfig{Audio: config.MediaCapabilityConfig{Enabled: fixtures.BoolPtr(false)}}
	mux := newCapabilityMux(t, media, p)

	w := postRun(t, mux, "audio", api.RunRequest{
		Attachments: []api.AttachmentInput{{Data: base64.StdEncoding.EncodeToString(fixtures.AudioBytes)}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp runResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, capability.OutcomeDisabled, resp.Data.Decision.Outcome)
	assert.Empty(t, resp.Data.Outputs)
	assert.Zero(t, p.CallCount())
}

func TestCapabilityHandler_Rejects(t *testing.T) {
	mux := newCapabilityMux(t, config.MediaToolsConfig{})

	tests := []struct {
		name       string
		capability string
		body       any
		wantStatus int
		wantCode   types.ErrorCode
	}{
		{
			name:       "unknown capability",
			capability: "video",
			body:       api.RunRequest{},
			wantStatus: http.StatusNotFound,
			wantCode:   types.ErrNotFound,
		},
		{
			name:       "invalid base64",
			capability: "audio",
			body:       api.RunRequest{Attachments: []api.AttachmentInput{{Data: "%%%"}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInvalidRequest,
		},
		{
			name:       "two inputs in one attachment",
			capability: "embedding",
			body:       api.RunRequest{Attachments: []api.AttachmentInput{{Text: "a", URL: "https://example.com/a"}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInvalidRequest,
		},
		{
			name:       "unknown field",
			capability: "audio",
			body:       map[string]any{"attachments": []any{}, "path": "/etc/passwd"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postRun(t, mux, tt.capability, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.wantCode), resp.Error.Code)
		})
	}
}

func TestCapabilityHandler_RequiresJSONContentType(t *testing.T) {
	mux := newCapabilityMux(t, config.MediaToolsConfig{})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/capabilities/audio/run", bytes.NewBufferString(`{}`))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCapabilityHandler_List(t *testing.T) {
	mux := newCapabilityMux(t, config.MediaToolsConfig{},
		mocks.NewMockCapabilityProvider("groq", capability.CapabilityAudio),
		mocks.NewMockCapabilityProvider("openai", capability.CapabilityAudio, capability.CapabilityVision),
	)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/capabilities", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Name      string   `json:"name"`
			Enabled   string   `json:"enabled"`
			Providers []string `json:"providers"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "audio", resp.Data[0].Name)
	assert.Equal(t, "auto", resp.Data[0].Enabled)
	assert.Equal(t, []string{"groq", "openai"}, resp.Data[0].Providers)
	assert.Equal(t, []string{"openai"}, resp.Data[1].Providers)
	assert.Empty(t, resp.Data[2].Providers)
}

func TestAttachmentInput_ToAttachment(t *testing.T) {
	att, err := api.AttachmentInput{URL: " https://example.com/cat.jpg ", MIME: "image/jpeg"}.ToAttachment()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cat.jpg", att.URL)
	assert.Empty(t, att.Path)

	_, err = api.AttachmentInput{URL: "file:///etc/passwd"}.ToAttachment()
	assert.Error(t, err)

	_, err = api.AttachmentInput{}.ToAttachment()
	assert.Error(t, err)
}
