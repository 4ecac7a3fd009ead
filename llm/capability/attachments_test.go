package capability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/testutil"
	"github.com/BaSui01/capflow/testutil/fixtures"
)

func TestMediaCache_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clip.ogg":
			_, _ = w.Write(fixtures.AudioBytes)
		case "/stream":
			// Flushing first hides the length; the body limit still applies.
			w.(http.Flusher).Flush()
			_, _ = w.Write(fixtures.AudioBytes)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := testutil.WriteTempMedia(t, "note.ogg", fixtures.AudioBytes)
	size := int64(len(fixtures.AudioBytes))

	tests := []struct {
		name     string
		att      capability.Attachment
		maxBytes int64
		want     []byte
		wantErr  error
		errText  string
	}{
		{name: "inline data", att: fixtures.AudioAttachment(), maxBytes: size, want: fixtures.AudioBytes},
		{name: "inline too large", att: fixtures.AudioAttachment(), maxBytes: size - 1, wantErr: capability.ErrAttachmentTooLarge},
		{name: "no limit", att: fixtures.AudioAttachment(), want: fixtures.AudioBytes},
		{name: "local file", att: capability.Attachment{Path: path}, maxBytes: size, want: fixtures.AudioBytes},
		{name: "local file too large", att: capability.Attachment{Path: path}, maxBytes: 3, wantErr: capability.ErrAttachmentTooLarge},
		{name: "missing file", att: capability.Attachment{Path: path + ".missing"}, errText: "open attachment"},
		{name: "url", att: capability.Attachment{URL: srv.URL + "/clip.ogg"}, maxBytes: size, want: fixtures.AudioBytes},
		{name: "url content length too large", att: capability.Attachment{URL: srv.URL + "/clip.ogg"}, maxBytes: 3, wantErr: capability.ErrAttachmentTooLarge},
		{name: "url streamed too large", att: capability.Attachment{URL: srv.URL + "/stream"}, maxBytes: 3, wantErr: capability.ErrAttachmentTooLarge},
		{name: "url not found", att: capability.Attachment{URL: srv.URL + "/missing"}, errText: "status 404"},
		{name: "text", att: fixtures.TextAttachment("hello"), want: []byte("hello")},
		{name: "text too large", att: fixtures.TextAttachment("hello"), maxBytes: 2, wantErr: capability.ErrAttachmentTooLarge},
		{name: "empty", att: capability.Attachment{MIME: "audio/ogg"}, wantErr: capability.ErrAttachmentEmpty},
	}

	cache := capability.NewMediaCache(srv.Client())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cache.Fetch(context.Background(), tt.att, tt.maxBytes)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMediaCache_DataWinsOverPath(t *testing.T) {
	att := capability.Attachment{Data: []byte("inline"), Path: "/nonexistent"}
	got, err := capability.NewMediaCache(nil).Fetch(context.Background(), att, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("inline"), got)
}

func TestMediaCache_URLHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	_, err := capability.NewMediaCache(srv.Client()).Fetch(testutil.CancelledContext(),
		capability.Attachment{URL: srv.URL}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
