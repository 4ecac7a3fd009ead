package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/BaSui01/capflow/internal/tlsutil"
)

// Attachment loading errors.
var (
	ErrAttachmentTooLarge = errors.New(ReasonAttachmentTooLarge)
	ErrAttachmentEmpty    = errors.New("attachment has no data, path or url")
)

// MediaCache is the default AttachmentSource. It serves inline data, reads
// local files and downloads http(s) URLs, enforcing the byte limit in all
// three cases. A zero or negative limit disables the check.
type MediaCache struct {
	client *http.Client
}

// NewMediaCache creates a MediaCache. A nil client uses the hardened media
// client with a 30 second timeout.
func NewMediaCache(client *http.Client) *MediaCache {
	if client == nil {
		client = tlsutil.MediaHTTPClient()
		client.Timeout = 30 * time.Second
	}
	return &MediaCache{client: client}
}

// Fetch returns the bytes of att.
func (m *MediaCache) Fetch(ctx context.Context, att Attachment, maxBytes int64) ([]byte, error) {
	switch {
	case len(att.Data) > 0:
		if maxBytes > 0 && int64(len(att.Data)) > maxBytes {
			return nil, ErrAttachmentTooLarge
		}
		return att.Data, nil

	case att.Path != "":
		f, err := os.Open(att.Path)
		if err != nil {
			return nil, fmt.Errorf("open attachment: %w", err)
		}
		defer f.Close()
		return readLimited(f, maxBytes)

	case att.URL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("build attachment request: %w", err)
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download attachment: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("download attachment: status %d", resp.StatusCode)
		}
		if maxBytes > 0 && resp.ContentLength > maxBytes {
			return nil, ErrAttachmentTooLarge
		}
		return readLimited(resp.Body, maxBytes)

	case att.Text != "":
		if maxBytes > 0 && int64(len(att.Text)) > maxBytes {
			return nil, ErrAttachmentTooLarge
		}
		return []byte(att.Text), nil
	}
	return nil, ErrAttachmentEmpty
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrAttachmentTooLarge
	}
	return data, nil
}
