package figma

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "figsprite/pkg/errors"
	"figsprite/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newTestClient(handler func(req *http.Request) (*http.Response, error)) *Client {
	client := NewClient("test-token", 30*time.Second, logger.NewTestLogger())
	client.httpClient = &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   30 * time.Second,
	}
	return client
}

func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestGetExportURLs(t *testing.T) {
	var captured *http.Request
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		captured = req
		body := `{"err": null, "images": {"1:2": "https://cdn.example/a.png", "1:3": null}}`
		return newResponse(http.StatusOK, body), nil
	})

	urls, err := client.GetExportURLs(context.Background(), "KEY123", ExportRequest{
		IDs:    []string{"1:2", "1:3"},
		Format: FormatPNG,
		Scale:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, "test-token", captured.Header.Get("X-Figma-Token"))
	assert.Contains(t, captured.URL.Path, "/images/KEY123")
	assert.Equal(t, "1:2,1:3", captured.URL.Query().Get("ids"))
	assert.Equal(t, "png", captured.URL.Query().Get("format"))
	assert.Equal(t, "2", captured.URL.Query().Get("scale"))

	// A null URL on the wire becomes an empty string in the map.
	assert.Equal(t, "https://cdn.example/a.png", urls["1:2"])
	url, present := urls["1:3"]
	assert.True(t, present)
	assert.Equal(t, "", url)
}

func TestGetExportURLsRenderError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusOK, `{"err": "render timeout", "images": {}}`), nil
	})

	_, err := client.GetExportURLs(context.Background(), "KEY123", ExportRequest{
		IDs:    []string{"1:2"},
		Format: FormatPNG,
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindServerError, errs.KindOf(err))
}

func TestGetExportURLsErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantKind  errs.Kind
		retryable bool
	}{
		{"forbidden", http.StatusForbidden, errs.KindAuth, false},
		{"not found", http.StatusNotFound, errs.KindNotFound, false},
		{"rate limited", http.StatusTooManyRequests, errs.KindRateLimit, true},
		{"server error", http.StatusInternalServerError, errs.KindServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(func(req *http.Request) (*http.Response, error) {
				return newResponse(tt.status, ""), nil
			})

			_, err := client.GetExportURLs(context.Background(), "KEY", ExportRequest{
				IDs:    []string{"1:2"},
				Format: FormatSVG,
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, errs.KindOf(err))
			assert.Equal(t, tt.retryable, errs.IsRetryable(err))
		})
	}
}

func TestRetryAfterHeaderParsed(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		resp := newResponse(http.StatusTooManyRequests, "")
		resp.Header.Set("Retry-After", "2")
		return resp, nil
	})

	_, err := client.GetExportURLs(context.Background(), "KEY", ExportRequest{
		IDs:    []string{"1:2"},
		Format: FormatPNG,
	})
	require.Error(t, err)

	var apiErr *errs.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 2*time.Second, apiErr.RetryAfter)
}

func TestRateLimitStatusUpdated(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		resp := newResponse(http.StatusOK, `{"err": null, "images": {}}`)
		resp.Header.Set("X-Ratelimit-Limit", "120")
		resp.Header.Set("X-Ratelimit-Remaining", "73")
		return resp, nil
	})

	_, err := client.GetExportURLs(context.Background(), "KEY", ExportRequest{
		IDs:    []string{"1:2"},
		Format: FormatPNG,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(120), client.RateLimit().Limit())
	assert.Equal(t, int64(73), client.RateLimit().Remaining())
}

func TestDownload(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		// CDN downloads must not leak the API token.
		assert.Empty(t, req.Header.Get("X-Figma-Token"))
		return newResponse(http.StatusOK, "png-bytes"), nil
	})

	data, err := client.Download(context.Background(), "https://cdn.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestDownloadNotFound(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(http.StatusNotFound, ""), nil
	})

	_, err := client.Download(context.Background(), "https://cdn.example/gone.png")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	assert.False(t, errs.IsRetryable(err))
}

func TestGetFile(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		assert.Contains(t, req.URL.Path, "/files/KEY123")
		body := `{"name": "Icons", "document": {"id": "0:0", "type": "DOCUMENT"}}`
		return newResponse(http.StatusOK, body), nil
	})

	file, err := client.GetFile(context.Background(), "KEY123")
	require.NoError(t, err)
	assert.Equal(t, "Icons", file.Name)
	assert.Equal(t, "DOCUMENT", file.Document.Type)
}

func TestExtractFileKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"file URL", "https://www.figma.com/file/ABC123/Design-Name", "ABC123", false},
		{"design URL", "https://figma.com/design/xYz789/icons", "xYz789", false},
		{"bare key", "ABC123", "ABC123", false},
		{"wrong host", "https://evil.com/file/ABC123/x", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFileKey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-3"))
}

func TestCollectIconNodes(t *testing.T) {
	hidden := false
	doc := &Node{
		ID:   "0:0",
		Type: "DOCUMENT",
		Children: []Node{
			{
				ID:   "1:0",
				Type: "CANVAS",
				Name: "Icons",
				Children: []Node{
					{
						ID:                  "1:1",
						Type:                "COMPONENT",
						Name:                "arrow-up",
						AbsoluteBoundingBox: &Rect{Width: 24, Height: 24},
					},
					{
						ID:          "1:2",
						Type:        "INSTANCE",
						Name:        "arrow-up-copy",
						ComponentID: "1:1",
					},
					{
						ID:      "1:3",
						Type:    "COMPONENT",
						Name:    "secret",
						Visible: &hidden,
					},
					{
						ID:   "1:4",
						Type: "FRAME",
						Children: []Node{
							{ID: "1:5", Type: "COMPONENT", Name: "nested"},
						},
					},
				},
			},
		},
	}

	icons := CollectIconNodes(doc)
	require.Len(t, icons, 3)

	// Discovery order is document order.
	assert.Equal(t, "1:1", icons[0].NodeID)
	assert.Equal(t, "1:1", icons[0].ExportID)
	assert.Equal(t, 24.0, icons[0].Bounds.Width)

	// Instances share the component's export id.
	assert.Equal(t, "1:2", icons[1].NodeID)
	assert.Equal(t, "1:1", icons[1].ExportID)

	assert.Equal(t, "1:5", icons[2].NodeID)
}
