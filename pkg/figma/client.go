package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errs "figsprite/pkg/errors"
	"figsprite/pkg/logger"
	"figsprite/pkg/ratelimit"
)

// BaseURL is the Figma REST API root.
const BaseURL = "https://api.figma.com/v1"

// Client talks to the Figma REST API. Errors from every method carry a
// machine-checkable kind so callers can decide whether to retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     logger.Logger
	status     *ratelimit.Status
}

// NewClient creates a Figma API client authenticated with a personal
// access token.
func NewClient(token string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: BaseURL,
		token:   token,
		logger:  log,
		status:  ratelimit.NewStatus(),
	}
}

// RateLimit exposes the header-driven rate limit counter. It is updated
// after every successful response.
func (c *Client) RateLimit() *ratelimit.Status {
	return c.status
}

// GetFile retrieves the document tree for a file.
func (c *Client) GetFile(ctx context.Context, fileKey string) (*FileResponse, error) {
	endpoint := fmt.Sprintf("%s/files/%s", c.baseURL, fileKey)

	var file FileResponse
	if err := c.getJSON(ctx, endpoint, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// GetExportURLs asks the images endpoint to render the requested nodes
// and returns exportId -> download URL. A node the renderer could not
// produce maps to an empty URL; the caller records those as failures.
func (c *Client) GetExportURLs(ctx context.Context, fileKey string, req ExportRequest) (map[string]string, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(req.IDs, ","))
	params.Set("format", string(req.Format))
	if req.Scale > 0 {
		params.Set("scale", strconv.FormatFloat(req.Scale, 'f', -1, 64))
	}
	if req.Format == FormatSVG {
		if req.SVGIncludeID {
			params.Set("svg_include_id", "true")
		}
		if req.SVGSimplifyStroke {
			params.Set("svg_simplify_stroke", "true")
		}
	}
	endpoint := fmt.Sprintf("%s/images/%s?%s", c.baseURL, fileKey, params.Encode())

	var images ImagesResponse
	if err := c.getJSON(ctx, endpoint, &images); err != nil {
		return nil, err
	}

	if images.Err != "" {
		return nil, &errs.APIError{
			Kind:    errs.KindServerError,
			Message: fmt.Sprintf("image render failed: %s", images.Err),
			Status:  images.Status,
		}
	}

	return images.Images, nil
}

// Download fetches one rendered asset. The URL comes from GetExportURLs
// and points at Figma's CDN, so no auth header is attached.
func (c *Client) Download(ctx context.Context, assetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, &errs.APIError{
			Kind:    errs.KindNetwork,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.APIError{
			Kind:    errs.KindNetwork,
			Message: fmt.Sprintf("failed to read asset body: %v", err),
		}
	}

	c.logger.DebugWithFields("downloaded asset", map[string]interface{}{
		"url":  assetURL,
		"size": len(data),
	})

	return data, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &errs.APIError{
			Kind:    errs.KindNetwork,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("X-Figma-Token", c.token)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.APIError{
			Kind:    errs.KindNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Status:  resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse API response", map[string]interface{}{
			"url":          endpoint,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errs.APIError{
			Kind:    errs.KindServerError,
			Message: fmt.Sprintf("failed to parse response: %v", err),
			Status:  resp.StatusCode,
		}
	}

	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, &errs.APIError{
			Kind:    errs.KindNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponse classifies a non-200 response into a typed error and
// records rate limit headers on success.
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		c.status.Update(resp.Header)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	apiErr := errs.FromStatus(resp.StatusCode, message)
	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		fields := map[string]interface{}{"retry_after": apiErr.RetryAfter}
		if resp.Request != nil {
			fields["url"] = resp.Request.URL.String()
		}
		c.logger.WarnWithFields("rate limited", fields)
	}
	return apiErr
}

// parseRetryAfter handles both delay-seconds and HTTP-date forms.
// Returns zero when the header is absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
