// Plain HTTP fetcher for pages and JSON documents outside the catalog
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxBodySize bounds how much of a page is read into memory.
const maxBodySize = 8 << 20

// APIService fetches arbitrary URLs and returns the raw response.
type APIService struct {
	httpClient *http.Client
	userAgent  string
}

// NewAPIService creates a fetcher. A nil client gets a 15 second timeout.
func NewAPIService(client *http.Client) *APIService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &APIService{httpClient: client, userAgent: defaultUserAgent}
}

// APIResponse represents a raw response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON returns the value at path in a JSON body, see [gjson.GetBytes].
func (r *APIResponse) JSON(path string) gjson.Result {
	if !r.IsJSON {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Body, path)
}

// Get performs a GET request and returns the raw response regardless of status.
func (a *APIService) Get(ctx context.Context, rawURL string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}
	trimmed := strings.TrimSpace(string(body))
	apiResp.IsJSON = (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && gjson.Valid(trimmed)

	return apiResp, nil
}

// Fetch streams the body of rawURL into w. Non-2xx responses are returned as [*APIError].
func (a *APIService) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &APIError{StatusCode: resp.StatusCode, Endpoint: req.URL.Host, Message: resp.Status}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read response: %w", err)
	}
	return n, nil
}
