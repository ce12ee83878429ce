package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/groblegark/linklens/internal/model"
)

// HTTPClient implements LensClient using the linklens HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Scene ---

func (c *HTTPClient) GetScene(ctx context.Context) (*model.SceneSnapshot, error) {
	var snap model.SceneSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/v1/scene", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) UpsertNode(ctx context.Context, req *UpsertNodeRequest) (*model.Node, error) {
	var node model.Node
	if err := c.doJSON(ctx, http.MethodPost, "/v1/nodes", req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *HTTPClient) RemoveNode(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/nodes/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) AddEdge(ctx context.Context, source, target string) (bool, error) {
	body := map[string]string{"source": source, "target": target}
	var resp struct {
		Added bool `json:"added"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/edges", body, &resp); err != nil {
		return false, err
	}
	return resp.Added, nil
}

func (c *HTTPClient) RemoveEdge(ctx context.Context, source, target string) error {
	path := "/v1/edges/" + url.PathEscape(source) + "/" + url.PathEscape(target)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) UpdateViewport(ctx context.Context, req *ViewportRequest) (*model.Camera, error) {
	var cam model.Camera
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/viewport", req, &cam); err != nil {
		return nil, err
	}
	return &cam, nil
}

// --- Overlay ---

func (c *HTTPClient) GetOverlay(ctx context.Context) (*OverlayResponse, error) {
	var resp OverlayResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/overlay", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetLegend(ctx context.Context) (*LegendResponse, error) {
	var resp LegendResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/legend", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Settings ---

func (c *HTTPClient) GetSettings(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	if err := c.doJSON(ctx, http.MethodGet, "/v1/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *HTTPClient) UpdateSettings(ctx context.Context, req *SettingsRequest) (*model.Settings, error) {
	var settings model.Settings
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/settings", req, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// --- Loop ---

func (c *HTTPClient) RestartLoop(ctx context.Context) (*LoopStatus, error) {
	var status LoopStatus
	if err := c.doJSON(ctx, http.MethodPost, "/v1/loop/restart", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *HTTPClient) StopLoop(ctx context.Context) (*LoopStatus, error) {
	var status LoopStatus
	if err := c.doJSON(ctx, http.MethodPost, "/v1/loop/stop", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// --- Links ---

func (c *HTTPClient) ListLinks(ctx context.Context) (*ListLinksResponse, error) {
	var resp ListLinksResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/links", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) PutLink(ctx context.Context, req *PutLinkRequest) (*model.Link, error) {
	var link model.Link
	if err := c.doJSON(ctx, http.MethodPost, "/v1/links", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (c *HTTPClient) DeleteLink(ctx context.Context, source, target string) error {
	path := "/v1/links/" + url.PathEscape(source) + "/" + url.PathEscape(target)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// --- Rules ---

func (c *HTTPClient) ReloadRules(ctx context.Context) (*ReloadSummary, error) {
	var summary ReloadSummary
	if err := c.doJSON(ctx, http.MethodPost, "/v1/rules/reload", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (*model.Status, error) {
	var status model.Status
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
