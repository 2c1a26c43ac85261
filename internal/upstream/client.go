package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/metrics"
)

// Client talks to the platform API. Every tenant-scoped call is built
// from the fixed URL template {base}/companies/{companyID}/{resource}
// and decoded through the {success,data,error} envelope. The client
// carries no retry or fallback policy.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New creates a platform API client
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Request issues a tenant-scoped call. The extra path is appended after
// the resource segment (e.g. "/"+id for item operations). An empty
// company id fails fast with KindMissingTenant before any network I/O.
func (c *Client) Request(ctx context.Context, method, resource string, companyID uuid.UUID, extra string, query url.Values, body any) (json.RawMessage, *APIError) {
	if companyID == uuid.Nil {
		return nil, missingTenant()
	}

	requestURL := fmt.Sprintf("%s/companies/%s/%s%s", c.baseURL, companyID, resource, extra)
	if len(query) > 0 {
		requestURL = requestURL + "?" + query.Encode()
	}

	return c.do(ctx, method, resource, requestURL, body)
}

// Login authenticates against the platform. This is the one call that
// is not tenant-scoped: it is how a session obtains its company.
func (c *Client) Login(ctx context.Context, email, password string) (json.RawMessage, *APIError) {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "auth", c.baseURL+"/auth/login", body)
}

func (c *Client) do(ctx context.Context, method, resource, requestURL string, body any) (json.RawMessage, *APIError) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, networkErr(fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, networkErr(fmt.Errorf("failed to create request: %w", err))
	}

	c.addAuth(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.UpstreamDuration.WithLabelValues(resource, method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(resource, method, "network_error").Inc()
		return nil, networkErr(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(resource, method, "network_error").Inc()
		return nil, networkErr(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues(resource, method, "http_error").Inc()
		return nil, &APIError{
			Kind:    KindHTTPStatus,
			Status:  resp.StatusCode,
			Message: extractErrorText(raw),
		}
	}

	data, apiErr := decodeEnvelope(raw)
	if apiErr != nil {
		metrics.UpstreamRequests.WithLabelValues(resource, method, string(apiErr.Kind)).Inc()
		return nil, apiErr
	}

	metrics.UpstreamRequests.WithLabelValues(resource, method, "success").Inc()
	return data, nil
}

// maxResponseBytes bounds how much of a platform response is read
const maxResponseBytes = 8 << 20

// decodeEnvelope enforces the wire contract: success==true implies data
// present, success==false implies error text present.
func decodeEnvelope(raw []byte) (json.RawMessage, *APIError) {
	var probe struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, invalidEnvelope(fmt.Sprintf("malformed response body: %v", err))
	}
	if probe.Success == nil {
		return nil, invalidEnvelope("response is missing the success field")
	}

	if !*probe.Success {
		errText := probe.Error
		if errText == "" {
			errText = probe.Message
		}
		if errText == "" {
			return nil, invalidEnvelope("failure response carries no error text")
		}
		return nil, businessErr(errText)
	}

	if len(probe.Data) == 0 || string(probe.Data) == "null" {
		return nil, invalidEnvelope("success response carries no data")
	}
	return probe.Data, nil
}

// extractErrorText pulls server-supplied error text out of a non-2xx
// body when it happens to be a valid envelope; otherwise returns a
// truncated copy of the body.
func extractErrorText(raw []byte) string {
	var probe struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil {
		if probe.Error != "" {
			return probe.Error
		}
		if probe.Message != "" {
			return probe.Message
		}
	}
	if len(raw) > 256 {
		raw = raw[:256]
	}
	return string(raw)
}

// addAuth adds authentication to the request
func (c *Client) addAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
}
