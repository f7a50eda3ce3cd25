package inventory

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rflorenc/inventory-console/internal/metrics"
	"github.com/rflorenc/inventory-console/internal/models"
)

// APIError is a non-2xx response from the inventory API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the inventory, RBAC and edge APIs behind one base URL.
type Client struct {
	baseURL    string
	token      string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a Client from a Connection.
func NewClient(conn *models.Connection, timeout time.Duration) *Client {
	transport := &http.Transport{}
	if conn.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if conn.CACert != "" {
		caCertPool := x509.NewCertPool()
		if caCertPool.AppendCertsFromPEM([]byte(conn.CACert)) {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
	}
	c := &Client{
		baseURL:  conn.BaseURL(),
		token:    conn.Token,
		username: conn.Username,
		password: conn.Password,
	}
	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Re-apply credentials on redirects
			if len(via) > 0 {
				c.authorize(req)
			}
			return nil
		},
	}
	return c
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
		return
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

// do sends a request with an optional JSON payload and returns the body.
// Non-2xx responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, error) {
	u := path
	if len(u) == 0 || u[0] == '/' {
		u = c.baseURL + path
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(method, "error", start)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	observe(method, strconv.Itoa(resp.StatusCode), start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 200),
		}
	}
	return body, nil
}

func observe(method, status string, start time.Time) {
	metrics.UpstreamRequestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(method, status).Inc()
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// rbacPage is the RBAC paginated response envelope.
type rbacPage struct {
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
	Data []json.RawMessage `json:"data"`
}

// GetAll follows links.next across pages and decodes every data entry.
func GetAll[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		body, err := c.Get(ctx, next, params)
		if err != nil {
			return nil, err
		}
		params = nil // next links carry their own query

		var page rbacPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		for _, raw := range page.Data {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("parsing entry: %w", err)
			}
			all = append(all, item)
		}

		next = ""
		if page.Links.Next != nil && *page.Links.Next != "" && *page.Links.Next != path {
			next = *page.Links.Next
		}
	}
	return all, nil
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

// Patch performs an authenticated PATCH request.
func (c *Client) Patch(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, nil, payload)
}

// Delete performs an authenticated DELETE request. A 404 counts as success.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if IsNotFound(err) {
		return nil // already gone
	}
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
