// Package client is an HTTP client for the turf booking API that injects the
// stored access token into every protected request and transparently recovers
// from expired tokens.
//
// On a 401 reply the client refreshes the access token and replays the request
// once. Concurrent 401s share a single refresh call. When the refresh fails the
// credentials are cleared and the configured Navigator is sent to the login page.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
)

// Client is a drop-in JSON client for the turf API
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	transport   *Transport
	coordinator *Coordinator
	store       ports.TokenStore
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8000/api
func New(baseURL string, store ports.TokenStore, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("client: nil token store")
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}

	base := o.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := &Client{baseURL: u, store: store}

	refresher := NewRefresher(&http.Client{Transport: base, Timeout: o.httpClient.Timeout}, c.URL(o.refreshPath), store)
	c.coordinator = NewCoordinator(refresher.Refresh, store, CoordinatorConfig{
		Navigator: o.navigator,
		Events:    o.events,
		Logger:    o.logger,
		LoginPath: o.loginPath,
		Timeout:   o.refreshTimeout,
	})
	c.transport = NewTransport(base, store, c.coordinator, PublicEndpoints(o.public), u, o.logger)
	c.http = &http.Client{
		Transport:     c.transport,
		Timeout:       o.httpClient.Timeout,
		Jar:           o.httpClient.Jar,
		CheckRedirect: o.httpClient.CheckRedirect,
	}

	return c, nil
}

// URL resolves an API path (optionally with a query) against the base URL
func (c *Client) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}

	u := *c.baseURL
	u.Path = strings.TrimSuffix(c.baseURL.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}

// HTTPClient returns an *http.Client that authenticates through this client
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Coordinator returns the refresh coordinator shared by every request
func (c *Client) Coordinator() *Coordinator {
	return c.coordinator
}

// Store returns the credential store
func (c *Client) Store() ports.TokenStore {
	return c.store
}

// RefreshNow refreshes the access token through the shared coordinator
func (c *Client) RefreshNow(ctx context.Context) (string, error) {
	return c.coordinator.Refresh(ctx)
}

// NewRequest builds a request for an API path. body is JSON encoded unless it is nil.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends req with the same semantics as http.Client.Do
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out)
}

// doJSON decodes a 2xx reply into out; anything else becomes *core.APIError
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := c.NewRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.NewAPIError(resp.StatusCode, resp.Status, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
