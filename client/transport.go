package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/layer-3/turfbook/ports"
)

// RequestIDHeader correlates an outbound request with its replay
const RequestIDHeader = "X-Request-ID"

type retriedKey struct{}

func markRetried(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), retriedKey{}, true))
}

func retried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// Transport is an http.RoundTripper that attaches the stored access token and
// recovers from 401 replies by refreshing it through the Coordinator and
// replaying the request once.
type Transport struct {
	base        http.RoundTripper
	store       ports.TokenStore
	coordinator *Coordinator
	public      PublicEndpoints
	scheme      string
	host        string
	basePath    string
	logger      watermill.LoggerAdapter
}

// NewTransport wraps base. Only requests to apiURL's scheme and host below its
// path are authenticated; everything else passes through without Authorization.
// The path of apiURL is stripped before matching public endpoints.
func NewTransport(base http.RoundTripper, store ports.TokenStore, coordinator *Coordinator, public PublicEndpoints, apiURL *url.URL, logger watermill.LoggerAdapter) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Transport{
		base:        base,
		store:       store,
		coordinator: coordinator,
		public:      public,
		scheme:      strings.ToLower(apiURL.Scheme),
		host:        strings.ToLower(apiURL.Host),
		basePath:    strings.TrimSuffix(apiURL.Path, "/"),
		logger:      logger,
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.inScope(req.URL) {
		return t.passThrough(req)
	}

	req, err := replayable(req)
	if err != nil {
		return nil, err
	}
	return t.roundTrip(req, "")
}

func (t *Transport) roundTrip(req *http.Request, access string) (*http.Response, error) {
	path := t.relativePath(req.URL)
	public := t.public.Match(path)

	out, err := t.decorate(req, public, access)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || public || retried(req.Context()) {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	resp.Body.Close()

	fields := watermill.LogFields{
		"method":     req.Method,
		"path":       path,
		"request_id": req.Header.Get(RequestIDHeader),
	}
	t.logger.Debug("Request unauthorized, refreshing access token", fields)

	access, err = t.coordinator.Refresh(req.Context())
	if err != nil {
		return nil, err
	}

	t.logger.Debug("Replaying request", fields)
	return t.roundTrip(markRetried(req), access)
}

// decorate returns the request to transmit. Public paths and anonymous callers
// go out without Authorization. A non-empty access overrides the stored one.
func (t *Transport) decorate(req *http.Request, public bool, access string) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
	}

	if public {
		out.Header.Del("Authorization")
		return out, nil
	}

	if access == "" {
		creds, err := t.store.Load(req.Context())
		if err != nil {
			t.logger.Error("Failed to read access token", err, nil)
		}
		access = creds.Access
	}

	if access == "" {
		out.Header.Del("Authorization")
	} else {
		out.Header.Set("Authorization", "Bearer "+access)
	}
	return out, nil
}

// inScope reports whether u addresses the API: same scheme and host, and a path
// at or below the base path
func (t *Transport) inScope(u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, t.scheme) || !strings.EqualFold(u.Host, t.host) {
		return false
	}
	return t.basePath == "" || u.Path == t.basePath || strings.HasPrefix(u.Path, t.basePath+"/")
}

// passThrough sends a request outside the API untouched except for Authorization.
// Its 401 replies never reach the coordinator.
func (t *Transport) passThrough(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.Header.Del("Authorization")
	t.logger.Debug("Stripping credentials from request outside the API", watermill.LogFields{
		"method": req.Method,
		"host":   req.URL.Host,
	})
	return t.base.RoundTrip(out)
}

// relativePath returns the path below the base path. Callers check inScope first.
func (t *Transport) relativePath(u *url.URL) string {
	p := strings.TrimPrefix(u.Path, t.basePath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// replayable returns a private copy of req whose body can be read more than once
// and which carries a request id shared by every attempt.
func replayable(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}

	if req.GetBody != nil {
		// every attempt reads from GetBody
		req.Body.Close()
		return r, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	r.ContentLength = int64(len(data))
	return r, nil
}
