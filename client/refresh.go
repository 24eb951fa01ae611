package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
)

// Refresher exchanges the stored refresh token for a new access token.
// It talks to the refresh endpoint through the bare transport, never through
// the auth Transport, so a refresh cannot recurse into itself. It never clears
// the store or navigates; the Coordinator owns those side effects.
type Refresher struct {
	httpClient *http.Client
	endpoint   string
	store      ports.TokenStore
}

// NewRefresher creates a Refresher posting to the absolute endpoint URL
func NewRefresher(httpClient *http.Client, endpoint string, store ports.TokenStore) *Refresher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Refresher{
		httpClient: httpClient,
		endpoint:   endpoint,
		store:      store,
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Refresh implements RefreshFunc
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	creds, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.Refresh == "" {
		return "", core.ErrMissingRefreshToken
	}

	body, err := json.Marshal(refreshRequest{Refresh: creds.Refresh})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", core.NewAPIError(resp.StatusCode, resp.Status, payload)
	}

	var tr refreshResponse
	if err := json.Unmarshal(payload, &tr); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if tr.Access == "" {
		return "", core.ErrMissingAccessToken
	}

	// a rotating backend returns a new refresh token too
	if tr.Refresh != "" {
		err = r.store.Save(ctx, core.Credentials{Access: tr.Access, Refresh: tr.Refresh})
	} else {
		err = r.store.SetAccess(ctx, tr.Access)
	}
	if err != nil {
		return "", fmt.Errorf("failed to store access token: %w", err)
	}

	return tr.Access, nil
}
