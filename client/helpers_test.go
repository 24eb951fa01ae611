package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/layer-3/turfbook/adapters/store"
	"github.com/layer-3/turfbook/core"
	"github.com/stretchr/testify/require"
)

// fakeAPI mimics the turf backend under /api
type fakeAPI struct {
	srv *httptest.Server

	mu            sync.Mutex
	valid         string
	refreshAccess string
	refreshRotate string
	refreshStatus int
	refreshGate   chan struct{}
	alwaysDeny    bool
	redirectTo    string
	accepted      []string
	authByPath    map[string]string
	bodies        []string
	requestIDs    []string
	refreshBodies []string

	refreshCalls  atomic.Int32
	protectedHits atomic.Int32
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{
		valid:         "A1",
		refreshAccess: "A2",
		authByPath:    make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/token/refresh/", f.handleRefresh)
	mux.HandleFunc("/api/user/login/", f.handleLogin)
	mux.HandleFunc("/api/redirect/", f.handleRedirect)
	mux.HandleFunc("/api/", f.handleProtected)
	mux.HandleFunc("/", f.handleOutside)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) baseURL() string { return f.srv.URL + "/api" }

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) acceptedAuth() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.accepted...)
}

func (f *fakeAPI) authFor(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.authByPath[path]
	return v, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authByPath[r.URL.Path] = r.Header.Get("Authorization")
	f.mu.Unlock()

	writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found"})
}

func (f *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)

	var body struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.refreshBodies = append(f.refreshBodies, body.Refresh)
	f.authByPath[r.URL.Path] = r.Header.Get("Authorization")
	gate := f.refreshGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refreshStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.refreshStatus)
		_, _ = io.WriteString(w, `{"detail":"Token is invalid or expired"}`)
		return
	}

	f.valid = f.refreshAccess
	resp := map[string]string{"access": f.refreshAccess}
	if f.refreshRotate != "" {
		resp["refresh"] = f.refreshRotate
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *fakeAPI) handleRedirect(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authByPath[r.URL.Path] = r.Header.Get("Authorization")
	target := f.redirectTo
	f.mu.Unlock()

	http.Redirect(w, r, target, http.StatusFound)
}

// handleOutside serves paths outside the API base path and always answers 401
func (f *fakeAPI) handleOutside(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authByPath[r.URL.Path] = r.Header.Get("Authorization")
	f.mu.Unlock()

	writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "not here"})
}

func (f *fakeAPI) handleProtected(w http.ResponseWriter, r *http.Request) {
	f.protectedHits.Add(1)
	body, _ := io.ReadAll(r.Body)
	auth := r.Header.Get("Authorization")

	f.mu.Lock()
	f.authByPath[r.URL.Path] = auth
	f.bodies = append(f.bodies, string(body))
	f.requestIDs = append(f.requestIDs, r.Header.Get(RequestIDHeader))
	ok := !f.alwaysDeny && auth == "Bearer "+f.valid
	if ok {
		f.accepted = append(f.accepted, auth)
	}
	f.mu.Unlock()

	if r.URL.Path == "/api/boom/" {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path, "query": r.URL.RawQuery})
}

// foreignHost is an unrelated server that records Authorization and answers 401
type foreignHost struct {
	srv *httptest.Server

	mu   sync.Mutex
	auth []string
}

func newForeignHost(t *testing.T) *foreignHost {
	t.Helper()

	h := &foreignHost{}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.auth = append(h.auth, r.Header.Get("Authorization"))
		h.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "who are you"})
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *foreignHost) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.auth...)
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type recordingEvents struct {
	mu        sync.Mutex
	logouts   []string
	refreshes int
}

func (e *recordingEvents) PublishLogout(_ context.Context, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logouts = append(e.logouts, reason)
	return nil
}

func (e *recordingEvents) PublishTokenRefreshed(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshes++
	return nil
}

func (e *recordingEvents) counts() (logouts []string, refreshes int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.logouts...), e.refreshes
}

func newMemoryStore(t *testing.T, creds core.Credentials) *store.MemoryStore {
	t.Helper()

	s := store.NewMemoryStore()
	require.NoError(t, s.Save(context.Background(), creds))
	return s
}

func newTestClient(t *testing.T, api *fakeAPI, s *store.MemoryStore, opts ...Option) (*Client, *recordingNavigator, *recordingEvents) {
	t.Helper()

	nav := &recordingNavigator{}
	ev := &recordingEvents{}
	opts = append([]Option{WithNavigator(nav), WithEventPublisher(ev)}, opts...)

	c, err := New(api.baseURL(), s, opts...)
	require.NoError(t, err)
	return c, nav, ev
}
