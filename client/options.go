package client

import (
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/layer-3/turfbook/ports"
)

const (
	DefaultRefreshPath    = "/user/token/refresh/"
	DefaultLoginPath      = "/login"
	DefaultRefreshTimeout = 30 * time.Second

	maxBodySize = 4 << 20
)

type options struct {
	httpClient     *http.Client
	logger         watermill.LoggerAdapter
	navigator      ports.Navigator
	events         ports.EventPublisher
	public         []string
	refreshPath    string
	loginPath      string
	refreshTimeout time.Duration
}

// Option configures a Client
type Option func(*options)

// WithHTTPClient sets the underlying client. Its Transport carries every attempt
// and the refresh call; its Timeout, Jar and CheckRedirect are kept.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithLogger(logger watermill.LoggerAdapter) Option {
	return func(o *options) { o.logger = logger }
}

// WithNavigator sets the target of the forced redirect after a failed refresh
func WithNavigator(n ports.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

func WithEventPublisher(p ports.EventPublisher) Option {
	return func(o *options) { o.events = p }
}

// WithPublicEndpoints replaces DefaultPublicEndpoints
func WithPublicEndpoints(prefixes ...string) Option {
	return func(o *options) { o.public = prefixes }
}

func WithRefreshPath(path string) Option {
	return func(o *options) { o.refreshPath = path }
}

func WithLoginPath(path string) Option {
	return func(o *options) { o.loginPath = path }
}

// WithRefreshTimeout bounds a single refresh call. Zero disables the bound.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) { o.refreshTimeout = d }
}

func defaultOptions() options {
	return options{
		httpClient:     &http.Client{},
		logger:         watermill.NopLogger{},
		public:         DefaultPublicEndpoints,
		refreshPath:    DefaultRefreshPath,
		loginPath:      DefaultLoginPath,
		refreshTimeout: DefaultRefreshTimeout,
	}
}
