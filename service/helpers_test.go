package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/turfbook/adapters/events"
	"github.com/layer-3/turfbook/adapters/store"
	"github.com/layer-3/turfbook/adapters/tokenizer"
	"github.com/layer-3/turfbook/client"
	"github.com/layer-3/turfbook/core"
	turfhttp "github.com/layer-3/turfbook/transport/http"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	server *turfhttp.Server
	clock  *clock
	store  *store.MemoryStore
	client *client.Client
	pubsub *gochannel.GoChannel

	auth     *AuthService
	turfs    *TurfService
	bookings *BookingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	clk := &clock{now: time.Now()}
	server := turfhttp.NewServer(
		tokenizer.NewJWTTokenizer(key, tokenizer.WithClock(clk.Now)),
		turfhttp.WithClock(clk.Now),
		turfhttp.WithPasswordCost(bcrypt.MinCost),
		turfhttp.WithTTL(5*time.Minute, time.Hour),
	)
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { pubsub.Close() })
	pub := events.NewWatermillPublisher(pubsub)

	st := store.NewMemoryStore()
	c, err := client.New(srv.URL+"/api", st,
		client.WithEventPublisher(pub),
		client.WithNavigator(nopNavigator{}),
	)
	require.NoError(t, err)

	return &harness{
		server:   server,
		clock:    clk,
		store:    st,
		client:   c,
		pubsub:   pubsub,
		auth:     NewAuthService(c, c, st, pub, nil),
		turfs:    NewTurfService(c),
		bookings: NewBookingService(c),
	}
}

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) {}

func registration(name string, owner bool) core.Registration {
	return core.Registration{
		Username:    name,
		Email:       name + "@example.com",
		Password:    "pa55word",
		Password2:   "pa55word",
		IsTurfOwner: owner,
	}
}

// as signs h in as a fresh account
func (h *harness) as(t *testing.T, name string, owner bool) core.User {
	t.Helper()

	u, err := h.auth.Register(context.Background(), registration(name, owner))
	require.NoError(t, err)
	return u
}
