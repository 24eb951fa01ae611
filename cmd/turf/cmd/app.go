package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.etcd.io/bbolt"

	"github.com/layer-3/turfbook/adapters/events"
	"github.com/layer-3/turfbook/adapters/store"
	"github.com/layer-3/turfbook/client"
	"github.com/layer-3/turfbook/config"
	"github.com/layer-3/turfbook/ports"
	"github.com/layer-3/turfbook/service"
)

// app holds everything a command needs to talk to the API
type app struct {
	logger   watermill.LoggerAdapter
	store    ports.TokenStore
	client   *client.Client
	auth     *service.AuthService
	turfs    *service.TurfService
	bookings *service.BookingService

	closers []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newApp(ctx context.Context, cfg config.Config, stderr io.Writer) (*app, error) {
	a := &app{logger: watermill.NewStdLogger(cfg.Debug, false)}

	var rdb redis.UniversalClient
	if cfg.Store == config.StoreRedis || cfg.Events == config.EventsRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		a.closers = append(a.closers, redisClient)
		rdb = redisClient
	}

	st, err := openStore(cfg, rdb)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if c, ok := st.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.store = st

	pub, err := openPublisher(ctx, cfg, rdb, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	c, err := client.New(cfg.APIURL, st,
		client.WithLogger(a.logger),
		client.WithEventPublisher(pub),
		client.WithNavigator(loginPrompt{out: stderr}),
		client.WithLoginPath(cfg.LoginPath),
		client.WithRefreshTimeout(cfg.RefreshTimeout),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.client = c
	a.auth = service.NewAuthService(c, c, st, pub, a.logger)
	a.turfs = service.NewTurfService(c)
	a.bookings = service.NewBookingService(c)
	return a, nil
}

func openStore(cfg config.Config, rdb redis.UniversalClient) (ports.TokenStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreRedis:
		return store.NewRedisStore(rdb, cfg.StorePrefix), nil
	case config.StoreBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		s, err := store.NewBoltStoreFromFile(cfg.StorePath, &bbolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openPublisher(ctx context.Context, cfg config.Config, rdb redis.UniversalClient, a *app) (ports.EventPublisher, error) {
	switch cfg.Events {
	case config.EventsGoChannel:
		pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, a.logger)
		a.closers = append(a.closers, pubsub)
		for _, topic := range []string{events.LogoutTopic, events.RefreshedTopic} {
			msgs, err := pubsub.Subscribe(ctx, topic)
			if err != nil {
				return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
			}
			go logEvents(topic, msgs, a.logger)
		}
		return events.NewWatermillPublisher(pubsub), nil
	case config.EventsRedis:
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: rdb,
			},
			a.logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis publisher: %w", err)
		}
		a.closers = append(a.closers, publisher)
		return events.NewWatermillPublisher(publisher), nil
	default:
		return events.Nop{}, nil
	}
}

func logEvents(topic string, msgs <-chan *message.Message, logger watermill.LoggerAdapter) {
	for msg := range msgs {
		var payload map[string]any
		_ = json.Unmarshal(msg.Payload, &payload)
		logger.Debug("Session event", watermill.LogFields{
			"topic":   topic,
			"message": msg.UUID,
			"payload": payload,
		})
		msg.Ack()
	}
}

// loginPrompt tells the user to sign in again when the session cannot be renewed
type loginPrompt struct {
	out io.Writer
}

func (p loginPrompt) Navigate(_ context.Context, path string) {
	fmt.Fprintf(p.out, "Your session has expired (%s). Run `turf login` to sign in again.\n", path)
}

// withApp builds the app for one command invocation
func withApp(ctx context.Context, stderr io.Writer, fn func(a *app) error) error {
	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
