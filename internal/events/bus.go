// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/aeropacer/internal/config"
	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("event bus is closed")

const (
	channelBuffer        = 256
	natsReconnectWait    = 2 * time.Second
	retryMaxRetries      = 3
	retryInitialInterval = 100 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
)

// HandlerFunc consumes one envelope. A returned error triggers redelivery
// through the retry middleware.
type HandlerFunc func(ctx context.Context, env *Envelope) error

// Bus publishes envelopes and routes them to registered handlers.
type Bus struct {
	cfg    config.EventsConfig
	logger watermill.LoggerAdapter

	publisher message.Publisher
	router    *message.Router
	channel   *gochannel.GoChannel
	natsURL   string
	embedded  *EmbeddedServer

	mu          sync.Mutex
	subscribers []message.Subscriber
	closed      bool
}

// NewBus creates the bus selected by cfg: in-process when no NATS URL is
// configured and the embedded server is off, core NATS otherwise.
func NewBus(cfg config.EventsConfig) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	b := &Bus{cfg: cfg, logger: logger}

	natsURL := cfg.NATSURL
	if cfg.Embedded {
		srv, err := NewEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort)
		if err != nil {
			return nil, err
		}
		b.embedded = srv
		natsURL = srv.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	if natsURL == "" {
		b.channel = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: channelBuffer}, logger)
		b.publisher = b.channel
	} else {
		pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
			URL:         natsURL,
			NatsOptions: b.natsOptions("publisher"),
			Marshaler:   &wmNats.NATSMarshaler{},
			JetStream:   wmNats.JetStreamConfig{Disabled: true},
		}, logger)
		if err != nil {
			b.shutdownEmbedded()
			return nil, fmt.Errorf("create NATS publisher: %w", err)
		}
		b.publisher = pub
		b.natsURL = natsURL
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		_ = b.publisher.Close()
		b.shutdownEmbedded()
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	retry := middleware.Retry{
		MaxRetries:      retryMaxRetries,
		InitialInterval: retryInitialInterval,
		MaxInterval:     retryMaxInterval,
		Multiplier:      2.0,
		Logger:          logger,
	}
	router.AddMiddleware(middleware.Recoverer, retry.Middleware)
	b.router = router

	return b, nil
}

// Backend returns "nats" or "memory".
func (b *Bus) Backend() string {
	if b.channel != nil {
		return "memory"
	}
	return "nats"
}

// Publish wraps data in an envelope and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, userID uuid.UUID, data interface{}) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	env, err := NewEnvelope(topic, userID, data)
	if err != nil {
		return err
	}
	env.RequestID = logging.RequestIDFromContext(ctx)

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := message.NewMessage(env.ID, payload)
	msg.Metadata.Set("user_id", userID.String())

	err = b.publisher.Publish(topic, msg)
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers handler for topic under a unique name. Broadcast
// handlers receive every message on every instance; the others share
// messages with same-named handlers on other instances. Handlers must be
// registered before Serve.
func (b *Bus) Subscribe(name, topic string, broadcast bool, handler HandlerFunc) error {
	sub, err := b.subscriber(name, broadcast)
	if err != nil {
		return err
	}
	b.router.AddConsumerHandler(name, topic, sub, b.wrap(name, topic, handler))
	return nil
}

func (b *Bus) subscriber(name string, broadcast bool) (message.Subscriber, error) {
	if b.channel != nil {
		return b.channel, nil
	}

	queueGroup := ""
	if !broadcast && b.cfg.QueueGroup != "" {
		queueGroup = b.cfg.QueueGroup + "-" + name
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              b.natsURL,
		QueueGroupPrefix: queueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   b.cfg.AckWait,
		CloseTimeout:     b.cfg.CloseTimeout,
		NatsOptions:      b.natsOptions(name),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, b.logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS subscriber %s: %w", name, err)
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()
	return sub, nil
}

func (b *Bus) wrap(name, topic string, handler HandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var env Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			metrics.RecordEventConsumed(topic, err)
			logging.Warn().Err(err).
				Str("handler", name).
				Str("message_uuid", msg.UUID).
				Msg("Dropping malformed event")
			return nil
		}

		ctx := msg.Context()
		if env.RequestID != "" {
			ctx = logging.ContextWithRequestID(ctx, env.RequestID)
		}

		err := handler(ctx, &env)
		metrics.RecordEventConsumed(topic, err)
		return err
	}
}

func (b *Bus) natsOptions(name string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("aeropacer-" + name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(b.cfg.MaxReconnects),
		natsgo.ReconnectWait(natsReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Str("client", name).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("client", name).Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
}

// Serve runs the router until ctx is canceled. It implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	if err := b.router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// A stopped router cannot be restarted.
	return suture.ErrDoNotRestart
}

// String names the bus in supervisor logs.
func (b *Bus) String() string { return "event-bus" }

// Running is closed once all handlers are subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router and releases publisher, subscribers and the
// embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subscribers := b.subscribers
	b.mu.Unlock()

	var errs []error
	if err := b.router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close router: %w", err))
	}
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	for _, sub := range subscribers {
		if err := sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	b.shutdownEmbedded()
	return errors.Join(errs...)
}

func (b *Bus) shutdownEmbedded() {
	if b.embedded == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.CloseTimeout)
	defer cancel()
	if err := b.embedded.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS server shutdown timed out")
	}
}
