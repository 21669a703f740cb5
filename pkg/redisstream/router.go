package redisstream

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Bus bundles the publisher, subscriber and router carrying chat events.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Router     *message.Router

	closers []func() error
}

// BuildBus constructs a Bus backed by Redis Streams when enabled.
// If settings.Enabled is false, it uses an in-memory go channel pub/sub.
func BuildBus(s Settings) (*Bus, error) {
	logger := NewWatermillLogger(log.Logger)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "could not create router")
	}

	if !s.Enabled {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		return &Bus{
			Publisher:  ch,
			Subscriber: ch,
			Router:     router,
			closers:    []func() error{ch.Close},
		}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: s.Addr})
	marshaler := rstream.DefaultMarshallerUnmarshaller{}

	pub, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: marshaler,
	}, logger)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "could not create redis publisher")
	}

	sub, err := rstream.NewSubscriber(rstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  marshaler,
		ConsumerGroup: s.Group,
		Consumer:      s.Consumer,
	}, logger)
	if err != nil {
		_ = pub.Close()
		_ = client.Close()
		return nil, errors.Wrap(err, "could not create redis subscriber")
	}

	log.Debug().Str("addr", s.Addr).Str("group", s.Group).Str("consumer", s.Consumer).Msg("using redis streams transport")
	return &Bus{
		Publisher:  pub,
		Subscriber: sub,
		Router:     router,
		closers:    []func() error{sub.Close, pub.Close, client.Close},
	}, nil
}

// Close stops the router and releases the transport.
func (b *Bus) Close() error {
	var firstErr error
	if err := b.Router.Close(); err != nil {
		firstErr = err
	}
	for _, c := range b.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// EnsureGroupAtTail creates the consumer group for a given stream at the tail ($) if it doesn't exist.
// This prevents full historical replay on first subscribe.
func EnsureGroupAtTail(ctx context.Context, addr, stream, group string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()
	err := client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		// Ignore BUSYGROUP errors (group already exists)
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return err
	}
	log.Info().Str("stream", stream).Str("group", group).Msg("created redis consumer group at $ (tail)")
	return nil
}
