// Package cluster shares chat messages between server instances over Redis Pub/Sub.
package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/metrics"
)

// envelope is the Pub/Sub payload. Origin lets an instance skip its own messages.
type envelope struct {
	Origin uuid.UUID `json:"origin"`
	Text   string    `json:"text"`
}

// Relay publishes local messages and delivers messages from other instances.
type Relay struct {
	rdb      *goredis.Client
	channel  string
	instance uuid.UUID
	log      *zerolog.Logger
}

// New connects to redisURL (e.g. "redis://localhost:6379/0") and verifies the connection.
func New(ctx context.Context, redisURL, channel string, logger *zerolog.Logger) (*Relay, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(rdb, channel, logger), nil
}

// NewWithClient builds a Relay over an existing client.
func NewWithClient(rdb *goredis.Client, channel string, logger *zerolog.Logger) *Relay {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Relay{
		rdb:      rdb,
		channel:  channel,
		instance: uuid.New(),
		log:      logger,
	}
}

// Instance returns the identifier stamped on published messages.
func (r *Relay) Instance() uuid.UUID {
	return r.instance
}

// Publish sends text to every other instance.
func (r *Relay) Publish(ctx context.Context, text string) error {
	data, err := json.Marshal(envelope{Origin: r.instance, Text: text})
	if err != nil {
		return fmt.Errorf("marshal relay message: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, data).Err(); err != nil {
		metrics.RelayMessages.WithLabelValues("published", "error").Inc()
		return fmt.Errorf("publish relay message: %w", err)
	}
	metrics.RelayMessages.WithLabelValues("published", "ok").Inc()
	return nil
}

// Subscribe calls deliver for every message published by another instance
// until ctx is cancelled. It blocks.
func (r *Relay) Subscribe(ctx context.Context, deliver func(text string)) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Receive blocks until Redis confirms the subscription.
	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.log.Info().Str("channel", r.channel).Str("instance", r.instance.String()).Msg("relay subscribed")

	msgCh := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgCh:
			if !ok {
				return nil
			}
			text, own, err := r.decode(msg.Payload)
			if err != nil {
				metrics.RelayMessages.WithLabelValues("received", "error").Inc()
				r.log.Warn().Err(err).Msg("failed to decode relay message")
				continue
			}
			if own {
				continue
			}
			metrics.RelayMessages.WithLabelValues("received", "ok").Inc()
			deliver(text)
		}
	}
}

func (r *Relay) decode(payload string) (string, bool, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", false, fmt.Errorf("unmarshal relay message: %w", err)
	}
	return env.Text, env.Origin == r.instance, nil
}

// Close closes the Redis connection.
func (r *Relay) Close() error {
	return r.rdb.Close()
}
