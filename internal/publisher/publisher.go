// Package publisher pushes match lifecycle events to a Redis channel so
// surrounding services can react to matches starting and ending without
// polling the arena.
package publisher

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tmaziere/ouroboros/pkg/logx"
)

// Publisher wraps the broker connection. A nil Publisher is valid and
// publishes nothing, which keeps the arena independent of broker
// availability.
type Publisher struct {
	broker  *redis.Client
	channel string
}

// New connects to the broker. An empty host disables publishing entirely.
func New(host, port, password, channel string) *Publisher {
	if host == "" {
		return nil
	}

	broker := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	return &Publisher{broker: broker, channel: channel}
}

// Publish sends one pre-encoded event. Failures are logged and returned but
// never escalate; a match must not depend on the broker being up.
func (p *Publisher) Publish(message string) error {
	if p == nil || message == "" {
		return nil
	}

	err := p.broker.Publish(context.Background(), p.channel, message).Err()
	if err != nil {
		logx.Logger.Errorw(
			"could not publish message",
			zap.String("message", message),
			zap.String("channel", p.channel),
			"error", err,
		)
		return err
	}

	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.broker.Close()
}
