package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nfrund/authshell/internal/pubsub"
)

// Subscriber writes every login event it receives to a logger.
type Subscriber struct {
	sub    pubsub.Subscriber
	logger *slog.Logger
}

// NewSubscriber creates an audit subscriber.
func NewSubscriber(sub pubsub.Subscriber, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{sub: sub, logger: logger.With("component", "audit")}
}

// Start subscribes to both login topics. Handling stops when ctx is canceled.
func (s *Subscriber) Start(ctx context.Context) error {
	for _, topic := range []string{TopicLoginSucceeded, TopicLoginFailed} {
		if err := s.sub.Subscribe(ctx, topic, s.handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	return nil
}

func (s *Subscriber) handle(ctx context.Context, msg pubsub.Message) error {
	var ev LoginEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("failed to decode login event: %w", err)
	}

	attrs := []any{
		"topic", msg.Topic,
		"email", ev.Email,
		"remember_me", ev.RememberMe,
		"remote_ip", ev.RemoteIP,
		"request_id", msg.Metadata["request_id"],
	}
	if msg.Topic == TopicLoginFailed {
		s.logger.WarnContext(ctx, "Login failed", append(attrs, "reason", ev.Reason)...)
		return nil
	}
	s.logger.InfoContext(ctx, "Login succeeded", attrs...)
	return nil
}
