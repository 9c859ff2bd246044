// Package audit publishes login outcomes on the event bus and records them
// in the structured log.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nfrund/authshell/internal/pubsub"
)

// Topics carrying login outcomes.
const (
	TopicLoginSucceeded = "auth.login.succeeded"
	TopicLoginFailed    = "auth.login.failed"
)

// LoginEvent describes one settled login attempt. It never carries the
// password.
type LoginEvent struct {
	Email      string    `json:"email"`
	RememberMe bool      `json:"remember_me"`
	RemoteIP   string    `json:"remote_ip,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

// PublishLogin sends ev on the topic matching succeeded.
func PublishLogin(ctx context.Context, pub pubsub.Publisher, succeeded bool, ev LoginEvent, requestID string) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal login event: %w", err)
	}

	topic := TopicLoginFailed
	if succeeded {
		topic = TopicLoginSucceeded
	}

	msg := pubsub.Message{Topic: topic, Payload: payload}
	if requestID != "" {
		msg.Metadata = map[string]string{"request_id": requestID}
	}
	return pub.Publish(ctx, msg)
}
