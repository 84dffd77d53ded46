// internal/transport/transport.go
package transport

import (
	"fmt"

	"github.com/touchloop/touchloop-backend/internal/model"
)

// Message is a fully resolved outbound message.
type Message struct {
	Channel string
	To      string
	ToName  string
	Subject string
	Body    string
}

// Result is the provider acknowledgment for an accepted message.
type Result struct {
	ProviderID string
}

// Sender is the outbound provider contract. The idempotency key is passed
// through so provider-side retries do not duplicate delivery. Any non-nil
// error is recorded verbatim as a failed send; the core never retries.
type Sender interface {
	Send(msg Message, idempotencyKey string) (*Result, error)
}

// Router dispatches a message to the sender for its channel.
type Router struct {
	Email Sender
	SMS   Sender
}

func (r *Router) Send(msg Message, idempotencyKey string) (*Result, error) {
	switch msg.Channel {
	case model.ChannelEmail:
		if r.Email == nil {
			return nil, fmt.Errorf("no email sender configured")
		}
		return r.Email.Send(msg, idempotencyKey)
	case model.ChannelSMS:
		if r.SMS == nil {
			return nil, fmt.Errorf("no sms sender configured")
		}
		return r.SMS.Send(msg, idempotencyKey)
	default:
		return nil, fmt.Errorf("unknown channel %q", msg.Channel)
	}
}

var _ Sender = (*Router)(nil)
