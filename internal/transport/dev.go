// internal/transport/dev.go
package transport

import "log"

// DevSender logs instead of sending. Used for the SMS channel until a
// provider is wired, and for email in development.
type DevSender struct {
	Label string
}

func (s *DevSender) Send(msg Message, idempotencyKey string) (*Result, error) {
	log.Printf("📨 [%s] to=%s subject=%q", s.Label, msg.To, msg.Subject)
	log.Printf("   body: %s", msg.Body)
	log.Printf("   ⚠️  Message NOT sent (development mode)")
	return &Result{ProviderID: "dev-" + idempotencyKey}, nil
}

var _ Sender = (*DevSender)(nil)
