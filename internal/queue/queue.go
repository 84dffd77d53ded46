package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// TopicTouchFires carries due campaign touches from the sweep to the sender.
const TopicTouchFires = "touch_fires"

// TouchFire identifies one due touch. Firing is idempotent downstream (the
// send ledger claims the touch), so duplicate deliveries are harmless.
type TouchFire struct {
	EnrollmentID int `json:"enrollment_id"`
	TouchSeq     int `json:"touch_seq"`
}

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process queue with retry, used by single-process
// deployments and tests. Production deployments run the RabbitMQ worker
// instead.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// TouchFirer executes one due touch. Satisfied by the send orchestrator.
type TouchFirer interface {
	FireTouch(enrollmentID, touchSeq int, now time.Time) error
}

// StartTouchFireSubscriber wires the touch_fires topic to the orchestrator.
func StartTouchFireSubscriber(q Queue, firer TouchFirer) {
	err := q.Subscribe(TopicTouchFires, func(payload any) error {
		fire, ok := payload.(TouchFire)
		if !ok {
			log.Println("⚠️ Invalid payload type, expected TouchFire")
			return nil // no retry for garbage
		}

		log.Printf("📩 Firing touch %d of enrollment %d", fire.TouchSeq, fire.EnrollmentID)
		if err := firer.FireTouch(fire.EnrollmentID, fire.TouchSeq, time.Now()); err != nil {
			log.Println("⚠️ Failed to fire touch:", err)
			return err // triggers retry in queue
		}
		return nil
	})
	if err != nil {
		log.Println("⚠️ Failed to start subscriber for touch_fires:", err)
	}
}
