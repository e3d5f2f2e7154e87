package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pixelsolve/coldmailer-backend/internal/service"
)

// DispatchTopic carries queued send runs.
const DispatchTopic = "dispatch_jobs"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process queue with per-job retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   *zap.Logger
}

// NewInMemoryQueue creates a new queue.
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		logger:   logger,
	}
}

// JobPayload wraps a message payload with retry info.
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers.
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

// processJob handles retries and errors.
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		q.logger.Warn("job failed",
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err))

		if job.RetryCount > job.MaxRetries {
			q.logger.Error("job permanently failed", zap.Int("attempts", job.MaxRetries))
			return // no requeue
		}

		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartDispatchSubscriber wires the dispatcher behind the queue. Dispatch
// runs are not retried by the queue: a run that starts owns its session and
// per-item failures are recorded by the dispatcher itself.
func StartDispatchSubscriber(q Queue, dispatcher *service.Dispatcher, logger *zap.Logger) {
	go func() {
		err := q.Subscribe(DispatchTopic, func(payload any) error {
			job, err := decodeJob(payload)
			if err != nil {
				logger.Warn("invalid dispatch payload", zap.Error(err))
				return nil // malformed, no retry
			}

			logger.Info("processing queued dispatch",
				zap.String("session_id", job.SessionID),
				zap.String("mode", string(job.Mode)))

			if _, err := dispatcher.Run(context.Background(), job); err != nil {
				logger.Error("dispatch run failed",
					zap.String("session_id", job.SessionID),
					zap.Error(err))
			}
			return nil
		})

		if err != nil {
			logger.Error("failed to start dispatch subscriber", zap.Error(err))
		}
	}()
}

// decodeJob accepts either a DispatchJob value (in-process publish) or raw
// JSON (broker delivery).
func decodeJob(payload any) (service.DispatchJob, error) {
	switch p := payload.(type) {
	case service.DispatchJob:
		return p, nil
	case *service.DispatchJob:
		return *p, nil
	case []byte:
		var job service.DispatchJob
		if err := json.Unmarshal(p, &job); err != nil {
			return service.DispatchJob{}, fmt.Errorf("decode dispatch job: %w", err)
		}
		return job, nil
	default:
		return service.DispatchJob{}, fmt.Errorf("unexpected payload type %T", payload)
	}
}
