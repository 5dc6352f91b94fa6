// Package events distributes rewrite lifecycle events. Dispatch is
// synchronous: Publish returns once every handler has run.
package events

import (
	"sync"

	"github.com/alexisbeaulieu97/retag/internal/logger"
)

const (
	// PipelineStarted is emitted before the first rule runs.
	PipelineStarted = "pipeline.started"
	// PipelineCompleted is emitted after every rule ran without error.
	PipelineCompleted = "pipeline.completed"
	// PipelineFailed is emitted when a rule aborts the run.
	PipelineFailed = "pipeline.failed"
	// RuleStarted is emitted before a rule runs.
	RuleStarted = "rule.started"
	// RuleApplied is emitted when a rule rewrote at least one site.
	RuleApplied = "rule.applied"
	// RuleSkipped is emitted when a rule made no edits.
	RuleSkipped = "rule.skipped"
	// RuleFailed is emitted when a rule returns an error.
	RuleFailed = "rule.failed"

	// All subscribes a handler to every event type.
	All = "*"
)

// Event is a lifecycle occurrence with a flat payload.
type Event struct {
	Type    string
	Payload map[string]any
}

// Handler processes one event. Returned errors are logged and do not stop
// delivery to other handlers.
type Handler func(Event) error

// Subscription represents a registered handler.
type Subscription interface {
	Unsubscribe()
}

// Publisher writes each event as a debug log entry and fans it out to
// subscribers. It is safe for concurrent use.
type Publisher struct {
	log    *logger.Logger
	subs   map[string][]subscriptionEntry
	nextID int
	mu     sync.RWMutex
}

// NewPublisher creates a publisher logging through log. A nil log is allowed.
func NewPublisher(log *logger.Logger) *Publisher {
	return &Publisher{
		log:  log,
		subs: make(map[string][]subscriptionEntry),
	}
}

// Publish delivers event to the handlers subscribed to its type and to All.
func (p *Publisher) Publish(event Event) error {
	if p == nil || event.Type == "" {
		return nil
	}

	p.mu.RLock()
	handlers := append([]subscriptionEntry(nil), p.subs[event.Type]...)
	handlers = append(handlers, p.subs[All]...)
	p.mu.RUnlock()

	fields := logger.Fields{"event_type": event.Type}
	for key, value := range event.Payload {
		fields[key] = value
	}
	p.log.WithFields(fields).Debug("event")

	for _, entry := range handlers {
		if entry.handler == nil {
			continue
		}
		if err := entry.handler(event); err != nil {
			p.log.WithFields(logger.Fields{"event_type": event.Type}).Error(err, "event handler failed")
		}
	}
	return nil
}

// Subscribe registers handler for eventType, or for every event when
// eventType is All.
func (p *Publisher) Subscribe(eventType string, handler Handler) Subscription {
	if p == nil || handler == nil {
		return noopSubscription{}
	}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[eventType] = append(p.subs[eventType], subscriptionEntry{id: id, handler: handler})
	p.mu.Unlock()

	return subscription{
		cancel: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			handlers := p.subs[eventType]
			for i, entry := range handlers {
				if entry.id == id {
					p.subs[eventType] = append(handlers[:i:i], handlers[i+1:]...)
					break
				}
			}
		},
	}
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriptionEntry struct {
	id      int
	handler Handler
}
