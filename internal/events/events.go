// Package events emits job-request lifecycle events for downstream consumers.
package events

import (
	"context"
	"log"
	"sync"
	"time"
)

type Type string

const (
	JobCreated         Type = "job_request.created"
	JobApplied         Type = "job_request.applied"
	JobAssigned        Type = "job_request.assigned"
	JobAccepted        Type = "job_request.accepted"
	JobStatusChanged   Type = "job_request.status_changed"
	JobProposalUpdated Type = "job_request.proposal_updated"
	JobUpdated         Type = "job_request.updated"
	JobDeleted         Type = "job_request.deleted"
)

type Event struct {
	Type         Type      `json:"type"`
	JobRequestID string    `json:"job_request_id"`
	ClientID     string    `json:"client_id,omitempty"`
	ProviderID   string    `json:"provider_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	At           time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop drops every event. Used when Redis is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Emit publishes ev and only logs failures; a lost event never fails the caller.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Printf("events: %v", err)
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
	return nil
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}
