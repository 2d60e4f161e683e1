package audit

import (
	"context"
	"errors"
)

// Worker consumes audit events from a channel and persists them, keeping
// background processing testable without wiring queue implementations into
// domain code.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

// ChannelStore forwards events into a worker inbox so Emit never blocks the
// request path. Events are dropped when the inbox is full.
type ChannelStore struct {
	inbox chan<- Event
}

func NewChannelStore(inbox chan<- Event) *ChannelStore {
	return &ChannelStore{inbox: inbox}
}

func (s *ChannelStore) Append(_ context.Context, event Event) error {
	select {
	case s.inbox <- event:
	default:
	}
	return nil
}

func (s *ChannelStore) ListByClient(context.Context, string) ([]Event, error) {
	return nil, errors.New("channel store does not support listing")
}
