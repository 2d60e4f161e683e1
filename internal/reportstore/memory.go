package reportstore

import (
	"context"
	"sort"
	"sync"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// InMemoryStore keeps the default deployment dependency-free. It favors
// clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*cbc.ParsedReport
	byRefID map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[string]*cbc.ParsedReport),
		byRefID: make(map[string]string),
	}
}

func (s *InMemoryStore) Save(_ context.Context, report *cbc.ParsedReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	refID := messageRefID(report)
	if refID != "" {
		if existing, ok := s.byRefID[refID]; ok && existing != report.ID {
			return ErrDuplicate
		}
	}

	s.reports[report.ID] = report
	if refID != "" {
		s.byRefID[refID] = report.ID
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*cbc.ParsedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if report, ok := s.reports[id]; ok {
		return report, nil
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, limit int) ([]*cbc.ParsedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*cbc.ParsedReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	// Newest first, then ID for a stable order among equal timestamps.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].File.Received.Equal(out[j].File.Received) {
			return out[i].File.Received.After(out[j].File.Received)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	if refID := messageRefID(report); refID != "" {
		delete(s.byRefID, refID)
	}
	return nil
}

func messageRefID(report *cbc.ParsedReport) string {
	if report.Message == nil {
		return ""
	}
	return report.Message.MessageSpec.MessageRefID
}
