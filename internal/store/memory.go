package store

import (
	"context"
	"sync"
	"time"

	"appointment-booking-web/internal/model"
)

type Memory struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]model.Session), now: time.Now}
}

// Sweep drops expired sessions every interval until ctx is done.
func (m *Memory) Sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.mu.Lock()
			now := m.now()
			for id, s := range m.sessions {
				if !s.ExpiresAt.After(now) {
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Memory) Get(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.ExpiresAt.After(m.now()) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	// copy so callers can't mutate the stored flashes
	s.Flashes = append([]model.Flash(nil), s.Flashes...)
	return &s, nil
}

func (m *Memory) Put(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *s
	c.Flashes = append([]model.Flash(nil), s.Flashes...)
	m.sessions[s.ID] = c
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
