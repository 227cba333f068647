package artifact

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

// Store is an in-memory artifact read-model keyed by id. Drivers put
// artifacts in; the coordination core only gets them back out.
type Store struct {
	mu    sync.RWMutex
	items map[string]Artifact
	now   func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for record timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewStore builds an empty store.
func NewStore(opts ...StoreOption) *Store {
	store := &Store{
		items: map[string]Artifact{},
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// Put inserts or replaces an artifact. A new record gets version 1 and a
// creation timestamp; a replacement bumps the version and UpdatedAt while
// keeping the original CreatedAt.
func (s *Store) Put(a Artifact) (Artifact, error) {
	if err := a.Validate(); err != nil {
		return Artifact{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if existing, ok := s.items[a.ID]; ok {
		a.Version = existing.Version + 1
		a.CreatedAt = existing.CreatedAt
	} else {
		if a.Version == 0 {
			a.Version = 1
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
	}
	if a.Status == "" {
		a.Status = StatusDraft
	}
	if a.ReviewStatus == "" {
		a.ReviewStatus = ReviewPending
	}
	a.UpdatedAt = now
	s.items[a.ID] = a
	return a, nil
}

// Get returns the artifact with the given id.
func (s *Store) Get(id string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[id]
	if !ok {
		return Artifact{}, fmt.Errorf("artifact: %s not found", id)
	}
	return a, nil
}

// GetAll resolves a list of ids in order. Unknown ids are skipped.
func (s *Store) GetAll(ids []string) []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Artifact, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.items[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// ByCreator returns artifacts created by the given role, ordered by id.
func (s *Store) ByCreator(role pipeline.Role) []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Artifact
	for _, a := range s.items {
		if a.CreatedBy == role {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// List returns all artifacts ordered by id.
func (s *Store) List() []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Artifact, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
