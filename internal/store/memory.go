package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-memory FavoriteStore.
type MemoryStore struct {
	mu sync.RWMutex

	// key: favorite id
	data  map[string]Favorite
	order []string

	// maxFavorites caps the list; the oldest entries are evicted first.
	maxFavorites int
	now          func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxFavorites is <= 0, it is treated as unlimited.
func NewMemoryStore(maxFavorites int) *MemoryStore {
	return &MemoryStore{
		data:         make(map[string]Favorite),
		maxFavorites: maxFavorites,
		now:          time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context) ([]Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Favorite, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.data[id])
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.data[id]
	if !ok {
		return Favorite{}, ErrNotFound
	}
	return f, nil
}

// Create stores f under a fresh id.
func (s *MemoryStore) Create(_ context.Context, f Favorite) (Favorite, error) {
	f = NewFavorite(f.PlaceName, f.PlaceDescription)
	f.ID = uuid.NewString()
	f.CreatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[f.ID] = f
	s.order = append(s.order, f.ID)

	// Enforce retention by count.
	if s.maxFavorites > 0 && len(s.order) > s.maxFavorites {
		over := len(s.order) - s.maxFavorites
		for _, id := range s.order[:over] {
			delete(s.data, id)
		}
		s.order = append([]string(nil), s.order[over:]...)
	}
	return f, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
