package repo

import (
	"context"
	"sort"
	"sync"

	"cardsmith/internal/domain"
)

// MemorySnapshotStore keeps snapshots in process memory. It serves local
// development without external services and doubles as a test double.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemorySnapshotStore creates an empty in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{items: make(map[string][]byte)}
}

func (s *MemorySnapshotStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), data...)
	return nil
}

func (s *MemorySnapshotStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemorySnapshotStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// MemoryCardRepository keeps created cards in process memory for local
// development and tests.
type MemoryCardRepository struct {
	mu      sync.Mutex
	records []domain.CardRecord
}

// NewMemoryCardRepository creates an empty in-memory card repository.
func NewMemoryCardRepository() *MemoryCardRepository {
	return &MemoryCardRepository{}
}

func (r *MemoryCardRepository) Save(_ context.Context, record domain.CardRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.ID == record.ID {
			return nil
		}
	}
	r.records = append(r.records, record)
	return nil
}

func (r *MemoryCardRepository) ListRecent(_ context.Context, limit int) ([]domain.CreatedCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}

	sorted := append([]domain.CardRecord(nil), r.records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	cards := make([]domain.CreatedCard, 0, len(sorted))
	for _, record := range sorted {
		cards = append(cards, record.Created())
	}
	return cards, nil
}

func (r *MemoryCardRepository) CountByRarity(_ context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, record := range r.records {
		counts[string(record.Rarity)]++
	}
	return counts, nil
}

// Records returns a copy of everything saved so far, in save order.
func (r *MemoryCardRepository) Records() []domain.CardRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CardRecord(nil), r.records...)
}
