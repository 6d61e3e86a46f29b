package domain

import "context"

// CardRepository persists finalized cards.
type CardRepository interface {
	Save(ctx context.Context, record CardRecord) error
	ListRecent(ctx context.Context, limit int) ([]CreatedCard, error)
	CountByRarity(ctx context.Context) (map[string]int, error)
}

// SnapshotStore is the keyed external store session snapshots are written to.
// Snapshots are written wholesale; concurrent writers are not coordinated
// (last writer wins).
type SnapshotStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
