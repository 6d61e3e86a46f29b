package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardsmith/internal/domain"
)

// SnapshotStorePG implements domain.SnapshotStore over a key/value table.
type SnapshotStorePG struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a PostgreSQL-backed snapshot store.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStorePG {
	return &SnapshotStorePG{pool: pool}
}

// Save writes the snapshot wholesale under the given key.
func (s *SnapshotStorePG) Save(ctx context.Context, key string, data []byte) error {
	query := `
INSERT INTO session_snapshots (key, snapshot, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = NOW();
`
	_, err := s.pool.Exec(ctx, query, key, data)
	return err
}

// Load fetches the snapshot stored under the given key.
func (s *SnapshotStorePG) Load(ctx context.Context, key string) ([]byte, error) {
	query := `
SELECT snapshot
FROM session_snapshots
WHERE key = $1;
`
	var data []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Delete removes the snapshot stored under the given key.
func (s *SnapshotStorePG) Delete(ctx context.Context, key string) error {
	query := `
DELETE FROM session_snapshots
WHERE key = $1;
`
	_, err := s.pool.Exec(ctx, query, key)
	return err
}

// DeleteStale removes snapshots untouched for longer than ttl and returns how
// many were pruned. Used by the session gc tool.
func (s *SnapshotStorePG) DeleteStale(ctx context.Context, ttl time.Duration) (int64, error) {
	query := `
DELETE FROM session_snapshots
WHERE updated_at < NOW() - make_interval(secs => $1);
`
	tag, err := s.pool.Exec(ctx, query, ttl.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
