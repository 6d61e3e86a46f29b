package repo

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardsmith/internal/domain"
)

// CardRepositoryPG implements domain.CardRepository over PostgreSQL.
type CardRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCardRepository creates a card repository backed by PostgreSQL.
func NewCardRepository(pool *pgxpool.Pool) *CardRepositoryPG {
	return &CardRepositoryPG{pool: pool}
}

// Save inserts a card record. Created cards are immutable; replaying an
// insert for an already-persisted id is a no-op.
func (r *CardRepositoryPG) Save(ctx context.Context, record domain.CardRecord) error {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("marshal card metadata: %w", err)
	}

	query := `
INSERT INTO cards (id, title, image_url, confidence, rarity, visibility, tags, creator_country,
                   solo_attribution, marketplace, catalog, print_available, metadata, source_card_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO NOTHING;
`
	_, err = r.pool.Exec(ctx, query,
		record.ID,
		record.Title,
		record.ImageURL,
		record.Confidence,
		record.Rarity,
		record.Visibility,
		record.Tags,
		nullableText(record.CreatorCountry),
		record.SoloAttribution,
		record.Marketplace,
		record.Catalog,
		record.PrintAvailable,
		metadata,
		record.SourceCardID,
		record.CreatedAt,
	)
	return err
}

// ListRecent returns the most recently created cards, newest first.
func (r *CardRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.CreatedCard, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT id, title, image_url, confidence, metadata, created_at
FROM cards
ORDER BY created_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.CreatedCard
	for rows.Next() {
		var card domain.CreatedCard
		var metadata []byte
		if err := rows.Scan(&card.ID, &card.Title, &card.Image, &card.Confidence, &metadata, &card.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &card.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal card metadata: %w", err)
			}
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// CountByRarity aggregates persisted cards per rarity tier.
func (r *CardRepositoryPG) CountByRarity(ctx context.Context) (map[string]int, error) {
	query := `
SELECT rarity, COUNT(*)
FROM cards
GROUP BY rarity;
`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var rarity string
		var count int
		if err := rows.Scan(&rarity, &count); err != nil {
			return nil, err
		}
		counts[rarity] = count
	}
	return counts, rows.Err()
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
