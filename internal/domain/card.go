package domain

import (
	"strings"
	"time"
)

// CardRarity enumerates supported rarity tiers.
type CardRarity string

const (
	RarityCommon    CardRarity = "common"
	RarityUncommon  CardRarity = "uncommon"
	RarityRare      CardRarity = "rare"
	RarityLegendary CardRarity = "legendary"
)

// CardVisibility enumerates who can see a created card.
type CardVisibility string

const (
	VisibilityPrivate CardVisibility = "private"
	VisibilityPublic  CardVisibility = "public"
)

// CreatedCardIDPrefix derives created-card ids from their source detected-card
// id so re-creation stays idempotent and traceable.
const CreatedCardIDPrefix = "created-"

// CreatedCard is the lightweight record appended to the session after a
// detected card has been persisted. Immutable once created.
type CreatedCard struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Image      string         `json:"image"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CardRecord is the full persistable form handed to the card repository.
type CardRecord struct {
	ID              string
	Title           string
	ImageURL        string
	Confidence      float64
	Rarity          CardRarity
	Visibility      CardVisibility
	Tags            []string
	CreatorCountry  string
	SoloAttribution bool
	Marketplace     bool
	Catalog         bool
	PrintAvailable  bool
	Metadata        map[string]any
	SourceCardID    string
	CreatedAt       time.Time
}

// NewCardRecord builds a persistable record from a detected card with the
// workflow defaults: common rarity, private visibility, no tags, solo
// attribution, and no marketplace/catalog/print flags.
func NewCardRecord(card DetectedCard, title, country string, now time.Time) CardRecord {
	return CardRecord{
		ID:              CreatedCardID(card.ID),
		Title:           title,
		ImageURL:        card.CroppedImageURL,
		Confidence:      card.Confidence,
		Rarity:          RarityCommon,
		Visibility:      VisibilityPrivate,
		Tags:            []string{},
		CreatorCountry:  country,
		SoloAttribution: true,
		Metadata:        card.Metadata,
		SourceCardID:    card.ID,
		CreatedAt:       now.UTC(),
	}
}

// CreatedCardID returns the deterministic created-card id for a detected-card id.
func CreatedCardID(detectedID string) string {
	return CreatedCardIDPrefix + strings.TrimSpace(detectedID)
}

// Created returns the UI-facing view of the record.
func (r CardRecord) Created() CreatedCard {
	return CreatedCard{
		ID:         r.ID,
		Title:      r.Title,
		Image:      r.ImageURL,
		Confidence: r.Confidence,
		Metadata:   r.Metadata,
		CreatedAt:  r.CreatedAt,
	}
}
