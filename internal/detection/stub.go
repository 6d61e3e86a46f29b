package detection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cardsmith/internal/domain"
)

// StubDetector produces deterministic synthetic results for environments
// without a configured detection endpoint. It is wired explicitly by main;
// the real client never falls back to it.
type StubDetector struct {
	// CardsPerImage controls how many candidates each image yields.
	// Zero means one.
	CardsPerImage int
}

// Detect fabricates one result per input image with ids derived from the
// image id, keeping them unique across the whole batch.
func (s StubDetector) Detect(ctx context.Context, images []domain.SourceImage) ([]domain.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perImage := s.CardsPerImage
	if perImage <= 0 {
		perImage = 1
	}

	start := time.Now()
	results := make([]domain.DetectionResult, 0, len(images))
	for _, img := range images {
		seed := stubSeed(img)
		cards := make([]domain.DetectedCard, 0, perImage)
		for i := 0; i < perImage; i++ {
			cards = append(cards, domain.DetectedCard{
				ID:              fmt.Sprintf("det-%s-%d", img.ID, i+1),
				Confidence:      stubConfidence(seed, i),
				CroppedImageURL: fmt.Sprintf("stub/crops/%s/%02d.png", seed, i+1),
				Metadata: map[string]any{
					"synthetic": true,
					"source":    img.ID,
				},
			})
		}
		results = append(results, domain.DetectionResult{
			SourceImageID:    img.ID,
			DetectedCards:    cards,
			ProcessingTimeMS: time.Since(start).Milliseconds(),
			TotalDetected:    len(cards),
		})
	}
	return results, nil
}

func stubSeed(img domain.SourceImage) string {
	hasher := sha256.New()
	hasher.Write([]byte(img.ID))
	hasher.Write(img.Data)
	return hex.EncodeToString(hasher.Sum(nil))[:12]
}

func stubConfidence(seed string, index int) float64 {
	if seed == "" {
		return 0.5
	}
	b := seed[index%len(seed)]
	return 0.6 + float64(b%40)/100
}
