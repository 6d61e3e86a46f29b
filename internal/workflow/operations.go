package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cardsmith/internal/domain"
	"cardsmith/internal/notify"
	"cardsmith/internal/session"
)

// Detector invokes the external card-detection service with the full ordered
// batch of source images. One result is returned per input image, in an order
// the service defines.
type Detector interface {
	Detect(ctx context.Context, images []domain.SourceImage) ([]domain.DetectionResult, error)
}

// FileReader resolves staged upload bytes by storage key.
type FileReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// Config carries the tunable delays of the command layer. Both are injectable
// so tests run with zero pacing.
type Config struct {
	// PacingDelay is the deliberate pause between sequential card
	// persistence calls so progress is visible in the UI.
	PacingDelay time.Duration
	// AutoResetDelay is how long a completed workflow lingers before the
	// session clears itself.
	AutoResetDelay time.Duration
}

// Operations orchestrates the two long-running workflows. It holds no durable
// state of its own; everything flows through the session store.
type Operations struct {
	store    *session.Store
	detector Detector
	files    FileReader
	cards    domain.CardRepository
	notifier notify.Notifier
	logger   zerolog.Logger
	cfg      Config

	opMu sync.Mutex
}

// NewOperations wires the command layer. All collaborators are injected so
// tests can substitute fakes.
func NewOperations(store *session.Store, detector Detector, files FileReader, cards domain.CardRepository, notifier notify.Notifier, logger zerolog.Logger, cfg Config) *Operations {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Operations{
		store:    store,
		detector: detector,
		files:    files,
		cards:    cards,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// StartDetection runs the detection workflow over the given uploaded images.
// On success the store holds the full result list, every detected card is
// pre-selected, and the phase is reviewing. On failure the phase reverts to
// idle and results/selection are left untouched.
func (o *Operations) StartDetection(ctx context.Context, images []domain.UploadedImage) error {
	if !o.opMu.TryLock() {
		return domain.ErrBusy
	}
	defer o.opMu.Unlock()

	o.store.SetPhase(domain.PhaseDetecting)
	o.notifier.Loading("Detecting cards...")

	sources := make([]domain.SourceImage, 0, len(images))
	for _, img := range images {
		data, err := o.files.Read(ctx, img.FileKey)
		if err != nil {
			return o.failDetection(fmt.Errorf("read upload %s: %w", img.ID, err))
		}
		sources = append(sources, domain.SourceImage{ID: img.ID, Data: data})
	}

	results, err := o.detector.Detect(ctx, sources)
	if err != nil {
		return o.failDetection(err)
	}

	o.store.SetDetectionResults(results)
	ids := domain.AllDetectedIDs(results)
	o.store.SetSelectedCards(ids)

	o.notifier.Dismiss()
	o.notifier.Success(fmt.Sprintf("Detected %d cards in %d images", len(ids), len(images)))
	o.store.SetPhase(domain.PhaseReviewing)

	o.logger.Info().
		Int("images", len(images)).
		Int("detected", len(ids)).
		Msg("workflow: detection complete")
	return nil
}

func (o *Operations) failDetection(err error) error {
	o.logger.Error().Err(err).Msg("workflow: detection failed")
	o.notifier.Dismiss()
	o.notifier.Error("Card detection failed")
	o.store.SetPhase(domain.PhaseIdle)
	return fmt.Errorf("%w: %v", domain.ErrDetectionFailed, err)
}

// CreateSelectedCards persists every selected detected card sequentially, in
// result-list order, then appends the created records to the store and
// completes the workflow. A failure mid-loop commits nothing and leaves the
// phase at creating; clearing the session is the escape hatch.
func (o *Operations) CreateSelectedCards(ctx context.Context, country string) error {
	if !o.opMu.TryLock() {
		return domain.ErrBusy
	}
	defer o.opMu.Unlock()

	// Snapshot under the operation lock so a concurrent selection update
	// cannot slip in between the guard and the creation loop.
	state := o.store.State()
	if len(state.SelectedCards) == 0 {
		o.notifier.Error("Please select at least one card")
		return domain.ErrNoSelection
	}

	o.store.SetPhase(domain.PhaseCreating)
	o.notifier.Loading("Creating cards...")

	var picked []domain.DetectedCard
	for _, result := range state.DetectionResults {
		for _, card := range result.DetectedCards {
			if _, ok := state.SelectedCards[card.ID]; ok {
				picked = append(picked, card)
			}
		}
	}

	total := len(picked)
	created := make([]domain.CreatedCard, 0, total)
	for i, card := range picked {
		record := domain.NewCardRecord(card, DeriveTitle(card, i), country, time.Now())
		if err := o.cards.Save(ctx, record); err != nil {
			o.logger.Error().Err(err).
				Str("card_id", card.ID).
				Int("position", i+1).
				Int("total", total).
				Msg("workflow: card persistence failed")
			o.notifier.Dismiss()
			o.notifier.Error("Failed to create cards")
			return fmt.Errorf("%w: %v", domain.ErrCreationFailed, err)
		}
		created = append(created, record.Created())
		o.notifier.Loading(fmt.Sprintf("Creating cards... %d/%d", i+1, total))
		if o.cfg.PacingDelay > 0 && i < total-1 {
			time.Sleep(o.cfg.PacingDelay)
		}
	}

	o.store.AppendCreatedCards(created)
	o.notifier.Dismiss()
	o.notifier.Success(fmt.Sprintf("Created %d cards", len(created)))
	o.store.SetPhase(domain.PhaseComplete)
	o.store.ScheduleAutoClear(o.cfg.AutoResetDelay)

	o.logger.Info().Int("created", len(created)).Msg("workflow: card creation complete")
	return nil
}
