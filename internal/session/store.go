package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cardsmith/internal/domain"
	"cardsmith/internal/notify"
)

const flushTimeout = 5 * time.Second

// Options configures a Store. Snapshots is required; the remaining fields
// have working defaults.
type Options struct {
	Snapshots domain.SnapshotStore
	Notifier  notify.Notifier
	Logger    zerolog.Logger
	Key       string
	// SessionID overrides session-id generation, used by tests.
	SessionID func() string
}

// Store is the single source of truth for workflow state. Every mutation
// marks the store dirty; a dedicated flusher goroutine persists the latest
// full snapshot so rapid sequential mutations coalesce without ever writing
// a stale copy.
type Store struct {
	mu    sync.Mutex
	state domain.SessionState

	snapshots domain.SnapshotStore
	notifier  notify.Notifier
	logger    zerolog.Logger
	key       string
	sessionID func() string

	dirty chan struct{}
	stop  chan struct{}
	idle  sync.WaitGroup

	autoClearMu    sync.Mutex
	autoClearTimer *time.Timer
}

// NewStore constructs a Store and starts its flusher. Callers own the
// lifecycle and must Close it on shutdown.
func NewStore(opts Options) *Store {
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Key == "" {
		opts.Key = SnapshotKey
	}
	if opts.SessionID == nil {
		opts.SessionID = func() string { return "session-" + uuid.NewString() }
	}

	s := &Store{
		state:     domain.NewSessionState(opts.SessionID()),
		snapshots: opts.Snapshots,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		key:       opts.Key,
		sessionID: opts.SessionID,
		dirty:     make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}

	s.idle.Add(1)
	go s.flusher()

	return s
}

// Initialize restores a previously persisted snapshot, if any. A corrupt
// snapshot is logged and replaced with a fresh empty session; it never leaves
// the store partially restored.
func (s *Store) Initialize(ctx context.Context) error {
	data, err := s.snapshots.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}

	state, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Error().Err(err).Msg("session: snapshot restore failed, starting fresh")
		return s.ClearSession(ctx)
	}

	s.mu.Lock()
	s.state = state
	phase := state.Phase
	s.mu.Unlock()

	if phase != domain.PhaseIdle && phase != domain.PhaseComplete {
		s.notifier.Success("Session restored")
	}
	s.logger.Info().Str("session_id", state.SessionID).Str("phase", string(phase)).Msg("session: restored")
	return nil
}

// State returns a copy of the current session state. The selection set and
// slices are copied so callers cannot mutate the store from outside.
func (s *Store) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// SessionID returns the current session identifier.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

// SetPhase updates the workflow phase.
func (s *Store) SetPhase(phase domain.WorkflowPhase) {
	s.mu.Lock()
	s.state.Phase = phase
	s.mu.Unlock()
	s.markDirty()
}

// Phase returns the current workflow phase.
func (s *Store) Phase() domain.WorkflowPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase
}

// SetUploadedImages replaces the uploaded image list.
func (s *Store) SetUploadedImages(images []domain.UploadedImage) {
	s.mu.Lock()
	s.state.UploadedImages = append([]domain.UploadedImage(nil), images...)
	s.mu.Unlock()
	s.markDirty()
}

// SetDetectionResults replaces the detection result list.
func (s *Store) SetDetectionResults(results []domain.DetectionResult) {
	s.mu.Lock()
	s.state.DetectionResults = append([]domain.DetectionResult(nil), results...)
	s.mu.Unlock()
	s.markDirty()
}

// SetSelectedCards replaces the selection with the given detected-card ids.
func (s *Store) SetSelectedCards(ids []string) {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	s.mu.Lock()
	s.state.SelectedCards = selected
	s.mu.Unlock()
	s.markDirty()
}

// SetCreatedCards replaces the created card list.
func (s *Store) SetCreatedCards(cards []domain.CreatedCard) {
	s.mu.Lock()
	s.state.CreatedCards = append([]domain.CreatedCard(nil), cards...)
	s.mu.Unlock()
	s.markDirty()
}

// AppendCreatedCards appends cards to the existing created list, preserving
// order. Created cards are never mutated or removed except on session clear.
func (s *Store) AppendCreatedCards(cards []domain.CreatedCard) {
	s.mu.Lock()
	s.state.CreatedCards = append(s.state.CreatedCards, cards...)
	s.mu.Unlock()
	s.markDirty()
}

// ClearSession deletes the persisted snapshot, resets every field, assigns a
// fresh session id, and cancels any pending auto-clear. This is the only
// operation allowed to change the session id after initialization.
func (s *Store) ClearSession(ctx context.Context) error {
	s.CancelAutoClear()

	if err := s.snapshots.Delete(ctx, s.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Error().Err(err).Msg("session: delete snapshot failed")
	}

	s.mu.Lock()
	s.state = domain.NewSessionState(s.sessionID())
	sessionID := s.state.SessionID
	s.mu.Unlock()

	s.notifier.Success("Session cleared")
	s.logger.Info().Str("session_id", sessionID).Msg("session: cleared")
	return nil
}

// ScheduleAutoClear arms a cancellable timer that clears the session after
// the given delay. A subsequent call re-arms the timer.
func (s *Store) ScheduleAutoClear(delay time.Duration) {
	s.autoClearMu.Lock()
	defer s.autoClearMu.Unlock()

	if s.autoClearTimer != nil {
		s.autoClearTimer.Stop()
	}
	s.autoClearTimer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := s.ClearSession(ctx); err != nil {
			s.logger.Error().Err(err).Msg("session: auto clear failed")
		}
	})
}

// CancelAutoClear stops a pending auto-clear timer, if armed.
func (s *Store) CancelAutoClear() {
	s.autoClearMu.Lock()
	defer s.autoClearMu.Unlock()
	if s.autoClearTimer != nil {
		s.autoClearTimer.Stop()
		s.autoClearTimer = nil
	}
}

// Flush synchronously persists the current snapshot.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	data, err := encodeSnapshot(s.state)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := s.snapshots.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Close stops the flusher and writes a final snapshot.
func (s *Store) Close(ctx context.Context) error {
	s.CancelAutoClear()
	close(s.stop)
	s.idle.Wait()
	return s.Flush(ctx)
}

func (s *Store) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// flusher persists the latest state whenever the store is marked dirty. The
// snapshot is taken at flush time, never from a captured copy, so the write
// always reflects the most recent mutation.
func (s *Store) flusher() {
	defer s.idle.Done()
	for {
		select {
		case <-s.stop:
			return
		case <-s.dirty:
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			if err := s.Flush(ctx); err != nil {
				s.logger.Error().Err(err).Msg("session: persist snapshot failed")
			}
			cancel()
		}
	}
}

func copyState(state domain.SessionState) domain.SessionState {
	selected := make(map[string]struct{}, len(state.SelectedCards))
	for id := range state.SelectedCards {
		selected[id] = struct{}{}
	}
	return domain.SessionState{
		Phase:            state.Phase,
		UploadedImages:   append([]domain.UploadedImage(nil), state.UploadedImages...),
		DetectionResults: append([]domain.DetectionResult(nil), state.DetectionResults...),
		SelectedCards:    selected,
		CreatedCards:     append([]domain.CreatedCard(nil), state.CreatedCards...),
		SessionID:        state.SessionID,
	}
}
