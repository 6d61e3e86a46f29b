package session

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"cardsmith/internal/domain"
)

// SnapshotKey is the fixed key every session snapshot is written under.
const SnapshotKey = "card-upload-session"

// persistedSession is the wire form of a session snapshot. SelectedCards is
// the serialized form of the in-memory set, sorted for stable output.
type persistedSession struct {
	Phase            domain.WorkflowPhase     `json:"phase"`
	UploadedImages   []domain.UploadedImage   `json:"uploaded_images"`
	DetectionResults []domain.DetectionResult `json:"detection_results"`
	SelectedCards    []string                 `json:"selected_cards"`
	CreatedCards     []domain.CreatedCard     `json:"created_cards"`
	SessionID        string                   `json:"session_id"`
}

func toPersisted(state domain.SessionState) persistedSession {
	selected := make([]string, 0, len(state.SelectedCards))
	for id := range state.SelectedCards {
		selected = append(selected, id)
	}
	sort.Strings(selected)

	return persistedSession{
		Phase:            state.Phase,
		UploadedImages:   state.UploadedImages,
		DetectionResults: state.DetectionResults,
		SelectedCards:    selected,
		CreatedCards:     state.CreatedCards,
		SessionID:        state.SessionID,
	}
}

func fromPersisted(p persistedSession) (domain.SessionState, error) {
	if !p.Phase.Valid() {
		return domain.SessionState{}, fmt.Errorf("%w: unknown phase %q", domain.ErrCorruptSnapshot, p.Phase)
	}
	if p.SessionID == "" {
		return domain.SessionState{}, fmt.Errorf("%w: missing session id", domain.ErrCorruptSnapshot)
	}

	selected := make(map[string]struct{}, len(p.SelectedCards))
	for _, id := range p.SelectedCards {
		selected[id] = struct{}{}
	}

	return domain.SessionState{
		Phase:            p.Phase,
		UploadedImages:   p.UploadedImages,
		DetectionResults: p.DetectionResults,
		SelectedCards:    selected,
		CreatedCards:     p.CreatedCards,
		SessionID:        p.SessionID,
	}, nil
}

func encodeSnapshot(state domain.SessionState) ([]byte, error) {
	data, err := json.Marshal(toPersisted(state))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (domain.SessionState, error) {
	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.SessionState{}, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}
	return fromPersisted(p)
}
