package handlers

import (
	"net/http"
	"sort"

	"cardsmith/internal/domain"
)

type sessionResponse struct {
	Phase            domain.WorkflowPhase     `json:"phase"`
	UploadedImages   []domain.UploadedImage   `json:"uploaded_images"`
	DetectionResults []domain.DetectionResult `json:"detection_results"`
	SelectedCards    []string                 `json:"selected_cards"`
	CreatedCards     []domain.CreatedCard     `json:"created_cards"`
	SessionID        string                   `json:"session_id"`
}

func sessionView(state domain.SessionState) sessionResponse {
	selected := make([]string, 0, len(state.SelectedCards))
	for id := range state.SelectedCards {
		selected = append(selected, id)
	}
	sort.Strings(selected)

	return sessionResponse{
		Phase:            state.Phase,
		UploadedImages:   state.UploadedImages,
		DetectionResults: state.DetectionResults,
		SelectedCards:    selected,
		CreatedCards:     state.CreatedCards,
		SessionID:        state.SessionID,
	}
}

// SessionGet returns the current workflow state for UI polling.
func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, sessionView(a.Store.State()))
}

// SessionClear is the manual escape hatch: it resets the workflow from any
// phase and prunes the staged upload files the session was holding.
func (a *App) SessionClear(w http.ResponseWriter, r *http.Request) {
	for _, img := range a.Store.State().UploadedImages {
		if err := a.Files.Remove(r.Context(), img.FileKey); err != nil {
			a.Logger.Warn().Err(err).Str("key", img.FileKey).Msg("handlers: prune staged upload failed")
		}
	}

	if err := a.Store.ClearSession(r.Context()); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: clear session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to clear session")
		return
	}
	a.json(w, http.StatusOK, sessionView(a.Store.State()))
}
