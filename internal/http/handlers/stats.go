package handlers

import (
	"net/http"
)

// Stats reports persisted card counts per rarity alongside the live session
// phase.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Cards.CountByRarity(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: stats failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}

	state := a.Store.State()
	a.json(w, http.StatusOK, map[string]any{
		"cards_by_rarity":  counts,
		"session_phase":    state.Phase,
		"session_created":  len(state.CreatedCards),
		"session_selected": len(state.SelectedCards),
	})
}
