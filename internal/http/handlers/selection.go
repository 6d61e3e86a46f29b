package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
)

type selectionRequest struct {
	CardIDs []string `json:"card_ids"`
}

// SelectionUpdate replaces the review selection with the posted detected-card
// ids.
func (a *App) SelectionUpdate(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	a.Store.SetSelectedCards(req.CardIDs)
	a.json(w, http.StatusOK, map[string]any{"selected": len(req.CardIDs)})
}
