package handlers

import (
	"net/http"
)

// Health reports liveness along with the current workflow phase, so a probe
// can tell an idle service from one wedged mid-workflow.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status": "ok",
		"phase":  a.Store.State().Phase,
	})
}
