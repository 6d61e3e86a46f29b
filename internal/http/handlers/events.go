package handlers

import (
	"net/http"
)

// EventStream streams workflow notifications to the UI over SSE.
func (a *App) EventStream(w http.ResponseWriter, r *http.Request) {
	a.Events.ServeHTTP(w, r)
}
