package handlers

import (
	"context"
	"net/http"

	"cardsmith/internal/domain"
)

// DetectStart kicks off the detection workflow over the staged uploads. The
// operation runs detached from the request; the UI observes progress through
// session polling and SSE notifications.
func (a *App) DetectStart(w http.ResponseWriter, r *http.Request) {
	state := a.Store.State()
	if len(state.UploadedImages) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "no images uploaded")
		return
	}

	images := state.UploadedImages
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout())
		defer cancel()
		if err := a.Ops.StartDetection(ctx, images); err != nil {
			a.Logger.Warn().Err(err).Msg("handlers: detection run ended with error")
		}
	}()

	a.json(w, http.StatusAccepted, map[string]any{
		"phase":  domain.PhaseDetecting,
		"images": len(images),
	})
}
