package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cardsmith/internal/domain"
	"cardsmith/internal/middleware"
	"cardsmith/pkg/zip"
)

// CardsCreate persists every selected card. The guard runs synchronously so
// an empty selection surfaces immediately; the creation loop itself runs
// detached, observable through session polling and SSE notifications.
func (a *App) CardsCreate(w http.ResponseWriter, r *http.Request) {
	state := a.Store.State()
	if len(state.SelectedCards) == 0 {
		a.error(w, http.StatusBadRequest, "no_selection", "please select at least one card")
		return
	}

	country := middleware.CountryFromContext(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout())
		defer cancel()
		if err := a.Ops.CreateSelectedCards(ctx, country); err != nil {
			a.Logger.Warn().Err(err).Msg("handlers: card creation run ended with error")
		}
	}()

	a.json(w, http.StatusAccepted, map[string]any{
		"phase":    domain.PhaseCreating,
		"selected": len(state.SelectedCards),
	})
}

// CardsList returns the most recently persisted cards.
func (a *App) CardsList(w http.ResponseWriter, r *http.Request) {
	cards, err := a.Cards.ListRecent(r.Context(), a.ListLimit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list cards failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load cards")
		return
	}
	if cards == nil {
		cards = []domain.CreatedCard{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": cards})
}

// CardsExport streams a zip archive of this session's created card images.
func (a *App) CardsExport(w http.ResponseWriter, r *http.Request) {
	state := a.Store.State()
	if len(state.CreatedCards) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no created cards in session")
		return
	}

	var assets []zip.Asset
	for _, card := range state.CreatedCards {
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("%s-%s", card.ID, safeFilename(card.Title)),
			MIME:     "image/png",
			Data:     a.loadCardImage(r, card.Image),
		})
	}

	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", state.SessionID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// loadCardImage resolves the card image reference: storage keys are read
// from the file store, remote URLs are embedded as references.
func (a *App) loadCardImage(r *http.Request, image string) []byte {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil
	}
	lower := strings.ToLower(image)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return []byte(image)
	}
	data, err := a.Files.Read(r.Context(), image)
	if err != nil {
		a.Logger.Warn().Err(err).Str("key", image).Msg("handlers: export image missing")
		return nil
	}
	return data
}

func safeFilename(title string) string {
	title = strings.TrimSpace(strings.ToLower(title))
	if title == "" {
		return "card"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
}
