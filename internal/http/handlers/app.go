package handlers

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"cardsmith/internal/domain"
	"cardsmith/internal/notify"
	"cardsmith/internal/session"
	"cardsmith/internal/storage"
	"cardsmith/internal/workflow"
)

// defaultOpTimeout bounds background workflow operations kicked off by
// handlers. Detection and creation both suspend on external services; the
// timeout is the only watchdog this layer adds.
const defaultOpTimeout = 2 * time.Minute

// App bundles the collaborators handlers need.
type App struct {
	Store     *session.Store
	Ops       *workflow.Operations
	Cards     domain.CardRepository
	Files     *storage.FileStore
	Events    *notify.Broadcaster
	Logger    zerolog.Logger
	BaseURL   string
	ListLimit int
	OpTimeout time.Duration
}

func (a *App) opTimeout() time.Duration {
	if a.OpTimeout > 0 {
		return a.OpTimeout
	}
	return defaultOpTimeout
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}
