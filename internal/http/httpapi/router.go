package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cardsmith/internal/http/handlers"
	"cardsmith/internal/middleware"
)

// Options carries the router-level knobs.
type Options struct {
	CORSOrigins     []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	StaticDir       string
}

// NewRouter wires all routes and middleware for the API server.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.Origin(opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/events", app.EventStream)

	r.Route("/v1/session", func(r chi.Router) {
		r.Get("/", app.SessionGet)
		r.Delete("/", app.SessionClear)
	})

	r.Post("/v1/uploads", app.UploadImages)
	r.Post("/v1/detect", app.DetectStart)
	r.Put("/v1/selection", app.SelectionUpdate)

	r.Route("/v1/cards", func(r chi.Router) {
		r.Post("/", app.CardsCreate)
		r.Get("/", app.CardsList)
		r.Get("/export", app.CardsExport)
	})

	r.Get("/v1/stats", app.Stats)

	if opts.StaticDir != "" {
		fs := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
