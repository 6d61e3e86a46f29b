package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cardsmith/internal/adapter/repo"
	"cardsmith/internal/detection"
	"cardsmith/internal/http/handlers"
	"cardsmith/internal/notify"
	"cardsmith/internal/session"
	"cardsmith/internal/storage"
	"cardsmith/internal/workflow"
)

func newTestRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()

	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	store := session.NewStore(session.Options{
		Snapshots: repo.NewMemorySnapshotStore(),
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = store.Close(ctx)
	})

	cards := repo.NewMemoryCardRepository()
	ops := workflow.NewOperations(store, detection.StubDetector{}, files, cards, nil, zerolog.Nop(), workflow.Config{})

	app := &handlers.App{
		Store:  store,
		Ops:    ops,
		Cards:  cards,
		Files:  files,
		Events: notify.NewBroadcaster(zerolog.Nop()),
		Logger: zerolog.Nop(),
	}
	return NewRouter(app, opts)
}

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.RemoteAddr = "198.51.100.10:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRouterSessionEndpoints(t *testing.T) {
	router := newTestRouter(t, Options{})

	for _, tc := range []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/v1/session", http.StatusOK},
		{http.MethodDelete, "/v1/session", http.StatusOK},
		{http.MethodGet, "/v1/cards", http.StatusOK},
		{http.MethodGet, "/v1/stats", http.StatusOK},
		{http.MethodPost, "/v1/detect", http.StatusBadRequest},
		{http.MethodGet, "/v1/nope", http.StatusNotFound},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.RemoteAddr = "198.51.100.10:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: got %d want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}
}

func TestRouterRateLimit(t *testing.T) {
	router := newTestRouter(t, Options{RateLimitPerMin: 2})

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
		req.RemoteAddr = fmt.Sprintf("198.51.100.10:%d", 1000+i)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request not limited: %d", last)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, Options{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/session", nil)
	req.RemoteAddr = "198.51.100.10:1234"
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
}
