package detection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"cardsmith/internal/domain"
)

func sampleImages() []domain.SourceImage {
	return []domain.SourceImage{
		{ID: "img-1", MIME: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
		{ID: "img-2", MIME: "image/jpeg", Data: []byte{0xff, 0xd8}},
	}
}

func TestClientDetect(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/detect-cards" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload detectRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(payload.Images) != 2 {
			t.Fatalf("unexpected image count: %d", len(payload.Images))
		}
		if payload.Images[0].ID != "img-1" || payload.Images[0].Data == "" {
			t.Fatalf("first image payload mismatch: %+v", payload.Images[0])
		}
		resp := detectResponse{Results: []domain.DetectionResult{
			{
				SourceImageID: "img-1",
				DetectedCards: []domain.DetectedCard{{ID: "det-1", Confidence: 0.9}},
				TotalDetected: 1,
			},
			{SourceImageID: "img-2", TotalDetected: 0},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	results, err := client.Detect(context.Background(), sampleImages())
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("unexpected result count: %d", len(results))
	}
	if results[0].SourceImageID != "img-1" || len(results[0].DetectedCards) != 1 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if calls != 1 {
		t.Fatalf("unexpected call count: %d", calls)
	}
}

func TestClientDetectCachesIdenticalBatch(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := detectResponse{Results: []domain.DetectionResult{
			{SourceImageID: "img-1", DetectedCards: []domain.DetectedCard{{ID: "det-1"}}, TotalDetected: 1},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client, err := NewClient(Options{BaseURL: ts.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	images := sampleImages()[:1]
	first, err := client.Detect(context.Background(), images)
	if err != nil {
		t.Fatalf("first Detect error: %v", err)
	}
	second, err := client.Detect(context.Background(), images)
	if err != nil {
		t.Fatalf("second Detect error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}

	// Cached results are cloned so callers cannot poison the cache.
	second[0].DetectedCards[0].ID = "mutated"
	third, err := client.Detect(context.Background(), images)
	if err != nil {
		t.Fatalf("third Detect error: %v", err)
	}
	if third[0].DetectedCards[0].ID != first[0].DetectedCards[0].ID {
		t.Fatalf("cache was mutated through a returned slice")
	}

	// A different batch misses the cache.
	if _, err := client.Detect(context.Background(), sampleImages()); err != nil {
		t.Fatalf("different batch Detect error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected cache miss for different batch, got %d calls", calls)
	}
}

func TestClientDetectErrorEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"code":422,"message":"no cards found"}}`))
	}))
	defer ts.Close()

	client, err := NewClient(Options{BaseURL: ts.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	if _, err := client.Detect(context.Background(), sampleImages()); err == nil {
		t.Fatalf("expected error for 422 response")
	}
}

func TestClientDetectEmptyBatch(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "http://localhost:9"})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if _, err := client.Detect(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty batch")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error when base url missing")
	}
}
