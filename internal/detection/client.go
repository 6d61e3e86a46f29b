package detection

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"cardsmith/internal/domain"
)

const defaultCacheSize = 32

// Options controls how the detection client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// CacheSize bounds the whole-batch memoization cache. Zero uses a
	// small default.
	CacheSize int
}

// Client calls the external card-detection edge function. Identical batches
// are memoized by content digest so re-running detection on the same uploads
// does not re-invoke the service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	cache      *lru.Cache[string, []domain.DetectionResult]
}

type detectImagePayload struct {
	ID   string `json:"id"`
	MIME string `json:"mime,omitempty"`
	Data string `json:"data"`
}

type detectRequest struct {
	Images []detectImagePayload `json:"images"`
}

type detectResponse struct {
	Results []domain.DetectionResult `json:"results"`
}

type detectErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a detection client. BaseURL is required; a nil HTTP
// client gets sensible timeouts.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("detection: base url is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []domain.DetectionResult](size)
	if err != nil {
		return nil, fmt.Errorf("detection: build cache: %w", err)
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
		cache:      cache,
	}, nil
}

// Detect submits the full ordered batch in one call and returns one result
// per input image. A rejected call is returned as an error; the client never
// fabricates results.
func (c *Client) Detect(ctx context.Context, images []domain.SourceImage) ([]domain.DetectionResult, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("detection: no images supplied")
	}

	key := batchDigest(images)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Debug().Str("digest", key).Msg("detection: batch served from cache")
		return cloneResults(cached), nil
	}

	payload := detectRequest{Images: make([]detectImagePayload, 0, len(images))}
	for _, img := range images {
		payload.Images = append(payload.Images, detectImagePayload{
			ID:   img.ID,
			MIME: img.MIME,
			Data: base64.StdEncoding.EncodeToString(img.Data),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("detection: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect-cards", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("detection: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection: invoke service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr detectErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("detection: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return nil, fmt.Errorf("detection: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return nil, fmt.Errorf("detection: status %d", resp.StatusCode)
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("detection: decode response: %w", err)
	}

	c.cache.Add(key, cloneResults(decoded.Results))
	c.logger.Debug().
		Int("images", len(images)).
		Int("results", len(decoded.Results)).
		Msg("detection: batch detected")
	return decoded.Results, nil
}

func batchDigest(images []domain.SourceImage) string {
	hasher := sha256.New()
	for _, img := range images {
		hasher.Write([]byte(img.ID))
		hasher.Write([]byte{0})
		hasher.Write(img.Data)
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func cloneResults(results []domain.DetectionResult) []domain.DetectionResult {
	cloned := make([]domain.DetectionResult, len(results))
	for i, result := range results {
		cards := make([]domain.DetectedCard, len(result.DetectedCards))
		copy(cards, result.DetectedCards)
		result.DetectedCards = cards
		cloned[i] = result
	}
	return cloned
}
