package notify

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// writeTimeout bounds a single SSE write so a stale connection cannot block
// the broadcast path.
const writeTimeout = 2 * time.Second

type client struct {
	id      string
	writer  http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
}

// Broadcaster fans notification events out to connected SSE clients and
// echoes them to the service log. It implements Notifier.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*client
	nextID  int
	logger  zerolog.Logger
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster(logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

func (b *Broadcaster) Loading(message string) {
	b.logger.Info().Str("notice", "loading").Msg(message)
	b.broadcast(Event{Type: EventLoading, Message: message, At: time.Now().UTC()})
}

func (b *Broadcaster) Success(message string) {
	b.logger.Info().Str("notice", "success").Msg(message)
	b.broadcast(Event{Type: EventSuccess, Message: message, At: time.Now().UTC()})
}

func (b *Broadcaster) Error(message string) {
	b.logger.Warn().Str("notice", "error").Msg(message)
	b.broadcast(Event{Type: EventError, Message: message, At: time.Now().UTC()})
}

func (b *Broadcaster) Dismiss() {
	b.broadcast(Event{Type: EventDismiss, At: time.Now().UTC()})
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP upgrades the request to an SSE stream and blocks until the client
// disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.add(w, flusher)
	defer b.remove(c)

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"client_id\":%q}\n\n", c.id)
	flusher.Flush()

	<-r.Context().Done()
}

func (b *Broadcaster) add(w http.ResponseWriter, f http.Flusher) *client {
	b.mu.Lock()
	b.nextID++
	c := &client{
		id:      fmt.Sprintf("client-%d", b.nextID),
		writer:  w,
		flusher: f,
		done:    make(chan struct{}),
	}
	b.clients[c.id] = c
	total := len(b.clients)
	b.mu.Unlock()

	b.logger.Debug().Str("client_id", c.id).Int("total", total).Msg("sse client connected")
	return c
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c.id]; ok {
		delete(b.clients, c.id)
		close(c.done)
	}
	total := len(b.clients)
	b.mu.Unlock()

	b.logger.Debug().Str("client_id", c.id).Int("total", total).Msg("sse client disconnected")
}

func (b *Broadcaster) removeByID(id string) {
	b.mu.Lock()
	c, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
	}
	b.mu.Unlock()

	if ok {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
	}
}

func (b *Broadcaster) broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Msg("sse: marshal event failed")
		return
	}
	message := fmt.Sprintf("data: %s\n\n", payload)

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		select {
		case <-c.done:
			continue
		default:
		}
		wg.Add(1)
		go func(c *client) {
			defer wg.Done()
			b.writeClient(c, message)
		}(c)
	}
	wg.Wait()
}

// writeClient writes one frame with a bounded wait. Stalled or erroring
// clients unregister themselves via removeByID, which is idempotent, so a
// write that outlives the timeout never touches per-broadcast state. Removal
// on timeout also keeps later broadcasts off a connection that may still have
// a hung write in flight.
func (b *Broadcaster) writeClient(c *client, message string) {
	written := make(chan struct{})
	go func() {
		defer close(written)
		if _, err := c.writer.Write([]byte(message)); err != nil {
			b.removeByID(c.id)
			return
		}
		c.flusher.Flush()
	}()

	select {
	case <-written:
	case <-time.After(writeTimeout):
		b.logger.Warn().Str("client_id", c.id).Msg("sse: write timed out")
		b.removeByID(c.id)
	case <-c.done:
	}
}
