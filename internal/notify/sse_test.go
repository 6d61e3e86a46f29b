package notify

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBroadcasterDeliversEvents(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	ts := httptest.NewServer(b)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", got)
	}

	reader := bufio.NewReader(resp.Body)
	hello, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if !strings.Contains(hello, "connected") {
		t.Fatalf("unexpected hello frame: %s", hello)
	}

	waitForClients(t, b, 1)
	b.Success("Created 3 cards")

	deadline := time.After(2 * time.Second)
	got := make(chan string, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			if strings.Contains(line, "Created 3 cards") {
				got <- line
				return
			}
		}
	}()

	select {
	case line := <-got:
		if !strings.Contains(line, `"type":"success"`) {
			t.Fatalf("unexpected event frame: %s", line)
		}
	case <-deadline:
		t.Fatalf("event never delivered")
	}
}

func TestBroadcasterRemovesDisconnectedClient(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	ts := httptest.NewServer(b)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitForClients(t, b, 1)

	cancel()
	resp.Body.Close()
	waitForClients(t, b, 0)
}

func TestBroadcastWithoutClientsIsNoop(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	b.Loading("Detecting cards...")
	b.Dismiss()
	if b.ClientCount() != 0 {
		t.Fatalf("unexpected client count: %d", b.ClientCount())
	}
}

// stallingWriter hangs past the broadcast write timeout and then fails, the
// shape of a dead TCP connection.
type stallingWriter struct {
	header http.Header
	delay  time.Duration
}

func (w *stallingWriter) Header() http.Header { return w.header }
func (w *stallingWriter) WriteHeader(int)     {}
func (w *stallingWriter) Flush()              {}

func (w *stallingWriter) Write([]byte) (int, error) {
	time.Sleep(w.delay)
	return 0, errors.New("connection reset by peer")
}

func TestBroadcastSurvivesStalledClient(t *testing.T) {
	b := NewBroadcaster(zerolog.Nop())
	sw := &stallingWriter{header: make(http.Header), delay: writeTimeout + 200*time.Millisecond}
	b.add(sw, sw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Success("hello")
		// A follow-up broadcast must not write to the hung connection.
		b.Success("again")
	}()

	select {
	case <-done:
	case <-time.After(writeTimeout + 3*time.Second):
		t.Fatalf("broadcast never returned")
	}

	waitForClients(t, b, 0)
	// Let the hung write goroutine reach its error path; it must unregister
	// quietly rather than crash the process.
	time.Sleep(500 * time.Millisecond)
}

func waitForClients(t *testing.T, b *Broadcaster, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d (have %d)", want, b.ClientCount())
}
