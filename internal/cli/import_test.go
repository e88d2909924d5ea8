package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/client"
	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

// scriptedCreator answers every request with the next error of its script
// for that URL, then succeeds.
type scriptedCreator struct {
	mu       sync.Mutex
	script   map[string][]error
	calls    map[string]int
	inFlight int
	maxSeen  int
}

func newScriptedCreator(script map[string][]error) *scriptedCreator {
	return &scriptedCreator{script: script, calls: make(map[string]int)}
}

func (c *scriptedCreator) CreateBookmark(ctx context.Context, req domain.CreateRequest) (*domain.CreatedBookmark, error) {
	c.mu.Lock()
	c.inFlight++
	c.maxSeen = max(c.maxSeen, c.inFlight)
	n := c.calls[req.URL]
	c.calls[req.URL]++
	var err error
	if steps := c.script[req.URL]; n < len(steps) {
		err = steps[n]
	}
	c.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &domain.CreatedBookmark{Bookmark: domain.Bookmark{ID: req.URL}}, nil
}

func tooMany(wait time.Duration) error {
	return &client.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limit exceeded", RetryAfter: wait}
}

func TestCreateWithRetry(t *testing.T) {
	const url = "https://example.com/"
	badRequest := &client.APIError{StatusCode: http.StatusBadRequest, Message: "url is invalid"}

	tests := []struct {
		name      string
		script    []error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "first try",
			wantCalls: 1,
		},
		{
			name:      "429 then success",
			script:    []error{tooMany(time.Millisecond), tooMany(time.Millisecond)},
			wantCalls: 3,
		},
		{
			name:      "other status is not retried",
			script:    []error{badRequest},
			wantErr:   badRequest,
			wantCalls: 1,
		},
		{
			name:      "transport error is not retried",
			script:    []error{errors.New("connection refused")},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newScriptedCreator(map[string][]error{url: tt.script})
			b, err := createWithRetry(context.Background(), c, domain.NewLinkRequest(url))

			if c.calls[url] != tt.wantCalls {
				t.Errorf("calls = %d, want %d", c.calls[url], tt.wantCalls)
			}
			wantFail := len(tt.script) >= tt.wantCalls
			if wantFail && err == nil {
				t.Fatal("createWithRetry() error = nil")
			}
			if !wantFail && (err != nil || b == nil || b.ID != url) {
				t.Fatalf("createWithRetry() = %+v, %v", b, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateWithRetryGivesUp(t *testing.T) {
	const url = "https://example.com/"
	script := make([]error, importAttempts+5)
	for i := range script {
		script[i] = tooMany(time.Millisecond)
	}
	c := newScriptedCreator(map[string][]error{url: script})

	_, err := createWithRetry(context.Background(), c, domain.NewLinkRequest(url))
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("error = %v, want the last 429", err)
	}
	if c.calls[url] != importAttempts {
		t.Errorf("calls = %d, want %d", c.calls[url], importAttempts)
	}
}

func TestCreateWithRetryStopsOnCancel(t *testing.T) {
	const url = "https://example.com/"
	c := newScriptedCreator(map[string][]error{url: {tooMany(time.Hour)}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := createWithRetry(ctx, c, domain.NewLinkRequest(url))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("createWithRetry() kept waiting after the context ended")
	}
}

func TestImportAllKeepsOrderAndBoundsWorkers(t *testing.T) {
	var reqs []domain.CreateRequest
	script := make(map[string][]error)
	for _, u := range []string{
		"https://example.com/0", "https://example.com/1", "https://example.com/2",
		"https://example.com/3", "https://example.com/4", "https://example.com/5",
		"https://example.com/6", "https://example.com/7", "https://example.com/8",
	} {
		reqs = append(reqs, domain.NewLinkRequest(u))
	}
	script["https://example.com/3"] = []error{tooMany(time.Millisecond)}
	script["https://example.com/7"] = []error{&client.APIError{StatusCode: http.StatusBadRequest}}
	c := newScriptedCreator(script)

	results := importAll(context.Background(), c, reqs)

	if len(results) != len(reqs) {
		t.Fatalf("got %d results, want %d", len(results), len(reqs))
	}
	for i, res := range results {
		if res.Request.URL != reqs[i].URL {
			t.Errorf("results[%d] is for %s, want %s", i, res.Request.URL, reqs[i].URL)
		}
		if i == 7 {
			if res.Err == nil {
				t.Errorf("results[7] should carry the 400")
			}
			continue
		}
		if res.Err != nil || res.Bookmark == nil || res.Bookmark.ID != reqs[i].URL {
			t.Errorf("results[%d] = %+v", i, res)
		}
	}
	if c.maxSeen > importWorkers {
		t.Errorf("%d creates in flight, want at most %d", c.maxSeen, importWorkers)
	}
}

func TestImportAllEmpty(t *testing.T) {
	if got := importAll(context.Background(), newScriptedCreator(nil), nil); len(got) != 0 {
		t.Errorf("importAll(nil) = %+v", got)
	}
}
