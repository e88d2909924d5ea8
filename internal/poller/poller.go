package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
)

// DefaultInterval is the refetch period while a bookmark is still loading.
const DefaultInterval = time.Second

var (
	ErrAlreadyStarted = errors.New("poller already started")
	ErrNoSnapshot     = errors.New("poller needs an initial bookmark")
)

// Fetcher reloads a single bookmark.
type Fetcher interface {
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
}

// NextInterval decides whether b needs another fetch. It returns the wait
// before that fetch, or false once the bookmark is done loading.
func NextInterval(b *domain.Bookmark, now time.Time, interval time.Duration) (time.Duration, bool) {
	if b == nil || !domain.IsStillLoading(b, now) {
		return 0, false
	}
	return interval, true
}

// Poller refetches one bookmark on a timer until it stops loading, the
// context ends or Stop is called. Every fresh snapshot replaces the previous
// one.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time
	logger   logger.Logger
	onUpdate func(*domain.Bookmark)
	onError  func(error)

	mu       sync.Mutex
	latest   *domain.Bookmark
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a Poller.
type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock replaces time.Now when evaluating the loading predicate.
func WithClock(now func() time.Time) Option { return func(p *Poller) { p.now = now } }

func WithLogger(l logger.Logger) Option { return func(p *Poller) { p.logger = l } }

// OnUpdate is called with every snapshot fetched while polling.
func OnUpdate(fn func(*domain.Bookmark)) Option { return func(p *Poller) { p.onUpdate = fn } }

// OnError is called when a refetch fails. Polling continues on the last
// good snapshot.
func OnError(fn func(error)) Option { return func(p *Poller) { p.onError = fn } }

func New(fetcher Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   logger.Nop(),
		onUpdate: func(*domain.Bookmark) {},
		onError:  func(error) {},
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling from snapshot in a background goroutine. If the
// snapshot is already done loading no fetch is ever made.
func (p *Poller) Start(ctx context.Context, snapshot *domain.Bookmark) error {
	if snapshot == nil {
		return ErrNoSnapshot
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.latest = snapshot
	p.mu.Unlock()

	go p.run(ctx, snapshot.ID)
	return nil
}

// Stop cancels the pending timer. It is safe to call more than once and
// before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Done is closed when the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Latest returns the most recent snapshot.
func (p *Poller) Latest() *domain.Bookmark {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

func (p *Poller) stopped() bool {
	select {
	case <-p.stopCh:
		return true
	default:
		return false
	}
}

func (p *Poller) run(ctx context.Context, id string) {
	defer close(p.done)

	fetches := 0
	for {
		wait, again := NextInterval(p.Latest(), p.now(), p.interval)
		if !again {
			p.logger.Debug("bookmark finished loading",
				logger.String("bookmark_id", id),
				logger.Int("fetches", fetches))
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-p.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}

		fetches++
		b, err := p.fetcher.GetBookmark(ctx, id)
		if p.stopped() || ctx.Err() != nil {
			return
		}
		if err != nil {
			p.logger.Warn("failed to refresh bookmark",
				logger.String("bookmark_id", id),
				logger.Error(err))
			p.onError(err)
			continue
		}

		p.mu.Lock()
		p.latest = b
		p.mu.Unlock()
		p.onUpdate(b)
	}
}

// Wait polls snapshot until it is done loading or ctx ends and returns the
// latest snapshot either way.
func Wait(ctx context.Context, fetcher Fetcher, snapshot *domain.Bookmark, opts ...Option) (*domain.Bookmark, error) {
	p := New(fetcher, opts...)
	if err := p.Start(ctx, snapshot); err != nil {
		return nil, err
	}

	select {
	case <-p.Done():
		return p.Latest(), nil
	case <-ctx.Done():
		p.Stop()
		<-p.Done()
		return p.Latest(), ctx.Err()
	}
}
