// Package crawler fills in link metadata and tags for new bookmarks in the
// background.
package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/store"
)

// Bookmarks is the part of the bookmark service the crawler works through.
type Bookmarks interface {
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	Mutate(ctx context.Context, id string, fn func(*domain.Bookmark) error) (*domain.Bookmark, error)
	Pending(ctx context.Context) ([]string, error)
}

// PageFetcher is implemented by *Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

type Options struct {
	Workers   int
	QueueSize int
	// Sweep is how often bookmarks still pending are queued again, which
	// picks up work lost to a full queue or a restart.
	Sweep time.Duration
}

// Crawler is a fixed pool of workers fed by Enqueue and a periodic sweep.
type Crawler struct {
	bookmarks Bookmarks
	fetcher   PageFetcher
	logger    logger.Logger
	opts      Options
	now       func() time.Time

	queue    chan string
	mu       sync.Mutex
	inflight map[string]bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(bookmarks Bookmarks, fetcher PageFetcher, log logger.Logger, opts Options) *Crawler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Sweep <= 0 {
		opts.Sweep = time.Minute
	}
	return &Crawler{
		bookmarks: bookmarks,
		fetcher:   fetcher,
		logger:    log,
		opts:      opts,
		now:       time.Now,
		queue:     make(chan string, opts.QueueSize),
		inflight:  make(map[string]bool),
		stopCh:    make(chan struct{}),
	}
}

// Enqueue schedules a bookmark without blocking. When the queue is full the
// id is dropped and left for the next sweep.
func (c *Crawler) Enqueue(id string) {
	c.mu.Lock()
	if c.inflight[id] {
		c.mu.Unlock()
		return
	}
	c.inflight[id] = true
	c.mu.Unlock()

	select {
	case c.queue <- id:
	default:
		c.release(id)
		c.logger.Warn("crawl queue full, bookmark left for the next sweep",
			logger.String("bookmark_id", id))
	}
}

func (c *Crawler) release(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

// Start launches the workers and the sweep loop.
func (c *Crawler) Start(ctx context.Context) error {
	for i := 0; i < c.opts.Workers; i++ {
		c.wg.Add(1)
		go c.work(ctx)
	}

	// Sweep immediately on start
	c.sweep(ctx)

	ticker := time.NewTicker(c.opts.Sweep)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep(ctx)
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	c.logger.Info("crawler started",
		logger.Int("workers", c.opts.Workers),
		logger.Duration("sweep", c.opts.Sweep))
	return nil
}

// Stop signals the workers and waits for the ones in the middle of a
// bookmark to finish it.
func (c *Crawler) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *Crawler) sweep(ctx context.Context) {
	ids, err := c.bookmarks.Pending(ctx)
	if err != nil {
		c.logger.Error("crawl sweep failed", logger.Error(err))
		return
	}
	for _, id := range ids {
		c.Enqueue(id)
	}
	if len(ids) > 0 {
		c.logger.Debug("crawl sweep queued pending bookmarks", logger.Int("count", len(ids)))
	}
}

func (c *Crawler) work(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case id := <-c.queue:
			if err := c.Process(ctx, id); err != nil {
				c.logger.Warn("failed to process bookmark",
					logger.String("bookmark_id", id),
					logger.Error(err))
			}
			c.release(id)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Process crawls and tags one bookmark. A bookmark deleted in the meantime
// is skipped silently.
func (c *Crawler) Process(ctx context.Context, id string) error {
	b, err := c.bookmarks.GetBookmark(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var page *Page
	var crawlErr error
	link, isLink := b.Link()
	if isLink && link.CrawlStatus == domain.CrawlPending {
		start := c.now()
		page, crawlErr = c.fetcher.Fetch(ctx, link.URL)
		c.logger.Debug("crawled link",
			logger.String("bookmark_id", id),
			logger.String("url", link.URL),
			logger.Duration("duration", c.now().Sub(start)),
			logger.Bool("ok", crawlErr == nil))
		if ctx.Err() != nil {
			// shutting down; the next sweep picks the bookmark up again
			return ctx.Err()
		}
	}

	_, err = c.bookmarks.Mutate(ctx, id, func(b *domain.Bookmark) error {
		c.apply(b, page, crawlErr)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return crawlErr
}

// apply records the crawl outcome and the generated tags on b.
func (c *Crawler) apply(b *domain.Bookmark, page *Page, crawlErr error) {
	var names []string

	switch content := b.Content.(type) {
	case *domain.LinkContent:
		if content.CrawlStatus == domain.CrawlPending {
			crawledAt := c.now().UTC()
			content.CrawledAt = &crawledAt
			if crawlErr != nil || page == nil {
				content.CrawlStatus = domain.CrawlFailure
			} else {
				content.CrawlStatus = domain.CrawlSuccess
				content.Title = optional(page.Title)
				content.Description = optional(page.Description)
				content.ImageURL = optional(page.ImageURL)
				content.Favicon = optional(page.Favicon)
				content.HTMLContent = optional(page.HTML)
			}
		}
		if page != nil {
			names = page.Keywords
		}
	case *domain.TextContent:
		names = Hashtags(content.Text)
	case *domain.AssetContent:
	}

	if b.TaggingStatus != domain.TaggingPending {
		return
	}
	if link, ok := b.Link(); ok && link.CrawlStatus == domain.CrawlFailure {
		b.TaggingStatus = domain.TaggingFailure
		return
	}
	b.Tags = mergeTags(b.Tags, Tags(names))
	b.TaggingStatus = domain.TaggingSuccess
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
