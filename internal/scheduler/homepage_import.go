// Package scheduler runs the daemon's periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/ingest"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/sources/homepage"
)

// ImportStats summarises one pass over the bookmarks file.
type ImportStats struct {
	Created  int
	Existing int
	Failed   int
	Skipped  int
}

// HomepageImporter keeps the bookmark service in step with a Homepage
// bookmarks file. Creates are idempotent, so every pass re-submits every
// link and only new ones end up stored. Links removed from the file are
// left alone.
type HomepageImporter struct {
	path     string
	creator  ingest.Creator
	logger   logger.Logger
	interval time.Duration

	trigger  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewHomepageImporter(path string, creator ingest.Creator, log logger.Logger, interval time.Duration) *HomepageImporter {
	return &HomepageImporter{
		path:     path,
		creator:  creator,
		logger:   log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start imports once and then on every tick or Trigger. A zero interval
// disables the ticker.
func (hi *HomepageImporter) Start(ctx context.Context) error {
	if _, err := hi.Import(ctx); err != nil {
		return fmt.Errorf("initial homepage import failed: %w", err)
	}

	var tick <-chan time.Time
	var ticker *time.Ticker
	if hi.interval > 0 {
		ticker = time.NewTicker(hi.interval)
		tick = ticker.C
	}

	hi.wg.Add(1)
	go func() {
		defer hi.wg.Done()
		if ticker != nil {
			defer ticker.Stop()
		}
		hi.loop(ctx, tick)
	}()
	return nil
}

func (hi *HomepageImporter) loop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-tick:
		case <-hi.trigger:
			hi.logger.Info("manual homepage import triggered")
		case <-hi.stopCh:
			return
		case <-ctx.Done():
			return
		}
		if _, err := hi.Import(ctx); err != nil {
			hi.logger.Error("failed to import homepage bookmarks", logger.Error(err))
		}
	}
}

// Trigger asks for an import outside the schedule. Requests made while one
// is already waiting are merged.
func (hi *HomepageImporter) Trigger() {
	select {
	case hi.trigger <- struct{}{}:
	default:
	}
}

func (hi *HomepageImporter) Stop() {
	hi.stopOnce.Do(func() { close(hi.stopCh) })
	hi.wg.Wait()
}

// Import reads the file and creates a link bookmark for every entry.
func (hi *HomepageImporter) Import(ctx context.Context) (ImportStats, error) {
	entries, err := homepage.Load(hi.path)
	if err != nil {
		return ImportStats{}, err
	}

	reqs, skipped, err := homepage.LinkRequests(entries)
	stats := ImportStats{Skipped: len(skipped)}
	for _, s := range skipped {
		hi.logger.Debug("homepage entry skipped",
			logger.String("group", s.Entry.Group),
			logger.String("name", s.Entry.Name),
			logger.String("href", s.Entry.Href),
			logger.String("reason", s.Reason))
	}
	if err != nil {
		return stats, err
	}

	for _, res := range ingest.CreateAll(ctx, hi.creator, reqs) {
		switch {
		case res.Err != nil:
			stats.Failed++
			hi.logger.Warn("failed to import homepage link",
				logger.String("url", res.Request.URL),
				logger.Error(res.Err))
		case res.Bookmark.AlreadyExists:
			stats.Existing++
		default:
			stats.Created++
		}
	}

	hi.logger.Info("imported homepage bookmarks",
		logger.String("path", hi.path),
		logger.Int("created", stats.Created),
		logger.Int("existing", stats.Existing),
		logger.Int("failed", stats.Failed),
		logger.Int("skipped", stats.Skipped))
	return stats, nil
}
