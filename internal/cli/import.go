package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hoarder/internal/client"
	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/ingest"
	"github.com/MrSnakeDoc/hoarder/internal/sources/homepage"
)

const (
	importWorkers  = 4
	importAttempts = 10
)

func newImportCmd(e *env) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "import <bookmarks.yaml>",
		Short: "Create link bookmarks from a Homepage bookmarks file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := homepage.Load(args[0])
			if err != nil {
				return err
			}
			reqs, skipped, err := homepage.LinkRequests(entries)
			for _, s := range skipped {
				e.out.Notice("Skipped %q in %s (%s): %s", s.Entry.Name, s.Entry.Group, s.Entry.Href, s.Reason)
			}
			if err != nil {
				return err
			}

			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			return e.printResults(cmd.Context(), api, importAll(cmd.Context(), api, reqs), wait)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until crawling and tagging are done")
	return cmd
}

// importAll creates reqs through a few workers and keeps request order in
// the results. A 429 is retried after the delay the service asks for; any
// other outcome settles the item.
func importAll(ctx context.Context, creator ingest.Creator, reqs []domain.CreateRequest) []ingest.Result {
	results := make([]ingest.Result, len(reqs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(importWorkers, len(reqs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				b, err := createWithRetry(ctx, creator, reqs[i])
				results[i] = ingest.Result{Request: reqs[i], Bookmark: b, Err: err}
			}
		}()
	}
	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func createWithRetry(ctx context.Context, creator ingest.Creator, req domain.CreateRequest) (*domain.CreatedBookmark, error) {
	for attempt := 1; ; attempt++ {
		b, err := creator.CreateBookmark(ctx, req)
		var apiErr *client.APIError
		if err == nil || attempt == importAttempts ||
			!errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests {
			return b, err
		}

		wait := apiErr.RetryAfter
		if wait <= 0 {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
