package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

// ErrCursorLoop is returned when the service hands back a cursor it already
// gave out, which would otherwise make the listing never end.
var ErrCursorLoop = errors.New("listing cursor repeated")

// Lister fetches one page of bookmarks.
type Lister interface {
	ListBookmarks(ctx context.Context, q domain.ListQuery) (*domain.Page, error)
}

// Filter selects which bookmarks a full listing contains.
type Filter struct {
	// IncludeArchived lifts the default "archived = false" filter.
	IncludeArchived bool
	// ListID restricts the listing to one list when set.
	ListID string
}

// Query builds the first-page request for f.
func (f Filter) Query() domain.ListQuery {
	q := domain.ListQuery{
		ListID: f.ListID,
		Limit:  domain.MaxBookmarksPerPage,
	}
	if !f.IncludeArchived {
		q.Archived = domain.Bool(false)
	}
	return q
}

// All walks the cursor chain page by page and returns every bookmark in the
// order the service sent them. Pages are fetched one after the other; nothing
// is deduplicated or re-sorted.
func All(ctx context.Context, l Lister, f Filter) ([]domain.Bookmark, error) {
	q := f.Query()
	seen := make(map[string]struct{})
	var out []domain.Bookmark

	for page := 1; ; page++ {
		resp, err := l.ListBookmarks(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		out = append(out, resp.Items...)

		if resp.NextCursor == "" {
			return out, nil
		}
		if _, dup := seen[resp.NextCursor]; dup {
			return nil, fmt.Errorf("%w: %q after page %d", ErrCursorLoop, resp.NextCursor, page)
		}
		seen[resp.NextCursor] = struct{}{}
		q.Cursor = resp.NextCursor
	}
}
