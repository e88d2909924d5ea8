package listing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

// pagedLister serves pre-built pages keyed by the cursor they answer.
type pagedLister struct {
	pages   map[string]*domain.Page
	queries []domain.ListQuery
	err     error
}

func (p *pagedLister) ListBookmarks(_ context.Context, q domain.ListQuery) (*domain.Page, error) {
	p.queries = append(p.queries, q)
	if p.err != nil {
		return nil, p.err
	}
	page, ok := p.pages[q.Cursor]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", q.Cursor)
	}
	return page, nil
}

func makeBookmarks(prefix string, n int) []domain.Bookmark {
	out := make([]domain.Bookmark, n)
	for i := range out {
		out[i] = domain.Bookmark{
			ID:      fmt.Sprintf("%s-%02d", prefix, i),
			Content: &domain.TextContent{Text: "x"},
		}
	}
	return out
}

func TestAllFollowsCursors(t *testing.T) {
	lister := &pagedLister{pages: map[string]*domain.Page{
		"":   {Items: makeBookmarks("p1", 20), NextCursor: "c1"},
		"c1": {Items: makeBookmarks("p2", 5)},
	}}

	got, err := All(context.Background(), lister, Filter{ListID: "L1"})
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	if len(got) != 25 {
		t.Fatalf("All() returned %d bookmarks, want 25", len(got))
	}
	if got[0].ID != "p1-00" || got[19].ID != "p1-19" || got[20].ID != "p2-00" || got[24].ID != "p2-04" {
		t.Errorf("All() lost page order: first=%s last=%s", got[0].ID, got[24].ID)
	}
	if len(lister.queries) != 2 {
		t.Fatalf("requests = %d, want 2", len(lister.queries))
	}
	for i, q := range lister.queries {
		if q.ListID != "L1" {
			t.Errorf("request %d listId = %q, want L1", i, q.ListID)
		}
		if q.Limit != domain.MaxBookmarksPerPage {
			t.Errorf("request %d limit = %d, want %d", i, q.Limit, domain.MaxBookmarksPerPage)
		}
		if q.Archived == nil || *q.Archived {
			t.Errorf("request %d archived = %v, want false", i, q.Archived)
		}
	}
	if lister.queries[0].Cursor != "" || lister.queries[1].Cursor != "c1" {
		t.Errorf("cursors = %q, %q", lister.queries[0].Cursor, lister.queries[1].Cursor)
	}
}

func TestAllIncludeArchived(t *testing.T) {
	lister := &pagedLister{pages: map[string]*domain.Page{"": {Items: makeBookmarks("a", 1)}}}

	if _, err := All(context.Background(), lister, Filter{IncludeArchived: true}); err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if lister.queries[0].Archived != nil {
		t.Errorf("archived = %v, want unset", *lister.queries[0].Archived)
	}
}

func TestAllKeepsDuplicates(t *testing.T) {
	dup := makeBookmarks("same", 1)
	lister := &pagedLister{pages: map[string]*domain.Page{
		"":  {Items: dup, NextCursor: "n"},
		"n": {Items: dup},
	}}

	got, err := All(context.Background(), lister, Filter{})
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("All() = %d bookmarks, want the duplicate kept", len(got))
	}
}

func TestAllEmpty(t *testing.T) {
	lister := &pagedLister{pages: map[string]*domain.Page{"": {}}}

	got, err := All(context.Background(), lister, Filter{})
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != 0 || len(lister.queries) != 1 {
		t.Errorf("All() = %d bookmarks in %d requests", len(got), len(lister.queries))
	}
}

func TestAllCursorLoop(t *testing.T) {
	lister := &pagedLister{pages: map[string]*domain.Page{
		"":  {Items: makeBookmarks("a", 1), NextCursor: "x"},
		"x": {Items: makeBookmarks("b", 1), NextCursor: "x"},
	}}

	_, err := All(context.Background(), lister, Filter{})
	if !errors.Is(err, ErrCursorLoop) {
		t.Fatalf("All() error = %v, want ErrCursorLoop", err)
	}
	if len(lister.queries) != 2 {
		t.Errorf("requests = %d, want the repeated cursor never requested", len(lister.queries))
	}
}

func TestAllTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	lister := &pagedLister{err: boom}

	if _, err := All(context.Background(), lister, Filter{}); !errors.Is(err, boom) {
		t.Fatalf("All() error = %v, want wrapped transport error", err)
	}
}
