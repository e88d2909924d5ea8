// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/store"
)

// Link builds a pending link bookmark. Ids sort in creation order, so tests
// pass zero-padded ids.
func Link(id, rawURL string) *domain.Bookmark {
	return &domain.Bookmark{
		ID:            id,
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Content:       &domain.LinkContent{URL: rawURL, CrawlStatus: domain.CrawlPending},
		TaggingStatus: domain.TaggingPending,
	}
}

// Note builds a text bookmark.
func Note(id, text string) *domain.Bookmark {
	return &domain.Bookmark{
		ID:            id,
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Content:       &domain.TextContent{Text: text},
		TaggingStatus: domain.TaggingPending,
	}
}

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("insert and get", func(t *testing.T) { testInsertGet(t, open(t)) })
	t.Run("duplicate url", func(t *testing.T) { testDuplicateURL(t, open(t)) })
	t.Run("save", func(t *testing.T) { testSave(t, open(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("list paging", func(t *testing.T) { testListPaging(t, open(t)) })
	t.Run("list filters", func(t *testing.T) { testListFilters(t, open(t)) })
	t.Run("lists", func(t *testing.T) { testLists(t, open(t)) })
}

func testInsertGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	b := Link("0001", "https://Example.com")
	b.Tags = []domain.TagRef{{ID: "go", Name: "go", AttachedBy: domain.AttachedByAI}}
	if err := s.InsertBookmark(ctx, b); err != nil {
		t.Fatalf("InsertBookmark() error = %v", err)
	}

	got, err := s.GetBookmark(ctx, "0001")
	if err != nil {
		t.Fatalf("GetBookmark() error = %v", err)
	}
	link, ok := got.Link()
	if !ok || link.URL != "https://Example.com" {
		t.Errorf("GetBookmark() content = %#v", got.Content)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "go" {
		t.Errorf("GetBookmark() tags = %v", got.Tags)
	}

	byURL, err := s.FindByURL(ctx, "https://example.com/")
	if err != nil || byURL.ID != "0001" {
		t.Errorf("FindByURL() = %v, %v", byURL, err)
	}

	if _, err := s.GetBookmark(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetBookmark(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.FindByURL(ctx, "https://nowhere.example/"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("FindByURL(missing) error = %v, want ErrNotFound", err)
	}
}

func testDuplicateURL(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.InsertBookmark(ctx, Link("0001", "https://example.com/a")); err != nil {
		t.Fatalf("InsertBookmark() error = %v", err)
	}
	err := s.InsertBookmark(ctx, Link("0002", "HTTPS://EXAMPLE.COM:443/a#frag"))
	if !errors.Is(err, store.ErrDuplicateURL) {
		t.Fatalf("InsertBookmark(duplicate) error = %v, want ErrDuplicateURL", err)
	}

	// notes never collide
	if err := s.InsertBookmark(ctx, Note("0003", "same")); err != nil {
		t.Fatalf("InsertBookmark(note) error = %v", err)
	}
	if err := s.InsertBookmark(ctx, Note("0004", "same")); err != nil {
		t.Fatalf("InsertBookmark(second note) error = %v", err)
	}
}

func testSave(t *testing.T, s store.Store) {
	ctx := context.Background()
	b := Link("0001", "https://example.com")
	if err := s.InsertBookmark(ctx, b); err != nil {
		t.Fatalf("InsertBookmark() error = %v", err)
	}

	b.Archived = true
	b.Title = domain.String("renamed")
	link, _ := b.Link()
	link.CrawlStatus = domain.CrawlSuccess
	if err := s.SaveBookmark(ctx, b); err != nil {
		t.Fatalf("SaveBookmark() error = %v", err)
	}

	got, err := s.GetBookmark(ctx, "0001")
	if err != nil {
		t.Fatalf("GetBookmark() error = %v", err)
	}
	gotLink, _ := got.Link()
	if !got.Archived || got.Title == nil || *got.Title != "renamed" || gotLink.CrawlStatus != domain.CrawlSuccess {
		t.Errorf("GetBookmark() after save = %+v", got)
	}

	if err := s.SaveBookmark(ctx, Note("missing", "x")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SaveBookmark(missing) error = %v, want ErrNotFound", err)
	}
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.InsertBookmark(ctx, Link("0001", "https://example.com")); err != nil {
		t.Fatalf("InsertBookmark() error = %v", err)
	}
	if err := s.DeleteBookmark(ctx, "0001"); err != nil {
		t.Fatalf("DeleteBookmark() error = %v", err)
	}
	if _, err := s.GetBookmark(ctx, "0001"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetBookmark() after delete error = %v", err)
	}
	if err := s.DeleteBookmark(ctx, "0001"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteBookmark() twice error = %v, want ErrNotFound", err)
	}
	// the url is free again
	if err := s.InsertBookmark(ctx, Link("0002", "https://example.com")); err != nil {
		t.Errorf("InsertBookmark() after delete error = %v", err)
	}
}

func testListPaging(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if err := s.InsertBookmark(ctx, Note(fmt.Sprintf("%04d", i), "n")); err != nil {
			t.Fatalf("InsertBookmark() error = %v", err)
		}
	}

	page, err := s.ListBookmarks(ctx, store.Query{Limit: 2})
	if err != nil {
		t.Fatalf("ListBookmarks() error = %v", err)
	}
	if ids(page) != "0005,0004" {
		t.Errorf("first page = %s, want 0005,0004", ids(page))
	}

	page, err = s.ListBookmarks(ctx, store.Query{Limit: 2, Before: "0004"})
	if err != nil {
		t.Fatalf("ListBookmarks() error = %v", err)
	}
	if ids(page) != "0003,0002" {
		t.Errorf("second page = %s, want 0003,0002", ids(page))
	}

	all, err := s.AllBookmarks(ctx)
	if err != nil {
		t.Fatalf("AllBookmarks() error = %v", err)
	}
	if len(all) != 5 {
		t.Errorf("AllBookmarks() = %d, want 5", len(all))
	}
}

func testListFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	archived := Note("0001", "old")
	archived.Archived = true
	fav := Note("0002", "fav")
	fav.Favourited = true
	for _, b := range []*domain.Bookmark{archived, fav, Note("0003", "plain")} {
		if err := s.InsertBookmark(ctx, b); err != nil {
			t.Fatalf("InsertBookmark() error = %v", err)
		}
	}

	tests := []struct {
		name string
		q    store.Query
		want string
	}{
		{"no filter", store.Query{Limit: 10}, "0003,0002,0001"},
		{"not archived", store.Query{Limit: 10, Archived: domain.Bool(false)}, "0003,0002"},
		{"archived", store.Query{Limit: 10, Archived: domain.Bool(true)}, "0001"},
		{"favourited", store.Query{Limit: 10, Favourited: domain.Bool(true)}, "0002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListBookmarks(ctx, tt.q)
			if err != nil {
				t.Fatalf("ListBookmarks() error = %v", err)
			}
			if ids(got) != tt.want {
				t.Errorf("ListBookmarks() = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

func testLists(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, b := range []*domain.Bookmark{Note("0001", "a"), Note("0002", "b")} {
		if err := s.InsertBookmark(ctx, b); err != nil {
			t.Fatalf("InsertBookmark() error = %v", err)
		}
	}
	if err := s.CreateList(ctx, domain.List{ID: "L1", Name: "reading", Icon: "📚"}); err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}
	if err := s.CreateList(ctx, domain.List{ID: "L2", Name: "later", Icon: "⏳"}); err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists() error = %v", err)
	}
	if len(lists) != 2 || lists[0].ID != "L1" || lists[0].Icon != "📚" {
		t.Errorf("Lists() = %+v", lists)
	}

	if err := s.AddToList(ctx, "L1", "0001"); err != nil {
		t.Fatalf("AddToList() error = %v", err)
	}
	if err := s.AddToList(ctx, "L1", "0001"); err != nil {
		t.Fatalf("AddToList() twice error = %v", err)
	}
	if err := s.AddToList(ctx, "missing", "0001"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("AddToList(missing list) error = %v, want ErrNotFound", err)
	}
	if err := s.AddToList(ctx, "L1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("AddToList(missing bookmark) error = %v, want ErrNotFound", err)
	}

	inList, err := s.ListBookmarks(ctx, store.Query{Limit: 10, ListID: "L1"})
	if err != nil {
		t.Fatalf("ListBookmarks(list) error = %v", err)
	}
	if ids(inList) != "0001" {
		t.Errorf("ListBookmarks(list) = %s, want 0001", ids(inList))
	}

	if err := s.RemoveFromList(ctx, "L1", "0001"); err != nil {
		t.Fatalf("RemoveFromList() error = %v", err)
	}
	inList, err = s.ListBookmarks(ctx, store.Query{Limit: 10, ListID: "L1"})
	if err != nil {
		t.Fatalf("ListBookmarks(list) error = %v", err)
	}
	if len(inList) != 0 {
		t.Errorf("ListBookmarks(list) after remove = %s", ids(inList))
	}

	if _, err := s.ListBookmarks(ctx, store.Query{Limit: 10, ListID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ListBookmarks(missing list) error = %v, want ErrNotFound", err)
	}
}

func ids(bs []*domain.Bookmark) string {
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += ","
		}
		out += b.ID
	}
	return out
}
