// Package store persists bookmarks and lists for the bookmark service.
package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateURL = errors.New("a bookmark with this url already exists")
	ErrBadCursor    = errors.New("invalid cursor")
)

// Query selects a page of bookmarks, newest first. Before is an exclusive
// upper bound on the bookmark id; empty means from the newest.
type Query struct {
	Archived   *bool
	Favourited *bool
	ListID     string
	Before     string
	Limit      int
}

// Match reports whether b passes the flag filters of q. List membership is
// checked by each backend.
func (q Query) Match(b *domain.Bookmark) bool {
	if q.Archived != nil && b.Archived != *q.Archived {
		return false
	}
	if q.Favourited != nil && b.Favourited != *q.Favourited {
		return false
	}
	return true
}

// Store is implemented by the memory, redis and sqlite backends. Bookmarks
// returned are copies owned by the caller.
type Store interface {
	// InsertBookmark adds a new bookmark. It fails with ErrDuplicateURL when
	// a link with the same canonical url is already stored.
	InsertBookmark(ctx context.Context, b *domain.Bookmark) error
	// SaveBookmark replaces an existing bookmark.
	SaveBookmark(ctx context.Context, b *domain.Bookmark) error
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	FindByURL(ctx context.Context, canonicalURL string) (*domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
	ListBookmarks(ctx context.Context, q Query) ([]*domain.Bookmark, error)
	AllBookmarks(ctx context.Context) ([]*domain.Bookmark, error)

	CreateList(ctx context.Context, l domain.List) error
	Lists(ctx context.Context) ([]domain.List, error)
	AddToList(ctx context.Context, listID, bookmarkID string) error
	RemoveFromList(ctx context.Context, listID, bookmarkID string) error

	Ping(ctx context.Context) error
	Close() error
}

// URLKey is the canonical url a link bookmark is deduplicated on. Other
// variants have none.
func URLKey(b *domain.Bookmark) string {
	link, ok := b.Link()
	if !ok {
		return ""
	}
	key, err := domain.CanonicalURL(link.URL)
	if err != nil {
		return link.URL
	}
	return key
}

// EncodeCursor turns the last id of a page into an opaque cursor.
func EncodeCursor(lastID string) string {
	if lastID == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastID))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: %q", ErrBadCursor, cursor)
	}
	return string(raw), nil
}
