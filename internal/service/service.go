// Package service implements the bookmark operations behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/store"
)

// DefaultPageSize applies when a listing does not ask for a limit.
const DefaultPageSize = 20

// ErrInvalid wraps every rejection caused by the request itself.
var ErrInvalid = errors.New("invalid request")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Enqueuer receives the ids of bookmarks that need crawling or tagging.
type Enqueuer interface {
	Enqueue(id string)
}

type Service struct {
	store store.Store
	log   logger.Logger
	queue Enqueuer
	now   func() time.Time
	newID func() (string, error)

	// serialises read-modify-write cycles on bookmarks
	mu sync.Mutex
}

type Option func(*Service)

// WithQueue makes every new bookmark go to q.
func WithQueue(q Enqueuer) Option { return func(s *Service) { s.queue = q } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(st store.Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store: st,
		log:   log,
		now:   time.Now,
		newID: newV7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQueue wires the processing queue after construction, for when the
// queue itself needs the service.
func (s *Service) SetQueue(q Enqueuer) { s.queue = q }

// newV7 ids sort by creation time, which the store listings rely on.
func newV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// CreateBookmark stores a new bookmark, or returns the existing one when a
// link with the same canonical URL is already saved.
func (s *Service) CreateBookmark(ctx context.Context, req domain.CreateRequest) (*domain.CreatedBookmark, error) {
	content, urlKey, err := s.contentFor(req)
	if err != nil {
		return nil, err
	}

	if urlKey != "" {
		existing, err := s.store.FindByURL(ctx, urlKey)
		if err == nil {
			return &domain.CreatedBookmark{Bookmark: *existing, AlreadyExists: true}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	b := &domain.Bookmark{
		ID:            id,
		CreatedAt:     s.now().UTC(),
		Content:       content,
		TaggingStatus: domain.TaggingPending,
	}

	err = s.store.InsertBookmark(ctx, b)
	if errors.Is(err, store.ErrDuplicateURL) {
		// lost a race against a concurrent create of the same link
		existing, findErr := s.store.FindByURL(ctx, urlKey)
		if findErr != nil {
			return nil, fmt.Errorf("failed to load existing bookmark: %w", findErr)
		}
		return &domain.CreatedBookmark{Bookmark: *existing, AlreadyExists: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("bookmark created",
		logger.String("bookmark_id", b.ID),
		logger.String("type", string(content.Type())))
	if s.queue != nil {
		s.queue.Enqueue(b.ID)
	}
	return &domain.CreatedBookmark{Bookmark: *b}, nil
}

func (s *Service) contentFor(req domain.CreateRequest) (domain.Content, string, error) {
	switch req.Type {
	case domain.ContentLink:
		raw := strings.TrimSpace(req.URL)
		u, err := url.Parse(raw)
		if err != nil || !domain.IsWebURL(u) {
			return nil, "", invalidf("url %q is not an absolute http(s) url", req.URL)
		}
		key, err := domain.CanonicalURL(raw)
		if err != nil {
			return nil, "", invalidf("%v", err)
		}
		return &domain.LinkContent{URL: raw, CrawlStatus: domain.CrawlPending}, key, nil
	case domain.ContentText:
		if strings.TrimSpace(req.Text) == "" {
			return nil, "", invalidf("text is empty")
		}
		return &domain.TextContent{Text: req.Text}, "", nil
	case domain.ContentAsset:
		return nil, "", invalidf("asset bookmarks can only be created by upload")
	default:
		return nil, "", invalidf("unknown bookmark type %q", req.Type)
	}
}

func (s *Service) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	return s.store.GetBookmark(ctx, id)
}

// UpdateBookmark applies the fields set in req. Content is never touched.
func (s *Service) UpdateBookmark(ctx context.Context, req domain.UpdateRequest) (*domain.Bookmark, error) {
	if req.Empty() {
		return nil, invalidf("nothing to update")
	}
	return s.Mutate(ctx, req.BookmarkID, func(b *domain.Bookmark) error {
		req.Apply(b)
		return nil
	})
}

// Mutate loads a bookmark, lets fn change it and saves the result. Calls are
// serialised so concurrent updates and crawler results do not overwrite each
// other.
func (s *Service) Mutate(ctx context.Context, id string, fn func(*domain.Bookmark) error) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := s.store.SaveBookmark(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) DeleteBookmark(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteBookmark(ctx, id); err != nil {
		return err
	}
	s.log.Info("bookmark deleted", logger.String("bookmark_id", id))
	return nil
}

// ListBookmarks returns one page, newest first.
func (s *Service) ListBookmarks(ctx context.Context, q domain.ListQuery) (*domain.Page, error) {
	limit := q.Limit
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 0 || limit > domain.MaxBookmarksPerPage:
		return nil, invalidf("limit must be between 1 and %d", domain.MaxBookmarksPerPage)
	}

	before, err := store.DecodeCursor(q.Cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	items, err := s.store.ListBookmarks(ctx, store.Query{
		Archived:   q.Archived,
		Favourited: q.Favourited,
		ListID:     q.ListID,
		Before:     before,
		Limit:      limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &domain.Page{Items: make([]domain.Bookmark, 0, limit)}
	if len(items) > limit {
		items = items[:limit]
		page.NextCursor = store.EncodeCursor(items[limit-1].ID)
	}
	for _, b := range items {
		page.Items = append(page.Items, *b)
	}
	return page, nil
}

// Tags counts the tags over every bookmark.
func (s *Service) Tags(ctx context.Context) ([]domain.TagSummary, error) {
	all, err := s.store.AllBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	return domain.CountTags(all), nil
}

// Pending returns the ids of bookmarks whose crawl or tagging has not
// finished, oldest first.
func (s *Service) Pending(ctx context.Context) ([]string, error) {
	all, err := s.store.AllBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for i := len(all) - 1; i >= 0; i-- {
		b := all[i]
		crawling := false
		if link, ok := b.Link(); ok && link.CrawlStatus == domain.CrawlPending {
			crawling = true
		}
		if crawling || b.TaggingStatus == domain.TaggingPending {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func (s *Service) Lists(ctx context.Context) ([]domain.List, error) {
	return s.store.Lists(ctx)
}

func (s *Service) CreateList(ctx context.Context, name, icon string) (*domain.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("list name is empty")
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	l := domain.List{ID: id, Name: name, Icon: icon}
	if err := s.store.CreateList(ctx, l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Service) AddToList(ctx context.Context, listID, bookmarkID string) error {
	return s.store.AddToList(ctx, listID, bookmarkID)
}

func (s *Service) RemoveFromList(ctx context.Context, listID, bookmarkID string) error {
	return s.store.RemoveFromList(ctx, listID, bookmarkID)
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
