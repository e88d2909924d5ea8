package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/store"
)

// Store keeps everything in maps. It backs tests and single-process
// deployments; nothing survives a restart.
type Store struct {
	mu        sync.RWMutex
	bookmarks map[string]*domain.Bookmark // ID -> Bookmark
	byURL     map[string]string           // canonical URL -> ID
	lists     map[string]domain.List      // ID -> List
	members   map[string]map[string]bool  // list ID -> bookmark IDs
	listOrder map[string]time.Time        // list ID -> creation time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		bookmarks: make(map[string]*domain.Bookmark),
		byURL:     make(map[string]string),
		lists:     make(map[string]domain.List),
		members:   make(map[string]map[string]bool),
		listOrder: make(map[string]time.Time),
	}
}

func (s *Store) InsertBookmark(_ context.Context, b *domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookmarks[b.ID]; ok {
		return fmt.Errorf("bookmark %s already stored", b.ID)
	}
	key := store.URLKey(b)
	if key != "" {
		if _, taken := s.byURL[key]; taken {
			return store.ErrDuplicateURL
		}
		s.byURL[key] = b.ID
	}
	s.bookmarks[b.ID] = b.Clone()
	return nil
}

func (s *Store) SaveBookmark(_ context.Context, b *domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookmarks[b.ID]; !ok {
		return store.ErrNotFound
	}
	s.bookmarks[b.ID] = b.Clone()
	return nil
}

func (s *Store) GetBookmark(_ context.Context, id string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b.Clone(), nil
}

func (s *Store) FindByURL(_ context.Context, canonicalURL string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byURL[canonicalURL]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.bookmarks[id].Clone(), nil
}

func (s *Store) DeleteBookmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookmarks[id]
	if !ok {
		return store.ErrNotFound
	}
	if key := store.URLKey(b); key != "" {
		delete(s.byURL, key)
	}
	for _, m := range s.members {
		delete(m, id)
	}
	delete(s.bookmarks, id)
	return nil
}

func (s *Store) ListBookmarks(_ context.Context, q store.Query) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members map[string]bool
	if q.ListID != "" {
		m, ok := s.members[q.ListID]
		if !ok {
			return nil, store.ErrNotFound
		}
		members = m
	}

	ids := s.sortedIDs()
	out := make([]*domain.Bookmark, 0, q.Limit)
	for _, id := range ids {
		if q.Before != "" && id >= q.Before {
			continue
		}
		if members != nil && !members[id] {
			continue
		}
		b := s.bookmarks[id]
		if !q.Match(b) {
			continue
		}
		out = append(out, b.Clone())
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) AllBookmarks(_ context.Context) ([]*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs()
	out := make([]*domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.bookmarks[id].Clone())
	}
	return out, nil
}

// sortedIDs returns bookmark ids newest first. Caller holds the lock.
func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.bookmarks))
	for id := range s.bookmarks {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids
}

// ─────────────────────────────────────────────────────────────────
// Lists
// ─────────────────────────────────────────────────────────────────

func (s *Store) CreateList(_ context.Context, l domain.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[l.ID]; ok {
		return fmt.Errorf("list %s already stored", l.ID)
	}
	s.lists[l.ID] = l
	s.members[l.ID] = make(map[string]bool)
	s.listOrder[l.ID] = time.Now()
	return nil
}

func (s *Store) Lists(_ context.Context) ([]domain.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.List, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := s.listOrder[out[i].ID], s.listOrder[out[j].ID]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) AddToList(_ context.Context, listID, bookmarkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[listID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := s.bookmarks[bookmarkID]; !ok {
		return store.ErrNotFound
	}
	m[bookmarkID] = true
	return nil
}

func (s *Store) RemoveFromList(_ context.Context, listID, bookmarkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[listID]
	if !ok {
		return store.ErrNotFound
	}
	delete(m, bookmarkID)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Count returns the number of stored bookmarks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bookmarks)
}
