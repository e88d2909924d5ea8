package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/store"
)

// InsertBookmark stores a new bookmark. The canonical URL is claimed first
// with HSETNX so two concurrent inserts of the same link cannot both win.
func (s *Store) InsertBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	data, err := json.Marshal(bookmark)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	urlKey := store.URLKey(bookmark)
	if urlKey != "" {
		claimed, err := s.client.HSetNX(ctx, KeyBookmarkURLs, urlKey, bookmark.ID).Result()
		if err != nil {
			return fmt.Errorf("failed to claim bookmark url: %w", err)
		}
		if !claimed {
			return store.ErrDuplicateURL
		}
	}

	stored, err := s.client.SetNX(ctx, BookmarkKey(bookmark.ID), data, 0).Result()
	if err != nil || !stored {
		if urlKey != "" {
			s.client.HDel(ctx, KeyBookmarkURLs, urlKey)
		}
		if err != nil {
			return fmt.Errorf("failed to save bookmark: %w", err)
		}
		return fmt.Errorf("bookmark %s already stored", bookmark.ID)
	}

	// Add to index of all bookmarks
	if err := s.client.ZAdd(ctx, KeyAllBookmarks, redis.Z{Score: 0, Member: bookmark.ID}).Err(); err != nil {
		return fmt.Errorf("failed to add bookmark to index: %w", err)
	}
	return nil
}

// SaveBookmark overwrites an existing bookmark
func (s *Store) SaveBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	data, err := json.Marshal(bookmark)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	ok, err := s.client.SetXX(ctx, BookmarkKey(bookmark.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

// GetBookmark retrieves a bookmark from Redis by ID
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if isNil(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return decodeBookmark(data)
}

// FindByURL looks a link bookmark up by its canonical URL
func (s *Store) FindByURL(ctx context.Context, canonicalURL string) (*domain.Bookmark, error) {
	id, err := s.client.HGet(ctx, KeyBookmarkURLs, canonicalURL).Result()
	if err != nil {
		if isNil(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up bookmark url: %w", err)
	}
	return s.GetBookmark(ctx, id)
}

// DeleteBookmark removes a bookmark and every reference to it
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	bookmark, err := s.GetBookmark(ctx, id)
	if err != nil {
		return err
	}
	listIDs, err := s.client.ZRange(ctx, KeyAllLists, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to get list IDs: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, BookmarkKey(id))
	pipe.ZRem(ctx, KeyAllBookmarks, id)
	if urlKey := store.URLKey(bookmark); urlKey != "" {
		pipe.HDel(ctx, KeyBookmarkURLs, urlKey)
	}
	for _, listID := range listIDs {
		pipe.SRem(ctx, ListMembersKey(listID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// ListBookmarks walks the id index newest first, skipping bookmarks that do
// not match q, until q.Limit bookmarks are collected.
func (s *Store) ListBookmarks(ctx context.Context, q store.Query) ([]*domain.Bookmark, error) {
	var members map[string]bool
	if q.ListID != "" {
		if err := s.mustExist(ctx, ListKey(q.ListID)); err != nil {
			return nil, err
		}
		ids, err := s.client.SMembers(ctx, ListMembersKey(q.ListID)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get list members: %w", err)
		}
		members = make(map[string]bool, len(ids))
		for _, id := range ids {
			members[id] = true
		}
	}

	out := make([]*domain.Bookmark, 0, q.Limit)
	upper := "+"
	if q.Before != "" {
		upper = "(" + q.Before
	}

	for {
		ids, err := s.client.ZRevRangeByLex(ctx, KeyAllBookmarks, &redis.ZRangeBy{
			Max:   upper,
			Min:   "-",
			Count: scanBatch,
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark index: %w", err)
		}
		if len(ids) == 0 {
			return out, nil
		}
		upper = "(" + ids[len(ids)-1]

		if members != nil {
			ids = keep(ids, members)
		}
		batch, err := s.getMany(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, b := range batch {
			if !q.Match(b) {
				continue
			}
			out = append(out, b)
			if q.Limit > 0 && len(out) == q.Limit {
				return out, nil
			}
		}
	}
}

// AllBookmarks retrieves all bookmarks, newest first
func (s *Store) AllBookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	ids, err := s.client.ZRevRange(ctx, KeyAllBookmarks, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(ids))
	for start := 0; start < len(ids); start += scanBatch {
		end := min(start+scanBatch, len(ids))
		batch, err := s.getMany(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, batch...)
	}
	return bookmarks, nil
}

func (s *Store) getMany(ctx context.Context, ids []string) ([]*domain.Bookmark, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Skip bookmarks deleted since the index was read
			continue
		}
		b, err := decodeBookmark([]byte(raw))
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}

func decodeBookmark(data []byte) (*domain.Bookmark, error) {
	var bookmark domain.Bookmark
	if err := json.Unmarshal(data, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}
	return &bookmark, nil
}

func keep(ids []string, members map[string]bool) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if members[id] {
			out = append(out, id)
		}
	}
	return out
}
