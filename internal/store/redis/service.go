package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/store"
)

// scanBatch is how many ids a filtered listing pulls per round trip.
const scanBatch = 100

// Store handles Redis operations for bookmarks and lists
type Store struct {
	client *redis.Client
}

var _ store.Store = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────────────────────────────
// Lists
// ─────────────────────────────────────────────────────────────────

// CreateList stores a list and its position in the list index
func (s *Store) CreateList(ctx context.Context, l domain.List) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal list: %w", err)
	}

	ok, err := s.client.SetNX(ctx, ListKey(l.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save list: %w", err)
	}
	if !ok {
		return fmt.Errorf("list %s already stored", l.ID)
	}

	member := redis.Z{Score: float64(time.Now().UnixMilli()), Member: l.ID}
	if err := s.client.ZAdd(ctx, KeyAllLists, member).Err(); err != nil {
		return fmt.Errorf("failed to add list to index: %w", err)
	}
	return nil
}

// Lists returns every list in creation order
func (s *Store) Lists(ctx context.Context) ([]domain.List, error) {
	ids, err := s.client.ZRange(ctx, KeyAllLists, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get list IDs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.List{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ListKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}

	lists := make([]domain.List, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Skip lists that disappeared between the two calls
			continue
		}
		var l domain.List
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("failed to unmarshal list: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, nil
}

// AddToList puts a bookmark in a list. Adding twice is a no-op.
func (s *Store) AddToList(ctx context.Context, listID, bookmarkID string) error {
	if err := s.mustExist(ctx, ListKey(listID)); err != nil {
		return err
	}
	if err := s.mustExist(ctx, BookmarkKey(bookmarkID)); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, ListMembersKey(listID), bookmarkID).Err(); err != nil {
		return fmt.Errorf("failed to add bookmark to list: %w", err)
	}
	return nil
}

// RemoveFromList takes a bookmark out of a list
func (s *Store) RemoveFromList(ctx context.Context, listID, bookmarkID string) error {
	if err := s.mustExist(ctx, ListKey(listID)); err != nil {
		return err
	}
	if err := s.client.SRem(ctx, ListMembersKey(listID), bookmarkID).Err(); err != nil {
		return fmt.Errorf("failed to remove bookmark from list: %w", err)
	}
	return nil
}

func (s *Store) mustExist(ctx context.Context, key string) error {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", key, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
