package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/store"
)

// bookmarkRecord keeps the bookmark as JSON next to the columns queries
// filter on.
type bookmarkRecord struct {
	ID           string  `gorm:"primaryKey"`
	CanonicalURL *string `gorm:"uniqueIndex"`
	Archived     bool    `gorm:"index"`
	Favourited   bool    `gorm:"index"`
	Data         []byte  `gorm:"not null"`
	CreatedAt    time.Time
}

func (bookmarkRecord) TableName() string { return "bookmarks" }

type listRecord struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Icon      string
	CreatedAt time.Time
}

func (listRecord) TableName() string { return "lists" }

type membershipRecord struct {
	ListID     string `gorm:"primaryKey"`
	BookmarkID string `gorm:"primaryKey;index"`
}

func (membershipRecord) TableName() string { return "list_bookmarks" }

// Store is the relational backend.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the sqlite database at dsn (":memory:" works) and migrates
// the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// one writer at a time, and every :memory: connection would be its own database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&bookmarkRecord{}, &listRecord{}, &membershipRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func toRecord(b *domain.Bookmark) (*bookmarkRecord, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bookmark: %w", err)
	}
	rec := &bookmarkRecord{
		ID:         b.ID,
		Archived:   b.Archived,
		Favourited: b.Favourited,
		Data:       data,
		CreatedAt:  b.CreatedAt,
	}
	if key := store.URLKey(b); key != "" {
		rec.CanonicalURL = &key
	}
	return rec, nil
}

func fromRecord(rec *bookmarkRecord) (*domain.Bookmark, error) {
	var b domain.Bookmark
	if err := json.Unmarshal(rec.Data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark %s: %w", rec.ID, err)
	}
	return &b, nil
}

func fromRecords(recs []bookmarkRecord) ([]*domain.Bookmark, error) {
	out := make([]*domain.Bookmark, 0, len(recs))
	for i := range recs {
		b, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) InsertBookmark(ctx context.Context, b *domain.Bookmark) error {
	rec, err := toRecord(b)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if rec.CanonicalURL != nil && s.urlTaken(ctx, *rec.CanonicalURL) {
			return store.ErrDuplicateURL
		}
		return fmt.Errorf("bookmark %s already stored", b.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return nil
}

func (s *Store) urlTaken(ctx context.Context, canonicalURL string) bool {
	var n int64
	s.db.WithContext(ctx).Model(&bookmarkRecord{}).Where("canonical_url = ?", canonicalURL).Count(&n)
	return n > 0
}

func (s *Store) SaveBookmark(ctx context.Context, b *domain.Bookmark) error {
	rec, err := toRecord(b)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&bookmarkRecord{}).Where("id = ?", b.ID).Updates(map[string]any{
		"archived":   rec.Archived,
		"favourited": rec.Favourited,
		"data":       rec.Data,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save bookmark: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Store) FindByURL(ctx context.Context, canonicalURL string) (*domain.Bookmark, error) {
	return s.first(ctx, "canonical_url = ?", canonicalURL)
}

func (s *Store) first(ctx context.Context, cond string, arg any) (*domain.Bookmark, error) {
	var rec bookmarkRecord
	err := s.db.WithContext(ctx).Where(cond, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return fromRecord(&rec)
}

func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&bookmarkRecord{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete bookmark: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		if err := tx.Where("bookmark_id = ?", id).Delete(&membershipRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete list memberships: %w", err)
		}
		return nil
	})
}

func (s *Store) ListBookmarks(ctx context.Context, q store.Query) ([]*domain.Bookmark, error) {
	db := s.db.WithContext(ctx).Model(&bookmarkRecord{})

	if q.ListID != "" {
		if err := s.db.WithContext(ctx).Where("id = ?", q.ListID).First(&listRecord{}).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, store.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get list: %w", err)
		}
		db = db.Where("id IN (?)", s.db.Model(&membershipRecord{}).Select("bookmark_id").Where("list_id = ?", q.ListID))
	}
	if q.Archived != nil {
		db = db.Where("archived = ?", *q.Archived)
	}
	if q.Favourited != nil {
		db = db.Where("favourited = ?", *q.Favourited)
	}
	if q.Before != "" {
		db = db.Where("id < ?", q.Before)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var recs []bookmarkRecord
	if err := db.Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return fromRecords(recs)
}

func (s *Store) AllBookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	var recs []bookmarkRecord
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return fromRecords(recs)
}

// ─────────────────────────────────────────────────────────────────
// Lists
// ─────────────────────────────────────────────────────────────────

func (s *Store) CreateList(ctx context.Context, l domain.List) error {
	rec := listRecord{ID: l.ID, Name: l.Name, Icon: l.Icon}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

func (s *Store) Lists(ctx context.Context) ([]domain.List, error) {
	var recs []listRecord
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}
	out := make([]domain.List, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.List{ID: rec.ID, Name: rec.Name, Icon: rec.Icon})
	}
	return out, nil
}

func (s *Store) AddToList(ctx context.Context, listID, bookmarkID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &listRecord{}, listID); err != nil {
			return err
		}
		if err := exists(tx, &bookmarkRecord{}, bookmarkID); err != nil {
			return err
		}
		err := tx.Create(&membershipRecord{ListID: listID, BookmarkID: bookmarkID}).Error
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to add bookmark to list: %w", err)
		}
		return nil
	})
}

func (s *Store) RemoveFromList(ctx context.Context, listID, bookmarkID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &listRecord{}, listID); err != nil {
			return err
		}
		err := tx.Where("list_id = ? AND bookmark_id = ?", listID, bookmarkID).Delete(&membershipRecord{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove bookmark from list: %w", err)
		}
		return nil
	})
}

func exists(tx *gorm.DB, model any, id string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
