package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxBookmarksPerPage is the largest page the bookmark service hands out.
// Clients request pages of this size when aggregating a full listing.
const MaxBookmarksPerPage = 100

// TaggingStatus tracks the asynchronous tag extraction of a bookmark.
type TaggingStatus string

const (
	TaggingPending TaggingStatus = "pending"
	TaggingSuccess TaggingStatus = "success"
	TaggingFailure TaggingStatus = "failure"
)

// Bookmark is a saved item: a link, a free text note or an uploaded asset.
// Clients only ever hold snapshots; the bookmark service owns the record.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the service-assigned identifier.
	ID string

	// CreatedAt is set once by the service.
	CreatedAt time.Time

	// Content is the typed payload. Its variant never changes after creation.
	Content Content

	// ─────────────────────────────
	// User-editable fields
	// ─────────────────────────────

	// Title overrides whatever title the crawler extracted.
	Title *string

	// Note is a free text annotation.
	Note *string

	Archived   bool
	Favourited bool

	// ─────────────────────────────
	// Derived by the service
	// ─────────────────────────────

	TaggingStatus TaggingStatus
	Tags          []TagRef
}

// Link narrows the content to the link variant.
func (b *Bookmark) Link() (*LinkContent, bool) {
	c, ok := b.Content.(*LinkContent)
	return c, ok
}

// Text narrows the content to the text variant.
func (b *Bookmark) Text() (*TextContent, bool) {
	c, ok := b.Content.(*TextContent)
	return c, ok
}

// Asset narrows the content to the asset variant.
func (b *Bookmark) Asset() (*AssetContent, bool) {
	c, ok := b.Content.(*AssetContent)
	return c, ok
}

// Clone returns a deep copy so callers can mutate without sharing state.
func (b *Bookmark) Clone() *Bookmark {
	if b == nil {
		return nil
	}
	out := *b
	out.Title = cloneString(b.Title)
	out.Note = cloneString(b.Note)
	out.Tags = append([]TagRef(nil), b.Tags...)
	if b.Content != nil {
		out.Content = b.Content.clone()
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

type bookmarkJSON struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	Title         *string         `json:"title"`
	Note          *string         `json:"note"`
	Archived      bool            `json:"archived"`
	Favourited    bool            `json:"favourited"`
	TaggingStatus TaggingStatus   `json:"taggingStatus"`
	Tags          []TagRef        `json:"tags"`
	Content       json.RawMessage `json:"content"`
}

func (b Bookmark) MarshalJSON() ([]byte, error) {
	if b.Content == nil {
		return nil, fmt.Errorf("bookmark %s has no content", b.ID)
	}
	content, err := MarshalContent(b.Content)
	if err != nil {
		return nil, err
	}
	tags := b.Tags
	if tags == nil {
		tags = []TagRef{}
	}
	return json.Marshal(bookmarkJSON{
		ID:            b.ID,
		CreatedAt:     b.CreatedAt,
		Title:         b.Title,
		Note:          b.Note,
		Archived:      b.Archived,
		Favourited:    b.Favourited,
		TaggingStatus: b.TaggingStatus,
		Tags:          tags,
		Content:       content,
	})
}

func (b *Bookmark) UnmarshalJSON(data []byte) error {
	var raw bookmarkJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := UnmarshalContent(raw.Content)
	if err != nil {
		return fmt.Errorf("bookmark %s: %w", raw.ID, err)
	}
	*b = Bookmark{
		ID:            raw.ID,
		CreatedAt:     raw.CreatedAt,
		Content:       content,
		Title:         raw.Title,
		Note:          raw.Note,
		Archived:      raw.Archived,
		Favourited:    raw.Favourited,
		TaggingStatus: raw.TaggingStatus,
		Tags:          raw.Tags,
	}
	return nil
}

// CreatedBookmark is the answer to a create call. AlreadyExists reports that
// the service returned a bookmark it already had instead of creating one.
type CreatedBookmark struct {
	Bookmark
	AlreadyExists bool
}

func (c CreatedBookmark) MarshalJSON() ([]byte, error) {
	data, err := c.Bookmark.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["alreadyExists"], _ = json.Marshal(c.AlreadyExists)
	return json.Marshal(fields)
}

func (c *CreatedBookmark) UnmarshalJSON(data []byte) error {
	if err := c.Bookmark.UnmarshalJSON(data); err != nil {
		return err
	}
	var flag struct {
		AlreadyExists bool `json:"alreadyExists"`
	}
	if err := json.Unmarshal(data, &flag); err != nil {
		return err
	}
	c.AlreadyExists = flag.AlreadyExists
	return nil
}

// Page is one slice of a cursor-paged listing. An empty NextCursor marks the
// last page.
type Page struct {
	Items      []Bookmark `json:"bookmarks"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ListQuery filters a listing. Nil pointers mean "no filter".
type ListQuery struct {
	Archived   *bool
	Favourited *bool
	ListID     string
	Limit      int
	Cursor     string
}

// UpdateRequest carries a partial update. Nil fields are left untouched.
type UpdateRequest struct {
	BookmarkID string  `json:"-"`
	Archived   *bool   `json:"archived,omitempty"`
	Favourited *bool   `json:"favourited,omitempty"`
	Title      *string `json:"title,omitempty"`
	Note       *string `json:"note,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u UpdateRequest) Empty() bool {
	return u.Archived == nil && u.Favourited == nil && u.Title == nil && u.Note == nil
}

// Apply copies the set fields of the update onto b.
func (u UpdateRequest) Apply(b *Bookmark) {
	if u.Archived != nil {
		b.Archived = *u.Archived
	}
	if u.Favourited != nil {
		b.Favourited = *u.Favourited
	}
	if u.Title != nil {
		b.Title = cloneString(u.Title)
	}
	if u.Note != nil {
		b.Note = cloneString(u.Note)
	}
}

// Bool returns a pointer to v, for optional request fields.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for optional request fields.
func String(v string) *string { return &v }
