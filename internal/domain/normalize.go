package domain

import "time"

const (
	htmlPreviewLen = 10
	croppedMarker  = "... <CROPPED>"
)

// Normalized is the printable form of a bookmark: tag names instead of tag
// references and a cropped HTML body.
type Normalized struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	Title         *string         `json:"title"`
	Note          *string         `json:"note"`
	Archived      bool            `json:"archived"`
	Favourited    bool            `json:"favourited"`
	TaggingStatus TaggingStatus   `json:"taggingStatus"`
	Tags          []string        `json:"tags"`
	Content       normalizedValue `json:"content"`
}

type normalizedValue struct{ Content }

func (v normalizedValue) MarshalJSON() ([]byte, error) { return MarshalContent(v.Content) }

// Normalize builds the printable form of b without modifying it.
func Normalize(b *Bookmark) Normalized {
	tags := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		tags = append(tags, t.Name)
	}

	content := b.Content
	if link, ok := b.Link(); ok && link.HTMLContent != nil {
		cropped := link.clone().(*LinkContent)
		cropped.HTMLContent = String(CropHTML(*link.HTMLContent))
		content = cropped
	}

	return Normalized{
		ID:            b.ID,
		CreatedAt:     b.CreatedAt,
		Title:         b.Title,
		Note:          b.Note,
		Archived:      b.Archived,
		Favourited:    b.Favourited,
		TaggingStatus: b.TaggingStatus,
		Tags:          tags,
		Content:       normalizedValue{content},
	}
}

// CropHTML keeps the first ten characters of an HTML body.
func CropHTML(html string) string {
	runes := []rune(html)
	if len(runes) <= htmlPreviewLen {
		return html
	}
	return string(runes[:htmlPreviewLen]) + croppedMarker
}
