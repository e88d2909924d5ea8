package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ContentType is the discriminator of the bookmark content union.
type ContentType string

const (
	ContentLink  ContentType = "link"
	ContentText  ContentType = "text"
	ContentAsset ContentType = "asset"
)

// CrawlStatus tracks the asynchronous fetch of a link.
type CrawlStatus string

const (
	CrawlPending CrawlStatus = "pending"
	CrawlSuccess CrawlStatus = "success"
	CrawlFailure CrawlStatus = "failure"
)

// AssetType is the kind of an uploaded asset.
type AssetType string

const (
	AssetImage AssetType = "image"
	AssetPDF   AssetType = "pdf"
)

// ErrUnknownContentType is returned when decoding content with a type outside
// the link/text/asset union.
var ErrUnknownContentType = errors.New("unknown content type")

// Content is the payload of a bookmark. The set of implementations is closed:
// LinkContent, TextContent and AssetContent.
type Content interface {
	Type() ContentType
	clone() Content
}

// LinkContent is a saved URL plus whatever the crawler learned about it.
type LinkContent struct {
	URL         string      `json:"url"`
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	ImageURL    *string     `json:"imageUrl,omitempty"`
	Favicon     *string     `json:"favicon,omitempty"`
	HTMLContent *string     `json:"htmlContent,omitempty"`
	CrawlStatus CrawlStatus `json:"crawlStatus"`
	CrawledAt   *time.Time  `json:"crawledAt,omitempty"`
}

// TextContent is a free text note.
type TextContent struct {
	Text string `json:"text"`
}

// AssetContent references an uploaded file.
type AssetContent struct {
	AssetType AssetType `json:"assetType"`
	AssetID   string    `json:"assetId"`
	FileName  *string   `json:"fileName,omitempty"`
}

func (*LinkContent) Type() ContentType  { return ContentLink }
func (*TextContent) Type() ContentType  { return ContentText }
func (*AssetContent) Type() ContentType { return ContentAsset }

func (c *LinkContent) clone() Content {
	out := *c
	out.Title = cloneString(c.Title)
	out.Description = cloneString(c.Description)
	out.ImageURL = cloneString(c.ImageURL)
	out.Favicon = cloneString(c.Favicon)
	out.HTMLContent = cloneString(c.HTMLContent)
	if c.CrawledAt != nil {
		t := *c.CrawledAt
		out.CrawledAt = &t
	}
	return &out
}

func (c *TextContent) clone() Content {
	out := *c
	return &out
}

func (c *AssetContent) clone() Content {
	out := *c
	out.FileName = cloneString(c.FileName)
	return &out
}

// MarshalContent encodes content with its "type" discriminator inlined.
func MarshalContent(c Content) ([]byte, error) {
	switch v := c.(type) {
	case *LinkContent:
		return json.Marshal(struct {
			Type ContentType `json:"type"`
			*LinkContent
		}{ContentLink, v})
	case *TextContent:
		return json.Marshal(struct {
			Type ContentType `json:"type"`
			*TextContent
		}{ContentText, v})
	case *AssetContent:
		return json.Marshal(struct {
			Type ContentType `json:"type"`
			*AssetContent
		}{ContentAsset, v})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownContentType, c)
	}
}

// UnmarshalContent decodes a discriminated content object.
func UnmarshalContent(data []byte) (Content, error) {
	var head struct {
		Type ContentType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	var c Content
	switch head.Type {
	case ContentLink:
		c = &LinkContent{}
	case ContentText:
		c = &TextContent{}
	case ContentAsset:
		c = &AssetContent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, head.Type)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", head.Type, err)
	}
	return c, nil
}
