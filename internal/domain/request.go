package domain

import (
	"encoding/json"
	"fmt"
)

// CreateRequest asks the service for a new link or text bookmark.
// Build it with NewLinkRequest or NewTextRequest.
type CreateRequest struct {
	Type ContentType
	URL  string
	Text string
}

func NewLinkRequest(url string) CreateRequest {
	return CreateRequest{Type: ContentLink, URL: url}
}

func NewTextRequest(text string) CreateRequest {
	return CreateRequest{Type: ContentText, Text: text}
}

func (r CreateRequest) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case ContentLink:
		return json.Marshal(struct {
			Type ContentType `json:"type"`
			URL  string      `json:"url"`
		}{r.Type, r.URL})
	case ContentText:
		return json.Marshal(struct {
			Type ContentType `json:"type"`
			Text string      `json:"text"`
		}{r.Type, r.Text})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, r.Type)
	}
}

func (r *CreateRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type ContentType `json:"type"`
		URL  string      `json:"url"`
		Text string      `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ContentLink:
		*r = NewLinkRequest(raw.URL)
	case ContentText:
		*r = NewTextRequest(raw.Text)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownContentType, raw.Type)
	}
	return nil
}

// String is used in logs and CLI error lines.
func (r CreateRequest) String() string {
	if r.Type == ContentLink {
		return "link " + r.URL
	}
	return "note"
}
