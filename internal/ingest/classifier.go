package ingest

import (
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

// Kind is the outcome of classifying submitted text.
type Kind int

const (
	// KindNote imports the text as a single text bookmark.
	KindNote Kind = iota
	// KindLink imports the text as a single link bookmark.
	KindLink
	// KindMultiLink needs the user to decide between one text bookmark and
	// one link bookmark per line.
	KindMultiLink
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindLink:
		return "link"
	case KindMultiLink:
		return "multi-link"
	default:
		return "unknown"
	}
}

// Classification is the result of Classify. Text is always the trimmed input;
// URLs is only set for KindMultiLink.
type Classification struct {
	Kind Kind
	Text string
	URLs []*url.URL
}

// Classify decides how text should be imported. Every line must be an
// absolute http(s) URL with a host for the input to count as links; anything
// else makes the whole input a note. Malformed forms a browser would repair,
// such as "https:/example.com" or "http:foo", are notes. Classification never
// fails.
func Classify(text string) Classification {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	urls := make([]*url.URL, 0, len(lines))
	for _, line := range lines {
		u, ok := parseWebURL(line)
		if !ok {
			return Classification{Kind: KindNote, Text: text}
		}
		urls = append(urls, u)
	}

	if len(urls) == 1 {
		return Classification{Kind: KindLink, Text: text}
	}
	return Classification{Kind: KindMultiLink, Text: text, URLs: urls}
}

func parseWebURL(line string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(line))
	if err != nil {
		return nil, false
	}
	return u, domain.IsWebURL(u)
}
