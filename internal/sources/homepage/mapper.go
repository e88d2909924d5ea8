package homepage

import (
	"errors"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

var ErrNoLinks = errors.New("no importable links found")

// Skipped is an entry left out of an import.
type Skipped struct {
	Entry  Entry
	Reason string
}

// LinkRequests turns entries into link create requests. Entries without an
// absolute http(s) href, and repeats of a canonical URL already seen, are
// reported as skipped.
func LinkRequests(entries []Entry) ([]domain.CreateRequest, []Skipped, error) {
	reqs := make([]domain.CreateRequest, 0, len(entries))
	var skipped []Skipped
	seen := make(map[string]bool)

	for _, e := range entries {
		href := strings.TrimSpace(e.Href)
		u, err := url.Parse(href)
		if href == "" || err != nil || !domain.IsWebURL(u) {
			skipped = append(skipped, Skipped{Entry: e, Reason: "not an http(s) url"})
			continue
		}
		key, err := domain.CanonicalURL(href)
		if err != nil {
			skipped = append(skipped, Skipped{Entry: e, Reason: err.Error()})
			continue
		}
		if seen[key] {
			skipped = append(skipped, Skipped{Entry: e, Reason: "duplicate url"})
			continue
		}
		seen[key] = true
		reqs = append(reqs, domain.NewLinkRequest(href))
	}

	if len(reqs) == 0 {
		return nil, skipped, ErrNoLinks
	}
	return reqs, skipped, nil
}
