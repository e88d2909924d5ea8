package domain

import (
	"sort"
	"strings"
)

// AttachedBy tells who put a tag on a bookmark.
type AttachedBy string

const (
	AttachedByAI    AttachedBy = "ai"
	AttachedByHuman AttachedBy = "human"
)

// Tag is a label. Names are unique by convention only.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagRef is a tag as attached to a bookmark.
type TagRef struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	AttachedBy AttachedBy `json:"attachedBy"`
}

// TagSummary is a tag with the number of bookmarks carrying it.
type TagSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	NumBookmarks int    `json:"numBookmarks"`
}

// List is a user-curated collection of bookmarks.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// SortTagsByName orders tags alphabetically, ignoring case first so "apple"
// and "Banana" sort the way a person reads them.
func SortTagsByName(tags []TagSummary) {
	sort.SliceStable(tags, func(i, j int) bool {
		a, b := strings.ToLower(tags[i].Name), strings.ToLower(tags[j].Name)
		if a != b {
			return a < b
		}
		return tags[i].Name < tags[j].Name
	})
}

// CountTags aggregates the tags attached to bookmarks.
func CountTags(bookmarks []*Bookmark) []TagSummary {
	byID := make(map[string]*TagSummary)
	order := make([]string, 0)
	for _, b := range bookmarks {
		for _, t := range b.Tags {
			s, ok := byID[t.ID]
			if !ok {
				s = &TagSummary{ID: t.ID, Name: t.Name}
				byID[t.ID] = s
				order = append(order, t.ID)
			}
			s.NumBookmarks++
		}
	}

	out := make([]TagSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	SortTagsByName(out)
	return out
}
