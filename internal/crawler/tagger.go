package crawler

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

// MaxTags caps how many tags are attached automatically.
const MaxTags = 10

var hashtagPattern = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_-]+)`)

// Hashtags returns the #words of text in order of appearance.
func Hashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Tags turns names into AI-attached tag refs. Ids are slugs, so "Go" and
// "go" collapse into one tag and the first spelling wins.
func Tags(names []string) []domain.TagRef {
	seen := make(map[string]bool, len(names))
	out := make([]domain.TagRef, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		id := slug.Make(name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, domain.TagRef{ID: id, Name: name, AttachedBy: domain.AttachedByAI})
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// mergeTags keeps the human tags of b and replaces the AI ones.
func mergeTags(current, generated []domain.TagRef) []domain.TagRef {
	out := make([]domain.TagRef, 0, len(current)+len(generated))
	seen := make(map[string]bool)
	for _, t := range current {
		if t.AttachedBy == domain.AttachedByHuman {
			out = append(out, t)
			seen[t.ID] = true
		}
	}
	for _, t := range generated {
		if !seen[t.ID] {
			out = append(out, t)
		}
	}
	return out
}
