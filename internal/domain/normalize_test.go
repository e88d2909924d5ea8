package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCropHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "<p>hi</p>", want: "<p>hi</p>"},
		{input: "0123456789", want: "0123456789"},
		{input: "<html><body>long</body></html>", want: "<html><bod... <CROPPED>"},
	}

	for _, tt := range tests {
		if got := CropHTML(tt.input); got != tt.want {
			t.Errorf("CropHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	html := "<article>a very long body</article>"
	b := &Bookmark{
		ID: "b1",
		Content: &LinkContent{
			URL:         "https://example.com",
			HTMLContent: &html,
			CrawlStatus: CrawlSuccess,
		},
		Tags: []TagRef{{ID: "t1", Name: "reading"}, {ID: "t2", Name: "go"}},
	}

	n := Normalize(b)

	if strings.Join(n.Tags, ",") != "reading,go" {
		t.Errorf("Normalize() tags = %v, want [reading go]", n.Tags)
	}
	if *b.Content.(*LinkContent).HTMLContent != html {
		t.Error("Normalize() modified the source bookmark")
	}

	link, ok := n.Content.Content.(*LinkContent)
	if !ok {
		t.Fatalf("Normalize() content = %T, want link", n.Content.Content)
	}
	if got := *link.HTMLContent; got != "<article>a... <CROPPED>" {
		t.Errorf("Normalize() htmlContent = %q", got)
	}

	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"type":"link"`) {
		t.Errorf("Marshal() = %s, want link discriminator", data)
	}
}

func TestNormalizeTextHasEmptyTagList(t *testing.T) {
	n := Normalize(&Bookmark{ID: "n1", Content: &TextContent{Text: "x"}})
	if n.Tags == nil || len(n.Tags) != 0 {
		t.Errorf("Normalize() tags = %#v, want empty list", n.Tags)
	}
}
