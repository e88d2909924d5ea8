package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Page is what the crawler learned about a link.
type Page struct {
	Title       string
	Description string
	ImageURL    string
	Favicon     string
	HTML        string
	Keywords    []string
}

// Fetcher downloads pages and extracts their metadata.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

func NewFetcher(timeout time.Duration, maxBytes int64, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch gets rawURL and extracts the readable article plus OpenGraph and
// keyword metadata. Non-HTML responses yield an empty Page.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	if !isHTML(resp.Header.Get("Content-Type")) {
		return &Page{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}

	// resp.Request.URL is the final URL after redirects
	return Extract(body, resp.Request.URL)
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// Extract parses an HTML document. Readability provides the article, the
// meta tags fill whatever it could not find.
func Extract(body []byte, pageURL *url.URL) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := &Page{
		Title:       firstNonEmpty(meta(doc, "og:title"), strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstNonEmpty(meta(doc, "og:description"), meta(doc, "description")),
		ImageURL:    meta(doc, "og:image"),
		Keywords:    splitKeywords(meta(doc, "keywords")),
	}
	if href, ok := doc.Find(`link[rel~="icon"]`).First().Attr("href"); ok {
		page.Favicon = strings.TrimSpace(href)
	}

	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		page.Title = firstNonEmpty(article.Title, page.Title)
		page.Description = firstNonEmpty(article.Excerpt, page.Description)
		page.ImageURL = firstNonEmpty(article.Image, page.ImageURL)
		page.Favicon = firstNonEmpty(article.Favicon, page.Favicon)
		page.HTML = article.Content
	}

	page.ImageURL = resolve(pageURL, page.ImageURL)
	page.Favicon = resolve(pageURL, page.Favicon)
	return page, nil
}

// meta reads <meta property=name> or <meta name=name>.
func meta(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0)
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
