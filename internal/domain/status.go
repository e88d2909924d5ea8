package domain

import "time"

// MaxLoadingWindow bounds how long a bookmark counts as still processing.
// Past it the client stops waiting even if the service never reports back.
const MaxLoadingWindow = 30 * time.Second

func withinLoadingWindow(b *Bookmark, now time.Time) bool {
	return now.Sub(b.CreatedAt) < MaxLoadingWindow
}

// IsStillCrawling reports whether a link bookmark is still waiting for its
// page (and preview image) to be fetched. Non-link bookmarks never crawl.
func IsStillCrawling(b *Bookmark, now time.Time) bool {
	if b == nil {
		return false
	}
	link, ok := b.Link()
	if !ok {
		return false
	}
	return link.CrawlStatus == CrawlPending && withinLoadingWindow(b, now)
}

// IsStillTagging reports whether tag extraction has not finished yet.
func IsStillTagging(b *Bookmark, now time.Time) bool {
	if b == nil {
		return false
	}
	return b.TaggingStatus == TaggingPending && withinLoadingWindow(b, now)
}

// IsStillLoading reports whether any derived field (crawl outcome, tags) is
// still missing. It can stay true after IsStillCrawling turned false.
func IsStillLoading(b *Bookmark, now time.Time) bool {
	return IsStillTagging(b, now) || IsStillCrawling(b, now)
}

// ImageKind says what a link preview should display.
type ImageKind int

const (
	// ImageBlank means the crawl finished without finding an image.
	ImageBlank ImageKind = iota
	// ImagePlaceholder means the crawl is still running.
	ImagePlaceholder
	// ImageResolved means URL holds the preview image.
	ImageResolved
)

// Image is the preview decision for a bookmark.
type Image struct {
	Kind ImageKind
	URL  string
}

// PreviewImage picks the preview image of a link bookmark.
func PreviewImage(b *Bookmark, now time.Time) Image {
	if IsStillCrawling(b, now) {
		return Image{Kind: ImagePlaceholder}
	}
	if link, ok := b.Link(); ok && link.ImageURL != nil && *link.ImageURL != "" {
		return Image{Kind: ImageResolved, URL: *link.ImageURL}
	}
	return Image{Kind: ImageBlank}
}
