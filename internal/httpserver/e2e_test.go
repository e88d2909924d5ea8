package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/client"
	"github.com/MrSnakeDoc/hoarder/internal/crawler"
	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/ingest"
	"github.com/MrSnakeDoc/hoarder/internal/listing"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/poller"
)

const pageHTML = `<html><head>
<title>Saved page</title>
<meta name="keywords" content="reading, later">
</head><body><p>hello</p></body></html>`

type answer ingest.Choice

func (a answer) ConfirmMultiURL(context.Context, ingest.MultiURLImport) (ingest.Choice, error) {
	return ingest.Choice(a), nil
}

func TestClientAgainstServer(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, pageHTML)
	}))
	defer site.Close()

	ts, svc := newTestServer(t)
	c := crawler.New(svc, crawler.NewFetcher(2*time.Second, 1<<20, "test"), logger.Nop(),
		crawler.Options{Workers: 2, QueueSize: 16, Sweep: time.Hour})
	svc.SetQueue(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	api, err := client.New(ts.URL, testKey)
	if err != nil {
		t.Fatal(err)
	}

	// multi-url input saved as separate links, one of them twice
	wf := ingest.New(api, answer(ingest.ChoiceAsSeparate))
	if err := wf.SetInput(site.URL + "/a\n" + site.URL + "/b\n" + site.URL + "/a"); err != nil {
		t.Fatal(err)
	}
	report, err := wf.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(report.Results) != 3 || report.Failed() != 0 {
		t.Fatalf("report = %+v", report)
	}
	if wf.Input() != "" || wf.State() != ingest.StateSuccess {
		t.Errorf("workflow after success: input %q state %s", wf.Input(), wf.State())
	}

	first := report.Results[0].Bookmark
	loaded, err := poller.Wait(ctx, api, &first.Bookmark, poller.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	link, ok := loaded.Link()
	if !ok || link.CrawlStatus != domain.CrawlSuccess || link.Title == nil || *link.Title != "Saved page" {
		t.Fatalf("loaded = %+v", loaded.Content)
	}
	if loaded.TaggingStatus != domain.TaggingSuccess || len(loaded.Tags) != 2 {
		t.Errorf("tags = %+v (%s)", loaded.Tags, loaded.TaggingStatus)
	}

	all, err := listing.All(ctx, api, listing.Filter{})
	if err != nil {
		t.Fatalf("listing.All() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("listing holds %d bookmarks, want 2 distinct links", len(all))
	}

	if _, err := api.UpdateBookmark(ctx, domain.UpdateRequest{BookmarkID: first.ID, Archived: domain.Bool(true)}); err != nil {
		t.Fatal(err)
	}
	if active, _ := listing.All(ctx, api, listing.Filter{}); len(active) != 1 {
		t.Errorf("active listing = %d bookmarks, want 1", len(active))
	}
	if everything, _ := listing.All(ctx, api, listing.Filter{IncludeArchived: true}); len(everything) != 2 {
		t.Errorf("listing with archived = %d bookmarks, want 2", len(everything))
	}

	tags, err := api.ListTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) == 0 {
		t.Error("ListTags() returned nothing after tagging")
	}

	list, err := api.CreateList(ctx, "Later", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := api.AddToList(ctx, list.ID, first.ID); err != nil {
		t.Fatal(err)
	}
	members, _ := listing.All(ctx, api, listing.Filter{ListID: list.ID, IncludeArchived: true})
	if len(members) != 1 || members[0].ID != first.ID {
		t.Errorf("list members = %d", len(members))
	}

	if err := api.DeleteBookmark(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	_, err = api.GetBookmark(ctx, first.ID)
	if !client.IsNotFound(err) {
		t.Errorf("GetBookmark(deleted) error = %v, want not found", err)
	}

	bad, _ := client.New(ts.URL, "wrong")
	_, err = bad.ListTags(ctx)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("ListTags() with a wrong key error = %v, want 401", err)
	}
}
