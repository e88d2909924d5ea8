package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/MrSnakeDoc/hoarder/internal/config"
	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/service"
	"github.com/MrSnakeDoc/hoarder/internal/store/memory"
)

const testKey = "cli-key"

type printed struct {
	ID       string   `json:"id"`
	Title    *string  `json:"title"`
	Tags     []string `json:"tags"`
	Archived bool     `json:"archived"`
	Content  struct {
		Type string `json:"type"`
		URL  string `json:"url"`
		Text string `json:"text"`
	} `json:"content"`
}

type harness struct {
	t   *testing.T
	url string
	svc *service.Service
}

func newHarness(t *testing.T, opts ...func(*deps.Deps)) *harness {
	t.Helper()
	color.NoColor = true
	t.Setenv(config.XdgConfigHome, t.TempDir())
	t.Setenv("HOARDER_API_KEY", "")
	t.Setenv("HOARDER_SERVER_ADDR", "")

	svc := service.New(memory.New(), logger.Nop())
	d := deps.Deps{
		Logger:             logger.Nop(),
		Service:            svc,
		StartTime:          time.Now(),
		TimeNow:            time.Now,
		APIKeys:            []string{testKey},
		CreateBurst:        100,
		CreateRefillPerMin: 100,
	}
	for _, opt := range opts {
		opt(&d)
	}
	cfg := &config.Config{ListenPort: ":0", RequestTimeout: 5 * time.Second}
	ts := httptest.NewServer(httpserver.New(cfg, logger.Nop(), d).Handler())
	t.Cleanup(ts.Close)
	return &harness{t: t, url: ts.URL, svc: svc}
}

// run executes the CLI with the server flags prepended.
func (h *harness) run(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--server-addr", h.url, "--api-key", testKey}, args...)
	code := Execute(context.Background(), full, Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	return code, out.String(), errOut.String()
}

func decodeAll(t *testing.T, s string) []printed {
	t.Helper()
	var all []printed
	dec := json.NewDecoder(strings.NewReader(s))
	for {
		var p printed
		err := dec.Decode(&p)
		if err == io.EOF {
			return all
		}
		if err != nil {
			t.Fatalf("decode output %q: %v", s, err)
		}
		all = append(all, p)
	}
}

func TestAddPrintsEveryBookmark(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("", "bookmarks", "add", "--link", "https://example.com/a", "--note", "remember the milk")
	if code != 0 {
		t.Fatalf("exit code = %d, output %q", code, out)
	}
	got := decodeAll(t, out)
	if len(got) != 2 {
		t.Fatalf("printed %d bookmarks, want 2", len(got))
	}
	if got[0].Content.Type != "link" || got[0].Content.URL != "https://example.com/a" {
		t.Errorf("first = %+v", got[0].Content)
	}
	if got[1].Content.Type != "text" || got[1].Content.Text != "remember the milk" {
		t.Errorf("second = %+v", got[1].Content)
	}
}

func TestAddReportsFailuresAndKeepsGoing(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("", "bookmarks", "add", "--link", "ftp://example.com/file", "--link", "https://example.com/ok")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(out, "Error: ") {
		t.Errorf("output %q does not start with the failure", out)
	}
	if !strings.Contains(out, "https://example.com/ok") {
		t.Errorf("output %q misses the successful create", out)
	}
	if strings.Count(out, "Error: ") != 1 {
		t.Errorf("output %q has a duplicated error", out)
	}
}

func TestAddFromStdin(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("line one\n\n", "bookmarks", "add", "--stdin")
	if code != 0 {
		t.Fatalf("exit code = %d, output %q", code, out)
	}
	got := decodeAll(t, out)
	if len(got) != 1 || got[0].Content.Text != "line one\n\n" {
		t.Errorf("got %+v, want the note stored as piped", got)
	}
}

func TestAddFromBlankStdinReachesService(t *testing.T) {
	h := newHarness(t)

	code, out, _ := h.run("   \n", "bookmarks", "add", "--stdin")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "400") || !strings.Contains(out, "text is empty") {
		t.Errorf("output %q does not carry the service's rejection", out)
	}
	if strings.Contains(out, "nothing to add") {
		t.Errorf("output %q rejected the input locally", out)
	}
}

func TestAddNeedsSomething(t *testing.T) {
	h := newHarness(t)
	if code, out, _ := h.run("", "bookmarks", "add"); code != 1 || !strings.Contains(out, "nothing to add") {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestMissingAPIKey(t *testing.T) {
	h := newHarness(t)
	var out bytes.Buffer
	code := Execute(context.Background(),
		[]string{"--server-addr", h.url, "tags", "list"},
		Streams{In: strings.NewReader(""), Out: &out, Err: io.Discard})
	if code != 1 || !strings.Contains(out.String(), "no API key configured") {
		t.Errorf("exit %d, output %q", code, out.String())
	}
}

func TestConfigFileAndEnvPrecedence(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "apiKey: wrong\nserverAddr: " + h.url + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	run := func() (int, string) {
		var out bytes.Buffer
		code := Execute(context.Background(), []string{"-c", path, "tags", "list"},
			Streams{In: strings.NewReader(""), Out: &out, Err: io.Discard})
		return code, out.String()
	}

	if code, out := run(); code != 1 || !strings.Contains(out, "401") {
		t.Errorf("with the file key: exit %d, output %q", code, out)
	}
	t.Setenv("HOARDER_API_KEY", testKey)
	if code, out := run(); code != 0 {
		t.Errorf("with the env key: exit %d, output %q", code, out)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	h := newHarness(t)
	created, err := h.svc.CreateBookmark(context.Background(), domain.NewTextRequest("a note"))
	if err != nil {
		t.Fatal(err)
	}
	id := created.ID

	code, out, _ := h.run("", "bookmarks", "get", id)
	if got := decodeAll(t, out); code != 0 || len(got) != 1 || got[0].ID != id {
		t.Fatalf("get: exit %d, output %q", code, out)
	}

	code, out, _ = h.run("", "bookmarks", "update", id, "--title", "Groceries", "--archive")
	if code != 0 {
		t.Fatalf("update: exit %d, output %q", code, out)
	}
	got := decodeAll(t, out)
	if len(got) != 1 || got[0].Title == nil || *got[0].Title != "Groceries" || !got[0].Archived {
		t.Errorf("updated = %+v", got)
	}

	code, out, _ = h.run("", "bookmarks", "delete", id)
	if code != 0 || strings.TrimSpace(out) != "Bookmark "+id+" got deleted" {
		t.Errorf("delete: exit %d, output %q", code, out)
	}

	code, out, _ = h.run("", "bookmarks", "get", id)
	if code != 1 || !strings.Contains(out, "404") {
		t.Errorf("get after delete: exit %d, output %q", code, out)
	}
}

func TestUpdateFlagPairs(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"both archive halves", []string{"--archive", "--no-archive"}, "archive"},
		{"both favourite halves", []string{"--favourite", "--no-favourite"}, "favourite"},
		{"nothing set", nil, "nothing to update"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"bookmarks", "update", "some-id"}, tt.args...)
			code, out, _ := h.run("", args...)
			if code != 1 || !strings.Contains(out, tt.want) {
				t.Errorf("exit %d, output %q", code, out)
			}
		})
	}
}

func TestPairFlag(t *testing.T) {
	if pairFlag(false, false) != nil {
		t.Error("unset pair must stay nil")
	}
	if v := pairFlag(true, false); v == nil || !*v {
		t.Error("--x must give true")
	}
	if v := pairFlag(false, true); v == nil || *v {
		t.Error("--no-x must give false")
	}
}

func TestListHidesArchived(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, u := range []string{"https://example.com/1", "https://example.com/2"} {
		if _, err := h.svc.CreateBookmark(ctx, domain.NewLinkRequest(u)); err != nil {
			t.Fatal(err)
		}
	}
	archived, _ := h.svc.CreateBookmark(ctx, domain.NewLinkRequest("https://example.com/3"))
	if _, err := h.svc.UpdateBookmark(ctx, domain.UpdateRequest{BookmarkID: archived.ID, Archived: domain.Bool(true)}); err != nil {
		t.Fatal(err)
	}

	_, out, _ := h.run("", "bookmarks", "list")
	var active []printed
	if err := json.Unmarshal([]byte(out), &active); err != nil || len(active) != 2 {
		t.Errorf("list = %q (%v)", out, err)
	}
	_, out, _ = h.run("", "bookmarks", "list", "--include-archived")
	var all []printed
	if err := json.Unmarshal([]byte(out), &all); err != nil || len(all) != 3 {
		t.Errorf("list --include-archived = %q (%v)", out, err)
	}
}

func TestSave(t *testing.T) {
	const multi = "https://example.com/x\nhttps://example.com/y"

	tests := []struct {
		name      string
		stdin     string
		args      []string
		wantCount int
		wantType  string
	}{
		{"single link", "", []string{"https://example.com/solo"}, 1, "link"},
		{"note", "", []string{"just words"}, 1, "text"},
		{"split flag", "", []string{multi, "--split"}, 2, "link"},
		{"as-text flag", "", []string{multi, "--as-text"}, 1, "text"},
		{"prompt answers separate", "s\n", []string{multi}, 2, "link"},
		{"prompt answers text", "t\n", []string{multi}, 1, "text"},
		{"prompt cancelled", "c\n", []string{multi}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			args := append([]string{"bookmarks", "save"}, tt.args...)
			code, out, _ := h.run(tt.stdin, args...)
			if code != 0 {
				t.Fatalf("exit %d, output %q", code, out)
			}
			got := decodeAll(t, out)
			if len(got) != tt.wantCount {
				t.Fatalf("printed %d bookmarks, want %d", len(got), tt.wantCount)
			}
			for _, p := range got {
				if p.Content.Type != tt.wantType {
					t.Errorf("content type = %s, want %s", p.Content.Type, tt.wantType)
				}
			}
		})
	}
}

func TestSaveEmptyInputReachesService(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"empty argument", "", []string{""}},
		{"empty stdin", "", nil},
		{"blank stdin", " \n\t\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			args := append([]string{"bookmarks", "save"}, tt.args...)
			code, out, _ := h.run(tt.stdin, args...)
			if code != 1 {
				t.Errorf("exit %d, want 1", code)
			}
			if !strings.Contains(out, "400") || !strings.Contains(out, "text is empty") {
				t.Errorf("output %q does not carry the service's rejection", out)
			}
		})
	}
}

func TestSaveNoticesExistingLink(t *testing.T) {
	h := newHarness(t)
	created, err := h.svc.CreateBookmark(context.Background(), domain.NewLinkRequest("https://example.com/dup"))
	if err != nil {
		t.Fatal(err)
	}

	code, _, errOut := h.run("", "bookmarks", "save", "https://example.com/dup")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(errOut, h.url+"/dashboard/preview/"+created.ID) {
		t.Errorf("stderr %q misses the preview link", errOut)
	}
}

func TestImport(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	yaml := `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Local:
        - href: /relative
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := h.run("", "bookmarks", "import", path)
	if code != 0 {
		t.Fatalf("exit %d, output %q", code, out)
	}
	if got := decodeAll(t, out); len(got) != 1 || got[0].Content.URL != "https://github.com/" {
		t.Errorf("imported %+v", got)
	}
	if !strings.Contains(errOut, "Skipped \"Local\" in Developer (/relative)") {
		t.Errorf("stderr %q misses the skipped entry", errOut)
	}
}

func TestImportStaysWithinDefaultRateLimit(t *testing.T) {
	h := newHarness(t, func(d *deps.Deps) {
		d.CreateBurst = config.DefaultCreateBurst
		d.CreateRefillPerMin = config.DefaultCreatePerMinute
	})

	var b strings.Builder
	b.WriteString("---\n- Links:\n")
	total := config.DefaultCreateBurst + 6
	for i := 0; i < total; i++ {
		fmt.Fprintf(&b, "    - Link %d:\n        - href: https://example.com/%d\n", i, i)
	}
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, _ := h.run("", "bookmarks", "import", path)
	if code != 0 {
		t.Fatalf("exit %d, errors %d", code, strings.Count(out, "Error: "))
	}
	got := decodeAll(t, out)
	if len(got) != total {
		t.Fatalf("imported %d links, want %d", len(got), total)
	}
	for i, p := range got {
		if want := fmt.Sprintf("https://example.com/%d", i); p.Content.URL != want {
			t.Errorf("result %d = %s, want %s", i, p.Content.URL, want)
		}
	}
}

func TestGetShowsPreviewImage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.svc.CreateBookmark(ctx, domain.NewLinkRequest("https://example.com/article"))
	if err != nil {
		t.Fatal(err)
	}

	_, _, errOut := h.run("", "bookmarks", "get", created.ID)
	if !strings.Contains(errOut, "Preview image: still crawling") {
		t.Errorf("pending link stderr = %q", errOut)
	}

	_, err = h.svc.Mutate(ctx, created.ID, func(b *domain.Bookmark) error {
		link, _ := b.Link()
		link.CrawlStatus = domain.CrawlSuccess
		link.ImageURL = domain.String("https://example.com/cover.png")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _, errOut = h.run("", "bookmarks", "get", created.ID)
	if !strings.Contains(errOut, "Preview image: https://example.com/cover.png") {
		t.Errorf("crawled link stderr = %q", errOut)
	}

	note, _ := h.svc.CreateBookmark(ctx, domain.NewTextRequest("no image here"))
	if _, _, errOut = h.run("", "bookmarks", "get", note.ID); strings.Contains(errOut, "Preview image") {
		t.Errorf("text bookmark stderr = %q", errOut)
	}
}

func TestTags(t *testing.T) {
	h := newHarness(t)

	_, out, _ := h.run("", "tags", "list")
	if strings.TrimSpace(out) != "You don't currently have any tags." {
		t.Errorf("empty tags output = %q", out)
	}
}

func TestLists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b, err := h.svc.CreateBookmark(ctx, domain.NewTextRequest("listed"))
	if err != nil {
		t.Fatal(err)
	}

	code, out, _ := h.run("", "lists", "create", "Reading", "--icon", "📚")
	if code != 0 {
		t.Fatalf("create: exit %d, output %q", code, out)
	}
	var l domain.List
	if err := json.Unmarshal([]byte(out), &l); err != nil || l.Name != "Reading" || l.Icon != "📚" {
		t.Fatalf("created list = %q (%v)", out, err)
	}

	if code, out, _ := h.run("", "lists", "add", l.ID, b.ID); code != 0 {
		t.Fatalf("add: exit %d, output %q", code, out)
	}
	_, out, _ = h.run("", "bookmarks", "list", "--list-id", l.ID)
	var members []printed
	if err := json.Unmarshal([]byte(out), &members); err != nil || len(members) != 1 || members[0].ID != b.ID {
		t.Errorf("members = %q (%v)", out, err)
	}

	if code, out, _ := h.run("", "lists", "remove", l.ID, b.ID); code != 0 {
		t.Fatalf("remove: exit %d, output %q", code, out)
	}
	_, out, _ = h.run("", "lists", "list")
	var lists []domain.List
	if err := json.Unmarshal([]byte(out), &lists); err != nil || len(lists) != 1 {
		t.Errorf("lists = %q (%v)", out, err)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	code := Execute(context.Background(), []string{"version"}, Streams{Out: &out, Err: io.Discard})
	if code != 0 || !strings.HasPrefix(out.String(), "hoarder ") {
		t.Errorf("exit %d, output %q", code, out.String())
	}
}
