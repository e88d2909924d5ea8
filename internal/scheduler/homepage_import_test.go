package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/service"
	"github.com/MrSnakeDoc/hoarder/internal/store/memory"
)

const bookmarksYAML = `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go docs:
        - abbr: GO
          href: https://go.dev/doc/
- Local:
    - NAS:
        - href: nas.lan
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestHomepageImporter_Import(t *testing.T) {
	svc := service.New(memory.New(), logger.Nop())
	hi := NewHomepageImporter(writeFile(t, bookmarksYAML), svc, logger.Nop(), 0)
	ctx := context.Background()

	stats, err := hi.Import(ctx)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	want := ImportStats{Created: 2, Skipped: 1}
	if stats != want {
		t.Errorf("first import = %+v, want %+v", stats, want)
	}

	// second pass finds everything already saved
	stats, err = hi.Import(ctx)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	want = ImportStats{Existing: 2, Skipped: 1}
	if stats != want {
		t.Errorf("second import = %+v, want %+v", stats, want)
	}

	page, err := svc.ListBookmarks(ctx, domain.ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 {
		t.Errorf("stored %d bookmarks, want 2", len(page.Items))
	}
}

func TestHomepageImporter_MissingFile(t *testing.T) {
	svc := service.New(memory.New(), logger.Nop())
	hi := NewHomepageImporter(filepath.Join(t.TempDir(), "missing.yaml"), svc, logger.Nop(), time.Hour)

	if err := hi.Start(context.Background()); err == nil {
		hi.Stop()
		t.Fatal("Start() with a missing file should fail")
	}
}

func TestHomepageImporter_Trigger(t *testing.T) {
	path := writeFile(t, bookmarksYAML)
	svc := service.New(memory.New(), logger.Nop())
	hi := NewHomepageImporter(path, svc, logger.Nop(), 0)
	ctx := context.Background()

	if err := hi.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer hi.Stop()

	extra := bookmarksYAML + `    - Router:
        - href: https://router.example.com/
`
	if err := os.WriteFile(path, []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}
	hi.Trigger()
	hi.Trigger()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		page, err := svc.ListBookmarks(ctx, domain.ListQuery{})
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Items) == 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("triggered import never created the new link")
}

func TestHomepageImporter_StopIsIdempotent(t *testing.T) {
	svc := service.New(memory.New(), logger.Nop())
	hi := NewHomepageImporter(writeFile(t, bookmarksYAML), svc, logger.Nop(), time.Hour)
	if err := hi.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	hi.Stop()
	hi.Stop()
}
