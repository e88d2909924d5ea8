package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hoarder/internal/client"
	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/ingest"
	"github.com/MrSnakeDoc/hoarder/internal/listing"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
	"github.com/MrSnakeDoc/hoarder/internal/poller"
)

func newBookmarksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookmarks",
		Aliases: []string{"b"},
		Short:   "Manipulate bookmarks",
	}
	cmd.AddCommand(
		newAddCmd(e),
		newGetCmd(e),
		newUpdateCmd(e),
		newListCmd(e),
		newDeleteCmd(e),
		newSaveCmd(e),
		newImportCmd(e),
	)
	return cmd
}

func newAddCmd(e *env) *cobra.Command {
	var (
		links     []string
		notes     []string
		fromStdin bool
		wait      bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create one or more bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs := make([]domain.CreateRequest, 0, len(links)+len(notes)+1)
			for _, l := range links {
				reqs = append(reqs, domain.NewLinkRequest(l))
			}
			for _, n := range notes {
				reqs = append(reqs, domain.NewTextRequest(n))
			}
			if fromStdin {
				text, err := readAll(e.streams.In)
				if err != nil {
					return err
				}
				reqs = append(reqs, domain.NewTextRequest(text))
			}
			if len(reqs) == 0 {
				return errors.New("nothing to add: pass --link, --note or --stdin")
			}

			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			return e.printResults(cmd.Context(), api, ingest.CreateAll(cmd.Context(), api, reqs), wait)
		},
	}
	cmd.Flags().StringArrayVar(&links, "link", nil, "a link to bookmark (repeatable)")
	cmd.Flags().StringArrayVar(&notes, "note", nil, "a note to bookmark (repeatable)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read a note from stdin")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until crawling and tagging are done")
	return cmd
}

func newGetCmd(e *env) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			b, err := api.GetBookmark(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if wait {
				b = e.waitLoaded(cmd.Context(), api, b)
			}
			if err := e.out.Bookmark(b); err != nil {
				return err
			}
			e.previewNotice(b, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until crawling and tagging are done")
	return cmd
}

// previewNotice tells on stderr which image a link card would show.
func (e *env) previewNotice(b *domain.Bookmark, now time.Time) {
	switch img := domain.PreviewImage(b, now); img.Kind {
	case domain.ImageResolved:
		e.out.Notice("Preview image: %s", img.URL)
	case domain.ImagePlaceholder:
		e.out.Notice("Preview image: still crawling")
	case domain.ImageBlank:
	}
}

func newUpdateCmd(e *env) *cobra.Command {
	var (
		title, note            string
		archive, noArchive     bool
		favourite, noFavourite bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			req := domain.UpdateRequest{
				BookmarkID: args[0],
				Archived:   pairFlag(flags.Changed("archive"), flags.Changed("no-archive")),
				Favourited: pairFlag(flags.Changed("favourite"), flags.Changed("no-favourite")),
			}
			if flags.Changed("title") {
				req.Title = domain.String(title)
			}
			if flags.Changed("note") {
				req.Note = domain.String(note)
			}
			if req.Empty() {
				return errors.New("nothing to update: pass at least one of --title, --note, --archive or --favourite")
			}

			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			b, err := api.UpdateBookmark(cmd.Context(), req)
			if err != nil {
				return err
			}
			return e.out.Bookmark(b)
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&note, "note", "", "new note")
	f.BoolVar(&archive, "archive", false, "archive the bookmark")
	f.BoolVar(&noArchive, "no-archive", false, "unarchive the bookmark")
	f.BoolVar(&favourite, "favourite", false, "mark the bookmark as favourite")
	f.BoolVar(&noFavourite, "no-favourite", false, "unmark the bookmark as favourite")
	cmd.MarkFlagsMutuallyExclusive("archive", "no-archive")
	cmd.MarkFlagsMutuallyExclusive("favourite", "no-favourite")
	return cmd
}

// pairFlag turns an --x/--no-x pair into an optional value.
func pairFlag(on, off bool) *bool {
	switch {
	case on:
		return domain.Bool(true)
	case off:
		return domain.Bool(false)
	default:
		return nil
	}
}

func newListCmd(e *env) *cobra.Command {
	var f listing.Filter
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all bookmarks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			all, err := listing.All(cmd.Context(), api, f)
			if err != nil {
				return err
			}
			return e.out.Bookmarks(all)
		},
	}
	cmd.Flags().BoolVar(&f.IncludeArchived, "include-archived", false, "also list archived bookmarks")
	cmd.Flags().StringVar(&f.ListID, "list-id", "", "only list the bookmarks of this list")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			if err := api.DeleteBookmark(cmd.Context(), args[0]); err != nil {
				return err
			}
			e.out.Line("Bookmark %s got deleted", args[0])
			return nil
		},
	}
}

func newSaveCmd(e *env) *cobra.Command {
	var asText, split, wait bool
	cmd := &cobra.Command{
		Use:   "save [text]",
		Short: "Save free text the way the quick-add box does",
		Long: `Save classifies its input: a single link becomes a link bookmark, anything
else a note. Input made only of links on several lines asks whether to keep
it as one note or save every link on its own, unless --as-text or --split
answers for you. Without an argument the text is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				var err error
				if text, err = readAll(e.streams.In); err != nil {
					return err
				}
			}

			api, err := e.client(cmd)
			if err != nil {
				return err
			}

			var confirmer ingest.Confirmer
			switch {
			case asText:
				confirmer = fixedChoice(ingest.ChoiceAsText)
			case split:
				confirmer = fixedChoice(ingest.ChoiceAsSeparate)
			default:
				confirmer = newPromptConfirmer(e.streams.In, e.streams.Err)
			}

			wf := ingest.New(api, confirmer,
				ingest.WithNotifier(notifier{out: e.out, api: api}),
				ingest.WithLogger(e.logger()))
			if err := wf.SetInput(text); err != nil {
				return err
			}
			report, err := wf.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if report.Cancelled {
				e.out.Notice("Nothing saved.")
				return nil
			}
			// failures were already printed by the notifier
			var ok []ingest.Result
			for _, res := range report.Results {
				if res.Err == nil {
					ok = append(ok, res)
				}
			}
			if err := e.printResults(cmd.Context(), api, ok, wait); err != nil {
				return err
			}
			if report.Failed() > 0 {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asText, "as-text", false, "save multi-link input as one note")
	cmd.Flags().BoolVar(&split, "split", false, "save every link of multi-link input separately")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until crawling and tagging are done")
	cmd.MarkFlagsMutuallyExclusive("as-text", "split")
	return cmd
}

// printResults prints every settled create in request order and reports
// errReported if any of them failed.
func (e *env) printResults(ctx context.Context, api *client.Client, results []ingest.Result, wait bool) error {
	failed := false
	for _, res := range results {
		if res.Err != nil {
			failed = true
			e.out.Error(fmt.Errorf("%s: %w", res.Request, res.Err))
			continue
		}
		b := &res.Bookmark.Bookmark
		if wait {
			b = e.waitLoaded(ctx, api, b)
		}
		if err := e.out.Bookmark(b); err != nil {
			return err
		}
	}
	if failed {
		return errReported
	}
	return nil
}

// waitLoaded polls b until crawling and tagging settle. After the loading
// window the last snapshot is returned as is.
func (e *env) waitLoaded(ctx context.Context, api *client.Client, b *domain.Bookmark) *domain.Bookmark {
	ctx, cancel := context.WithTimeout(ctx, domain.MaxLoadingWindow)
	defer cancel()

	latest, err := poller.Wait(ctx, api, b,
		poller.WithLogger(e.logger()),
		poller.OnError(func(err error) {
			e.logger().Debug("refetch failed", logger.String("bookmark_id", b.ID), logger.Error(err))
		}))
	if err != nil {
		e.out.Notice("Bookmark %s is still loading.", b.ID)
	}
	if latest == nil {
		return b
	}
	return latest
}

func (e *env) logger() logger.Logger {
	if e.log == nil {
		return logger.Nop()
	}
	return e.log
}

func readAll(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
