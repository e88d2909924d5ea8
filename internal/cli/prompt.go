package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrSnakeDoc/hoarder/internal/client"
	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/ingest"
)

// promptConfirmer asks on the terminal what to do with several URLs.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *promptConfirmer) ConfirmMultiURL(ctx context.Context, pending ingest.MultiURLImport) (ingest.Choice, error) {
	_, _ = fmt.Fprintf(c.out, "The input holds %d links:\n", len(pending.URLs))
	for _, u := range pending.URLs {
		_, _ = fmt.Fprintf(c.out, "  %s\n", u)
	}

	for {
		if err := ctx.Err(); err != nil {
			return ingest.ChoiceCancel, err
		}
		_, _ = fmt.Fprint(c.out, "Save them as one [t]ext note, as [s]eparate bookmarks, or [c]ancel? ")
		line, err := c.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return ingest.ChoiceCancel, nil
			}
			return ingest.ChoiceCancel, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "t", "text":
			return ingest.ChoiceAsText, nil
		case "s", "separate":
			return ingest.ChoiceAsSeparate, nil
		case "c", "cancel", "":
			return ingest.ChoiceCancel, nil
		}
	}
}

// fixedChoice answers every multi-URL prompt the same way.
type fixedChoice ingest.Choice

func (f fixedChoice) ConfirmMultiURL(context.Context, ingest.MultiURLImport) (ingest.Choice, error) {
	return ingest.Choice(f), nil
}

// notifier reports already-saved links with their preview address and
// failed creates in red.
type notifier struct {
	out *printer
	api *client.Client
}

func (n notifier) AlreadyExists(b *domain.CreatedBookmark) {
	n.out.Notice("Already saved: %s", n.api.PreviewURL(b.ID))
}

func (n notifier) Failed(req domain.CreateRequest, err error) {
	n.out.Error(fmt.Errorf("%s: %w", req, err))
}
