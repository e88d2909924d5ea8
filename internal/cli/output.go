package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

var (
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
	cyan  = color.New(color.FgCyan)
)

type printer struct {
	out io.Writer
	err io.Writer
}

func newPrinter(out, errOut io.Writer) *printer {
	return &printer{out: out, err: errOut}
}

// JSON writes v indented. HTML is left unescaped so cropped bodies read as
// they were saved.
func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) Bookmark(b *domain.Bookmark) error {
	return p.JSON(domain.Normalize(b))
}

func (p *printer) Bookmarks(bs []domain.Bookmark) error {
	out := make([]domain.Normalized, 0, len(bs))
	for i := range bs {
		out = append(out, domain.Normalize(&bs[i]))
	}
	return p.JSON(out)
}

// Error prints "Error: ..." in red on the output stream, next to the
// successes it belongs with.
func (p *printer) Error(err error) {
	_, _ = red.Fprintf(p.out, "Error: %v\n", err)
}

func (p *printer) Line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Success(format string, args ...any) {
	_, _ = green.Fprintf(p.out, format+"\n", args...)
}

// Notice goes to stderr so it never mixes with JSON output.
func (p *printer) Notice(format string, args ...any) {
	_, _ = cyan.Fprintf(p.err, format+"\n", args...)
}
