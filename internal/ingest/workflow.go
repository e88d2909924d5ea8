package ingest

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
)

// ErrBusy is returned when input is submitted or edited while a previous
// submission is still outstanding.
var ErrBusy = errors.New("a submission is already in progress")

// Creator issues create calls against the bookmark service.
type Creator interface {
	CreateBookmark(ctx context.Context, req domain.CreateRequest) (*domain.CreatedBookmark, error)
}

// Choice is the user's answer to a multi-URL import.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceAsText
	ChoiceAsSeparate
)

// MultiURLImport is the pending decision for input made only of URLs on
// several lines. It lives until the Confirmer answers.
type MultiURLImport struct {
	URLs []*url.URL
	Text string
}

// Confirmer asks the user what to do with a multi-URL input.
type Confirmer interface {
	ConfirmMultiURL(ctx context.Context, pending MultiURLImport) (Choice, error)
}

// Notifier receives non-blocking notices about settled create calls.
type Notifier interface {
	AlreadyExists(b *domain.CreatedBookmark)
	Failed(req domain.CreateRequest, err error)
}

// State is the position of the workflow in its state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
	StateSubmitting
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the settled outcome of one create call.
type Result struct {
	Request  domain.CreateRequest
	Bookmark *domain.CreatedBookmark
	Err      error
}

// Report describes one submission.
type Report struct {
	Kind      Kind
	Choice    Choice
	Cancelled bool
	Results   []Result
}

// Failed counts the create calls that were rejected.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Workflow turns submitted text into one or more create calls.
type Workflow struct {
	creator   Creator
	confirmer Confirmer
	notifier  Notifier
	logger    logger.Logger

	mu      sync.Mutex
	state   State
	input   string
	pending *MultiURLImport
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithNotifier sets where already-exists and failure notices go.
func WithNotifier(n Notifier) Option { return func(w *Workflow) { w.notifier = n } }

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option { return func(w *Workflow) { w.logger = l } }

// New builds a workflow. The confirmer is consulted for every multi-URL input.
func New(creator Creator, confirmer Confirmer, opts ...Option) *Workflow {
	w := &Workflow{
		creator:   creator,
		confirmer: confirmer,
		notifier:  nopNotifier{},
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetInput replaces the input buffer. It fails while a submission is running.
func (w *Workflow) SetInput(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busyLocked() {
		return ErrBusy
	}
	w.input = text
	return nil
}

// Input returns the current input buffer.
func (w *Workflow) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Pending returns the multi-URL decision being asked, if any.
func (w *Workflow) Pending() (MultiURLImport, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return MultiURLImport{}, false
	}
	return *w.pending, true
}

func (w *Workflow) busyLocked() bool {
	return w.state == StateSubmitting || w.state == StateAwaitingConfirmation
}

// Submit classifies the input and issues the create calls it calls for.
// The input is cleared only when every call succeeded. Nothing is retried.
func (w *Workflow) Submit(ctx context.Context) (Report, error) {
	w.mu.Lock()
	if w.busyLocked() {
		w.mu.Unlock()
		return Report{}, ErrBusy
	}
	c := Classify(w.input)
	report := Report{Kind: c.Kind}

	var reqs []domain.CreateRequest
	switch c.Kind {
	case KindNote:
		reqs = []domain.CreateRequest{domain.NewTextRequest(c.Text)}
	case KindLink:
		reqs = []domain.CreateRequest{domain.NewLinkRequest(c.Text)}
	case KindMultiLink:
		pending := MultiURLImport{URLs: c.URLs, Text: c.Text}
		w.pending = &pending
		w.state = StateAwaitingConfirmation
		w.mu.Unlock()

		choice, err := w.confirmer.ConfirmMultiURL(ctx, pending)

		w.mu.Lock()
		w.pending = nil
		report.Choice = choice
		if err != nil {
			w.state = StateIdle
			w.mu.Unlock()
			return report, err
		}
		switch choice {
		case ChoiceAsText:
			reqs = []domain.CreateRequest{domain.NewTextRequest(pending.Text)}
		case ChoiceAsSeparate:
			reqs = make([]domain.CreateRequest, 0, len(pending.URLs))
			for _, u := range pending.URLs {
				reqs = append(reqs, domain.NewLinkRequest(u.String()))
			}
		default:
			w.state = StateIdle
			w.mu.Unlock()
			report.Cancelled = true
			w.logger.Debug("multi-url import cancelled", logger.Int("urls", len(pending.URLs)))
			return report, nil
		}
	}
	w.state = StateSubmitting
	w.mu.Unlock()

	w.logger.Debug("submitting bookmarks",
		logger.String("kind", c.Kind.String()),
		logger.Int("requests", len(reqs)))

	report.Results = CreateAll(ctx, w.creator, reqs)
	for i := range report.Results {
		res := &report.Results[i]
		switch {
		case res.Err != nil:
			w.notifier.Failed(res.Request, res.Err)
		case res.Bookmark != nil && res.Bookmark.AlreadyExists:
			w.notifier.AlreadyExists(res.Bookmark)
		}
	}

	w.mu.Lock()
	if report.Failed() == 0 {
		w.state = StateSuccess
		w.input = ""
	} else {
		w.state = StateError
	}
	w.mu.Unlock()

	return report, nil
}

// CreateAll issues every request concurrently and waits for all of them.
// One failure never cancels or hides the others; results keep request order.
func CreateAll(ctx context.Context, creator Creator, reqs []domain.CreateRequest) []Result {
	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := creator.CreateBookmark(ctx, req)
			results[i] = Result{Request: req, Bookmark: b, Err: err}
		}()
	}
	wg.Wait()
	return results
}

type nopNotifier struct{}

func (nopNotifier) AlreadyExists(*domain.CreatedBookmark) {}
func (nopNotifier) Failed(domain.CreateRequest, error)    {}
