// Package search owns the state behind the search page: the current result
// set, the selected listing and the loading flag. The list and the map are
// both rendered from Snapshot; nothing else holds result state.
//
// Every search gets a sequence number. A settlement (success or failure) is
// applied only when it is newer than every search settled before it, so a
// slow response can never overwrite a newer one. Loading is true exactly
// while the newest issued search has not settled.
package search

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yourorg/propfair-web/internal/events"
	"github.com/yourorg/propfair-web/listings"
)

type Searcher interface {
	Search(ctx context.Context, p listings.SearchParams) (listings.PaginatedListings, error)
}

type Status int

const (
	Idle Status = iota
	Loading
)

func (s Status) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// State is a copy of the page state at one version.
type State struct {
	Status     Status
	Items      []listings.Listing
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	SelectedID string
	// Params of the search whose results are shown.
	Params listings.SearchParams
	// Failed is set when the newest settled search failed. The error
	// itself is only logged.
	Failed bool

	Issued  uint64
	Applied uint64
	Version uint64
}

func (s State) Loading() bool { return s.Status == Loading }

// Selected resolves the selection against the shown items. A selection
// whose id is not in the current items resolves to nothing.
func (s State) Selected() (listings.Listing, bool) {
	if s.SelectedID == "" {
		return listings.Listing{}, false
	}
	for _, l := range s.Items {
		if l.ID == s.SelectedID {
			return l, true
		}
	}
	return listings.Listing{}, false
}

// Result describes how one Search call ended.
type Result struct {
	Seq uint64
	// Applied is false when the search failed or was superseded.
	Applied bool
	Kind    events.Kind
	Err     error
}

type Page struct {
	searcher Searcher
	pub      events.Publisher
	log      *slog.Logger

	mu      sync.Mutex
	state   State
	settled uint64
}

func NewPage(searcher Searcher, pub events.Publisher, log *slog.Logger) *Page {
	if pub == nil {
		pub = events.NewBroker()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Page{
		searcher: searcher,
		pub:      pub,
		log:      log.With("component", "search-page"),
	}
}

// Search runs one search to completion. Errors are logged and reported in
// the Result; they never clear the shown results.
func (p *Page) Search(ctx context.Context, params listings.SearchParams) Result {
	return <-p.Start(ctx, params)
}

// Start issues a search and returns without waiting for it. The page is
// loading by the time Start returns. The caller's cancellation is not
// propagated: an issued search always settles.
func (p *Page) Start(ctx context.Context, params listings.SearchParams) <-chan Result {
	ctx = context.WithoutCancel(ctx)
	seq := p.begin(ctx)
	out := make(chan Result, 1)
	go func() { out <- p.run(ctx, seq, params) }()
	return out
}

func (p *Page) run(ctx context.Context, seq uint64, params listings.SearchParams) (res Result) {
	res.Seq = seq

	var (
		page listings.PaginatedListings
		err  error
	)
	defer func() {
		res.Kind = p.settle(ctx, seq, params, page, err)
		res.Applied = res.Kind == events.SearchApplied
		res.Err = err
	}()

	page, err = p.searcher.Search(ctx, params)
	return res
}

// GoToPage starts the shown search again for another result page.
func (p *Page) GoToPage(ctx context.Context, n int) <-chan Result {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	params := p.state.Params
	p.mu.Unlock()
	params.Page = &n
	return p.Start(ctx, params)
}

// Select overwrites the selection. The id is not checked against the
// current items.
func (p *Page) Select(ctx context.Context, id string) {
	p.mu.Lock()
	p.state.SelectedID = id
	p.state.Version++
	evt := p.eventLocked(events.Selected, 0)
	p.mu.Unlock()

	p.pub.PublishPageChanged(ctx, evt)
}

func (p *Page) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Items = append([]listings.Listing(nil), p.state.Items...)
	return s
}

// Subscribe registers an observer of state changes.
func (p *Page) Subscribe(buffer int) (<-chan events.PageChanged, func()) {
	return p.pub.SubscribePageChanged(buffer)
}

// Current describes the present state as an event, for observers that
// subscribe after the page was rendered and may have missed a change.
func (p *Page) Current() events.PageChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eventLocked(events.Current, p.state.Applied)
}

// Touch publishes a change without touching state, e.g. when the camera
// moved and observers may care.
func (p *Page) Touch(ctx context.Context, kind events.Kind) {
	p.mu.Lock()
	evt := p.eventLocked(kind, 0)
	p.mu.Unlock()
	p.pub.PublishPageChanged(ctx, evt)
}

func (p *Page) begin(ctx context.Context) uint64 {
	p.mu.Lock()
	p.state.Issued++
	seq := p.state.Issued
	p.state.Status = Loading
	p.state.Version++
	evt := p.eventLocked(events.SearchStarted, seq)
	p.mu.Unlock()

	p.log.Debug("search started", "seq", seq)
	p.pub.PublishPageChanged(ctx, evt)
	return seq
}

func (p *Page) settle(ctx context.Context, seq uint64, params listings.SearchParams, res listings.PaginatedListings, err error) events.Kind {
	p.mu.Lock()
	if seq <= p.settled {
		settled := p.settled
		p.mu.Unlock()
		p.log.Info("discarding superseded search", "seq", seq, "settled", settled, "failed", err != nil)
		return events.SearchDiscarded
	}
	p.settled = seq

	kind := events.SearchApplied
	if err != nil {
		kind = events.SearchFailed
		p.state.Failed = true
	} else {
		p.state.Items = res.Items
		p.state.Total = res.Total
		p.state.Page = res.Page
		p.state.PageSize = res.PageSize
		p.state.TotalPages = res.TotalPages
		p.state.Params = params
		p.state.Applied = seq
		p.state.Failed = false
	}
	if p.settled >= p.state.Issued {
		p.state.Status = Idle
	}
	p.state.Version++
	evt := p.eventLocked(kind, seq)
	p.mu.Unlock()

	if err != nil {
		p.log.Error("search failed", "seq", seq, "error", err)
	} else {
		p.log.Info("search applied", "seq", seq, "items", len(res.Items), "total", res.Total)
	}
	p.pub.PublishPageChanged(ctx, evt)
	return kind
}

func (p *Page) eventLocked(kind events.Kind, seq uint64) events.PageChanged {
	return events.PageChanged{
		Kind:       kind,
		Version:    p.state.Version,
		Seq:        seq,
		Loading:    p.state.Status == Loading,
		Total:      p.state.Total,
		SelectedID: p.state.SelectedID,
	}
}
