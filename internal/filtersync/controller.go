package filtersync

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
	"github.com/sourcegraph/conc"
)

// ErrClosed is returned by a controller after Close.
var ErrClosed = errors.New("filtersync: controller closed")

const (
	defaultDebounce = 250 * time.Millisecond
	defaultSelector = "#oa-wrapper"
)

// Transport issues the two requests a page update needs.
type Transport interface {
	// Fragment returns the rendered content region for query.
	Fragment(ctx context.Context, query url.Values) (string, error)
	// Aggregations returns the totals and counts backing the filter widgets.
	Aggregations(ctx context.Context, query url.Values) (*domain.EventsResult, error)
}

// View applies updates to the page. A controller never calls View methods
// concurrently, so implementations need no locking of their own.
type View interface {
	ShowBusy()
	ReplaceContent(html string)
	UpdateWidgets(values filters.Set, result *domain.EventsResult)
	ReplaceHistory(query url.Values)
	ScrollIntoView(selector string)
}

// Config configures a controller.
type Config struct {
	PreFilters      filters.Set
	Current         bool
	Debounce        time.Duration
	ContentSelector string
	Logger          interfaces.Logger
}

// PagerLink is a pager entry clicked by the visitor.
type PagerLink struct {
	Query  url.Values
	Active bool
}

// Controller keeps the filter widget, the URL and the rendered fragment in
// step. One controller serves one attached page. Responses are tagged with a
// per-channel generation and dropped when a newer request was issued. The
// generation check and the View update run under viewMu, so a response that
// passed its check is applied before any newer one is checked.
type Controller struct {
	transport Transport
	view      View
	cfg       Config
	logger    interfaces.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// viewMu serialises View calls. Lock order is viewMu, then mu.
	viewMu sync.Mutex

	mu          sync.Mutex
	widget      string
	values      filters.Set
	query       url.Values
	fragmentGen uint64
	widgetGen   uint64
	debounce    *time.Timer
	closed      bool
}

// NewController attaches a controller to a page.
func NewController(transport Transport, view View, cfg Config) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.ContentSelector == "" {
		cfg.ContentSelector = defaultSelector
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		transport: transport,
		view:      view,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		values:    filters.Set{},
		query:     url.Values{},
	}
}

// Attach binds the controller to the filter widget identified by widget.
func (c *Controller) Attach(widget string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.widget = widget
	c.logger = logging.WithFields(c.logger, map[string]any{"widget": widget})
	return nil
}

// Widget returns the attached widget identifier.
func (c *Controller) Widget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.widget
}

// Load handles the widget's first load: pre-filters override the initial
// values, the URL is rewritten and both the fragment and the widgets are
// refreshed.
func (c *Controller) Load(ctx context.Context, initial filters.Set) error {
	return c.apply(ctx, initial, true)
}

// FilterChanged handles a widget change. Pre-filters only fill keys the
// visitor left unset.
func (c *Controller) FilterChanged(ctx context.Context, values filters.Set) error {
	return c.apply(ctx, values, false)
}

func (c *Controller) apply(ctx context.Context, values filters.Set, initial bool) error {
	merged := filters.Compose(values, c.cfg.PreFilters, filters.Options{
		InitialLoad: initial,
		Current:     c.cfg.Current,
	})
	query := merged.Query()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.values = merged
	c.query = query
	c.fragmentGen++
	c.widgetGen++
	fragmentGen, widgetGen := c.fragmentGen, c.widgetGen
	c.mu.Unlock()

	c.viewMu.Lock()
	if initial {
		c.view.ReplaceHistory(historyQuery(query))
	}
	c.view.ShowBusy()
	c.viewMu.Unlock()

	var (
		wg      conc.WaitGroup
		errMu   sync.Mutex
		errList []error
	)
	record := func(err error) {
		errMu.Lock()
		errList = append(errList, err)
		errMu.Unlock()
	}
	wg.Go(func() {
		if err := c.refreshFragment(ctx, query, fragmentGen); err != nil {
			record(err)
		}
	})
	wg.Go(func() {
		if err := c.refreshWidgets(ctx, merged, query, widgetGen, true); err != nil {
			record(err)
		}
	})
	wg.Wait()
	return errors.Join(errList...)
}

// PagerClicked replaces the fragment with the target page and scrolls the
// content region into view. Clicking the active page does nothing.
func (c *Controller) PagerClicked(ctx context.Context, link PagerLink) error {
	if link.Active {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.query = cloneValues(link.Query)
	c.fragmentGen++
	gen := c.fragmentGen
	c.mu.Unlock()

	html, err := c.transport.Fragment(ctx, link.Query)
	if err != nil {
		c.logger.Warn("sync.pager.failed", "error", err)
		return err
	}
	c.viewMu.Lock()
	if !c.fragmentCurrent(gen) {
		c.viewMu.Unlock()
		c.logger.Debug("sync.pager.stale", "generation", gen)
		return nil
	}
	c.view.ReplaceContent(html)
	c.view.ScrollIntoView(c.cfg.ContentSelector)
	c.viewMu.Unlock()

	c.ContentReplaced()
	return nil
}

// ContentReplaced is the hook for content replaced outside the filter path.
// It schedules a debounced widget refresh against the current query; calls
// within the debounce window collapse into one refresh.
func (c *Controller) ContentReplaced() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.cfg.Debounce, c.debouncedRefresh)
}

func (c *Controller) debouncedRefresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.widgetGen++
	gen := c.widgetGen
	values := c.values.Clone()
	query := cloneValues(c.query)
	c.mu.Unlock()

	if err := c.refreshWidgets(c.ctx, values, query, gen, false); err != nil {
		c.logger.Warn("sync.widgets.refresh_failed", "error", err)
	}
}

// Close detaches the controller. Pending refreshes are dropped and later
// calls return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.cancel()
}

// Values returns the current composed filter values.
func (c *Controller) Values() filters.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Clone()
}

// Query returns the query of the last issued request.
func (c *Controller) Query() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneValues(c.query)
}

func (c *Controller) refreshFragment(ctx context.Context, query url.Values, gen uint64) error {
	html, err := c.transport.Fragment(ctx, query)
	if err != nil {
		c.logger.Warn("sync.fragment.failed", "error", err)
		return err
	}
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	if !c.fragmentCurrent(gen) {
		c.logger.Debug("sync.fragment.stale", "generation", gen)
		return nil
	}
	c.view.ReplaceContent(html)
	return nil
}

func (c *Controller) refreshWidgets(ctx context.Context, values filters.Set, query url.Values, gen uint64, updateHistory bool) error {
	result, err := c.transport.Aggregations(ctx, historyQuery(query))
	if err != nil {
		c.logger.Warn("sync.widgets.failed", "error", err)
		return err
	}
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	if !c.widgetCurrent(gen) {
		c.logger.Debug("sync.widgets.stale", "generation", gen)
		return nil
	}
	c.view.UpdateWidgets(values, result)
	if updateHistory {
		c.view.ReplaceHistory(historyQuery(query))
	}
	return nil
}

func (c *Controller) fragmentCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && gen == c.fragmentGen
}

func (c *Controller) widgetCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && gen == c.widgetGen
}

// historyQuery strips pagination so a shared URL always opens the first page.
func historyQuery(query url.Values) url.Values {
	out := cloneValues(query)
	out.Del(filters.PageKey)
	return out
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, entries := range values {
		out[key] = append([]string(nil), entries...)
	}
	return out
}
