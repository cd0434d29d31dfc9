package filtersync_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/filtersync"
)

type fakeTransport struct {
	mu           sync.Mutex
	fragments    []url.Values
	aggregations []url.Values
	fragmentErr  error
	block        chan struct{}
	blockOnce    bool
}

func (f *fakeTransport) Fragment(_ context.Context, query url.Values) (string, error) {
	f.mu.Lock()
	f.fragments = append(f.fragments, query)
	block := f.block
	if f.blockOnce {
		f.block = nil
	}
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.fragmentErr != nil {
		return "", f.fragmentErr
	}
	return "<div>" + query.Encode() + "</div>", nil
}

func (f *fakeTransport) Aggregations(_ context.Context, query url.Values) (*domain.EventsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggregations = append(f.aggregations, query)
	return &domain.EventsResult{Total: 12, Filters: filters.FromQuery(query)}, nil
}

func (f *fakeTransport) aggregationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.aggregations)
}

type fakeView struct {
	mu        sync.Mutex
	busy      int
	contents  []string
	widgets   []filters.Set
	histories []url.Values
	scrolled  []string
}

func (v *fakeView) ShowBusy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy++
}

func (v *fakeView) ReplaceContent(html string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.contents = append(v.contents, html)
}

func (v *fakeView) UpdateWidgets(values filters.Set, _ *domain.EventsResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.widgets = append(v.widgets, values)
}

func (v *fakeView) ReplaceHistory(query url.Values) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.histories = append(v.histories, query)
}

func (v *fakeView) ScrollIntoView(selector string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolled = append(v.scrolled, selector)
}

func (v *fakeView) snapshot() fakeView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fakeView{
		busy:      v.busy,
		contents:  append([]string(nil), v.contents...),
		widgets:   append([]filters.Set(nil), v.widgets...),
		histories: append([]url.Values(nil), v.histories...),
		scrolled:  append([]string(nil), v.scrolled...),
	}
}

func TestLoadAppliesPreFiltersAndRewritesHistory(t *testing.T) {
	transport := &fakeTransport{}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{
		PreFilters: filters.Set{"city": filters.Single("Lyon")},
	})
	defer ctrl.Close()

	if err := ctrl.Load(context.Background(), filters.Set{"city": filters.Single("Paris"), "page": filters.Single("2")}); err != nil {
		t.Fatalf("load: %v", err)
	}

	got := ctrl.Values()
	if got["city"].First() != "Lyon" {
		t.Fatalf("expected pre-filter to win on load, got %v", got)
	}
	snap := view.snapshot()
	if len(snap.histories) == 0 {
		t.Fatalf("expected history rewrite")
	}
	for _, history := range snap.histories {
		if history.Has("page") {
			t.Fatalf("history must not carry page: %v", history)
		}
	}
	if len(snap.contents) != 1 || len(snap.widgets) != 1 {
		t.Fatalf("expected one fragment and one widget refresh, got %d/%d", len(snap.contents), len(snap.widgets))
	}
}

func TestFilterChangedKeepsVisitorValues(t *testing.T) {
	transport := &fakeTransport{}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{
		PreFilters: filters.Set{"city": filters.Single("Lyon"), "lang": filters.Single("fr")},
		Current:    true,
	})
	defer ctrl.Close()

	if err := ctrl.FilterChanged(context.Background(), filters.Set{"city": filters.Single("Paris")}); err != nil {
		t.Fatalf("filter changed: %v", err)
	}
	values := ctrl.Values()
	if values["city"].First() != "Paris" || values["lang"].First() != "fr" {
		t.Fatalf("unexpected values %v", values)
	}
	if !values.Has("relative") {
		t.Fatalf("expected current relative filter, got %v", values)
	}
	snap := view.snapshot()
	if snap.busy != 1 {
		t.Fatalf("expected busy indicator once, got %d", snap.busy)
	}
	if len(snap.histories) != 1 || snap.histories[0].Get("city") != "Paris" {
		t.Fatalf("unexpected history %v", snap.histories)
	}
}

func TestStaleFragmentIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	transport := &fakeTransport{block: release, blockOnce: true}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{})
	defer ctrl.Close()

	done := make(chan error, 1)
	go func() {
		done <- ctrl.FilterChanged(context.Background(), filters.Set{"city": filters.Single("Paris")})
	}()

	deadline := time.Now().Add(time.Second)
	for {
		transport.mu.Lock()
		started := len(transport.fragments) > 0
		transport.mu.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first request never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := ctrl.FilterChanged(context.Background(), filters.Set{"city": filters.Single("Lyon")}); err != nil {
		t.Fatalf("second change: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first change: %v", err)
	}

	snap := view.snapshot()
	if len(snap.contents) != 1 {
		t.Fatalf("expected only the latest fragment applied, got %v", snap.contents)
	}
	if snap.contents[0] != "<div>city=Lyon</div>" {
		t.Fatalf("unexpected fragment %q", snap.contents[0])
	}
}

func TestPagerClickedActivePageIsNoop(t *testing.T) {
	transport := &fakeTransport{}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{})
	defer ctrl.Close()

	if err := ctrl.PagerClicked(context.Background(), filtersync.PagerLink{Query: url.Values{"page": {"1"}}, Active: true}); err != nil {
		t.Fatalf("pager: %v", err)
	}
	if len(transport.fragments) != 0 {
		t.Fatalf("expected no request for the active page")
	}
}

func TestPagerClickedReplacesScrollsAndRefreshesWidgets(t *testing.T) {
	transport := &fakeTransport{}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{Debounce: 5 * time.Millisecond})
	defer ctrl.Close()

	link := filtersync.PagerLink{Query: url.Values{"page": {"2"}, "city": {"Lyon"}}}
	if err := ctrl.PagerClicked(context.Background(), link); err != nil {
		t.Fatalf("pager: %v", err)
	}
	snap := view.snapshot()
	if len(snap.contents) != 1 || len(snap.scrolled) != 1 || snap.scrolled[0] != "#oa-wrapper" {
		t.Fatalf("unexpected view state %+v", snap)
	}

	deadline := time.Now().Add(time.Second)
	for transport.aggregationCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected debounced widget refresh")
		}
		time.Sleep(time.Millisecond)
	}
	transport.mu.Lock()
	query := transport.aggregations[0]
	transport.mu.Unlock()
	if query.Has("page") {
		t.Fatalf("aggregation query must not carry page: %v", query)
	}
}

func TestContentReplacedDebounces(t *testing.T) {
	transport := &fakeTransport{}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{Debounce: 20 * time.Millisecond})
	defer ctrl.Close()

	for range 5 {
		ctrl.ContentReplaced()
	}
	time.Sleep(100 * time.Millisecond)
	if got := transport.aggregationCount(); got != 1 {
		t.Fatalf("expected one refresh, got %d", got)
	}
}

func TestCloseStopsController(t *testing.T) {
	transport := &fakeTransport{}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{Debounce: 10 * time.Millisecond})

	ctrl.ContentReplaced()
	ctrl.Close()
	time.Sleep(40 * time.Millisecond)
	if transport.aggregationCount() != 0 {
		t.Fatalf("expected pending refresh dropped after close")
	}
	if err := ctrl.FilterChanged(context.Background(), filters.Set{}); !errors.Is(err, filtersync.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestFragmentErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	transport := &fakeTransport{fragmentErr: boom}
	view := &fakeView{}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{})
	defer ctrl.Close()

	err := ctrl.FilterChanged(context.Background(), filters.Set{"city": filters.Single("Paris")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fragment error, got %v", err)
	}
	if len(view.snapshot().widgets) != 1 {
		t.Fatalf("widgets should still refresh when the fragment fails")
	}
}

// gatedView holds the first content replacement matching gated until gate is
// closed, and records whether two View calls ever overlapped.
type gatedView struct {
	fakeView
	gated   string
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once

	active  atomic.Int32
	overlap atomic.Bool
}

func (v *gatedView) enter() func() {
	if v.active.Add(1) > 1 {
		v.overlap.Store(true)
	}
	return func() { v.active.Add(-1) }
}

func (v *gatedView) ShowBusy() {
	defer v.enter()()
	v.fakeView.ShowBusy()
}

func (v *gatedView) ReplaceContent(html string) {
	defer v.enter()()
	if strings.Contains(html, v.gated) {
		v.once.Do(func() {
			close(v.entered)
			<-v.gate
		})
	}
	v.fakeView.ReplaceContent(html)
}

func (v *gatedView) UpdateWidgets(values filters.Set, result *domain.EventsResult) {
	defer v.enter()()
	v.fakeView.UpdateWidgets(values, result)
}

func (v *gatedView) ReplaceHistory(query url.Values) {
	defer v.enter()()
	v.fakeView.ReplaceHistory(query)
}

func (v *gatedView) ScrollIntoView(selector string) {
	defer v.enter()()
	v.fakeView.ScrollIntoView(selector)
}

func TestOlderFragmentPastItsCheckCannotOverwriteNewer(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{}
	view := &gatedView{
		gated:   "city=Lyon",
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	ctrl := filtersync.NewController(transport, view, filtersync.Config{})
	defer ctrl.Close()

	doneOld := make(chan error, 1)
	go func() {
		doneOld <- ctrl.FilterChanged(ctx, filters.Set{"city": filters.Single("Lyon")})
	}()
	<-view.entered

	doneNew := make(chan error, 1)
	go func() {
		doneNew <- ctrl.FilterChanged(ctx, filters.Set{"city": filters.Single("Paris")})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Query().Get("city") != "Paris" {
		if time.Now().After(deadline) {
			t.Fatalf("newer filter change was never issued")
		}
		time.Sleep(time.Millisecond)
	}
	close(view.gate)

	for _, done := range []chan error{doneOld, doneNew} {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("filter change: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("filter change did not complete")
		}
	}

	snap := view.snapshot()
	if len(snap.contents) == 0 {
		t.Fatalf("expected content replacements")
	}
	if last := snap.contents[len(snap.contents)-1]; !strings.Contains(last, "city=Paris") {
		t.Fatalf("expected newer fragment to be shown last, got %q", last)
	}
	if view.overlap.Load() {
		t.Fatalf("view methods were called concurrently")
	}
}
