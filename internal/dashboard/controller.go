// Package dashboard owns the active dataset and the chart selection, and
// recomputes chart views when either changes.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"findash/internal/analytics"
	"findash/internal/cache"
	"findash/internal/charts"
	"findash/internal/core"
	"findash/internal/log"
)

var ErrUnknownYear = errors.New("year not present in dataset")

// State is the controller's position in its recompute cycle.
// StateSelectionChanged lasts only while a new selection is being applied
// under the controller lock, so State never reports it.
type State int

const (
	StateIdle State = iota
	StateSelectionChanged
	StateRecomputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectionChanged:
		return "selection_changed"
	case StateRecomputing:
		return "recomputing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Selection is the year and tab the charts are drawn for.
type Selection struct {
	Year int
	Tab  core.Label
}

// DatasetInfo describes the active dataset.
type DatasetInfo struct {
	ID       int64     `json:"id,omitempty"`
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loadedAt"`
}

// View is everything needed to render the dashboard for one selection.
type View struct {
	Year    int             `json:"year"`
	Tab     core.Label      `json:"tab"`
	Years   []int           `json:"years"`
	Totals  core.YearTotals `json:"-"`
	Summary Summary         `json:"summary"`
	Pie     charts.Pie      `json:"pie"`
	Bar     charts.Bar      `json:"bar"`
	Dataset DatasetInfo     `json:"dataset"`
	Version uint64          `json:"version"`
	Empty   bool            `json:"empty"`
}

// Summary is the formatted income/expense overview of the selected year.
type Summary struct {
	Income     string `json:"income"`
	Expense    string `json:"expense"`
	Net        string `json:"net"`
	SavingRate int    `json:"savingRate"`
}

func newSummary(t core.YearTotals, currency string) Summary {
	return Summary{
		Income:     charts.FormatCurrency(currency, t.Income.Units()),
		Expense:    charts.FormatCurrency(currency, t.Expense.Units()),
		Net:        charts.FormatCurrency(currency, t.Net().Units()),
		SavingRate: t.SavingRate(),
	}
}

// Selection returns the selection the view was computed for.
func (v View) Selection() Selection {
	return Selection{Year: v.Year, Tab: v.Tab}
}

// LoadFunc produces a replacement dataset.
type LoadFunc func(ctx context.Context) (*core.Dataset, error)

// Controller holds the single mutable dataset cell and the current
// selection. A successful reload swaps the dataset wholesale; a failed one
// leaves it untouched.
type Controller struct {
	mu      sync.Mutex
	dataset *core.Dataset
	years   []int
	version uint64
	sel     Selection
	// inflight counts recomputes that have not finished yet.
	inflight int

	opts   charts.Options
	views  cache.Cache[View]
	trends cache.Cache[charts.Line]
	group  singleflight.Group
	logger *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithViewCache replaces the default view cache.
func WithViewCache(c cache.Cache[View]) Option {
	return func(ctrl *Controller) { ctrl.views = c }
}

// WithCacheTTL sizes the default caches with the given entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(ctrl *Controller) {
		ctrl.views = cache.NewLRUCache[View](64, ttl)
		ctrl.trends = cache.NewLRUCache[charts.Line](4, ttl)
	}
}

// NewController starts in Idle on ds (which may be empty) with the latest
// year and the Income tab selected.
func NewController(ds *core.Dataset, opts charts.Options, logger *log.Logger, options ...Option) *Controller {
	if ds == nil {
		ds = &core.Dataset{}
	}
	c := &Controller{
		dataset: ds,
		years:   analytics.Years(ds.Transactions),
		version: 1,
		sel:     Selection{Tab: core.Income},
		opts:    opts,
		views:   cache.NewLRUCache[View](64, 10*time.Minute),
		trends:  cache.NewLRUCache[charts.Line](4, 10*time.Minute),
		logger:  logger.WithComponent(log.ComponentDashboard),
	}
	for _, o := range options {
		o(c)
	}
	c.sel.Year, _ = analytics.LatestYear(ds.Transactions)
	return c
}

// Caches exposes the controller's caches for registration with a cleanup manager.
func (c *Controller) Caches() []cache.Cleaner {
	var out []cache.Cleaner
	if cl, ok := c.views.(cache.Cleaner); ok {
		out = append(out, cl)
	}
	if cl, ok := c.trends.(cache.Cleaner); ok {
		out = append(out, cl)
	}
	return out
}

// State reports Recomputing while any recompute is running and Idle otherwise.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight > 0 {
		return StateRecomputing
	}
	return StateIdle
}

// Dataset returns the active dataset. It must not be modified.
func (c *Controller) Dataset() *core.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataset
}

// Version increases by one on every successful replace.
func (c *Controller) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Current returns the view for the current selection.
func (c *Controller) Current() View {
	c.mu.Lock()
	ds, version, sel, years := c.dataset, c.version, c.sel, c.years
	c.inflight++
	c.mu.Unlock()
	defer c.done()

	return c.view(ds, version, sel, years)
}

// Select changes the selection and returns the recomputed view. A zero year
// keeps the current year; an empty tab keeps the current tab.
func (c *Controller) Select(year int, tab core.Label) (View, error) {
	if tab != "" && !tab.Valid() {
		return View{}, core.ErrInvalidLabel
	}

	c.mu.Lock()
	sel, err := c.resolve(year, tab)
	if err != nil {
		c.mu.Unlock()
		return View{}, err
	}
	c.sel = sel
	ds, version, years := c.dataset, c.version, c.years
	c.inflight++
	c.mu.Unlock()
	defer c.done()

	c.logger.Debug("Selection changed", log.FieldYear, sel.Year, log.FieldLabel, sel.Tab.String(),
		"state", StateSelectionChanged.String())
	return c.view(ds, version, sel, years), nil
}

// ViewFor returns the view for year and tab without changing the current
// selection. A zero year or empty tab falls back to the current one.
func (c *Controller) ViewFor(year int, tab core.Label) (View, error) {
	if tab != "" && !tab.Valid() {
		return View{}, core.ErrInvalidLabel
	}

	c.mu.Lock()
	sel, err := c.resolve(year, tab)
	if err != nil {
		c.mu.Unlock()
		return View{}, err
	}
	ds, version, years := c.dataset, c.version, c.years
	c.inflight++
	c.mu.Unlock()
	defer c.done()

	return c.view(ds, version, sel, years), nil
}

// resolve merges year and tab into the current selection. c.mu must be held.
func (c *Controller) resolve(year int, tab core.Label) (Selection, error) {
	sel := c.sel
	if year != 0 {
		if !containsYear(c.years, year) {
			return Selection{}, fmt.Errorf("%w: %d", ErrUnknownYear, year)
		}
		sel.Year = year
	}
	if tab != "" {
		sel.Tab = tab
	}
	return sel, nil
}

// Replace swaps in ds and returns the view for the adjusted selection. If the
// selected year is absent from ds, the latest year of ds is selected.
func (c *Controller) Replace(ds *core.Dataset) View {
	if ds == nil {
		ds = &core.Dataset{}
	}
	years := analytics.Years(ds.Transactions)

	c.mu.Lock()
	c.inflight++
	c.dataset = ds
	c.years = years
	c.version++
	if !containsYear(years, c.sel.Year) {
		c.sel.Year, _ = analytics.LatestYear(ds.Transactions)
	}
	version, sel := c.version, c.sel
	c.mu.Unlock()
	defer c.done()

	c.views.Purge()
	c.trends.Purge()

	c.logger.Info("Dataset replaced",
		log.NewFields().WithDataset(ds.ID, ds.Name, ds.Source, ds.Len()).
			WithOperation(log.OpLoad).ToSlice()...)
	return c.view(ds, version, sel, years)
}

// Reload runs load and, on success, replaces the dataset. On failure the
// previous dataset and selection are kept and the error is returned.
func (c *Controller) Reload(ctx context.Context, load LoadFunc) (View, error) {
	ds, err := load(ctx)
	if err != nil {
		return View{}, err
	}
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	return c.Replace(ds), nil
}

// Trend returns the cross-year expense line chart.
func (c *Controller) Trend() charts.Line {
	c.mu.Lock()
	ds, version := c.dataset, c.version
	c.mu.Unlock()

	key := fmt.Sprintf("trend:%d", version)
	if line, ok := c.trends.Get(key); ok {
		return line
	}
	res, _, _ := c.group.Do(key, func() (any, error) {
		line := charts.NewLine(analytics.ExpenseByYearMonth(ds.Transactions), c.opts)
		c.trends.Set(key, line)
		return line, nil
	})
	return res.(charts.Line)
}

func (c *Controller) done() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *Controller) view(ds *core.Dataset, version uint64, sel Selection, years []int) View {
	key := fmt.Sprintf("%d:%d:%s", version, sel.Year, sel.Tab)
	if v, ok := c.views.Get(key); ok {
		return v
	}
	res, _, _ := c.group.Do(key, func() (any, error) {
		v := buildView(ds, version, sel, years, c.opts)
		c.views.Set(key, v)
		return v, nil
	})
	return res.(View)
}

func buildView(ds *core.Dataset, version uint64, sel Selection, years []int, opts charts.Options) View {
	txs := ds.Transactions
	totals := analytics.Totals(txs, sel.Year)
	return View{
		Year:    sel.Year,
		Tab:     sel.Tab,
		Years:   years,
		Totals:  totals,
		Summary: newSummary(totals, opts.Currency),
		Pie:     charts.NewPie(sel.Tab, sel.Year, analytics.ByCategory(txs, sel.Year, sel.Tab), totals, opts),
		Bar:     charts.NewBar(sel.Tab, sel.Year, analytics.ByMonth(txs, sel.Year, sel.Tab), opts),
		Dataset: DatasetInfo{
			ID:       ds.ID,
			Name:     ds.Name,
			Source:   ds.Source,
			Rows:     ds.Len(),
			LoadedAt: ds.LoadedAt,
		},
		Version: version,
		Empty:   ds.Len() == 0,
	}
}

func containsYear(years []int, year int) bool {
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}
