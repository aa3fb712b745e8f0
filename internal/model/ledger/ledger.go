package ledger

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"max.ks1230/expense-tracker/internal/entity/currency"
	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/rates"
	"max.ks1230/expense-tracker/internal/model/recur"
)

// Storage keys. The theme key is persisted opaquely for the presentation
// layer and never interpreted here.
const (
	expensesKey     = "expenses"
	baseCurrencyKey = "base-currency"
	budgetKey       = "budget"
	themeKey        = "theme"
)

const rebaseWorkers = 8

var ErrUnknownBase = errors.Wrap(expense.ErrValidation, "unknown base currency")

type gateway interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type rateProvider interface {
	Rate(ctx context.Context, source, base, asOf string) rates.Quote
}

type config interface {
	BaseCurrency() string
	Horizon() int
}

// Snapshot is a copy of the ledger visible state. Converting marks the
// window where a rebase has swapped the base currency but not yet installed
// the re-converted amounts; such a snapshot is explicitly stale, never
// silently inconsistent.
type Snapshot struct {
	Records      []expense.Record
	BaseCurrency string
	Budget       float64
	BudgetSet    bool
	Converting   bool
}

// Result reports the outcome of a mutation. The mutation itself succeeded
// whenever the error returned alongside is nil; Degraded and PersistErr carry
// the warnings the caller must surface.
type Result struct {
	Records            []expense.Record
	Degraded           bool
	DegradedCurrencies []string
	PersistErr         error
	Superseded         bool
}

// Ledger is the aggregate root owning the expense records and the current
// base currency. All mutations persist through a single choke point and
// notify subscribers afterwards.
type Ledger struct {
	mu        sync.Mutex
	cond      *sync.Cond
	records   []expense.Record
	base      string
	budget    float64
	budgetSet bool
	lastID    int64

	converting   bool
	rebaseGen    uint64
	rebaseCancel context.CancelFunc

	gateway   gateway
	provider  rateProvider
	horizon   int
	observers []func(Snapshot)
}

func New(gw gateway, provider rateProvider, config config) *Ledger {
	l := &Ledger{
		base:     config.BaseCurrency(),
		gateway:  gw,
		provider: provider,
		horizon:  config.Horizon(),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Hydrate loads the persisted state. Missing keys leave the configured
// defaults in place; a corrupt record list is an error since silently
// dropping stored expenses is worse than failing startup.
func (l *Ledger) Hydrate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if raw, ok, err := l.gateway.Get(ctx, baseCurrencyKey); err != nil {
		return errors.Wrap(err, "hydrate base currency")
	} else if ok {
		l.base = string(raw)
	}

	if raw, ok, err := l.gateway.Get(ctx, budgetKey); err != nil {
		return errors.Wrap(err, "hydrate budget")
	} else if ok {
		budget, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return errors.Wrap(err, "hydrate budget")
		}
		l.budget = budget
		l.budgetSet = true
	}

	raw, ok, err := l.gateway.Get(ctx, expensesKey)
	if err != nil {
		return errors.Wrap(err, "hydrate expenses")
	}
	if !ok {
		return nil
	}
	var records []expense.Record
	if err = json.Unmarshal(raw, &records); err != nil {
		return errors.Wrap(err, "hydrate expenses")
	}
	l.records = records
	for _, rec := range records {
		if rec.ID > l.lastID {
			l.lastID = rec.ID
		}
	}
	return nil
}

// Subscribe registers an observer called with a fresh snapshot after every
// successful mutation.
func (l *Ledger) Subscribe(fn func(Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Add validates and converts a single draft, stores it and persists.
func (l *Ledger) Add(ctx context.Context, draft expense.Draft) (Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerAdd")
	defer span.Finish()
	defer observeMutation("add", time.Now())

	if err := draft.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "add expense")
	}
	return l.insert(ctx, []expense.Draft{draft})
}

// AddRecurring expands the draft by the recurrence rule and inserts the whole
// series, all-or-nothing. Validation runs before any conversion so a rejected
// draft never leaves a half-expanded series behind.
func (l *Ledger) AddRecurring(ctx context.Context, draft expense.Draft, rule expense.Recurrence) (Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerAddRecurring")
	defer span.Finish()
	defer observeMutation("add_recurring", time.Now())

	if err := rule.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "add recurring expense")
	}
	if err := draft.Validate(); err != nil {
		return Result{}, errors.Wrap(err, "add recurring expense")
	}

	drafts := recur.Expand(draft, rule, l.horizon)
	for _, d := range drafts {
		if err := d.Validate(); err != nil {
			return Result{}, errors.Wrap(err, "add recurring expense")
		}
	}
	return l.insert(ctx, drafts)
}

// insert converts the drafts against the current base and appends them under
// one lock acquisition. If a rebase swaps the base while conversions are in
// flight, the conversions are redone against the new base so a record never
// enters the ledger expressed in a stale currency.
func (l *Ledger) insert(ctx context.Context, drafts []expense.Draft) (Result, error) {
	l.mu.Lock()
	base := l.base
	l.mu.Unlock()

	for {
		converted := make([]expense.Record, 0, len(drafts))
		var degraded []string
		for _, d := range drafts {
			quote := l.provider.Rate(ctx, d.Currency, base, "")
			if quote.Degraded {
				degraded = append(degraded, d.Currency)
			}
			converted = append(converted, expense.Record{
				Amount:          d.Amount,
				Currency:        d.Currency,
				ConvertedAmount: d.Amount * quote.Rate,
				Description:     d.Description,
				Category:        d.Category,
				Date:            d.Date,
			})
		}

		l.mu.Lock()
		if l.base != base {
			base = l.base
			l.mu.Unlock()
			continue
		}
		for i := range converted {
			converted[i].ID = l.nextID()
		}
		l.records = append(l.records, converted...)
		persistErr := l.persist(ctx)
		snap := l.snapshotLocked()
		l.mu.Unlock()

		l.notify(snap)
		return Result{
			Records:            converted,
			Degraded:           len(degraded) > 0,
			DegradedCurrencies: degraded,
			PersistErr:         persistErr,
		}, nil
	}
}

// Delete removes the record with the given id. A missing id is a no-op, not
// an error.
func (l *Ledger) Delete(ctx context.Context, id int64) (Result, error) {
	defer observeMutation("delete", time.Now())

	l.mu.Lock()
	for i, rec := range l.records {
		if rec.ID == id {
			l.records = append(l.records[:i], l.records[i+1:]...)
			break
		}
	}
	persistErr := l.persist(ctx)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snap)
	return Result{PersistErr: persistErr}, nil
}

// Rebase switches the base currency and re-converts every stored record from
// its original currency. The base swap and the conversion install happen
// under the same lock, so readers never observe a mixed state. A rebase
// started while another is in flight supersedes it: the older one is
// cancelled and publishes nothing.
func (l *Ledger) Rebase(ctx context.Context, newBase string) (Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRebase")
	defer span.Finish()
	span.SetTag("base", newBase)
	defer observeMutation("rebase", time.Now())

	if !currency.Known(newBase) {
		return Result{}, errors.Wrap(ErrUnknownBase, "rebase")
	}

	l.mu.Lock()
	if newBase == l.base {
		// an earlier rebase to this base may still be converting; returning
		// before it installs would hand out stale amounts
		for l.converting {
			l.cond.Wait()
		}
		snap := l.snapshotLocked()
		l.mu.Unlock()
		return Result{Records: snap.Records}, nil
	}

	l.rebaseGen++
	gen := l.rebaseGen
	if l.rebaseCancel != nil {
		l.rebaseCancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	l.rebaseCancel = cancel

	l.base = newBase
	l.converting = true
	pending := make([]expense.Record, len(l.records))
	copy(pending, l.records)
	l.mu.Unlock()

	converted := make([]float64, len(pending))
	degradedAt := make([]bool, len(pending))

	g, gctx := errgroup.WithContext(rctx)
	g.SetLimit(rebaseWorkers)
	for i := range pending {
		i := i
		g.Go(func() error {
			quote := l.provider.Rate(gctx, pending[i].Currency, newBase, "")
			converted[i] = pending[i].Amount * quote.Rate
			degradedAt[i] = quote.Degraded
			return nil
		})
	}
	// individual failures degrade inside the provider, the group never errors
	_ = g.Wait()

	l.mu.Lock()
	if l.rebaseGen != gen {
		l.mu.Unlock()
		logger.Info("rebase superseded", zap.String("base", newBase))
		return Result{Superseded: true}, nil
	}
	cancel()
	l.rebaseCancel = nil
	l.converting = false
	l.cond.Broadcast()

	byID := make(map[int64]int, len(pending))
	for i, rec := range pending {
		byID[rec.ID] = i
	}
	var degraded []string
	for i := range l.records {
		j, ok := byID[l.records[i].ID]
		if !ok {
			// inserted mid-rebase, already converted against newBase
			continue
		}
		l.records[i].ConvertedAmount = converted[j]
		if degradedAt[j] {
			degraded = append(degraded, l.records[i].Currency)
		}
	}
	persistErr := l.persist(ctx)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	if len(degraded) > 0 {
		logger.Warn("rebase used 1:1 fallback rates", zap.Strings("currencies", degraded))
	}
	l.notify(snap)
	return Result{
		Records:            snap.Records,
		Degraded:           len(degraded) > 0,
		DegradedCurrencies: degraded,
		PersistErr:         persistErr,
	}, nil
}

// SetBudget stores the budget threshold, compared against the running total
// in the current base currency.
func (l *Ledger) SetBudget(ctx context.Context, amount float64) (Result, error) {
	defer observeMutation("set_budget", time.Now())

	if amount < 0 {
		return Result{}, errors.Wrap(expense.ErrBadAmount, "set budget")
	}

	l.mu.Lock()
	l.budget = amount
	l.budgetSet = true
	persistErr := l.persist(ctx)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snap)
	return Result{PersistErr: persistErr}, nil
}

// SetTheme round-trips the presentation theme preference through the gateway.
// The ledger never interprets it.
func (l *Ledger) SetTheme(ctx context.Context, theme string) error {
	return errors.Wrap(l.gateway.Set(ctx, themeKey, []byte(theme)), "set theme")
}

func (l *Ledger) Theme(ctx context.Context) (string, error) {
	raw, _, err := l.gateway.Get(ctx, themeKey)
	return string(raw), errors.Wrap(err, "get theme")
}

func (l *Ledger) BaseCurrency() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.base
}

// Total blocks while a rebase conversion is in flight, so the sum is always
// expressed in the current base currency.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.converting {
		l.cond.Wait()
	}
	total := 0.0
	for _, rec := range l.records {
		total += rec.ConvertedAmount
	}
	return total
}

func (l *Ledger) ByCategory() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.converting {
		l.cond.Wait()
	}
	m := make(map[string]float64)
	for _, rec := range l.records {
		m[rec.Category] += rec.ConvertedAmount
	}
	return m
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	records := make([]expense.Record, len(l.records))
	copy(records, l.records)
	return Snapshot{
		Records:      records,
		BaseCurrency: l.base,
		Budget:       l.budget,
		BudgetSet:    l.budgetSet,
		Converting:   l.converting,
	}
}

// nextID assigns time-based ids, bumping past the previous one when two
// mutations land within the same millisecond. Callers hold the mutex.
func (l *Ledger) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// persist is the single write choke point. Callers hold the mutex. A failed
// write does not roll the mutation back: the in-memory state stays the source
// of truth for the session and the error travels up in the Result.
func (l *Ledger) persist(ctx context.Context) error {
	raw, err := json.Marshal(l.records)
	if err != nil {
		return errors.Wrap(err, "marshal expenses")
	}
	if err = l.gateway.Set(ctx, expensesKey, raw); err != nil {
		return errors.Wrap(err, "persist expenses")
	}
	if err = l.gateway.Set(ctx, baseCurrencyKey, []byte(l.base)); err != nil {
		return errors.Wrap(err, "persist base currency")
	}
	if l.budgetSet {
		budget := strconv.FormatFloat(l.budget, 'g', -1, 64)
		if err = l.gateway.Set(ctx, budgetKey, []byte(budget)); err != nil {
			return errors.Wrap(err, "persist budget")
		}
	}
	return nil
}

func (l *Ledger) notify(snap Snapshot) {
	l.mu.Lock()
	observers := l.observers
	l.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}
