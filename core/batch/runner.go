package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/tomb.v2"

	"github.com/kilianp07/gridmatch/core/clearing"
	"github.com/kilianp07/gridmatch/core/logger"
	"github.com/kilianp07/gridmatch/core/metrics"
	"github.com/kilianp07/gridmatch/core/model"
	"github.com/kilianp07/gridmatch/core/monitoring"
	"github.com/kilianp07/gridmatch/core/store"
	"github.com/kilianp07/gridmatch/internal/eventbus"
)

// OrderFilter is an optional upstream check run on every parsed order. An
// error excludes the order from its book.
type OrderFilter func(model.Order) error

// Runner clears MatchingData with one strategy.
type Runner struct {
	strategy clearing.Strategy
	workers  int
	log      logger.Logger
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	store    store.Store
	monitor  monitoring.Monitor
	filter   OrderFilter
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of slots cleared concurrently.
func WithWorkers(n int) Option { return func(r *Runner) { r.workers = n } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(r *Runner) { r.log = l } }

// WithMetrics sets the sink receiving slot and batch summaries.
func WithMetrics(s metrics.MetricsSink) Option { return func(r *Runner) { r.sink = s } }

// WithEventBus publishes clearing events on bus.
func WithEventBus(bus eventbus.EventBus) Option { return func(r *Runner) { r.bus = bus } }

// WithStore appends one record per cleared slot to s.
func WithStore(s store.Store) Option { return func(r *Runner) { r.store = s } }

// WithMonitor reports slot failures to m instead of the global monitor.
func WithMonitor(m monitoring.Monitor) Option { return func(r *Runner) { r.monitor = m } }

// WithOrderFilter installs an upstream order check.
func WithOrderFilter(f OrderFilter) Option { return func(r *Runner) { r.filter = f } }

// NewRunner returns a Runner clearing every slot with s.
func NewRunner(s clearing.Strategy, opts ...Option) *Runner {
	r := &Runner{
		strategy: s,
		workers:  1,
		log:      logger.NopLogger{},
		sink:     metrics.NopSink{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	if r.monitor == nil {
		r.monitor = monitoring.Default()
	}
	return r
}

// Strategy returns the strategy used by the runner.
func (r *Runner) Strategy() clearing.Strategy { return r.strategy }

type task struct {
	marketID string
	timeSlot string
	book     model.OrderBook
}

type outcome struct {
	done     bool
	bids     int
	offers   int
	recs     []model.Recommendation
	rejected []RejectedOrder
	err      error
	duration time.Duration
}

// Run clears every (market, slot) book of data. Slot failures are reported
// in the result and joined in the returned error; a cancelled context stops
// the scheduling of new slots and its error is returned as well.
func (r *Runner) Run(ctx context.Context, data model.MatchingData) (Result, error) {
	start := r.now()
	res := Result{RunID: uuid.NewString(), Strategy: r.strategy.Name()}

	var tasks []task
	for _, m := range data {
		for _, s := range m.Slots {
			tasks = append(tasks, task{marketID: m.MarketID, timeSlot: s.TimeSlot, book: s.Book})
		}
	}
	outcomes := make([]outcome, len(tasks))
	var ctxErr error
	if r.workers == 1 || len(tasks) < 2 {
		ctxErr = r.runSequential(ctx, tasks, outcomes)
	} else {
		ctxErr = r.runParallel(ctx, tasks, outcomes)
	}

	for i, t := range tasks {
		o := outcomes[i]
		if !o.done {
			if ctxErr == nil {
				ctxErr = ctx.Err()
			}
			res.Skipped++
			continue
		}
		res.Recommendations = append(res.Recommendations, o.recs...)
		res.Rejected = append(res.Rejected, o.rejected...)
		if o.err != nil {
			res.Failures = append(res.Failures, SlotFailure{MarketID: t.marketID, TimeSlot: t.timeSlot, Err: o.err})
		}
		r.record(ctx, res.RunID, t, o)
	}
	r.complete(res, len(data), len(tasks), r.now().Sub(start))
	return res, errors.Join(res.Err(), ctxErr)
}

func (r *Runner) runSequential(ctx context.Context, tasks []task, out []outcome) error {
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		out[i] = r.clearSlot(t)
	}
	return nil
}

// runParallel fans the tasks out to r.workers goroutines. Each worker writes
// only the outcome slots of the indices it receives.
func (r *Runner) runParallel(ctx context.Context, tasks []task, out []outcome) error {
	tb, _ := tomb.WithContext(ctx)
	indices := make(chan int)
	// workers are started first so the tomb stays alive until the
	// dispatcher is tracked
	for w := 0; w < r.workers; w++ {
		tb.Go(func() error {
			for i := range indices {
				out[i] = r.clearSlot(tasks[i])
			}
			return nil
		})
	}
	tb.Go(func() error {
		defer close(indices)
		for i := range tasks {
			select {
			case <-tb.Dying():
				return nil
			case indices <- i:
			}
		}
		return nil
	})
	return tb.Wait()
}

// clearSlot parses, clears and maps one book. It never panics.
func (r *Runner) clearSlot(t task) (o outcome) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			o.recs = nil
			o.err = fmt.Errorf("%w: %v", ErrSlotPanic, p)
		}
		o.done = true
		o.duration = time.Since(start)
		if o.err != nil {
			r.fail(t, o.err)
		}
	}()

	bids, rejectedBids := r.parse(t, model.Bid, t.book.Bids)
	offers, rejectedOffers := r.parse(t, model.Offer, t.book.Offers)
	o.bids, o.offers = len(bids), len(offers)
	o.rejected = append(rejectedBids, rejectedOffers...)

	matches := r.strategy.Clear(bids, offers)
	recs, err := clearing.BuildRecommendations(t.marketID, t.timeSlot, matches, bids, offers)
	if err != nil {
		o.err = err
		return o
	}
	o.recs = recs
	return o
}

func (r *Runner) parse(t task, side model.Side, payloads []model.Payload) ([]model.Order, []RejectedOrder) {
	orders := make([]model.Order, 0, len(payloads))
	var rejected []RejectedOrder
	seen := make(map[string]struct{}, len(payloads))
	for i, p := range payloads {
		o, err := model.OrderFromPayload(side, t.timeSlot, i, p)
		if err == nil {
			if _, dup := seen[o.ID]; dup {
				err = fmt.Errorf("%s: %w", o.ID, ErrDuplicateOrder)
			}
		}
		if err == nil && r.filter != nil {
			err = r.filter(o)
		}
		if err != nil {
			rejected = append(rejected, RejectedOrder{
				MarketID: t.marketID,
				TimeSlot: t.timeSlot,
				Side:     side.String(),
				Index:    i,
				Reason:   err.Error(),
				Err:      err,
			})
			continue
		}
		seen[o.ID] = struct{}{}
		orders = append(orders, o)
	}
	return orders, rejected
}

func (r *Runner) fail(t task, err error) {
	r.log.Errorf("clearing market %s slot %s failed: %v", t.marketID, t.timeSlot, err)
	r.monitor.CaptureException(err, map[string]string{
		"market_id": t.marketID,
		"time_slot": t.timeSlot,
		"strategy":  r.strategy.Name(),
	})
}
