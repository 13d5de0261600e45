package scan

import (
	"context"
	"net/netip"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"pdash/types"
)

// Counters tallies outcomes across all workers of one scan.
type Counters struct {
	Open        atomic.Int64
	Closed      atomic.Int64
	Unreachable atomic.Int64
}

func (c *Counters) record(state types.ScanState) {
	switch state {
	case types.OPEN:
		c.Open.Add(1)
	case types.CLOSED:
		c.Closed.Add(1)
	default:
		c.Unreachable.Add(1)
	}
}

func (c *Counters) Total() int64 {
	return c.Open.Load() + c.Closed.Load() + c.Unreachable.Load()
}

// Pool is a fixed set of workers draining a Queue.
type Pool struct {
	g       *errgroup.Group
	target  netip.Addr
	queue   *Queue
	prober  Prober
	results *Results
	limiter *rate.Limiter
	counts  *Counters
	logger  *zap.Logger
}

// StartPool launches workers goroutines and returns immediately. Workers stop
// once the queue is closed and empty, or ctx is cancelled.
func StartPool(
	ctx context.Context,
	workers int,
	target netip.Addr,
	queue *Queue,
	prober Prober,
	results *Results,
	counts *Counters,
	limiter *rate.Limiter,
	logger *zap.Logger,
) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		g:       new(errgroup.Group),
		target:  target,
		queue:   queue,
		prober:  prober,
		results: results,
		limiter: limiter,
		counts:  counts,
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		p.g.Go(func() error {
			p.work(ctx)
			return nil
		})
	}
	return p
}

func (p *Pool) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		port, ok := p.queue.Dequeue(ctx)
		if !ok {
			return
		}
		p.handle(ctx, port)
	}
}

func (p *Pool) handle(ctx context.Context, port uint16) {
	defer p.queue.MarkDone()

	if !p.waitTurn(ctx) {
		return
	}
	// a probe started after cancellation would only report a bogus failure
	if ctx.Err() != nil {
		return
	}

	out := p.prober.Probe(ctx, p.target, port)
	if ctx.Err() != nil && out.State != types.OPEN {
		return
	}
	if out.State == types.OPEN {
		p.results.Insert(port, out.Service)
		p.logger.Debug("port open", zap.Uint16("port", port), zap.String("service", out.Service))
	}
	if p.counts != nil {
		p.counts.record(out.State)
	}
}

// waitTurn blocks until the limiter admits one probe. It only gives up when
// ctx is done, so a deadline further away than the next token never skips a
// port.
func (p *Pool) waitTurn(ctx context.Context) bool {
	if p.limiter == nil {
		return ctx.Err() == nil
	}
	r := p.limiter.Reserve()
	if !r.OK() {
		<-ctx.Done()
		return false
	}
	d := r.Delay()
	if d == 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		r.Cancel()
		return false
	}
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	_ = p.g.Wait()
}
