package scan

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pdash/services"
	"pdash/types"
	"pdash/utils"
)

const (
	DefaultMaxPort = 10000
	AllPorts       = 65535

	maxQueueBuffer = 4096
)

var ErrInvalidTarget = errors.New("target must be an IPv4 address")

type Config struct {
	// MaxPort is the exclusive upper bound: ports 1..MaxPort-1 are scanned.
	MaxPort int
	Workers int
	Timeout time.Duration
	// Rate caps probes per second across all workers. Zero means unlimited.
	Rate     float64
	Services services.Table
}

func (c Config) validate() error {
	if c.MaxPort < 2 || c.MaxPort > AllPorts+1 {
		return fmt.Errorf("max port %d out of range [2, %d]", c.MaxPort, AllPorts+1)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %v", c.Rate)
	}
	return nil
}

// Report is what a finished (or interrupted) scan hands back to the caller.
type Report struct {
	Target      netip.Addr
	MaxPort     int
	Workers     int
	Open        []types.PortService
	Probed      int
	Closed      int
	Unreachable int
	Elapsed     time.Duration
	Canceled    bool
}

type Option func(*Scanner)

// WithProber replaces the TCP connect prober, mainly for tests.
func WithProber(p Prober) Option {
	return func(s *Scanner) { s.prober = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// Scanner runs connect scans against a single host. It holds no per-scan
// state, so one Scanner can run any number of scans, one after another or
// concurrently.
type Scanner struct {
	cfg    Config
	prober Prober
	logger *zap.Logger
}

func New(cfg Config, opts ...Option) (*Scanner, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid scan config: %w", err)
	}
	s := &Scanner{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "scanner"))
	if s.prober == nil {
		s.prober = NewTCPProber(cfg.Timeout, cfg.Services, s.logger)
	}
	return s, nil
}

// session is the state of one scan. Workers only borrow its queue and
// results; nothing outlives Run.
type session struct {
	target  netip.Addr
	maxPort int
	workers int
	started time.Time
	queue   *Queue
	results *Results
	counts  *Counters
}

func (s *Scanner) newSession(target netip.Addr) *session {
	return &session{
		target:  target,
		maxPort: s.cfg.MaxPort,
		workers: s.cfg.Workers,
		started: time.Now(),
		queue:   NewQueue(utils.Clamp(s.cfg.Workers, 1, maxQueueBuffer)),
		results: NewResults(),
		counts:  new(Counters),
	}
}

// Run probes ports [1, MaxPort) on target and blocks until every port has an
// outcome or ctx is cancelled. On cancellation the partial report is returned
// with Canceled set and a nil error.
func (s *Scanner) Run(ctx context.Context, target netip.Addr) (*Report, error) {
	if !target.Is4() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}

	sess := s.newSession(target)
	log := s.logger.With(zap.Stringer("target", target))
	log.Info("scan started",
		zap.Int("max_port", sess.maxPort),
		zap.Int("workers", sess.workers),
		zap.Duration("timeout", s.cfg.Timeout),
	)

	// workers get their own ctx so they can be stopped without the caller's
	workCtx, stop := context.WithCancel(ctx)
	defer stop()

	var limiter *rate.Limiter
	if s.cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.Rate), 1)
	}
	pool := StartPool(workCtx, sess.workers, target, sess.queue, s.prober,
		sess.results, sess.counts, limiter, log)

	canceled := s.enqueue(ctx, sess) != nil
	sess.queue.Close()

	if !canceled {
		canceled = sess.queue.WaitUntilDrained(ctx) != nil
	}
	if canceled {
		stop()
	}
	pool.Wait()
	if dropped := sess.queue.Discard(); dropped > 0 {
		log.Debug("discarded queued ports", zap.Int("count", dropped))
	}

	report := sess.report()
	report.Canceled = canceled
	if canceled {
		log.Warn("scan interrupted", zap.Int("probed", report.Probed), zap.Int("open", len(report.Open)))
	} else {
		log.Info("scan finished", zap.Int("open", len(report.Open)), zap.Duration("elapsed", report.Elapsed))
	}
	return report, nil
}

func (s *Scanner) enqueue(ctx context.Context, sess *session) error {
	for port := 1; port < sess.maxPort; port++ {
		if err := sess.queue.Enqueue(ctx, uint16(port)); err != nil {
			return err
		}
	}
	return nil
}

func (sess *session) report() *Report {
	return &Report{
		Target:      sess.target,
		MaxPort:     sess.maxPort,
		Workers:     sess.workers,
		Open:        sess.results.Snapshot(),
		Probed:      int(sess.counts.Total()),
		Closed:      int(sess.counts.Closed.Load()),
		Unreachable: int(sess.counts.Unreachable.Load()),
		Elapsed:     time.Since(sess.started),
	}
}
