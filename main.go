package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pdash/args"
	"pdash/ping"
	"pdash/report"
	"pdash/scan"
	"pdash/utils"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// app wires the packages together. Fields are swappable so tests can run the
// whole flow without touching the network.
type app struct {
	stdout io.Writer
	stderr io.Writer

	colorize   func(disabled bool) bool
	newLogger  func(verbose bool) (*zap.Logger, error)
	newChecker func(method string, timeout time.Duration, logger *zap.Logger) (ping.Checker, error)
	scanOpts   []scan.Option
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		colorize:   func(disabled bool) bool { return report.ColorEnabled(os.Stdout, disabled) },
		newLogger:  utils.NewLogger,
		newChecker: ping.New,
	}
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (a *app) run(ctx context.Context, argv []string) int {
	opts, err := args.Load(argv)
	if err != nil {
		return a.argError(err)
	}

	logger, err := a.newLogger(opts.Verbose)
	if err != nil {
		fmt.Fprintf(a.stderr, "failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	target := opts.Target.Addr
	out := report.New(a.stdout, a.colorize(opts.NoColor))
	out.Banner(args.Version)
	out.Scanning()

	checker, err := a.newChecker(opts.Ping, ping.DefaultTimeout, logger)
	if err != nil {
		fmt.Fprintf(a.stderr, "%v\n", err)
		return exitUsage
	}
	switch err := checker.Check(ctx, target); {
	case err == nil:
	case ctx.Err() != nil:
		out.Exiting()
		return exitInterrupted
	case errors.Is(err, ping.ErrUnreachable):
		out.Error(target.String(), "Unable to ping target...")
		return exitOK
	case errors.Is(err, ping.ErrUnavailable):
		logger.Warn("reachability check skipped", zap.String("method", opts.Ping), zap.Error(err))
	default:
		logger.Warn("reachability check failed", zap.Error(err))
	}

	scanner, err := scan.New(scan.Config{
		MaxPort:  opts.Target.MaxPort,
		Workers:  opts.Target.Workers,
		Timeout:  opts.Timeout,
		Rate:     opts.Rate,
		Services: opts.Services,
	}, append([]scan.Option{scan.WithLogger(logger)}, a.scanOpts...)...)
	if err != nil {
		fmt.Fprintf(a.stderr, "%v\n", err)
		return exitFailure
	}

	res, err := scanner.Run(ctx, target)
	if err != nil {
		fmt.Fprintf(a.stderr, "scan failed: %v\n", err)
		return exitFailure
	}
	if res.Canceled {
		out.Exiting()
		out.Results(res)
		return exitInterrupted
	}
	out.Results(res)
	return exitOK
}

func (a *app) argError(err error) int {
	var vErr *args.ValidationError
	switch {
	case errors.Is(err, flag.ErrHelp):
		args.PrintUsage(a.stdout)
		return exitOK
	case errors.Is(err, args.ErrVersion):
		report.New(a.stdout, false).Version(args.Name, args.Version)
		return exitOK
	case errors.Is(err, args.ErrUsage), errors.As(err, &vErr):
		fmt.Fprintf(a.stderr, "error: %v\n\n", err)
		args.PrintUsage(a.stderr)
		return exitUsage
	default:
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
}
