package args

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"pdash/ping"
	"pdash/scan"
	"pdash/services"
	"pdash/types"
	"pdash/utils"
)

const (
	Name    = "p-dash"
	Version = "v.1.0"
)

var (
	ErrUsage   = errors.New("usage error")
	ErrVersion = errors.New("version requested")
)

// DefaultSpeeds maps each speed tier to its worker count.
var DefaultSpeeds = map[types.SpeedTier]int{
	types.FAST:   1000,
	types.MEDIUM: 100,
	types.SLOW:   10,
}

type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Options is everything main needs to run one scan.
type Options struct {
	Target   types.ScanTarget
	Tier     types.SpeedTier
	Timeout  time.Duration
	Rate     float64
	Ping     string
	Verbose  bool
	NoColor  bool
	Services services.Table
}

type flags struct {
	all        bool
	fast       bool
	med        bool
	medium     bool
	slow       bool
	workers    int
	timeout    time.Duration
	rate       float64
	ping       string
	configPath string
	verbose    bool
	noColor    bool
	version    bool
}

func newFlagSet() (*flag.FlagSet, *flags) {
	f := &flags{}
	fs := flag.NewFlagSet(Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.all, "a", false, "Scans all ports from 1-65535 (default 1-10000)")
	fs.BoolVar(&f.all, "all", false, "Scans all ports from 1-65535 (default 1-10000)")
	fs.BoolVar(&f.fast, "fast", false, "Scan with 1000 parallel workers (default)")
	fs.BoolVar(&f.med, "med", false, "Scan with 100 parallel workers")
	fs.BoolVar(&f.medium, "medium", false, "Same as --med")
	fs.BoolVar(&f.slow, "slow", false, "Scan with 10 parallel workers")
	fs.IntVar(&f.workers, "workers", 0, "Explicit worker count, overrides the speed tier")
	fs.DurationVar(&f.timeout, "timeout", scan.DefaultTimeout, "Per-port connect timeout")
	fs.Float64Var(&f.rate, "rate", 0, "Maximum probes per second (0 = unlimited)")
	fs.StringVar(&f.ping, "ping", ping.MethodAuto, "Reachability check: "+strings.Join(ping.Methods, ", "))
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.BoolVar(&f.verbose, "v", false, "Verbose logging to stderr")
	fs.BoolVar(&f.verbose, "verbose", false, "Verbose logging to stderr")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable ANSI colours")
	fs.BoolVar(&f.version, "version", false, "Print version information and exit")
	return fs, f
}

// Load parses argv (without the program name). Flags may appear before or
// after the target. It returns flag.ErrHelp for -h/--help and ErrVersion for
// --version.
func Load(argv []string) (Options, error) {
	fs, f := newFlagSet()

	positional, err := parseInterspersed(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Options{}, err
		}
		return Options{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if f.version {
		return Options{}, ErrVersion
	}
	if len(positional) != 1 {
		return Options{}, fmt.Errorf("%w: expected exactly one target IP, got %d arguments", ErrUsage, len(positional))
	}

	addr, err := ParseTarget(positional[0])
	if err != nil {
		return Options{}, err
	}

	file := FileConfig{}
	if f.configPath != "" {
		if file, err = LoadConfig(f.configPath); err != nil {
			return Options{}, err
		}
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	opts := Options{
		Timeout:  f.timeout,
		Rate:     f.rate,
		Ping:     f.ping,
		Verbose:  f.verbose,
		NoColor:  f.noColor,
		Services: services.Default.With(file.Services),
	}
	if !set["timeout"] && file.Timeout > 0 {
		opts.Timeout = file.Timeout
	}
	if !set["rate"] && file.Rate > 0 {
		opts.Rate = file.Rate
	}
	if !set["ping"] && file.Ping != "" {
		opts.Ping = file.Ping
	}

	opts.Tier, err = checkSpeedFlags(f, file.Speed)
	if err != nil {
		return Options{}, err
	}

	speeds := make(map[types.SpeedTier]int, len(DefaultSpeeds))
	for tier, n := range DefaultSpeeds {
		speeds[tier] = n
	}
	for name, n := range file.Speeds {
		tier, _ := ParseSpeed(name)
		speeds[tier] = n
	}

	maxPort := scan.DefaultMaxPort
	if f.all || file.All {
		maxPort = scan.AllPorts
	}
	workers := speeds[opts.Tier]
	if set["workers"] {
		if f.workers <= 0 {
			return Options{}, &ValidationError{Field: "workers", Value: strconv.Itoa(f.workers), Reason: "must be positive"}
		}
		workers = f.workers
	}
	opts.Target = types.ScanTarget{Addr: addr, MaxPort: maxPort, Workers: workers}

	if opts.Timeout <= 0 {
		return Options{}, &ValidationError{Field: "timeout", Value: opts.Timeout.String(), Reason: "must be positive"}
	}
	if opts.Rate < 0 {
		return Options{}, &ValidationError{Field: "rate", Value: strconv.FormatFloat(opts.Rate, 'f', -1, 64), Reason: "must not be negative"}
	}
	if !utils.Contains(ping.Methods, opts.Ping) {
		return Options{}, &ValidationError{Field: "ping method", Value: opts.Ping, Reason: "must be one of " + strings.Join(ping.Methods, ", ")}
	}
	return opts, nil
}

// parseInterspersed keeps calling Parse past each positional argument, so
// "p-dash 10.0.0.1 --slow" works like "p-dash --slow 10.0.0.1". Everything
// after a "--" terminator is positional.
func parseInterspersed(fs *flag.FlagSet, argv []string) ([]string, error) {
	var positional []string
	rest := argv
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		left := fs.Args()
		if consumed := rest[:len(rest)-len(left)]; len(consumed) > 0 && consumed[len(consumed)-1] == "--" {
			return append(positional, left...), nil
		}
		if len(left) == 0 {
			return positional, nil
		}
		positional = append(positional, left[0])
		rest = left[1:]
	}
}

func checkSpeedFlags(f *flags, fallback string) (types.SpeedTier, error) {
	var chosen []types.SpeedTier
	if f.fast {
		chosen = append(chosen, types.FAST)
	}
	if f.med || f.medium {
		chosen = append(chosen, types.MEDIUM)
	}
	if f.slow {
		chosen = append(chosen, types.SLOW)
	}

	switch len(chosen) {
	case 0:
		if fallback == "" {
			return types.FAST, nil
		}
		tier, err := ParseSpeed(fallback)
		if err != nil {
			return types.FAST, err
		}
		return tier, nil
	case 1:
		return chosen[0], nil
	default:
		names := make([]string, len(chosen))
		for i, t := range chosen {
			names[i] = t.String()
		}
		return types.FAST, &ValidationError{Field: "speed", Value: strings.Join(names, ","), Reason: "choose only one of --fast, --med, --slow"}
	}
}

func ParseSpeed(s string) (types.SpeedTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return types.FAST, nil
	case "med", "medium":
		return types.MEDIUM, nil
	case "slow":
		return types.SLOW, nil
	default:
		return types.FAST, &ValidationError{Field: "speed", Value: s, Reason: "must be fast, medium or slow"}
	}
}

// ParseTarget accepts a dotted-quad IPv4 address: exactly four decimal
// octets, each 0-255.
func ParseTarget(raw string) (netip.Addr, error) {
	invalid := func(reason string) (netip.Addr, error) {
		return netip.Addr{}, &ValidationError{Field: "IP address", Value: raw, Reason: reason}
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return invalid("expected four dot-separated octets")
	}

	var octets [4]byte
	for i, p := range parts {
		if len(p) == 0 || len(p) > 3 {
			return invalid("each octet must have 1 to 3 digits")
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return invalid("octets must be decimal numbers")
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return invalid("octets must be between 0 and 255")
		}
		octets[i] = byte(n)
	}
	return netip.AddrFrom4(octets), nil
}

// PrintUsage writes the help text, mirroring the flag definitions.
func PrintUsage(w io.Writer) {
	fs, _ := newFlagSet()
	fmt.Fprintf(w, "Fast multi-threaded TCP connect scanner.\n\n")
	fmt.Fprintf(w, "Usage: %s <target IP> [--all] [--fast|--med|--slow] [flags]\n\n", Name)
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  <target IP>    Scans this IP address\n")
	fmt.Fprintf(w, "  --version      Print version information and exit\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
