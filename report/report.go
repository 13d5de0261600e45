// Package report renders scan output for a terminal: the banner, the result
// box and error boxes. Nothing here touches the network.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"pdash/scan"
)

const (
	white     = "\033[97m"
	lightGray = "\033[0;37m"
	red       = "\033[91m"
	green     = "\033[92m"
	yellow    = "\033[93m"
	end       = "\033[0m"
	bold      = "\033[1m"
)

// box geometry: "║ " + inner + "║"
const (
	boxWidth   = 45
	innerWidth = boxWidth - 1
	labelWidth = 20
	valueWidth = innerWidth - labelWidth
)

const logo = "" +
	" ██████╗       ██████╗  █████╗ ███████╗██╗  ██╗\n" +
	" ██╔══██╗      ██╔══██╗██╔══██╗██╔════╝██║  ██║\n" +
	" ██████╔╝█████╗██║  ██║███████║███████╗███████║\n" +
	" ██╔═══╝ ╚════╝██║  ██║██╔══██║╚════██║██╔══██║\n" +
	" ██║           ██████╔╝██║  ██║███████║██║  ██║\n" +
	" ╚═╝           ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝\n"

const shadowRunes = "╔╗═╚╝║╠╣"

// ColorEnabled reports whether ANSI colours should be written to f.
func ColorEnabled(f *os.File, disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type Printer struct {
	w     io.Writer
	color bool
}

func New(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

func (p *Printer) paint(codes, s string) string {
	if !p.color {
		return s
	}
	return codes + s + end
}

// Banner prints the logo with its shadow strokes dimmed and the version
// right-aligned underneath.
func (p *Printer) Banner(version string) {
	var b strings.Builder
	b.WriteString("\n")
	if p.color {
		gray := false
		b.WriteString(white)
		for _, r := range logo {
			shadow := strings.ContainsRune(shadowRunes, r)
			if shadow && !gray {
				b.WriteString(lightGray)
				gray = true
			} else if !shadow && gray {
				b.WriteString(white)
				gray = false
			}
			b.WriteRune(r)
		}
		b.WriteString(end)
	} else {
		b.WriteString(logo)
	}
	b.WriteString(p.paint(bold+red, fmt.Sprintf("%46s", "- "+version)))
	b.WriteString("\n")
	fmt.Fprint(p.w, b.String())
}

func (p *Printer) Version(name, version string) {
	fmt.Fprintf(p.w, "%s %s\n", name, version)
}

func (p *Printer) Scanning() {
	fmt.Fprintln(p.w, "Scanning...")
}

func (p *Printer) Exiting() {
	fmt.Fprint(p.w, "\r")
	fmt.Fprintln(p.w, "Exiting...")
}

func (p *Printer) rule(left, right string) {
	fmt.Fprintln(p.w, left+strings.Repeat("═", boxWidth)+right)
}

func (p *Printer) row(content string) {
	fmt.Fprintln(p.w, "║ "+content+"║")
}

func (p *Printer) targetRow(target string) {
	p.row(p.paint(bold, fmt.Sprintf("%-*s", labelWidth, "Target")) + fmt.Sprintf("%-*s", valueWidth, target))
}

// Results prints the open ports in the order the report holds them, which
// is ascending.
func (p *Printer) Results(r *scan.Report) {
	p.rule("╔", "╗")
	p.targetRow(r.Target.String())
	p.rule("╠", "╣")

	if len(r.Open) == 0 {
		p.row(fmt.Sprintf("%-*s", innerWidth, "No open ports found"))
	} else {
		p.row(p.paint(bold, fmt.Sprintf("%-*s%-*s", labelWidth, "Port", valueWidth, "Service")))
		for _, ps := range r.Open {
			port := fmt.Sprintf("%-*d", labelWidth, ps.Port)
			p.row(p.paint(green, port) + fmt.Sprintf("%-*s", valueWidth, truncate(ps.Service, valueWidth)))
		}
	}

	p.rule("╠", "╣")
	if r.Canceled {
		note := fmt.Sprintf("Interrupted after %d of %d ports", r.Probed, r.MaxPort-1)
		p.row(p.paint(yellow, fmt.Sprintf("%-*s", innerWidth, truncate(note, innerWidth))))
	}
	p.row(fmt.Sprintf("%*s", innerWidth, FormatElapsed(r.Elapsed)+" Secs "))
	p.rule("╚", "╝")
	fmt.Fprintln(p.w)
}

// Error prints a boxed error for target.
func (p *Printer) Error(target, msg string) {
	p.rule("╔", "╗")
	p.targetRow(target)
	p.rule("╠", "╣")
	p.row(p.paint(bold+red, fmt.Sprintf("%-*s", innerWidth, truncate(msg, innerWidth))))
	p.rule("╚", "╝")
}

// FormatElapsed renders d in seconds rounded to two decimals.
func FormatElapsed(d time.Duration) string {
	secs := math.Round(d.Seconds()*100) / 100
	return fmt.Sprintf("%.2f", secs)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
