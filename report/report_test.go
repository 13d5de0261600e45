package report

import (
	"bytes"
	"net/netip"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdash/scan"
	"pdash/types"
)

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestResultsTable(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Results(&scan.Report{
		Target:  netip.MustParseAddr("10.0.0.5"),
		MaxPort: 100,
		Open: []types.PortService{
			{Port: 22, Service: "ssh"},
			{Port: 80, Service: "http"},
		},
		Elapsed: 1234 * time.Millisecond,
	})

	out := lines(buf.String())
	require.Len(t, out, 9)
	assert.Equal(t, "╔"+strings.Repeat("═", 45)+"╗", out[0])
	assert.Contains(t, out[1], "Target")
	assert.Contains(t, out[1], "10.0.0.5")
	assert.Contains(t, out[3], "Port")
	assert.Contains(t, out[3], "Service")
	assert.Contains(t, out[4], "22")
	assert.Contains(t, out[4], "ssh")
	assert.Contains(t, out[5], "80")
	assert.Contains(t, out[5], "http")
	assert.Contains(t, out[7], "1.23 Secs")
	assert.Equal(t, "╚"+strings.Repeat("═", 45)+"╝", out[8])

	// every line of the box has the same visible width
	for _, l := range out {
		assert.Equal(t, 47, utf8.RuneCountInString(l), "line %q", l)
	}
}

func TestResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Results(&scan.Report{Target: netip.MustParseAddr("10.0.0.5"), MaxPort: 10000})
	assert.Contains(t, buf.String(), "No open ports found")
	assert.Contains(t, buf.String(), "0.00 Secs")
}

func TestResultsCanceled(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Results(&scan.Report{
		Target:   netip.MustParseAddr("10.0.0.5"),
		MaxPort:  10000,
		Probed:   50,
		Canceled: true,
	})
	assert.Contains(t, buf.String(), "Interrupted after 50 of 9999 ports")
}

func TestResultsColor(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Results(&scan.Report{
		Target: netip.MustParseAddr("10.0.0.5"),
		Open:   []types.PortService{{Port: 443, Service: "https"}},
	})
	assert.Contains(t, buf.String(), bold)
	assert.Contains(t, buf.String(), green)
}

func TestErrorBox(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Error("10.0.0.9", "Unable to ping target...")
	out := lines(buf.String())
	require.Len(t, out, 5)
	assert.Contains(t, out[3], "Unable to ping target...")
	for _, l := range out {
		assert.Equal(t, 47, utf8.RuneCountInString(l), "line %q", l)
	}
}

func TestBanner(t *testing.T) {
	var plain bytes.Buffer
	New(&plain, false).Banner("v.1.0")
	assert.Contains(t, plain.String(), "██████╗")
	assert.Contains(t, plain.String(), "- v.1.0")
	assert.NotContains(t, plain.String(), "\033[")

	var colored bytes.Buffer
	New(&colored, true).Banner("v.1.0")
	assert.Contains(t, colored.String(), lightGray)
	assert.Contains(t, colored.String(), white)
	// any non-shadow rune ends a gray run, blanks included
	assert.Contains(t, colored.String(), "╗"+white+"       ")
	assert.Contains(t, colored.String(), "║"+white+"\n")
}

func TestVersionAndStatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	p.Version("p-dash", "v.1.0")
	p.Scanning()
	p.Exiting()
	assert.Equal(t, "p-dash v.1.0\nScanning...\n\rExiting...\n", buf.String())
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0.00", FormatElapsed(0))
	assert.Equal(t, "0.25", FormatElapsed(249*time.Millisecond))
	assert.Equal(t, "12.35", FormatElapsed(12346*time.Millisecond))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestColorEnabledRespectsOptOut(t *testing.T) {
	assert.False(t, ColorEnabled(os.Stdout, true))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(os.Stdout, false))
}

func TestColorDisabledForFiles(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, ColorEnabled(f, false))
}
