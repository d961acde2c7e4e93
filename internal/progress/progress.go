// Package progress draws the download bar and the long-operation
// spinner on stderr.
//
// The bar layout is elapsed time, a 30-column arrow bar, then transfer
// rate and ETA:
//
//	[0:12] [------->                      ] (1.4MB/s, ETA 0:36)
//
// When the server reports no content length the bar degrades to a byte
// counter with the same elapsed/rate framing.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc checks whether a file descriptor is a terminal.
// Overridable for testing.
var IsTerminalFunc = term.IsTerminal

const (
	// lineWidth is how far repaints pad to clear stale characters.
	lineWidth = 80

	// barWidth is the column count of the arrow bar.
	barWidth = 30

	// repaintInterval rate-limits redraws to avoid flicker.
	repaintInterval = 100 * time.Millisecond
)

// Writer wraps an io.Writer with download progress display.
type Writer struct {
	writer    io.Writer
	output    io.Writer
	total     int64
	written   int64
	startTime time.Time
	lastPaint time.Time
	mu        sync.Mutex
}

// NewWriter creates a progress writer that repaints on output as bytes
// flow through it. A total <= 0 means the length is unknown.
func NewWriter(w io.Writer, total int64, output io.Writer) *Writer {
	return &Writer{
		writer:    w,
		output:    output,
		total:     total,
		startTime: time.Now(),
	}
}

// Write implements io.Writer and updates the progress display.
func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	if n > 0 {
		pw.mu.Lock()
		pw.written += int64(n)
		pw.repaint(time.Now())
		pw.mu.Unlock()
	}
	return n, err
}

// Finish clears the progress line.
func (pw *Writer) Finish() {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	fmt.Fprintf(pw.output, "\r%s\r", strings.Repeat(" ", lineWidth))
}

// repaint redraws the progress line, rate-limited. The caller holds
// the mutex.
func (pw *Writer) repaint(now time.Time) {
	if now.Sub(pw.lastPaint) < repaintInterval {
		return
	}
	pw.lastPaint = now

	line := "\r  " + pw.render(now.Sub(pw.startTime))
	if len(line) < lineWidth {
		line += strings.Repeat(" ", lineWidth-len(line))
	}
	_, _ = fmt.Fprint(pw.output, line)
}

// render builds the progress line for the given elapsed duration.
func (pw *Writer) render(elapsed time.Duration) string {
	seconds := elapsed.Seconds()
	var speed float64
	if seconds > 0 {
		speed = float64(pw.written) / seconds
	}

	if pw.total <= 0 {
		return fmt.Sprintf("[%s] %s (%s/s)",
			formatClock(elapsed), formatBytes(pw.written), formatBytes(int64(speed)))
	}

	frac := float64(pw.written) / float64(pw.total)
	if frac > 1 {
		frac = 1
	}

	eta := "--:--"
	if speed > 0 && pw.written <= pw.total {
		remaining := float64(pw.total-pw.written) / speed
		eta = formatClock(time.Duration(remaining * float64(time.Second)))
	}

	return fmt.Sprintf("[%s] [\x1b[35m%s\x1b[0m] (%s/s, ETA %s)",
		formatClock(elapsed), arrowBar(frac), formatBytes(int64(speed)), eta)
}

// arrowBar fills barWidth columns in the "-> " style: a dash trail, an
// arrow head, spaces for the remainder. A complete bar is all dashes.
func arrowBar(frac float64) string {
	filled := int(frac * barWidth)
	if filled >= barWidth {
		return strings.Repeat("-", barWidth)
	}
	return strings.Repeat("-", filled) + ">" + strings.Repeat(" ", barWidth-filled-1)
}

// formatBytes formats a byte count for humans.
func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1fGB", float64(b)/gb)
	case b >= mb:
		return fmt.Sprintf("%.1fMB", float64(b)/mb)
	case b >= kb:
		return fmt.Sprintf("%.1fKB", float64(b)/kb)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// formatClock renders a duration as M:SS, or H:MM:SS past an hour.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Seconds())
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShowProgress reports whether progress lines should be drawn.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stderr.Fd()))
}
