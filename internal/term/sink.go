// Package term is the terminal presentation layer: an ANSI sink that
// redraws frames in place, and a line-oriented prompt.
package term

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/polyterm/polyterm/internal/dashboard"
	"github.com/polyterm/polyterm/internal/flash"
)

// Sink writes frames using the overwrite-in-place protocol: move the
// cursor up over the previous frame and clear each line before
// rewriting it, so the dashboard never flickers through a blank screen.
type Sink struct {
	mu   sync.Mutex
	w    io.Writer
	up   *color.Color
	down *color.Color
}

// NewSink creates a sink over a terminal writer.
func NewSink(w io.Writer) *Sink {
	return &Sink{
		w:    w,
		up:   color.New(color.FgGreen),
		down: color.New(color.FgRed),
	}
}

// WriteFrame renders one frame. The whole frame is buffered and written
// in a single call so a slow terminal never shows a partial redraw.
func (s *Sink) WriteFrame(f dashboard.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if f.Overwrite > 0 {
		fmt.Fprintf(&buf, "\x1b[%dA", f.Overwrite)
	}
	for _, line := range f.Lines {
		buf.WriteString("\x1b[2K")
		switch line.Flash {
		case flash.Up:
			buf.WriteString(s.up.Sprint(line.Text))
		case flash.Down:
			buf.WriteString(s.down.Sprint(line.Text))
		default:
			buf.WriteString(line.Text)
		}
		buf.WriteString("\n")
	}
	// A frame shorter than the previous one leaves that frame's extra
	// rows below the cursor; erase to end of display so they don't
	// linger under the dashboard.
	if f.Overwrite > len(f.Lines) {
		buf.WriteString("\x1b[0J")
	}

	_, err := s.w.Write(buf.Bytes())
	return err
}

// Teardown leaves the last frame on screen and drops to a fresh line.
func (s *Sink) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w)
}
