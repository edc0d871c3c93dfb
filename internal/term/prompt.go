package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/polyterm/polyterm/internal/catalog"
)

// Prompt reads user input line by line. A single goroutine owns the
// underlying reader so a caller that gives up waiting (cancelled
// context) never leaves a stale read racing with the next one.
type Prompt struct {
	w     io.Writer
	lines chan string
	done  chan struct{}
	err   error
}

// NewPrompt creates a prompt over the given streams.
func NewPrompt(r io.Reader, w io.Writer) *Prompt {
	p := &Prompt{
		w:     w,
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go func() {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				p.err = err
				close(p.done)
				return
			}
			p.lines <- strings.TrimSpace(line)
		}
	}()
	return p
}

// Line prints a label and waits for one trimmed input line.
func (p *Prompt) Line(ctx context.Context, label string) (string, error) {
	fmt.Fprintf(p.w, "%s> ", label)
	select {
	case line := <-p.lines:
		return line, nil
	case <-p.done:
		return "", p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Wait blocks until the user hits Enter, used as the "back" control
// while a dashboard is running. An undelivered line stays queued for
// the next caller when the context is cancelled first.
func (p *Prompt) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.lines:
		return nil
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select prints a numbered market list and reads a selection. The
// second return value is false when the user backs out with an empty
// line or "q".
func (p *Prompt) Select(ctx context.Context, markets []catalog.Market) (catalog.Market, bool, error) {
	if len(markets) == 0 {
		fmt.Fprintln(p.w, "no markets found")
		return catalog.Market{}, false, nil
	}

	for i, m := range markets {
		fmt.Fprintf(p.w, "%3d. %-60s vol24h $%.0f\n", i+1, truncate(m.Title, 60), m.Volume24h)
	}

	for {
		choice, err := p.Line(ctx, "select (q to go back)")
		if err != nil {
			return catalog.Market{}, false, err
		}
		if choice == "" || choice == "q" {
			return catalog.Market{}, false, nil
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(markets) {
			fmt.Fprintf(p.w, "enter a number between 1 and %d\n", len(markets))
			continue
		}
		return markets[n-1], true, nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
