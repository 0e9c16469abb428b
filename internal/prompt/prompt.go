package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type line struct {
	text string
	err  error
}

// Terminal asks questions on a line-oriented terminal. Input is read by a
// single background goroutine so a pending question can be abandoned when
// its context ends without losing the order of later lines.
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	once  sync.Once
	lines chan line
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, lines: make(chan line)}
}

func (t *Terminal) readLoop() {
	for {
		text, err := t.in.ReadString('\n')
		if err != nil && (err != io.EOF || text == "") {
			t.lines <- line{err: fmt.Errorf("reading input: %w", err)}
			return
		}
		t.lines <- line{text: strings.TrimRight(text, "\r\n")}
		if err != nil {
			t.lines <- line{err: fmt.Errorf("reading input: %w", io.EOF)}
			return
		}
	}
}

// Ask prints question and returns the next line of input without its line
// ending. It returns ctx.Err() if ctx ends first. Once input is exhausted
// every call returns an error wrapping io.EOF.
func (t *Terminal) Ask(ctx context.Context, question string) (string, error) {
	t.once.Do(func() { go t.readLoop() })
	fmt.Fprint(t.out, question)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-t.lines:
		if !ok {
			return "", fmt.Errorf("reading input: %w", io.EOF)
		}
		if l.err != nil {
			close(t.lines)
			return "", l.err
		}
		return l.text, nil
	}
}

// Confirm asks a yes/no question. Only "yes" and "y" (any case) count as yes.
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := t.Ask(ctx, question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}
