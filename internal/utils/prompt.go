package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// AnswerYes is set by the global --yes flag to skip confirmation prompts.
var AnswerYes = false

// Stdin is where prompts read answers from.
var Stdin io.Reader = os.Stdin

// ErrQuit is returned when the user chooses to stop at a prompt.
var ErrQuit = errors.New("stopped at user request")

// ShouldAnswerYes reports whether prompts should be answered automatically.
func ShouldAnswerYes() bool {
	return AnswerYes
}

// ReadLineContext reads one line from Stdin. It returns ctx.Err() if the
// context ends first. The reading goroutine is left behind in that case; the
// process is about to exit anyway.
func ReadLineContext(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := readLine(Stdin)
		ch <- result{strings.TrimSpace(line), err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// readLine reads up to and including the next newline one byte at a time, so
// nothing past the line is consumed from r.
func readLine(r io.Reader) (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return b.String(), nil
			}
			b.WriteByte(buf[0])
		}
		if err != nil {
			if err == io.EOF && b.Len() > 0 {
				return b.String(), nil
			}
			return b.String(), err
		}
	}
}

// PauseBefore asks the user to press Enter before the next step.
// Returns ErrQuit when the answer starts with q or Q.
func PauseBefore(ctx context.Context, next string) error {
	if ShouldAnswerYes() {
		return nil
	}
	fmt.Fprintf(Stdout, "[Q/q+Enter] to quit or [Enter] to %s... ", next)
	answer, err := ReadLineContext(ctx)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if strings.HasPrefix(strings.ToUpper(answer), "Q") {
		return ErrQuit
	}
	return nil
}
