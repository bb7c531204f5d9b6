package speech

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TextListener reads typed input line by line.
//
// The reader is shared with the terminal file dialogs, so pass the same
// *bufio.Reader to both to keep buffered input from being lost.
// A TextListener is not safe for concurrent use.
type TextListener struct {
	r    *bufio.Reader
	w    io.Writer
	name string

	// pending holds a read abandoned by a cancelled Listen. The next Listen
	// collects its line instead of starting a second reader.
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

var _ Listener = (*TextListener)(nil)

// NewTextListener returns a TextListener reading from r and writing prompts
// to w. name prefixes prompts ("Aura: ...").
func NewTextListener(r *bufio.Reader, w io.Writer, name string) *TextListener {
	return &TextListener{r: r, w: w, name: name}
}

// Listen implements Listener. It prints prompt as an assistant line, then the
// "You: " input prompt, and returns the line without its terminator. The
// final line of a closed input is returned before io.EOF is reported.
//
// The terminal read cannot be interrupted, so it runs in its own goroutine
// and Listen returns ctx.Err() as soon as ctx is done.
func (l *TextListener) Listen(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if prompt != "" {
		fmt.Fprintf(l.w, "%s: %s\n", l.name, prompt)
	}
	fmt.Fprint(l.w, "You: ")

	if l.pending == nil {
		ch := make(chan readResult, 1)
		go func() {
			line, err := l.r.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}()
		l.pending = ch
	}

	var res readResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-l.pending:
		l.pending = nil
	}

	line, err := res.line, res.err
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(l.w)
			return "", io.EOF
		}
		return "", fmt.Errorf("speech: read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
