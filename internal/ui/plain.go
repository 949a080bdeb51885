package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// plainChoose prints a numbered list and reads the answer from in. A
// number or a label (case-insensitive) is accepted; anything else asks
// again until in is exhausted.
func plainChoose(ctx context.Context, in io.Reader, out io.Writer, title string, labels []string) (string, error) {
	if in == nil {
		return "", ErrNoChoice
	}
	if out == nil {
		out = io.Discard
	}

	_, _ = fmt.Fprintln(out, title)
	for i, l := range labels {
		_, _ = fmt.Fprintf(out, "  %d) %s\n", i+1, l)
	}

	type answer struct {
		label string
		err   error
	}
	ch := make(chan answer, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for {
			_, _ = fmt.Fprintf(out, "Choose [1-%d]: ", len(labels))
			if !sc.Scan() {
				if err := sc.Err(); err != nil {
					ch <- answer{err: err}
					return
				}
				ch <- answer{err: ErrNoChoice}
				return
			}
			if label, ok := matchLabel(strings.TrimSpace(sc.Text()), labels); ok {
				ch <- answer{label: label}
				return
			}
			_, _ = fmt.Fprintln(out, "Invalid choice.")
		}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-ch:
		return a.label, a.err
	}
}

func matchLabel(s string, labels []string) (string, bool) {
	if s == "" {
		return "", false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(labels) {
			return labels[n-1], true
		}
		return "", false
	}
	for _, l := range labels {
		if strings.EqualFold(s, l) {
			return l, true
		}
	}
	return "", false
}
