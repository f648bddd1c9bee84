// Package prompt builds the text sent to a completion backend from a log
// file's trailing lines and a YAML prompt template.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrReadFile is returned when the target file cannot be opened or read.
var ErrReadFile = errors.New("reading file")

// TailFile returns the last n lines of the file at path, oldest first.
// Lines are returned verbatim without their terminators.
func TailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadFile, path, err)
	}
	defer f.Close()

	lines, err := tail(f, n)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadFile, path, err)
	}
	return lines, nil
}

// TailText applies the same trailing-line selection to an in-memory string.
func TailText(text string, n int) []string {
	lines, _ := tail(strings.NewReader(text), n)
	return lines
}

// tail keeps a ring of the last n lines. Memory is bounded by n, not by
// file size, and lines of any length are kept whole. "\n", "\r\n" and a
// bare "\r" all end a line.
func tail(r io.Reader, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	ring := make([]string, 0, n)
	next := 0
	push := func(line string) {
		if len(ring) < n {
			ring = append(ring, line)
			return
		}
		ring[next] = line
		next = (next + 1) % n
	}

	br := bufio.NewReader(r)
	for {
		chunk, err := br.ReadString('\n')
		if len(chunk) > 0 {
			chunk = strings.TrimSuffix(chunk, "\n")
			chunk = strings.TrimSuffix(chunk, "\r")
			for _, line := range strings.Split(chunk, "\r") {
				push(line)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if len(ring) < n {
		return ring, nil
	}
	out := make([]string, 0, n)
	out = append(out, ring[next:]...)
	out = append(out, ring[:next]...)
	return out, nil
}
