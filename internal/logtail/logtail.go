package logtail

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxLines bounds a Buffer created with a non-positive limit.
const DefaultMaxLines = 20000

// Tail returns at most maxLines from the end of r. A non-positive maxLines
// returns every line.
func Tail(r io.Reader, maxLines int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Buffer accumulates a streamed log. Chunks may split lines anywhere; the
// unterminated tail is kept until the rest arrives. Only the newest maxLines
// complete lines are retained.
type Buffer struct {
	maxLines int
	lines    []string
	partial  string
	dropped  int
}

// NewBuffer returns an empty buffer keeping at most maxLines lines.
func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Buffer{maxLines: maxLines}
}

// Append adds a chunk of log text.
func (b *Buffer) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	text := b.partial + strings.ReplaceAll(string(chunk), "\r\n", "\n")
	parts := strings.Split(text, "\n")
	b.partial = parts[len(parts)-1]
	b.lines = append(b.lines, parts[:len(parts)-1]...)
	if over := len(b.lines) - b.maxLines; over > 0 {
		b.lines = append([]string(nil), b.lines[over:]...)
		b.dropped += over
	}
}

// Lines returns the retained lines, including an unterminated last line.
func (b *Buffer) Lines() []string {
	out := make([]string, 0, len(b.lines)+1)
	out = append(out, b.lines...)
	if b.partial != "" {
		out = append(out, b.partial)
	}
	return out
}

// Len returns the number of lines Lines would return.
func (b *Buffer) Len() int {
	n := len(b.lines)
	if b.partial != "" {
		n++
	}
	return n
}

// Dropped returns how many old lines were discarded to respect the limit.
func (b *Buffer) Dropped() int {
	return b.dropped
}

// String joins the retained lines.
func (b *Buffer) String() string {
	return strings.Join(b.Lines(), "\n")
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.lines = nil
	b.partial = ""
	b.dropped = 0
}
