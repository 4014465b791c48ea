// Package history keeps past command lines in a bounded ring, newest
// first, with optional file persistence between sessions.
package history

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultCapacity bounds the ring when the configuration does not say
// otherwise.
const DefaultCapacity = 500

// Ring is a fixed-capacity command history. At(0) is always the most
// recently pushed entry; pushing at capacity evicts the oldest.
type Ring struct {
	entries  []string
	capacity int
	pos      int // next write position
	full     bool
}

// NewRing creates a history ring with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		entries:  make([]string, capacity),
		capacity: capacity,
	}
}

// Push records a command line. Blank lines and immediate duplicates of
// the newest entry are dropped.
func (r *Ring) Push(line string) {
	line = strings.TrimRight(line, "\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	if r.Len() > 0 && r.At(0) == line {
		return
	}

	r.entries[r.pos] = line
	r.pos = (r.pos + 1) % r.capacity
	if r.pos == 0 {
		r.full = true
	}
}

// Len returns the number of stored entries, at most the capacity.
func (r *Ring) Len() int {
	if r.full {
		return r.capacity
	}
	return r.pos
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return r.capacity
}

// At returns the i-th entry counting back from the newest (At(0)).
// Out-of-range indices return "".
func (r *Ring) At(i int) string {
	if i < 0 || i >= r.Len() {
		return ""
	}
	idx := (r.pos - 1 - i + 2*r.capacity) % r.capacity
	return r.entries[idx]
}

// Reset empties the ring.
func (r *Ring) Reset() {
	r.entries = make([]string, r.capacity)
	r.pos = 0
	r.full = false
}

// All returns the entries newest first.
func (r *Ring) All() []string {
	out := make([]string, r.Len())
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Search walks from index from toward older entries looking for the
// next one containing pattern as a substring. Returns the matching
// index, or -1 when nothing older matches.
func (r *Ring) Search(pattern string, from int) int {
	if pattern == "" {
		return -1
	}
	for i := from; i < r.Len(); i++ {
		if strings.Contains(r.At(i), pattern) {
			return i
		}
	}
	return -1
}

// Load reads persisted history from path, oldest line first. A missing
// file is not an error; the ring simply starts empty.
func (r *Ring) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		r.Push(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	return nil
}

// Append persists one command line to path.
func Append(path, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Clear truncates the persisted history file.
func Clear(path string) error {
	if err := os.Truncate(path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear history file: %w", err)
	}
	return nil
}
