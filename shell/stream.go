package shell

import (
	"io"
	"sync/atomic"
	"time"
)

// stream turns a blocking pipe into an independently pollable byte
// channel. One goroutine owns the blocking reads; the poll side never
// blocks longer than its timeout.
type stream struct {
	ch   chan []byte
	done atomic.Bool
}

func newStream(r io.ReadCloser) *stream {
	s := &stream{ch: make(chan []byte, 32)}
	go func() {
		defer close(s.ch)
		defer r.Close()

		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				s.ch <- chunk
			}
			if err != nil {
				s.done.Store(true)
				return
			}
		}
	}()
	return s
}

// poll waits up to timeout for the first chunk, then drains whatever
// else is immediately available. Returns nil when nothing arrived.
func (s *stream) poll(timeout time.Duration) []byte {
	var out []byte

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case chunk, ok := <-s.ch:
		if !ok {
			return nil
		}
		out = append(out, chunk...)
	case <-t.C:
		return nil
	}

	for {
		select {
		case chunk, ok := <-s.ch:
			if !ok {
				return out
			}
			out = append(out, chunk...)
		default:
			return out
		}
	}
}

// closed reports whether the pipe reached EOF and everything buffered
// has been consumed.
func (s *stream) closed() bool {
	return s.done.Load() && len(s.ch) == 0
}
