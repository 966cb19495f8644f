package pg0vm

import (
	"bufio"
	"context"
	"io"
	"sync"
)

type lineResult struct {
	line string
	err  error
}

// LineReader reads lines on one goroutine, started by the first request.
// A line that arrives after its caller gave up is kept for the next caller.
// It is used from one goroutine at a time.
type LineReader struct {
	r        *bufio.Reader
	start    sync.Once
	requests chan struct{}
	results  chan lineResult
	pending  bool
	closed   bool
}

func NewLineReader(r io.Reader) *LineReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &LineReader{
		r:        br,
		requests: make(chan struct{}, 1),
		results:  make(chan lineResult, 1),
	}
}

func (l *LineReader) loop() {
	for range l.requests {
		line, err := l.r.ReadString('\n')
		l.results <- lineResult{
			line: line,
			err:  err,
		}
	}
}

// ReadLine returns the next line including its terminator.
// ok is false when ctx is done before a line arrives, or the reader is closed.
func (l *LineReader) ReadLine(ctx context.Context) (line string, ok bool, err error) {
	if l.closed {
		return "", false, nil
	}
	l.start.Do(func() {
		go l.loop()
	})
	if !l.pending {
		l.requests <- struct{}{}
		l.pending = true
	}
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case res := <-l.results:
		l.pending = false
		return res.line, true, res.err
	case <-done:
		return "", false, nil
	}
}

// Close stops the reading goroutine once its current read, if any, returns.
func (l *LineReader) Close() {
	if l.closed {
		return
	}
	l.closed = true
	close(l.requests)
}
