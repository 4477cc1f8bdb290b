package runtime

import (
	"io"
	"sync"
)

// Wraps an [io.Reader] and closes done on the first error it returns,
// [io.EOF] included. A non-EOF error is kept and reported by Err.
type doneReader struct {
	r    io.Reader
	once sync.Once
	err  error
	done chan struct{}
}

func newDoneReader(r io.Reader) *doneReader {
	return &doneReader{r: r, done: make(chan struct{})}
}

func (d *doneReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil {
		d.once.Do(func() {
			if err != io.EOF {
				d.err = err
			}
			close(d.done)
		})
	}
	return n, err
}

// Returns the error that ended the stream, or nil when it ended at EOF or
// has not ended yet.
func (d *doneReader) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}
