package runtime

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDoneReaderClosesOnEOF(t *testing.T) {
	dr := newDoneReader(strings.NewReader("payload"))

	if _, err := io.ReadAll(dr); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	select {
	case <-dr.done:
	default:
		t.Fatal("done not closed after EOF")
	}

	// Further reads at EOF must not panic on a second close.
	if _, err := dr.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("Read after EOF = %v, want io.EOF", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestDoneReaderClosesOnReadError(t *testing.T) {
	dr := newDoneReader(failingReader{})

	if _, err := io.Copy(io.Discard, dr); err == nil {
		t.Fatal("expected error")
	}

	select {
	case <-dr.done:
	default:
		t.Fatal("done not closed after read error")
	}
	if err := dr.Err(); err == nil || err.Error() != "boom" {
		t.Fatalf("Err() = %v, want boom", err)
	}
}

func TestDoneReaderErrNilAtEOF(t *testing.T) {
	dr := newDoneReader(strings.NewReader("x"))
	if err := dr.Err(); err != nil {
		t.Fatalf("Err() before end = %v, want nil", err)
	}

	io.ReadAll(dr)
	if err := dr.Err(); err != nil {
		t.Fatalf("Err() at EOF = %v, want nil", err)
	}
}
