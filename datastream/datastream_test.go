package datastream

import (
	"bytes"
	"io"
	"testing"
)

func TestRewind(t *testing.T) {
	cases := map[string]struct {
		Stream    io.Reader
		ExpectErr string
	}{
		"rewindable": {
			Stream: bytes.NewReader([]byte("hello")),
		},
		"not rewindable": {
			Stream:    bytes.NewBuffer([]byte("hello")),
			ExpectErr: "not seekable",
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			d := New(c.Stream, "application/octet-stream", 5)

			buf := make([]byte, 5)
			if _, err := io.ReadFull(d, buf); err != nil {
				t.Fatalf("read: %v", err)
			}

			err := d.Rewind()
			if len(c.ExpectErr) > 0 {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("expect no error rewinding, got %v", err)
			}

			buf2 := make([]byte, 5)
			if _, err := io.ReadFull(d, buf2); err != nil {
				t.Fatalf("re-read after rewind: %v", err)
			}
			if string(buf2) != "hello" {
				t.Errorf("expect hello after rewind, got %q", buf2)
			}
		})
	}
}

func TestReadToBytesLimit(t *testing.T) {
	d := NewFromBytes([]byte("0123456789"), "text/plain")
	if _, err := d.ReadToBytes(5); err == nil {
		t.Fatalf("expect limit error")
	}

	d2 := NewFromBytes([]byte("0123456789"), "text/plain")
	b, err := d2.ReadToBytes(10)
	if err != nil {
		t.Fatalf("expect no error, got %v", err)
	}
	if string(b) != "0123456789" {
		t.Errorf("expect full contents, got %q", b)
	}
}

func TestCloseIdempotent(t *testing.T) {
	d := NewFromBytes([]byte("x"), "")
	if err := d.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := d.Read(make([]byte, 1)); err != io.ErrClosedPipe {
		t.Errorf("expect ErrClosedPipe after close, got %v", err)
	}
}
