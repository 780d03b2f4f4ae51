// Package datastream provides a protocol-agnostic, pull-based byte stream
// abstraction for streaming blob members.
//
// It generalizes the rewindable-stream pattern from the HTTP transport
// request type (stream/isStreamSeekable/streamStartPos, RewindStream,
// SetStream) to any member that carries a large or unbounded payload,
// independent of any particular wire protocol.
package datastream

import (
	"bytes"
	"fmt"
	"io"
)

// DataStream wraps an io.Reader carrying a streaming blob member, along
// with the metadata a codec needs to write it out: content type, content
// length (when known), and whether it may be rewound and re-read.
type DataStream struct {
	r    io.Reader
	seek io.Seeker

	contentType   string
	contentLength int64 // -1 if unknown

	startPos int64
	seekable bool

	closed bool
}

// New wraps r as a DataStream. If r implements io.Seeker, the stream is
// marked seekable and its current offset is recorded as the rewind point.
func New(r io.Reader, contentType string, contentLength int64) *DataStream {
	d := &DataStream{r: r, contentType: contentType, contentLength: contentLength}
	if s, ok := r.(io.Seeker); ok {
		if n, err := s.Seek(0, io.SeekCurrent); err == nil {
			d.seek = s
			d.seekable = true
			d.startPos = n
		}
	}
	return d
}

// NewFromBytes builds a seekable DataStream over an in-memory buffer, with
// content length set automatically.
func NewFromBytes(b []byte, contentType string) *DataStream {
	return New(bytes.NewReader(b), contentType, int64(len(b)))
}

// ContentType returns the stream's declared content type, or "" if unset.
func (d *DataStream) ContentType() string { return d.contentType }

// ContentLength returns the stream's declared length, or -1 if unknown.
func (d *DataStream) ContentLength() int64 { return d.contentLength }

// Seekable reports whether Rewind can succeed.
func (d *DataStream) Seekable() bool { return d.seekable }

// Read implements io.Reader, delegating to the wrapped stream. Reading from
// a closed stream returns io.ErrClosedPipe.
func (d *DataStream) Read(p []byte) (int, error) {
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	return d.r.Read(p)
}

// Rewind seeks the underlying reader back to the position it was at when
// the DataStream was constructed. It fails if the stream is not seekable.
func (d *DataStream) Rewind() error {
	if !d.seekable {
		return fmt.Errorf("datastream: stream is not seekable")
	}
	_, err := d.seek.Seek(d.startPos, io.SeekStart)
	return err
}

// Close closes the underlying stream if it implements io.Closer. Close is
// idempotent: calling it more than once is a no-op after the first call.
func (d *DataStream) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReadAllError is returned by ReadToBytes/ReadToString when the stream
// exceeds the caller-supplied bound.
type ReadAllError struct {
	Limit int64
}

func (e *ReadAllError) Error() string {
	return fmt.Sprintf("datastream: exceeds %d byte limit", e.Limit)
}

// ReadToBytes reads the entire stream into memory, up to limit bytes. A
// stream longer than limit returns a ReadAllError. limit <= 0 means
// unbounded.
func (d *DataStream) ReadToBytes(limit int64) ([]byte, error) {
	var r io.Reader = d
	if limit > 0 {
		r = io.LimitReader(d, limit+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(b)) > limit {
		return nil, &ReadAllError{Limit: limit}
	}
	return b, nil
}

// ReadToString is ReadToBytes with a string result.
func (d *DataStream) ReadToString(limit int64) (string, error) {
	b, err := d.ReadToBytes(limit)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
