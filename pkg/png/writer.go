package png

import (
	"bufio"
	"io"

	"github.com/ssargent/pngme/pkg/chunk"
)

// Writer appends chunk frames to a PNG stream. The signature is written
// before the first chunk.
type Writer struct {
	writer        *bufio.Writer
	offset        int64
	headerWritten bool
}

// NewWriter creates a chunk writer on top of w
func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: bufio.NewWriter(w)}
}

// WriteHeader writes the PNG signature if it has not been written yet
func (w *Writer) WriteHeader() error {
	if w.headerWritten {
		return nil
	}
	n, err := w.writer.Write(Signature[:])
	w.offset += int64(n)
	if err != nil {
		return err
	}
	w.headerWritten = true
	return nil
}

// WriteChunk appends a chunk and returns the offset where its frame starts
func (w *Writer) WriteChunk(c *chunk.Chunk) (int64, error) {
	if err := w.WriteHeader(); err != nil {
		return 0, err
	}

	chunkOffset := w.offset
	n, err := w.writer.Write(c.Bytes())
	w.offset += int64(n)
	if err != nil {
		return 0, err
	}

	return chunkOffset, nil
}

// Flush writes any buffered data to the underlying writer
func (w *Writer) Flush() error {
	return w.writer.Flush()
}

// Size returns the number of bytes written so far
func (w *Writer) Size() int64 {
	return w.offset
}
