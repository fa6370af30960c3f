package png

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/pngme/pkg/chunk"
)

// Reader provides sequential access to the chunks of a PNG stream.
// Each frame is buffered in full before it is parsed.
type Reader struct {
	reader *bufio.Reader
	offset int64
	config ReaderConfig
}

// NewReader creates a chunk reader and consumes the PNG signature unless
// config.SkipHeader is set
func NewReader(r io.Reader, config ReaderConfig) (*Reader, error) {
	reader := &Reader{
		reader: bufio.NewReader(r),
		config: config,
	}

	if !config.SkipHeader {
		var sig [SignatureSize]byte
		n, err := io.ReadFull(reader.reader, sig[:])
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidSignature, n)
			}
			return nil, err
		}
		if sig != Signature {
			return nil, ErrInvalidSignature
		}
		reader.offset = SignatureSize
	}

	return reader, nil
}

// ReadNext reads the next chunk. It returns io.EOF when the stream ends
// cleanly on a chunk boundary.
func (r *Reader) ReadNext() (*chunk.Chunk, error) {
	start := r.offset

	// Length and type
	header := make([]byte, chunk.LengthSize+chunk.TypeSize)
	n, err := io.ReadFull(r.reader, header)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w at offset %d: %d of %d header bytes", ErrTruncated, start, n, len(header))
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[0:chunk.LengthSize])
	if r.config.MaxChunkSize > 0 && length > r.config.MaxChunkSize {
		return nil, fmt.Errorf("%w at offset %d: %d > %d", ErrChunkTooLarge, start, length, r.config.MaxChunkSize)
	}

	frame := make([]byte, chunk.OverheadSize+int(length))
	copy(frame, header)
	if _, err := io.ReadFull(r.reader, frame[len(header):]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w at offset %d: %s chunk declares %d bytes", ErrTruncated, start, chunkTypeOf(header), length)
		}
		return nil, err
	}
	r.offset += int64(len(frame))

	c, err := chunk.Parse(frame)
	if err != nil {
		return nil, fmt.Errorf("chunk at offset %d: %w", start, err)
	}

	return c, nil
}

// ReadAll reads chunks until the end of the stream
func (r *Reader) ReadAll() ([]*chunk.Chunk, error) {
	var chunks []*chunk.Chunk
	it := r.Iterator()
	for it.Next() {
		chunks = append(chunks, it.Chunk())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Offset returns the current read offset
func (r *Reader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator for chunks
func (r *Reader) Iterator() ChunkIterator {
	return &chunkIterator{reader: r}
}

func chunkTypeOf(header []byte) chunk.ChunkType {
	t, _ := chunk.TypeFromSlice(header[chunk.LengthSize:])
	return t
}

// chunkIterator implements ChunkIterator; io.EOF ends iteration without error
type chunkIterator struct {
	reader *Reader
	chunk  *chunk.Chunk
	err    error
}

func (it *chunkIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.chunk, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *chunkIterator) Chunk() *chunk.Chunk {
	return it.chunk
}

func (it *chunkIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}
