package png

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ssargent/pngme/pkg/chunk"
)

// Png is a PNG file viewed as its signature followed by an ordered list
// of chunks. Pixel data is never decoded.
type Png struct {
	chunks []*chunk.Chunk
}

// New creates a PNG from chunks in file order
func New(chunks ...*chunk.Chunk) *Png {
	p := &Png{chunks: make([]*chunk.Chunk, 0, len(chunks))}
	p.chunks = append(p.chunks, chunks...)
	return p
}

// Parse decodes a complete PNG file held in memory
func Parse(b []byte) (*Png, error) {
	if len(b) < SignatureSize || !bytes.Equal(b[:SignatureSize], Signature[:]) {
		return nil, ErrInvalidSignature
	}

	p := New()
	offset := SignatureSize
	for offset < len(b) {
		remaining := len(b) - offset
		if remaining < chunk.LengthSize+chunk.TypeSize {
			return nil, fmt.Errorf("%w at offset %d: %d trailing bytes", ErrTruncated, offset, remaining)
		}

		length := binary.BigEndian.Uint32(b[offset:])
		frameSize := uint64(length) + chunk.OverheadSize
		if uint64(remaining) < frameSize {
			return nil, fmt.Errorf("%w at offset %d: frame needs %d bytes, %d left", ErrTruncated, offset, frameSize, remaining)
		}

		c, err := chunk.Parse(b[offset : offset+int(frameSize)])
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %d: %w", offset, err)
		}
		p.chunks = append(p.chunks, c)
		offset += int(frameSize)
	}

	return p, nil
}

// Decode reads a PNG stream chunk by chunk
func Decode(r io.Reader, config ReaderConfig) (*Png, error) {
	reader, err := NewReader(r, config)
	if err != nil {
		return nil, err
	}

	chunks, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	return New(chunks...), nil
}

// ReadFile streams the PNG at path through a Reader configured by config
func ReadFile(path string, config ReaderConfig) (*Png, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	p, err := Decode(f, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return p, nil
}

// WriteFile serializes p to path, replacing any existing file
func WriteFile(path string, p *Png) error {
	if err := os.WriteFile(path, p.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Header returns the PNG signature
func (p *Png) Header() [SignatureSize]byte {
	return Signature
}

// Chunks returns the chunks in file order
func (p *Png) Chunks() []*chunk.Chunk {
	out := make([]*chunk.Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

// Len returns the number of chunks
func (p *Png) Len() int {
	return len(p.chunks)
}

// AppendChunk adds a chunk at the end of the file
func (p *Png) AppendChunk(c *chunk.Chunk) {
	p.chunks = append(p.chunks, c)
}

// RemoveFirstChunk removes and returns the first chunk of the given type
func (p *Png) RemoveFirstChunk(typ string) (*chunk.Chunk, error) {
	ct, err := chunk.TypeFromSlice([]byte(typ))
	if err != nil {
		return nil, err
	}

	for i, c := range p.chunks {
		if c.Type() == ct {
			p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, typ)
}

// ChunkByType returns the first chunk of the given type, or nil
func (p *Png) ChunkByType(typ string) *chunk.Chunk {
	ct, err := chunk.TypeFromSlice([]byte(typ))
	if err != nil {
		return nil
	}

	for _, c := range p.chunks {
		if c.Type() == ct {
			return c
		}
	}
	return nil
}

// ChunksByType returns every chunk of the given type in file order
func (p *Png) ChunksByType(typ string) []*chunk.Chunk {
	ct, err := chunk.TypeFromSlice([]byte(typ))
	if err != nil {
		return nil
	}

	var out []*chunk.Chunk
	for _, c := range p.chunks {
		if c.Type() == ct {
			out = append(out, c)
		}
	}
	return out
}

// Size returns the encoded size of the file in bytes
func (p *Png) Size() int {
	size := SignatureSize
	for _, c := range p.chunks {
		size += c.Size()
	}
	return size
}

// WriteTo implements io.WriterTo
func (p *Png) WriteTo(w io.Writer) (int64, error) {
	writer := NewWriter(w)
	if err := writer.WriteHeader(); err != nil {
		return writer.Size(), err
	}
	for _, c := range p.chunks {
		if _, err := writer.WriteChunk(c); err != nil {
			return writer.Size(), err
		}
	}
	if err := writer.Flush(); err != nil {
		return writer.Size(), err
	}
	return writer.Size(), nil
}

// Bytes serializes the signature followed by every chunk frame
func (p *Png) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, p.Size()))
	// bytes.Buffer writes cannot fail
	_, _ = p.WriteTo(buf)
	return buf.Bytes()
}

func (p *Png) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Png{%d chunks}\n", len(p.chunks))
	for _, c := range p.chunks {
		fmt.Fprintf(&sb, "  %s\n", c)
	}
	return sb.String()
}
