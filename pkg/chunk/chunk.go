package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf8"
)

// Frame field sizes
const (
	LengthSize   = 4
	CRCSize      = 4
	OverheadSize = LengthSize + TypeSize + CRCSize
)

// Chunk is a typed payload with a CRC32 over type and payload.
// Chunks are immutable after creation.
type Chunk struct {
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// New creates a chunk from a type and payload. The payload is copied.
func New(t ChunkType, data []byte) *Chunk {
	owned := make([]byte, len(data))
	copy(owned, data)
	return &Chunk{
		chunkType: t,
		data:      owned,
		crc:       Checksum(t, owned),
	}
}

// NewFromString parses typ with ParseType and wraps message as the payload
func NewFromString(typ, message string) (*Chunk, error) {
	t, err := ParseType(typ)
	if err != nil {
		return nil, err
	}
	return New(t, []byte(message)), nil
}

// Checksum computes the CRC-32 (IEEE) over the type bytes followed by data
func Checksum(t ChunkType, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(t[:])
	crc.Write(data)
	return crc.Sum32()
}

// Parse decodes a single chunk frame.
// Format: [Length(4)][Type(4)][Data(Length)][CRC32(4)], integers big-endian.
// The buffer must contain exactly one frame and the stored CRC must match.
func Parse(b []byte) (*Chunk, error) {
	if len(b) < OverheadSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTooShort, len(b))
	}

	declared := binary.BigEndian.Uint32(b[0:LengthSize])
	if uint64(len(b)) != uint64(declared)+OverheadSize {
		return nil, fmt.Errorf("%w: declared %d, buffer holds %d payload bytes",
			ErrLengthMismatch, declared, len(b)-OverheadSize)
	}

	dataStart := LengthSize + TypeSize
	dataEnd := dataStart + int(declared)

	t, err := TypeFromSlice(b[LengthSize:dataStart])
	if err != nil {
		return nil, err
	}

	data := make([]byte, declared)
	copy(data, b[dataStart:dataEnd])

	stored := binary.BigEndian.Uint32(b[dataEnd:])
	if computed := crc32.ChecksumIEEE(b[LengthSize:dataEnd]); computed != stored {
		return nil, fmt.Errorf("%w: stored %d, computed %d", ErrChecksumMismatch, stored, computed)
	}

	return &Chunk{
		chunkType: t,
		data:      data,
		crc:       stored,
	}, nil
}

// Bytes serializes the chunk into its wire frame
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, c.Size())
	binary.BigEndian.PutUint32(buf[0:], c.Length())
	copy(buf[LengthSize:], c.chunkType[:])
	copy(buf[LengthSize+TypeSize:], c.data)
	binary.BigEndian.PutUint32(buf[LengthSize+TypeSize+len(c.data):], c.crc)
	return buf
}

// Length returns the payload size in bytes
func (c *Chunk) Length() uint32 {
	return uint32(len(c.data))
}

// Type returns the chunk type code
func (c *Chunk) Type() ChunkType {
	return c.chunkType
}

// Data returns the payload. The returned slice must not be modified.
func (c *Chunk) Data() []byte {
	return c.data
}

// CRC returns the chunk checksum
func (c *Chunk) CRC() uint32 {
	return c.crc
}

// Size returns the total size of the chunk when encoded
func (c *Chunk) Size() int {
	return OverheadSize + len(c.data)
}

// DataString renders the payload as text, failing with ErrEncoding when
// the payload is not valid UTF-8.
func (c *Chunk) DataString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", fmt.Errorf("%w: %s chunk payload", ErrEncoding, c.chunkType)
	}
	return string(c.data), nil
}

// Equal reports whether both chunks have the same type, payload and CRC
func (c *Chunk) Equal(other *Chunk) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.chunkType == other.chunkType &&
		c.crc == other.crc &&
		bytes.Equal(c.data, other.data)
}

func (c *Chunk) String() string {
	return fmt.Sprintf("Chunk{Length: %d, Type: %s, CRC: %d}", c.Length(), c.chunkType, c.crc)
}
