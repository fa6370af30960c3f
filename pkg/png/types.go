package png

import "github.com/ssargent/pngme/pkg/chunk"

// SignatureSize is the length of the PNG file signature
const SignatureSize = 8

// Signature is the fixed 8-byte header every PNG file starts with
var Signature = [SignatureSize]byte{137, 80, 78, 71, 13, 10, 26, 10}

// ReaderConfig holds configuration for the chunk reader
type ReaderConfig struct {
	MaxChunkSize uint32 // Largest payload accepted (0 = no limit)
	SkipHeader   bool   // Input starts at the first chunk, not the signature
}

// ChunkIterator provides streaming access to chunks
type ChunkIterator interface {
	Next() bool
	Chunk() *chunk.Chunk
	Err() error
}

// Errors
var (
	ErrInvalidSignature = &PngError{"invalid PNG signature"}
	ErrTruncated        = &PngError{"truncated chunk"}
	ErrChunkTooLarge    = &PngError{"chunk exceeds size limit"}
	ErrChunkNotFound    = &PngError{"chunk not found"}
)

// PngError represents a PNG container error
type PngError struct {
	Message string
}

func (e *PngError) Error() string {
	return e.Message
}
