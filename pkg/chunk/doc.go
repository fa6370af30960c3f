// Package chunk implements PNG-style chunk type codes and chunk frames.
//
// A chunk pairs a 4-byte type code with an arbitrary payload and protects
// both with a CRC-32 checksum. This is the building block the png and
// message packages use to read, extend and rewrite PNG files.
//
// # Frame Format
//
// Chunks are serialized with the following structure:
//
//	[Length(4)][Type(4)][Data(Length)][CRC32(4)]
//
// Fields:
//   - Length: 32-bit unsigned payload size (big-endian)
//   - Type: 4 raw type code bytes
//   - Data: Length payload bytes, any content
//   - CRC32: CRC-32 (IEEE) over Type and Data (big-endian)
//
// The total frame size is 12 bytes + len(Data). A zero-length payload is
// allowed.
//
// # Type Codes
//
// Bit 5 of each type byte (the ASCII lowercase bit) carries a property:
//
//	byte 0: set = ancillary, clear = critical
//	byte 1: set = private,   clear = public
//	byte 2: reserved, must be clear
//	byte 3: set = safe to copy
//
// A type code is valid when all four bytes are ASCII letters and the
// reserved bit is clear. TypeFromBytes accepts any four bytes; ParseType
// only accepts ASCII letters.
//
// # Usage
//
//	c, err := chunk.NewFromString("RuSt", "hidden message")
//	if err != nil {
//	    return err
//	}
//
//	frame := c.Bytes()
//
//	parsed, err := chunk.Parse(frame)
//	if errors.Is(err, chunk.ErrChecksumMismatch) {
//	    return err // frame is corrupted
//	}
//
// # Error Handling
//
// Every failure wraps one of the sentinel errors (ErrInvalidLength,
// ErrInvalidCharacter, ErrEncoding, ErrTooShort, ErrLengthMismatch,
// ErrChecksumMismatch); use errors.Is or KindOf to classify them. Parse
// checks size, then the length field, then the checksum, and stops at the
// first failure.
//
// # Thread Safety
//
// ChunkType is a comparable value and Chunk is immutable after creation;
// both are safe to share between goroutines.
package chunk
