package chunk

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// TypeSize is the width of a chunk type code in bytes
const TypeSize = 4

// flagBit is bit 5 of a type byte, the ASCII case bit
const flagBit = 0b0010_0000

// ChunkType is a 4-byte chunk type code. Property flags are carried by
// bit 5 of each byte, so the letter case of the code is significant.
type ChunkType [TypeSize]byte

// TypeFromBytes wraps four raw bytes. No validation is performed; use
// IsValid to check conformance.
func TypeFromBytes(b [TypeSize]byte) ChunkType {
	return ChunkType(b)
}

// TypeFromSlice builds a type code from a byte slice, which must hold
// exactly four bytes. The bytes themselves are not validated.
func TypeFromSlice(b []byte) (ChunkType, error) {
	if len(b) != TypeSize {
		return ChunkType{}, fmt.Errorf("%w: got %d", ErrInvalidLength, len(b))
	}
	var t ChunkType
	copy(t[:], b)
	return t, nil
}

// ParseType builds a type code from text. The text must be exactly four
// bytes long and every byte must be an ASCII letter.
func ParseType(s string) (ChunkType, error) {
	if len(s) != TypeSize {
		return ChunkType{}, fmt.Errorf("%w: %q is %d bytes", ErrInvalidLength, s, len(s))
	}
	var t ChunkType
	for i := 0; i < TypeSize; i++ {
		if !isASCIILetter(s[i]) {
			return ChunkType{}, fmt.Errorf("%w: byte %d of %q is 0x%02x", ErrInvalidCharacter, i, s, s[i])
		}
		t[i] = s[i]
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error. Intended for
// package-level variables and tests.
func MustParseType(s string) ChunkType {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// Bytes returns the raw type bytes
func (t ChunkType) Bytes() [TypeSize]byte {
	return t
}

// IsValid reports whether all bytes are ASCII letters and the reserved
// bit is clear.
func (t ChunkType) IsValid() bool {
	for _, b := range t {
		if !isASCIILetter(b) {
			return false
		}
	}
	return t.IsReservedBitValid()
}

// IsCritical reports whether bit 5 of the first byte is clear.
// Ancillary chunks have it set.
func (t ChunkType) IsCritical() bool {
	return t[0]&flagBit == 0
}

// IsPublic reports whether bit 5 of the second byte is clear.
// Private chunks have it set.
func (t ChunkType) IsPublic() bool {
	return t[1]&flagBit == 0
}

// IsReservedBitValid reports whether bit 5 of the third byte is clear,
// which conforming type codes require.
func (t ChunkType) IsReservedBitValid() bool {
	return t[2]&flagBit == 0
}

// IsSafeToCopy reports whether bit 5 of the fourth byte is set.
func (t ChunkType) IsSafeToCopy() bool {
	return t[3]&flagBit != 0
}

// Equal reports whether both codes hold the same bytes
func (t ChunkType) Equal(other ChunkType) bool {
	return t == other
}

// Text renders the code as a string. It fails with ErrEncoding when the
// bytes are not valid UTF-8, which is only possible for codes built
// from raw bytes.
func (t ChunkType) Text() (string, error) {
	if !utf8.Valid(t[:]) {
		return "", fmt.Errorf("%w: type bytes %s", ErrEncoding, hex.EncodeToString(t[:]))
	}
	return string(t[:]), nil
}

// String implements fmt.Stringer. Codes that are not valid UTF-8 are
// rendered as hex.
func (t ChunkType) String() string {
	s, err := t.Text()
	if err != nil {
		return "0x" + hex.EncodeToString(t[:])
	}
	return s
}

// MarshalText implements encoding.TextMarshaler
func (t ChunkType) MarshalText() ([]byte, error) {
	s, err := t.Text()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseType rules
func (t *ChunkType) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
