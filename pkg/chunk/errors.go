package chunk

import "errors"

// ErrorKind classifies chunk and chunk type failures
type ErrorKind int

const (
	KindInvalidLength ErrorKind = iota + 1
	KindInvalidCharacter
	KindEncoding
	KindTooShort
	KindLengthMismatch
	KindChecksumMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidLength:
		return "invalid_length"
	case KindInvalidCharacter:
		return "invalid_character"
	case KindEncoding:
		return "encoding_error"
	case KindTooShort:
		return "too_short"
	case KindLengthMismatch:
		return "length_mismatch"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	default:
		return "unknown"
	}
}

// FormatError represents a chunk format error
type FormatError struct {
	Kind    ErrorKind
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

// Errors
var (
	ErrInvalidLength    = &FormatError{KindInvalidLength, "chunk type must be exactly 4 bytes"}
	ErrInvalidCharacter = &FormatError{KindInvalidCharacter, "chunk type must contain only ASCII letters"}
	ErrEncoding         = &FormatError{KindEncoding, "bytes are not valid UTF-8"}
	ErrTooShort         = &FormatError{KindTooShort, "chunk shorter than 12-byte minimum frame"}
	ErrLengthMismatch   = &FormatError{KindLengthMismatch, "chunk length field does not match buffer size"}
	ErrChecksumMismatch = &FormatError{KindChecksumMismatch, "chunk CRC32 mismatch"}
)

// KindOf returns the kind of the first FormatError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
