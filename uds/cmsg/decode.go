//go:build unix

package cmsg

import "fmt"

// ParseError wraps a decoding failure for a specific Cmsg record,
// carrying the raw record back to the caller so it can fall back to
// inspecting Level/Type/Data itself rather than losing the message.
type ParseError struct {
	Cmsg Cmsg
	Kind ParseErrorKind
	Err  error
}

// ParseErrorKind classifies why a typed Decode call rejected a
// record.
type ParseErrorKind int

const (
	// WrongLevel means Cmsg.Level didn't match what the decoder expects.
	WrongLevel ParseErrorKind = iota
	// WrongType means Cmsg.Level matched but Cmsg.Type didn't.
	WrongType
	// InsufficientContext means the record was too short to contain
	// the fixed-size payload the decoder expects.
	InsufficientContext
	// MalformedPayload means the payload was the right size and
	// level/type but failed a decoder-specific structural check.
	MalformedPayload
)

func (e *ParseError) Error() string {
	switch e.Kind {
	case WrongLevel:
		return fmt.Sprintf("cmsg: unexpected level %d", e.Cmsg.Level)
	case WrongType:
		return fmt.Sprintf("cmsg: unexpected type %d for level %d", e.Cmsg.Type, e.Cmsg.Level)
	case InsufficientContext:
		return fmt.Sprintf("cmsg: payload too short (%d bytes)", len(e.Cmsg.Data))
	default:
		return fmt.Sprintf("cmsg: malformed payload: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decoder turns one Cmsg record into a typed value T, or reports why
// it couldn't. Each ancillary-data kind (file descriptors,
// credentials, ...) supplies its own Decoder built around a fixed
// (level, type) pair.
type Decoder[T any] struct {
	Level   int32
	Type    int32
	Decode  func(data []byte) (T, error)
	MinSize int
}

// Decode applies d to m, classifying any rejection into a *ParseError
// that still carries m back to the caller.
func Decode[T any](d Decoder[T], m Cmsg) (T, error) {
	var zero T
	if m.Level != d.Level {
		return zero, &ParseError{Cmsg: m, Kind: WrongLevel}
	}
	if m.Type != d.Type {
		return zero, &ParseError{Cmsg: m, Kind: WrongType}
	}
	if len(m.Data) < d.MinSize {
		return zero, &ParseError{Cmsg: m, Kind: InsufficientContext}
	}
	v, err := d.Decode(m.Data)
	if err != nil {
		return zero, &ParseError{Cmsg: m, Kind: MalformedPayload, Err: err}
	}
	return v, nil
}
