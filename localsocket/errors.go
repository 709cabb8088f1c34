package localsocket

import "errors"

// Kind classifies local-socket errors. Engines return plain
// *os.SyscallError / syscall.Errno / os.PathError wherever possible
// (so errors.Is against os.ErrDeadlineExceeded etc. keeps working);
// Kind is for the handful of cases — AddressInvalid,
// MessageBoundariesLost, QuotaExceeded — that have no stdlib sentinel.
type Kind int

const (
	KindUnknown Kind = iota
	KindAddressInvalid
	KindAddressInUse
	KindUnsupported
	KindWouldBlock
	KindBrokenPipe
	KindMessageBoundariesLost
	KindQuotaExceeded
	KindInvalidData
	KindConnectionReset
	KindTimeout
	KindInvalidInput
)

// Error wraps an underlying OS error with a Kind for callers that
// want to branch on the portable error surface instead of digging
// through syscall.Errno values per platform.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return "localsocket: " + msg
	}
	return "localsocket: " + e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

func (k Kind) String() string {
	switch k {
	case KindAddressInvalid:
		return "address invalid"
	case KindAddressInUse:
		return "address in use"
	case KindUnsupported:
		return "unsupported"
	case KindWouldBlock:
		return "would block"
	case KindBrokenPipe:
		return "broken pipe"
	case KindMessageBoundariesLost:
		return "message boundaries lost"
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindInvalidData:
		return "invalid data"
	case KindConnectionReset:
		return "connection reset"
	case KindTimeout:
		return "timed out"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "unknown"
	}
}

// ErrUnsupported is returned by facade operations that have no
// meaning on the active platform's engine (e.g. recv/send timeouts on
// a namedpipe.Stream).
var ErrUnsupported = &Error{Kind: KindUnsupported}

// Is makes errors.Is(err, localsocket.ErrUnsupported) work for any
// *Error sharing a Kind, not just the exact sentinel value.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}
