//go:build unix

package uds

import "errors"

// Sentinel errors for the conditions that have no direct
// syscall.Errno equivalent. Syscall failures themselves are
// propagated verbatim (wrapped with os.NewSyscallError) so
// errors.Is(err, syscall.EADDRINUSE) etc. keeps working for callers
// who already know Unix errno values.
var (
	ErrAddressInvalid        = errors.New("uds: address invalid")
	ErrMessageBoundariesLost = errors.New("uds: message mode is not supported on UDS streams")
)
