//go:build unix

package creds

// FileDescriptors wraps a slice of file descriptors for ancillary
// (SCM_RIGHTS) transfer. A FileDescriptors built for sending borrows
// the slice it's given — the caller keeps owning the descriptors. A
// FileDescriptors produced by decoding a received message uniquely
// owns them: Close (or a caller pulling them out via Take) is
// required, otherwise they leak; nothing auto-closes them on GC,
// since a received descriptor is a live kernel resource that must
// never be duplicated or dropped implicitly.
type FileDescriptors struct {
	fds   []int
	owned bool
	taken bool
}

// BorrowFDs wraps fds for sending; the slice is not copied, so the
// caller must not mutate it until the send completes.
func BorrowFDs(fds []int) FileDescriptors {
	return FileDescriptors{fds: fds}
}

// ReceivedFDs wraps fds decoded from a SCM_RIGHTS message. The
// returned value owns them.
func ReceivedFDs(fds []int) FileDescriptors {
	return FileDescriptors{fds: fds, owned: true}
}

// FDs returns the wrapped descriptors without transferring ownership.
func (f *FileDescriptors) FDs() []int { return f.fds }

// Take transfers ownership to the caller: subsequent Close calls on
// f become no-ops. Only meaningful for a received FileDescriptors.
func (f *FileDescriptors) Take() []int {
	f.taken = true
	return f.fds
}

// Close closes every descriptor still owned and not yet taken. It is
// a no-op for a borrowed (send-side) FileDescriptors or one whose
// descriptors were already taken.
func (f *FileDescriptors) Close() error {
	if !f.owned || f.taken {
		return nil
	}
	var firstErr error
	for _, fd := range f.fds {
		if err := closeFD(fd); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.taken = true
	return firstErr
}
