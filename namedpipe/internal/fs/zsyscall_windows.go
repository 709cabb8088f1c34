//go:build windows

// Code generated by 'go generate' manually trimmed to the one
// CreateFile binding this package needs, in the style mkwinsyscall
// would produce for it.
package fs

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procCreateFileW = modkernel32.NewProc("CreateFileW")
)

func CreateFile(name string, access AccessMask, mode FileShareMode, sa *syscall.SecurityAttributes, createmode FileCreationDisposition, attrs FileAttribute, templatefile windows.Handle) (handle windows.Handle, err error) {
	var namep *uint16
	namep, err = windows.UTF16PtrFromString(name)
	if err != nil {
		return
	}
	r0, _, e1 := syscall.SyscallN(procCreateFileW.Addr(),
		uintptr(unsafe.Pointer(namep)),
		uintptr(access),
		uintptr(mode),
		uintptr(unsafe.Pointer(sa)),
		uintptr(createmode),
		uintptr(attrs),
		uintptr(templatefile))
	handle = windows.Handle(r0)
	if handle == windows.InvalidHandle {
		err = errnoErr(e1)
	}
	return
}

func errnoErr(e syscall.Errno) error {
	if e == 0 {
		return syscall.EINVAL
	}
	return e
}
