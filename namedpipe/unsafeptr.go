//go:build windows

package namedpipe

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func unsafePointerFromOverlapped(o *windows.Overlapped) unsafe.Pointer {
	return unsafe.Pointer(o)
}
