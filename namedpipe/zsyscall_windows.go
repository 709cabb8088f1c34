//go:build windows

// Code generated by 'go generate' manually trimmed to the bindings
// this package actually calls, in the style mkwinsyscall would
// produce for them.
package namedpipe

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modntdll    = windows.NewLazySystemDLL("ntdll.dll")
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procConnectNamedPipe                                     = modkernel32.NewProc("ConnectNamedPipe")
	procDisconnectNamedPipe                                  = modkernel32.NewProc("DisconnectNamedPipe")
	procGetNamedPipeInfo                                     = modkernel32.NewProc("GetNamedPipeInfo")
	procGetNamedPipeClientProcessId                          = modkernel32.NewProc("GetNamedPipeClientProcessId")
	procGetNamedPipeServerProcessId                          = modkernel32.NewProc("GetNamedPipeServerProcessId")
	procGetNamedPipeHandleStateW                             = modkernel32.NewProc("GetNamedPipeHandleStateW")
	procSetNamedPipeHandleState                              = modkernel32.NewProc("SetNamedPipeHandleState")
	procNtCreateNamedPipeFile                                = modntdll.NewProc("NtCreateNamedPipeFile")
	procRtlNtStatusToDosErrorNoTeb                           = modntdll.NewProc("RtlNtStatusToDosErrorNoTeb")
	procRtlDosPathNameToNtPathName_U                         = modntdll.NewProc("RtlDosPathNameToNtPathName_U")
	procRtlDefaultNpAcl                                      = modntdll.NewProc("RtlDefaultNpAcl")
	procConvertStringSecurityDescriptorToSecurityDescriptorW = modadvapi32.NewProc("ConvertStringSecurityDescriptorToSecurityDescriptorW")
	procConvertSecurityDescriptorToStringSecurityDescriptorW = modadvapi32.NewProc("ConvertSecurityDescriptorToStringSecurityDescriptorW")
	procLocalFree                                            = modkernel32.NewProc("LocalFree")
	procGetSecurityDescriptorLength                          = modadvapi32.NewProc("GetSecurityDescriptorLength")
)

func connectNamedPipe(pipe windows.Handle, o *windows.Overlapped) (err error) {
	r1, _, e1 := syscall.SyscallN(procConnectNamedPipe.Addr(), uintptr(pipe), uintptr(unsafe.Pointer(o)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func disconnectNamedPipe(pipe windows.Handle) (err error) {
	r1, _, e1 := syscall.SyscallN(procDisconnectNamedPipe.Addr(), uintptr(pipe))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func getNamedPipeInfo(pipe windows.Handle, flags *uint32, outSize *uint32, inSize *uint32, maxInstances *uint32) (err error) {
	r1, _, e1 := syscall.SyscallN(procGetNamedPipeInfo.Addr(),
		uintptr(pipe), uintptr(unsafe.Pointer(flags)), uintptr(unsafe.Pointer(outSize)),
		uintptr(unsafe.Pointer(inSize)), uintptr(unsafe.Pointer(maxInstances)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func getNamedPipeClientProcessId(pipe windows.Handle, pid *uint32) (err error) {
	r1, _, e1 := syscall.SyscallN(procGetNamedPipeClientProcessId.Addr(), uintptr(pipe), uintptr(unsafe.Pointer(pid)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func getNamedPipeServerProcessId(pipe windows.Handle, pid *uint32) (err error) {
	r1, _, e1 := syscall.SyscallN(procGetNamedPipeServerProcessId.Addr(), uintptr(pipe), uintptr(unsafe.Pointer(pid)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func setNamedPipeHandleState(pipe windows.Handle, state *uint32, curInstances *uint32, collectDataTimeout *uint32) (err error) {
	r1, _, e1 := syscall.SyscallN(procSetNamedPipeHandleState.Addr(),
		uintptr(pipe), uintptr(unsafe.Pointer(state)), uintptr(unsafe.Pointer(curInstances)),
		uintptr(unsafe.Pointer(collectDataTimeout)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func ntCreateNamedPipeFile(pipe *windows.Handle, access ntAccessMask, oa *objectAttributes, iosb *ioStatusBlock, share ntFileShareMode, disposition ntFileCreationDisposition, options ntFileOptions, typ uint32, readMode uint32, completionMode uint32, maxInstances uint32, inboundQuota uint32, outputQuota uint32, timeout *int64) (status ntStatus) {
	r0, _, _ := syscall.SyscallN(procNtCreateNamedPipeFile.Addr(),
		uintptr(unsafe.Pointer(pipe)), uintptr(access), uintptr(unsafe.Pointer(oa)),
		uintptr(unsafe.Pointer(iosb)), uintptr(share), uintptr(disposition),
		uintptr(options), uintptr(typ), uintptr(readMode), uintptr(completionMode),
		uintptr(maxInstances), uintptr(inboundQuota), uintptr(outputQuota), uintptr(unsafe.Pointer(timeout)))
	return ntStatus(r0)
}

func rtlNtStatusToDosError(status ntStatus) (winerr error) {
	r0, _, _ := syscall.SyscallN(procRtlNtStatusToDosErrorNoTeb.Addr(), uintptr(status))
	if r0 != 0 {
		winerr = syscall.Errno(r0)
	}
	return
}

func rtlDosPathNameToNtPathName(name *uint16, ntName *unicodeString, filePart uintptr, reserved uintptr) (status ntStatus) {
	r0, _, _ := syscall.SyscallN(procRtlDosPathNameToNtPathName_U.Addr(),
		uintptr(unsafe.Pointer(name)), uintptr(unsafe.Pointer(ntName)), filePart, reserved)
	return ntStatus(r0)
}

func rtlDefaultNpAcl(dacl *uintptr) (status ntStatus) {
	r0, _, _ := syscall.SyscallN(procRtlDefaultNpAcl.Addr(), uintptr(unsafe.Pointer(dacl)))
	return ntStatus(r0)
}

func convertStringSecurityDescriptorToSecurityDescriptor(str string, revision uint32, sd *uintptr, size *uint32) (err error) {
	strp, err := windows.UTF16PtrFromString(str)
	if err != nil {
		return
	}
	r1, _, e1 := syscall.SyscallN(procConvertStringSecurityDescriptorToSecurityDescriptorW.Addr(),
		uintptr(unsafe.Pointer(strp)), uintptr(revision), uintptr(unsafe.Pointer(sd)), uintptr(unsafe.Pointer(size)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func convertSecurityDescriptorToStringSecurityDescriptor(sd *byte, revision uint32, secInfo uint32, sddl **uint16, sddlSize *uint32) (err error) {
	r1, _, e1 := syscall.SyscallN(procConvertSecurityDescriptorToStringSecurityDescriptorW.Addr(),
		uintptr(unsafe.Pointer(sd)), uintptr(revision), uintptr(secInfo),
		uintptr(unsafe.Pointer(sddl)), uintptr(unsafe.Pointer(sddlSize)))
	if r1 == 0 {
		err = errnoErr(e1)
	}
	return
}

func localFree(mem uintptr) {
	syscall.SyscallN(procLocalFree.Addr(), mem)
}

func getSecurityDescriptorLength(sd uintptr) (length uint32) {
	r0, _, _ := syscall.SyscallN(procGetSecurityDescriptorLength.Addr(), sd)
	return uint32(r0)
}

func errnoErr(e syscall.Errno) error {
	if e == 0 {
		return syscall.EINVAL
	}
	return e
}
