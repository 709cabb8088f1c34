//go:build windows

// Package fs declares the NT/Win32 file-system constants and the
// CreateFile syscall binding the namedpipe package needs to open
// pipe instances; server instances themselves are created through
// NtCreateNamedPipeFile directly. Named pipe paths are always
// supplied by the caller, so no path-recovery helpers live here.
package fs

import (
	"golang.org/x/sys/windows"
)

//sys CreateFile(name string, access AccessMask, mode FileShareMode, sa *syscall.SecurityAttributes, createmode FileCreationDisposition, attrs FileAttribute, templatefile windows.Handle) (handle windows.Handle, err error) [failretval==windows.InvalidHandle] = CreateFileW

const NullHandle windows.Handle = 0

// AccessMask defines standard, specific, and generic rights.
//
// https://learn.microsoft.com/en-us/windows/win32/secauthz/access-mask
type AccessMask uint32

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	FILE_ANY_ACCESS AccessMask = 0

	FILE_READ_DATA            AccessMask = 0x0001
	FILE_WRITE_DATA           AccessMask = 0x0002
	FILE_CREATE_PIPE_INSTANCE AccessMask = 0x0004
	FILE_READ_ATTRIBUTES      AccessMask = 0x0080
	FILE_WRITE_ATTRIBUTES     AccessMask = 0x0100

	DELETE       AccessMask = 0x0001_0000
	READ_CONTROL AccessMask = 0x0002_0000
	WRITE_DAC    AccessMask = 0x0004_0000
	WRITE_OWNER  AccessMask = 0x0008_0000
	SYNCHRONIZE  AccessMask = 0x0010_0000

	STANDARD_RIGHTS_REQUIRED AccessMask = 0x000F_0000
	STANDARD_RIGHTS_READ     AccessMask = READ_CONTROL
	STANDARD_RIGHTS_WRITE    AccessMask = READ_CONTROL

	GENERIC_READ  AccessMask = 0x8000_0000
	GENERIC_WRITE AccessMask = 0x4000_0000
)

type FileShareMode uint32

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	FILE_SHARE_NONE   FileShareMode = 0x00
	FILE_SHARE_READ   FileShareMode = 0x01
	FILE_SHARE_WRITE  FileShareMode = 0x02
	FILE_SHARE_DELETE FileShareMode = 0x04
)

type FileCreationDisposition uint32

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	CREATE_NEW    FileCreationDisposition = 0x01
	OPEN_EXISTING FileCreationDisposition = 0x03
)

// NTFileCreationDisposition is the narrower enum NtCreateNamedPipeFile
// expects, distinct from CreateFile's FileCreationDisposition.
type NTFileCreationDisposition uint32

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	FILE_SUPERSEDE NTFileCreationDisposition = 0x00
	FILE_OPEN      NTFileCreationDisposition = 0x01
	FILE_CREATE    NTFileCreationDisposition = 0x02
)

// NTCreateOptions is NtCreateNamedPipeFile's CreateOptions parameter.
type NTCreateOptions uint32

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	FILE_WRITE_THROUGH NTCreateOptions = 0x0000_0002
)

// FileAttribute is used both for file attributes and (via the FileFlag
// alias) for CreateFile's dwFlagsAndAttributes parameter.
type FileAttribute uint32

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	FILE_ATTRIBUTE_NORMAL FileAttribute = 0x0000_0080
)

type FileFlag = FileAttribute

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	FILE_FLAG_OVERLAPPED FileFlag = 0x4000_0000
)

type FileSQSFlag = FileAttribute

//nolint:revive // SNAKE_CASE is not idiomatic in Go, but aligned with Win32 API.
const (
	SECURITY_ANONYMOUS    FileSQSFlag = 0 << 16
	SECURITY_SQOS_PRESENT FileSQSFlag = 0x00100000
)
