//go:build linux

package uds

// SunPathLen is sizeof(((struct sockaddr_un *)0)->sun_path) on Linux:
// 108 bytes, matching golang.org/x/sys/unix.RawSockaddrUnix.Path.
const SunPathLen = 108

// SupportsAbstractNamespace is true only on Linux; no other kernel
// implements the abstract socket namespace.
const SupportsAbstractNamespace = true
