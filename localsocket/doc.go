// Package localsocket is the cross-platform facade over the two local
// (intra-host) IPC primitives this module implements: Unix-domain
// sockets (package uds) and Windows named pipes (package namedpipe).
//
// Callers build a Name (this package), hand it to ListenerOptions or
// ConnectOptions, and get back a Listener or Stream whose concrete
// implementation is chosen for them based on the target platform and
// the Name's variant. The facade never mixes UDS and NPFS behavior:
// on Unix it is always uds, on Windows it is always namedpipe.
package localsocket
