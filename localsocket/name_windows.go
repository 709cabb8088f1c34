//go:build windows

package localsocket

import "strings"

// MapPath implements PathNameType for GenericFilePath on Windows. Only
// the fully-qualified remote-pipe syntax `\\<host>\pipe\<name>` is
// accepted verbatim; anything else (including the local shorthand,
// which belongs to GenericNamespaced) fails as unsupported.
func (GenericFilePath) MapPath(path string) (Name, error) {
	if !isRemotePipePath(path) {
		return Name{}, &ErrInvalidName{Input: path, Reason: `must match \\<host>\pipe\<name>`}
	}
	return newName(kindPath, []byte(path), path)
}

// PathSupported is always true: the syntax check in MapPath is the
// only gate, and it never depends on OS state.
func (GenericFilePath) PathSupported() bool { return true }

// MapNamespaced implements NamespacedNameType for GenericNamespaced:
// the local-host shorthand. The `\\.\pipe\` prefix is added by
// pipePath (facade_windows.go) at bind/connect time, not here, so the
// Name stays a plain identifier until it is handed to the engine.
func (GenericNamespaced) MapNamespaced(name string) (Name, error) {
	return newName(kindNamespaced, []byte(name), name)
}

// NamespacedSupported is unconditionally true: NPFS is always present
// on Windows.
func (GenericNamespaced) NamespacedSupported() bool { return true }

func isRemotePipePath(s string) bool {
	if !strings.HasPrefix(s, `\\`) {
		return false
	}
	rest := s[2:]
	sep := strings.IndexByte(rest, '\\')
	if sep <= 0 {
		return false
	}
	rest = rest[sep+1:]
	return strings.HasPrefix(strings.ToLower(rest), `pipe\`) && len(rest) > len(`pipe\`)
}
