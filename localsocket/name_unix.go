//go:build unix

package localsocket

import (
	"os"
	"runtime"
)

// MapPath implements PathNameType for GenericFilePath on Unix: the
// input is used verbatim as a filesystem path. Validity (length vs.
// SUN_PATH_LEN) is checked later by the uds engine, which knows the
// platform's sockaddr_un size; this mapping only rejects interior
// NULs, like every Name.
func (GenericFilePath) MapPath(path string) (Name, error) {
	return newName(kindPath, []byte(path), path)
}

// PathSupported is unconditionally true on Unix: any path can be
// bound, modulo length and permission, which are bind-time failures.
func (GenericFilePath) PathSupported() bool { return true }

// MapNamespaced implements NamespacedNameType for GenericNamespaced.
// On Linux this targets the abstract namespace (indicated by a
// leading NUL in sun_path, added by the uds engine, not here); on
// other Unices it maps to /tmp/<name>.
func (GenericNamespaced) MapNamespaced(name string) (Name, error) {
	if runtime.GOOS == "linux" {
		return newName(kindNamespaced, []byte(name), name)
	}
	return newName(kindPath, []byte("/tmp/"+name), name)
}

// NamespacedSupported reports whether namespaced names are usable. On
// Linux it returns true without probing the abstract namespace. On
// other Unices it checks that /tmp exists and is a directory, and
// returns false, never panics, on OS error.
func (GenericNamespaced) NamespacedSupported() bool {
	if runtime.GOOS == "linux" {
		return true
	}
	info, err := os.Stat("/tmp")
	return err == nil && info.IsDir()
}
