//go:build unix

package localsocket

import (
	"runtime"
	"strings"
	"testing"
)

func TestToFsNameVerbatim(t *testing.T) {
	n, err := ToFsName[GenericFilePath]("/tmp/ipc-test.sock")
	if err != nil {
		t.Fatal(err)
	}
	if !n.IsPath() {
		t.Error("expected a path name")
	}
	if got := n.String(); got != "/tmp/ipc-test.sock" {
		t.Errorf("expected verbatim mapping, got %q", got)
	}
}

func TestToFsNameRejectsInteriorNUL(t *testing.T) {
	_, err := ToFsName[GenericFilePath]("/tmp/bad\x00name")
	if err == nil {
		t.Fatal("expected an error for an interior NUL")
	}
	if !strings.Contains(err.Error(), "NUL") {
		t.Errorf("error should mention the NUL byte: %v", err)
	}
}

func TestToNsNameMapping(t *testing.T) {
	n, err := ToNsName[GenericNamespaced]("ipc-test-ns")
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS == "linux" {
		if !n.IsNamespaced() {
			t.Error("expected an abstract-namespace name on Linux")
		}
		if got := n.String(); got != "ipc-test-ns" {
			t.Errorf("Linux namespaced mapping must not transform the input, got %q", got)
		}
	} else {
		if !n.IsPath() {
			t.Error("expected a /tmp-backed path name off Linux")
		}
		if got := n.String(); got != "/tmp/ipc-test-ns" {
			t.Errorf("expected /tmp/<name>, got %q", got)
		}
	}
}

func TestNameTypeSupportProbes(t *testing.T) {
	if !(GenericFilePath{}).PathSupported() {
		t.Error("GenericFilePath must be supported on Unix")
	}
	if !(GenericNamespaced{}).NamespacedSupported() {
		t.Error("GenericNamespaced should probe as supported here")
	}
}

func TestMappingStability(t *testing.T) {
	a, err := ToNsName[GenericNamespaced]("stable-name")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ToNsName[GenericNamespaced]("stable-name")
	if err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() || a.IsNamespaced() != b.IsNamespaced() {
		t.Error("the same input must keep mapping to the same name")
	}
}
