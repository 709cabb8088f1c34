//go:build windows

package localsocket

import "testing"

func TestToFsNameAcceptsRemotePipeSyntax(t *testing.T) {
	for _, input := range []string{
		`\\.\pipe\ipc-test`,
		`\\somehost\pipe\ipc-test`,
	} {
		n, err := ToFsName[GenericFilePath](input)
		if err != nil {
			t.Errorf("%q: %v", input, err)
			continue
		}
		if got := n.String(); got != input {
			t.Errorf("%q mapped to %q, want verbatim", input, got)
		}
	}
}

func TestToFsNameRejectsOtherSyntax(t *testing.T) {
	for _, input := range []string{
		`C:\not\a\pipe`,
		`ipc-test`,
		`\\host\notpipe\x`,
		`\\host\pipe\`,
		`\\\pipe\x`,
	} {
		if _, err := ToFsName[GenericFilePath](input); err == nil {
			t.Errorf("%q: expected unsupported-syntax error", input)
		}
	}
}

func TestToNsNameLeavesPrefixToEngine(t *testing.T) {
	n, err := ToNsName[GenericNamespaced]("ipc-test")
	if err != nil {
		t.Fatal(err)
	}
	if got := n.String(); got != "ipc-test" {
		t.Errorf(`prefix must be added at bind/connect time, got %q`, got)
	}
	if got := pipePath(n); got != `\\.\pipe\ipc-test` {
		t.Errorf("pipePath: got %q", got)
	}
}

func TestPipePathIdempotentPrefix(t *testing.T) {
	n, err := ToNsName[GenericNamespaced](`\\.\pipe\already-prefixed`)
	if err != nil {
		t.Fatal(err)
	}
	if got := pipePath(n); got != `\\.\pipe\already-prefixed` {
		t.Errorf("prefix must not be doubled, got %q", got)
	}
}
