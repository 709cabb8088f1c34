package localsocket

import (
	"testing"
	"time"
)

func TestListenerOptionsFromYAML(t *testing.T) {
	opts, err := ListenerOptionsFromYAML([]byte(`
name: config-test
namespaced: true
mode: messages
instance_limit: 12
write_through: true
input_buf_hint: 4096
output_buf_hint: 8192
wait_timeout: 250ms
`))
	if err != nil {
		t.Fatal(err)
	}
	if opts.Name.String() == "" {
		t.Error("name not resolved")
	}
	if opts.Mode != ModeMessages {
		t.Errorf("mode: got %v", opts.Mode)
	}
	if opts.InstanceLimit != 12 {
		t.Errorf("instance_limit: got %d", opts.InstanceLimit)
	}
	if !opts.WriteThrough {
		t.Error("write_through not set")
	}
	if opts.InputBufHint != 4096 || opts.OutputBufHint != 8192 {
		t.Errorf("buffer hints: got %d/%d", opts.InputBufHint, opts.OutputBufHint)
	}
	if opts.WaitTimeout != 250*time.Millisecond {
		t.Errorf("wait_timeout: got %v", opts.WaitTimeout)
	}
	if opts.NoReclaimName {
		t.Error("reclaim must default to on")
	}
	if opts.Logger == nil {
		t.Error("WithDefaults must install the no-op logger")
	}
}

func TestListenerOptionsFromYAMLReclaimOff(t *testing.T) {
	opts, err := ListenerOptionsFromYAML([]byte(`
name: config-test
namespaced: true
reclaim_name: false
`))
	if err != nil {
		t.Fatal(err)
	}
	if !opts.NoReclaimName {
		t.Error("reclaim_name: false must disable reclamation")
	}
}

func TestListenerOptionsFromYAMLBadName(t *testing.T) {
	if _, err := ListenerOptionsFromYAML([]byte("name: \"bad\\0name\"\nnamespaced: true\n")); err == nil {
		t.Error("expected a name mapping error")
	}
}
