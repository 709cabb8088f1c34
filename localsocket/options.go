package localsocket

import (
	"time"

	"github.com/kotauskas/interprocess-go/internal/ilog"
	"gopkg.in/yaml.v2"
)

// Mode selects whether a stream preserves message boundaries.
// Byte mode has no framing; messages mode delivers whole messages,
// one per receive. Messages mode is Windows-only: UDS stream sockets
// have no boundaries to preserve, so listener creation rejects it
// with MessageBoundariesLost there.
type Mode int

const (
	ModeBytes Mode = iota
	ModeMessages
)

func (m Mode) String() string {
	if m == ModeMessages {
		return "messages"
	}
	return "bytes"
}

// WaitMode controls how ConnectOptions.Connect behaves when the
// server has no pending instance (NPFS) or the connection otherwise
// can't complete immediately.
type WaitMode int

const (
	// WaitImmediate makes one attempt and fails WouldBlock/Timeout.
	WaitImmediate WaitMode = iota
	// WaitTimeout bounds the spin to the configured duration.
	WaitTimeout
	// WaitUnbounded loops until the connection succeeds.
	WaitUnbounded
	// WaitDeferred is unsupported by the synchronous engines in this
	// module; it exists so API users migrating from an async variant
	// get a clear Unsupported error instead of a silent behavior
	// change.
	WaitDeferred
)

// InstanceLimitUnlimited is the sentinel ListenerOptions.InstanceLimit
// value requesting no cap on concurrent NPFS instances (Windows only;
// ignored on Unix). Valid explicit limits are 1..=254; 255 is reserved
// by NPFS itself and rejected.
const InstanceLimitUnlimited = 0

// ListenerOptions is the immutable configuration bundle consumed by
// Create/CreateSync. Fields not meaningful on the target platform are
// accepted but ignored (e.g. InstanceLimit on Unix, NoReclaimName on
// Windows).
type ListenerOptions struct {
	Name              Name
	Mode              Mode
	NonblockingAccept bool
	NonblockingStream bool

	// Windows (NPFS) only.
	InstanceLimit      int
	WriteThrough       bool
	AcceptRemote       bool
	InputBufHint       int32
	OutputBufHint      int32
	WaitTimeout        time.Duration
	SecurityDescriptor string // SDDL string, converted via namedpipe's SDDL helpers
	Inheritable        bool

	// Unix (UDS) only. Name reclamation defaults to on, which is why
	// the field is inverted: the zero value of ListenerOptions unlinks
	// the bound path on listener close, and NoReclaimName opts out.
	NoReclaimName                  bool
	TryOverwrite                   bool
	ReceiveCredentialsContinuously bool

	Logger ilog.Logger
}

// WithDefaults returns a copy of o with the documented defaults
// applied: a no-op logger, a 128-entry backlog equivalent handled by
// the uds engine itself, Mode left as ModeBytes.
func (o ListenerOptions) WithDefaults() ListenerOptions {
	if o.Logger == nil {
		o.Logger = ilog.Nop
	}
	return o
}

type yamlListenerOptions struct {
	Name               string `yaml:"name"`
	Namespaced         bool   `yaml:"namespaced"`
	Mode               string `yaml:"mode"`
	InstanceLimit      int    `yaml:"instance_limit"`
	WriteThrough       bool   `yaml:"write_through"`
	AcceptRemote       bool   `yaml:"accept_remote"`
	InputBufHint       int32  `yaml:"input_buf_hint"`
	OutputBufHint      int32  `yaml:"output_buf_hint"`
	WaitTimeout        string `yaml:"wait_timeout"` // time.ParseDuration syntax
	SecurityDescriptor string `yaml:"security_descriptor"`
	ReclaimName        *bool  `yaml:"reclaim_name"`
	TryOverwrite       bool   `yaml:"try_overwrite"`
}

// ListenerOptionsFromYAML decodes a ListenerOptions from YAML,
// resolving Name through GenericFilePath or GenericNamespaced
// depending on the `namespaced` flag. It exists for servers that
// externalize listener tuning (security descriptor, buffer sizes,
// instance limits, timeouts) instead of hard-coding struct literals.
func ListenerOptionsFromYAML(data []byte) (ListenerOptions, error) {
	var y yamlListenerOptions
	if err := yaml.Unmarshal(data, &y); err != nil {
		return ListenerOptions{}, err
	}
	var name Name
	var err error
	if y.Namespaced {
		name, err = ToNsName[GenericNamespaced](y.Name)
	} else {
		name, err = ToFsName[GenericFilePath](y.Name)
	}
	if err != nil {
		return ListenerOptions{}, err
	}
	mode := ModeBytes
	if y.Mode == "messages" {
		mode = ModeMessages
	}
	var waitTimeout time.Duration
	if y.WaitTimeout != "" {
		waitTimeout, err = time.ParseDuration(y.WaitTimeout)
		if err != nil {
			return ListenerOptions{}, err
		}
	}
	reclaim := true
	if y.ReclaimName != nil {
		reclaim = *y.ReclaimName
	}
	return ListenerOptions{
		Name:               name,
		Mode:               mode,
		InstanceLimit:      y.InstanceLimit,
		WriteThrough:       y.WriteThrough,
		AcceptRemote:       y.AcceptRemote,
		InputBufHint:       y.InputBufHint,
		OutputBufHint:      y.OutputBufHint,
		WaitTimeout:        waitTimeout,
		SecurityDescriptor: y.SecurityDescriptor,
		NoReclaimName:      !reclaim,
		TryOverwrite:       y.TryOverwrite,
	}.WithDefaults(), nil
}

// StandardLogger returns a Logger backed by logrus's process-wide
// standard logger, suitable for ListenerOptions.Logger /
// ConnectOptions.Logger. Any value with Debugf/Warnf (notably a
// *logrus.Logger or *logrus.Entry of the caller's own) works too;
// this is just the zero-wiring default.
func StandardLogger() ilog.Logger { return ilog.Standard() }

// ConnectOptions is the immutable configuration bundle consumed by
// Connect/ConnectSync.
type ConnectOptions struct {
	Name              Name
	WaitMode          WaitMode
	WaitTimeout       time.Duration
	NonblockingStream bool
	Logger            ilog.Logger
}

func (o ConnectOptions) WithDefaults() ConnectOptions {
	if o.Logger == nil {
		o.Logger = ilog.Nop
	}
	return o
}
