package port

import (
	"sync"

	"github.com/loomrun/loom/pkg/port/internal/fifo"
)

// InputMode selects the read discipline of an Input, see Input.Get.
type InputMode int

const (
	ModeQueue InputMode = iota
	ModeSticky
	ModeStatic
)

func (m InputMode) String() string {
	switch m {
	case ModeSticky:
		return "sticky"
	case ModeStatic:
		return "static"
	default:
		return "queue"
	}
}

// Requiredness records whether an Input must be wired to a Connection. Get
// does not consult it: an unwired Input returns its latched value or its
// type's zero value whatever its Requiredness.
type Requiredness int

const (
	Required Requiredness = iota
	Optional
	RequiredIfConnected
)

// InputOption configures an Input at construction time, mirroring the
// functional-option pattern node.Option used for channel buffer sizing.
type InputOption func(*Input)

func WithDescription(d string) InputOption { return func(i *Input) { i.Description = d } }
func WithType(t TypeTag) InputOption       { return func(i *Input) { i.Type = t } }
func WithMode(m InputMode) InputOption     { return func(i *Input) { i.Mode = m } }
func WithRequiredness(r Requiredness) InputOption {
	return func(i *Input) { i.Required = r }
}

// WithInitialValue latches a configured value at construction time, used
// for sticky/static inputs carrying a document-level `value`.
func WithInitialValue(v Value) InputOption {
	return func(i *Input) {
		i.value = v
		i.hasValue = true
	}
}

// Input is the receiving endpoint on a node.
type Input struct {
	ID          string
	Description string
	Mode        InputMode
	Required    Requiredness
	Type        TypeTag

	mu       sync.RWMutex
	value    Value
	hasValue bool
	queue    *fifo.Queue
}

// NewInput builds an Input in ModeQueue/Required by default.
func NewInput(id string, opts ...InputOption) *Input {
	in := &Input{ID: id, Mode: ModeQueue, Required: Required}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Feed attaches the backing queue for this input (InputSink). An ordinary
// Input has exactly one producer by contract; a later call simply replaces
// the previous queue reference.
func (in *Input) Feed(q *fifo.Queue) {
	in.mu.Lock()
	in.queue = q
	in.mu.Unlock()
}

// IsConnected reports whether the input was wired by a Connection.
func (in *Input) IsConnected() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.queue != nil
}

// Set assigns the sticky/static latch value directly (used by macros and
// by the loader for a document-configured `value`). EOF bypasses the type
// check; any other value must satisfy the declared type.
func (in *Input) Set(v Value) error {
	if !IsEOF(v) && !in.Type.Matches(v) {
		return &TypeMismatchError{PortID: in.ID, Declared: in.Type.String(), Value: v}
	}
	in.mu.Lock()
	in.value = v
	in.hasValue = true
	in.mu.Unlock()
	return nil
}

// Get reads the next value according to the port's mode.
func (in *Input) Get() Value {
	switch in.Mode {
	case ModeStatic:
		return in.staticValue()
	case ModeSticky:
		return in.getSticky()
	default:
		return in.getQueue()
	}
}

func (in *Input) staticValue() Value {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.hasValue {
		return in.value
	}
	return in.Type.Zero()
}

func (in *Input) getQueue() Value {
	in.mu.RLock()
	q := in.queue
	in.mu.RUnlock()
	if q == nil {
		// A queue-mode input with no backing queue: documented behavior
		// for Optional/RequiredIfConnected. A Required-but-unwired input
		// is a loader/authoring error with no well-defined read; rather
		// than block forever we return the zero value here too (see
		// DESIGN.md Open Question decisions).
		return in.Type.Zero()
	}
	return q.Get()
}

func (in *Input) getSticky() Value {
	in.mu.RLock()
	q := in.queue
	hasValue := in.hasValue
	in.mu.RUnlock()

	if q == nil {
		in.mu.RLock()
		defer in.mu.RUnlock()
		if in.hasValue {
			return in.value
		}
		return in.Type.Zero()
	}

	if v, ok := q.TryGet(); ok {
		if !IsEOF(v) {
			in.mu.Lock()
			in.value = v
			in.hasValue = true
			in.mu.Unlock()
			return v
		}
		// Sticky EOFs never terminate the node; fall through to the
		// latched value (possibly still unset).
	} else if !hasValue {
		// No value has ever been latched and the queue is empty: block
		// like a queue-mode input until the first value arrives.
		v := q.Get()
		if !IsEOF(v) {
			in.mu.Lock()
			in.value = v
			in.hasValue = true
			in.mu.Unlock()
			return v
		}
	}

	in.mu.RLock()
	defer in.mu.RUnlock()
	if in.hasValue {
		return in.value
	}
	return in.Type.Zero()
}
