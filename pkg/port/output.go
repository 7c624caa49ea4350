package port

import (
	"sync"

	"github.com/loomrun/loom/pkg/port/internal/fifo"
	"github.com/mitchellh/copystructure"
)

// OutputMode selects the fan-out discipline of an Output, see Output.Send.
type OutputMode int

const (
	ModeRef OutputMode = iota
	ModeValue
	ModeCircle
)

func (m OutputMode) String() string {
	switch m {
	case ModeValue:
		return "value"
	case ModeCircle:
		return "circle"
	default:
		return "ref"
	}
}

// Output is the sending endpoint on a node.
type Output struct {
	ID          string
	Description string
	Type        TypeTag
	Mode        OutputMode

	mu     sync.Mutex
	queues []*fifo.Queue
	cursor int
}

// NewOutput builds an Output that fans out according to mode.
func NewOutput(id, description string, typ TypeTag, mode OutputMode) *Output {
	return &Output{ID: id, Description: description, Type: typ, Mode: mode}
}

// Connect adds q to the fan-out list (OutputSource).
func (o *Output) Connect(q *fifo.Queue) {
	o.mu.Lock()
	o.queues = append(o.queues, q)
	o.mu.Unlock()
}

// ConnectedCount reports how many downstream queues this output fans to.
func (o *Output) ConnectedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queues)
}

// Send dispatches v to the connected downstream queues per Mode. EOF always
// broadcasts to every downstream queue, overriding ModeCircle, so a single
// round-robin path never gets starved of the stream's end.
func (o *Output) Send(v Value) error {
	if !IsEOF(v) && !o.Type.Matches(v) {
		return &TypeMismatchError{PortID: o.ID, Declared: o.Type.String(), Value: v}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	n := len(o.queues)
	if n == 0 {
		return &UnconnectedOutputError{PortID: o.ID}
	}

	if IsEOF(v) {
		for _, q := range o.queues {
			q.Put(EOF)
		}
		return nil
	}

	switch o.Mode {
	case ModeValue:
		o.queues[0].Put(v)
		for _, q := range o.queues[1:] {
			cp, err := deepCopy(v)
			if err != nil {
				return err
			}
			q.Put(cp)
		}
	case ModeCircle:
		o.queues[o.cursor%n].Put(v)
		o.cursor++
	default: // ModeRef
		for _, q := range o.queues {
			q.Put(v)
		}
	}
	return nil
}

// deepCopy produces an independent copy of v for ModeValue's 1..N-1
// downstream queues, using copystructure the way opentofu and rakunlabs-at
// deep-copy configuration values rather than hand-rolling a reflect walk.
func deepCopy(v Value) (Value, error) {
	if v == nil {
		return nil, nil
	}
	return copystructure.Copy(v)
}
