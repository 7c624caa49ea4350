package graph

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/loomrun/loom/pkg/logging"
	"github.com/loomrun/loom/pkg/port"
	"github.com/rs/zerolog"
)

// ProcessOutcome is the tagged return of a leaf's process function, replacing
// the "if the result looks like a mapping" duck typing of the original with
// an explicit Emit/None variant.
type ProcessOutcome struct {
	values map[string]port.Value
	emit   bool
}

// Emit wraps a pin→value mapping to send after a process invocation.
func Emit(values map[string]port.Value) ProcessOutcome {
	return ProcessOutcome{values: values, emit: true}
}

// None is returned by sink leaves that produce no output for this round.
var None = ProcessOutcome{}

// ProcessFunc is the user-supplied computation body of a leaf Component. It
// receives one value per declared input, in schema order via the inputs map,
// and the Component it runs on (so it can call Stop on zero-input sources).
type ProcessFunc func(ctx context.Context, c *Component, inputs map[string]port.Value) (ProcessOutcome, error)

// ShutdownFunc is an optional main-thread-only finalization hook, invoked by
// the driver only after the owning graph's Stopped channel has fired.
type ShutdownFunc func(ctx context.Context) error

// Component is the leaf node worker: it reads one tuple of inputs per
// round in schema order, invokes process, and dispatches the outcome to
// outputs, repeating until every queue-mode input has delivered EOF or Stop
// is called.
type Component struct {
	id          string
	nodeType    string
	displayName string

	inputOrder []string
	inputs     map[string]*port.Input
	outputs    map[string]*port.Output

	process  ProcessFunc
	shutdown ShutdownFunc

	log zerolog.Logger

	stopFlag atomic.Bool
	stopped  chan struct{}
	finish   sync.Once

	mu  sync.Mutex
	err error
}

// NewComponent builds a leaf node. inputOrder fixes the schema order used to
// read one value per input per round.
func NewComponent(id, nodeType, displayName string, inputOrder []string, inputs map[string]*port.Input, outputs map[string]*port.Output, process ProcessFunc) *Component {
	return &Component{
		id:          id,
		nodeType:    nodeType,
		displayName: displayName,
		inputOrder:  inputOrder,
		inputs:      inputs,
		outputs:     outputs,
		process:     process,
		log:         logging.ForNode(logging.Default(), id, nodeType),
		stopped:     make(chan struct{}),
	}
}

// SetLogger overrides the logger this Component's worker writes to,
// defaulting to logging.Default() decorated with node_id/node_type.
func (c *Component) SetLogger(l zerolog.Logger) { c.log = l }

func (c *Component) ID() string          { return c.id }
func (c *Component) NodeType() string    { return c.nodeType }
func (c *Component) DisplayName() string { return c.displayName }
func (c *Component) Stopped() <-chan struct{} { return c.stopped }

// SetShutdown attaches a main-thread-only finalization hook, called by the
// driver after Stopped fires; Components never call it themselves.
func (c *Component) SetShutdown(fn ShutdownFunc) { c.shutdown = fn }

// Shutdown invokes the attached ShutdownFunc, if any. The driver must call
// this only after Stopped has fired.
func (c *Component) Shutdown(ctx context.Context) error {
	if c.shutdown == nil {
		return nil
	}
	return c.shutdown(ctx)
}

// Err returns the fatal error that stopped this component, if any.
func (c *Component) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Component) InputPorts() map[string]port.InputSink {
	out := make(map[string]port.InputSink, len(c.inputs))
	for id, in := range c.inputs {
		out[id] = in
	}
	return out
}

func (c *Component) OutputPorts() map[string]port.OutputSource {
	out := make(map[string]port.OutputSource, len(c.outputs))
	for id, o := range c.outputs {
		out[id] = o
	}
	return out
}

// Run spawns the worker goroutine and returns immediately.
func (c *Component) Run(ctx context.Context) {
	c.log.Debug().Msg("starting worker")
	go c.loop(ctx)
}

// Stop sets the stop flag, checked between rounds. It does not itself
// unblock an in-flight Input.Get on a queue-mode input still waiting on an
// upstream value; that can only be cancelled by upstream EOF, or by the
// component's own process body consulting ctx/Stop.
func (c *Component) Stop() { c.stopFlag.Store(true) }

func (c *Component) loop(ctx context.Context) {
	defer c.finishNode()

	for {
		if c.stopFlag.Load() {
			return
		}

		values := make(map[string]port.Value, len(c.inputOrder))
		anyQueueMode := false
		allQueueEOF := true
		for _, id := range c.inputOrder {
			in := c.inputs[id]
			v := in.Get()
			values[id] = v
			if in.Mode == port.ModeQueue {
				anyQueueMode = true
				if !port.IsEOF(v) {
					allQueueEOF = false
				}
			}
		}
		if anyQueueMode && allQueueEOF {
			c.log.Debug().Msg("all queue inputs closed")
			return
		}

		outcome, err := c.process(ctx, c, values)
		if err != nil {
			c.log.Error().Err(err).Msg("process returned an error")
			c.setErr(err)
			return
		}
		if !outcome.emit {
			continue
		}
		for pin, v := range outcome.values {
			out, ok := c.outputs[pin]
			if !ok {
				err := &UnknownOutputError{NodeID: c.id, PinID: pin}
				c.log.Error().Err(err).Msg("unknown output pin")
				c.setErr(err)
				return
			}
			if out.ConnectedCount() == 0 {
				continue
			}
			if err := out.Send(v); err != nil {
				c.log.Error().Err(err).Msg("send failed")
				c.setErr(err)
				return
			}
		}
	}
}

// finishNode broadcasts EOF on every connected output and fires Stopped,
// exactly once, regardless of which exit path the loop took.
func (c *Component) finishNode() {
	c.finish.Do(func() {
		c.log.Debug().Msg("finishing")
		for _, out := range c.outputs {
			if out.ConnectedCount() > 0 {
				_ = out.Send(port.EOF)
			}
		}
		close(c.stopped)
	})
}

func (c *Component) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
