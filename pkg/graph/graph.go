package graph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/loomrun/loom/pkg/logging"
	"github.com/loomrun/loom/pkg/port"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Graph is the container node: it owns child instances, the connections
// wiring them, and its own exposed GraphPorts. Construction wires every
// connection; Run starts all children plus one bookkeeping goroutine that
// waits for them in insertion order before finishing the graph itself.
type Graph struct {
	id          string
	nodeType    string
	displayName string

	instanceOrder []string
	instances     map[string]Node

	inputs  map[string]*port.GraphPort
	outputs map[string]*port.GraphPort

	log zerolog.Logger

	stopFlag atomic.Bool
	stopped  chan struct{}
	finish   sync.Once

	mu  sync.Mutex
	err error
}

// NewGraph builds a Graph and wires every connection. instanceOrder fixes
// the insertion order the bookkeeping goroutine waits on.
func NewGraph(id, nodeType, displayName string, instanceOrder []string, instances map[string]Node, connections []Connection, inputs, outputs map[string]*port.GraphPort) (*Graph, error) {
	g := &Graph{
		id:            id,
		nodeType:      nodeType,
		displayName:   displayName,
		instanceOrder: instanceOrder,
		instances:     instances,
		inputs:        inputs,
		outputs:       outputs,
		log:           logging.ForNode(logging.Default(), id, nodeType),
		stopped:       make(chan struct{}),
	}
	if err := g.wire(connections); err != nil {
		return nil, err
	}
	return g, nil
}

// SetLogger overrides the logger this Graph's bookkeeping goroutine writes
// to, defaulting to logging.Default() decorated with node_id/node_type.
func (g *Graph) SetLogger(l zerolog.Logger) { g.log = l }

func (g *Graph) wire(connections []Connection) error {
	var errs *multierror.Error
	for _, c := range connections {
		src, err := g.resolveSource(c.From)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		sink, err := g.resolveSink(c.To)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		q := port.NewQueue()
		src.Connect(q)
		sink.Feed(q)
	}
	return errs.ErrorOrNil()
}

func (g *Graph) resolveSource(ep Endpoint) (port.OutputSource, error) {
	if ep.InstanceID == ThisInstanceID {
		gp, ok := g.inputs[ep.PinID]
		if !ok {
			return nil, &WiringError{Connection: describeEndpoint(ep), Reason: "no such exposed input"}
		}
		return gp, nil
	}
	node, ok := g.instances[ep.InstanceID]
	if !ok {
		return nil, &WiringError{Connection: describeEndpoint(ep), Reason: "no such instance"}
	}
	src, ok := node.OutputPorts()[ep.PinID]
	if !ok {
		return nil, &WiringError{Connection: describeEndpoint(ep), Reason: "no such output pin"}
	}
	return src, nil
}

func (g *Graph) resolveSink(ep Endpoint) (port.InputSink, error) {
	if ep.InstanceID == ThisInstanceID {
		gp, ok := g.outputs[ep.PinID]
		if !ok {
			return nil, &WiringError{Connection: describeEndpoint(ep), Reason: "no such exposed output"}
		}
		return gp, nil
	}
	node, ok := g.instances[ep.InstanceID]
	if !ok {
		return nil, &WiringError{Connection: describeEndpoint(ep), Reason: "no such instance"}
	}
	sink, ok := node.InputPorts()[ep.PinID]
	if !ok {
		return nil, &WiringError{Connection: describeEndpoint(ep), Reason: "no such input pin"}
	}
	return sink, nil
}

func describeEndpoint(ep Endpoint) string {
	return fmt.Sprintf("%s.%s", ep.InstanceID, ep.PinID)
}

func (g *Graph) ID() string          { return g.id }
func (g *Graph) NodeType() string    { return g.nodeType }
func (g *Graph) DisplayName() string { return g.displayName }
func (g *Graph) Stopped() <-chan struct{} { return g.stopped }

// Err returns the error that aborted the graph's children while starting,
// if any.
func (g *Graph) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *Graph) setErr(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

func (g *Graph) InputPorts() map[string]port.InputSink {
	out := make(map[string]port.InputSink, len(g.inputs))
	for id, gp := range g.inputs {
		out[id] = gp
	}
	return out
}

func (g *Graph) OutputPorts() map[string]port.OutputSource {
	out := make(map[string]port.OutputSource, len(g.outputs))
	for id, gp := range g.outputs {
		out[id] = gp
	}
	return out
}

// Run starts every child node and spawns the bookkeeping goroutine. Each
// child's Run call is made on its own goroutine, so Run returns without
// waiting for those calls or for the children to finish. Children share a
// context derived from ctx that is cancelled if any child's Run panics, and
// released once every child has stopped. If the graph was already
// terminated, Run is a no-op.
func (g *Graph) Run(ctx context.Context) {
	if g.stopFlag.Load() {
		return
	}
	g.log.Debug().Int("children", len(g.instanceOrder)).Msg("starting graph")
	childCtx, cancel := context.WithCancel(ctx)
	var eg errgroup.Group
	for _, id := range g.instanceOrder {
		node := g.instances[id]
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					cancel()
					err = fmt.Errorf("node %s panicked during Run: %v", node.ID(), r)
				}
			}()
			node.Run(childCtx)
			return nil
		})
	}
	go func() {
		if err := eg.Wait(); err != nil {
			g.setErr(err)
			g.log.Error().Err(err).Msg("child failed to start")
		}
		g.bookkeep()
		cancel()
	}()
}

// bookkeep waits, in insertion order, for each child's Stopped event, then
// finishes the graph itself.
func (g *Graph) bookkeep() {
	for _, id := range g.instanceOrder {
		<-g.instances[id].Stopped()
	}
	g.finishNode()
}

// Stop initiates graceful termination by sending EOF into each of the
// graph's own exposed inputs, which propagates through the interior DAG.
// It is the driver-facing counterpart of Terminate.
func (g *Graph) Stop() {
	for _, gp := range g.inputs {
		gp.Queue().Put(port.EOF)
	}
}

// Terminate aborts immediately: every child's stop flag is set, EOF is
// pushed into the graph's own inputs, and the graph finishes without
// waiting for the bookkeeping goroutine to observe children stopping on
// their own.
func (g *Graph) Terminate() {
	g.stopFlag.Store(true)
	for _, node := range g.instances {
		node.Stop()
	}
	for _, gp := range g.inputs {
		gp.Queue().Put(port.EOF)
	}
	g.finishNode()
}

// Shutdown calls Shutdown on every child that defines a finalization hook.
// The driver must call this only after Stopped has fired.
func (g *Graph) Shutdown(ctx context.Context) error {
	var errs *multierror.Error
	for _, id := range g.instanceOrder {
		node := g.instances[id]
		if shutter, ok := node.(interface{ Shutdown(context.Context) error }); ok {
			if err := shutter.Shutdown(ctx); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	return errs.ErrorOrNil()
}

func (g *Graph) finishNode() {
	g.finish.Do(func() {
		g.log.Debug().Msg("all children stopped, finishing graph")
		for _, gp := range g.outputs {
			if gp.ConnectedCount() > 0 {
				_ = gp.Send(port.EOF)
			}
		}
		close(g.stopped)
	})
}
