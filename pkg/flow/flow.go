// Package flow wraps a loaded root graph with the lifecycle and external
// driving helpers for the document's outermost node: a non-blocking Run,
// a RunSync that waits for completion and then runs main-thread-only
// shutdown hooks, and passthrough document serialization.
package flow

import (
	"context"
	"fmt"

	"github.com/loomrun/loom/pkg/graph"
	"github.com/loomrun/loom/pkg/loader"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
)

// Flow is the runnable handle a host program gets back after loading a
// document: the root graph plus convenience wiring to reach for (put onto
// an input queue, connect a reader to an output) without naming pkg/graph
// or pkg/port types directly.
type Flow struct {
	doc  *loader.Document
	root *graph.Graph
}

// Load parses data as a document and builds its root graph against reg.
func Load(data []byte, reg registry.Registry) (*Flow, error) {
	doc, err := loader.FromYAML(data)
	if err != nil {
		return nil, err
	}
	l := loader.NewLoader(reg)
	root, err := l.Load(doc)
	if err != nil {
		return nil, fmt.Errorf("flow: %w", err)
	}
	return &Flow{doc: doc, root: root}, nil
}

// ToYAML serializes the flow's document, passthrough to loader.ToYAML.
func (f *Flow) ToYAML() ([]byte, error) {
	return loader.ToYAML(f.doc)
}

// Root returns the underlying root graph for callers that need the
// lower-level graph.Node surface directly.
func (f *Flow) Root() *graph.Graph {
	return f.root
}

// Feed returns the shared queue driving the root graph's exposed input
// pin, for direct external driving (node.inputs[pin].queue.put(v)).
func (f *Flow) Feed(pin string) (port.Queue, error) {
	gp, ok := f.root.InputPorts()[pin]
	if !ok {
		return nil, fmt.Errorf("flow: no such input pin %q", pin)
	}
	in, ok := gp.(interface{ Queue() port.Queue })
	if !ok {
		return nil, fmt.Errorf("flow: input pin %q does not support direct driving", pin)
	}
	return in.Queue(), nil
}

// Collect attaches q as a reader of the root graph's exposed output pin
// (node.outputs[pin].connect(q)).
func (f *Flow) Collect(pin string, q port.Queue) error {
	gp, ok := f.root.OutputPorts()[pin]
	if !ok {
		return fmt.Errorf("flow: no such output pin %q", pin)
	}
	gp.Connect(q)
	return nil
}

// Run starts the root graph's children and returns immediately.
func (f *Flow) Run(ctx context.Context) {
	f.root.Run(ctx)
}

// RunSync starts the root graph, blocks until it reports Stopped, then runs
// every child's main-thread-only Shutdown hook — Shutdown is never called
// from a worker goroutine.
func (f *Flow) RunSync(ctx context.Context) error {
	f.root.Run(ctx)
	<-f.root.Stopped()
	return f.root.Shutdown(ctx)
}

// Stop requests a graceful stop: EOF is pushed into every exposed input,
// and the graph finishes once its children drain naturally.
func (f *Flow) Stop() {
	f.root.Stop()
}

// Terminate stops every child immediately without waiting for queued work
// to drain.
func (f *Flow) Terminate() {
	f.root.Terminate()
}

// Stopped reports when the root graph has finished.
func (f *Flow) Stopped() <-chan struct{} {
	return f.root.Stopped()
}
