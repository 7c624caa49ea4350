package port

import "github.com/loomrun/loom/pkg/port/internal/fifo"

// Queue is the shared connection queue type, aliased so callers outside this
// package (pkg/graph's wiring and tests) can hold and pass the value
// NewQueue returns without importing the internal fifo package themselves.
type Queue = *fifo.Queue

// InputSink is implemented by anything that can be handed the shared queue
// of a newly wired Connection on its consuming end: an ordinary Input
// (single producer, the common case) or a GraphPort used in its
// exposed-output role (merges one or more interior producers with
// reference-counted EOF gating, see GraphPort.Feed). Wiring code in
// pkg/graph calls Feed uniformly without caring which concrete type it
// got back from a Node's InputPorts().
type InputSink interface {
	Feed(q *fifo.Queue)
}

// OutputSource is implemented by anything that can gain a new downstream
// reader: an ordinary Output (fan-out list) or a GraphPort used in its
// exposed-input role. This is also the literal external driver contract,
// node.outputs[pin].connect(q).
type OutputSource interface {
	Connect(q *fifo.Queue)
}

// NewQueue allocates the shared queue materialized by wiring a connection.
// Callers outside this package never need to name the concrete queue type,
// only pass the returned value between an OutputSource.Connect and an
// InputSink.Feed.
func NewQueue() *fifo.Queue {
	return fifo.New()
}
