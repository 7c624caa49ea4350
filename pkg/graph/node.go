package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loomrun/loom/pkg/port"
)

// Node is the shared contract between a leaf Component and a container
// Graph, letting a Graph wire and run either uniformly.
type Node interface {
	ID() string
	NodeType() string
	DisplayName() string

	InputPorts() map[string]port.InputSink
	OutputPorts() map[string]port.OutputSource

	// Run starts the node's goroutine(s). It returns once the node has
	// finished setting up and is ready to receive; it does not block for
	// the node's lifetime.
	Run(ctx context.Context)

	// Stop requests that the node terminate. A Component checks its stop
	// flag between rounds, so one blocked reading a queue-mode input stops
	// only after that read returns; a Graph pushes EOF into its own exposed
	// inputs.
	Stop()

	// Stopped is closed once the node has fully finished running.
	Stopped() <-chan struct{}
}

// NewInstanceID builds the engine's default "<nodeType>-<uuid>" instance ID,
// used when a document omits an explicit instance id.
func NewInstanceID(nodeType string) string {
	return fmt.Sprintf("%s-%s", nodeType, uuid.NewString())
}
