package graph

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/loomrun/loom/pkg/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitStopped(t *testing.T, ch <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.Fail(t, "timed out waiting for Stopped")
	}
}

// TestComponent_SourceThenSink wires a zero-input source that emits one
// value then calls Stop straight to a sink.
func TestComponent_SourceThenSink(t *testing.T) {
	strType, err := port.ParseTypeTag("string")
	require.NoError(t, err)

	srcOut := port.NewOutput("src.out", "", strType, port.ModeRef)
	src := NewComponent("src", "Source", "Source", nil, nil,
		map[string]*port.Output{"out": srcOut},
		func(ctx context.Context, c *Component, in map[string]port.Value) (ProcessOutcome, error) {
			c.Stop()
			return Emit(map[string]port.Value{"out": "Hello"}), nil
		})

	sinkIn := port.NewInput("sink.in", port.WithType(strType))
	var mu sync.Mutex
	var received []port.Value
	sink := NewComponent("sink", "Sink", "Sink", []string{"in"},
		map[string]*port.Input{"in": sinkIn}, nil,
		func(ctx context.Context, c *Component, in map[string]port.Value) (ProcessOutcome, error) {
			mu.Lock()
			received = append(received, in["in"])
			mu.Unlock()
			return None, nil
		})

	q := port.NewQueue()
	srcOut.Connect(q)
	sinkIn.Feed(q)

	ctx := context.Background()
	src.Run(ctx)
	sink.Run(ctx)

	waitStopped(t, src.Stopped(), 2*time.Second)
	waitStopped(t, sink.Stopped(), 2*time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1, "EOF terminates the loop before process runs again")
	assert.Equal(t, "Hello", received[0])
}

// TestComponent_UnknownOutput asserts that emitting to an undeclared pin is
// fatal and still finishes the node.
func TestComponent_UnknownOutput(t *testing.T) {
	c := NewComponent("n", "Bad", "Bad", nil, nil, map[string]*port.Output{},
		func(ctx context.Context, c *Component, in map[string]port.Value) (ProcessOutcome, error) {
			c.Stop()
			return Emit(map[string]port.Value{"nope": 1}), nil
		})

	c.Run(context.Background())
	waitStopped(t, c.Stopped(), 2*time.Second)

	var unknown *UnknownOutputError
	assert.ErrorAs(t, c.Err(), &unknown)
}

// TestComponent_StickyNeverTerminatesOnEOF asserts that a node with only a
// sticky input must be stopped explicitly: EOF on the sticky input alone
// never ends the loop.
func TestComponent_StickyNeverTerminatesOnEOF(t *testing.T) {
	in := port.NewInput("n.s", port.WithMode(port.ModeSticky), port.WithInitialValue(1))
	q := port.NewQueue()
	in.Feed(q)

	var mu sync.Mutex
	rounds := 0
	c := NewComponent("n", "StickyOnly", "StickyOnly", []string{"s"},
		map[string]*port.Input{"s": in}, nil,
		func(ctx context.Context, c *Component, vals map[string]port.Value) (ProcessOutcome, error) {
			mu.Lock()
			rounds++
			n := rounds
			mu.Unlock()
			if n >= 3 {
				c.Stop()
			}
			return None, nil
		})

	q.Put(port.EOF)
	c.Run(context.Background())
	waitStopped(t, c.Stopped(), 2*time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, rounds, 3)
}
