package graph

import (
	"context"
	"testing"
	"time"

	"github.com/loomrun/loom/pkg/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainValues(t *testing.T, q port.Queue, n int, timeout time.Duration) []port.Value {
	t.Helper()
	out := make([]port.Value, 0, n)
	deadline := time.Now().Add(timeout)
	for len(out) < n {
		v := q.Get()
		out = append(out, v)
		if time.Now().After(deadline) {
			require.Fail(t, "timed out draining graph output")
		}
	}
	return out
}

func newEchoGraph(t *testing.T) *Graph {
	strType, err := port.ParseTypeTag("string")
	require.NoError(t, err)

	echoIn := port.NewInput("echo.in", port.WithType(strType))
	echoOut := port.NewOutput("echo.out", "", strType, port.ModeRef)
	echo := NewComponent("echo", "Echo", "Echo", []string{"in"},
		map[string]*port.Input{"in": echoIn},
		map[string]*port.Output{"out": echoOut},
		func(ctx context.Context, c *Component, in map[string]port.Value) (ProcessOutcome, error) {
			msg := in["in"].(string)
			if msg == "" {
				return Emit(map[string]port.Value{"out": "ERR: msg is empty"}), nil
			}
			return Emit(map[string]port.Value{"out": msg}), nil
		})

	gIn := port.NewGraphPort("g.inMsg", "", strType, port.ModeRef)
	gOut := port.NewGraphPort("g.outMsg", "", strType, port.ModeRef)

	connections := []Connection{
		{From: Endpoint{ThisInstanceID, "inMsg"}, To: Endpoint{"echo", "in"}},
		{From: Endpoint{"echo", "out"}, To: Endpoint{ThisInstanceID, "outMsg"}},
	}

	g, err := NewGraph("g1", "VisualNode", "Echo graph",
		[]string{"echo"},
		map[string]Node{"echo": echo},
		connections,
		map[string]*port.GraphPort{"inMsg": gIn},
		map[string]*port.GraphPort{"outMsg": gOut},
	)
	require.NoError(t, err)
	return g
}

// TestGraph_EchoWithErrorOnEmpty drives the echo graph with an empty message
// among ordinary ones, asserting the error text is emitted in its place, in
// order, followed by EOF, and that the graph then reports Stopped.
func TestGraph_EchoWithErrorOnEmpty(t *testing.T) {
	g := newEchoGraph(t)

	// Attach the downstream reader before anything runs, so no value sent
	// through the exposed output can be dropped on the floor.
	readerQueue := port.NewQueue()
	g.outputs["outMsg"].Connect(readerQueue)

	g.Run(context.Background())

	in := g.inputs["inMsg"].Queue()
	for _, v := range []string{"Hello", "World", ""} {
		in.Put(v)
	}
	in.Put(port.EOF)

	got := drainValues(t, readerQueue, 4, 2*time.Second)
	require.Len(t, got, 4)
	assert.Equal(t, "Hello", got[0])
	assert.Equal(t, "World", got[1])
	assert.Equal(t, "ERR: msg is empty", got[2])
	assert.True(t, port.IsEOF(got[3]))

	select {
	case <-g.Stopped():
	case <-time.After(2 * time.Second):
		require.Fail(t, "graph never reported Stopped")
	}
}
