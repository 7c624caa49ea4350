package flow

import (
	"context"
	"testing"
	"time"

	"github.com/loomrun/loom/pkg/macro"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoDoc = `
node:
  nodeId: VisualNode
  inputs:
    inMsg:
      type: dict
  outputs:
    outMsg:
      type: string
  instances:
    - id: ga
      macroId: GetAttribute
      macroData:
        key:
          type: static
          value: x
  connections:
    - from: {insId: __this, pinId: inMsg}
      to: {insId: ga, pinId: object}
    - from: {insId: ga, pinId: value}
      to: {insId: __this, pinId: outMsg}
`

func newTestRegistry() *registry.StaticRegistry {
	r := registry.NewStaticRegistry()
	macro.RegisterAll(r)
	return r
}

func TestFlow_LoadRunFeedCollect(t *testing.T) {
	f, err := Load([]byte(echoDoc), newTestRegistry())
	require.NoError(t, err)

	outQ := port.NewQueue()
	require.NoError(t, f.Collect("outMsg", outQ))

	f.Run(context.Background())

	inQ, err := f.Feed("inMsg")
	require.NoError(t, err)

	inQ.Put(map[string]any{"x": "hello"})
	assert.Equal(t, "hello", outQ.Get())

	f.Stop()

	select {
	case <-f.Stopped():
	case <-time.After(2 * time.Second):
		require.Fail(t, "flow never stopped")
	}
}

func TestFlow_ToYAML_RoundTrips(t *testing.T) {
	f, err := Load([]byte(echoDoc), newTestRegistry())
	require.NoError(t, err)

	out, err := f.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "VisualNode")

	f2, err := Load(out, newTestRegistry())
	require.NoError(t, err)
	assert.NotNil(t, f2.Root())
}
