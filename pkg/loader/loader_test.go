package loader

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

const sampleDoc = `
node:
  nodeId: VisualNode
  outputs:
    result:
      type: any
  instances:
    - id: iv
      macroId: InlineValue
      macroData:
        value:
          a:
            b: 7
    - id: ga
      macroId: GetAttribute
      macroData:
        key:
          type: static
          value: a.b
  connections:
    - from: {insId: iv, pinId: value}
      to: {insId: ga, pinId: object}
    - from: {insId: ga, pinId: value}
      to: {insId: __this, pinId: result}
`

func newTestRegistry() *registry.StaticRegistry {
	r := registry.NewStaticRegistry()
	macro.RegisterAll(r)
	return r
}

func TestFromYAML_ParsesDocument(t *testing.T) {
	doc, err := FromYAML([]byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, "VisualNode", doc.Node.NodeID)
	require.Len(t, doc.Node.Instances, 2)
	assert.Equal(t, "InlineValue", doc.Node.Instances[0].MacroID)
	require.Len(t, doc.Node.Connections, 2)
	assert.Equal(t, "__this", doc.Node.Connections[1].To.InsID)
}

// TestRoundTrip_FromYAMLToYAML asserts loading a document and saving it
// back produces a document that parses to the same logical structure.
func TestRoundTrip_FromYAMLToYAML(t *testing.T) {
	doc, err := FromYAML([]byte(sampleDoc))
	require.NoError(t, err)

	out, err := ToYAML(doc)
	require.NoError(t, err)

	reloaded, err := FromYAML(out)
	require.NoError(t, err)

	assert.Equal(t, doc.Node.NodeID, reloaded.Node.NodeID)
	assert.Equal(t, doc.Node.Instances, reloaded.Node.Instances)
	assert.Equal(t, doc.Node.Connections, reloaded.Node.Connections)
	assert.Equal(t, doc.Node.Outputs, reloaded.Node.Outputs)
}

// TestLoad_BuildsRunnableGraph wires InlineValue into GetAttribute and runs
// the assembled graph end to end through its exposed output.
func TestLoad_BuildsRunnableGraph(t *testing.T) {
	doc, err := FromYAML([]byte(sampleDoc))
	require.NoError(t, err)

	l := NewLoader(newTestRegistry())
	g, err := l.Load(doc)
	require.NoError(t, err)

	resultQ := port.NewQueue()
	g.OutputPorts()["result"].Connect(resultQ)

	g.Run(context.Background())

	got := resultQ.Get()
	assert.Equal(t, 7, got)

	select {
	case <-g.Stopped():
	case <-time.After(2 * time.Second):
		require.Fail(t, "graph never stopped")
	}
}

func TestLoad_UnsupportedMacroIsRejected(t *testing.T) {
	doc, err := FromYAML([]byte(`
node:
  nodeId: VisualNode
  instances:
    - id: bad
      macroId: DeleteEverything
`))
	require.NoError(t, err)

	l := NewLoader(newTestRegistry())
	_, err = l.Load(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DeleteEverything")
}

// TestLoad_AggregatesMultipleInstanceErrors ensures several unrelated
// instance-resolution failures are reported together instead of stopping at
// the first one, mirroring the wiring algorithm's own multierror use.
func TestLoad_AggregatesMultipleInstanceErrors(t *testing.T) {
	doc, err := FromYAML([]byte(`
node:
  nodeId: VisualNode
  instances:
    - id: a
      macroId: NotReal1
    - id: b
      macroId: NotReal2
`))
	require.NoError(t, err)

	l := NewLoader(newTestRegistry())
	_, err = l.Load(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NotReal1")
	assert.Contains(t, err.Error(), "NotReal2")
}
