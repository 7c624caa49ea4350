package macro

import (
	"context"
	"fmt"

	"github.com/loomrun/loom/pkg/graph"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
)

type inlineValueConfig struct {
	Value port.Value `mapstructure:"value"`
}

// NewInlineValue builds the InlineValue macro: it sends a single constant
// from macroData.value then stops, grounded on nodes.py's InlineValue
// (outputs once, calls self.stop()).
func NewInlineValue(args registry.LeafArgs) (graph.Node, error) {
	var cfg inlineValueConfig
	if err := decodeMacroData(args.MacroData, &cfg); err != nil {
		return nil, fmt.Errorf("macro InlineValue %s: %w", args.ID, err)
	}
	if cfg.Value == nil {
		return nil, fmt.Errorf("macro InlineValue %s: missing 'value' in macroData", args.ID)
	}

	out := port.NewOutput(args.ID+".value", "the constant value", port.AnyType, port.ModeRef)
	return graph.NewComponent(args.ID, "InlineValue", args.DisplayName, nil, nil,
		map[string]*port.Output{"value": out},
		func(ctx context.Context, c *graph.Component, in map[string]port.Value) (graph.ProcessOutcome, error) {
			c.Stop()
			return graph.Emit(map[string]port.Value{"value": cfg.Value}), nil
		},
	), nil
}
