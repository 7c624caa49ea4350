package macro

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/loomrun/loom/pkg/graph"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
)

type getAttributeConfig struct {
	Key *InputValueConfig `mapstructure:"key"`
}

// NewGetAttribute builds the GetAttribute macro: it walks a dot-separated
// key path through maps and struct fields, grounded on nodes.py's
// GetAttribute (dict .get, else getattr, else None on any miss).
func NewGetAttribute(args registry.LeafArgs) (graph.Node, error) {
	var cfg getAttributeConfig
	if err := decodeMacroData(args.MacroData, &cfg); err != nil {
		return nil, fmt.Errorf("macro GetAttribute %s: %w", args.ID, err)
	}

	objectIn := port.NewInput(args.ID + ".object")
	keyIn := dynamicOrSticky(args.ID+".key", cfg.Key, "")
	out := port.NewOutput(args.ID+".value", "the attribute value", port.AnyType, port.ModeRef)

	return graph.NewComponent(args.ID, "GetAttribute", args.DisplayName,
		[]string{"object", "key"},
		map[string]*port.Input{"object": objectIn, "key": keyIn},
		map[string]*port.Output{"value": out},
		func(ctx context.Context, c *graph.Component, in map[string]port.Value) (graph.ProcessOutcome, error) {
			key, _ := in["key"].(string)
			return graph.Emit(map[string]port.Value{"value": walkAttributePath(in["object"], key)}), nil
		},
	), nil
}

func walkAttributePath(object port.Value, key string) port.Value {
	value := object
	for _, k := range strings.Split(key, ".") {
		if value == nil {
			return nil
		}
		if m, ok := value.(map[string]any); ok {
			value = m[k]
			continue
		}
		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.Struct {
			field := rv.FieldByName(k)
			if field.IsValid() && field.CanInterface() {
				value = field.Interface()
				continue
			}
		}
		return nil
	}
	return value
}
