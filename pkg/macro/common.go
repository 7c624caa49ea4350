// Package macro implements the bounded leaf-component allow-list the
// loader recognizes by fixed name instead of consulting the registry for
// a user-supplied source: InlineValue, Conditional, GetAttribute, Http.
// Grounded on original_source/flyde/nodes.py, ported from pyflyde's
// duck-typed InputConfig handling to explicit Go structs decoded from
// registry.LeafArgs.MacroData.
package macro

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
)

// InputValueType selects whether a macro's per-pin configuration supplies
// a fixed value at load time or leaves the pin wired to live input, the Go
// analogue of pyflyde's InputType.STATIC/InputType.DYNAMIC.
type InputValueType string

const (
	ValueStatic  InputValueType = "static"
	ValueDynamic InputValueType = "dynamic"
)

// InputValueConfig is one entry of a macro's macroData, configuring a
// single pin: a dynamic pin stays wired to the live queue/sticky value,
// a static one latches Value once at construction.
type InputValueConfig struct {
	Type  InputValueType `mapstructure:"type"`
	Value port.Value     `mapstructure:"value"`
}

// decodeMacroData decodes a registry.LeafArgs.MacroData map into dst using
// mapstructure, the same two-stage "generic tree → typed struct" pattern
// the loader uses for the whole document.
func decodeMacroData(data map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

// dynamicOrStatic builds an Input whose mode is ModeStatic when cfg
// requests a static value, or ModeQueue (the zero value default) when it
// requests dynamic/live wiring. This mirrors Conditional's leftOperand/
// rightOperand handling in nodes.py.
func dynamicOrStatic(id string, cfg *InputValueConfig) *port.Input {
	if cfg != nil && cfg.Type == ValueStatic {
		return port.NewInput(id, port.WithMode(port.ModeStatic), port.WithInitialValue(cfg.Value))
	}
	return port.NewInput(id)
}

// dynamicOrSticky builds an Input whose mode is ModeSticky for a dynamic
// config (so repeated rounds keep the last value sent), or ModeStatic for
// a static one. Used by GetAttribute's "key" pin and Http's header/param/
// method/data pins, matching nodes.py's ModeSticky vs ModeStatic split.
func dynamicOrSticky(id string, cfg *InputValueConfig, fallback port.Value) *port.Input {
	if cfg == nil {
		return port.NewInput(id, port.WithMode(port.ModeStatic), port.WithInitialValue(fallback))
	}
	if cfg.Type == ValueDynamic {
		if cfg.Value != nil {
			return port.NewInput(id, port.WithMode(port.ModeSticky), port.WithInitialValue(cfg.Value))
		}
		return port.NewInput(id, port.WithMode(port.ModeSticky))
	}
	return port.NewInput(id, port.WithMode(port.ModeStatic), port.WithInitialValue(cfg.Value))
}

// RegisterAll wires every macro constructor into r under its macroId, so
// the loader's registry lookups succeed for the four names ListMacros
// reports.
func RegisterAll(r *registry.StaticRegistry) {
	r.RegisterLeaf("InlineValue", NewInlineValue)
	r.RegisterLeaf("Conditional", NewConditional)
	r.RegisterLeaf("GetAttribute", NewGetAttribute)
	r.RegisterLeaf("Http", NewHTTP)
}

