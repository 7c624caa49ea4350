package loader

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/loomrun/loom/pkg/graph"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
	"gopkg.in/yaml.v3"
)

// Loader recursively turns a Document into a live graph.Graph, consulting a
// registry.Registry for every instance's node type.
type Loader struct {
	Registry registry.Registry
}

// NewLoader builds a Loader bound to reg.
func NewLoader(reg registry.Registry) *Loader {
	return &Loader{Registry: reg}
}

// FromYAML parses raw document bytes into a Document. It follows a
// two-stage decode: yaml.v3 first unmarshals into a generic tree, then
// mapstructure decodes that tree into the typed Document, so any field
// mapstructure coerces (weak-typed numbers, etc) behaves identically to
// the loader's other generic-tree consumers (registry.LeafArgs.Config/
// MacroData).
func FromYAML(data []byte) (*Document, error) {
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("loader: parsing yaml: %w", err)
	}
	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(generic); err != nil {
		return nil, fmt.Errorf("loader: decoding document: %w", err)
	}
	return &doc, nil
}

// ToYAML serializes doc back to bytes. Combined with FromYAML this gives
// a load→save round trip: a document loaded and re-saved without
// modification parses back to the same Document. The output is rendered
// afresh from the struct's yaml tags, so the original's formatting, flow
// style and comments are not preserved.
func ToYAML(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Load builds the root graph.Graph described by doc.
func (l *Loader) Load(doc *Document) (*graph.Graph, error) {
	if doc.Node.NodeID != "" && doc.Node.NodeID != VisualNodeTag {
		return nil, &InvalidDocumentError{Path: "node", Reason: "document root must be a VisualNode graph"}
	}
	node, err := l.buildGraph(doc.Node, doc, "node")
	if err != nil {
		return nil, err
	}
	return node, nil
}

// buildGraph instantiates every instance of gd, wires gd's connections, and
// returns the assembled container graph.
func (l *Loader) buildGraph(gd GraphDef, doc *Document, path string) (*graph.Graph, error) {
	id := gd.ID
	if id == "" {
		id = graph.NewInstanceID("VisualNode")
	}

	var errs *multierror.Error

	instanceOrder := make([]string, 0, len(gd.Instances))
	instances := make(map[string]graph.Node, len(gd.Instances))
	for i, inst := range gd.Instances {
		child, err := l.buildInstance(inst, doc, fmt.Sprintf("%s.instances[%d]", path, i))
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		instanceOrder = append(instanceOrder, child.ID())
		instances[child.ID()] = child
	}

	inputs, err := buildGraphPorts(id, gd.Inputs)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	outputs, err := buildGraphPorts(id, gd.Outputs)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	connections := make([]graph.Connection, 0, len(gd.Connections))
	for _, c := range gd.Connections {
		connections = append(connections, graph.Connection{
			From:    graph.Endpoint{InstanceID: c.From.InsID, PinID: c.From.PinID},
			To:      graph.Endpoint{InstanceID: c.To.InsID, PinID: c.To.PinID},
			Delayed: c.Delayed,
			Hidden:  c.Hidden,
		})
	}

	return graph.NewGraph(id, VisualNodeTag, gd.DisplayName, instanceOrder, instances, connections, inputs, outputs)
}

// buildGraphPorts turns a GraphDef's inputs/outputs map into the GraphPorts
// a Graph exposes at its boundary. The port-level mode/value/required
// metadata in PortDef documents intent for the interior Input a connection
// from "__this" ultimately feeds (configured there via that instance's
// inputConfig) rather than being enforced again at the GraphPort itself,
// which only ever merges and forwards (see DESIGN.md Open Question
// decisions).
func buildGraphPorts(graphID string, defs map[string]PortDef) (map[string]*port.GraphPort, error) {
	out := make(map[string]*port.GraphPort, len(defs))
	var errs *multierror.Error
	for pin, pd := range defs {
		typ, err := port.ParseTypeTag(pd.Type)
		if err != nil {
			errs = multierror.Append(errs, &InvalidDocumentError{Path: graphID + "." + pin, Reason: err.Error()})
			continue
		}
		out[pin] = port.NewGraphPort(graphID+"."+pin, "", typ, port.ModeRef)
	}
	return out, errs.ErrorOrNil()
}

// buildInstance resolves one InstanceDef to a live graph.Node: a macro, a
// registry leaf, or a recursively-built nested graph.
func (l *Loader) buildInstance(inst InstanceDef, doc *Document, path string) (graph.Node, error) {
	id := inst.ID

	switch {
	case inst.MacroID != "":
		macros := l.Registry.ListMacros()
		if _, ok := macros[inst.MacroID]; !ok {
			return nil, &UnsupportedMacroError{MacroID: inst.MacroID}
		}
		if id == "" {
			id = graph.NewInstanceID(inst.MacroID)
		}
		ctor, err := l.Registry.ResolveLeaf(inst.MacroID, registry.Source{Type: registry.SourcePackage, Data: "macro"})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ctor(registry.LeafArgs{
			ID:          id,
			DisplayName: inst.DisplayName,
			InputConfig: inst.InputConfig,
			Config:      inst.Config,
			MacroData:   inst.MacroData,
		})

	case inst.NodeID != "":
		if id == "" {
			id = graph.NewInstanceID(inst.NodeID)
		}
		source := resolveInstanceSource(doc, inst)

		if bp, err := l.Registry.ResolveGraph(inst.NodeID, source); err == nil {
			childDef, derr := decodeBlueprint(bp)
			if derr != nil {
				return nil, fmt.Errorf("%s: decoding blueprint %q: %w", path, inst.NodeID, derr)
			}
			childDef = mergeCallSite(childDef, inst, id)
			return l.buildGraph(childDef, doc, path)
		}

		ctor, err := l.Registry.ResolveLeaf(inst.NodeID, source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ctor(registry.LeafArgs{
			ID:          id,
			DisplayName: inst.DisplayName,
			InputConfig: inst.InputConfig,
			Config:      inst.Config,
			MacroData:   inst.MacroData,
		})

	default:
		return nil, &InvalidDocumentError{Path: path, Reason: "instance has neither nodeId nor macroId"}
	}
}

// resolveInstanceSource builds the Source the registry resolves inst's node
// type through: an instance-level `source` entry takes priority; otherwise
// the loader looks up which import declares the symbol and infers a type
// from the import path's suffix.
func resolveInstanceSource(doc *Document, inst InstanceDef) registry.Source {
	if inst.Source != nil {
		return registry.Source{Type: registry.SourceType(inst.Source.Type), Data: inst.Source.Data}
	}
	for modPath, symbols := range doc.Imports {
		for _, sym := range symbols {
			if sym != inst.NodeID {
				continue
			}
			if strings.HasSuffix(modPath, ".flyde") || strings.HasSuffix(modPath, ".graph.yaml") {
				return registry.Source{Type: registry.SourceFile, Data: modPath}
			}
			return registry.Source{Type: registry.SourceCustom, Data: modPath}
		}
	}
	return registry.Source{Type: registry.SourcePackage, Data: inst.NodeID}
}

// decodeBlueprint re-decodes a registry-resolved generic blueprint into a
// typed GraphDef, the same mapstructure pass FromYAML uses for the
// document's own tree.
func decodeBlueprint(bp registry.Blueprint) (GraphDef, error) {
	var gd GraphDef
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &gd,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return GraphDef{}, err
	}
	if err := dec.Decode(bp); err != nil {
		return GraphDef{}, err
	}
	return gd, nil
}

// mergeCallSite layers the call-site instance's overrides onto a resolved
// blueprint (blueprint ⊕ call-site arguments). Only id and displayName are
// overridden here; inputConfig merging is an Open Question resolved in
// DESIGN.md by letting the blueprint's own declared inputs win, since the
// call site's inputConfig addresses the instance as seen from its parent,
// not the nested graph's interior wiring.
func mergeCallSite(gd GraphDef, inst InstanceDef, id string) GraphDef {
	gd.ID = id
	if inst.DisplayName != "" {
		gd.DisplayName = inst.DisplayName
	}
	return gd
}
