// Package loader walks a declarative flow document and builds the live
// tree of graph.Graph/graph.Node instances it describes, consulting a
// registry.Registry for every node type along the way.
package loader

// Document is the top-level parsed flow file: a map of import sources to
// the symbol names they provide, plus the root graph definition.
type Document struct {
	Imports map[string][]string `yaml:"imports,omitempty" mapstructure:"imports"`
	Node    GraphDef             `yaml:"node" mapstructure:"node"`
}

// VisualNodeTag is the reserved nodeId marking a GraphDef as a container
// graph rather than a leaf.
const VisualNodeTag = "VisualNode"

// GraphDef describes one graph (container node), whether it is the
// document's root or a nested blueprint resolved through the registry.
type GraphDef struct {
	ID          string                   `yaml:"id,omitempty" mapstructure:"id"`
	NodeID      string                   `yaml:"nodeId" mapstructure:"nodeId"`
	DisplayName string                   `yaml:"displayName,omitempty" mapstructure:"displayName"`
	InputConfig map[string]any           `yaml:"inputConfig,omitempty" mapstructure:"inputConfig"`
	Inputs      map[string]PortDef       `yaml:"inputs,omitempty" mapstructure:"inputs"`
	Outputs     map[string]PortDef       `yaml:"outputs,omitempty" mapstructure:"outputs"`
	Instances   []InstanceDef            `yaml:"instances,omitempty" mapstructure:"instances"`
	Connections []ConnectionDef          `yaml:"connections,omitempty" mapstructure:"connections"`
}

// PortDef is one entry of a GraphDef's exposed inputs/outputs map: a pin
// name mapping to an optional type, latched value, read mode, and
// requiredness.
type PortDef struct {
	Type     string `yaml:"type,omitempty" mapstructure:"type"`
	Value    any    `yaml:"value,omitempty" mapstructure:"value"`
	Mode     string `yaml:"mode,omitempty" mapstructure:"mode"`
	Required string `yaml:"required,omitempty" mapstructure:"required"`
	Delayed  bool   `yaml:"delayed,omitempty" mapstructure:"delayed"`
}

// SourceDef is the document's serialized form of registry.Source: one of
// a file, a custom module, or a named package.
type SourceDef struct {
	Type string `yaml:"type" mapstructure:"type"`
	Data string `yaml:"data" mapstructure:"data"`
}

// InstanceDef is one entry of a GraphDef's instances list: either a
// reference to a registry-resolved node type, or a macroId naming one of
// the bounded macros in pkg/macro.
type InstanceDef struct {
	ID          string         `yaml:"id,omitempty" mapstructure:"id"`
	NodeID      string         `yaml:"nodeId,omitempty" mapstructure:"nodeId"`
	MacroID     string         `yaml:"macroId,omitempty" mapstructure:"macroId"`
	DisplayName string         `yaml:"displayName,omitempty" mapstructure:"displayName"`
	InputConfig map[string]any `yaml:"inputConfig,omitempty" mapstructure:"inputConfig"`
	Config      map[string]any `yaml:"config,omitempty" mapstructure:"config"`
	MacroData   map[string]any `yaml:"macroData,omitempty" mapstructure:"macroData"`
	Source      *SourceDef     `yaml:"source,omitempty" mapstructure:"source"`
}

// EndpointDef is the document's serialized form of graph.Endpoint.
type EndpointDef struct {
	InsID string `yaml:"insId" mapstructure:"insId"`
	PinID string `yaml:"pinId" mapstructure:"pinId"`
}

// ConnectionDef is one entry of a GraphDef's connections list.
type ConnectionDef struct {
	From    EndpointDef `yaml:"from" mapstructure:"from"`
	To      EndpointDef `yaml:"to" mapstructure:"to"`
	Delayed bool        `yaml:"delayed,omitempty" mapstructure:"delayed"`
	Hidden  bool        `yaml:"hidden,omitempty" mapstructure:"hidden"`
}
