// Package registry is the abstract collaborator the loader consults to
// turn a node-type identifier plus a source descriptor into either a leaf
// constructor or a nested-graph blueprint. Dynamic code loading from
// source trees is out of scope; this package only defines the contract
// and a static in-memory implementation suitable for embedding known leaf
// types and pre-parsed nested graphs.
package registry

import "github.com/loomrun/loom/pkg/graph"

// SourceType names how a node type's implementation is located: a graph
// file, a custom code module, or a named package.
type SourceType string

const (
	SourceFile    SourceType = "file"
	SourceCustom  SourceType = "custom"
	SourcePackage SourceType = "package"
)

// Source locates the code or document backing a node type.
type Source struct {
	Type SourceType `mapstructure:"type" yaml:"type"`
	Data string     `mapstructure:"data" yaml:"data"`
}

// LeafArgs carries everything the loader assembles for a leaf constructor
// call: instance id, display name, the instance's inputConfig, any
// constructor `config`, and macro constructor data.
type LeafArgs struct {
	ID          string
	DisplayName string
	InputConfig map[string]any
	Config      map[string]any
	MacroData   map[string]any
}

// LeafConstructor builds one leaf Component instance per call.
type LeafConstructor func(args LeafArgs) (graph.Node, error)

// Blueprint is a parsed subtree of a graph document — a generic tree, not
// yet decoded into loader.GraphDef, so this package never depends on
// pkg/loader (which depends on this one). The loader re-decodes it with
// mapstructure before recursive instantiation.
type Blueprint = map[string]any

// Registry resolves a node-type identifier plus a Source to either a leaf
// constructor or a nested-graph blueprint, and reports the bounded macro
// allow-list.
type Registry interface {
	ResolveLeaf(name string, source Source) (LeafConstructor, error)
	ResolveGraph(name string, source Source) (Blueprint, error)
	ListMacros() map[string]struct{}
}
