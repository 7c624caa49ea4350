package registry

import "fmt"

// RegistryError reports a node type or source scheme the registry could
// not resolve: unknown node type, unknown source scheme, or a source
// pointing at something that doesn't exist.
type RegistryError struct {
	Name   string
	Source Source
	Reason string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry: %s (source %s:%s): %s", e.Name, e.Source.Type, e.Source.Data, e.Reason)
}
