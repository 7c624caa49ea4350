package loader

import "fmt"

// InvalidDocumentError reports a structural problem in a parsed document
// that prevented building a node from it: a missing nodeId/macroId, a
// root that isn't a graph, an unparsable port type tag.
type InvalidDocumentError struct {
	Path   string
	Reason string
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("invalid document at %s: %s", e.Path, e.Reason)
}

// UnsupportedMacroError reports a macroId outside the engine's bounded
// allow-list.
type UnsupportedMacroError struct {
	MacroID string
}

func (e *UnsupportedMacroError) Error() string {
	return fmt.Sprintf("unsupported macro %q: not in the engine's macro allow-list", e.MacroID)
}
