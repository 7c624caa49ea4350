package port

import (
	"fmt"
	"reflect"
)

// TypeTag is an opaque type test carried on a port. It is the statically
// typed stand-in for the dynamic "isinstance" checks the original runtime
// relies on: TypeTag.Matches(value) is the single test a port ever performs.
type TypeTag struct {
	rt   reflect.Type
	name string
}

// AnyType is the untyped tag: it matches every value.
var AnyType = TypeTag{}

// String returns the declared type name, or "any" if untyped.
func (t TypeTag) String() string {
	if t.name == "" {
		return "any"
	}
	return t.name
}

// Declared reports whether the tag constrains values at all.
func (t TypeTag) Declared() bool {
	return t.rt != nil
}

// Matches reports whether v satisfies the tag. EOF is handled by callers
// before Matches is ever consulted; Matches only judges ordinary payloads.
func (t TypeTag) Matches(v Value) bool {
	if !t.Declared() {
		return true
	}
	if v == nil {
		return false
	}
	vt := reflect.TypeOf(v)
	return vt == t.rt || vt.AssignableTo(t.rt)
}

// Zero returns the type's zero value, or nil if untyped.
func (t TypeTag) Zero() Value {
	if !t.Declared() {
		return nil
	}
	return reflect.Zero(t.rt).Interface()
}

// TypeOf builds a tag from a representative Go value, mirroring the
// reflect.TypeOf bookkeeping node.OutType/InType perform.
func TypeOf(v any) TypeTag {
	return TypeTag{rt: reflect.TypeOf(v), name: fmt.Sprintf("%T", v)}
}

// namedTypes maps the scalar/container type names used in flow documents
// to a representative Go value, the same small vocabulary pyflyde's
// Input/Output accept as their `type` constructor argument (str, int,
// float, bool, dict, list) plus an explicit "any" escape hatch.
var namedTypes = map[string]any{
	"string": "",
	"str":    "",
	"int":    int(0),
	"float":  float64(0),
	"bool":   false,
	"dict":   map[string]any{},
	"map":    map[string]any{},
	"list":   []any{},
	"array":  []any{},
}

// ParseTypeTag resolves a document-level type name to a TypeTag. An empty
// name (or "any") resolves to AnyType, an untyped, always-matching tag.
func ParseTypeTag(name string) (TypeTag, error) {
	if name == "" || name == "any" {
		return AnyType, nil
	}
	rep, ok := namedTypes[name]
	if !ok {
		return TypeTag{}, fmt.Errorf("port: unknown type name %q", name)
	}
	return TypeTag{rt: reflect.TypeOf(rep), name: name}, nil
}
