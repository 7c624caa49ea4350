package port

import "fmt"

// TypeMismatchError is raised by Input.Set and Output.Send when a non-EOF
// value does not satisfy the port's declared type.
type TypeMismatchError struct {
	PortID   string
	Declared string
	Value    Value
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("port %s: value %v does not match declared type %s", e.PortID, e.Value, e.Declared)
}

// UnconnectedOutputError is raised by Output.Send when the output has zero
// connected downstream queues.
type UnconnectedOutputError struct {
	PortID string
}

func (e *UnconnectedOutputError) Error() string {
	return fmt.Sprintf("port %s: send on unconnected output", e.PortID)
}
