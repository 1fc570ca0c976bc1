package lambda

import (
	"errors"
	"fmt"

	"github.com/vic/goabsal/pkg/inet"
)

var (
	ErrParse           = errors.New("parse error")
	ErrUnboundVariable = errors.New("unbound variable")
	ErrMalformedNet    = errors.New("malformed net")
)

// ParseError reports malformed term text. Pos is a byte offset; Line and
// Col are 1-based, Col counting runes.
type ParseError struct {
	Pos  int
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// UnboundVariableError is returned by Compile for a variable that no
// enclosing λ or let binds.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("unbound variable %q", e.Name)
}

func (e *UnboundVariableError) Is(target error) bool { return target == ErrUnboundVariable }

// MalformedNetError is returned by Decompile when the net reachable from
// the root has no finite term reading.
type MalformedNetError struct {
	Node   inet.NodeID
	Port   inet.Port
	Reason string
}

func (e *MalformedNetError) Error() string {
	return fmt.Sprintf("malformed net at node %d (port %v): %s", e.Node, e.Port, e.Reason)
}

func (e *MalformedNetError) Is(target error) bool { return target == ErrMalformedNet }
