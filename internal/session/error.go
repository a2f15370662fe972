package session

import "fmt"

// Kind classifies a failure at the session boundary. Every internal error
// folds into one of these before it leaves the package.
type Kind int

const (
	KindTransport Kind = iota
	KindPTY
	KindChild
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindPTY:
		return "pty"
	case KindChild:
		return "child"
	}
	return "unknown"
}

// Error is the only error type Run returns.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
