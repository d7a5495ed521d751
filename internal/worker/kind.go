package worker

import "fmt"

// Kind identifies which external worker process a request targets.
type Kind string

const (
	KindCpp    Kind = "cpp"
	KindPython Kind = "python"
	KindJava   Kind = "java"
)

// Kinds lists every supported worker kind in a stable order.
var Kinds = []Kind{KindCpp, KindPython, KindJava}

// ParseKind resolves a worker kind from its name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCpp, KindPython, KindJava:
		return k, nil
	}
	return "", fmt.Errorf("unknown worker kind %q", s)
}

// DisplayName is the human name used in error messages.
func (k Kind) DisplayName() string {
	switch k {
	case KindCpp:
		return "C++"
	case KindPython:
		return "Python"
	case KindJava:
		return "Java"
	}
	return string(k)
}

// State is the lifecycle state of a supervised worker.
type State string

const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateCrashed  State = "crashed"
	StateStopped  State = "stopped"
)
