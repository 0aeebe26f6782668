package model

import "fmt"

// Mode is how a value crosses the boundary: moved, borrowed or mutably borrowed.
// It is used both for a function's receiver and for class-typed arguments.
type Mode int

const (
	ModeValue Mode = iota
	ModeRef
	ModeRefMut
)

func (m Mode) String() string {
	switch m {
	case ModeValue:
		return "value"
	case ModeRef:
		return "ref"
	case ModeRefMut:
		return "refmut"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseSelfMode parses a receiver mode as written in the description.
func ParseSelfMode(s string) (Mode, error) {
	switch s {
	case "value":
		return ModeValue, nil
	case "ref":
		return ModeRef, nil
	case "refmut":
		return ModeRefMut, nil
	default:
		return 0, fmt.Errorf("%w %q (want value, ref or refmut)", ErrWrongSelfMode, s)
	}
}

// IsBorrow reports whether the mode leaves ownership with the caller.
func (m Mode) IsBorrow() bool {
	return m == ModeRef || m == ModeRefMut
}
