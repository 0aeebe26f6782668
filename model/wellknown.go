package model

import "sort"

// WellKnownKind classifies non-opaque types.
type WellKnownKind int

const (
	KindCallback WellKnownKind = iota
	KindPassthrough
	KindPrimitive
)

func (k WellKnownKind) String() string {
	switch k {
	case KindCallback:
		return "callback"
	case KindPassthrough:
		return "passthrough"
	case KindPrimitive:
		return "primitive"
	default:
		return "unknown"
	}
}

// DefaultHostModule is the synthetic module owning callback and passthrough types.
const DefaultHostModule = "callbacks"

// WellKnown describes a type that never gets an opaque-pointer wrapper.
type WellKnown struct {
	Name   string
	Kind   WellKnownKind
	Module string // host module; empty for primitives

	// Callback signature: argument classes in call order and optional return class.
	Args    []string
	Returns string

	// DefaultConstructor names a zero-argument constructor of Returns used by
	// the default callback implementation. Empty means the default panics.
	DefaultConstructor string
}

// WellKnownSet is an ordered set of well-known types with name lookup.
type WellKnownSet struct {
	types []*WellKnown
	index map[string]*WellKnown
}

// NewWellKnownSet builds a set; later entries replace earlier ones with the same name.
func NewWellKnownSet(types ...WellKnown) *WellKnownSet {
	s := &WellKnownSet{index: map[string]*WellKnown{}}
	for _, t := range types {
		s.Add(t)
	}
	return s
}

// Add inserts or replaces a well-known type.
func (s *WellKnownSet) Add(t WellKnown) {
	if t.Kind != KindPrimitive && t.Module == "" {
		t.Module = DefaultHostModule
	}
	w := &t
	if old, ok := s.index[t.Name]; ok {
		for i := range s.types {
			if s.types[i] == old {
				s.types[i] = w
			}
		}
	} else {
		s.types = append(s.types, w)
	}
	s.index[t.Name] = w
}

// Lookup returns the well-known type with the given name.
func (s *WellKnownSet) Lookup(name string) (*WellKnown, bool) {
	if s == nil {
		return nil, false
	}
	w, ok := s.index[name]
	return w, ok
}

// All returns the types in insertion order.
func (s *WellKnownSet) All() []*WellKnown {
	if s == nil {
		return nil
	}
	return s.types
}

// Callbacks returns only callback types, in insertion order.
func (s *WellKnownSet) Callbacks() []*WellKnown {
	var out []*WellKnown
	for _, t := range s.All() {
		if t.Kind == KindCallback {
			out = append(out, t)
		}
	}
	return out
}

// HostModules returns the sorted distinct host modules of non-primitive types.
func (s *WellKnownSet) HostModules() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range s.All() {
		if t.Module != "" && !seen[t.Module] {
			seen[t.Module] = true
			out = append(out, t.Module)
		}
	}
	sort.Strings(out)
	return out
}

// Primitives lists the scalar types every description may use without declaring them.
var Primitives = []string{"bool", "u8", "i32", "u32", "i64", "u64", "usize", "f32", "f64"}

// DefaultWellKnown returns the built-in well-known types: the layout callback,
// the raw data-model type, and the scalar primitives.
func DefaultWellKnown() []WellKnown {
	types := []WellKnown{
		{
			Name:               "LayoutCallback",
			Kind:               KindCallback,
			Module:             DefaultHostModule,
			Args:               []string{"RefAny", "LayoutInfo"},
			Returns:            "Dom",
			DefaultConstructor: "div",
		},
		{Name: "DataModel", Kind: KindPassthrough, Module: DefaultHostModule},
	}
	for _, p := range Primitives {
		types = append(types, WellKnown{Name: p, Kind: KindPrimitive})
	}
	return types
}
