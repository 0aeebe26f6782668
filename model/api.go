package model

import (
	"fmt"
	"sort"
	"strings"
)

// API is the validated in-memory form of one API description version.
// It is built once per generation run and not mutated afterwards.
type API struct {
	Version   string
	Modules   []*Module
	WellKnown *WellKnownSet
}

// Module groups classes under a unique name.
type Module struct {
	Name    string
	Classes []*Class
}

// Class is a named type exposed across the boundary as an opaque handle.
type Class struct {
	Name         string
	Module       string
	Doc          string
	External     string // path of an externally defined type the opaque type aliases
	BackingType  string // native type behind the handle; defaults to Name
	Constructors []*Operation
	Functions    []*Operation
}

// OpKind distinguishes constructors from functions.
type OpKind int

const (
	OpConstructor OpKind = iota
	OpFunction
)

func (k OpKind) String() string {
	switch k {
	case OpConstructor:
		return "constructor"
	case OpFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Operation is a constructor or a function of a class.
type Operation struct {
	Kind    OpKind
	Name    string
	Doc     string
	Body    string // verbatim native expression, never interpreted
	Self    *Mode  // functions only; nil means no receiver
	Args    []Arg  // description order is the call order
	Returns *TypeRef
}

// Arg is a single named argument.
type Arg struct {
	Name string
	Type TypeRef
}

// TypeRef names a class or a well-known type together with how it is passed.
type TypeRef struct {
	Name string
	Mode Mode
}

// ParseTypeRef parses "Name", "&Name" or "&mut Name".
func ParseTypeRef(s string) (TypeRef, error) {
	t := strings.TrimSpace(s)
	mode := ModeValue
	if strings.HasPrefix(t, "&") {
		mode = ModeRef
		t = strings.TrimSpace(t[1:])
		if t == "mut" || strings.HasPrefix(t, "mut ") {
			mode = ModeRefMut
			t = strings.TrimSpace(strings.TrimPrefix(t, "mut"))
		}
	}
	if t == "" || strings.ContainsAny(t, "&* \t") {
		return TypeRef{}, fmt.Errorf("invalid type reference %q", s)
	}
	return TypeRef{Name: t, Mode: mode}, nil
}

func (t TypeRef) String() string {
	switch t.Mode {
	case ModeRef:
		return "&" + t.Name
	case ModeRefMut:
		return "&mut " + t.Name
	default:
		return t.Name
	}
}

// Backing returns the native type name used at the flat-ABI definition layer.
func (c *Class) Backing() string {
	if c.BackingType != "" {
		return c.BackingType
	}
	return c.Name
}

// Operations returns constructors followed by functions.
func (c *Class) Operations() []*Operation {
	ops := make([]*Operation, 0, len(c.Constructors)+len(c.Functions))
	ops = append(ops, c.Constructors...)
	return append(ops, c.Functions...)
}

// Path returns the description address of an operation, used in error messages.
func (c *Class) Path(op *Operation) string {
	section := "functions"
	list := c.Functions
	if op.Kind == OpConstructor {
		section = "constructors"
		list = c.Constructors
	}
	for i, o := range list {
		if o == op {
			return fmt.Sprintf("%s.%s.%s[%d]", c.Module, c.Name, section, i)
		}
	}
	return fmt.Sprintf("%s.%s.%s", c.Module, c.Name, op.Name)
}

// ModuleByName looks up a module.
func (a *API) ModuleByName(name string) *Module {
	for _, m := range a.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Classes returns every class in description order.
func (a *API) Classes() []*Class {
	var out []*Class
	for _, m := range a.Modules {
		out = append(out, m.Classes...)
	}
	return out
}

// ClassByName returns the first class with the given name. Validation
// guarantees there is at most one.
func (a *API) ClassByName(name string) *Class {
	for _, m := range a.Modules {
		for _, c := range m.Classes {
			if c.Name == name {
				return c
			}
		}
	}
	return nil
}

// OwnersOf returns the names of every module defining a class called name.
func (a *API) OwnersOf(name string) []string {
	var owners []string
	for _, m := range a.Modules {
		for _, c := range m.Classes {
			if c.Name == name {
				owners = append(owners, m.Name)
				break
			}
		}
	}
	return owners
}

// Uses reports whether any operation mentions the named type as an argument
// or return type.
func (a *API) Uses(name string) bool {
	for _, c := range a.Classes() {
		for _, op := range c.Operations() {
			if op.Returns != nil && op.Returns.Name == name {
				return true
			}
			for _, arg := range op.Args {
				if arg.Type.Name == name {
					return true
				}
			}
		}
	}
	return false
}

// UsedCallbacks returns the callback types referenced by at least one
// operation. Unused callbacks get no cell, trampoline or typedef.
func (a *API) UsedCallbacks() []*WellKnown {
	var out []*WellKnown
	for _, cb := range a.WellKnown.Callbacks() {
		if a.Uses(cb.Name) {
			out = append(out, cb)
		}
	}
	return out
}

// ModuleNames returns module names in description order, followed by the
// sorted host modules of used well-known types that the description does not
// declare itself.
func (a *API) ModuleNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range a.Modules {
		seen[m.Name] = true
		names = append(names, m.Name)
	}
	var hosts []string
	for _, t := range a.WellKnown.All() {
		if t.Module != "" && !seen[t.Module] && a.Uses(t.Name) {
			seen[t.Module] = true
			hosts = append(hosts, t.Module)
		}
	}
	sort.Strings(hosts)
	return append(names, hosts...)
}
