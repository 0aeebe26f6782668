// Package bridge names the pieces that carry a user callback across the flat
// boundary. A flat function can only take a plain function pointer, so every
// callback type gets one process-wide cell holding the user's function, an
// install routine writing that cell, and a trampoline with the raw signature
// that reads the cell, wraps the raw handles and leaks the wrapped result.
//
// The cell is not synchronized. Installing must happen before any call that
// may invoke the trampoline.
package bridge

import (
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/benn-herrera/xbind/model"
)

// Param is one trampoline parameter.
type Param struct {
	Name   string // snake_case, derived from the class
	Class  string // wrapper class
	Opaque string // raw opaque handle type
}

// Bridge holds every generated identifier for one callback type.
type Bridge struct {
	Callback *model.WellKnown

	RawType string // flat function-pointer type, e.g. AzLayoutCallback

	// Rust wrapper identifiers.
	Type       string // LayoutCallback
	Cell       string // LAYOUT_CALLBACK
	Install    string // set_layout_callback
	Trampoline string // translate_layout_callback
	Default    string // default_layout_callback

	// Go wrapper identifiers.
	GoType       string // LayoutCallback
	GoCell       string // layoutCallbackCell
	GoInstall    string // setLayoutCallback
	GoTrampoline string // azLayoutCallbackTrampoline, exported to C
	GoDefault    string // defaultLayoutCallback

	Params       []Param
	Result       string // wrapper class returned by the user function; empty for none
	ResultOpaque string
}

// For builds the bridge of one callback type.
func For(naming model.Naming, cb *model.WellKnown) *Bridge {
	snake := model.ToSnake(cb.Name)
	b := &Bridge{
		Callback:     cb,
		RawType:      naming.RawType(cb.Name),
		Type:         cb.Name,
		Cell:         strings.ToUpper(snake),
		Install:      "set_" + snake,
		Trampoline:   "translate_" + snake,
		Default:      "default_" + snake,
		GoType:       strcase.ToCamel(snake),
		GoCell:       strcase.ToLowerCamel(snake) + "Cell",
		GoInstall:    "set" + strcase.ToCamel(snake),
		GoTrampoline: strcase.ToLowerCamel(naming.Prefix+"_"+snake) + "Trampoline",
		GoDefault:    "default" + strcase.ToCamel(snake),
	}
	used := map[string]int{}
	for _, arg := range cb.Args {
		name := model.ToSnake(arg)
		used[name]++
		if n := used[name]; n > 1 {
			name += "_" + strconv.Itoa(n)
		}
		b.Params = append(b.Params, Param{Name: name, Class: arg, Opaque: naming.OpaqueType(arg)})
	}
	if cb.Returns != "" {
		b.Result = cb.Returns
		b.ResultOpaque = naming.OpaqueType(cb.Returns)
	}
	return b
}

// All builds the bridges of every callback type the API uses, in
// declaration order.
func All(naming model.Naming, api *model.API) []*Bridge {
	var out []*Bridge
	for _, cb := range api.UsedCallbacks() {
		out = append(out, For(naming, cb))
	}
	return out
}

// Lookup finds the bridge of a callback type by name.
func Lookup(bridges []*Bridge, name string) *Bridge {
	for _, b := range bridges {
		if b.Callback.Name == name {
			return b
		}
	}
	return nil
}
