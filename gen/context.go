package gen

import (
	"fmt"

	"github.com/benn-herrera/xbind/bridge"
	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/ownership"
	"github.com/benn-herrera/xbind/resolver"
)

// RustOptions configures the Rust surfaces.
type RustOptions struct {
	FlatCrate string   // crate the wrapper reaches the flat functions through
	Prelude   []string // lines placed after the banner of the flat crate
}

// GoOptions configures the cgo wrapper.
type GoOptions struct {
	Package string
	Header  string // header included by the cgo preamble
	LDFlags string // optional "#cgo LDFLAGS:" value
}

// Context holds everything a generator needs to produce output.
type Context struct {
	API     *model.API
	Naming  model.Naming
	Imports resolver.Table
	Bridges []*bridge.Bridge
	Banner  Banner
	Paths   map[string]string // per-target output path overrides
	Rust    RustOptions
	Go      GoOptions
	Verbose bool
	DryRun  bool

	plans map[*model.Operation]*ownership.Plan
}

// NewContext resolves imports, plans every operation and names the callback
// bridges. The API must already be validated.
func NewContext(api *model.API, naming model.Naming) (*Context, error) {
	imports, err := resolver.ResolveAll(api)
	if err != nil {
		return nil, fmt.Errorf("resolving imports: %w", err)
	}
	ctx := &Context{
		API:     api,
		Naming:  naming,
		Imports: imports,
		Bridges: bridge.All(naming, api),
		Paths:   map[string]string{},
		Rust: RustOptions{
			FlatCrate: "azul_dll",
			Prelude:   []string{"use core::ffi::c_void;"},
		},
		Go:    GoOptions{Package: "azul", Header: "azul.h"},
		plans: map[*model.Operation]*ownership.Plan{},
	}
	for _, class := range api.Classes() {
		plans, err := ownership.PlanClass(api, class)
		if err != nil {
			return nil, fmt.Errorf("planning %s: %w", class.Name, err)
		}
		for _, p := range plans {
			ctx.plans[p.Op] = p
		}
	}
	return ctx, nil
}

// Plan returns the ownership plan of an operation.
func (c *Context) Plan(op *model.Operation) *ownership.Plan {
	return c.plans[op]
}

// OutputPath returns the configured path of a target, falling back to DefaultPaths.
func (c *Context) OutputPath(target string) string {
	if p, ok := c.Paths[target]; ok && p != "" {
		return p
	}
	return DefaultPaths[target]
}

// Bridge returns the bridge of a callback type.
func (c *Context) Bridge(name string) *bridge.Bridge {
	return bridge.Lookup(c.Bridges, name)
}
