package gen

import (
	"fmt"
	"strings"

	"github.com/benn-herrera/xbind/bridge"
	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/ownership"
	"github.com/benn-herrera/xbind/resolver"
)

func init() {
	Register("rust_wrapper", func() Generator { return &RustWrapperGenerator{} })
}

// RustWrapperGenerator produces the owning Rust API layered on the flat
// functions: one module per description module, one owning struct per class
// that releases its handle on drop unless leaked.
type RustWrapperGenerator struct{}

func (g *RustWrapperGenerator) Name() string { return "rust_wrapper" }

func (g *RustWrapperGenerator) Generate(ctx *Context) ([]*OutputFile, error) {
	api := ctx.API
	flat := ctx.Rust.FlatCrate

	var b strings.Builder
	fmt.Fprintf(&b, "//! %s\n", VersionLine(api.Version))
	if ctx.Banner.Readme != "" {
		b.WriteString("//!\n")
		b.WriteString(CommentLines("//!", ctx.Banner.Readme))
	}
	b.WriteString("\n")
	if ctx.Banner.License != "" {
		b.WriteString(CommentLines("//", ctx.Banner.License))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "extern crate %s;\n\n", flat)

	for _, name := range api.ModuleNames() {
		fmt.Fprintf(&b, "pub mod %s {\n\n", name)
		fmt.Fprintf(&b, "    use %s::*;\n", flat)
		writeRustUses(&b, ctx, ctx.Imports[name])

		for _, br := range ctx.Bridges {
			if br.Callback.Module == name {
				writeRustBridge(&b, ctx, br)
			}
		}

		if mod := api.ModuleByName(name); mod != nil {
			for _, class := range mod.Classes {
				if err := writeRustWrapperClass(&b, ctx, class); err != nil {
					return nil, err
				}
			}
		}
		b.WriteString("}\n\n")
	}

	return []*OutputFile{{
		Path:    ctx.OutputPath(g.Name()),
		Content: []byte(b.String()),
		Target:  g.Name(),
		Lang:    "rust",
	}}, nil
}

// writeRustUses writes one use line per foreign module. Passthrough types are
// reached through the flat crate and never imported from a wrapper module.
func writeRustUses(b *strings.Builder, ctx *Context, set *resolver.ImportSet) {
	if set == nil {
		return
	}
	for _, imp := range set.Imports {
		var names []string
		for _, c := range imp.Classes {
			if wk, ok := ctx.API.WellKnown.Lookup(c); ok && wk.Kind != model.KindCallback {
				continue
			}
			names = append(names, c)
		}
		switch len(names) {
		case 0:
		case 1:
			fmt.Fprintf(b, "    use crate::%s::%s;\n", imp.Module, names[0])
		default:
			fmt.Fprintf(b, "    use crate::%s::{%s};\n", imp.Module, strings.Join(names, ", "))
		}
	}
}

func writeRustBridge(b *strings.Builder, ctx *Context, br *bridge.Bridge) {
	var classes, ignored, raw, wrapped []string
	for _, p := range br.Params {
		classes = append(classes, p.Class)
		ignored = append(ignored, "_: "+p.Class)
		raw = append(raw, p.Name+": "+p.Opaque)
		wrapped = append(wrapped, fmt.Sprintf("%s { ptr: %s, run_destructor: true }", p.Class, p.Name))
	}
	ret, rawRet := "", ""
	if br.Result != "" {
		ret = " -> " + br.Result
		rawRet = " -> " + br.ResultOpaque
	}

	b.WriteString("\n")
	fmt.Fprintf(b, "    /// Callback fn of the `%s` type\n", br.Type)
	fmt.Fprintf(b, "    pub type %s = fn(%s)%s;\n\n", br.Type, strings.Join(classes, ", "), ret)

	fmt.Fprintf(b, "    fn %s(%s)%s {\n", br.Default, strings.Join(ignored, ", "), ret)
	switch {
	case br.Result != "" && br.Callback.DefaultConstructor != "":
		fmt.Fprintf(b, "        %s::%s()\n", br.Result, br.Callback.DefaultConstructor)
	case br.Result != "":
		fmt.Fprintf(b, "        unreachable!(\"no %s installed\")\n", br.Type)
	}
	b.WriteString("    }\n\n")

	b.WriteString("    /// Not synchronized: install before the flat layer can invoke the trampoline.\n")
	fmt.Fprintf(b, "    pub(crate) static mut %s: %s = %s;\n\n", br.Cell, br.Type, br.Default)

	fmt.Fprintf(b, "    pub(crate) fn %s(callback: %s) {\n", br.Install, br.Type)
	fmt.Fprintf(b, "        unsafe { %s = callback };\n", br.Cell)
	b.WriteString("    }\n\n")

	fmt.Fprintf(b, "    pub(crate) extern \"C\" fn %s(%s)%s {\n", br.Trampoline, strings.Join(raw, ", "), rawRet)
	fmt.Fprintf(b, "        let callback = unsafe { %s };\n", br.Cell)
	call := fmt.Sprintf("callback(%s)", strings.Join(wrapped, ", "))
	if br.Result != "" {
		fmt.Fprintf(b, "        %s.leak()\n", call)
	} else {
		fmt.Fprintf(b, "        %s;\n", call)
	}
	b.WriteString("    }\n")
}

func writeRustWrapperClass(b *strings.Builder, ctx *Context, class *model.Class) error {
	n := ctx.Naming
	opaque := n.OpaqueType(class.Name)

	b.WriteString("\n")
	fmt.Fprintf(b, "    /// %s\n", DocLine(class.Doc, fmt.Sprintf("`%s` struct", class.Name)))
	fmt.Fprintf(b, "    pub struct %s { pub(crate) ptr: %s, pub(crate) run_destructor: bool }\n\n", class.Name, opaque)
	fmt.Fprintf(b, "    impl %s {\n", class.Name)

	for _, op := range class.Operations() {
		plan := ctx.Plan(op)
		if plan == nil {
			return fmt.Errorf("no ownership plan for %s", class.Path(op))
		}
		writeRustWrapperOp(b, ctx, plan)
	}

	fmt.Fprintf(b, "        /// Prevents the destructor from running and returns the internal `%s`\n", opaque)
	b.WriteString("        #[allow(dead_code)]\n")
	fmt.Fprintf(b, "        pub(crate) fn leak(mut self) -> %s { self.run_destructor = false; %s(&self.ptr) }\n",
		opaque, n.Function(class.Name, model.HelperShallowCopy))
	b.WriteString("    }\n\n")

	fmt.Fprintf(b, "    impl Drop for %s { fn drop(&mut self) { if self.run_destructor { %s(&mut self.ptr); } } }\n",
		class.Name, n.Function(class.Name, model.HelperDelete))
	return nil
}

func writeRustWrapperOp(b *strings.Builder, ctx *Context, plan *ownership.Plan) {
	n := ctx.Naming
	class, op := plan.Class, plan.Op

	var params, args, installs []string
	for _, p := range plan.Params {
		if p.Role == ownership.RoleSelf {
			switch p.Mode {
			case model.ModeRef:
				params = append(params, "&self")
			case model.ModeRefMut:
				params = append(params, "&mut self")
			default:
				params = append(params, "self")
			}
		} else {
			params = append(params, p.Name+": "+RustWrapperType(n, p))
		}
		args = append(args, rustCallArg(ctx, p, &installs))
	}

	call := fmt.Sprintf("%s(%s)", n.Function(class.Name, op.Name), strings.Join(args, ", "))
	ret := ""
	switch {
	case op.Kind == model.OpConstructor:
		ret = " -> Self"
		call = fmt.Sprintf("Self { ptr: %s, run_destructor: true }", call)
	case plan.Result != nil && plan.Result.Kind == ownership.KindClass:
		ret = " -> " + plan.Result.Type
		call = fmt.Sprintf("%s { ptr: %s, run_destructor: true }", plan.Result.Type, call)
	case plan.Result != nil:
		ret = " -> " + RustWrapperType(n, *plan.Result)
	}

	fallback := fmt.Sprintf("Calls the `%s::%s` function.", class.Name, op.Name)
	if op.Kind == model.OpConstructor {
		fallback = fmt.Sprintf("Creates a new `%s` instance.", class.Name)
	}
	fmt.Fprintf(b, "        /// %s\n", DocLine(op.Doc, fallback))
	fmt.Fprintf(b, "        pub fn %s(%s)%s {\n", op.Name, strings.Join(params, ", "), ret)
	for _, line := range installs {
		fmt.Fprintf(b, "            %s\n", line)
	}
	fmt.Fprintf(b, "            %s\n", call)
	b.WriteString("        }\n")
}

// rustCallArg renders the flat-call argument of one planned parameter and
// collects the install statements callbacks need before the call.
func rustCallArg(ctx *Context, p ownership.Param, installs *[]string) string {
	target := p.Name
	if p.Role == ownership.RoleSelf {
		target = "self"
	}
	switch p.Call {
	case ownership.CallLeak:
		return target + ".leak()"
	case ownership.CallAddr:
		return "&" + target + ".ptr"
	case ownership.CallAddrMut:
		return "&mut " + target + ".ptr"
	case ownership.CallInstall:
		br := ctx.Bridge(p.Type)
		host := "crate::" + br.Callback.Module + "::"
		*installs = append(*installs, fmt.Sprintf("%s%s(%s);", host, br.Install, p.Name))
		return host + br.Trampoline
	}
	return p.Name
}
