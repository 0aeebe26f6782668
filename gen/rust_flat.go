package gen

import (
	"fmt"
	"strings"

	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/ownership"
)

func init() {
	Register("rust_flat", func() Generator { return &RustFlatGenerator{} })
}

// RustFlatGenerator produces the flat extern "C" definitions: one opaque
// handle struct per class, its constructors and functions, and the
// delete/shallow_copy/downcast helpers.
type RustFlatGenerator struct{}

func (g *RustFlatGenerator) Name() string { return "rust_flat" }

func (g *RustFlatGenerator) Generate(ctx *Context) ([]*OutputFile, error) {
	api := ctx.API

	var b strings.Builder
	b.WriteString(GeneratedFileHeader("//", api.Version, ctx.Banner))
	b.WriteString("#![allow(dead_code)]\n\n")
	for _, line := range ctx.Rust.Prelude {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	writeRustRawTypes(&b, ctx)

	for _, mod := range api.Modules {
		if len(mod.Classes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "// %s\n\n", mod.Name)
		for _, class := range mod.Classes {
			if err := writeRustFlatClass(&b, ctx, class); err != nil {
				return nil, err
			}
		}
	}

	return []*OutputFile{{
		Path:    ctx.OutputPath(g.Name()),
		Content: []byte(b.String()),
		Target:  g.Name(),
		Lang:    "rust",
	}}, nil
}

// writeRustRawTypes emits the raw spellings of used callback and passthrough types.
func writeRustRawTypes(b *strings.Builder, ctx *Context) {
	n := ctx.Naming
	wrote := false
	for _, br := range ctx.Bridges {
		var params []string
		for _, p := range br.Params {
			params = append(params, p.Opaque)
		}
		ret := ""
		if br.ResultOpaque != "" {
			ret = " -> " + br.ResultOpaque
		}
		fmt.Fprintf(b, "/// Raw function pointer of the `%s` callback\n", br.Type)
		fmt.Fprintf(b, "pub type %s = extern \"C\" fn(%s)%s;\n", br.RawType, strings.Join(params, ", "), ret)
		wrote = true
	}
	for _, wk := range ctx.API.WellKnown.All() {
		if wk.Kind != model.KindPassthrough || !ctx.API.Uses(wk.Name) {
			continue
		}
		fmt.Fprintf(b, "/// `%s`, passed through as a raw pointer (`void*` on the C side)\n", wk.Name)
		fmt.Fprintf(b, "pub type %s = *mut %s;\n", n.RawType(wk.Name), wk.Name)
		wrote = true
	}
	if wrote {
		b.WriteString("\n")
	}
}

func writeRustFlatClass(b *strings.Builder, ctx *Context, class *model.Class) error {
	n := ctx.Naming
	opaque := n.OpaqueType(class.Name)
	backing := class.Backing()
	lifetime := ""
	if strings.Contains(backing, "<'a>") {
		lifetime = "<'a>"
	}

	fmt.Fprintf(b, "/// %s\n", DocLine(class.Doc, fmt.Sprintf("Pointer to Rust-allocated `Box<%s>` struct", class.Name)))
	if class.External != "" {
		fmt.Fprintf(b, "pub use ::%s as %s;\n", strings.TrimPrefix(class.External, "::"), opaque)
	} else {
		fmt.Fprintf(b, "#[repr(C)]\npub struct %s { ptr: *mut c_void }\n", opaque)
	}
	b.WriteString("\n")

	for _, op := range class.Operations() {
		plan := ctx.Plan(op)
		if plan == nil {
			return fmt.Errorf("no ownership plan for %s", class.Path(op))
		}
		fnName := n.Function(class.Name, op.Name)
		params := rustFlatParams(n, plan)

		if op.Kind == model.OpConstructor {
			fmt.Fprintf(b, "/// %s\n", DocLine(op.Doc, fmt.Sprintf("Creates a new `%s` instance whose memory is owned by the Rust allocator", class.Name)))
			fmt.Fprintf(b, "/// Equivalent to the Rust `%s::%s()` constructor.\n", class.Name, op.Name)
			fmt.Fprintf(b, "#[no_mangle]\npub extern \"C\" fn %s(%s) -> %s {\n", fnName, params, opaque)
			fmt.Fprintf(b, "    %s { ptr: Box::into_raw(Box::new(%s)) as *mut c_void }\n}\n", opaque, op.Body)
			continue
		}

		ret := ""
		if plan.Result != nil {
			ret = " -> " + RustFlatType(n, *plan.Result)
		}
		fmt.Fprintf(b, "/// %s\n", DocLine(op.Doc, fmt.Sprintf("Equivalent to the Rust `%s::%s()` function.", class.Name, op.Name)))
		fmt.Fprintf(b, "#[no_mangle]\npub extern \"C\" fn %s(%s)%s {\n", fnName, params, ret)
		fmt.Fprintf(b, "    %s\n}\n", op.Body)
	}

	fmt.Fprintf(b, "/// Destructor: takes ownership of the `%s` pointer and deletes it.\n", class.Name)
	fmt.Fprintf(b, "#[no_mangle]\npub extern \"C\" fn %s%s(ptr: &mut %s) {\n", n.Function(class.Name, model.HelperDelete), lifetime, opaque)
	fmt.Fprintf(b, "    let _ = unsafe { Box::<%s>::from_raw(ptr.ptr as *mut %s) };\n}\n", backing, backing)

	fmt.Fprintf(b, "/// Copies the pointer. Afterwards two handles refer to the same `Box<%s>`; delete at most one of them.\n", class.Name)
	fmt.Fprintf(b, "#[no_mangle]\npub extern \"C\" fn %s%s(ptr: &%s) -> %s {\n", n.Function(class.Name, model.HelperShallowCopy), lifetime, opaque, opaque)
	fmt.Fprintf(b, "    %s { ptr: ptr.ptr }\n}\n", opaque)

	fmt.Fprintf(b, "/// (private) Downcasts the `%s` to a `Box<%s>`, taking ownership of the pointer.\n", opaque, backing)
	fmt.Fprintf(b, "fn %s%s(ptr: %s) -> Box<%s> {\n", n.Function(class.Name, model.HelperDowncast), lifetime, opaque, backing)
	fmt.Fprintf(b, "    unsafe { Box::<%s>::from_raw(ptr.ptr as *mut %s) }\n}\n\n", backing, backing)
	return nil
}

func rustFlatParams(n model.Naming, plan *ownership.Plan) string {
	var params []string
	for _, p := range plan.Params {
		params = append(params, p.Name+": "+RustFlatType(n, p))
	}
	return strings.Join(params, ", ")
}
