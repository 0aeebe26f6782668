package gen

import (
	"fmt"
	"strings"

	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/ownership"
)

func init() {
	Register("cheader", func() Generator { return &CHeaderGenerator{} })
	Register("cppheader", func() Generator { return &CHeaderGenerator{cpp: true} })
}

// CHeaderGenerator produces the C declarations of the flat surface. The C++
// variant carries the same declarations inside an extern "C" block.
type CHeaderGenerator struct {
	cpp bool
}

func (g *CHeaderGenerator) Name() string {
	if g.cpp {
		return "cppheader"
	}
	return "cheader"
}

func (g *CHeaderGenerator) Generate(ctx *Context) ([]*OutputFile, error) {
	api := ctx.API
	n := ctx.Naming
	path := ctx.OutputPath(g.Name())
	suffix, lang := "C", "c"
	if g.cpp {
		suffix, lang = "CPP", "cpp"
	}
	guardName := IncludeGuard(path, suffix)

	var b strings.Builder
	b.WriteString(GeneratedFileHeader("//", api.Version, ctx.Banner))

	// Include guard
	fmt.Fprintf(&b, "#ifndef %s\n", guardName)
	fmt.Fprintf(&b, "#define %s\n\n", guardName)

	// Standard includes
	b.WriteString("#include <stdarg.h>\n")
	b.WriteString("#include <stdbool.h>\n")
	b.WriteString("#include <stddef.h>\n")
	b.WriteString("#include <stdint.h>\n")
	b.WriteString("#include <stdlib.h>\n\n")

	if g.cpp {
		b.WriteString("extern \"C\" {\n\n")
	} else {
		b.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")
	}

	// Handle typedefs
	for _, class := range api.Classes() {
		opaque := n.OpaqueType(class.Name)
		fmt.Fprintf(&b, "// %s\n", DocLine(class.Doc, fmt.Sprintf("Pointer to Rust-allocated `Box<%s>` struct", class.Name)))
		fmt.Fprintf(&b, "typedef struct %s { void *ptr; } %s;\n", opaque, opaque)
	}
	b.WriteString("\n")

	writeCRawTypes(&b, ctx)

	for _, mod := range api.Modules {
		if len(mod.Classes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "/* %s */\n\n", mod.Name)
		for _, class := range mod.Classes {
			if err := writeCClass(&b, ctx, class); err != nil {
				return nil, err
			}
		}
	}

	if g.cpp {
		b.WriteString("} /* extern \"C\" */\n\n")
	} else {
		b.WriteString("#ifdef __cplusplus\n} /* extern \"C\" */\n#endif\n\n")
	}
	fmt.Fprintf(&b, "#endif /* %s */\n", guardName)

	return []*OutputFile{{
		Path:    path,
		Content: []byte(b.String()),
		Target:  g.Name(),
		Lang:    lang,
	}}, nil
}

func writeCRawTypes(b *strings.Builder, ctx *Context) {
	n := ctx.Naming
	wrote := false
	for _, br := range ctx.Bridges {
		var params []string
		for _, p := range br.Params {
			params = append(params, p.Opaque)
		}
		paramStr := strings.Join(params, ", ")
		if paramStr == "" {
			paramStr = "void"
		}
		ret := "void"
		if br.ResultOpaque != "" {
			ret = br.ResultOpaque
		}
		fmt.Fprintf(b, "// Raw function pointer of the `%s` callback\n", br.Type)
		fmt.Fprintf(b, "typedef %s (*%s)(%s);\n", ret, br.RawType, paramStr)
		wrote = true
	}
	for _, wk := range ctx.API.WellKnown.All() {
		if wk.Kind != model.KindPassthrough || !ctx.API.Uses(wk.Name) {
			continue
		}
		fmt.Fprintf(b, "// `%s`, passed through unchanged\n", wk.Name)
		fmt.Fprintf(b, "typedef void* %s;\n", n.RawType(wk.Name))
		wrote = true
	}
	if wrote {
		b.WriteString("\n")
	}
}

func writeCClass(b *strings.Builder, ctx *Context, class *model.Class) error {
	n := ctx.Naming
	opaque := n.OpaqueType(class.Name)

	for _, op := range class.Operations() {
		plan := ctx.Plan(op)
		if plan == nil {
			return fmt.Errorf("no ownership plan for %s", class.Path(op))
		}
		if op.Kind == model.OpConstructor {
			fmt.Fprintf(b, "// %s\n", DocLine(op.Doc, fmt.Sprintf("Creates a new `%s` instance whose memory is owned by the Rust allocator", class.Name)))
		} else {
			fmt.Fprintf(b, "// %s\n", DocLine(op.Doc, fmt.Sprintf("Equivalent to the Rust `%s::%s()` function.", class.Name, op.Name)))
		}
		if consumed := plan.Consumed(); len(consumed) > 0 {
			fmt.Fprintf(b, "// Takes ownership of: %s\n", strings.Join(consumed, ", "))
		}
		writeCSignature(b, cReturnType(n, plan), n.Function(class.Name, op.Name), cParams(n, plan))
	}

	fmt.Fprintf(b, "// Destructor: takes ownership of the `%s` pointer and deletes it.\n", class.Name)
	writeCSignature(b, "void", n.Function(class.Name, model.HelperDelete), []string{opaque + "* ptr"})
	fmt.Fprintf(b, "// Copies the pointer. Afterwards two handles refer to the same `%s`; delete at most one of them.\n", class.Name)
	writeCSignature(b, opaque, n.Function(class.Name, model.HelperShallowCopy), []string{"const " + opaque + "* ptr"})
	b.WriteString("\n")
	return nil
}

func cParams(n model.Naming, plan *ownership.Plan) []string {
	var params []string
	for _, p := range plan.Params {
		params = append(params, CType(n, p)+" "+p.Name)
	}
	return params
}

func cReturnType(n model.Naming, plan *ownership.Plan) string {
	if plan.Result == nil {
		return "void"
	}
	return CType(n, *plan.Result)
}

// writeCSignature writes a prototype, wrapping parameters one per line when
// the single-line form exceeds 80 columns.
func writeCSignature(b *strings.Builder, returnType, funcName string, params []string) {
	paramStr := strings.Join(params, ", ")
	if paramStr == "" {
		paramStr = "void"
	}

	sig := fmt.Sprintf("%s %s(%s)", returnType, funcName, paramStr)
	if len(sig) > 80 && len(params) > 1 {
		fmt.Fprintf(b, "%s %s(\n", returnType, funcName)
		for i, p := range params {
			if i < len(params)-1 {
				fmt.Fprintf(b, "    %s,\n", p)
			} else {
				fmt.Fprintf(b, "    %s);\n", p)
			}
		}
	} else {
		fmt.Fprintf(b, "%s;\n", sig)
	}
}
