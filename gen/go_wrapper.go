package gen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/benn-herrera/xbind/bridge"
	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/ownership"
)

func init() {
	Register("go_wrapper", func() Generator { return &GoWrapperGenerator{} })
}

// GoWrapperGenerator produces a cgo package of owning wrappers over the flat
// C declarations. Each class becomes a struct whose Close releases the handle
// unless ownership was moved into a flat call.
type GoWrapperGenerator struct{}

func (g *GoWrapperGenerator) Name() string { return "go_wrapper" }

// goNames tracks package-level identifiers so two classes or operations can
// never render the same Go name.
type goNames map[string]string

func (s goNames) claim(id, owner string) error {
	if prev, ok := s[id]; ok {
		return model.Errorf(model.ErrNameCollision, owner, id, "Go identifier %q is generated by both %s and %s", id, prev, owner)
	}
	s[id] = owner
	return nil
}

func (g *GoWrapperGenerator) Generate(ctx *Context) ([]*OutputFile, error) {
	api := ctx.API

	f := jen.NewFile(ctx.Go.Package)
	f.HeaderComment("// " + VersionLine(api.Version))
	f.HeaderComment("// Code generated by xbind. DO NOT EDIT.")
	if ctx.Banner.License != "" {
		for _, line := range strings.Split(strings.TrimRight(CommentLines("//", ctx.Banner.License), "\n"), "\n") {
			f.HeaderComment(line)
		}
	}
	f.CgoPreamble(goPreamble(ctx))

	names := goNames{}
	for _, br := range ctx.Bridges {
		if err := writeGoBridge(f, ctx, br, names); err != nil {
			return nil, err
		}
	}
	for _, class := range api.Classes() {
		if err := writeGoClass(f, ctx, class, names); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering Go wrapper: %w", err)
	}
	return []*OutputFile{{
		Path:    ctx.OutputPath(g.Name()),
		Content: buf.Bytes(),
		Target:  g.Name(),
		Lang:    "go",
	}}, nil
}

// goPreamble includes the flat header and declares every trampoline so its
// address can be passed back to C. Files with //export may only declare.
func goPreamble(ctx *Context) string {
	var b strings.Builder
	if ctx.Go.LDFlags != "" {
		fmt.Fprintf(&b, "#cgo LDFLAGS: %s\n", ctx.Go.LDFlags)
	}
	fmt.Fprintf(&b, "#include \"%s\"\n", ctx.Go.Header)
	for _, br := range ctx.Bridges {
		var params []string
		for _, p := range br.Params {
			params = append(params, p.Opaque)
		}
		ret := "void"
		if br.ResultOpaque != "" {
			ret = br.ResultOpaque
		}
		paramStr := strings.Join(params, ", ")
		if paramStr == "" {
			paramStr = "void"
		}
		fmt.Fprintf(&b, "\nextern %s %s(%s);", ret, br.GoTrampoline, paramStr)
	}
	return b.String()
}

func writeGoBridge(f *jen.File, ctx *Context, br *bridge.Bridge, names goNames) error {
	for _, id := range []string{br.GoType, br.GoCell, br.GoInstall, br.GoTrampoline, br.GoDefault} {
		if err := names.claim(id, "callback "+br.Type); err != nil {
			return err
		}
	}

	var sig, ignored, raw, wrapped, prologue []jen.Code
	for _, p := range br.Params {
		name := GoParamName(p.Name)
		arg := name + "Arg"
		sig = append(sig, jen.Id(name).Op("*").Id(p.Class))
		ignored = append(ignored, jen.Op("*").Id(p.Class))
		raw = append(raw, jen.Id(name).Qual("C", p.Opaque))
		prologue = append(prologue,
			jen.Id(arg).Op(":=").Op("&").Id(p.Class).Values(jen.Dict{
				jen.Id("ptr"):           jen.Id(name),
				jen.Id("runDestructor"): jen.True(),
			}),
			jen.Defer().Id(arg).Dot("Close").Call(),
		)
		wrapped = append(wrapped, jen.Id(arg))
	}
	result := jen.Null()
	rawResult := jen.Null()
	if br.Result != "" {
		result = jen.Op("*").Id(br.Result)
		rawResult = jen.Qual("C", br.ResultOpaque)
	}

	f.Commentf("%s is the Go form of the %s callback. The native side calls it through %s.", br.GoType, br.Type, br.GoTrampoline)
	f.Comment("Arguments are closed when the callback returns unless it moves them into a flat call.")
	f.Type().Id(br.GoType).Func().Params(sig...).Add(result)
	f.Line()

	var defaultBody jen.Code
	switch {
	case br.Result != "" && br.Callback.DefaultConstructor != "":
		defaultBody = jen.Return(jen.Id(GoConstructorName(br.Result, br.Callback.DefaultConstructor)).Call())
	case br.Result != "":
		defaultBody = jen.Panic(jen.Lit("no " + br.GoType + " installed"))
	default:
		defaultBody = jen.Null()
	}
	f.Func().Id(br.GoDefault).Params(ignored...).Add(result).Block(defaultBody)
	f.Line()

	f.Commentf("%s is not synchronized: install before the flat layer can invoke the trampoline.", br.GoCell)
	f.Var().Id(br.GoCell).Id(br.GoType).Op("=").Id(br.GoDefault)
	f.Line()

	f.Func().Id(br.GoInstall).Params(jen.Id("callback").Id(br.GoType)).Block(
		jen.Id(br.GoCell).Op("=").Id("callback"),
	)
	f.Line()

	var tail jen.Code = jen.Id("callback").Call(wrapped...)
	if br.Result != "" {
		tail = jen.Return(jen.Id("callback").Call(wrapped...).Dot("leak").Call())
	}
	body := append([]jen.Code{jen.Id("callback").Op(":=").Id(br.GoCell)}, prologue...)
	f.Comment("//export " + br.GoTrampoline)
	f.Func().Id(br.GoTrampoline).Params(raw...).Add(rawResult).Block(append(body, tail)...)
	f.Line()
	return nil
}

func writeGoClass(f *jen.File, ctx *Context, class *model.Class, names goNames) error {
	n := ctx.Naming
	opaque := n.OpaqueType(class.Name)
	recv := GoParamName(ownership.SelfName(class.Name))

	if err := names.claim(class.Name, "class "+class.Name); err != nil {
		return err
	}
	methods := goNames{"Close": "destructor", "leak": "leak"}

	f.Comment(class.Name + " " + lowerFirst(DocLine(class.Doc, "owns a native "+class.Name+" handle.")))
	f.Type().Id(class.Name).Struct(
		jen.Id("ptr").Qual("C", opaque),
		jen.Id("runDestructor").Bool(),
	)
	f.Line()

	for _, op := range class.Operations() {
		plan := ctx.Plan(op)
		if plan == nil {
			return fmt.Errorf("no ownership plan for %s", class.Path(op))
		}
		if err := writeGoOp(f, ctx, plan, recv, names, methods); err != nil {
			return err
		}
	}

	f.Commentf("Close releases the native %s unless ownership was moved into a flat call. Calling it twice is safe.", class.Name)
	f.Func().Params(jen.Id(recv).Op("*").Id(class.Name)).Id("Close").Params().Block(
		jen.If(jen.Id(recv).Dot("runDestructor")).Block(
			jen.Id(recv).Dot("runDestructor").Op("=").False(),
			jen.Qual("C", n.Function(class.Name, model.HelperDelete)).Call(jen.Op("&").Id(recv).Dot("ptr")),
		),
	)
	f.Line()

	f.Comment("leak disarms the destructor and returns an alias of the handle.")
	f.Func().Params(jen.Id(recv).Op("*").Id(class.Name)).Id("leak").Params().Qual("C", opaque).Block(
		jen.Id(recv).Dot("runDestructor").Op("=").False(),
		jen.Return(jen.Qual("C", n.Function(class.Name, model.HelperShallowCopy)).Call(jen.Op("&").Id(recv).Dot("ptr"))),
	)
	f.Line()
	return nil
}

func writeGoOp(f *jen.File, ctx *Context, plan *ownership.Plan, recv string, names, methods goNames) error {
	n := ctx.Naming
	class, op := plan.Class, plan.Op
	path := class.Path(op)

	var params, args, installs []jen.Code
	for _, p := range plan.Params {
		if p.Role != ownership.RoleSelf {
			params = append(params, jen.Id(GoParamName(p.Name)).Add(goParamType(ctx, p)))
		}
		args = append(args, goCallArg(ctx, p, recv, &installs))
	}

	call := jen.Qual("C", n.Function(class.Name, op.Name)).Call(args...)
	var result jen.Code = jen.Null()
	var body []jen.Code
	body = append(body, installs...)
	switch {
	case plan.Result == nil:
		body = append(body, call)
	case plan.Result.Kind == ownership.KindClass:
		result = jen.Op("*").Id(plan.Result.Type)
		body = append(body, jen.Return(jen.Op("&").Id(plan.Result.Type).Values(jen.Dict{
			jen.Id("ptr"):           call,
			jen.Id("runDestructor"): jen.True(),
		})))
	case plan.Result.Kind == ownership.KindPrimitive:
		result = goParamType(ctx, *plan.Result)
		body = append(body, jen.Return(jen.Id(PrimitiveGoType(plan.Result.Type)).Call(call)))
	default:
		result = goParamType(ctx, *plan.Result)
		body = append(body, jen.Return(jen.Qual("unsafe", "Pointer").Call(call)))
	}

	note := ""
	if consumed := plan.Consumed(); len(consumed) > 0 {
		var goNamesList []string
		for _, c := range consumed {
			if c == ownership.SelfName(class.Name) && plan.Self() != nil {
				goNamesList = append(goNamesList, "the receiver")
			} else {
				goNamesList = append(goNamesList, GoParamName(c))
			}
		}
		note = " Takes ownership of " + strings.Join(goNamesList, " and ") + "."
	}

	if plan.Self() == nil {
		name := GoConstructorName(class.Name, op.Name)
		if op.Kind == model.OpFunction {
			name = class.Name + GoMethodName(op.Name)
		}
		if err := names.claim(name, path); err != nil {
			return err
		}
		fallback := fmt.Sprintf("calls %s.", n.Function(class.Name, op.Name))
		if op.Kind == model.OpConstructor {
			fallback = fmt.Sprintf("creates a new %s.", class.Name)
		}
		f.Comment(name + " " + lowerFirst(DocLine(op.Doc, fallback)) + note)
		f.Func().Id(name).Params(params...).Add(result).Block(body...)
		f.Line()
		return nil
	}

	name := GoMethodName(op.Name)
	if err := methods.claim(name, path); err != nil {
		return err
	}
	f.Comment(name + " " + lowerFirst(DocLine(op.Doc, fmt.Sprintf("calls %s.", n.Function(class.Name, op.Name)))) + note)
	f.Func().Params(jen.Id(recv).Op("*").Id(class.Name)).Id(name).Params(params...).Add(result).Block(body...)
	f.Line()
	return nil
}

func goParamType(ctx *Context, p ownership.Param) jen.Code {
	switch p.Kind {
	case ownership.KindClass:
		return jen.Op("*").Id(p.Type)
	case ownership.KindCallback:
		return jen.Id(ctx.Bridge(p.Type).GoType)
	case ownership.KindPrimitive:
		return jen.Id(PrimitiveGoType(p.Type))
	}
	return jen.Qual("unsafe", "Pointer")
}

func goCallArg(ctx *Context, p ownership.Param, recv string, installs *[]jen.Code) jen.Code {
	target := GoParamName(p.Name)
	if p.Role == ownership.RoleSelf {
		target = recv
	}
	switch p.Call {
	case ownership.CallLeak:
		return jen.Id(target).Dot("leak").Call()
	case ownership.CallAddr, ownership.CallAddrMut:
		return jen.Op("&").Id(target).Dot("ptr")
	case ownership.CallInstall:
		br := ctx.Bridge(p.Type)
		*installs = append(*installs, jen.Id(br.GoInstall).Call(jen.Id(target)))
		return jen.Qual("C", br.RawType).Call(jen.Qual("C", br.GoTrampoline))
	}
	if p.Kind == ownership.KindPrimitive {
		return jen.Qual("C", PrimitiveCgoType(p.Type)).Call(jen.Id(target))
	}
	return jen.Qual("C", ctx.Naming.RawType(p.Type)).Call(jen.Id(target))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
