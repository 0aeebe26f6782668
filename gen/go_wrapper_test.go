package gen

import (
	"errors"
	"strings"
	"testing"

	"github.com/benn-herrera/xbind/loader"
	"github.com/benn-herrera/xbind/model"
)

func TestGoWrapperGenerator_Preamble(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "go_wrapper")

	if !strings.HasPrefix(out, "// WARNING: autogenerated code for api version 0.0.1, do not edit\n") {
		t.Errorf("missing version line, got %q", strings.SplitN(out, "\n", 2)[0])
	}
	expectContains(t, out,
		"// Code generated by xbind. DO NOT EDIT.",
		"package azul",
		"#include \"azul.h\"",
		"extern AzDomPtr azLayoutCallbackTrampoline(AzRefAnyPtr, AzLayoutInfoPtr);",
		"import \"C\"",
	)
	if strings.Contains(out, "#cgo LDFLAGS") {
		t.Error("LDFLAGS emitted without being configured")
	}
}

func TestGoWrapperGenerator_Options(t *testing.T) {
	ctx := loadTestAPI(t, "minimal.api.json")
	ctx.Go = GoOptions{Package: "engine", Header: "engine.h", LDFlags: "-lengine"}
	out := generate(t, ctx, "go_wrapper")

	expectContains(t, out,
		"package engine",
		"#cgo LDFLAGS: -lengine",
		"#include \"engine.h\"",
	)
	if strings.Contains(out, "Trampoline") {
		t.Error("no trampoline expected without a used callback")
	}
}

func TestGoWrapperGenerator_OwningTypes(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "go_wrapper")

	n := len(ctx.API.Classes())
	if got := strings.Count(out, ") Close() {"); got != n {
		t.Errorf("expected %d Close methods, got %d", n, got)
	}
	if got := strings.Count(out, ") leak() C."); got != n {
		t.Errorf("expected %d leak methods, got %d", n, got)
	}
	expectContains(t, out,
		"type Dom struct {",
		"func (dom *Dom) Close() {\n\tif dom.runDestructor {\n\t\tdom.runDestructor = false\n\t\tC.az_dom_delete(&dom.ptr)\n\t}\n}",
		"func (dom *Dom) leak() C.AzDomPtr {\n\tdom.runDestructor = false\n\treturn C.az_dom_shallow_copy(&dom.ptr)\n}",
	)
}

func TestGoWrapperGenerator_OwnershipCalls(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "go_wrapper")

	expectContains(t, out,
		"func NewDomDiv() *Dom {",
		"func NewDomBody() *Dom {",
		"func (dom *Dom) AddChild(child *Dom) *Dom {",
		"C.az_dom_add_child(dom.leak(), child.leak())",
		"func (dom *Dom) SetInlineStyle(style *Css) {\n\tC.az_dom_set_inline_style(&dom.ptr, &style.ptr)\n}",
		"func (dom *Dom) ChildCount() uint {\n\treturn uint(C.az_dom_child_count(&dom.ptr))\n}",
		"func (refAny *RefAny) IsType(typeId uint64) bool {\n\treturn bool(C.az_ref_any_is_type(&refAny.ptr, C.uint64_t(typeId)))\n}",
		"func NewRefAny(data unsafe.Pointer) *RefAny {",
		"C.az_ref_any_new(C.AzDataModel(data))",
		"Takes ownership of the receiver and child.",
	)
}

func TestGoWrapperGenerator_CallbackBridge(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "go_wrapper")

	expectContains(t, out,
		"type LayoutCallback func(refAny *RefAny, layoutInfo *LayoutInfo) *Dom",
		"func defaultLayoutCallback(*RefAny, *LayoutInfo) *Dom {\n\treturn NewDomDiv()\n}",
		"var layoutCallbackCell LayoutCallback = defaultLayoutCallback",
		"func setLayoutCallback(callback LayoutCallback) {\n\tlayoutCallbackCell = callback\n}",
		"//export azLayoutCallbackTrampoline\nfunc azLayoutCallbackTrampoline(refAny C.AzRefAnyPtr, layoutInfo C.AzLayoutInfoPtr) C.AzDomPtr {",
		"callback := layoutCallbackCell",
		"defer refAnyArg.Close()",
		"defer layoutInfoArg.Close()",
		"return callback(refAnyArg, layoutInfoArg).leak()\n}",
	)
}

func TestGoWrapperGenerator_AcronymCallback(t *testing.T) {
	doc := `{"1.0.0": {
  "callbacks": {"RefAny": {}},
  "net": {"Server": {"constructors": [{"fn_name": "new", "args": {"cb": "HTTPCallback"}, "fn_body": "Server::new(cb)"}]}}
}}`
	wellKnown := append(model.DefaultWellKnown(), model.WellKnown{
		Name: "HTTPCallback", Kind: model.KindCallback, Module: model.DefaultHostModule, Args: []string{"RefAny"},
	})
	api, err := loader.ParseDescription([]byte(doc), loader.Options{WellKnown: wellKnown})
	if err != nil {
		t.Fatalf("parsing description: %v", err)
	}
	out := generate(t, newTestContext(t, api), "go_wrapper")

	expectContains(t, out,
		"type HttpCallback func(refAny *RefAny)",
		"func NewServer(cb HttpCallback) *Server {",
		"func setHttpCallback(callback HttpCallback) {",
	)
	if strings.Contains(out, "cb HTTPCallback") {
		t.Error("parameter uses the description spelling instead of the declared Go type")
	}
}

func TestGoWrapperGenerator_ScenarioB(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "go_wrapper")

	install := "func NewApp(data *RefAny, config *AppConfig, callback LayoutCallback) *App {\n\tsetLayoutCallback(callback)\n"
	call := "C.az_app_new(data.leak(), config.leak(), C.AzLayoutCallback(C.azLayoutCallbackTrampoline))"
	expectContains(t, out, install, call)
	if strings.Index(out, install) > strings.Index(out, call) {
		t.Error("install must precede the flat call")
	}
}

func TestGoWrapperGenerator_ScenarioA(t *testing.T) {
	ctx := parseTestAPI(t, scenarioA)
	out := generate(t, ctx, "go_wrapper")

	expectContains(t, out,
		"func NewEngine() *Engine {",
		"func (engine *Engine) Attach(renderer *Renderer) {\n\tC.az_engine_attach(engine.leak(), &renderer.ptr)\n}",
	)
}

func TestGoWrapperGenerator_NameCollision(t *testing.T) {
	ctx := parseTestAPI(t, `{"1": {"dom": {
  "Dom": {"constructors": [{"fn_name": "div", "fn_body": "Dom::div()"}]},
  "DomDiv": {"constructors": [{"fn_name": "new", "fn_body": "DomDiv::new()"}]}
}}}`)
	g, _ := Get("go_wrapper")
	_, err := g.Generate(ctx)
	if err == nil {
		t.Fatal("expected a collision between Dom::div and DomDiv::new")
	}
	if !errors.Is(err, model.ErrNameCollision) {
		t.Errorf("expected ErrNameCollision, got %v", err)
	}
	if !strings.Contains(err.Error(), "NewDomDiv") {
		t.Errorf("error should name the Go identifier: %v", err)
	}
}
