package gen

import (
	"strings"
	"testing"

	"github.com/benn-herrera/xbind/model"
)

func TestRustFlatGenerator_HelperTriplePerClass(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_flat")
	n := ctx.Naming

	for _, class := range ctx.API.Classes() {
		for _, helper := range []string{
			"pub extern \"C\" fn " + n.Function(class.Name, model.HelperDelete),
			"pub extern \"C\" fn " + n.Function(class.Name, model.HelperShallowCopy),
			"\nfn " + n.Function(class.Name, model.HelperDowncast),
		} {
			if got := strings.Count(out, helper); got != 1 {
				t.Errorf("%s: %q appears %d times, want 1", class.Name, helper, got)
			}
		}
	}
}

func TestRustFlatGenerator_EmptyClassStillGetsHelpers(t *testing.T) {
	ctx := loadTestAPI(t, "minimal.api.json")
	out := generate(t, ctx, "rust_flat")

	expectContains(t, out,
		"pub struct AzFramePtr { ptr: *mut c_void }",
		"pub extern \"C\" fn az_frame_delete(ptr: &mut AzFramePtr) {",
		"pub extern \"C\" fn az_frame_shallow_copy(ptr: &AzFramePtr) -> AzFramePtr {",
		"fn az_frame_downcast(ptr: AzFramePtr) -> Box<Frame> {",
	)
}

func TestRustFlatGenerator_Header(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_flat")

	if !strings.HasPrefix(out, "// WARNING: autogenerated code for api version 0.0.1, do not edit\n") {
		t.Errorf("missing version line, got %q", strings.SplitN(out, "\n", 2)[0])
	}
	expectContains(t, out, "#![allow(dead_code)]", "use core::ffi::c_void;")
}

func TestRustFlatGenerator_Constructors(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_flat")

	expectContains(t, out,
		"pub extern \"C\" fn az_dom_div() -> AzDomPtr {\n    AzDomPtr { ptr: Box::into_raw(Box::new(Dom::div())) as *mut c_void }\n}",
		"pub extern \"C\" fn az_app_new(data: AzRefAnyPtr, config: AzAppConfigPtr, callback: AzLayoutCallback) -> AzAppPtr {",
		"pub extern \"C\" fn az_ref_any_new(data: AzDataModel) -> AzRefAnyPtr {",
	)
	if got := strings.Count(out, "Box::into_raw(Box::new("); got != 8 {
		t.Errorf("expected 8 constructors, got %d", got)
	}
}

func TestRustFlatGenerator_FunctionShapes(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_flat")

	expectContains(t, out,
		"pub extern \"C\" fn az_dom_add_child(dom: AzDomPtr, child: AzDomPtr) -> AzDomPtr {",
		"pub extern \"C\" fn az_dom_set_inline_style(dom: &mut AzDomPtr, style: &AzCssPtr) {",
		"pub extern \"C\" fn az_dom_child_count(dom: &AzDomPtr) -> usize {",
		"pub extern \"C\" fn az_ref_any_is_type(ref_any: &AzRefAnyPtr, type_id: u64) -> bool {",
		"pub extern \"C\" fn az_app_run(app: AzAppPtr, window: AzWindowCreateOptionsPtr) {",
	)
}

func TestRustFlatGenerator_ExternalAndLifetime(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_flat")

	expectContains(t, out,
		"pub use ::azul_core::window::WindowCreateOptionsPtr as AzWindowCreateOptionsPtr;",
		"pub extern \"C\" fn az_layout_info_delete<'a>(ptr: &mut AzLayoutInfoPtr) {",
		"Box::<LayoutInfo<'a>>::from_raw(ptr.ptr as *mut LayoutInfo<'a>)",
	)
	if strings.Contains(out, "pub struct AzWindowCreateOptionsPtr") {
		t.Error("external class must not get its own opaque struct")
	}
}

func TestRustFlatGenerator_RawTypes(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_flat")

	expectContains(t, out,
		"pub type AzLayoutCallback = extern \"C\" fn(AzRefAnyPtr, AzLayoutInfoPtr) -> AzDomPtr;",
		"pub type AzDataModel = *mut DataModel;",
	)

	// minimal uses neither
	out = generate(t, loadTestAPI(t, "minimal.api.json"), "rust_flat")
	if strings.Contains(out, "AzLayoutCallback") || strings.Contains(out, "AzDataModel") {
		t.Error("unused well-known types must not be emitted")
	}
}

func TestRustFlatGenerator_ScenarioA(t *testing.T) {
	ctx := parseTestAPI(t, scenarioA)
	out := generate(t, ctx, "rust_flat")

	if got := strings.Count(out, "pub extern \"C\" fn az_engine_new("); got != 1 {
		t.Errorf("expected one constructor function, got %d", got)
	}
	expectContains(t, out,
		"pub extern \"C\" fn az_engine_new() -> AzEnginePtr {",
		"pub extern \"C\" fn az_engine_attach(engine: AzEnginePtr, renderer: &AzRendererPtr) {",
		"pub extern \"C\" fn az_engine_delete(",
		"pub extern \"C\" fn az_engine_shallow_copy(",
		"fn az_engine_downcast(",
	)
}

func TestRustFlatGenerator_CustomPrelude(t *testing.T) {
	ctx := loadTestAPI(t, "minimal.api.json")
	ctx.Rust.Prelude = []string{"use std::ffi::c_void;", "use engine::*;"}
	out := generate(t, ctx, "rust_flat")

	expectContains(t, out, "use std::ffi::c_void;\nuse engine::*;\n")
	if strings.Contains(out, "use core::ffi::c_void;") {
		t.Error("default prelude should be replaced")
	}
}
