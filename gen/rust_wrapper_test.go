package gen

import (
	"strings"
	"testing"
)

func TestRustWrapperGenerator_Modules(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_wrapper")

	expectContains(t, out,
		"extern crate azul_dll;\n",
		"pub mod app {\n\n    use azul_dll::*;\n",
		"pub mod callbacks {\n",
		"pub mod window {\n",
	)
	if got := strings.Count(out, "pub mod callbacks {"); got != 1 {
		t.Errorf("callbacks module emitted %d times", got)
	}
}

func TestRustWrapperGenerator_Imports(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_wrapper")

	expectContains(t, out,
		"    use crate::callbacks::{LayoutCallback, RefAny};\n",
		"    use crate::window::WindowCreateOptions;\n",
		"    use crate::dom::Dom;\n",
		"    use crate::css::Css;\n",
	)
	if strings.Contains(out, "DataModel;") {
		t.Error("passthrough types are reached through the flat crate, not imported")
	}
}

func TestRustWrapperGenerator_OwningTypes(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_wrapper")

	n := len(ctx.API.Classes())
	if got := strings.Count(out, "impl Drop for "); got != n {
		t.Errorf("expected %d Drop impls, got %d", n, got)
	}
	if got := strings.Count(out, "pub(crate) fn leak(mut self)"); got != n {
		t.Errorf("expected %d leak fns, got %d", n, got)
	}
	expectContains(t, out,
		"pub struct Dom { pub(crate) ptr: AzDomPtr, pub(crate) run_destructor: bool }",
		"pub(crate) fn leak(mut self) -> AzDomPtr { self.run_destructor = false; az_dom_shallow_copy(&self.ptr) }",
		"impl Drop for Dom { fn drop(&mut self) { if self.run_destructor { az_dom_delete(&mut self.ptr); } } }",
	)
}

func TestRustWrapperGenerator_OwnershipCalls(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_wrapper")

	expectContains(t, out,
		"pub fn add_child(self, child: Dom) -> Dom {\n            Dom { ptr: az_dom_add_child(self.leak(), child.leak()), run_destructor: true }\n",
		"pub fn set_inline_style(&mut self, style: &Css) {\n            az_dom_set_inline_style(&mut self.ptr, &style.ptr)\n",
		"pub fn child_count(&self) -> usize {\n            az_dom_child_count(&self.ptr)\n",
		"pub fn is_type(&self, type_id: u64) -> bool {\n            az_ref_any_is_type(&self.ptr, type_id)\n",
		"pub fn new(data: AzDataModel) -> Self {\n            Self { ptr: az_ref_any_new(data), run_destructor: true }\n",
		"pub fn div() -> Self {\n            Self { ptr: az_dom_div(), run_destructor: true }\n",
	)
}

func TestRustWrapperGenerator_CallbackBridge(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_wrapper")

	expectContains(t, out,
		"pub type LayoutCallback = fn(RefAny, LayoutInfo) -> Dom;",
		"fn default_layout_callback(_: RefAny, _: LayoutInfo) -> Dom {\n        Dom::div()\n    }",
		"pub(crate) static mut LAYOUT_CALLBACK: LayoutCallback = default_layout_callback;",
		"pub(crate) fn set_layout_callback(callback: LayoutCallback) {\n        unsafe { LAYOUT_CALLBACK = callback };\n",
		"pub(crate) extern \"C\" fn translate_layout_callback(ref_any: AzRefAnyPtr, layout_info: AzLayoutInfoPtr) -> AzDomPtr {",
		"let callback = unsafe { LAYOUT_CALLBACK };",
		"callback(RefAny { ptr: ref_any, run_destructor: true }, LayoutInfo { ptr: layout_info, run_destructor: true }).leak()",
	)
}

// A wrapper operation taking a callback installs it into the cell and hands
// the flat function the trampoline, never the user function.
func TestRustWrapperGenerator_ScenarioB(t *testing.T) {
	ctx := loadTestAPI(t, "azul.api.json")
	out := generate(t, ctx, "rust_wrapper")

	install := "crate::callbacks::set_layout_callback(callback);"
	call := "az_app_new(data.leak(), config.leak(), crate::callbacks::translate_layout_callback)"
	expectContains(t, out, install, call)

	i, j := strings.Index(out, install), strings.Index(out, call)
	if i < 0 || j < 0 || i > j {
		t.Errorf("install must precede the flat call (install at %d, call at %d)", i, j)
	}
	if strings.Contains(out, "az_app_new(data.leak(), config.leak(), callback)") {
		t.Error("user callback passed to the flat function directly")
	}
}

func TestRustWrapperGenerator_ScenarioA(t *testing.T) {
	ctx := parseTestAPI(t, scenarioA)
	out := generate(t, ctx, "rust_wrapper")

	expectContains(t, out,
		"pub fn new() -> Self {\n            Self { ptr: az_engine_new(), run_destructor: true }\n",
		"pub fn attach(self, renderer: &Renderer) {\n            az_engine_attach(self.leak(), &renderer.ptr)\n",
	)
	if got := strings.Count(out, "self.leak()"); got != 1 {
		t.Errorf("value receiver must be leaked exactly once, got %d", got)
	}
}

func TestRustWrapperGenerator_Banner(t *testing.T) {
	ctx := loadTestAPI(t, "minimal.api.json")
	ctx.Banner = Banner{License: "MIT", Readme: "# Engine\n\nBindings."}
	out := generate(t, ctx, "rust_wrapper")

	want := "//! WARNING: autogenerated code for api version 0.1.0, do not edit\n//!\n//! # Engine\n//!\n//! Bindings.\n\n// MIT\n\nextern crate azul_dll;\n"
	if !strings.HasPrefix(out, want) {
		t.Errorf("unexpected banner:\n%s", out[:len(want)])
	}
}

func TestRustWrapperGenerator_NoCallbackModuleWhenUnused(t *testing.T) {
	ctx := loadTestAPI(t, "minimal.api.json")
	out := generate(t, ctx, "rust_wrapper")

	if strings.Contains(out, "pub mod callbacks") {
		t.Error("callbacks module emitted without any used callback")
	}
	expectContains(t, out, "pub mod engine {\n")
}
