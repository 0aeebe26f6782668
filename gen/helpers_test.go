package gen

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/benn-herrera/xbind/loader"
	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/validate"
)

// loadTestAPI loads a description from testdata, validates it and builds a
// generation context with default naming.
func loadTestAPI(t *testing.T, name string) *Context {
	t.Helper()
	api, err := loader.LoadDescription(filepath.Join("..", "testdata", name), loader.Options{})
	if err != nil {
		t.Fatalf("loading %s: %v", name, err)
	}
	return newTestContext(t, api)
}

// parseTestAPI is loadTestAPI for an inline description.
func parseTestAPI(t *testing.T, doc string) *Context {
	t.Helper()
	api, err := loader.ParseDescription([]byte(doc), loader.Options{})
	if err != nil {
		t.Fatalf("parsing description: %v", err)
	}
	return newTestContext(t, api)
}

func newTestContext(t *testing.T, api *model.API) *Context {
	t.Helper()
	naming := model.DefaultNaming()
	if result := validate.Validate(api, naming); !result.IsValid() {
		t.Fatalf("validation failed:\n%s", result.Error())
	}
	ctx, err := NewContext(api, naming)
	if err != nil {
		t.Fatalf("building context: %v", err)
	}
	return ctx
}

// generate runs one registered generator and returns the content of its
// single output file.
func generate(t *testing.T, ctx *Context, name string) string {
	t.Helper()
	g, ok := Get(name)
	if !ok {
		t.Fatalf("generator %q not registered", name)
	}
	files, err := g.Generate(ctx)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	if len(files) != 1 {
		t.Fatalf("%s: expected 1 output file, got %d", name, len(files))
	}
	return string(files[0].Content)
}

func expectContains(t *testing.T, out string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(out, f) {
			t.Errorf("missing %q", f)
		}
	}
}

// scenarioA is a class with a zero-argument constructor and a method taking
// self by value plus a borrowed class argument.
const scenarioA = `{"1.0.0": {"engine": {
  "Engine": {
    "constructors": [{"fn_name": "new", "fn_body": "Engine::new()"}],
    "functions": [{"fn_name": "attach", "args": {"self": "value", "renderer": "&Renderer"}, "fn_body": "az_engine_downcast(engine).attach()"}]
  },
  "Renderer": {}
}}}`
