package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/benn-herrera/xbind/gen"
	"github.com/benn-herrera/xbind/model"
)

// resetFlags restores every flag to its default so executions of the shared
// root command do not leak state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"-q"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func testdata(parts ...string) string {
	return filepath.Join(append([]string{"..", "testdata"}, parts...)...)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "xbind dev\ntargets: cheader, cppheader, go_wrapper, rust_flat, rust_wrapper\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestDumpSchema(t *testing.T) {
	out, err := run(t, "dump_schema")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"$schema"`) {
		t.Error("schema output missing $schema")
	}

	path := filepath.Join(t.TempDir(), "schema.json")
	if _, err := run(t, "dump_schema", "-o", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("schema file not written: %v", err)
	}
}

func TestValidate(t *testing.T) {
	if _, err := run(t, "validate", testdata("azul.api.json")); err != nil {
		t.Errorf("azul should validate: %v", err)
	}
	if _, err := run(t, "validate", testdata("minimal.api.json")); err != nil {
		t.Errorf("minimal should validate: %v", err)
	}
}

func TestValidate_UnresolvedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.api.json")
	doc := `{"1": {"dom": {"Dom": {"functions": [{"fn_name": "attach", "args": {"self": "ref", "ghost": "Ghost"}, "fn_body": "todo!()"}]}}}}`
	os.WriteFile(path, []byte(doc), 0644)

	_, err := run(t, "validate", path)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !errors.Is(err, model.ErrUnresolvedType) {
		t.Errorf("expected ErrUnresolvedType, got %v", err)
	}
	if !strings.Contains(err.Error(), "Ghost") {
		t.Errorf("error should name the type: %v", err)
	}
}

func TestValidate_APIVersion(t *testing.T) {
	if _, err := run(t, "validate", "--api-version", "0.0.0", testdata("minimal.api.json")); err != nil {
		t.Errorf("version 0.0.0 should validate: %v", err)
	}
	if _, err := run(t, "validate", "--api-version", "9.9.9", testdata("minimal.api.json")); !errors.Is(err, model.ErrMalformedDescription) {
		t.Errorf("expected ErrMalformedDescription for unknown version, got %v", err)
	}
}

func TestImports(t *testing.T) {
	out, err := run(t, "imports", testdata("azul.api.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"app:\n  callbacks: LayoutCallback, RefAny\n  window: WindowCreateOptions\n",
		"callbacks:\n  dom: Dom\n",
		"css: (none)\n",
		"window:\n  css: Css\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "generate", "-o", dir, testdata("azul.api.json")); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, target := range gen.DefaultTargets {
		path := filepath.Join(dir, gen.DefaultPaths[target])
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s: %v", target, err)
		}
	}
}

func TestGenerate_Targets(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "generate", "-o", dir, "--targets", "cheader", testdata("minimal.api.json")); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, gen.DefaultPaths["cheader"])); err != nil {
		t.Errorf("cheader not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, gen.DefaultPaths["rust_flat"])); !os.IsNotExist(err) {
		t.Error("rust_flat written although not selected")
	}

	if _, err := run(t, "generate", "-o", dir, "--targets", "python", testdata("minimal.api.json")); err == nil {
		t.Error("expected error for unknown target")
	}
}

func TestGenerate_ProjectConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "generate", "-o", dir, testdata("project", "azul.api.json")); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	goFile, err := os.ReadFile(filepath.Join(dir, "azul/src/go/azul/azul.go"))
	if err != nil {
		t.Fatalf("go wrapper not at configured path: %v", err)
	}
	for _, want := range []string{"#cgo LDFLAGS: -lazul", "#include \"../../c/azul.h\"", "// MIT License"} {
		if !strings.Contains(string(goFile), want) {
			t.Errorf("go wrapper missing %q", want)
		}
	}

	lib, err := os.ReadFile(filepath.Join(dir, gen.DefaultPaths["rust_flat"]))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(lib), "use azul::prelude::*;") {
		t.Error("configured prelude missing from the flat crate")
	}
	if _, err := os.Stat(filepath.Join(dir, gen.DefaultPaths["cppheader"])); !os.IsNotExist(err) {
		t.Error("cppheader is not enabled in the project config")
	}
}

func TestGenerate_FailureWritesNothing(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bad.api.json")
	doc := `{"1": {"dom": {"Dom": {"constructors": [{"fn_name": "new", "args": {"ghost": "Ghost"}, "fn_body": "todo!()"}]}}}}`
	os.WriteFile(path, []byte(doc), 0644)

	out := filepath.Join(tmp, "out")
	if _, err := run(t, "generate", "-o", out, path); !errors.Is(err, model.ErrUnresolvedType) {
		t.Fatalf("expected ErrUnresolvedType, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no artifact may be written when validation fails")
	}
}

func TestGenerate_DryRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	if _, err := run(t, "generate", "--dry-run", "-o", out, testdata("azul.api.json")); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("dry run must not write")
	}
}

func TestGenerate_MissingBanner(t *testing.T) {
	tmp := t.TempDir()
	data, err := os.ReadFile(testdata("minimal.api.json"))
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(tmp, "api.json"), data, 0644)
	os.WriteFile(filepath.Join(tmp, "xbind.toml"), []byte("[banner]\nlicense = \"LICENSE\"\n"), 0644)

	out := filepath.Join(tmp, "out")
	if _, err := run(t, "generate", "-o", out, filepath.Join(tmp, "api.json")); err == nil {
		t.Fatal("expected error for missing license file")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("nothing may be written when the banner cannot be read")
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "init", "-n", "engine", "-o", dir)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "xbind validate") {
		t.Errorf("missing next step hint: %q", out)
	}

	description := filepath.Join(dir, "engine.api.json")
	if _, err := run(t, "validate", description); err != nil {
		t.Errorf("scaffolded description should validate: %v", err)
	}

	genDir := filepath.Join(t.TempDir(), "gen")
	if _, err := run(t, "generate", "-o", genDir, description); err != nil {
		t.Fatalf("generating the scaffold failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(genDir, "engine/go/engine.go")); err != nil {
		t.Errorf("configured go path not used: %v", err)
	}

	if _, err := run(t, "init", "-n", "engine", "-o", dir); err == nil {
		t.Error("init must not overwrite an existing project")
	}
}
