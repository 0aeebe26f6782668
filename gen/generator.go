package gen

import (
	"fmt"
	"sort"
	"sync"
)

// OutputFile represents a single generated file.
type OutputFile struct {
	Path    string // Relative path within output directory
	Content []byte
	Target  string // registry name of the generator that produced it
	Lang    string // "rust", "c", "cpp" or "go"; selects the external formatter
}

// Generator is the interface all emitters implement.
// Each generator renders one artifact from the same resolved model.
// Adding a surface requires only implementing this interface and calling Register() in init().
type Generator interface {
	// Name returns the generator name (e.g., "rust_flat", "cheader", "go_wrapper").
	Name() string

	// Generate produces output files for the given API.
	Generate(ctx *Context) ([]*OutputFile, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Generator{}
)

// Register adds a generator factory to the registry.
// Typically called from init() in each generator's file.
func Register(name string, factory func() Generator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("generator %q already registered", name))
	}
	registry[name] = factory
}

// Get returns a new instance of the named generator.
func Get(name string) (Generator, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// All returns the names of all registered generators, sorted.
func All() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultTargets lists the generators run when no target selection is configured,
// flat layer first.
var DefaultTargets = []string{"rust_flat", "cheader", "cppheader", "rust_wrapper", "go_wrapper"}

// DefaultPaths maps each generator to its output path relative to the output directory.
var DefaultPaths = map[string]string{
	"rust_flat":    "azul-dll/src/lib.rs",
	"cheader":      "azul/src/c/azul.h",
	"cppheader":    "azul/src/cpp/azul.h",
	"rust_wrapper": "azul/src/rust/azul.rs",
	"go_wrapper":   "azul/src/go/azul.go",
}

// ResolveTargets validates a target selection, returning DefaultTargets when it is empty.
func ResolveTargets(names []string) ([]string, error) {
	if len(names) == 0 {
		return DefaultTargets, nil
	}
	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		if _, ok := Get(name); !ok {
			return nil, fmt.Errorf("unknown target %q (available: %v)", name, All())
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}
