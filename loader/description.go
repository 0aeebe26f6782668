package loader

import (
	"bytes"
	"fmt"
	"os"

	"github.com/benn-herrera/xbind/model"
	"gopkg.in/yaml.v3"
)

// Options controls how a description is turned into a model.
type Options struct {
	// Version selects a top-level version key. Empty selects the last one.
	Version string
	// WellKnown lists the non-opaque types available to the description.
	// Nil means model.DefaultWellKnown().
	WellKnown []model.WellKnown
}

// LoadDescription reads, schema-validates and parses an API description file.
func LoadDescription(path string, opts Options) (*model.API, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading API description: %w", err)
	}
	return ParseDescription(data, opts)
}

// ParseDescription parses description bytes (JSON or YAML). The document is
// decoded once into a node tree so mapping order, which is the argument call
// order, survives. Any structural problem aborts with ErrMalformedDescription.
func ParseDescription(data []byte, opts Options) (*model.API, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(stripBOM(data), &root); err != nil {
		return nil, malformed("", "", "parsing description: %v", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, malformed("", "", "empty description")
	}
	doc := root.Content[0]

	if err := checkDuplicateKeys(doc, ""); err != nil {
		return nil, err
	}
	if err := validateNode(doc); err != nil {
		return nil, malformed("", "", "schema: %v", err)
	}

	version, modules, err := selectVersion(doc, opts.Version)
	if err != nil {
		return nil, err
	}

	wellKnown := opts.WellKnown
	if wellKnown == nil {
		wellKnown = model.DefaultWellKnown()
	}
	api := &model.API{
		Version:   version,
		WellKnown: model.NewWellKnownSet(wellKnown...),
	}

	for _, mp := range pairs(modules) {
		mod := &model.Module{Name: mp.key}
		for _, cp := range pairs(mp.value) {
			class, err := parseClass(mod.Name, cp.key, cp.value)
			if err != nil {
				return nil, err
			}
			mod.Classes = append(mod.Classes, class)
		}
		api.Modules = append(api.Modules, mod)
	}
	return api, nil
}

func selectVersion(doc *yaml.Node, want string) (string, *yaml.Node, error) {
	versions := pairs(doc)
	if len(versions) == 0 {
		return "", nil, malformed("", "", "no API version present")
	}
	if want == "" {
		last := versions[len(versions)-1]
		return last.key, last.value, nil
	}
	for _, v := range versions {
		if v.key == want {
			return v.key, v.value, nil
		}
	}
	return "", nil, malformed("", want, "API version %q not found", want)
}

func parseClass(module, name string, node *yaml.Node) (*model.Class, error) {
	class := &model.Class{Name: name, Module: module}
	path := module + "." + name

	for _, f := range pairs(node) {
		switch f.key {
		case "doc":
			class.Doc = f.value.Value
		case "external":
			class.External = f.value.Value
		case "backing_type", "rust_class_name":
			if class.BackingType != "" && class.BackingType != f.value.Value {
				return nil, malformed(path, name, "backing_type and rust_class_name disagree")
			}
			class.BackingType = f.value.Value
		case "constructors", "functions":
			kind := model.OpConstructor
			if f.key == "functions" {
				kind = model.OpFunction
			}
			for i, opNode := range f.value.Content {
				opPath := fmt.Sprintf("%s.%s[%d]", path, f.key, i)
				op, err := parseOperation(kind, opPath, opNode)
				if err != nil {
					return nil, err
				}
				if kind == model.OpConstructor {
					class.Constructors = append(class.Constructors, op)
				} else {
					class.Functions = append(class.Functions, op)
				}
			}
		}
	}
	return class, nil
}

func parseOperation(kind model.OpKind, path string, node *yaml.Node) (*model.Operation, error) {
	op := &model.Operation{Kind: kind}
	var argsNode *yaml.Node

	for _, f := range pairs(node) {
		switch f.key {
		case "fn_name":
			op.Name = f.value.Value
		case "fn_body":
			op.Body = f.value.Value
		case "doc":
			op.Doc = f.value.Value
		case "returns":
			ret, err := model.ParseTypeRef(f.value.Value)
			if err != nil {
				return nil, malformed(path+".returns", f.value.Value, "%v", err)
			}
			if ret.Mode != model.ModeValue {
				return nil, malformed(path+".returns", f.value.Value, "return types cannot be borrowed")
			}
			op.Returns = &ret
		case "args":
			argsNode = f.value
		}
	}

	for _, a := range pairs(argsNode) {
		argPath := path + ".args." + a.key
		if a.key == "self" {
			if kind == model.OpConstructor {
				return nil, malformed(argPath, op.Name, "constructors cannot take self")
			}
			mode, err := model.ParseSelfMode(a.value.Value)
			if err != nil {
				return nil, model.Errorf(model.ErrWrongSelfMode, argPath, op.Name,
					"self mode %q must be value, ref or refmut", a.value.Value)
			}
			op.Self = &mode
			continue
		}
		t, err := model.ParseTypeRef(a.value.Value)
		if err != nil {
			return nil, malformed(argPath, a.value.Value, "%v", err)
		}
		op.Args = append(op.Args, model.Arg{Name: a.key, Type: t})
	}
	return op, nil
}

type pair struct {
	key   string
	value *yaml.Node
}

// pairs returns the key/value pairs of a mapping node in document order.
func pairs(n *yaml.Node) []pair {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, pair{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return out
}

// checkDuplicateKeys rejects a mapping that repeats a key anywhere in the
// tree. The node decoder keeps both entries, which would otherwise surface as
// duplicated modules, classes or arguments.
func checkDuplicateKeys(n *yaml.Node, path string) error {
	switch n.Kind {
	case yaml.MappingNode:
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			keyPath := key
			if path != "" {
				keyPath = path + "." + key
			}
			if seen[key] {
				return malformed(keyPath, key, "duplicate key %q (line %d)", key, n.Content[i].Line)
			}
			seen[key] = true
			if err := checkDuplicateKeys(n.Content[i+1], keyPath); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			if err := checkDuplicateKeys(c, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func malformed(path, name, format string, args ...any) *model.Error {
	return model.Errorf(model.ErrMalformedDescription, path, name, format, args...)
}
