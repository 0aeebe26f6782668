package gen

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/benn-herrera/xbind/model"
	"github.com/benn-herrera/xbind/ownership"
)

// primitive spellings per surface: C, Go, cgo
var primitiveTypes = map[string][3]string{
	"bool":  {"bool", "bool", "bool"},
	"u8":    {"uint8_t", "uint8", "uint8_t"},
	"i32":   {"int32_t", "int32", "int32_t"},
	"u32":   {"uint32_t", "uint32", "uint32_t"},
	"i64":   {"int64_t", "int64", "int64_t"},
	"u64":   {"uint64_t", "uint64", "uint64_t"},
	"usize": {"size_t", "uint", "size_t"},
	"f32":   {"float", "float32", "float"},
	"f64":   {"double", "float64", "double"},
}

// PrimitiveCType returns the C spelling of a primitive, e.g. "usize" → "size_t".
func PrimitiveCType(name string) string {
	if t, ok := primitiveTypes[name]; ok {
		return t[0]
	}
	return name
}

// PrimitiveGoType returns the Go spelling of a primitive, e.g. "u64" → "uint64".
func PrimitiveGoType(name string) string {
	if t, ok := primitiveTypes[name]; ok {
		return t[1]
	}
	return name
}

// PrimitiveCgoType returns the name of the primitive under cgo's C pseudo-package.
func PrimitiveCgoType(name string) string {
	if t, ok := primitiveTypes[name]; ok {
		return t[2]
	}
	return name
}

// RustFlatType spells a planned parameter or result at the flat Rust layer.
func RustFlatType(n model.Naming, p ownership.Param) string {
	switch p.Shape {
	case ownership.ShapeHandle:
		return n.OpaqueType(p.Type)
	case ownership.ShapeHandleRef:
		return "&" + n.OpaqueType(p.Type)
	case ownership.ShapeHandleRefMut:
		return "&mut " + n.OpaqueType(p.Type)
	case ownership.ShapeFnPtr:
		return n.RawType(p.Type)
	}
	if p.Kind == ownership.KindPrimitive {
		return p.Type
	}
	return n.RawType(p.Type)
}

// CType spells a planned parameter or result in the C header. Borrowed
// handles become pointers; the pointee is const for shared borrows.
func CType(n model.Naming, p ownership.Param) string {
	switch p.Shape {
	case ownership.ShapeHandle:
		return n.OpaqueType(p.Type)
	case ownership.ShapeHandleRef:
		return "const " + n.OpaqueType(p.Type) + "*"
	case ownership.ShapeHandleRefMut:
		return n.OpaqueType(p.Type) + "*"
	case ownership.ShapeFnPtr:
		return n.RawType(p.Type)
	}
	if p.Kind == ownership.KindPrimitive {
		return PrimitiveCType(p.Type)
	}
	return n.RawType(p.Type)
}

// RustWrapperType spells a planned parameter or result in the Rust wrapper.
func RustWrapperType(n model.Naming, p ownership.Param) string {
	switch p.Kind {
	case ownership.KindClass:
		switch p.Mode {
		case model.ModeRef:
			return "&" + p.Type
		case model.ModeRefMut:
			return "&mut " + p.Type
		}
		return p.Type
	case ownership.KindCallback, ownership.KindPrimitive:
		return p.Type
	}
	return n.RawType(p.Type)
}

// GoMethodName maps an operation name to an exported Go identifier.
func GoMethodName(op string) string {
	return strcase.ToCamel(op)
}

// GoParamName maps a snake_case argument name to a Go parameter name,
// avoiding Go keywords.
func GoParamName(name string) string {
	id := strcase.ToLowerCamel(name)
	if goKeywords[id] {
		return id + "_"
	}
	return id
}

// GoConstructorName names the Go constructor of a class: New<Class> for "new",
// New<Class><Op> otherwise.
func GoConstructorName(class, op string) string {
	if op == "new" {
		return "New" + class
	}
	return "New" + class + strcase.ToCamel(op)
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// UpperSnakeCase converts a snake_case string to UPPER_SNAKE_CASE.
func UpperSnakeCase(s string) string {
	return strings.ToUpper(s)
}

// IncludeGuard derives a header include guard from an output path,
// e.g. "azul/src/c/azul.h" with suffix "C" → "AZUL_C_H".
func IncludeGuard(path, suffix string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".h")
	base = strings.TrimSuffix(base, ".hpp")
	var b strings.Builder
	for _, r := range base {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return fmt.Sprintf("%s_%s_H", UpperSnakeCase(b.String()), suffix)
}

// DocLine returns the description's doc text, or fallback when none is given.
func DocLine(doc, fallback string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return fallback
	}
	return strings.Join(strings.Fields(doc), " ")
}
