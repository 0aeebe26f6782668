package model

import (
	"regexp"
	"strings"
)

// Reserved operation names: every class gets these generated helpers.
const (
	HelperDelete      = "delete"
	HelperShallowCopy = "shallow_copy"
	HelperDowncast    = "downcast"
)

// ReservedOperations lists the helper names no description operation may use.
var ReservedOperations = []string{HelperDelete, HelperShallowCopy, HelperDowncast}

// WrapperHelpers are the method names every owning wrapper type defines:
// leak on both surfaces, drop for the Rust Drop impl, close for Go's Close.
var WrapperHelpers = []string{"leak", "drop", "close"}

// Naming holds the identifier transform parameters.
type Naming struct {
	Prefix   string // opaque type prefix, e.g. "Az"
	Postfix  string // opaque type suffix, e.g. "Ptr"
	FnPrefix string // flat function prefix, e.g. "az_"
}

// DefaultNaming returns the Az…Ptr / az_… naming scheme.
func DefaultNaming() Naming {
	return Naming{Prefix: "Az", Postfix: "Ptr", FnPrefix: "az_"}
}

// OpaqueType maps a class name to its opaque handle type, e.g. "Dom" → "AzDomPtr".
func (n Naming) OpaqueType(class string) string {
	return n.Prefix + class + n.Postfix
}

// RawType maps a callback or passthrough type to its raw name, e.g. "LayoutCallback" → "AzLayoutCallback".
func (n Naming) RawType(name string) string {
	return n.Prefix + name
}

// FunctionPrefix maps a class name to its flat function prefix, e.g. "LayoutInfo" → "az_layout_info".
func (n Naming) FunctionPrefix(class string) string {
	return n.FnPrefix + ToSnake(class)
}

// Function returns the flat function name of an operation or helper.
func (n Naming) Function(class, op string) string {
	return n.FunctionPrefix(class) + "_" + op
}

var (
	capitalizedWord = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	lowerThenUpper  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// ToSnake converts CapitalizedWords to lower_snake_case with acronym-aware
// boundaries: "HTTPServer" → "http_server", "Dom2Node" → "dom2_node".
func ToSnake(name string) string {
	s := capitalizedWord.ReplaceAllString(name, "${1}_${2}")
	s = lowerThenUpper.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}
