package validate

import "github.com/benn-herrera/xbind/model"

// Argument and receiver names are emitted verbatim into the Rust flat layer,
// the C/C++ headers and the Rust wrapper, and operation bodies refer to them
// by name, so they cannot be escaped per target. The Go wrapper escapes its
// own keywords.
var rustKeywords = setOf(
	"as", "async", "await", "break", "const", "continue", "crate", "dyn", "else",
	"enum", "extern", "false", "fn", "for", "if", "impl", "in", "let", "loop",
	"match", "mod", "move", "mut", "pub", "ref", "return", "self", "static",
	"struct", "super", "trait", "true", "type", "unsafe", "use", "where", "while",
	// reserved for future use
	"abstract", "become", "box", "do", "final", "gen", "macro", "override",
	"priv", "try", "typeof", "unsized", "virtual", "yield",
)

var cKeywords = setOf(
	"auto", "bool", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if", "inline",
	"int", "long", "register", "restrict", "return", "short", "signed", "sizeof",
	"static", "struct", "switch", "typedef", "union", "unsigned", "void",
	"volatile", "while",
	// C++ only
	"and", "catch", "class", "delete", "explicit", "export", "false", "friend",
	"mutable", "namespace", "new", "not", "nullptr", "operator", "or", "private",
	"protected", "public", "template", "this", "throw", "true", "try", "typename",
	"using", "virtual", "xor",
)

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// keywordLanguage reports which emitted language reserves name, or "".
func keywordLanguage(name string) string {
	switch {
	case rustKeywords[name]:
		return "Rust"
	case cKeywords[name]:
		return "C/C++"
	}
	return ""
}

func checkIdentifier(result *ValidationResult, path, name, what string) {
	if lang := keywordLanguage(name); lang != "" {
		result.addError(model.ErrNameCollision, path, name,
			"%s %q is a %s keyword", what, name, lang)
	}
}
