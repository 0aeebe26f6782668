package gen

import (
	"fmt"
	"os"
	"strings"
)

// Banner holds text embedded verbatim at the top of every artifact.
type Banner struct {
	License string
	Readme  string // Rust wrapper only, as inner doc comments
}

// LoadBanner reads the license and readme files. An empty path skips that
// part; a configured path that cannot be read is an error.
func LoadBanner(licensePath, readmePath string) (Banner, error) {
	var b Banner
	if licensePath != "" {
		data, err := os.ReadFile(licensePath)
		if err != nil {
			return Banner{}, fmt.Errorf("reading license banner: %w", err)
		}
		b.License = strings.TrimPrefix(string(data), "\uFEFF")
	}
	if readmePath != "" {
		data, err := os.ReadFile(readmePath)
		if err != nil {
			return Banner{}, fmt.Errorf("reading readme banner: %w", err)
		}
		b.Readme = strings.TrimPrefix(string(data), "\uFEFF")
	}
	return b, nil
}

// VersionLine is the first line of every artifact, without comment markers.
func VersionLine(version string) string {
	return "WARNING: autogenerated code for api version " + version + ", do not edit"
}

// GeneratedFileHeader returns the version line followed by the license
// banner, every line prefixed with marker ("//" for Rust, C and C++).
func GeneratedFileHeader(marker, version string, banner Banner) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", marker, VersionLine(version))
	if banner.License != "" {
		fmt.Fprintf(&b, "%s\n", marker)
		b.WriteString(CommentLines(marker, banner.License))
	}
	b.WriteString("\n")
	return b.String()
}

// CommentLines prefixes every line of text with marker. Blank lines get the
// bare marker so no trailing whitespace is emitted.
func CommentLines(marker, text string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(text, "\r\n"), "\n") {
		line = strings.TrimRight(line, "\r \t")
		if line == "" {
			fmt.Fprintf(&b, "%s\n", marker)
		} else {
			fmt.Fprintf(&b, "%s %s\n", marker, line)
		}
	}
	return b.String()
}
