package config

import (
	"bufio"
	"io"
	"strings"

	"github.com/corvid-dex/core/internal/diag"
)

// ProguardMap is the parsed form of a Proguard/R8 mapping file: original to
// obfuscated names for classes and, within a class, its members. The core
// only consumes this file (spec.md Non-goals exclude producing one); it is
// read so a re-compilation pass can be told which already-obfuscated names
// correspond to which original source names.
type ProguardMap struct {
	// Classes maps the original class name (dotted, e.g. "com.foo.Bar") to
	// its obfuscated name.
	Classes map[string]string
	// Members maps an original class name to its original->obfuscated
	// member-name table, covering both fields and methods (the mapping
	// format doesn't distinguish the two beyond the member's own
	// signature line).
	Members map[string]map[string]string
}

// ParseProguardMap reads a Proguard mapping file from r. It is a
// line-oriented format: a class line ends in " -> obfuscated:" at column 0;
// every indented line below it names one member of that class, "original
// -> obfuscated" after stripping the leading type/signature text. Grounded
// on the teacher's own hand-rolled line/token scanning (parser.go) rather
// than a parser-combinator library, since the pack shows no dedicated
// Proguard-map library and the format itself has no nesting beyond one
// indentation level.
func ParseProguardMap(r io.Reader) (*ProguardMap, *diag.Diagnostic) {
	m := &ProguardMap{
		Classes: map[string]string{},
		Members: map[string]map[string]string{},
	}
	scanner := bufio.NewScanner(r)
	var currentOriginal string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			original, obfuscated, ok := splitArrow(strings.TrimSuffix(strings.TrimSpace(line), ":"))
			if !ok {
				return nil, diag.New(diag.KindConfigurationError, "malformed class mapping line: "+line, nil)
			}
			m.Classes[original] = obfuscated
			currentOriginal = original
			m.Members[currentOriginal] = map[string]string{}
			continue
		}
		if currentOriginal == "" {
			return nil, diag.New(diag.KindConfigurationError, "member line before any class mapping: "+line, nil)
		}
		original, obfuscated, ok := splitArrow(strings.TrimSpace(line))
		if !ok {
			return nil, diag.New(diag.KindConfigurationError, "malformed member mapping line: "+line, nil)
		}
		m.Members[currentOriginal][memberName(original)] = obfuscated
	}
	if err := scanner.Err(); err != nil {
		return nil, diag.New(diag.KindConfigurationError, "reading proguard map", err)
	}
	return m, nil
}

// splitArrow splits "lhs -> rhs" into its two sides.
func splitArrow(line string) (lhs, rhs string, ok bool) {
	i := strings.Index(line, " -> ")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+len(" -> "):]), true
}

// memberName strips a field/method mapping line's leading type (and, for
// methods, its line-number range prefix and trailing parameter list) down
// to the bare original member name, e.g. "1:1:void onCreate(Bundle)" ->
// "onCreate", "int count" -> "count".
func memberName(lhs string) string {
	if i := strings.LastIndex(lhs, ":"); i >= 0 {
		lhs = lhs[i+1:]
	}
	if i := strings.Index(lhs, "("); i >= 0 {
		lhs = lhs[:i]
	}
	fields := strings.Fields(lhs)
	if len(fields) == 0 {
		return lhs
	}
	return fields[len(fields)-1]
}
