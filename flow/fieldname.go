package flow

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownField is the label used when no name can be recovered for an element.
const UnknownField = "Unknown"

var (
	nameAttrPattern = regexp.MustCompile(`(?:^|[^\w-])@?name\s*=\s*(?:'([^']*)'|"([^"]*)")`)
	textPattern     = regexp.MustCompile(`text\(\)\s*=\s*(?:'([^']*)'|"([^"]*)")`)
)

// genericTags are coarse element categories that say nothing about which field it is.
var genericTags = map[string]bool{
	"INPUT":    true,
	"BUTTON":   true,
	"MENU":     true,
	"TAB":      true,
	"TEXTAREA": true,
	"FILTER":   true,
}

// ResolveFieldName extracts a display name from an xpath-like locator.
// A name attribute wins over a text() match; otherwise UnknownField is returned.
func ResolveFieldName(xpath string) string {
	if m := nameAttrPattern.FindStringSubmatch(xpath); m != nil {
		if name := firstGroup(m); name != "" {
			return strings.ReplaceAll(capitalize(name), "_", " ")
		}
	}
	if m := textPattern.FindStringSubmatch(xpath); m != nil {
		if text := firstGroup(m); text != "" {
			return text
		}
	}
	return UnknownField
}

// FieldName returns the label for the element a step targets.
func FieldName(step Step) string {
	if name := ResolveFieldName(step.XPath); name != UnknownField {
		return name
	}
	tag := strings.TrimSpace(step.Tag)
	if tag == "" || IsGenericTag(tag) {
		return UnknownField
	}
	return singular(strings.ToLower(tag))
}

// IsGenericTag reports whether tag is one of the coarse categories the recorder emits.
func IsGenericTag(tag string) bool {
	return genericTags[strings.ToUpper(strings.TrimSpace(tag))]
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func singular(s string) string {
	if len(s) > 3 && strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") {
		return strings.TrimSuffix(s, "s")
	}
	return s
}
