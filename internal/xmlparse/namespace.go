package xmlparse

import (
	"regexp"
	"strings"
)

// Recognized OECD namespace URI fragments. Matching is deliberately loose:
// real filings disagree on version suffixes.
const (
	cbcURIFragment = ":cbc"
	stfURIFragment = ":stf"
)

var (
	xmlnsRe          = regexp.MustCompile(`xmlns(?::([A-Za-z_][\w.-]*))?\s*=\s*["']([^"']*)["']`)
	schemaLocationRe = regexp.MustCompile(`(?:\w+:)?schemaLocation\s*=\s*["']([^"']*)["']`)
	encodingDeclRe   = regexp.MustCompile(`<\?xml[^?]*encoding\s*=\s*["']([^"']+)["']`)
)

// Namespaces is the result of scanning raw text for namespace and encoding
// metadata. It is a pure function of the input and is used by the transformer
// for prefix-tolerant field resolution, never for security decisions.
type Namespaces struct {
	Default         string
	Prefixes        map[string]string // prefix -> URI
	SchemaLocations []string
	DeclaredEncoding string
	HasCbc          bool
	HasStf          bool
}

// Analyze extracts declared namespaces, schema locations, and the declared
// encoding from raw document text.
func Analyze(raw string) *Namespaces {
	ns := &Namespaces{Prefixes: make(map[string]string)}

	for _, m := range xmlnsRe.FindAllStringSubmatch(raw, -1) {
		prefix, uri := m[1], m[2]
		if prefix == "" {
			ns.Default = uri
		} else {
			ns.Prefixes[prefix] = uri
		}
		lower := strings.ToLower(uri)
		if strings.Contains(lower, cbcURIFragment) {
			ns.HasCbc = true
		}
		if strings.Contains(lower, stfURIFragment) {
			ns.HasStf = true
		}
	}

	for _, m := range schemaLocationRe.FindAllStringSubmatch(raw, -1) {
		ns.SchemaLocations = append(ns.SchemaLocations, m[1])
	}

	if m := encodingDeclRe.FindStringSubmatch(raw); m != nil {
		ns.DeclaredEncoding = m[1]
	}

	return ns
}

// PrefixFor reverse-maps a namespace URI to its declared prefix. The default
// namespace maps to the empty prefix.
func (ns *Namespaces) PrefixFor(uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	if uri == ns.Default {
		return "", true
	}
	// Pick the smallest matching prefix so duplicate declarations resolve
	// deterministically.
	best, found := "", false
	for p, u := range ns.Prefixes {
		if u == uri && (!found || p < best) {
			best, found = p, true
		}
	}
	return best, found
}
