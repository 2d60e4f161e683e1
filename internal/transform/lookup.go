package transform

import (
	"strings"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/xmlparse"
)

// knownPrefixes are tried in fixed priority after the bare key. The order is
// part of the contract: resolution must stay auditable per field, so this is
// a candidate list, not reflection.
var knownPrefixes = []string{"cbc", "stf", "iso"}

// candidateKeys expands a logical field name into the ordered lookup list:
// bare, cbc:, stf:, iso:, then the key with any supplied prefix stripped.
func candidateKeys(key string) []string {
	keys := make([]string, 0, len(knownPrefixes)+2)
	keys = append(keys, key)
	for _, p := range knownPrefixes {
		keys = append(keys, p+":"+key)
	}
	if i := strings.IndexByte(key, ':'); i >= 0 {
		keys = append(keys, key[i+1:])
	}
	return keys
}

// resolve returns the first direct child matching the candidate keys, trying
// exact as-filed names first and the prefix-free name last.
func resolve(n *xmlparse.Node, key string) *xmlparse.Node {
	if n == nil {
		return nil
	}
	for _, k := range candidateKeys(key) {
		for _, c := range n.Children {
			if c.Name == k {
				return c
			}
		}
	}
	bare := stripPrefix(key)
	for _, c := range n.Children {
		if c.Local == bare {
			return c
		}
	}
	return nil
}

// resolveAll returns every direct child matching the candidate keys, in
// document order. Used for elements on the repeatable allowlist so a single
// occurrence still comes back as a one-element sequence.
func resolveAll(n *xmlparse.Node, key string) []*xmlparse.Node {
	if n == nil {
		return nil
	}
	bare := stripPrefix(key)
	var out []*xmlparse.Node
	for _, c := range n.Children {
		if c.Local == bare {
			out = append(out, c)
		}
	}
	return out
}

// resolveText returns the trimmed text of the resolved child, or "".
func resolveText(n *xmlparse.Node, key string) string {
	if c := resolve(n, key); c != nil {
		return c.TrimmedText()
	}
	return ""
}

func stripPrefix(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
