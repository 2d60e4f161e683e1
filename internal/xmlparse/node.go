// Package xmlparse is the hardened ingestion layer: a textual security and
// encoding screen that runs before any parser sees the input, a namespace
// analyzer, and a generic attributed-tree builder. It knows nothing about
// the CbC schema beyond which element names repeat.
package xmlparse

import "strings"

// Node is the generic attributed tree produced by the secure parser and the
// sole input type of the transformer. Name keeps the namespace prefix as
// filed; Local is the prefix-free tag name.
type Node struct {
	Name     string
	Local    string
	Attrs    map[string]string
	Children []*Node
	Text     string
}

// Attr returns the named attribute, tolerating a prefixed key.
func (n *Node) Attr(key string) string {
	if v, ok := n.Attrs[key]; ok {
		return v
	}
	for k, v := range n.Attrs {
		if stripPrefix(k) == key {
			return v
		}
	}
	return ""
}

// ChildrenNamed returns all direct children whose name matches exactly or
// whose local name matches the prefix-free key.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	bare := stripPrefix(name)
	for _, c := range n.Children {
		if c.Name == name || c.Local == bare {
			out = append(out, c)
		}
	}
	return out
}

// FirstNamed returns the first matching direct child, or nil.
func (n *Node) FirstNamed(name string) *Node {
	bare := stripPrefix(name)
	for _, c := range n.Children {
		if c.Name == name || c.Local == bare {
			return c
		}
	}
	return nil
}

// TrimmedText returns the node's text content with surrounding whitespace
// removed.
func (n *Node) TrimmedText() string {
	return strings.TrimSpace(n.Text)
}

// repeatable is the explicit allowlist of element names that downstream code
// must always treat as sequences, even when a single occurrence is filed.
var repeatable = map[string]bool{
	"CbcReports":      true,
	"ConstEntities":   true,
	"AdditionalInfo":  true,
	"Name":            true,
	"TIN":             true,
	"IN":              true,
	"Address":         true,
	"ResCountryCode":  true,
	"CountryCode":     true,
	"BizActivities":   true,
	"Warning":         true,
	"SummaryRef":      true,
}

// Repeatable reports whether an element name is declared as a sequence. The
// prefix is ignored so cbc:TIN and TIN resolve identically.
func Repeatable(name string) bool {
	return repeatable[stripPrefix(name)]
}

func stripPrefix(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
