package xmlparse

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// Parse screens raw text and, when nothing critical is found, builds the
// generic node tree. Findings collected by the screen are always returned so
// recoverable encoding problems surface alongside a successful parse. The
// tree is nil whenever a critical finding is present.
func Parse(raw string) (*Node, []cbc.ValidationResult) {
	findings := Screen(raw)
	if cbc.HasCritical(findings) {
		return nil, findings
	}

	root, err := Build(raw, Analyze(raw))
	if err != nil {
		findings = append(findings, MalformedFinding(err))
		return nil, findings
	}
	return root, findings
}

// Build walks decoder tokens into a Node tree. It must only run on input
// that already passed Screen. The decoder runs strict, resolves no custom
// entities, and never fetches external resources; charset conversion is
// disabled so mislabeled encodings are read as the UTF-8 bytes they arrived
// as.
func Build(raw string, ns *Namespaces) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(strings.TrimPrefix(raw, utf8BOM)))
	dec.Strict = true
	dec.Entity = map[string]string{}
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root, current *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{
				Name:  prefixedName(t.Name, ns),
				Local: t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				node.Attrs[prefixedName(a.Name, ns)] = a.Value
			}
			if root == nil {
				root = node
			} else if current == nil {
				return nil, fmt.Errorf("unexpected second root element <%s>", node.Name)
			} else {
				current.Children = append(current.Children, node)
			}
			stack = append(stack, node)
			current = node
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				current = stack[len(stack)-1]
			} else {
				current = nil
			}
		case xml.CharData:
			if current != nil {
				current.Text += string(t)
			}
		case xml.Directive:
			// The screen rejects DTD constructs before parsing; any directive
			// slipping through is refused as well.
			return nil, errors.New("markup declarations are prohibited")
		}
	}

	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

// prefixedName rebuilds the as-filed element name: the namespace URI the
// decoder resolved is reverse-mapped to its declared prefix. Undeclared
// prefixes pass through verbatim in Name.Space.
func prefixedName(name xml.Name, ns *Namespaces) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := ns.PrefixFor(name.Space); ok {
		if prefix == "" {
			return name.Local
		}
		return prefix + ":" + name.Local
	}
	if strings.ContainsAny(name.Space, ":/") {
		// Unmapped real URI (e.g. xml namespace); keep the local name.
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// MalformedFinding converts a tree-build error into the critical
// wellformedness finding, carrying line position when the decoder supplied
// one.
func MalformedFinding(err error) cbc.ValidationResult {
	f := critical(RuleMalformed, "document is not well-formed XML: "+err.Error())
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		f.Message = fmt.Sprintf("document is not well-formed XML at line %d: %s", syn.Line, syn.Msg)
		f.Details = map[string]any{"line": syn.Line}
	}
	return f
}
