// Package xml_testing sorts XML documents so that semantically equivalent
// but differently-ordered attributes, namespaces, and repeated elements
// compare equal in tests.
package xml_testing

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// node is a sorted tree representation of a decoded XML document: children
// are ordered by tag name, then by their own sorted text/children, so that
// two structurally-equal documents produce byte-identical re-encodings
// regardless of source element or attribute order.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	text     string
	children []*node
}

func xmlToNode(d *xml.Decoder, start *xml.StartElement) (*node, error) {
	n := &node{}
	if start != nil {
		n.name = start.Name
		n.attrs = append([]xml.Attr(nil), start.Attr...)
	}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return nil, fmt.Errorf("malformed xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := xmlToNode(d, &t)
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		case xml.EndElement:
			if start == nil {
				return nil, fmt.Errorf("malformed xml: unexpected end element %s", t.Name.Local)
			}
			return n, nil
		case xml.CharData:
			n.text += string(t)
		}
	}
}

func (n *node) sort() {
	sort.Sort(xmlAttrSlice(n.attrs))
	for _, c := range n.children {
		c.sort()
	}
	sort.Slice(n.children, func(i, j int) bool {
		return n.children[i].sortKey() < n.children[j].sortKey()
	})
}

// sortKey orders siblings by tag name first, then by a flattened rendering
// of their own contents, so repeated elements with the same name (list
// members, map entries) still sort deterministically by value.
func (n *node) sortKey() string {
	var b strings.Builder
	b.WriteString(n.name.Space)
	b.WriteByte('\x00')
	b.WriteString(n.name.Local)
	b.WriteByte('\x00')
	for _, a := range n.attrs {
		b.WriteString(a.Name.Local)
		b.WriteByte('=')
		b.WriteString(a.Value)
		b.WriteByte('\x00')
	}
	b.WriteString(strings.TrimSpace(n.text))
	for _, c := range n.children {
		b.WriteString(c.sortKey())
	}
	return b.String()
}

func (n *node) encode(e *xml.Encoder, ignoreWhitespace bool) error {
	if n.name.Local == "" {
		for _, c := range n.children {
			if err := c.encode(e, ignoreWhitespace); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: n.name, Attr: n.attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	text := n.text
	if ignoreWhitespace {
		text = strings.TrimSpace(text)
	}
	if text != "" {
		if err := e.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}

	for _, c := range n.children {
		if err := c.encode(e, ignoreWhitespace); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: n.name})
}

type xmlAttrSlice []xml.Attr

func (x xmlAttrSlice) Len() int { return len(x) }

func (x xmlAttrSlice) Less(i, j int) bool {
	if c := strings.Compare(x[i].Name.Space, x[j].Name.Space); c != 0 {
		return c < 0
	}
	if c := strings.Compare(x[i].Name.Local, x[j].Name.Local); c != 0 {
		return c < 0
	}
	return strings.Compare(x[i].Value, x[j].Value) < 0
}

func (x xmlAttrSlice) Swap(i, j int) { x[i], x[j] = x[j], x[i] }

// SortXML sorts the reader's XML elements, attributes, and namespaces into a
// canonical order so that two documents differing only in ordering compare
// equal as strings. When ignoreWhitespace is true, leading/trailing
// whitespace in text nodes is trimmed before comparison.
func SortXML(r io.Reader, ignoreWhitespace bool) (string, error) {
	d := xml.NewDecoder(r)
	root, err := xmlToNode(d, nil)
	if err != nil {
		return "", err
	}
	root.sort()

	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	if err := root.encode(e, ignoreWhitespace); err != nil {
		return "", err
	}
	if err := e.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// AssertXML asserts two xml bodies are equal by sorting the XML and comparing
// the resulting strings. It returns a boolean value for the assertion and an
// error which may be returned in case of malformed xml found while sorting.
// In case of mismatched XML, the error string will contain the diff between
// the two XMLs.
func AssertXML(actual io.Reader, expected io.Reader) (bool, error) {
	actualString, err := SortXML(actual, true)
	if err != nil {
		return false, err
	}

	expectedString, err := SortXML(expected, true)
	if err != nil {
		return false, err
	}

	if diff := cmp.Diff(actualString, expectedString); len(diff) != 0 {
		return false, fmt.Errorf("found diff while comparing the xml: %s", diff)
	}

	return true, nil
}
