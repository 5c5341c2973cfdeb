package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// element is a minimal DOM node that remembers the line its start tag
// ended on, so validation failures can point back into the document.
type element struct {
	name     string
	text     string
	line     int
	children []*element
}

// decodeTree reads a whole XML document into an element tree.
func decodeTree(r io.Reader) (*element, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	var root *element
	var stack []*element
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := d.InputPos()
			el := &element{name: t.Name.Local, line: line}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	return root, nil
}

// child returns the first direct child with the given name, or nil.
func (e *element) child(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// childText returns the text of the first direct child with the given name.
// ok is false if no such child exists.
func (e *element) childText(name string) (text string, ok bool) {
	c := e.child(name)
	if c == nil {
		return "", false
	}
	return c.text, true
}

// find returns the first element with the given name in document order,
// including e itself.
func (e *element) find(name string) *element {
	if e.name == name {
		return e
	}
	for _, c := range e.children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// findText is find followed by a trimmed text read.
func (e *element) findText(name string) string {
	if el := e.find(name); el != nil {
		return strings.TrimSpace(el.text)
	}
	return ""
}

// instance converts the subtree into the JSON shape the feed schema is
// written against: leaves become their trimmed text, and every other element
// becomes an object mapping child names to arrays of child instances.
func (e *element) instance() any {
	if len(e.children) == 0 {
		return strings.TrimSpace(e.text)
	}
	obj := make(map[string]any, len(e.children))
	for _, c := range e.children {
		arr, _ := obj[c.name].([]any)
		obj[c.name] = append(arr, c.instance())
	}
	return obj
}

// resolve walks a JSON pointer produced against instance() back to the
// element it names, stopping at the deepest element that exists.
func (e *element) resolve(pointer string) *element {
	cur := e
	tokens := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i := 0; i+1 < len(tokens); i += 2 {
		name := unescapePointer(tokens[i])
		var idx int
		if _, err := fmt.Sscanf(tokens[i+1], "%d", &idx); err != nil {
			return cur
		}
		next := cur.nthChild(name, idx)
		if next == nil {
			return cur
		}
		cur = next
	}
	return cur
}

func (e *element) nthChild(name string, n int) *element {
	seen := 0
	for _, c := range e.children {
		if c.name != name {
			continue
		}
		if seen == n {
			return c
		}
		seen++
	}
	return nil
}

func unescapePointer(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}
