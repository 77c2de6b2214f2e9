// Package kml wraps a parsed KML file as a mutable element tree. Every element
// knows its parent, so placemarks can be detached from wherever they sit and
// re-attached under the Document container.
package kml

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/UnknownOlympus/kmldedup/internal/models"
	"github.com/beevik/etree"
)

// Namespace is the KML 2.2 namespace URI every searched element must belong to.
const Namespace = "http://www.opengis.net/kml/2.2"

const (
	tagDocument    = "Document"
	tagPlacemark   = "Placemark"
	tagCoordinates = "coordinates"
	tagName        = "name"
)

// Document is a loaded KML tree together with its Document container.
type Document struct {
	tree      *etree.Document
	container *etree.Element
	// scopes holds the bindings detached placemarks had in their old position.
	scopes map[*etree.Element]map[string]string
}

// Placemark is a handle to one Placemark element of a Document.
type Placemark struct {
	el *etree.Element
}

// Parse reads a KML document. It fails with models.ErrLoad if the input is not
// well-formed XML and with models.ErrStructure if it holds no KML Document element.
func Parse(r io.Reader) (*Document, error) {
	tree := etree.NewDocument()
	if _, err := tree.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrLoad, err)
	}
	if err := checkProlog(tree); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrLoad, err)
	}

	container := findFirst(tree.Root(), tagDocument)
	if container == nil {
		return nil, fmt.Errorf("%w: no %s element in namespace %s", models.ErrStructure, tagDocument, Namespace)
	}

	return &Document{
		tree:      tree,
		container: container,
		scopes:    make(map[*etree.Element]map[string]string),
	}, nil
}

// checkProlog rejects documents without exactly one root element or with text
// outside of it.
func checkProlog(tree *etree.Document) error {
	roots := 0
	for _, tok := range tree.Child {
		switch t := tok.(type) {
		case *etree.Element:
			roots++
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return fmt.Errorf("text %q outside the root element", strings.TrimSpace(t.Data))
			}
		}
	}

	switch {
	case roots == 0:
		return errors.New("document has no root element")
	case roots > 1:
		return fmt.Errorf("document has %d root elements", roots)
	}

	return nil
}

// Placemarks returns every Placemark under the Document container, at any
// depth, in document order.
func (d *Document) Placemarks() []Placemark {
	var placemarks []Placemark
	walk(d.container, func(el *etree.Element) {
		if el != d.container && isKML(el, tagPlacemark) {
			placemarks = append(placemarks, Placemark{el: el})
		}
	})

	return placemarks
}

// Detach removes the placemark from its current parent. Detaching an already
// detached placemark is a no-op.
func (d *Document) Detach(p Placemark) {
	parent := p.el.Parent()
	if parent == nil {
		return
	}

	d.scopes[p.el] = bindings(p.el)
	parent.RemoveChild(p.el)
}

// Append attaches the placemark as the last child of the Document container.
// Namespace bindings the placemark inherited from its old ancestors are
// declared on it when they are not in scope under the container.
func (d *Document) Append(p Placemark) {
	d.Detach(p)
	d.container.AddChild(p.el)

	if scope, ok := d.scopes[p.el]; ok {
		rebind(p.el, scope)
		delete(d.scopes, p.el)
	}
}

// Container returns the tag path of the Document container, e.g. "kml/Document".
func (d *Document) Container() string {
	return path(d.container)
}

// Coordinates returns the trimmed text of the first coordinates element inside
// the placemark. It fails with models.ErrStructure when there is none or when
// it holds no text.
func (p Placemark) Coordinates() (string, error) {
	el := findFirst(p.el, tagCoordinates)
	if el == nil {
		return "", fmt.Errorf("%w: placemark %s has no %s element", models.ErrStructure, p.label(), tagCoordinates)
	}

	text := strings.TrimSpace(el.Text())
	if text == "" {
		return "", fmt.Errorf("%w: placemark %s has an empty %s element", models.ErrStructure, p.label(), tagCoordinates)
	}

	return text, nil
}

// Name returns the placemark's own name, or an empty string.
func (p Placemark) Name() string {
	for _, child := range p.el.ChildElements() {
		if isKML(child, tagName) {
			return strings.TrimSpace(child.Text())
		}
	}

	return ""
}

// Parent returns the tag path of the element currently holding the placemark.
func (p Placemark) Parent() string {
	if parent := p.el.Parent(); parent != nil {
		return path(parent)
	}

	return ""
}

func (p Placemark) label() string {
	if name := p.Name(); name != "" {
		return fmt.Sprintf("%q", name)
	}
	if id := p.el.SelectAttrValue("id", ""); id != "" {
		return "#" + id
	}

	return fmt.Sprintf("at %s[%d]", path(p.el.Parent()), p.el.Index())
}

// findFirst returns the first descendant of el (el excluded) with the given
// local name in the KML namespace, in document order.
func findFirst(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if isKML(child, tag) {
			return child
		}
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}

	return nil
}

// walk visits el and all its descendant elements in document order.
func walk(el *etree.Element, visit func(*etree.Element)) {
	visit(el)
	for _, child := range el.ChildElements() {
		walk(child, visit)
	}
}

func isKML(el *etree.Element, tag string) bool {
	return el.Tag == tag && namespaceURI(el) == Namespace
}

func path(el *etree.Element) string {
	if el == nil {
		return ""
	}

	var parts []string
	for cur := el; cur != nil && cur.Tag != ""; cur = cur.Parent() {
		parts = append(parts, cur.Tag)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}

	return strings.Join(parts, "/")
}

// String identifies the placemark in messages: its name, its id, or its position.
func (p Placemark) String() string {
	return p.label()
}
