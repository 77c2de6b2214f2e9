package kml

import (
	"io"

	"github.com/beevik/etree"
)

const (
	declarationTarget = "xml"
	declarationInst   = `version="1.0" encoding="UTF-8"`
)

// WriteOptions controls how a Document is serialized.
type WriteOptions struct {
	// DefaultNamespace, when set, is bound to the empty prefix: elements in it
	// are written without a prefix.
	DefaultNamespace string
}

// DefaultWriteOptions binds the empty prefix to the KML namespace, so output
// reads <Placemark> rather than <ns0:Placemark> or <kml:Placemark>.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{DefaultNamespace: Namespace}
}

// Write serializes the document as UTF-8 with a leading XML declaration.
func (d *Document) Write(w io.Writer, opts WriteOptions) (int64, error) {
	if root := d.tree.Root(); root != nil && opts.DefaultNamespace != "" {
		useDefaultNamespace(root, opts.DefaultNamespace)
	}
	d.setDeclaration()

	return d.tree.WriteTo(w)
}

// setDeclaration rewrites an existing XML declaration in place, or inserts one
// followed by a newline at the top of the document.
func (d *Document) setDeclaration() {
	for _, tok := range d.tree.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == declarationTarget {
			pi.Inst = declarationInst
			return
		}
	}

	d.tree.InsertChildAt(0, etree.NewText("\n"))
	d.tree.InsertChildAt(0, etree.NewProcInst(declarationTarget, declarationInst))
}
