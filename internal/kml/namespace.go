package kml

import (
	"slices"

	"github.com/beevik/etree"
)

const (
	xmlnsAttr   = "xmlns"
	xmlPrefix   = "xml"
	xmlSpaceURI = "http://www.w3.org/XML/1998/namespace"
)

// namespaceURI resolves the namespace URI of el from the xmlns declarations in
// scope, honouring its prefix.
func namespaceURI(el *etree.Element) string {
	if el.Space == "" {
		return defaultNamespace(el)
	}

	return prefixNamespace(el, el.Space)
}

func defaultNamespace(el *etree.Element) string {
	for cur := el; cur != nil; cur = cur.Parent() {
		for _, a := range cur.Attr {
			if a.Space == "" && a.Key == xmlnsAttr {
				return a.Value
			}
		}
	}

	return ""
}

func prefixNamespace(el *etree.Element, prefix string) string {
	if prefix == xmlPrefix {
		return xmlSpaceURI
	}

	for cur := el; cur != nil; cur = cur.Parent() {
		for _, a := range cur.Attr {
			if a.Space == xmlnsAttr && a.Key == prefix {
				return a.Value
			}
		}
	}

	return ""
}

// bindings returns the namespace URI in scope at el for every prefix used by el
// or its descendants. The empty prefix stands for the default namespace.
func bindings(el *etree.Element) map[string]string {
	scope := make(map[string]string)
	walk(el, func(cur *etree.Element) {
		scope[cur.Space] = ""
		for _, a := range cur.Attr {
			if a.Space != "" && a.Space != xmlnsAttr {
				scope[a.Space] = ""
			}
		}
	})
	delete(scope, xmlPrefix)

	for prefix := range scope {
		if prefix == "" {
			scope[prefix] = defaultNamespace(el)
		} else {
			scope[prefix] = prefixNamespace(el, prefix)
		}
	}

	return scope
}

// rebind declares on el every binding of scope that its current ancestors
// resolve differently. Unbound prefixes are left alone.
func rebind(el *etree.Element, scope map[string]string) {
	prefixes := make([]string, 0, len(scope))
	for prefix := range scope {
		prefixes = append(prefixes, prefix)
	}
	slices.Sort(prefixes)
	for _, prefix := range prefixes {
		uri := scope[prefix]
		switch {
		case prefix == "":
			if defaultNamespace(el) != uri {
				el.CreateAttr(xmlnsAttr, uri)
			}
		case uri != "" && prefixNamespace(el, prefix) != uri:
			el.CreateAttr(xmlnsAttr+":"+prefix, uri)
		}
	}
}

// useDefaultNamespace rewrites the tree under root so that every element in
// namespace uri is unprefixed, fixing default declarations where the scope
// changes and dropping prefix declarations for uri that nothing uses anymore.
func useDefaultNamespace(root *etree.Element, uri string) {
	original := make(map[*etree.Element]string)
	walk(root, func(el *etree.Element) {
		original[el] = namespaceURI(el)
	})

	walk(root, func(el *etree.Element) {
		if original[el] == uri {
			el.Space = ""
		}
		if el.Space != "" {
			return
		}

		want := original[el]
		inherited := ""
		if parent := el.Parent(); parent != nil {
			inherited = defaultNamespace(parent)
		}
		if want != inherited || el.SelectAttr(xmlnsAttr) != nil {
			el.CreateAttr(xmlnsAttr, want)
		}
	})

	used := make(map[string]bool)
	walk(root, func(el *etree.Element) {
		used[el.Space] = true
		for _, a := range el.Attr {
			if a.Space != xmlnsAttr {
				used[a.Space] = true
			}
		}
	})

	walk(root, func(el *etree.Element) {
		var stale []string
		for _, a := range el.Attr {
			if a.Space == xmlnsAttr && a.Value == uri && !used[a.Key] {
				stale = append(stale, a.Space+":"+a.Key)
			}
		}
		for _, key := range stale {
			el.RemoveAttr(key)
		}
	})
}
