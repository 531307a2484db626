package tei

import "github.com/beevik/etree"

// Rend returns element style hint.
func Rend(el *etree.Element) string {
	return el.SelectAttrValue("rend", "")
}

// FormatRend returns style hint for a particular output format. A
// "rend-<format>" attribute wins over generic "rend". The value "none"
// suppresses decoration for that format.
func FormatRend(el *etree.Element, format string) string {
	if v := el.SelectAttrValue("rend-"+format, ""); len(v) > 0 {
		return v
	}
	return Rend(el)
}

// ID returns element xml:id, empty when absent.
func ID(el *etree.Element) string {
	if v := el.SelectAttrValue("xml:id", ""); len(v) > 0 {
		return v
	}
	// some sources drop the xml prefix
	return el.SelectAttrValue("id", "")
}

// Target returns ref target, empty when absent.
func Target(el *etree.Element) string {
	return el.SelectAttrValue("target", "")
}
