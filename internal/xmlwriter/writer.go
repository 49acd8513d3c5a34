// =============================================================================
// Transit Payment Reports - XML Writer Module
// =============================================================================
//
// This module renders element trees as indented XML. The report builders in
// reports.go and the record builders in records.go produce the trees; this
// file only knows how to print them.
//
// OUTPUT RULES:
//   - Optional XML declaration, then the root element
//   - Two spaces per nesting level (configurable)
//   - Elements and attributes appear exactly in the order given
//   - An element with neither text nor children is written self-closing
//   - Text and attribute values are escaped
//
// The same tree always produces the same bytes.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Options contains options for XML generation.
type Options struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "utf-8"
	Encoding string

	// RootAttributes are appended to the root element's own attributes.
	// Example: xmlns="http://example.com/schema"
	RootAttributes []xml.Attr
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "utf-8",
	}
}

// =============================================================================
// ELEMENT TREE
// =============================================================================

// Element is a generic XML element. When Value is set, Children are not
// written.
type Element struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []Element
}

// Document is the root of an element tree.
type Document struct {
	Root Element
}

// NewElement creates an element with the given attributes.
func NewElement(name string, attrs ...xml.Attr) Element {
	return Element{XMLName: xml.Name{Local: name}, Attributes: attrs}
}

// TextElement creates an element holding only text.
func TextElement(name, value string) Element {
	return Element{XMLName: xml.Name{Local: name}, Value: value}
}

// Attr builds a string attribute.
func Attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// IntAttr builds an integer attribute.
func IntAttr(name string, value int) xml.Attr {
	return Attr(name, strconv.Itoa(value))
}

// Append adds children in order and returns the element.
func (e Element) Append(children ...Element) Element {
	e.Children = append(e.Children, children...)
	return e
}

// =============================================================================
// MARSHALING
// =============================================================================

// Marshal renders doc with the given options.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if an element or attribute has an empty name.
func Marshal(doc *Document, options Options) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to marshal")
	}

	root := doc.Root
	if len(options.RootAttributes) > 0 {
		attrs := make([]xml.Attr, 0, len(root.Attributes)+len(options.RootAttributes))
		attrs = append(attrs, root.Attributes...)
		root.Attributes = append(attrs, options.RootAttributes...)
	}

	if err := checkNames(root); err != nil {
		return nil, err
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			orDefault(options.XMLVersion, "1.0"), orDefault(options.Encoding, "utf-8")))
	}

	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// MarshalDefault renders doc with DefaultOptions.
func MarshalDefault(doc *Document) ([]byte, error) {
	return Marshal(doc, DefaultOptions())
}

func checkNames(e Element) error {
	if strings.TrimSpace(e.XMLName.Local) == "" {
		return fmt.Errorf("element with empty name")
	}
	for _, attr := range e.Attributes {
		if strings.TrimSpace(attr.Name.Local) == "" {
			return fmt.Errorf("attribute with empty name on <%s>", e.XMLName.Local)
		}
	}
	for _, child := range e.Children {
		if err := checkNames(child); err != nil {
			return err
		}
	}
	return nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element Element, indent string, level int) {
	buffer.WriteString(strings.Repeat(indent, level))

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name.Local, escapeAttr(attr.Value)))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString(" />\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		buffer.WriteString(strings.Repeat(indent, level))
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// escapeAttr also keeps line breaks and tabs, which parsers would otherwise
// normalize to spaces inside attribute values.
func escapeAttr(s string) string {
	s = escapeXML(s)
	if !strings.ContainsAny(s, "\n\r\t") {
		return s
	}
	return strings.NewReplacer("\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;").Replace(s)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
