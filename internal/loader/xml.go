package loader

import (
	"encoding/xml"
	"fmt"
	"io"
)

// xmlNode is a generic element: attributes, child elements and text.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Text     string     `xml:",chardata"`
}

// readXML decodes a record document. The root element must be kind.Root;
// every child named kind.Element becomes one record whose fields are the
// element's attributes and the text of its child elements. Other children
// of the root are ignored.
func readXML(r io.Reader, source string, kind recordKind) ([]record, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			err = fmt.Errorf("document is empty")
		}
		return nil, newMalformedSource(source, "not a valid XML document", err)
	}

	if root.XMLName.Local != kind.Root {
		return nil, newMalformedSource(source,
			fmt.Sprintf("root element is <%s>, expected <%s>", root.XMLName.Local, kind.Root), nil)
	}

	var records []record
	for _, child := range root.Children {
		if child.XMLName.Local != kind.Element {
			continue
		}

		rec := newRecord(source, len(records)+1)
		for _, attr := range child.Attrs {
			rec.set(attr.Name.Local, attr.Value)
		}
		for _, field := range child.Children {
			rec.set(field.XMLName.Local, field.Text)
		}
		records = append(records, rec)
	}

	return records, nil
}
