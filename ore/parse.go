// Copyright (c) 2024 The DataONE Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package ore

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// ParseResourceMap reads an RDF/XML resource map in the striped form DataONE
// produces (rdf:Description elements with rdf:about, holding property
// elements with either an rdf:resource attribute or literal character data)
// and returns the corresponding graph document.
func ParseResourceMap(data []byte, resolveBase string) (*GraphDocument, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	graph := NewGraphDocument(resolveBase)

	sawRoot := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &MalformedGraphError{Message: err.Error()}
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if start.Name.Space != NamespaceRDF || start.Name.Local != "RDF" {
				return nil, &MalformedGraphError{
					Message: "document root is not rdf:RDF",
				}
			}
			sawRoot = true
			continue
		}
		if start.Name.Space == NamespaceRDF && start.Name.Local == "Description" {
			if err := parseDescription(decoder, start, graph); err != nil {
				return nil, err
			}
		} else {
			decoder.Skip()
		}
	}
	if !sawRoot {
		return nil, &MalformedGraphError{Message: "empty document"}
	}
	return graph, nil
}

// reads one rdf:Description element and appends its statements to the graph
func parseDescription(decoder *xml.Decoder, start xml.StartElement, graph *GraphDocument) error {
	subject := rdfAttr(start, "about")
	if subject == "" {
		return &MalformedGraphError{Message: "rdf:Description without rdf:about"}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return &MalformedGraphError{Message: err.Error()}
		}
		switch t := token.(type) {
		case xml.StartElement:
			if err := parseProperty(decoder, t, subject, graph); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// reads one property element, producing either a resource statement or a
// literal statement
func parseProperty(decoder *xml.Decoder, start xml.StartElement, subject string, graph *GraphDocument) error {
	predicate := start.Name.Space + start.Name.Local

	if resource := rdfAttr(start, "resource"); resource != "" {
		graph.Statements = append(graph.Statements, Statement{
			Subject:   IRI(subject),
			Predicate: IRI(predicate),
			Object:    IRI(resource),
		})
		return decoder.Skip()
	}

	datatype := rdfAttr(start, "datatype")
	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return &MalformedGraphError{Message: err.Error()}
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			// nested nodes are not part of the striped form we handle
			decoder.Skip()
		case xml.EndElement:
			if t.Name == start.Name {
				object := Term{Value: text.String(), Literal: true, Datatype: datatype}
				graph.Statements = append(graph.Statements, Statement{
					Subject:   IRI(subject),
					Predicate: IRI(predicate),
					Object:    object,
				})
				return nil
			}
		}
	}
}

// fetches an attribute from the RDF namespace by local name
func rdfAttr(element xml.StartElement, local string) string {
	for _, attr := range element.Attr {
		if attr.Name.Space == NamespaceRDF && attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}
