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
	"github.com/piprate/json-gold/ld"
)

// the context against which exported graphs are compacted
var jsonLDContext = map[string]any{
	"rdf":     NamespaceRDF,
	"foaf":    NamespaceFOAF,
	"owl":     NamespaceOWL,
	"dc":      NamespaceDC,
	"ore":     NamespaceORE,
	"dcterms": NamespaceDCTERMS,
	"cito":    NamespaceCITO,
	"xsd":     NamespaceXMLS,
}

// JSONLD exports the graph as a compacted JSON-LD document using the common
// resource map namespace prefixes.
func (g *GraphDocument) JSONLD() (map[string]any, error) {
	// assemble the expanded form node by node, grouping statements by subject
	subjects := make([]string, 0)
	bySubject := make(map[string]map[string]any)
	for _, st := range g.Statements {
		node, seen := bySubject[st.Subject.Value]
		if !seen {
			node = map[string]any{"@id": st.Subject.Value}
			bySubject[st.Subject.Value] = node
			subjects = append(subjects, st.Subject.Value)
		}

		var object map[string]any
		if st.Object.Literal {
			object = map[string]any{"@value": st.Object.Value}
			if st.Object.Datatype != "" {
				object["@type"] = st.Object.Datatype
			}
		} else {
			object = map[string]any{"@id": st.Object.Value}
		}

		values, _ := node[st.Predicate.Value].([]any)
		node[st.Predicate.Value] = append(values, object)
	}

	expanded := make([]any, len(subjects))
	for i, subject := range subjects {
		expanded[i] = bySubject[subject]
	}

	processor := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	compacted, err := processor.Compact(expanded, jsonLDContext, options)
	if err != nil {
		return nil, &MalformedGraphError{Message: err.Error()}
	}
	return compacted, nil
}
