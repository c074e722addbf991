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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testResolveBase = "https://cn.dataone.org/cn/v2/resolve/"

const testMapPid = "resource_map_urn:uuid:1000"
const testMetadataPid = "urn:uuid:2000"
const testDataPid = "urn:uuid:3000"

// an RDF/XML resource map in the striped form: a map node, its aggregation,
// a metadata member and a data member documented by the metadata
const testResourceMap = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF
    xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
    xmlns:ore="http://www.openarchives.org/ore/terms/"
    xmlns:dcterms="http://purl.org/dc/terms/"
    xmlns:cito="http://purl.org/spar/cito/">
  <rdf:Description rdf:about="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A1000">
    <dcterms:identifier rdf:datatype="http://www.w3.org/2001/XMLSchema#string">resource_map_urn:uuid:1000</dcterms:identifier>
    <ore:describes rdf:resource="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A1000#aggregation"/>
  </rdf:Description>
  <rdf:Description rdf:about="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A1000#aggregation">
    <ore:aggregates rdf:resource="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A2000"/>
    <ore:aggregates rdf:resource="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A3000"/>
    <ore:isDescribedBy rdf:resource="resource_map_urn:uuid:1000"/>
  </rdf:Description>
  <rdf:Description rdf:about="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A2000">
    <ore:isAggregatedBy rdf:resource="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A1000#aggregation"/>
    <dcterms:identifier rdf:datatype="http://www.w3.org/2001/XMLSchema#string">urn:uuid:2000</dcterms:identifier>
    <cito:documents rdf:resource="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A3000"/>
  </rdf:Description>
  <rdf:Description rdf:about="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A3000">
    <ore:isAggregatedBy rdf:resource="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A1000#aggregation"/>
    <dcterms:identifier rdf:datatype="http://www.w3.org/2001/XMLSchema#string">urn:uuid:3000</dcterms:identifier>
    <cito:isDocumentedBy rdf:resource="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A2000"/>
  </rdf:Description>
</rdf:RDF>`

func TestParseResourceMap(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)
	assert.Equal([]string{testMetadataPid, testDataPid}, graph.AggregatedMemberIds())
	assert.Equal(map[string][]string{testDataPid: {testMetadataPid}}, graph.DocumentedBy())

	identifiers := graph.Matching("", NamespaceDCTERMS+"identifier", testMapPid)
	assert.Len(identifiers, 1)
	assert.True(identifiers[0].Object.Literal)
}

func TestParseRejectsNonRDFDocument(t *testing.T) {
	assert := assert.New(t)
	_, err := ParseResourceMap([]byte(`<html><body>not a map</body></html>`), testResolveBase)
	assert.NotNil(err)
	var malformed *MalformedGraphError
	assert.ErrorAs(err, &malformed)

	_, err = ParseResourceMap([]byte(`not xml at all`), testResolveBase)
	assert.NotNil(err)
}

func TestAddAndRemoveAggregatedMember(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)

	newData := "urn:uuid:4000"
	graph.AddAggregatedMember(testMapPid, newData, []string{testMetadataPid}, []string{testMetadataPid})
	assert.Equal([]string{testMetadataPid, testDataPid, newData}, graph.AggregatedMemberIds())
	docBy := graph.DocumentedBy()
	assert.Equal([]string{testMetadataPid}, docBy[newData])

	graph.RemoveAggregatedMember(testDataPid)
	assert.Equal([]string{testMetadataPid, newData}, graph.AggregatedMemberIds())
	for _, st := range graph.Statements {
		assert.NotContains(st.Subject.Value, percentEncode(testDataPid))
		assert.NotContains(st.Object.Value, percentEncode(testDataPid))
	}
}

func TestRewriteIdentifier(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)

	newPid := "resource_map_urn:uuid:9999"
	members := []MemberRef{
		{Id: testMetadataPid, IsMetadata: true},
		{Id: testDataPid, DocumentedBy: []string{testMetadataPid}},
		{Id: "urn:uuid:5000", DocumentedBy: []string{testMetadataPid}},
	}
	rewritten, err := graph.RewriteIdentifier(testMapPid, newPid, members)
	assert.Nil(err)

	// no reference to the old identifier survives, under any encoding
	for _, st := range rewritten.Statements {
		for _, value := range []string{st.Subject.Value, st.Object.Value} {
			assert.NotContains(value, testMapPid)
			assert.NotContains(value, percentEncode(testMapPid))
		}
	}

	// exactly one identifier literal names the new identifier
	identifiers := rewritten.Matching("", NamespaceDCTERMS+"identifier", newPid)
	assert.Len(identifiers, 1)
	assert.True(identifiers[0].Object.Literal)

	// the aggregation node was rewritten as well
	newAgg := testResolveBase + percentEncode(newPid) + "#aggregation"
	assert.NotEmpty(rewritten.Matching(newAgg, predicateAggregates, ""))

	// the new member was added, the existing ones kept
	assert.ElementsMatch([]string{testMetadataPid, testDataPid, "urn:uuid:5000"},
		rewritten.AggregatedMemberIds())

	// the receiver was left untouched
	assert.Equal(testMapPid, graph.Matching("", NamespaceDCTERMS+"identifier", testMapPid)[0].Object.Value)
}

func TestRewriteIdentifierDropsAbsentMembers(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)

	rewritten, err := graph.RewriteIdentifier(testMapPid, "resource_map_urn:uuid:9999",
		[]MemberRef{{Id: testMetadataPid, IsMetadata: true}})
	assert.Nil(err)
	assert.Equal([]string{testMetadataPid}, rewritten.AggregatedMemberIds())
	for _, st := range rewritten.Statements {
		assert.NotContains(st.Subject.Value, percentEncode(testDataPid))
		assert.NotContains(st.Object.Value, percentEncode(testDataPid))
	}
}

func TestRewriteIdentifierWithoutIdentifierStatement(t *testing.T) {
	assert := assert.New(t)
	graph := NewGraphDocument(testResolveBase)
	graph.Statements = append(graph.Statements, Statement{
		Subject:   IRI(graph.aggregationIRI(testMapPid)),
		Predicate: IRI(predicateAggregates),
		Object:    IRI(graph.nodeIRI(testDataPid)),
	})
	_, err := graph.RewriteIdentifier(testMapPid, "resource_map_urn:uuid:9999", nil)
	var malformed *MalformedGraphError
	assert.ErrorAs(err, &malformed)
}

func TestJSONLDExport(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)

	document, err := graph.JSONLD()
	assert.Nil(err)
	assert.NotNil(document["@context"])

	// the compacted form should mention the aggregation under the ore prefix
	flattened := strings.Builder{}
	flattenJSON(document, &flattened)
	assert.Contains(flattened.String(), "ore:aggregates")
}

// collects every key and string value of a decoded JSON document
func flattenJSON(value any, out *strings.Builder) {
	switch v := value.(type) {
	case map[string]any:
		for key, inner := range v {
			out.WriteString(key)
			out.WriteString(" ")
			flattenJSON(inner, out)
		}
	case []any:
		for _, inner := range v {
			flattenJSON(inner, out)
		}
	case string:
		out.WriteString(v)
		out.WriteString(" ")
	}
}
