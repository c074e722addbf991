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

func TestSerializeRoundTrip(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)

	members := []MemberRef{
		{Id: testMetadataPid, IsMetadata: true},
		{Id: testDataPid, DocumentedBy: []string{testMetadataPid}},
	}
	serialized, err := Serializer{}.Serialize(graph, RewritePlan{NewPid: testMapPid, Members: members})
	assert.Nil(err)

	reparsed, err := ParseResourceMap([]byte(serialized), testResolveBase)
	assert.Nil(err)
	assert.ElementsMatch(graph.AggregatedMemberIds(), reparsed.AggregatedMemberIds())
	assert.Equal(len(graph.Statements), len(reparsed.Statements))
}

func TestSerializeMembershipDeltas(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)

	// drop the data member, add a fresh one
	members := []MemberRef{
		{Id: testMetadataPid, IsMetadata: true},
		{Id: "urn:uuid:6000", DocumentedBy: []string{testMetadataPid}},
	}
	serialized, err := Serializer{}.Serialize(graph, RewritePlan{NewPid: testMapPid, Members: members})
	assert.Nil(err)

	reparsed, err := ParseResourceMap([]byte(serialized), testResolveBase)
	assert.Nil(err)
	assert.ElementsMatch([]string{testMetadataPid, "urn:uuid:6000"}, reparsed.AggregatedMemberIds())
	assert.NotContains(serialized, percentEncode(testDataPid))

	// the original graph stays intact
	assert.ElementsMatch([]string{testMetadataPid, testDataPid}, graph.AggregatedMemberIds())
}

func TestSerializeRewritesIdentifier(t *testing.T) {
	assert := assert.New(t)
	graph, err := ParseResourceMap([]byte(testResourceMap), testResolveBase)
	assert.Nil(err)

	newPid := "resource_map_urn:uuid:9999"
	plan := RewritePlan{
		OldPid: testMapPid,
		NewPid: newPid,
		Members: []MemberRef{
			{Id: testMetadataPid, IsMetadata: true},
			{Id: testDataPid, DocumentedBy: []string{testMetadataPid}},
		},
	}
	serialized, err := Serializer{}.Serialize(graph, plan)
	assert.Nil(err)

	assert.NotContains(serialized, percentEncode(testMapPid))
	assert.NotContains(serialized, ">"+testMapPid+"<")
	assert.Contains(serialized, percentEncode(newPid))
	assert.Contains(serialized, ">"+newPid+"<")

	reparsed, err := ParseResourceMap([]byte(serialized), testResolveBase)
	assert.Nil(err)
	assert.Len(reparsed.Matching("", NamespaceDCTERMS+"identifier", newPid), 1)
}

func TestSerializeMalformedGraphFallsBack(t *testing.T) {
	assert := assert.New(t)

	// a graph with no identifier statement cannot be rewritten
	graph := NewGraphDocument(testResolveBase)
	graph.Statements = append(graph.Statements, Statement{
		Subject:   IRI(graph.aggregationIRI(testMapPid)),
		Predicate: IRI(predicateAggregates),
		Object:    IRI(graph.nodeIRI(testDataPid)),
	})

	plan := RewritePlan{OldPid: testMapPid, NewPid: "resource_map_urn:uuid:9999"}
	serialized, err := Serializer{}.Serialize(graph, plan)
	assert.Nil(err)

	// the original document is rendered unmodified
	assert.Contains(serialized, percentEncode(testMapPid))
	assert.NotContains(serialized, "9999")
}

func TestFixDuplicateIds(t *testing.T) {
	assert := assert.New(t)
	document := `<root>` +
		`<attribute id="shared">a</attribute>` +
		`<attribute id="shared">b</attribute>` +
		`<unit id="shared">c</unit>` +
		`<unit id="shared">d</unit>` +
		`</root>`

	fixed := fixDuplicateIds(document)
	assert.Equal(1, strings.Count(fixed, `<attribute id="shared">`))
	assert.Contains(fixed, `<attribute id="urn-uuid-`)
	assert.Equal(2, strings.Count(fixed, `<unit id="shared">`))
}
