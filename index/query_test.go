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

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerm(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(`id:"urn:uuid:abc"`, Term("id", "urn:uuid:abc"))
	assert.Equal(`id:"say \"hi\""`, Term("id", `say "hi"`))
}

func TestGroupedTerms(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", GroupedTerms("id", nil))
	assert.Equal(`id:"a"`, GroupedTerms("id", []string{"a"}))
	assert.Equal(`id:("a" OR "b")`, GroupedTerms("id", []string{"a", "b"}))
}

func TestBooleanCombinators(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(`(a:"1" OR b:"2")`, Or(Term("a", "1"), Term("b", "2")))
	assert.Equal(`(a:"1" AND b:"2")`, And(Term("a", "1"), Term("b", "2")))
	assert.Equal(`a:"1"`, Or(Term("a", "1"), "")) // empty clauses are dropped
	assert.Equal("-obsoletedBy:*", Not(Exists("obsoletedBy")))
	assert.Equal("", And())
}

func TestRecordSourcesAndDerivations(t *testing.T) {
	assert := assert.New(t)
	rec := Record{
		Id:                   "urn:uuid:obj",
		Used:                 []string{"in1", "in2"},
		WasDerivedFrom:       []string{"in2", "in3"},
		Generated:            []string{"out1"},
		HasDerivations:       []string{"out1", "out2"},
		GeneratedByExecution: []string{"exec1"}, // execution refs are left out
	}
	assert.ElementsMatch([]string{"in1", "in2", "in3"}, rec.Sources())
	assert.ElementsMatch([]string{"out1", "out2"}, rec.Derivations())
	assert.True(rec.HasProvTrace())
}

func TestRecordHasProvTraceForMetadata(t *testing.T) {
	assert := assert.New(t)
	rec := Record{Id: "meta", FormatType: FormatTypeMetadata}
	assert.False(rec.HasProvTrace())
	rec.HasSources = []string{"src"}
	assert.True(rec.HasProvTrace())
}

func TestRecordIsProgram(t *testing.T) {
	assert := assert.New(t)
	rec := Record{Id: "script.R"}
	assert.False(rec.IsProgram())
	rec.InstanceOfClass = []string{"http://purl.dataone.org/provone/2015/01/15/ontology#Program"}
	assert.True(rec.IsProgram())
}

func TestRecordIsResourceMap(t *testing.T) {
	assert := assert.New(t)
	assert.True(Record{FormatType: FormatTypeResource}.IsResourceMap())
	assert.True(Record{FormatId: ResourceMapFormatId}.IsResourceMap())
	assert.False(Record{FormatType: FormatTypeData}.IsResourceMap())
}
