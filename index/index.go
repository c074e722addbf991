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

// The index package defines the search-index boundary of DPS: the QueryService
// interface consumed by package resolution and provenance assembly, the Record
// type representing one indexed object, and a Solr-backed client.
package index

import (
	"context"
)

// values of a Record's FormatType field
const (
	FormatTypeData     = "DATA"
	FormatTypeMetadata = "METADATA"
	FormatTypeResource = "RESOURCE"
)

// the format ID identifying an OAI-ORE resource map
const ResourceMapFormatId = "http://www.openarchives.org/ore/terms"

// parameters for a single index query
type Request struct {
	// names of the index fields to return for each matching document
	Fields []string
	// a boolean filter expression (see query.go for constructors)
	Filter string
	// maximum number of documents to return (0 indicates the index default)
	Rows int
	// optional sort clause (e.g. "id asc")
	Sort string
	// if set, results are grouped by this facet field
	GroupField string
	// maximum number of documents per group (-1 indicates no limit)
	GroupLimit int
}

// results of an index query: either a flat document list or, for grouped
// queries, document lists keyed by group value
type Results struct {
	// total number of matching documents reported by the index
	NumFound int
	// matching documents (flat queries)
	Docs []Record
	// matching documents keyed by group value (grouped queries)
	Groups map[string][]Record
}

// QueryService is the narrow interface to the search index that the resolver
// and the provenance assembler consume. Implementations must treat a response
// without documents as an empty result, not an error.
type QueryService interface {
	Query(ctx context.Context, req Request) (Results, error)
}
