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

// The ore package models OAI-ORE resource map graphs: parsing RDF/XML into a
// statement list, membership edits, identifier rewriting for package
// revisions, and serialization back to RDF/XML or JSON-LD.
package ore

import (
	"net/url"
	"slices"
	"strings"
)

// RDF namespaces used in DataONE resource maps
const (
	NamespaceRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceFOAF    = "http://xmlns.com/foaf/0.1/"
	NamespaceOWL     = "http://www.w3.org/2002/07/owl#"
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceORE     = "http://www.openarchives.org/ore/terms/"
	NamespaceDCTERMS = "http://purl.org/dc/terms/"
	NamespaceCITO    = "http://purl.org/spar/cito/"
	NamespaceXMLS    = "http://www.w3.org/2001/XMLSchema#"
)

// predicates the graph operations care about
const (
	predicateAggregates     = NamespaceORE + "aggregates"
	predicateIsAggregatedBy = NamespaceORE + "isAggregatedBy"
	predicateIsDescribedBy  = NamespaceORE + "isDescribedBy"
	predicateIdentifier     = NamespaceDCTERMS + "identifier"
	predicateIsDocumentedBy = NamespaceCITO + "isDocumentedBy"
	predicateDocuments      = NamespaceCITO + "documents"
	datatypeString          = NamespaceXMLS + "string"
)

// one node of an RDF statement: an IRI or a literal
type Term struct {
	Value    string
	Literal  bool
	Datatype string
}

// IRI constructs an IRI term.
func IRI(value string) Term {
	return Term{Value: value}
}

// Literal constructs a typed string literal term.
func Literal(value string) Term {
	return Term{Value: value, Literal: true, Datatype: datatypeString}
}

// a subject/predicate/object triple
type Statement struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// a reference to one package member, carried by membership edits
type MemberRef struct {
	// the member's persistent identifier
	Id string
	// identifiers of the metadata objects documenting this member
	DocumentedBy []string
	// true if the member is itself a metadata object
	IsMetadata bool
}

// GraphDocument holds the statement set of one OAI-ORE resource map.
type GraphDocument struct {
	// base URL of the resolve service used to qualify identifiers as IRIs
	ResolveBase string
	// the raw statements, in document order
	Statements []Statement
}

// Creates an empty graph document whose member IRIs are qualified against the
// given resolve service base URL.
func NewGraphDocument(resolveBase string) *GraphDocument {
	return &GraphDocument{
		ResolveBase: resolveBase,
		Statements:  make([]Statement, 0),
	}
}

// Returns a deep copy of the graph document.
func (g *GraphDocument) Clone() *GraphDocument {
	return &GraphDocument{
		ResolveBase: g.ResolveBase,
		Statements:  slices.Clone(g.Statements),
	}
}

// percent-encodes an identifier the way historical serializations do
// (every reserved character escaped, spaces as %20)
func percentEncode(pid string) string {
	return strings.ReplaceAll(url.QueryEscape(pid), "+", "%20")
}

// the textual encodings under which an identifier may appear in a graph:
// raw, percent-encoded, and resolver-qualified in either form
func pidVariants(base, pid string) []string {
	return []string{
		pid,
		percentEncode(pid),
		base + percentEncode(pid),
		base + pid,
	}
}

// the IRI of a member or resource map node
func (g *GraphDocument) nodeIRI(pid string) string {
	return g.ResolveBase + percentEncode(pid)
}

// the IRI of the aggregation node derived from a resource map identifier
func (g *GraphDocument) aggregationIRI(pid string) string {
	return g.nodeIRI(pid) + "#aggregation"
}

// returns all statements matching the given subject/predicate/object values,
// where an empty string acts as a wildcard
func (g *GraphDocument) Matching(subject, predicate, object string) []Statement {
	matches := make([]Statement, 0)
	for _, st := range g.Statements {
		if subject != "" && st.Subject.Value != subject {
			continue
		}
		if predicate != "" && st.Predicate.Value != predicate {
			continue
		}
		if object != "" && st.Object.Value != object {
			continue
		}
		matches = append(matches, st)
	}
	return matches
}

// removes every statement for which the predicate function returns true
func (g *GraphDocument) removeIf(remove func(Statement) bool) {
	kept := make([]Statement, 0, len(g.Statements))
	for _, st := range g.Statements {
		if !remove(st) {
			kept = append(kept, st)
		}
	}
	g.Statements = kept
}

// extracts the identifier from a member IRI (the last path segment, decoded)
func pidFromIRI(iri string) string {
	segment := iri
	if slash := strings.LastIndex(iri, "/"); slash != -1 {
		segment = iri[slash+1:]
	}
	if decoded, err := url.QueryUnescape(segment); err == nil {
		return decoded
	}
	return segment
}

// Adds the statements declaring that the object with the given id is
// aggregated by this map's aggregation node. If any of the object's
// documenting metadata (documentedBy) are themselves members of the package
// (metadataIds), isDocumentedBy/documents statement pairs are inserted too.
// mapPid identifies the resource map whose aggregation receives the member.
func (g *GraphDocument) AddAggregatedMember(mapPid, id string, documentedBy, metadataIds []string) {
	objectNode := IRI(g.nodeIRI(id))
	aggNode := IRI(g.aggregationIRI(mapPid))

	// the object is aggregated by the aggregation, and vice versa
	g.Statements = append(g.Statements,
		Statement{Subject: objectNode, Predicate: IRI(predicateIsAggregatedBy), Object: aggNode},
		Statement{Subject: aggNode, Predicate: IRI(predicateAggregates), Object: objectNode},
		Statement{Subject: objectNode, Predicate: IRI(predicateIdentifier), Object: Literal(id)},
	)

	// link the object to each documenting metadata object in the package
	for _, metaId := range documentedBy {
		if !slices.Contains(metadataIds, metaId) {
			continue
		}
		metadataNode := IRI(g.nodeIRI(metaId))
		g.Statements = append(g.Statements,
			Statement{Subject: objectNode, Predicate: IRI(predicateIsDocumentedBy), Object: metadataNode},
			Statement{Subject: metadataNode, Predicate: IRI(predicateDocuments), Object: objectNode},
		)
	}
}

// Removes every statement in which the object with the given id appears as
// subject or object, under any of its textual encodings.
func (g *GraphDocument) RemoveAggregatedMember(id string) {
	variants := pidVariants(g.ResolveBase, id)
	g.removeIf(func(st Statement) bool {
		return slices.Contains(variants, st.Subject.Value) ||
			slices.Contains(variants, st.Object.Value)
	})
}

// Returns the decoded identifiers of all objects the graph's aggregation
// aggregates, in document order and deduplicated.
func (g *GraphDocument) AggregatedMemberIds() []string {
	ids := make([]string, 0)
	for _, st := range g.Matching("", predicateAggregates, "") {
		pid := pidFromIRI(st.Object.Value)
		if pid != "" && !slices.Contains(ids, pid) {
			ids = append(ids, pid)
		}
	}
	return ids
}

// Returns a mapping from each documented object's identifier to the
// identifiers of the metadata objects documenting it.
func (g *GraphDocument) DocumentedBy() map[string][]string {
	docBy := make(map[string][]string)
	for _, st := range g.Matching("", predicateIsDocumentedBy, "") {
		dataPid := pidFromIRI(st.Subject.Value)
		metaPid := pidFromIRI(st.Object.Value)
		if !slices.Contains(docBy[dataPid], metaPid) {
			docBy[dataPid] = append(docBy[dataPid], metaPid)
		}
	}
	return docBy
}

// RewriteIdentifier produces a new graph in which every reference to oldPid
// (raw, percent-encoded, or resolver-qualified, including the derived
// #aggregation node) refers to newPid instead. Members absent from the given
// list have their aggregation statements removed; members present in the list
// but not yet in the graph are added. The receiver is not modified.
func (g *GraphDocument) RewriteIdentifier(oldPid, newPid string, members []MemberRef) (*GraphDocument, error) {
	// locate the identifier literal so we can discover the resolve base the
	// historical serialization actually used (it is not always ours)
	var idStatement *Statement
	for i, st := range g.Statements {
		if st.Predicate.Value == predicateIdentifier && st.Object.Literal &&
			st.Object.Value == oldPid {
			idStatement = &g.Statements[i]
			break
		}
	}
	if idStatement == nil {
		return nil, &MalformedGraphError{
			Message: "no identifier statement found for " + oldPid,
		}
	}
	base := g.ResolveBase
	subject := idStatement.Subject.Value
	if cut := strings.Index(subject, percentEncode(oldPid)); cut > 0 {
		base = subject[:cut]
	} else if cut := strings.Index(subject, oldPid); cut > 0 {
		base = subject[:cut]
	}

	oldVariants := pidVariants(base, oldPid)
	oldAggVariants := make([]string, len(oldVariants))
	for i, v := range oldVariants {
		oldAggVariants[i] = v + "#aggregation"
	}
	newNode := base + percentEncode(newPid)
	newAgg := newNode + "#aggregation"

	memberIds := make([]string, len(members))
	metadataIds := make([]string, 0)
	for i, ref := range members {
		memberIds[i] = ref.Id
		if ref.IsMetadata {
			metadataIds = append(metadataIds, ref.Id)
		}
	}

	// identifiers currently aggregated by the old aggregation node
	graphIds := make([]string, 0)
	for _, st := range g.Matching("", predicateIsAggregatedBy, "") {
		if slices.Contains(oldAggVariants, st.Object.Value) {
			pid := pidFromIRI(st.Subject.Value)
			if !slices.Contains(graphIds, pid) {
				graphIds = append(graphIds, pid)
			}
		}
	}

	// nodes of members that have been removed from the package
	removedNodes := make([]string, 0)
	for _, pid := range graphIds {
		if !slices.Contains(memberIds, pid) {
			removedNodes = append(removedNodes, pidVariants(base, pid)...)
		}
	}

	// build the rewritten statement list via transformation rather than
	// mutating terms in place
	rewritten := NewGraphDocument(base)
	identifierEmitted := false
	for _, st := range g.Statements {
		if slices.Contains(removedNodes, st.Subject.Value) ||
			slices.Contains(removedNodes, st.Object.Value) {
			continue
		}

		subject, predicate, object := st.Subject, st.Predicate, st.Object
		if slices.Contains(oldAggVariants, subject.Value) {
			subject = IRI(newAgg)
		} else if slices.Contains(oldVariants, subject.Value) {
			subject = IRI(newNode)
		}
		if !object.Literal {
			if slices.Contains(oldAggVariants, object.Value) {
				object = IRI(newAgg)
			} else if slices.Contains(oldVariants, object.Value) {
				// covers both resource-map references and the raw-PID object of
				// the isDescribedBy statement
				if predicate.Value == predicateIsDescribedBy && object.Value == oldPid {
					object = IRI(newPid)
				} else {
					object = IRI(newNode)
				}
			}
		} else if predicate.Value == predicateIdentifier && object.Value == oldPid {
			if identifierEmitted {
				continue // keep exactly one identifier literal
			}
			object = Literal(newPid)
			identifierEmitted = true
		}
		rewritten.Statements = append(rewritten.Statements,
			Statement{Subject: subject, Predicate: predicate, Object: object})
	}

	// add members that are not yet in the graph
	for _, ref := range members {
		if !slices.Contains(graphIds, ref.Id) {
			rewritten.AddAggregatedMember(newPid, ref.Id, ref.DocumentedBy, metadataIds)
		}
	}

	return rewritten, nil
}
