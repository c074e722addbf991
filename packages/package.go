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

// The packages package resolves DataONE data packages from the search index:
// finding the resource map that aggregates a given object, fetching and
// partitioning the map's members, descending into nested packages, and saving
// revised resource maps back to a repository.
package packages

import (
	"net/url"

	"github.com/dataone/dps/index"
	"github.com/dataone/dps/ore"
	"github.com/dataone/dps/sysmeta"
)

// provenance resolution states a package moves through
const (
	ProvenanceUnstarted = ""
	ProvenancePending   = "pending"
	ProvenanceComplete  = "complete"
)

// Member is one object aggregated by a package: its index record, the nested
// package it stands for when the object is itself a resource map, and the
// sibling members it derives from or feeds into.
type Member struct {
	index.Record

	// set when this member is a resource map aggregated by the parent package
	Nested *Package

	// sibling members this member was derived from
	ProvSources []*Member
	// sibling members derived from this member
	ProvDerivations []*Member
}

// AddProvSource records a provenance source of this member, ignoring
// duplicates.
func (m *Member) AddProvSource(source *Member) {
	for _, existing := range m.ProvSources {
		if existing.Id == source.Id {
			return
		}
	}
	m.ProvSources = append(m.ProvSources, source)
}

// AddProvDerivation records a provenance derivation of this member, ignoring
// duplicates.
func (m *Member) AddProvDerivation(derivation *Member) {
	for _, existing := range m.ProvDerivations {
		if existing.Id == derivation.Id {
			return
		}
	}
	m.ProvDerivations = append(m.ProvDerivations, derivation)
}

// Package is one resolved data package.
type Package struct {
	// the resource map identifier (empty for virtual packages)
	Id string
	// true when the object this package was resolved for belongs to no
	// resource map and the package exists only to carry it
	Virtual bool
	// the identifier of the object the package was resolved for
	MemberId string

	// the resource map's own index record, populated during member fetch
	Record index.Record
	// identifiers of prior and subsequent revisions of the resource map
	Obsoletes   string
	ObsoletedBy string

	// the aggregated members in insertion order
	Members *MemberRegistry

	// identifier of the package aggregating this one, and this package's
	// distance from the top of the resolution (0 for the package resolution
	// started from); nested packages refer to their parent by identifier
	// only so that package trees stay acyclic
	ParentId string
	Depth    int

	// true once the member list is fully resolved; never reset
	Complete bool

	// provenance resolution state for this package's members
	ProvenanceFlag string

	// identifiers of objects outside this package that members derive from
	// or feed into
	Sources     []string
	Derivations []string
	// packages and naked documents those external objects resolved to
	SourcePackages     []*Package
	DerivationPackages []*Package
	SourceDocs         []index.Record
	DerivationDocs     []index.Record
	// the flat view of everything provenance touched: every member record
	// plus every external record fetched for the trace, de-duplicated
	RelatedRecords []index.Record

	// include members whose index records are archived
	IncludeArchived bool

	// the parsed resource map graph, when one has been fetched
	Graph *ore.GraphDocument
	// the resource map's system metadata, when fetched
	SysMeta *sysmeta.SystemMetadata
	// the identifier this package had before its last save
	OldPid string

	totalSize int64
}

// Creates an empty package for the given resource map identifier.
func New(id string) *Package {
	return &Package{
		Id:      id,
		Members: NewMemberRegistry(),
	}
}

// marks the member list fully resolved
func (p *Package) flagComplete() {
	p.Complete = true
}

// Metadata returns the first metadata member of the package, or nil when the
// package has none.
func (p *Package) Metadata() *Member {
	for _, member := range p.Members.Members() {
		if member.FormatType == index.FormatTypeMetadata {
			return member
		}
	}
	return nil
}

// TotalSize returns the summed byte size of the package's members. The sum is
// computed once and cached.
func (p *Package) TotalSize() int64 {
	if p.totalSize > 0 {
		return p.totalSize
	}
	var total int64
	for _, member := range p.Members.Members() {
		total += member.Size
	}
	p.totalSize = total
	return total
}

// DownloadURL returns the URL from which the whole package can be downloaded
// as an archive, given a repository's package service base URL.
func (p *Package) DownloadURL(packageBase string) string {
	if p.Id == "" {
		return ""
	}
	return packageBase + url.PathEscape(p.Id)
}

// memberRefs builds the membership list a serialization needs, pairing each
// member with its documenting metadata.
func (p *Package) memberRefs() []ore.MemberRef {
	refs := make([]ore.MemberRef, 0, p.Members.Len())
	for _, member := range p.Members.Members() {
		refs = append(refs, ore.MemberRef{
			Id:           member.Id,
			DocumentedBy: member.IsDocumentedBy,
			IsMetadata:   member.FormatType == index.FormatTypeMetadata,
		})
	}
	return refs
}
