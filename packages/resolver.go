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

package packages

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dataone/dps/index"
)

// the maximum number of members fetched for one resource map
const memberQueryRows = 1000

// nested packages below this depth are flagged complete without fetching
// their members
const maxNestingDepth = 2

// the index fields a member record carries
var memberFields = append([]string{
	"id", "formatType", "formatId", "fileName", "size", "checksum",
	"datasource", "title", "origin", "dateUploaded", "rightsHolder",
	"obsoletes", "obsoletedBy", "archived", "isPublic", "resourceMap",
	"isDocumentedBy", "documents", "read_count_i",
}, index.ProvFields()...)

// Resolver resolves packages against a search index.
type Resolver struct {
	Index index.QueryService

	mu       sync.Mutex
	inFlight map[*Package]*memberFetch
}

// one in-flight member fetch; err is written before done is closed, so
// waiters observing the close see the fetch's outcome
type memberFetch struct {
	done chan struct{}
	err  error
}

func NewResolver(service index.QueryService) *Resolver {
	return &Resolver{
		Index:    service,
		inFlight: make(map[*Package]*memberFetch),
	}
}

// ResolveRootForMember finds the resource map identifier to resolve for an
// object: the object's own identifier when the object is itself a resource
// map, the first map aggregating it otherwise. When the object belongs to no
// resource map, virtual is true and the identifier is empty.
func (r *Resolver) ResolveRootForMember(ctx context.Context, memberId string) (mapId string, virtual bool, err error) {
	results, err := r.Index.Query(ctx, index.Request{
		Fields: []string{"id", "formatId", "formatType", "resourceMap"},
		Filter: index.Term("id", memberId),
		Rows:   1,
	})
	if err != nil {
		return "", false, err
	}
	if len(results.Docs) == 0 {
		return "", false, &NotFoundError{Id: memberId}
	}
	record := results.Docs[0]
	if record.IsResourceMap() {
		return record.Id, false, nil
	}
	if len(record.ResourceMap) == 0 {
		return "", true, nil
	}
	return record.ResourceMap[0], false, nil
}

// FetchMembers queries the index for the package's resource map record and
// everything the map aggregates, partitioning the results into the package
// record, plain members, and nested packages. A concurrent fetch of the same
// package is not repeated: late callers wait for the first fetch and share
// its outcome.
func (r *Resolver) FetchMembers(ctx context.Context, pkg *Package) error {
	r.mu.Lock()
	if fetch, fetching := r.inFlight[pkg]; fetching {
		r.mu.Unlock()
		select {
		case <-fetch.done:
			return fetch.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	fetch := &memberFetch{done: make(chan struct{})}
	r.inFlight[pkg] = fetch
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.inFlight, pkg)
		r.mu.Unlock()
		close(fetch.done)
	}()

	fetch.err = r.fetchMembers(ctx, pkg)
	return fetch.err
}

// issues the member query for one package and partitions the results
func (r *Resolver) fetchMembers(ctx context.Context, pkg *Package) error {
	filter := index.Or(
		index.Term("resourceMap", pkg.Id),
		index.Term("id", pkg.Id),
	)
	if !pkg.IncludeArchived {
		filter = index.And(filter, index.Not(index.Term("archived", "true")))
	}
	results, err := r.Index.Query(ctx, index.Request{
		Fields: memberFields,
		Filter: filter,
		Rows:   memberQueryRows,
	})
	if err != nil {
		return err
	}
	slog.Debug("fetched package members", "package", pkg.Id, "num_found", results.NumFound)

	for _, record := range results.Docs {
		if record.Id == pkg.Id {
			pkg.Record = record
			pkg.Obsoletes = record.Obsoletes
			pkg.ObsoletedBy = record.ObsoletedBy
			continue
		}
		member := &Member{Record: record}
		if record.IsResourceMap() {
			nested := New(record.Id)
			nested.ParentId = pkg.Id
			nested.Depth = pkg.Depth + 1
			nested.IncludeArchived = pkg.IncludeArchived
			member.Nested = nested
		}
		pkg.Members.Add(member)
	}
	return nil
}

// ResolveNested fetches the members of each nested package concurrently,
// then sorts the member list and marks the package complete. Nesting is
// resolved one level deep: packages nested further down are marked complete
// without a fetch.
func (r *Resolver) ResolveNested(ctx context.Context, pkg *Package) error {
	nested := pkg.Members.NestedPackages()

	var group sync.WaitGroup
	errs := make([]error, len(nested))
	for i, inner := range nested {
		if inner.Depth >= maxNestingDepth {
			inner.flagComplete()
			continue
		}
		group.Add(1)
		go func(i int, inner *Package) {
			defer group.Done()
			if err := r.FetchMembers(ctx, inner); err != nil {
				errs[i] = err
				return
			}
			// nested packages do not recurse further
			for _, deeper := range inner.Members.NestedPackages() {
				deeper.flagComplete()
			}
			inner.Members.SortById()
			inner.flagComplete()
		}(i, inner)
	}
	group.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	pkg.Members.SortById()
	pkg.flagComplete()
	return nil
}

// Resolve resolves the package containing the given object end to end. When
// the object belongs to no resource map, a virtual package holding just that
// object is returned.
func (r *Resolver) Resolve(ctx context.Context, memberId string, includeArchived bool) (*Package, error) {
	mapId, virtual, err := r.ResolveRootForMember(ctx, memberId)
	if err != nil {
		return nil, err
	}

	if virtual {
		return r.resolveVirtual(ctx, memberId, includeArchived)
	}

	pkg := New(mapId)
	pkg.MemberId = memberId
	pkg.IncludeArchived = includeArchived
	if err := r.FetchMembers(ctx, pkg); err != nil {
		return nil, err
	}
	if err := r.ResolveNested(ctx, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// builds the package standing in for an object aggregated by no resource map
func (r *Resolver) resolveVirtual(ctx context.Context, memberId string, includeArchived bool) (*Package, error) {
	pkg := New("")
	pkg.Virtual = true
	pkg.MemberId = memberId
	pkg.IncludeArchived = includeArchived

	results, err := r.Index.Query(ctx, index.Request{
		Fields: memberFields,
		Filter: index.Term("id", memberId),
		Rows:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(results.Docs) == 0 {
		return nil, &NotFoundError{Id: memberId}
	}
	pkg.Members.Add(&Member{Record: results.Docs[0]})
	pkg.flagComplete()
	return pkg, nil
}

// ParentMetadata finds the metadata records of the packages aggregating this
// one, skipping parents whose resource maps have been obsoleted.
func (r *Resolver) ParentMetadata(ctx context.Context, pkg *Package) ([]index.Record, error) {
	parentMapIds := pkg.Record.ResourceMap
	if len(parentMapIds) == 0 {
		return nil, nil
	}

	filter := index.Or(
		index.And(
			index.Term("formatType", index.FormatTypeMetadata),
			index.GroupedTerms("resourceMap", parentMapIds),
		),
		index.GroupedTerms("id", parentMapIds),
	)
	results, err := r.Index.Query(ctx, index.Request{
		Fields:     memberFields,
		Filter:     filter,
		Rows:       memberQueryRows,
		GroupField: "formatType",
		GroupLimit: memberQueryRows,
	})
	if err != nil {
		return nil, err
	}

	// maps that have been replaced by a newer revision do not count as
	// parents, and neither does metadata reached only through them
	obsoletedMaps := make(map[string]bool)
	for _, record := range results.Groups[index.FormatTypeResource] {
		if record.ObsoletedBy != "" {
			obsoletedMaps[record.Id] = true
		}
	}

	parents := make([]index.Record, 0)
	for _, record := range results.Groups[index.FormatTypeMetadata] {
		current := false
		for _, mapId := range record.ResourceMap {
			if obsoletedMaps[mapId] {
				continue
			}
			for _, parentId := range parentMapIds {
				if mapId == parentId {
					current = true
				}
			}
		}
		if current {
			parents = append(parents, record)
		}
	}
	return parents, nil
}
