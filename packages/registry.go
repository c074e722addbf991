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
	"slices"

	"github.com/dataone/dps/index"
)

// MemberRegistry holds a package's members keyed by identifier, preserving
// insertion order. Adding a member with an identifier already present is a
// no-op, so a member fetched twice appears once.
type MemberRegistry struct {
	ids  []string
	byId map[string]*Member
}

func NewMemberRegistry() *MemberRegistry {
	return &MemberRegistry{
		ids:  make([]string, 0),
		byId: make(map[string]*Member),
	}
}

// Add inserts a member unless one with the same identifier is already
// registered, and reports whether the member was inserted.
func (r *MemberRegistry) Add(member *Member) bool {
	if _, present := r.byId[member.Id]; present {
		return false
	}
	r.ids = append(r.ids, member.Id)
	r.byId[member.Id] = member
	return true
}

// Get returns the member with the given identifier, or nil.
func (r *MemberRegistry) Get(id string) *Member {
	return r.byId[id]
}

// Members returns the members in order.
func (r *MemberRegistry) Members() []*Member {
	members := make([]*Member, len(r.ids))
	for i, id := range r.ids {
		members[i] = r.byId[id]
	}
	return members
}

// Ids returns the member identifiers in order.
func (r *MemberRegistry) Ids() []string {
	return slices.Clone(r.ids)
}

// MetadataIds returns the identifiers of the metadata members in order.
func (r *MemberRegistry) MetadataIds() []string {
	ids := make([]string, 0)
	for _, id := range r.ids {
		if r.byId[id].FormatType == index.FormatTypeMetadata {
			ids = append(ids, id)
		}
	}
	return ids
}

// NestedPackages returns the packages aggregated by this package's resource
// map members.
func (r *MemberRegistry) NestedPackages() []*Package {
	nested := make([]*Package, 0)
	for _, id := range r.ids {
		if member := r.byId[id]; member.Nested != nil {
			nested = append(nested, member.Nested)
		}
	}
	return nested
}

// SortById orders the members lexicographically by identifier.
func (r *MemberRegistry) SortById() {
	slices.Sort(r.ids)
}

func (r *MemberRegistry) Len() int {
	return len(r.ids)
}
