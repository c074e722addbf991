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

// The manifest package renders resolved data packages as Frictionless data
// package manifests, one resource per member.
package manifest

import (
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"

	"github.com/dataone/dps/packages"
)

// descriptorForMember builds the Frictionless resource descriptor for one
// package member.
func descriptorForMember(member *packages.Member) map[string]any {
	name := member.FileName
	if name == "" {
		name = member.Id
	}
	descriptor := map[string]any{
		"name":  name,
		"path":  name,
		"id":    member.Id,
		"bytes": member.Size,
	}
	if member.FormatId != "" {
		descriptor["mediatype"] = member.FormatId
	}
	if member.Checksum != "" {
		descriptor["hash"] = member.Checksum
	}
	if member.Title != "" {
		descriptor["title"] = member.Title
	}
	return descriptor
}

// BuildDescriptor builds the Frictionless data package descriptor for a
// resolved package.
func BuildDescriptor(pkg *packages.Package) map[string]any {
	descriptors := make([]any, 0, pkg.Members.Len())
	for _, member := range pkg.Members.Members() {
		descriptors = append(descriptors, descriptorForMember(member))
	}

	descriptor := map[string]any{
		"name":      "manifest",
		"id":        pkg.Id,
		"resources": descriptors,
		"created":   time.Now().Format(time.RFC3339),
		"profile":   "data-package",
		"keywords":  []any{"dps", "manifest"},
	}
	if metadata := pkg.Metadata(); metadata != nil {
		if metadata.Title != "" {
			descriptor["title"] = metadata.Title
		}
		contributors := make([]any, 0, len(metadata.Origin))
		for _, origin := range metadata.Origin {
			contributors = append(contributors, map[string]any{
				"title": origin,
				"role":  "author",
			})
		}
		if len(contributors) > 0 {
			descriptor["contributors"] = contributors
		}
	}
	return descriptor
}

// New builds the Frictionless manifest for a resolved package.
func New(pkg *packages.Package) (*datapackage.Package, error) {
	return datapackage.New(BuildDescriptor(pkg), ".")
}
