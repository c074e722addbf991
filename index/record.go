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
	"slices"
	"strings"
)

// This type represents a single indexed object (data, metadata, or resource
// map) as returned by the query service. Field names follow the repository's
// search schema.
type Record struct {
	// persistent identifier of the object
	Id string `json:"id"`
	// general category of the object (DATA, METADATA, or RESOURCE)
	FormatType string `json:"formatType,omitempty"`
	// specific format of the object (MIME type or schema URI)
	FormatId string `json:"formatId,omitempty"`
	// name of the object's file
	FileName string `json:"fileName,omitempty"`
	// object size in bytes
	Size int64 `json:"size,omitempty"`
	// MD5 checksum of the object
	Checksum string `json:"checksum,omitempty"`
	// identifier of the repository holding the object
	DataSource string `json:"datasource,omitempty"`
	// title of the object (metadata objects)
	Title string `json:"title,omitempty"`
	// creators of the object
	Origin []string `json:"origin,omitempty"`
	// date the object was uploaded (ISO 8601)
	DateUploaded string `json:"dateUploaded,omitempty"`
	// subject holding change permission on the object
	RightsHolder string `json:"rightsHolder,omitempty"`
	// identifier of the previous version of this object, if any
	Obsoletes string `json:"obsoletes,omitempty"`
	// identifier of the newer version of this object, if any
	ObsoletedBy string `json:"obsoletedBy,omitempty"`
	// true if the object has been archived
	Archived bool `json:"archived,omitempty"`
	// true if the object is publicly readable
	IsPublic bool `json:"isPublic,omitempty"`
	// identifiers of the resource maps aggregating this object (possibly more
	// than one across package revisions)
	ResourceMap []string `json:"resourceMap,omitempty"`
	// identifiers of the metadata objects describing this object
	IsDocumentedBy []string `json:"isDocumentedBy,omitempty"`
	// identifiers of the objects this (metadata) object describes
	Documents []string `json:"documents,omitempty"`
	// number of times this object has been read
	ReadCount int `json:"read_count_i,omitempty"`

	// provenance trace fields, indexed from ProvONE annotations
	InstanceOfClass      []string `json:"prov_instanceOfClass,omitempty"`
	Generated            []string `json:"prov_generated,omitempty"`
	GeneratedByExecution []string `json:"prov_generatedByExecution,omitempty"`
	GeneratedByProgram   []string `json:"prov_generatedByProgram,omitempty"`
	HasDerivations       []string `json:"prov_hasDerivations,omitempty"`
	HasSources           []string `json:"prov_hasSources,omitempty"`
	Used                 []string `json:"prov_used,omitempty"`
	UsedByExecution      []string `json:"prov_usedByExecution,omitempty"`
	UsedByProgram        []string `json:"prov_usedByProgram,omitempty"`
	WasDerivedFrom       []string `json:"prov_wasDerivedFrom,omitempty"`
	WasInformedBy        []string `json:"prov_wasInformedBy,omitempty"`
}

// the provenance field names recognized by the search schema, in the order
// they appear in field lists
var provFieldNames = []string{
	"prov_instanceOfClass",
	"prov_generated",
	"prov_generatedByExecution",
	"prov_generatedByProgram",
	"prov_hasDerivations",
	"prov_hasSources",
	"prov_used",
	"prov_usedByExecution",
	"prov_usedByProgram",
	"prov_wasDerivedFrom",
	"prov_wasInformedBy",
}

// Returns the names of all provenance-related index fields, useful for
// constructing field lists for queries.
func ProvFields() []string {
	return slices.Clone(provFieldNames)
}

// Returns true if the given provenance field points to a source of the object
// that carries it.
func IsSourceField(field string) bool {
	switch field {
	case "prov_generatedByExecution",
		"prov_generatedByProgram",
		"prov_used",
		"prov_wasDerivedFrom",
		"prov_wasInformedBy":
		return true
	}
	return false
}

// Returns true if the given provenance field points to a derivation of the
// object that carries it.
func IsDerivationField(field string) bool {
	switch field {
	case "prov_usedByExecution",
		"prov_usedByProgram",
		"prov_hasDerivations",
		"prov_generated":
		return true
	}
	return false
}

// returns the values the record holds for the named provenance field
func (r Record) provValues(field string) []string {
	switch field {
	case "prov_instanceOfClass":
		return r.InstanceOfClass
	case "prov_generated":
		return r.Generated
	case "prov_generatedByExecution":
		return r.GeneratedByExecution
	case "prov_generatedByProgram":
		return r.GeneratedByProgram
	case "prov_hasDerivations":
		return r.HasDerivations
	case "prov_hasSources":
		return r.HasSources
	case "prov_used":
		return r.Used
	case "prov_usedByExecution":
		return r.UsedByExecution
	case "prov_usedByProgram":
		return r.UsedByProgram
	case "prov_wasDerivedFrom":
		return r.WasDerivedFrom
	case "prov_wasInformedBy":
		return r.WasInformedBy
	}
	return nil
}

// references to executions are not surfaced in provenance displays
func isExecutionField(field string) bool {
	return strings.Contains(field, "xecution")
}

// Returns the deduplicated identifiers of all objects that are sources of this
// object, leaving out execution references.
func (r Record) Sources() []string {
	sources := make([]string, 0)
	for _, field := range provFieldNames {
		if IsSourceField(field) && !isExecutionField(field) {
			for _, id := range r.provValues(field) {
				if !slices.Contains(sources, id) {
					sources = append(sources, id)
				}
			}
		}
	}
	return sources
}

// Returns the deduplicated identifiers of all objects that are derivations of
// this object, leaving out execution references.
func (r Record) Derivations() []string {
	derivations := make([]string, 0)
	for _, field := range provFieldNames {
		if IsDerivationField(field) && !isExecutionField(field) {
			for _, id := range r.provValues(field) {
				if !slices.Contains(derivations, id) {
					derivations = append(derivations, id)
				}
			}
		}
	}
	return derivations
}

// Returns true if this record carries any provenance trace. Metadata records
// are checked against the rolled-up hasSources/hasDerivations fields.
func (r Record) HasProvTrace() bool {
	if r.FormatType == FormatTypeMetadata {
		if len(r.HasSources) > 0 || len(r.HasDerivations) > 0 {
			return true
		}
	}
	for _, field := range provFieldNames {
		if len(r.provValues(field)) > 0 {
			return true
		}
	}
	return false
}

// Returns true if the record's ProvONE class marks it as a program (script or
// executable participating in a workflow).
func (r Record) IsProgram() bool {
	for _, class := range r.InstanceOfClass {
		if strings.Contains(class, "#Program") {
			return true
		}
	}
	return false
}

// Returns the identifiers of the objects a program record declares as inputs.
func (r Record) Inputs() []string {
	return r.Used
}

// Returns the identifiers of the objects a program record declares as outputs.
func (r Record) Outputs() []string {
	return r.Generated
}

// Returns true if this record is itself a resource map.
func (r Record) IsResourceMap() bool {
	return r.FormatType == FormatTypeResource || r.FormatId == ResourceMapFormatId
}
