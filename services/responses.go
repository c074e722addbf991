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

package services

import (
	"context"
)

// this type encodes a JSON object for responding to root queries
type ServiceInfoResponse struct {
	Name          string `json:"name" example:"DPS" doc:"The name of the service API"`
	Version       string `json:"version" example:"1.0.0" doc:"The version string (major.minor.patch)"`
	Uptime        int    `json:"uptime" example:"345600" doc:"The time the service has been up (seconds)"`
	Documentation string `json:"documentation" example:"/docs" doc:"The OpenAPI documentation endpoint"`
}

// a response for a repository-related query (GET)
type RepositoryResponse struct {
	Id           string `json:"id" example:"knb"`
	Name         string `json:"name" example:"KNB Data Repository"`
	Organization string `json:"organization" example:"NCEAS"`
}

// one aggregated object within a resolved package (GET)
type MemberResponse struct {
	// persistent identifier of the object
	Id string `json:"id"`
	// general category of the object (DATA, METADATA, or RESOURCE)
	FormatType string `json:"format_type,omitempty"`
	// specific format of the object
	FormatId string `json:"format_id,omitempty"`
	// name of the object's file
	FileName string `json:"file_name,omitempty"`
	// object size in bytes
	Size int64 `json:"size,omitempty"`
	// MD5 checksum of the object
	Checksum string `json:"checksum,omitempty"`
	// the package this member stands for, when the object is itself a
	// resource map
	NestedPackage *PackageResponse `json:"nested_package,omitempty"`
}

// a response for a package resolution request (GET)
type PackageResponse struct {
	// the resource map identifier (empty for virtual packages)
	Id string `json:"id,omitempty"`
	// true when the requested object belongs to no resource map
	Virtual bool `json:"virtual,omitempty"`
	// the identifier of the object the package was resolved for
	MemberId string `json:"member_id,omitempty"`
	// true once the member list is fully resolved
	Complete bool `json:"complete"`
	// title of the package's metadata object, if any
	Title string `json:"title,omitempty"`
	// identifiers of prior and subsequent revisions of the resource map
	Obsoletes   string `json:"obsoletes,omitempty"`
	ObsoletedBy string `json:"obsoleted_by,omitempty"`
	// the aggregated members
	Members []MemberResponse `json:"members"`
	// summed byte size of the members
	TotalBytes int64 `json:"total_bytes"`
	// URL from which the package can be downloaded as an archive
	DownloadURL string `json:"download_url,omitempty"`
}

// provenance relations for one package member (GET)
type MemberProvenanceResponse struct {
	// persistent identifier of the member
	Id string `json:"id"`
	// identifiers of the objects this member was derived from
	Sources []string `json:"sources,omitempty"`
	// identifiers of the objects derived from this member
	Derivations []string `json:"derivations,omitempty"`
}

// a response for a package provenance request (GET)
type ProvenanceResponse struct {
	// the resource map identifier
	Id string `json:"id,omitempty"`
	// per-member provenance relations
	Members []MemberProvenanceResponse `json:"members"`
	// resource map identifiers of packages holding sources of members
	SourcePackages []string `json:"source_packages,omitempty"`
	// resource map identifiers of packages holding derivations of members
	DerivationPackages []string `json:"derivation_packages,omitempty"`
	// identifiers of unaggregated objects that are sources of members
	SourceDocuments []string `json:"source_documents,omitempty"`
	// identifiers of unaggregated objects that are derivations of members
	DerivationDocuments []string `json:"derivation_documents,omitempty"`
	// identifiers of objects related to members through provenance but
	// neither sources nor derivations, such as programs
	RelatedObjects []string `json:"related_objects,omitempty"`
}

// PackageService defines the interface for our data package service.
type PackageService interface {
	// Starts the service on the selected port, returning an error that indicates
	// success or failure.
	Start(port int) error
	// Gracefully shuts down the service without interrupting active connections.
	Shutdown(ctx context.Context) error
	// Closes down the service, freeing all resources.
	Close()
}
