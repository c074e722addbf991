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

// The sysmeta package reads and writes DataONE system metadata documents.
// Member node responses sometimes carry all-lowercase element names, so the
// parser accepts any casing and the serializer always emits the canonical
// camelCase schema names.
package sysmeta

// canonical schema names for the elements whose camelCase form differs from
// their lowercased one
var nodeNames = map[string]string{
	"accesspolicy":            "accessPolicy",
	"accessrule":              "accessRule",
	"authoritativemembernode": "authoritativeMemberNode",
	"dateuploaded":            "dateUploaded",
	"datesysmetadatamodified": "dateSysMetadataModified",
	"formatid":                "formatId",
	"nodereference":           "nodeReference",
	"obsoletedby":             "obsoletedBy",
	"originmembernode":        "originMemberNode",
	"replicamembernode":       "replicaMemberNode",
	"replicapolicy":           "replicaPolicy",
	"replicationstatus":       "replicationStatus",
	"replicaverified":         "replicaVerified",
	"rightsholder":            "rightsHolder",
	"serialversion":           "serialVersion",
}

// a checksum over an object's bytes
type Checksum struct {
	Value     string
	Algorithm string
}

// one entry of an object's access policy
type AccessRule struct {
	// the rule type ("allow" is the only type the schema defines)
	Type string
	// the subject the rule grants permissions to
	Subject string
	// the granted permissions (read, write, changePermission)
	Permissions []string
}

// one replica record
type Replica struct {
	ReplicaMemberNode string
	ReplicationStatus string
	ReplicaVerified   string
}

// SystemMetadata holds the fields of a DataONE system metadata document.
type SystemMetadata struct {
	SerialVersion           int
	Identifier              string
	FormatId                string
	Size                    int64
	Checksum                Checksum
	Submitter               string
	RightsHolder            string
	AccessPolicy            []AccessRule
	Obsoletes               string
	ObsoletedBy             string
	Archived                bool
	DateUploaded            string
	DateSysMetadataModified string
	OriginMemberNode        string
	AuthoritativeMemberNode string
	Replicas                []Replica
}

// maps a lowercased element name to its canonical schema name
func canonicalName(lowered string) string {
	if name, found := nodeNames[lowered]; found {
		return name
	}
	return lowered
}
