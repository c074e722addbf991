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

package sysmeta

import (
	"encoding/xml"
)

// marshaling shapes carrying the canonical camelCase element names

type xmlChecksum struct {
	Algorithm string `xml:"algorithm,attr"`
	Value     string `xml:",chardata"`
}

type xmlAccessRule struct {
	XMLName     xml.Name
	Subject     string   `xml:"subject"`
	Permissions []string `xml:"permission"`
}

type xmlAccessPolicy struct {
	Rules []xmlAccessRule
}

type xmlReplica struct {
	ReplicaMemberNode string `xml:"replicaMemberNode"`
	ReplicationStatus string `xml:"replicationStatus"`
	ReplicaVerified   string `xml:"replicaVerified,omitempty"`
}

type xmlSystemMetadata struct {
	XMLName                 xml.Name         `xml:"systemMetadata"`
	SerialVersion           int              `xml:"serialVersion"`
	Identifier              string           `xml:"identifier"`
	FormatId                string           `xml:"formatId"`
	Size                    int64            `xml:"size"`
	Checksum                xmlChecksum      `xml:"checksum"`
	Submitter               string           `xml:"submitter,omitempty"`
	RightsHolder            string           `xml:"rightsHolder"`
	AccessPolicy            *xmlAccessPolicy `xml:"accessPolicy,omitempty"`
	Obsoletes               string           `xml:"obsoletes,omitempty"`
	ObsoletedBy             string           `xml:"obsoletedBy,omitempty"`
	Archived                bool             `xml:"archived"`
	DateUploaded            string           `xml:"dateUploaded,omitempty"`
	DateSysMetadataModified string           `xml:"dateSysMetadataModified,omitempty"`
	OriginMemberNode        string           `xml:"originMemberNode,omitempty"`
	AuthoritativeMemberNode string           `xml:"authoritativeMemberNode,omitempty"`
	Replicas                []xmlReplica     `xml:"replica"`
}

// Serialize writes the metadata as a system metadata document. The access
// policy is regenerated from the typed rules rather than echoed from whatever
// document the record was parsed from.
func (m *SystemMetadata) Serialize() ([]byte, error) {
	if m.Identifier == "" {
		return nil, &InvalidDocumentError{Message: "no identifier set"}
	}

	doc := xmlSystemMetadata{
		SerialVersion:           m.SerialVersion,
		Identifier:              m.Identifier,
		FormatId:                m.FormatId,
		Size:                    m.Size,
		Checksum:                xmlChecksum{Algorithm: m.Checksum.Algorithm, Value: m.Checksum.Value},
		Submitter:               m.Submitter,
		RightsHolder:            m.RightsHolder,
		Obsoletes:               m.Obsoletes,
		ObsoletedBy:             m.ObsoletedBy,
		Archived:                m.Archived,
		DateUploaded:            m.DateUploaded,
		DateSysMetadataModified: m.DateSysMetadataModified,
		OriginMemberNode:        m.OriginMemberNode,
		AuthoritativeMemberNode: m.AuthoritativeMemberNode,
	}
	if len(m.AccessPolicy) > 0 {
		policy := &xmlAccessPolicy{}
		for _, rule := range m.AccessPolicy {
			name := rule.Type
			if name == "" {
				name = "allow"
			}
			policy.Rules = append(policy.Rules, xmlAccessRule{
				XMLName:     xml.Name{Local: name},
				Subject:     rule.Subject,
				Permissions: rule.Permissions,
			})
		}
		doc.AccessPolicy = policy
	}
	for _, replica := range m.Replicas {
		doc.Replicas = append(doc.Replicas, xmlReplica(replica))
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &InvalidDocumentError{Message: err.Error()}
	}
	return append([]byte(xml.Header), body...), nil
}
