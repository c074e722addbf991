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
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// Parse reads a system metadata document, accepting element names in any
// casing, and returns the typed representation.
func Parse(data []byte) (*SystemMetadata, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	meta := &SystemMetadata{}
	sawRoot := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &InvalidDocumentError{Message: err.Error()}
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		name := canonicalName(strings.ToLower(start.Name.Local))
		if !sawRoot {
			if name != "systemmetadata" {
				return nil, &InvalidDocumentError{
					Message: "document root is " + start.Name.Local + ", not systemMetadata",
				}
			}
			sawRoot = true
			continue
		}
		if err := parseField(decoder, start, name, meta); err != nil {
			return nil, err
		}
	}
	if !sawRoot {
		return nil, &InvalidDocumentError{Message: "empty document"}
	}
	if meta.Identifier == "" {
		return nil, &InvalidDocumentError{Message: "no identifier element"}
	}
	return meta, nil
}

// reads one top-level field element into the metadata record
func parseField(decoder *xml.Decoder, start xml.StartElement, name string, meta *SystemMetadata) error {
	switch name {
	case "serialVersion":
		text, err := elementText(decoder, start)
		if err != nil {
			return err
		}
		meta.SerialVersion, _ = strconv.Atoi(text)
	case "identifier":
		return assignText(decoder, start, &meta.Identifier)
	case "formatId":
		return assignText(decoder, start, &meta.FormatId)
	case "size":
		text, err := elementText(decoder, start)
		if err != nil {
			return err
		}
		meta.Size, _ = strconv.ParseInt(text, 10, 64)
	case "checksum":
		for _, attr := range start.Attr {
			if strings.EqualFold(attr.Name.Local, "algorithm") {
				meta.Checksum.Algorithm = attr.Value
			}
		}
		return assignText(decoder, start, &meta.Checksum.Value)
	case "submitter":
		return assignText(decoder, start, &meta.Submitter)
	case "rightsHolder":
		return assignText(decoder, start, &meta.RightsHolder)
	case "accessPolicy":
		return parseAccessPolicy(decoder, start, meta)
	case "obsoletes":
		return assignText(decoder, start, &meta.Obsoletes)
	case "obsoletedBy":
		return assignText(decoder, start, &meta.ObsoletedBy)
	case "archived":
		text, err := elementText(decoder, start)
		if err != nil {
			return err
		}
		meta.Archived = strings.EqualFold(text, "true")
	case "dateUploaded":
		return assignText(decoder, start, &meta.DateUploaded)
	case "dateSysMetadataModified":
		return assignText(decoder, start, &meta.DateSysMetadataModified)
	case "originMemberNode":
		return assignText(decoder, start, &meta.OriginMemberNode)
	case "authoritativeMemberNode":
		return assignText(decoder, start, &meta.AuthoritativeMemberNode)
	case "replica":
		return parseReplica(decoder, start, meta)
	default:
		// replicaPolicy and anything schema versions add that we do not model
		return skipElement(decoder, start)
	}
	return nil
}

// reads the allow rules of an accessPolicy element
func parseAccessPolicy(decoder *xml.Decoder, start xml.StartElement, meta *SystemMetadata) error {
	for {
		token, err := decoder.Token()
		if err != nil {
			return &InvalidDocumentError{Message: err.Error()}
		}
		switch t := token.(type) {
		case xml.StartElement:
			rule := AccessRule{Type: strings.ToLower(t.Name.Local)}
			if err := parseAccessRule(decoder, t, &rule); err != nil {
				return err
			}
			meta.AccessPolicy = append(meta.AccessPolicy, rule)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// reads the subject and permission children of one allow rule
func parseAccessRule(decoder *xml.Decoder, start xml.StartElement, rule *AccessRule) error {
	for {
		token, err := decoder.Token()
		if err != nil {
			return &InvalidDocumentError{Message: err.Error()}
		}
		switch t := token.(type) {
		case xml.StartElement:
			text, err := elementText(decoder, t)
			if err != nil {
				return err
			}
			switch strings.ToLower(t.Name.Local) {
			case "subject":
				rule.Subject = text
			case "permission":
				rule.Permissions = append(rule.Permissions, text)
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// reads one replica record
func parseReplica(decoder *xml.Decoder, start xml.StartElement, meta *SystemMetadata) error {
	replica := Replica{}
	for {
		token, err := decoder.Token()
		if err != nil {
			return &InvalidDocumentError{Message: err.Error()}
		}
		switch t := token.(type) {
		case xml.StartElement:
			text, err := elementText(decoder, t)
			if err != nil {
				return err
			}
			switch canonicalName(strings.ToLower(t.Name.Local)) {
			case "replicaMemberNode":
				replica.ReplicaMemberNode = text
			case "replicationStatus":
				replica.ReplicationStatus = text
			case "replicaVerified":
				replica.ReplicaVerified = text
			}
		case xml.EndElement:
			if t.Name == start.Name {
				meta.Replicas = append(meta.Replicas, replica)
				return nil
			}
		}
	}
}

// reads the trimmed character data of one element
func elementText(decoder *xml.Decoder, start xml.StartElement) (string, error) {
	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", &InvalidDocumentError{Message: err.Error()}
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if err := skipElement(decoder, t); err != nil {
				return "", err
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return strings.TrimSpace(text.String()), nil
			}
		}
	}
}

func assignText(decoder *xml.Decoder, start xml.StartElement, target *string) error {
	text, err := elementText(decoder, start)
	if err != nil {
		return err
	}
	*target = text
	return nil
}

func skipElement(decoder *xml.Decoder, _ xml.StartElement) error {
	for depth := 1; depth > 0; {
		token, err := decoder.Token()
		if err != nil {
			return &InvalidDocumentError{Message: err.Error()}
		}
		switch token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}
