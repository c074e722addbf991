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
	"crypto/md5"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dataone/dps/ore"
)

// MapStore writes revised resource maps to a repository.
type MapStore interface {
	SaveResourceMap(ctx context.Context, oldPid, newPid string,
		sysmetaDocument, mapDocument []byte, checksum string) error
}

// Saver writes a package's revised resource map back to a repository: a new
// identifier is minted, the map graph is rewritten to reference it, the
// system metadata is updated and the obsolescence chain extended.
type Saver struct {
	Store      MapStore
	Serializer ore.Serializer
}

// Save validates the package, serializes its graph under a freshly minted
// identifier and stores it. On success the package carries the new identifier
// and its previous one in OldPid.
func (s *Saver) Save(ctx context.Context, pkg *Package) error {
	if pkg.Virtual {
		return &ValidationError{Id: pkg.Id, Message: "virtual packages have no resource map"}
	}
	if pkg.Graph == nil {
		return &ValidationError{Id: pkg.Id, Message: "no resource map graph loaded"}
	}
	if pkg.SysMeta == nil {
		return &ValidationError{Id: pkg.Id, Message: "no system metadata loaded"}
	}
	if pkg.Members.Len() == 0 {
		return &ValidationError{Id: pkg.Id, Message: "package has no members"}
	}

	oldPid := pkg.Id
	newPid := "urn:uuid:" + uuid.NewString()
	plan := ore.RewritePlan{
		OldPid:  oldPid,
		NewPid:  newPid,
		Members: pkg.memberRefs(),
	}
	document, err := s.Serializer.Serialize(pkg.Graph, plan)
	if err != nil {
		return err
	}
	mapBytes := []byte(document)
	checksum := fmt.Sprintf("%x", md5.Sum(mapBytes))

	meta := *pkg.SysMeta
	meta.Identifier = newPid
	meta.Obsoletes = oldPid
	meta.ObsoletedBy = ""
	meta.Size = int64(len(mapBytes))
	meta.Checksum.Value = checksum
	meta.Checksum.Algorithm = "MD5"
	meta.DateSysMetadataModified = time.Now().UTC().Format(time.RFC3339)
	metaBytes, err := meta.Serialize()
	if err != nil {
		return err
	}

	if err := s.Store.SaveResourceMap(ctx, oldPid, newPid, metaBytes, mapBytes, checksum); err != nil {
		return err
	}
	slog.Info("saved resource map revision", "old_pid", oldPid, "new_pid", newPid,
		"num_members", pkg.Members.Len())

	pkg.OldPid = oldPid
	pkg.Id = newPid
	pkg.Obsoletes = oldPid
	pkg.ObsoletedBy = ""
	*pkg.SysMeta = meta
	return nil
}
