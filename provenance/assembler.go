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

// The provenance package assembles the provenance trace of a resolved data
// package: which objects its members were derived from, which objects were
// derived from them, and which sibling members are connected through
// provenance programs.
package provenance

import (
	"context"
	"log/slog"
	"slices"

	"github.com/dataone/dps/index"
	"github.com/dataone/dps/packages"
)

const provQueryRows = 1000

// the index fields a provenance query asks for
var provQueryFields = append([]string{
	"id", "formatType", "formatId", "fileName", "size", "checksum",
	"datasource", "title", "origin", "dateUploaded", "rightsHolder",
	"obsoletes", "obsoletedBy", "archived", "isPublic", "resourceMap",
	"isDocumentedBy", "documents", "read_count_i",
}, index.ProvFields()...)

// Assembler assembles provenance traces against a search index.
type Assembler struct {
	Index index.QueryService
}

func NewAssembler(service index.QueryService) *Assembler {
	return &Assembler{Index: service}
}

// Assemble resolves the provenance of the package's members. Calling it on a
// package whose provenance is already assembled is a no-op, so the trace is
// built at most once.
func (a *Assembler) Assemble(ctx context.Context, pkg *packages.Package) error {
	if pkg.ProvenanceFlag == packages.ProvenanceComplete {
		return nil
	}
	pkg.ProvenanceFlag = packages.ProvenancePending

	// union the provenance fields across all members
	memberIds := pkg.Members.Ids()
	sources := make([]string, 0)
	derivations := make([]string, 0)
	for _, member := range pkg.Members.Members() {
		sources = union(sources, member.Sources())
		derivations = union(derivations, member.Derivations())
	}
	pkg.Sources = sources
	pkg.Derivations = derivations

	// entities referenced by provenance but not aggregated by this package
	external := make([]string, 0)
	for _, id := range union(sources, derivations) {
		if !slices.Contains(memberIds, id) {
			external = append(external, id)
		}
	}

	// when all provenance stays inside the package there is nothing to fetch
	if len(external) == 0 {
		attachMemberProv(pkg, nil)
		attachProgramProv(pkg)
		pkg.RelatedRecords = relatedRecords(pkg, nil, nil)
		pkg.ProvenanceFlag = packages.ProvenanceComplete
		return nil
	}

	results, err := a.Index.Query(ctx, index.Request{
		Fields: provQueryFields,
		Filter: index.Or(
			index.GroupedTerms("id", external),
			index.GroupedTerms("documents", external),
		),
		Rows: provQueryRows,
	})
	if err != nil {
		pkg.ProvenanceFlag = packages.ProvenanceUnstarted
		return err
	}
	slog.Debug("fetched external provenance entities", "package", pkg.Id,
		"num_external", len(external), "num_found", results.NumFound)

	// partition the externals: documents aggregated by no map stand alone,
	// documents in exactly one map group under it, and documents claimed by
	// several maps go to whichever of those maps is still authoritative
	naked := make([]index.Record, 0)
	groups := newRecordGroups()
	ambiguous := make([]index.Record, 0)
	externalRecords := make(map[string]index.Record)
	for _, record := range results.Docs {
		externalRecords[record.Id] = record
		switch len(record.ResourceMap) {
		case 0:
			naked = append(naked, record)
		case 1:
			groups.add(record.ResourceMap[0], record)
		default:
			ambiguous = append(ambiguous, record)
		}
	}
	if len(ambiguous) > 0 {
		if err := a.disambiguate(ctx, ambiguous, groups, externalRecords); err != nil {
			pkg.ProvenanceFlag = packages.ProvenanceUnstarted
			return err
		}
	}

	// resolve each group into an external package and classify it
	for _, mapId := range groups.MapIds() {
		externalPkg := packages.New(mapId)
		isSource, isDerivation := false, false
		for _, record := range groups.Records(mapId) {
			externalPkg.Members.Add(&packages.Member{Record: record})
			recordIsSource, recordIsDerivation := classifyRecord(record, sources, derivations)
			isSource = isSource || recordIsSource
			isDerivation = isDerivation || recordIsDerivation
		}
		if isSource {
			pkg.SourcePackages = append(pkg.SourcePackages, externalPkg)
		}
		if isDerivation {
			pkg.DerivationPackages = append(pkg.DerivationPackages, externalPkg)
		}
	}

	// classify documents that belong to no package: a document with
	// documenting metadata among the fetched records is wrapped in a
	// synthetic single-member package so the metadata travels with it,
	// one without stands alone
	for _, record := range naked {
		isSource := slices.Contains(sources, record.Id)
		isDerivation := slices.Contains(derivations, record.Id)
		if !isSource && !isDerivation {
			continue
		}
		if documented(record, externalRecords) {
			synthetic := packages.New("")
			synthetic.Members.Add(&packages.Member{Record: record})
			if isSource {
				pkg.SourcePackages = append(pkg.SourcePackages, synthetic)
			}
			if isDerivation {
				pkg.DerivationPackages = append(pkg.DerivationPackages, synthetic)
			}
			continue
		}
		if isSource {
			pkg.SourceDocs = append(pkg.SourceDocs, record)
		}
		if isDerivation {
			pkg.DerivationDocs = append(pkg.DerivationDocs, record)
		}
	}

	pkg.RelatedRecords = relatedRecords(pkg, results.Docs, externalRecords)

	attachMemberProv(pkg, externalRecords)
	attachProgramProv(pkg)
	pkg.ProvenanceFlag = packages.ProvenanceComplete
	return nil
}

// determines whether a record connects its package to ours as a source or a
// derivation: directly by its identifier, or through the objects a metadata
// record documents
func classifyRecord(record index.Record, sources, derivations []string) (isSource, isDerivation bool) {
	isSource = slices.Contains(sources, record.Id)
	isDerivation = slices.Contains(derivations, record.Id)
	if record.FormatType == index.FormatTypeMetadata {
		for _, documentedId := range record.Documents {
			isSource = isSource || slices.Contains(sources, documentedId)
			isDerivation = isDerivation || slices.Contains(derivations, documentedId)
		}
	}
	return
}

// reports whether any fetched record is metadata documenting the given
// document
func documented(record index.Record, externalRecords map[string]index.Record) bool {
	for _, id := range record.IsDocumentedBy {
		if _, found := externalRecords[id]; found {
			return true
		}
	}
	for _, candidate := range externalRecords {
		if slices.Contains(candidate.Documents, record.Id) {
			return true
		}
	}
	return false
}

// relatedRecords builds the flat view of everything the trace touched: every
// original member plus every fetched record that survived classification,
// de-duplicated by identifier.
func relatedRecords(pkg *packages.Package, fetched []index.Record,
	externalRecords map[string]index.Record) []index.Record {
	related := make([]index.Record, 0, pkg.Members.Len()+len(fetched))
	seen := make(map[string]bool)
	for _, member := range pkg.Members.Members() {
		if !seen[member.Record.Id] {
			seen[member.Record.Id] = true
			related = append(related, member.Record)
		}
	}
	for _, record := range fetched {
		if _, kept := externalRecords[record.Id]; kept && !seen[record.Id] {
			seen[record.Id] = true
			related = append(related, record)
		}
	}
	return related
}

// assigns each record claimed by several resource maps to whichever of those
// maps has not been obsoleted, dropping records whose maps are all stale
func (a *Assembler) disambiguate(ctx context.Context, ambiguous []index.Record,
	groups *recordGroups, externalRecords map[string]index.Record) error {
	mapIds := make([]string, 0)
	for _, record := range ambiguous {
		mapIds = union(mapIds, record.ResourceMap)
	}

	results, err := a.Index.Query(ctx, index.Request{
		Fields: []string{"id", "obsoletes"},
		Filter: index.And(
			index.Not(index.Exists("obsoletedBy")),
			index.GroupedTerms("id", mapIds),
		),
		Rows: provQueryRows,
	})
	if err != nil {
		return err
	}

	// a map counts as authoritative when no newer revision exists and it is
	// not itself named as obsoleted by another candidate
	obsoleted := make(map[string]bool)
	for _, record := range results.Docs {
		if record.Obsoletes != "" {
			obsoleted[record.Obsoletes] = true
		}
	}
	authoritative := make(map[string]bool)
	for _, record := range results.Docs {
		if !obsoleted[record.Id] {
			authoritative[record.Id] = true
		}
	}

	for _, record := range ambiguous {
		assigned := false
		for _, mapId := range record.ResourceMap {
			if authoritative[mapId] {
				groups.add(mapId, record)
				assigned = true
				break
			}
		}
		if !assigned {
			slog.Debug("dropping provenance entity with only obsoleted resource maps",
				"id", record.Id)
			delete(externalRecords, record.Id)
		}
	}
	return nil
}

// attachMemberProv wires each member to the sibling members and external
// records its provenance fields name. Members standing for nested packages
// carry no provenance of their own and are skipped.
func attachMemberProv(pkg *packages.Package, externalRecords map[string]index.Record) {
	for _, member := range pkg.Members.Members() {
		if member.Nested != nil {
			continue
		}
		for _, id := range member.Record.Sources() {
			if sibling := pkg.Members.Get(id); sibling != nil {
				member.AddProvSource(sibling)
			} else if record, found := externalRecords[id]; found {
				member.AddProvSource(&packages.Member{Record: record})
			}
		}
		for _, id := range member.Record.Derivations() {
			if sibling := pkg.Members.Get(id); sibling != nil {
				member.AddProvDerivation(sibling)
			} else if record, found := externalRecords[id]; found {
				member.AddProvDerivation(&packages.Member{Record: record})
			}
		}
	}
}

// attachProgramProv wires members connected through provenance programs: the
// inputs of a program that generated a member become that member's sources,
// and the outputs of a program that used a member become its derivations.
func attachProgramProv(pkg *packages.Package) {
	members := pkg.Members.Members()
	for _, program := range members {
		if !program.IsProgram() {
			continue
		}
		for _, member := range members {
			if member.Id == program.Id {
				continue
			}
			if slices.Contains(member.GeneratedByProgram, program.Id) {
				for _, inputId := range program.Inputs() {
					if input := pkg.Members.Get(inputId); input != nil && input.Id != member.Id {
						member.AddProvSource(input)
					}
				}
			}
			if slices.Contains(member.UsedByProgram, program.Id) {
				for _, outputId := range program.Outputs() {
					if output := pkg.Members.Get(outputId); output != nil && output.Id != member.Id {
						member.AddProvDerivation(output)
					}
				}
			}
		}
	}
}

// appends the elements of extra that are not yet in base, preserving order
func union(base, extra []string) []string {
	for _, value := range extra {
		if value != "" && !slices.Contains(base, value) {
			base = append(base, value)
		}
	}
	return base
}
