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

// This package contains testing utilities for the Data Package Service.
package dpstest

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dataone/dps/index"
)

// Enables DEBUG log messages for DPS's structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

// one canned response of a fixture index
type fixtureRule struct {
	match   string
	results index.Results
}

// FixtureIndex is a query service fixture for tests. Responses are registered
// against filter substrings; the first registered rule whose substring occurs
// in a query's filter answers the query, and queries matching no rule get
// empty results. Every received request is recorded for assertions.
type FixtureIndex struct {
	mu       sync.Mutex
	rules    []fixtureRule
	Requests []index.Request
}

func NewFixtureIndex() *FixtureIndex {
	return &FixtureIndex{
		rules:    make([]fixtureRule, 0),
		Requests: make([]index.Request, 0),
	}
}

// AddResponse registers the results returned for any query whose filter
// contains the given substring.
func (f *FixtureIndex) AddResponse(filterSubstring string, results index.Results) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fixtureRule{match: filterSubstring, results: results})
}

// AddDocs registers a plain document response for any query whose filter
// contains the given substring.
func (f *FixtureIndex) AddDocs(filterSubstring string, docs ...index.Record) {
	f.AddResponse(filterSubstring, index.Results{NumFound: len(docs), Docs: docs})
}

func (f *FixtureIndex) Query(ctx context.Context, req index.Request) (index.Results, error) {
	if err := ctx.Err(); err != nil {
		return index.Results{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	for _, rule := range f.rules {
		if strings.Contains(req.Filter, rule.match) {
			return rule.results, nil
		}
	}
	return index.Results{Docs: []index.Record{}}, nil
}

// NumQueries returns how many queries the fixture has received.
func (f *FixtureIndex) NumQueries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}
