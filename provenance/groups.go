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

package provenance

import (
	"github.com/dataone/dps/index"
)

// recordGroups collects index records under resource map identifiers while
// preserving the order in which maps are first seen, so that assembled
// provenance comes out in a stable order.
type recordGroups struct {
	mapIds []string
	byId   map[string][]index.Record
}

func newRecordGroups() *recordGroups {
	return &recordGroups{
		mapIds: make([]string, 0),
		byId:   make(map[string][]index.Record),
	}
}

func (g *recordGroups) add(mapId string, record index.Record) {
	if _, seen := g.byId[mapId]; !seen {
		g.mapIds = append(g.mapIds, mapId)
	}
	g.byId[mapId] = append(g.byId[mapId], record)
}

// MapIds returns the map identifiers in first-seen order.
func (g *recordGroups) MapIds() []string {
	return g.mapIds
}

// Records returns the records grouped under one map.
func (g *recordGroups) Records(mapId string) []index.Record {
	return g.byId[mapId]
}
