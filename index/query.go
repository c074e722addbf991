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
	"fmt"
	"strings"
)

// Filter expression constructors. The index's query language is boolean: terms
// match a field against a quoted value, and clauses combine with AND/OR/NOT.
// Identifiers can contain quotes in principle, so term values are escaped.

// quotes and escapes a term value
func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// Term constructs a filter matching a single field value, e.g. id:"urn:uuid:x".
func Term(field, value string) string {
	return fmt.Sprintf("%s:%s", field, quote(value))
}

// GroupedTerms constructs a filter matching any of the given values of a
// field, e.g. id:("a" OR "b" OR "c"). A single value degenerates to Term, and
// no values yield an empty filter.
func GroupedTerms(field string, values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return Term(field, values[0])
	}
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = quote(value)
	}
	return fmt.Sprintf("%s:(%s)", field, strings.Join(quoted, " OR "))
}

// And combines filters conjunctively, dropping empty clauses.
func And(filters ...string) string {
	return combine(filters, " AND ")
}

// Or combines filters disjunctively, dropping empty clauses.
func Or(filters ...string) string {
	return combine(filters, " OR ")
}

// Not negates a filter.
func Not(filter string) string {
	if filter == "" {
		return ""
	}
	return "-" + filter
}

// Exists constructs a wildcard existence filter, e.g. resourceMap:*.
func Exists(field string) string {
	return field + ":*"
}

func combine(filters []string, op string) string {
	clauses := make([]string, 0, len(filters))
	for _, filter := range filters {
		if filter != "" {
			clauses = append(clauses, filter)
		}
	}
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	}
	return "(" + strings.Join(clauses, op) + ")"
}
