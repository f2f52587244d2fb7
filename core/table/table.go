// Package table defines the in-memory record store shared by the parser, the
// query layer and the analysis helpers. A Table is an ordered sequence of flat
// records together with the header that produced them.
package table

import (
	"fmt"
	"maps"
	"strings"
)

// Record represents a single row of tabular data as a field-name-to-value map.
// Records produced by the parser carry string values; records built in code may
// carry any scalar.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	maps.Copy(out, r)
	return out
}

// String returns the value of field as text. Absent and nil values yield "".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsMissing reports whether field is absent, nil or a blank string.
func (r Record) IsMissing(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Table is an ordered sequence of records with a fixed header. Every record
// holds exactly the fields named in Header.
type Table struct {
	Header  []string `json:"header"`
	Records []Record `json:"records"`
}

// New creates a table from a header and records. The header slice is copied.
func New(header []string, records []Record) *Table {
	return &Table{
		Header:  append([]string(nil), header...),
		Records: records,
	}
}

// UniqueNames returns names with repeats renamed by suffix, so ["a", "a", "b"]
// becomes ["a", "a.1", "b"]. A suffixed name that is already taken moves on to
// the next free number.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]struct{}, len(names))
	for _, name := range names {
		taken[name] = struct{}{}
	}
	seen := make(map[string]int, len(names))
	for i, name := range names {
		n := seen[name]
		seen[name] = n + 1
		if n == 0 {
			out[i] = name
			continue
		}
		candidate := fmt.Sprintf("%s.%d", name, n)
		for {
			if _, ok := taken[candidate]; !ok {
				break
			}
			n++
			candidate = fmt.Sprintf("%s.%d", name, n)
		}
		seen[name] = n + 1
		taken[candidate] = struct{}{}
		out[i] = candidate
	}
	return out
}

// FromRecords builds a table from records alone. Without an explicit field
// order the header lists keys in order of first appearance, taking each
// record's new keys in sorted order.
func FromRecords(records []Record, order ...string) *Table {
	if len(order) > 0 {
		return New(order, records)
	}
	seen := make(map[string]struct{})
	var header []string
	for _, rec := range records {
		for _, k := range sortedKeys(rec) {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			header = append(header, k)
		}
	}
	return New(header, records)
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Width returns the number of header fields.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Header)
}

// HasField reports whether name is one of the header fields.
func (t *Table) HasField(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Column returns the values of field across all records, in record order.
func (t *Table) Column(field string) []any {
	out := make([]any, len(t.Records))
	for i, rec := range t.Records {
		out[i] = rec[field]
	}
	return out
}

// WithRecords returns a table sharing this header but holding records.
// The header is copied so the two tables never alias.
func (t *Table) WithRecords(records []Record) *Table {
	return New(t.Header, records)
}

// Head returns a table holding at most the first n records.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Records) {
		n = len(t.Records)
	}
	return t.WithRecords(append([]Record(nil), t.Records[:n]...))
}
