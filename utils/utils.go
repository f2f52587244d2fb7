// Package utils holds small helpers shared by the commands and examples:
// struct/record conversion and call debouncing.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/asaidimu/go-tabula/core/table"
)

// StructToRecord converts a struct, or pointer to one, into a record keyed by
// its JSON field names. Nested structs become nested maps.
func StructToRecord[T any](v T) (table.Record, error) {
	val := reflect.ValueOf(v)
	if !val.IsValid() {
		return nil, fmt.Errorf("input cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input cannot be a nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("StructToRecord: failed to marshal input: %w", err)
	}
	rec := table.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("StructToRecord: failed to unmarshal into record: %w", err)
	}
	return rec, nil
}

// RecordToStruct is the inverse of StructToRecord.
func RecordToStruct[T any](rec table.Record) (T, error) {
	var zero T
	if rec == nil {
		return zero, fmt.Errorf("RecordToStruct: record cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("RecordToStruct: type must be a struct or pointer to struct, got %v", typ)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return zero, fmt.Errorf("RecordToStruct: failed to marshal record: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("RecordToStruct: failed to unmarshal into %v: %w", typ, err)
	}
	return out, nil
}

// StructsToTable converts items into a table. The header is order when given;
// otherwise field names appear in order of first appearance, each record's new
// names taken in sorted order (see table.FromRecords).
func StructsToTable[T any](items []T, order ...string) (*table.Table, error) {
	records := make([]table.Record, 0, len(items))
	for i, item := range items {
		rec, err := StructToRecord(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return table.FromRecords(records, order...), nil
}
