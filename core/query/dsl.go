// Package query defines the query layer over table records: unique value
// extraction, field filters combined with logical AND, explicit comparison
// conditions, and multi-key stable sorting.
package query

import (
	"errors"
	"fmt"

	"github.com/asaidimu/go-tabula/core/table"
)

var (
	// ErrInvalidDirection is returned for a sort key whose direction is neither
	// "asc" nor "desc".
	ErrInvalidDirection = errors.New("invalid sort direction")
	// ErrInvalidPagination is returned for negative limits or offsets.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrUnknownOperator is returned for a condition whose operator is neither
	// standard nor registered.
	ErrUnknownOperator = errors.New("unknown comparison operator")
	// ErrInvalidCondition is returned for a condition whose value does not
	// fit its operator, such as "in" with a scalar.
	ErrInvalidCondition = errors.New("invalid condition")
)

// FilterValue is the value a filter compares record values against.
type FilterValue any

// FieldFilter maps a field name to a matching rule. The rule depends on the
// dynamic type of the value:
//
//   - nil, "" or an empty slice matches every record;
//   - a slice matches records whose value is a member;
//   - a number matches records whose value is exactly equal, type included;
//   - a string matches records whose stringified value contains it, ignoring case;
//   - anything else matches by strict equality.
//
// All entries must match for a record to be kept.
type FieldFilter map[string]FilterValue

// ComparisonOperator names the operator of an explicit FilterCondition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq          ComparisonOperator = "eq"
	ComparisonOperatorNeq         ComparisonOperator = "neq"
	ComparisonOperatorLt          ComparisonOperator = "lt"
	ComparisonOperatorLte         ComparisonOperator = "lte"
	ComparisonOperatorGt          ComparisonOperator = "gt"
	ComparisonOperatorGte         ComparisonOperator = "gte"
	ComparisonOperatorIn          ComparisonOperator = "in"
	ComparisonOperatorNin         ComparisonOperator = "nin"
	ComparisonOperatorContains    ComparisonOperator = "contains"
	ComparisonOperatorNotContains ComparisonOperator = "ncontains"
	ComparisonOperatorStartsWith  ComparisonOperator = "startswith"
	ComparisonOperatorEndsWith    ComparisonOperator = "endswith"
	ComparisonOperatorExists      ComparisonOperator = "exists"
	ComparisonOperatorNotExists   ComparisonOperator = "nexists"
)

var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:          {},
	ComparisonOperatorNeq:         {},
	ComparisonOperatorLt:          {},
	ComparisonOperatorLte:         {},
	ComparisonOperatorGt:          {},
	ComparisonOperatorGte:         {},
	ComparisonOperatorIn:          {},
	ComparisonOperatorNin:         {},
	ComparisonOperatorContains:    {},
	ComparisonOperatorNotContains: {},
	ComparisonOperatorStartsWith:  {},
	ComparisonOperatorEndsWith:    {},
	ComparisonOperatorExists:      {},
	ComparisonOperatorNotExists:   {},
}

// IsStandard checks if a comparison operator is one of the built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// FilterCondition is an explicit comparison against one field. Unlike
// FieldFilter entries, ordering operators compare numerically whenever both
// sides parse as numbers, which suits text values read from delimited files.
type FilterCondition struct {
	Field    string             `json:"field"`
	Operator ComparisonOperator `json:"operator"`
	Value    FilterValue        `json:"value,omitempty"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortKey is one (field, direction) pair of a multi-key sort. An empty
// direction means ascending.
type SortKey struct {
	Field     string        `json:"key"`
	Direction SortDirection `json:"direction,omitempty"`
}

// PaginationOptions trims the sorted result. A zero Limit means no limit.
type PaginationOptions struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// QueryDSL is a complete query: field filters and conditions (all ANDed),
// then sort keys, then pagination.
type QueryDSL struct {
	Filters    FieldFilter        `json:"filters,omitempty"`
	Conditions []FilterCondition  `json:"conditions,omitempty"`
	Sort       []SortKey          `json:"sort,omitempty"`
	Pagination *PaginationOptions `json:"pagination,omitempty"`
}

// Validate checks list operands, sort directions and pagination bounds.
func (d *QueryDSL) Validate() error {
	if d == nil {
		return nil
	}
	for _, cond := range d.Conditions {
		if err := cond.validate(); err != nil {
			return err
		}
	}
	for _, key := range d.Sort {
		switch key.Direction {
		case "", SortDirectionAsc, SortDirectionDesc:
		default:
			return fmt.Errorf("%w: %q for field %q", ErrInvalidDirection, key.Direction, key.Field)
		}
	}
	if p := d.Pagination; p != nil && (p.Limit < 0 || p.Offset < 0) {
		return fmt.Errorf("%w: limit %d, offset %d", ErrInvalidPagination, p.Limit, p.Offset)
	}
	return nil
}

// QueryResult is the outcome of running a QueryDSL. Total counts the records
// that passed the filters before pagination; Count is len(Records).
type QueryResult struct {
	Records []table.Record `json:"data"`
	Count   int            `json:"count"`
	Total   int            `json:"total"`
}

func (c FilterCondition) validate() error {
	switch c.Operator {
	case ComparisonOperatorIn, ComparisonOperatorNin:
		if !isSequence(c.Value) {
			return fmt.Errorf("%w: operator %s on field %q requires a list value, got %T",
				ErrInvalidCondition, c.Operator, c.Field, c.Value)
		}
	}
	return nil
}
