package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/asaidimu/go-tabula/core/table"
	"go.uber.org/zap"
)

// PredicateFunction performs custom filtering logic on a record for a
// non-standard comparison operator.
type PredicateFunction func(rec table.Record, field string, args FilterValue) (bool, error)

// Processor runs QueryDSL values against in-memory records. Custom operators
// can be registered at any time; the processor is safe for concurrent use.
type Processor struct {
	predicates map[ComparisonOperator]PredicateFunction
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		predicates: make(map[ComparisonOperator]PredicateFunction),
		logger:     logger,
	}
}

// RegisterFilterFunction registers a Go function for a custom operator.
func (p *Processor) RegisterFilterFunction(operator ComparisonOperator, fn PredicateFunction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predicates[operator] = fn
	p.logger.Info("Registered filter function", zap.String("operator", string(operator)))
}

// RegisterFilterFunctions registers multiple custom operators from a map.
func (p *Processor) RegisterFilterFunctions(functionMap map[ComparisonOperator]PredicateFunction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for operator, fn := range functionMap {
		p.predicates[operator] = fn
		p.logger.Info("Registered filter function", zap.String("operator", string(operator)))
	}
}

// Run filters, sorts and paginates records according to dsl. A nil dsl
// returns a copy of every record. Neither records nor their maps are modified.
func (p *Processor) Run(ctx context.Context, records []table.Record, dsl *QueryDSL) (*QueryResult, error) {
	if dsl == nil {
		dsl = &QueryDSL{}
	}
	if err := dsl.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	filtered := make([]table.Record, 0, len(records))
	for i, rec := range records {
		ok, err := p.match(rec, dsl)
		if err != nil {
			p.mu.RUnlock()
			return nil, fmt.Errorf("filter failed on record %d: %w", i, err)
		}
		if ok {
			filtered = append(filtered, rec)
		}
	}
	p.mu.RUnlock()
	p.logger.Debug("Records remaining after filters",
		zap.Int("input", len(records)), zap.Int("count", len(filtered)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sorted := Sort(filtered, dsl.Sort)
	page := paginate(sorted, dsl.Pagination)
	p.logger.Debug("Records returned after pagination", zap.Int("count", len(page)))

	return &QueryResult{Records: page, Count: len(page), Total: len(sorted)}, nil
}

// Match evaluates a single record against the filters and conditions of dsl.
func (p *Processor) Match(ctx context.Context, dsl *QueryDSL, rec table.Record) (bool, error) {
	if dsl == nil {
		return true, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.match(rec, dsl)
}

func (p *Processor) match(rec table.Record, dsl *QueryDSL) (bool, error) {
	if !Matches(rec, dsl.Filters) {
		return false, nil
	}
	for i := range dsl.Conditions {
		ok, err := p.evaluateCondition(rec, &dsl.Conditions[i])
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// evaluateCondition evaluates one condition, dispatching custom operators to
// their registered predicates. Callers hold p.mu.
func (p *Processor) evaluateCondition(rec table.Record, cond *FilterCondition) (bool, error) {
	if !cond.Operator.IsStandard() {
		fn, ok := p.predicates[cond.Operator]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrUnknownOperator, cond.Operator)
		}
		return fn(rec, cond.Field, cond.Value)
	}

	value, present := rec[cond.Field]
	exists := present && value != nil

	switch cond.Operator {
	case ComparisonOperatorExists:
		return exists, nil
	case ComparisonOperatorNotExists:
		return !exists, nil
	}
	if !exists {
		return cond.Operator == ComparisonOperatorNeq || cond.Operator == ComparisonOperatorNin ||
			cond.Operator == ComparisonOperatorNotContains, nil
	}

	switch cond.Operator {
	case ComparisonOperatorEq:
		return looseEqual(value, cond.Value), nil
	case ComparisonOperatorNeq:
		return !looseEqual(value, cond.Value), nil
	case ComparisonOperatorLt, ComparisonOperatorLte, ComparisonOperatorGt, ComparisonOperatorGte:
		if isNumeric(value) != isNumeric(cond.Value) {
			return false, nil
		}
		c := compareValues(value, cond.Value)
		switch cond.Operator {
		case ComparisonOperatorLt:
			return c < 0, nil
		case ComparisonOperatorLte:
			return c <= 0, nil
		case ComparisonOperatorGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case ComparisonOperatorIn, ComparisonOperatorNin:
		if !isSequence(cond.Value) {
			return false, fmt.Errorf("%w: operator %s requires a list value, got %T", ErrInvalidCondition, cond.Operator, cond.Value)
		}
		found := false
		for _, member := range sequence(cond.Value) {
			if looseEqual(value, member) {
				found = true
				break
			}
		}
		return found == (cond.Operator == ComparisonOperatorIn), nil
	case ComparisonOperatorContains, ComparisonOperatorNotContains:
		found := strings.Contains(strings.ToLower(stringify(value)), strings.ToLower(stringify(cond.Value)))
		return found == (cond.Operator == ComparisonOperatorContains), nil
	case ComparisonOperatorStartsWith:
		return strings.HasPrefix(strings.ToLower(stringify(value)), strings.ToLower(stringify(cond.Value))), nil
	case ComparisonOperatorEndsWith:
		return strings.HasSuffix(strings.ToLower(stringify(value)), strings.ToLower(stringify(cond.Value))), nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownOperator, cond.Operator)
}

// looseEqual treats values as equal when they are strictly equal, when both
// are numeric with the same magnitude, or when their text matches.
func looseEqual(a, b any) bool {
	if strictEqual(a, b) {
		return true
	}
	af, aok := ToFloat64(a)
	bf, bok := ToFloat64(b)
	if aok && bok {
		return af == bf
	}
	if aok != bok {
		return false
	}
	return stringify(a) == stringify(b)
}

func paginate(records []table.Record, p *PaginationOptions) []table.Record {
	if p == nil {
		return records
	}
	if p.Offset >= len(records) {
		return []table.Record{}
	}
	records = records[p.Offset:]
	if p.Limit > 0 && p.Limit < len(records) {
		records = records[:p.Limit]
	}
	return records
}
