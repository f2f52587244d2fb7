package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/asaidimu/go-tabula/core/analysis"
	"github.com/asaidimu/go-tabula/core/delimited"
	"github.com/asaidimu/go-tabula/core/format"
	"github.com/asaidimu/go-tabula/core/query"
	"github.com/asaidimu/go-tabula/core/source"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type inspectOptions struct {
	filters []string
	where   []string
	sorts   []string
	limit   int
	summary bool
	unique  string
	output  string
}

func newInspectCmd() *cobra.Command {
	var o inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Filter, sort and print a csv or xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], o)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&o.filters, "filter", nil, "field=value substring filter, repeatable")
	f.StringArrayVar(&o.where, "where", nil, "field:operator:value condition, repeatable")
	f.StringArrayVar(&o.sorts, "sort", nil, "field[:asc|desc] sort key, repeatable")
	f.IntVar(&o.limit, "limit", 0, "maximum number of records to print")
	f.BoolVar(&o.summary, "summary", false, "print the dataset summary instead of records")
	f.StringVar(&o.unique, "unique", "", "print the distinct values of a field")
	f.StringVar(&o.output, "delimiter", ",", "output delimiter")
	return cmd
}

func runInspect(cmd *cobra.Command, path string, o inspectOptions) error {
	dsl, err := buildQuery(o)
	if err != nil {
		return err
	}
	delim := []rune(o.output)
	if len(delim) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", o.output)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	t, err := source.Load(cmd.Context(), path, file)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if o.summary {
		return printSummary(out, analysis.Summarize(t))
	}
	if o.unique != "" {
		if !t.HasField(o.unique) {
			return fmt.Errorf("%w: %s", analysis.ErrUnknownFeature, o.unique)
		}
		for _, v := range query.Unique(t.Records, o.unique) {
			fmt.Fprintln(out, v)
		}
		return nil
	}

	result, err := query.NewProcessor(zap.NewNop()).Run(cmd.Context(), t.Records, &dsl)
	if err != nil {
		return err
	}
	if result.Count == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no matching records")
		return nil
	}
	if err := delimited.Write(out, t.WithRecords(result.Records), delimited.WithDelimiter(delim[0])); err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s of %s records\n", format.Number(result.Count), format.Number(result.Total))
	return nil
}

// buildQuery translates the command flags into a query.
func buildQuery(o inspectOptions) (query.QueryDSL, error) {
	qb := query.NewQueryBuilder()
	for _, f := range o.filters {
		field, value, ok := strings.Cut(f, "=")
		if !ok || field == "" {
			return query.QueryDSL{}, fmt.Errorf("invalid filter %q, want field=value", f)
		}
		qb.Match(field, value)
	}
	for _, w := range o.where {
		parts := strings.SplitN(w, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			return query.QueryDSL{}, fmt.Errorf("invalid condition %q, want field:operator[:value]", w)
		}
		op := query.ComparisonOperator(parts[1])
		if !op.IsStandard() {
			return query.QueryDSL{}, fmt.Errorf("%w: %s", query.ErrUnknownOperator, parts[1])
		}
		var value query.FilterValue
		if len(parts) == 3 {
			value = parseValue(op, parts[2])
		}
		qb.Where(parts[0]).Custom(op, value)
	}
	for _, s := range o.sorts {
		field, dir, _ := strings.Cut(s, ":")
		direction := query.SortDirectionAsc
		if dir != "" {
			direction = query.SortDirection(strings.ToLower(dir))
		}
		qb.OrderBy(field, direction)
	}
	if o.limit > 0 {
		qb.Limit(o.limit)
	}

	dsl := qb.Build()
	if err := dsl.Validate(); err != nil {
		return query.QueryDSL{}, err
	}
	return dsl, nil
}

// parseValue splits list operands on commas and keeps numbers numeric.
func parseValue(op query.ComparisonOperator, raw string) query.FilterValue {
	if op == query.ComparisonOperatorIn || op == query.ComparisonOperatorNin {
		parts := strings.Split(raw, ",")
		values := make([]query.FilterValue, len(parts))
		for i, p := range parts {
			values[i] = strings.TrimSpace(p)
		}
		return values
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func printSummary(w io.Writer, s *analysis.Summary) error {
	lines := []string{
		"records:      " + format.Number(s.TotalRecords),
		"features:     " + format.Number(s.TotalFeatures),
		"completeness: " + format.Percentage(s.OverallCompleteness),
		"numeric:      " + strings.Join(s.NumericFeatures, ", "),
		"categorical:  " + strings.Join(s.CategoricalFeatures, ", "),
		"binary:       " + strings.Join(s.BinaryFeatures, ", "),
	}
	for _, g := range s.Groups {
		lines = append(lines, fmt.Sprintf("group %s: %s", g.Name, format.Number(g.Count())))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
