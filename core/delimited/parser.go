// Package delimited converts between delimited text (CSV by default) and
// table.Table values.
//
// The parser is lenient unless configured otherwise: rows with fewer values
// than the header are padded with empty strings, extra values are dropped, and
// blank lines are skipped, including any before the header. By default lines
// are split naively on the delimiter, so a delimiter inside a quoted value
// splits that value; use WithQuotedFields for RFC 4180 behaviour.
package delimited

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/asaidimu/go-tabula/core/table"
	"go.uber.org/zap"
)

// Parser turns delimited text into tables.
type Parser struct {
	opts Options
}

// NewParser creates a parser with the given options.
func NewParser(opts ...Option) *Parser {
	return &Parser{opts: buildOptions(opts)}
}

// Parse parses raw text with a fresh parser.
func Parse(text string, opts ...Option) (*table.Table, error) {
	return NewParser(opts...).Parse(text)
}

// ParseReader parses a stream with a fresh parser.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*table.Table, error) {
	return NewParser(opts...).ParseReader(ctx, r)
}

// Parse parses raw text.
func (p *Parser) Parse(text string) (*table.Table, error) {
	return p.ParseReader(context.Background(), strings.NewReader(text))
}

// ParseReader reads r to the end and returns the parsed table. The context is
// checked between lines.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader) (*table.Table, error) {
	if p.opts.QuotedFields {
		return p.parseQuoted(ctx, r)
	}
	return p.parseNaive(ctx, r)
}

func (p *Parser) parseNaive(ctx context.Context, r io.Reader) (*table.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var header []string
	records := []table.Record{}
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		text := scanner.Text()

		if strings.TrimSpace(text) == "" {
			continue
		}
		if header == nil {
			header = table.UniqueNames(p.split(text))
			continue
		}

		rec, err := p.zip(header, p.split(text), line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read delimited input: %w", err)
	}

	if header == nil {
		if p.opts.Strict {
			return nil, ErrNoHeader
		}
		return table.New(nil, []table.Record{}), nil
	}
	p.opts.Logger.Debug("Parsed delimited input",
		zap.Int("fields", len(header)), zap.Int("records", len(records)))
	return table.New(header, records), nil
}

func (p *Parser) parseQuoted(ctx context.Context, r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var header []string
	records := []table.Record{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read delimited input: %w", err)
		}
		values := trimAll(row)
		if isBlank(values) {
			continue
		}
		if header == nil {
			header = table.UniqueNames(values)
			continue
		}
		line, _ := reader.FieldPos(0)
		rec, err := p.zip(header, values, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if header == nil {
		if p.opts.Strict {
			return nil, ErrNoHeader
		}
		return table.New(nil, []table.Record{}), nil
	}
	return table.New(header, records), nil
}

// split breaks a line on the delimiter and cleans every value.
func (p *Parser) split(line string) []string {
	parts := strings.Split(line, string(p.opts.Delimiter))
	for i, part := range parts {
		parts[i] = unquote(part)
	}
	return parts
}

// zip pairs header names with positional values.
func (p *Parser) zip(header, values []string, line int) (table.Record, error) {
	if len(values) != len(header) {
		if p.opts.Strict {
			return nil, &MalformedRowError{Line: line, Expected: len(header), Got: len(values)}
		}
		p.opts.Logger.Debug("Row value count differs from header",
			zap.Int("line", line), zap.Int("expected", len(header)), zap.Int("got", len(values)))
	}

	rec := make(table.Record, len(header))
	for i, name := range header {
		if i < len(values) {
			rec[name] = values[i]
		} else {
			rec[name] = ""
		}
	}
	return rec, nil
}

// unquote trims whitespace, strips one pair of surrounding double quotes and
// collapses doubled quotes inside them.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// isBlank reports whether a csv row came from a whitespace-only line.
func isBlank(values []string) bool {
	return len(values) == 1 && values[0] == ""
}
