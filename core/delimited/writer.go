package delimited

import (
	"fmt"
	"io"
	"strings"

	"github.com/asaidimu/go-tabula/core/table"
)

// Format renders a table as delimited text: the header line followed by one
// line per record in header order, joined by "\n" without a trailing newline.
// String values are always quoted with inner quotes doubled; nil and absent
// values are written empty; other values use their default formatting.
func Format(t *table.Table, opts ...Option) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, t, opts...); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write streams the Format rendering of t to w.
func Write(w io.Writer, t *table.Table, opts ...Option) error {
	if t == nil || len(t.Records) == 0 {
		return ErrNoData
	}
	o := buildOptions(opts)
	sep := string(o.Delimiter)

	if _, err := io.WriteString(w, strings.Join(t.Header, sep)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cells := make([]string, len(t.Header))
	for i, rec := range t.Records {
		for j, name := range t.Header {
			cells[j] = formatCell(rec[name])
		}
		if _, err := io.WriteString(w, "\n"+strings.Join(cells, sep)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return `"` + strings.ReplaceAll(val, `"`, `""`) + `"`
	default:
		return fmt.Sprint(val)
	}
}
