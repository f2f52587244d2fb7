package delimited

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/asaidimu/go-tabula/core/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParse_Basic(t *testing.T) {
	input := "name, \"score\" ,city\nAcme,10,Vilnius\n\n  \nBeta , 7 , \"Kaunas\"\n"

	tbl, err := Parse(input)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "score", "city"}, tbl.Header)
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, table.Record{"name": "Acme", "score": "10", "city": "Vilnius"}, tbl.Records[0])
	assert.Equal(t, table.Record{"name": "Beta", "score": "7", "city": "Kaunas"}, tbl.Records[1])
}

func TestParse_DuplicateHeader(t *testing.T) {
	for _, opts := range [][]Option{nil, {WithQuotedFields()}, {WithStrict()}} {
		tbl, err := Parse("a,a,b\n1,2,3\n", opts...)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a.1", "b"}, tbl.Header)
		require.Len(t, tbl.Records, 1)
		assert.Equal(t, table.Record{"a": "1", "a.1": "2", "b": "3"}, tbl.Records[0])

		out, err := Format(tbl)
		require.NoError(t, err)
		assert.Equal(t, "a,a.1,b\n\"1\",\"2\",\"3\"", out)
	}
}

func TestParse_LenientRows(t *testing.T) {
	t.Run("short rows are padded", func(t *testing.T) {
		tbl, err := Parse("a,b,c\n1\n1,2")
		require.NoError(t, err)
		require.Len(t, tbl.Records, 2)
		assert.Equal(t, table.Record{"a": "1", "b": "", "c": ""}, tbl.Records[0])
		assert.Equal(t, table.Record{"a": "1", "b": "2", "c": ""}, tbl.Records[1])
	})

	t.Run("extra values are dropped", func(t *testing.T) {
		tbl, err := Parse("a,b\n1,2,3", WithLogger(zap.NewNop()))
		require.NoError(t, err)
		assert.Equal(t, table.Record{"a": "1", "b": "2"}, tbl.Records[0])
	})

	t.Run("crlf line endings", func(t *testing.T) {
		tbl, err := Parse("a,b\r\n1,2\r\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tbl.Header)
		assert.Equal(t, table.Record{"a": "1", "b": "2"}, tbl.Records[0])
	})

	t.Run("empty input", func(t *testing.T) {
		tbl, err := Parse("")
		require.NoError(t, err)
		assert.Empty(t, tbl.Header)
		assert.Empty(t, tbl.Records)
	})

	t.Run("header only", func(t *testing.T) {
		tbl, err := Parse("a,b\n")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tbl.Header)
		assert.Empty(t, tbl.Records)
	})
}

func TestParse_Quotes(t *testing.T) {
	tbl, err := Parse(`q` + "\n" + `"say ""hi"""` + "\n" + `plain"quote`)
	require.NoError(t, err)
	assert.Equal(t, `say "hi"`, tbl.Records[0]["q"])
	assert.Equal(t, `plain"quote`, tbl.Records[1]["q"])
}

func TestParse_NaiveSplitOnQuotedDelimiter(t *testing.T) {
	tbl, err := Parse("name,city\n\"Acme, Inc\",Vilnius")
	require.NoError(t, err)
	// The naive split does not respect quotes.
	assert.Equal(t, `"Acme`, tbl.Records[0]["name"])
	assert.Equal(t, `Inc"`, tbl.Records[0]["city"])
}

func TestParse_QuotedFields(t *testing.T) {
	input := "name,city\n\"Acme, Inc\", Vilnius\n\n\"say \"\"hi\"\"\",x\nshort"

	tbl, err := Parse(input, WithQuotedFields())
	require.NoError(t, err)
	require.Len(t, tbl.Records, 3)
	assert.Equal(t, table.Record{"name": "Acme, Inc", "city": "Vilnius"}, tbl.Records[0])
	assert.Equal(t, table.Record{"name": `say "hi"`, "city": "x"}, tbl.Records[1])
	assert.Equal(t, table.Record{"name": "short", "city": ""}, tbl.Records[2])
}

func TestParse_Strict(t *testing.T) {
	t.Run("malformed row", func(t *testing.T) {
		_, err := Parse("a,b\n1,2\n3", WithStrict())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRow))

		var rowErr *MalformedRowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, 3, rowErr.Line)
		assert.Equal(t, 2, rowErr.Expected)
		assert.Equal(t, 1, rowErr.Got)
	})

	t.Run("quoted malformed row", func(t *testing.T) {
		_, err := Parse("a,b\n1,2,3", WithStrict(), WithQuotedFields())
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("no header", func(t *testing.T) {
		_, err := Parse("   \n", WithStrict())
		assert.ErrorIs(t, err, ErrNoHeader)
		_, err = Parse("", WithStrict(), WithQuotedFields())
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("well formed input", func(t *testing.T) {
		tbl, err := Parse("a,b\n1,2", WithStrict())
		require.NoError(t, err)
		assert.Len(t, tbl.Records, 1)
	})
}

func TestParse_Delimiter(t *testing.T) {
	tbl, err := Parse("a;b\n1;2", WithDelimiter(';'))
	require.NoError(t, err)
	assert.Equal(t, table.Record{"a": "1", "b": "2"}, tbl.Records[0])
}

func TestParseReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseReader(ctx, strings.NewReader("a\n1"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = ParseReader(ctx, strings.NewReader("a\n1"), WithQuotedFields())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_RecordAndFieldCounts(t *testing.T) {
	tests := []struct {
		fields int
		lines  int
	}{
		{1, 0},
		{1, 5},
		{4, 3},
		{7, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.fields, tt.lines), func(t *testing.T) {
			var sb strings.Builder
			for f := 0; f < tt.fields; f++ {
				if f > 0 {
					sb.WriteString(",")
				}
				fmt.Fprintf(&sb, "f%d", f)
			}
			for l := 0; l < tt.lines; l++ {
				sb.WriteString("\n")
				if l%2 == 0 {
					sb.WriteString("\n")
				}
				// Only the first value is written; the rest are padded.
				fmt.Fprintf(&sb, "v%d", l)
			}

			tbl, err := Parse(sb.String())
			require.NoError(t, err)
			require.Len(t, tbl.Records, tt.lines)
			for _, rec := range tbl.Records {
				assert.Len(t, rec, tt.fields)
			}
		})
	}
}
