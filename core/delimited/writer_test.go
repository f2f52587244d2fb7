package delimited

import (
	"bytes"
	"testing"

	"github.com/asaidimu/go-tabula/core/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tbl := table.New([]string{"name", "score", "note"}, []table.Record{
		{"name": "Acme", "score": 10, "note": `said "hi"`},
		{"name": "Beta", "score": 2.5},
		{"name": "Gamma", "score": nil, "note": ""},
	})

	out, err := Format(tbl)
	require.NoError(t, err)
	assert.Equal(t, "name,score,note\n"+
		`"Acme",10,"said ""hi"""`+"\n"+
		`"Beta",2.5,`+"\n"+
		`"Gamma",,""`, out)
}

func TestFormat_Delimiter(t *testing.T) {
	tbl := table.New([]string{"a", "b"}, []table.Record{{"a": 1, "b": true}})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl, WithDelimiter(';')))
	assert.Equal(t, "a;b\n1;true", buf.String())
}

func TestFormat_NoData(t *testing.T) {
	_, err := Format(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Format(table.New([]string{"a"}, nil))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFormatParse_RoundTrip(t *testing.T) {
	original := table.New([]string{"company", "sector", "revenue"}, []table.Record{
		{"company": "Acme", "sector": "Retail", "revenue": "1000"},
		{"company": "Beta", "sector": "", "revenue": "250.5"},
		{"company": "Gamma", "sector": "Energy", "revenue": ""},
	})

	text, err := Format(original)
	require.NoError(t, err)

	parsed, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, original.Header, parsed.Header)
	assert.Equal(t, original.Records, parsed.Records)
}
