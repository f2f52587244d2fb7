package source

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/asaidimu/go-tabula/core/delimited"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoad_CSV(t *testing.T) {
	data := "name,city\n\"Acme, Inc\",Berlin\nBeta,Paris\n"
	tbl, err := Load(context.Background(), "companies.CSV", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "city"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Acme, Inc", tbl.Records[0]["name"])
	assert.Equal(t, "Paris", tbl.Records[1]["city"])
}

func TestLoad_CSVParserOptions(t *testing.T) {
	data := "name;city\nAcme;Berlin\n"
	tbl, err := Load(context.Background(), "a.csv", strings.NewReader(data),
		WithParserOptions(delimited.WithDelimiter(';')))
	require.NoError(t, err)
	assert.Equal(t, "Berlin", tbl.Records[0]["city"])
}

func TestLoad_XLSX(t *testing.T) {
	buf := workbook(t, [][]any{
		{"name", "", "revenue"},
		{},
		{"Acme", "x", 100},
		{"Beta"},
	})

	tbl, err := Load(context.Background(), "companies.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "Unnamed: 1", "revenue"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "100", tbl.Records[0]["revenue"])
	assert.Equal(t, "x", tbl.Records[0]["Unnamed: 1"])
	assert.Equal(t, "", tbl.Records[1]["revenue"])
}

func TestLoad_XLSXUnknownSheet(t *testing.T) {
	buf := workbook(t, [][]any{{"a", "b"}, {1, 2}})
	_, err := Load(context.Background(), "x.xlsx", buf, WithSheet("Missing"))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, "data.json", strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(ctx, "csv", strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(ctx, "data.csv", strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = Load(ctx, "data.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = Load(ctx, "data.csv", strings.NewReader("only\n1\n2\n"))
	assert.ErrorIs(t, err, ErrTooFewColumns)

	_, err = Load(ctx, "data.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestRowsToTable_DuplicateHeader(t *testing.T) {
	tbl, err := rowsToTable(context.Background(), [][]string{{"name", "name", ""}, {"Acme", "Acme Ltd", "x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "name.1", "Unnamed: 2"}, tbl.Header)
	assert.Len(t, tbl.Records[0], 3)
	assert.Equal(t, "Acme Ltd", tbl.Records[0]["name.1"])
}

func TestRowsToTable_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rowsToTable(ctx, [][]string{{"a", "b"}})
	assert.ErrorIs(t, err, context.Canceled)
}
