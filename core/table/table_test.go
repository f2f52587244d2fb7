package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Clone(t *testing.T) {
	r := Record{"a": "1", "b": 2}
	c := r.Clone()
	assert.Equal(t, r, c)

	c["a"] = "changed"
	assert.Equal(t, "1", r["a"])

	var nilRec Record
	assert.Nil(t, nilRec.Clone())
}

func TestRecord_StringAndMissing(t *testing.T) {
	r := Record{"name": "Acme", "count": 3, "blank": "  ", "none": nil}

	assert.Equal(t, "Acme", r.String("name"))
	assert.Equal(t, "3", r.String("count"))
	assert.Equal(t, "", r.String("none"))
	assert.Equal(t, "", r.String("absent"))

	assert.False(t, r.IsMissing("name"))
	assert.False(t, r.IsMissing("count"))
	assert.True(t, r.IsMissing("blank"))
	assert.True(t, r.IsMissing("none"))
	assert.True(t, r.IsMissing("absent"))
}

func TestFromRecords(t *testing.T) {
	records := []Record{{"b": 1, "a": 2}, {"c": 3, "a": 4}}

	t.Run("union of keys", func(t *testing.T) {
		tbl := FromRecords(records)
		assert.Equal(t, []string{"a", "b", "c"}, tbl.Header)
		assert.Equal(t, 2, tbl.Len())
		assert.Equal(t, 3, tbl.Width())
	})

	t.Run("first appearance across records", func(t *testing.T) {
		tbl := FromRecords([]Record{{"z": 1}, {"a": 2, "m": 3}})
		assert.Equal(t, []string{"z", "a", "m"}, tbl.Header)
	})

	t.Run("explicit order", func(t *testing.T) {
		tbl := FromRecords(records, "c", "b", "a")
		assert.Equal(t, []string{"c", "b", "a"}, tbl.Header)
	})
}

func TestUniqueNames(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"distinct", []string{"a", "b"}, []string{"a", "b"}},
		{"repeats", []string{"a", "a", "b", "a"}, []string{"a", "a.1", "b", "a.2"}},
		{"suffix already taken", []string{"a", "a", "a.1"}, []string{"a", "a.2", "a.1"}},
		{"blank names", []string{"", ""}, []string{"", ".1"}},
		{"empty", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UniqueNames(tt.input))
		})
	}
}

func TestTable_Accessors(t *testing.T) {
	header := []string{"name", "score"}
	tbl := New(header, []Record{
		{"name": "x", "score": "1"},
		{"name": "y", "score": "2"},
		{"name": "z", "score": "3"},
	})

	header[0] = "mutated"
	assert.Equal(t, "name", tbl.Header[0], "header is copied")

	assert.True(t, tbl.HasField("score"))
	assert.False(t, tbl.HasField("other"))
	assert.Equal(t, []any{"1", "2", "3"}, tbl.Column("score"))

	head := tbl.Head(2)
	assert.Equal(t, 2, head.Len())
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 3, tbl.Head(10).Len())
	assert.Equal(t, 3, tbl.Head(-1).Len())

	var nilTable *Table
	assert.Equal(t, 0, nilTable.Len())
	assert.Equal(t, 0, nilTable.Width())
}
