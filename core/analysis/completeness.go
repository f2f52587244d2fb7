// Package analysis profiles tables of company records: how complete each
// record is, which columns are numeric or binary, which values are outliers,
// and per-column summary statistics.
//
// A value is missing when the field is absent, nil, or a blank string.
package analysis

import "github.com/asaidimu/go-tabula/core/table"

// GroupName identifies a completeness band.
type GroupName string

// Completeness bands, by percentage of header fields that hold a value.
const (
	GroupComplete GroupName = "complete"            // 100%
	GroupHigh     GroupName = "high_completeness"   // [80, 100)
	GroupMedium   GroupName = "medium_completeness" // [50, 80)
	GroupLow      GroupName = "low_completeness"    // below 50
)

// groupOrder is the order groups are reported in.
var groupOrder = []GroupName{GroupComplete, GroupHigh, GroupMedium, GroupLow}

// RecordCompleteness describes one record.
type RecordCompleteness struct {
	Index      int     `json:"index"`
	Present    int     `json:"present"`
	Missing    int     `json:"missing_features"`
	Percentage float64 `json:"completeness_percentage"`
}

// Group lists the records, by index into the table, that fall in one band.
type Group struct {
	Name    GroupName `json:"name"`
	Indices []int     `json:"indices"`
}

// Count returns the number of records in the group.
func (g Group) Count() int { return len(g.Indices) }

// CompletenessReport is the result of Completeness.
type CompletenessReport struct {
	Records []RecordCompleteness `json:"records"`
	// Groups holds only non-empty bands, in band order.
	Groups []Group `json:"groups"`
	// Overall is the share of present cells across the whole table.
	Overall float64 `json:"overall_completeness"`
}

// Group returns the band with the given name.
func (r *CompletenessReport) Group(name GroupName) (Group, bool) {
	for _, g := range r.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Select returns the records of t that fall in the named band, in table order.
func (r *CompletenessReport) Select(t *table.Table, name GroupName) []table.Record {
	g, ok := r.Group(name)
	if !ok {
		return []table.Record{}
	}
	out := make([]table.Record, 0, len(g.Indices))
	for _, i := range g.Indices {
		if i < len(t.Records) {
			out = append(out, t.Records[i])
		}
	}
	return out
}

// Completeness measures each record against the header and groups records
// into completeness bands.
func Completeness(t *table.Table) *CompletenessReport {
	report := &CompletenessReport{
		Records: make([]RecordCompleteness, 0, t.Len()),
		Groups:  []Group{},
	}
	width := t.Width()
	if width == 0 {
		return report
	}

	bands := make(map[GroupName][]int)
	presentCells := 0
	for i, rec := range t.Records {
		present := 0
		for _, field := range t.Header {
			if !rec.IsMissing(field) {
				present++
			}
		}
		presentCells += present
		pct := float64(present) / float64(width) * 100
		report.Records = append(report.Records, RecordCompleteness{
			Index:      i,
			Present:    present,
			Missing:    width - present,
			Percentage: pct,
		})
		name := band(present, width, pct)
		bands[name] = append(bands[name], i)
	}

	for _, name := range groupOrder {
		if idx := bands[name]; len(idx) > 0 {
			report.Groups = append(report.Groups, Group{Name: name, Indices: idx})
		}
	}
	if n := t.Len(); n > 0 {
		report.Overall = float64(presentCells) / float64(n*width) * 100
	}
	return report
}

func band(present, width int, pct float64) GroupName {
	switch {
	case present == width:
		return GroupComplete
	case pct >= 80:
		return GroupHigh
	case pct >= 50:
		return GroupMedium
	default:
		return GroupLow
	}
}
