package finding

import (
	"cmp"
	"slices"
)

type Kind string

const (
	KindHibernateIntField Kind = "HibernateIntField"
	KindJdbcTemplateInt   Kind = "JdbcTemplateInt"
	KindPreparedStatement Kind = "PreparedStatement"
)

// Finding is one detector hit. Each kind carries only the fields that mean
// something for it; Record flattens it into a report row.
type Finding interface {
	Kind() Kind
	ClassName() string
	Record() Record
}

// Record is the flat report row shared by every output format.
type Record struct {
	Type         Kind   `json:"type"`
	ClassName    string `json:"className"`
	MethodName   string `json:"methodName"`
	BytecodeLine int    `json:"bytecodeLine"`
	SQLSnippet   string `json:"sqlSnippet,omitempty"`
	Table        string `json:"table,omitempty"`
	Column       string `json:"column,omitempty"`
	JavaType     string `json:"javaType,omitempty"`
}

// EntityIntField is an int or Integer field on a persistence entity.
type EntityIntField struct {
	Class    string
	Field    string
	Table    string // empty when the entity has no @Table name
	Column   string // empty when the field has no @Column name
	JavaType string
}

func (f EntityIntField) Kind() Kind        { return KindHibernateIntField }
func (f EntityIntField) ClassName() string { return f.Class }

func (f EntityIntField) Record() Record {
	return Record{
		Type:         f.Kind(),
		ClassName:    f.Class,
		MethodName:   f.Field,
		BytecodeLine: -1,
		Table:        f.Table,
		Column:       f.Column,
		JavaType:     f.JavaType,
	}
}

// TemplateIntUpdate is a JdbcTemplate update call preceded by Integer boxing.
type TemplateIntUpdate struct {
	Class    string
	Method   string
	Line     int
	SQL      string
	Template string // owner type of the update call
}

func (f TemplateIntUpdate) Kind() Kind        { return KindJdbcTemplateInt }
func (f TemplateIntUpdate) ClassName() string { return f.Class }

func (f TemplateIntUpdate) Record() Record {
	return Record{
		Type:         f.Kind(),
		ClassName:    f.Class,
		MethodName:   f.Method,
		BytecodeLine: f.Line,
		SQLSnippet:   f.SQL,
	}
}

// StatementSetter is a PreparedStatement setter bound to modifying SQL.
type StatementSetter struct {
	Class  string
	Method string
	Line   int
	SQL    string
	Setter string
	Slot   int // local holding the statement, -1 when it was never stored
}

func (f StatementSetter) Kind() Kind        { return KindPreparedStatement }
func (f StatementSetter) ClassName() string { return f.Class }

func (f StatementSetter) Record() Record {
	return Record{
		Type:         f.Kind(),
		ClassName:    f.Class,
		MethodName:   f.Method,
		BytecodeLine: f.Line,
		SQLSnippet:   f.SQL,
	}
}

// Records projects findings in order.
func Records(findings []Finding) []Record {
	out := make([]Record, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Record())
	}
	return out
}

// SortRecords orders by class name. Ties are broken on the remaining
// columns so concurrent scans of the same tree produce identical output.
func SortRecords(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return cmp.Or(
			cmp.Compare(a.ClassName, b.ClassName),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.MethodName, b.MethodName),
			cmp.Compare(a.BytecodeLine, b.BytecodeLine),
			cmp.Compare(a.SQLSnippet, b.SQLSnippet),
			cmp.Compare(a.Column, b.Column),
		)
	})
}

// CountByKind tallies records per detector kind.
func CountByKind(records []Record) map[Kind]int {
	counts := make(map[Kind]int)
	for _, r := range records {
		counts[r.Type]++
	}
	return counts
}
