package finding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestRecordProjection(t *testing.T) {
	findings := []Finding{
		EntityIntField{Class: "a.User", Field: "age", Table: "users", JavaType: "int"},
		TemplateIntUpdate{Class: "a.Dao", Method: "save", Line: 42, SQL: "INSERT INTO t VALUES (?)", Template: "x.JdbcTemplate"},
		StatementSetter{Class: "a.Repo", Method: "put", Line: -1, SQL: "UPDATE t SET a=?", Setter: "setInt", Slot: 3},
	}

	want := []Record{
		{Type: KindHibernateIntField, ClassName: "a.User", MethodName: "age", BytecodeLine: -1, Table: "users", JavaType: "int"},
		{Type: KindJdbcTemplateInt, ClassName: "a.Dao", MethodName: "save", BytecodeLine: 42, SQLSnippet: "INSERT INTO t VALUES (?)"},
		{Type: KindPreparedStatement, ClassName: "a.Repo", MethodName: "put", BytecodeLine: -1, SQLSnippet: "UPDATE t SET a=?"},
	}
	if diff := cmp.Diff(want, Records(findings)); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
}

func TestSortRecords_ByClassThenStable(t *testing.T) {
	records := []Record{
		{Type: KindJdbcTemplateInt, ClassName: "b.B", MethodName: "x"},
		{Type: KindHibernateIntField, ClassName: "a.A", MethodName: "z"},
		{Type: KindHibernateIntField, ClassName: "a.A", MethodName: "y"},
		{Type: KindPreparedStatement, ClassName: "c.C", MethodName: "w"},
	}
	SortRecords(records)

	var got []string
	for _, r := range records {
		got = append(got, r.ClassName+"#"+r.MethodName)
	}
	assert.Equal(t, []string{"a.A#y", "a.A#z", "b.B#x", "c.C#w"}, got)
}

func TestCountByKind(t *testing.T) {
	counts := CountByKind([]Record{
		{Type: KindJdbcTemplateInt},
		{Type: KindJdbcTemplateInt},
		{Type: KindPreparedStatement},
	})
	assert.Equal(t, map[Kind]int{KindJdbcTemplateInt: 2, KindPreparedStatement: 1}, counts)
}
