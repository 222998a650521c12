package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/inthunter/internal/finding"
)

func sampleRecords() []finding.Record {
	return []finding.Record{
		{Type: finding.KindPreparedStatement, ClassName: "client.Repo", MethodName: "save", BytecodeLine: 41, SQLSnippet: "INSERT INTO audit(id) VALUES (?)"},
		{Type: finding.KindJdbcTemplateInt, ClassName: "client.UserDao", MethodName: "insertUserxx", BytecodeLine: 31, SQLSnippet: "INSERT INTO users(name,email,age) VALUES(?,?,?)"},
		{Type: finding.KindHibernateIntField, ClassName: "com.example.User", MethodName: "age", BytecodeLine: -1, Table: "users", JavaType: "java.lang.Integer"},
		{Type: finding.KindHibernateIntField, ClassName: "com.example.User", MethodName: "id", BytecodeLine: -1, Table: "users", Column: "user_id", JavaType: "int"},
	}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestModel_TabsFilterRecords(t *testing.T) {
	m := initialModel(sampleRecords(), "scan-report.csv")
	assert.Len(t, m.visible, 4)

	press(m, "2")
	assert.Equal(t, HibernateTab, m.currentTab)
	require.Len(t, m.visible, 2)
	assert.Equal(t, "age", m.visible[0].MethodName)

	press(m, "l")
	assert.Equal(t, TemplateTab, m.currentTab)
	assert.Len(t, m.visible, 1)

	press(m, "l", "l")
	assert.Equal(t, AllTab, m.currentTab, "right wraps past the last tab")

	press(m, "h")
	assert.Equal(t, StatementTab, m.currentTab)
}

func TestModel_SelectionAndDetail(t *testing.T) {
	m := initialModel(sampleRecords(), "scan-report.csv")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	press(m, "2", "down")
	rec, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "id", rec.MethodName)

	press(m, "enter")
	assert.True(t, m.showDetail)
	assert.Contains(t, m.View(), "user_id")

	press(m, "esc")
	assert.False(t, m.showDetail)

	press(m, "enter", "1")
	assert.False(t, m.showDetail, "switching tabs closes the detail pane")
}

func TestModel_Quit(t *testing.T) {
	m := initialModel(nil, "empty.csv")
	for _, k := range []string{"q", "ctrl+c"} {
		cmd := press(m, k)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_View(t *testing.T) {
	m := initialModel(sampleRecords(), "scan-report.csv")
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	out := m.View()
	assert.Contains(t, out, "scan-report.csv")
	assert.Contains(t, out, "Entities (2)")
	assert.Contains(t, out, "client.Repo")

	empty := initialModel(nil, "empty.csv")
	empty.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	assert.Contains(t, empty.View(), "No findings in this view")
	press(empty, "enter")
	assert.False(t, empty.showDetail)
}

func TestLastColumn(t *testing.T) {
	recs := sampleRecords()
	assert.Equal(t, "INSERT INTO audit(id) VALUES (?)", lastColumn(recs[0]))
	assert.Equal(t, "java.lang.Integer table=users", lastColumn(recs[2]))
	assert.Equal(t, "int table=users column=user_id", lastColumn(recs[3]))
}
