package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/inthunter/internal/finding"
	"github.com/mabhi256/inthunter/internal/report"
	"github.com/mabhi256/inthunter/utils"
)

func filterRecords(records []finding.Record, kind finding.Kind) []finding.Record {
	if kind == "" {
		return records
	}
	var out []finding.Record
	for _, r := range records {
		if r.Type == kind {
			out = append(out, r)
		}
	}
	return out
}

// columns splits width between the table columns; class and SQL take
// whatever the fixed columns leave.
func columns(width int) []table.Column {
	const typeW, methodW, lineW = 18, 18, 6
	flex := max(20, width-typeW-methodW-lineW-10)
	classW := flex * 2 / 5
	return []table.Column{
		{Title: "Type", Width: typeW},
		{Title: "Class", Width: classW},
		{Title: "Method/Field", Width: methodW},
		{Title: "Line", Width: lineW},
		{Title: "SQL / Column", Width: flex - classW},
	}
}

func rows(records []finding.Record) []table.Row {
	out := make([]table.Row, 0, len(records))
	for _, r := range records {
		line := "-"
		if r.BytecodeLine >= 0 {
			line = strconv.Itoa(r.BytecodeLine)
		}
		out = append(out, table.Row{
			string(r.Type),
			r.ClassName,
			r.MethodName,
			line,
			utils.SanitizeString(lastColumn(r)),
		})
	}
	return out
}

func lastColumn(r finding.Record) string {
	if r.Type != finding.KindHibernateIntField {
		return r.SQLSnippet
	}
	parts := []string{r.JavaType}
	if r.Table != "" {
		parts = append(parts, "table="+r.Table)
	}
	if r.Column != "" {
		parts = append(parts, "column="+r.Column)
	}
	return strings.Join(parts, " ")
}

// RenderDetail shows every field of one record, wrapping the SQL.
func RenderDetail(r finding.Record, width int) string {
	const keyWidth = 14
	line := "unknown"
	if r.BytecodeLine >= 0 {
		line = strconv.Itoa(r.BytecodeLine)
	}

	lines := []string{
		report.KindStyle(r.Type).Render(string(r.Type)),
		"",
		utils.FormatKeyValue("Class", r.ClassName, keyWidth),
		utils.FormatKeyValue("Member", r.MethodName, keyWidth),
		utils.FormatKeyValue("Line", line, keyWidth),
	}
	for _, kv := range [][2]string{{"Table", r.Table}, {"Column", r.Column}, {"Java type", r.JavaType}} {
		if kv[1] != "" {
			lines = append(lines, utils.FormatKeyValue(kv[0], kv[1], keyWidth))
		}
	}
	if r.SQLSnippet != "" {
		lines = append(lines, "", utils.InfoStyle.Render("SQL"))
		for _, l := range utils.WrapText(r.SQLSnippet, max(20, width-8)) {
			lines = append(lines, utils.TextStyle.Render(l))
		}
	}

	return utils.BoxStyle.Width(max(20, width-4)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
