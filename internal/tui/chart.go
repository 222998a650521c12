package tui

import (
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/inthunter/internal/finding"
	"github.com/mabhi256/inthunter/internal/report"
	"github.com/mabhi256/inthunter/utils"
)

const (
	ChartHeight   = 8
	MinChartWidth = 24
)

var chartKinds = []finding.Kind{
	finding.KindHibernateIntField,
	finding.KindJdbcTemplateInt,
	finding.KindPreparedStatement,
}

var chartLabels = map[finding.Kind]string{
	finding.KindHibernateIntField: "Entity",
	finding.KindJdbcTemplateInt:   "Template",
	finding.KindPreparedStatement: "Stmt",
}

// RenderChart draws one vertical bar per finding kind.
func RenderChart(records []finding.Record, width int) string {
	counts := finding.CountByKind(records)

	data := make([]barchart.BarData, 0, len(chartKinds))
	for _, kind := range chartKinds {
		data = append(data, barchart.BarData{
			Label: chartLabels[kind],
			Values: []barchart.BarValue{{
				Name:  string(kind),
				Value: float64(counts[kind]),
				Style: lipgloss.NewStyle().Foreground(report.KindStyle(kind).GetForeground()),
			}},
		})
	}

	chartWidth := max(MinChartWidth, min(width/2, 60))
	bc := barchart.New(chartWidth, ChartHeight)
	bc.PushAll(data)
	bc.Draw()

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(utils.BorderColor).
		Render(bc.View())
}
