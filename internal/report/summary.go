package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/inthunter/internal/finding"
	"github.com/mabhi256/inthunter/utils"
)

var kindOrder = []finding.Kind{
	finding.KindHibernateIntField,
	finding.KindJdbcTemplateInt,
	finding.KindPreparedStatement,
}

// KindStyle is the color used for a finding kind in terminal output.
func KindStyle(kind finding.Kind) lipgloss.Style {
	switch kind {
	case finding.KindHibernateIntField:
		return utils.CriticalStyle
	case finding.KindJdbcTemplateInt:
		return utils.WarningStyle
	case finding.KindPreparedStatement:
		return utils.InfoStyle
	default:
		return utils.MutedStyle
	}
}

// Summary renders per-kind counts as a bar chart, plus the number of
// distinct classes affected.
func Summary(records []finding.Record, width int) string {
	if len(records) == 0 {
		return utils.GoodStyle.Render("✅ No int-typed identifiers found")
	}

	counts := finding.CountByKind(records)
	classes := make(map[string]bool)
	for _, r := range records {
		classes[r.ClassName] = true
	}

	barWidth := max(10, width-utils.DefaultLabelWidth-24)
	var bars []utils.BarData
	for _, kind := range kindOrder {
		n := counts[kind]
		bars = append(bars, utils.BarData{
			Label:      string(kind),
			Value:      n,
			Percentage: float64(n) * 100 / float64(len(records)),
			Style:      KindStyle(kind),
		})
	}

	title := utils.TitleStyle.Render(fmt.Sprintf("%d findings in %d classes", len(records), len(classes)))
	return utils.BoxStyle.Render(utils.CreateHorizontalBarChart(title, bars, utils.DefaultBarConfig(barWidth)))
}
