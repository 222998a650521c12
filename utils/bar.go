package utils

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultLabelWidth = 24
	DefaultFilledChar = "█"
	DefaultEmptyChar  = "▱"
	MinBarWidth       = 1
)

// BarData is one row of a horizontal bar chart.
type BarData struct {
	Label      string
	Value      int
	Percentage float64 // 0-100, sets the filled width
	Style      lipgloss.Style
	Suffix     string
}

type HorizontalBarConfig struct {
	BarAreaWidth int
	LabelWidth   int
	FilledChar   string
	EmptyChar    string
	ShowPercent  bool
}

func DefaultBarConfig(barAreaWidth int) HorizontalBarConfig {
	cfg := HorizontalBarConfig{
		BarAreaWidth: barAreaWidth,
		LabelWidth:   DefaultLabelWidth,
		FilledChar:   DefaultFilledChar,
		EmptyChar:    DefaultEmptyChar,
		ShowPercent:  true,
	}
	if !termCaps.SupportsUnicode {
		cfg.FilledChar, cfg.EmptyChar = "#", "-"
	}
	return cfg
}

// CreateHorizontalBar renders "Label │████▱▱▱│ 12 (40.0%) suffix". A zero
// value draws an empty bar.
func CreateHorizontalBar(data BarData, config HorizontalBarConfig) string {
	barWidth := int(data.Percentage * float64(config.BarAreaWidth) / 100)
	if data.Value > 0 {
		barWidth = max(MinBarWidth, barWidth)
	}
	barWidth = min(barWidth, config.BarAreaWidth)
	emptyWidth := max(0, config.BarAreaWidth-barWidth)

	bar := strings.Repeat(config.FilledChar, barWidth) +
		strings.Repeat(config.EmptyChar, emptyWidth)

	parts := []string{fmt.Sprintf("%d", data.Value)}
	if config.ShowPercent {
		parts = append(parts, fmt.Sprintf("(%4.1f%%)", data.Percentage))
	}
	if data.Suffix != "" {
		parts = append(parts, data.Suffix)
	}

	if termCaps.SupportsColor {
		bar = data.Style.Render(bar)
	}
	return fmt.Sprintf("%-*s │%s│ %s",
		config.LabelWidth, TruncateString(data.Label, config.LabelWidth), bar, strings.Join(parts, " "))
}

func CreateHorizontalBarChart(title string, bars []BarData, config HorizontalBarConfig) string {
	var lines []string
	if title != "" {
		lines = append(lines, title, "")
	}
	for _, bar := range bars {
		lines = append(lines, CreateHorizontalBar(bar, config))
	}
	return strings.Join(lines, "\n")
}
