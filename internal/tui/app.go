package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/inthunter/internal/finding"
	"github.com/mabhi256/inthunter/utils"
)

// rows taken by the header, chart, help bar and borders
const chromeHeight = 6 + ChartHeight

func initialModel(records []finding.Record, source string) *Model {
	m := &Model{
		records:    records,
		source:     source,
		currentTab: AllTab,
		table: table.New(
			table.WithColumns(columns(80)),
			table.WithFocused(true),
			table.WithHeight(10),
		),
		help: help.New(),
		keys: DefaultKeyMap(),
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(utils.BorderColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(utils.InfoColor)
	m.table.SetStyles(styles)

	m.applyFilter()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(3, msg.Height-chromeHeight))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab1):
			m.setTab(AllTab)
		case key.Matches(msg, m.keys.Tab2):
			m.setTab(HibernateTab)
		case key.Matches(msg, m.keys.Tab3):
			m.setTab(TemplateTab)
		case key.Matches(msg, m.keys.Tab4):
			m.setTab(StatementTab)
		case key.Matches(msg, m.keys.Left):
			m.setTab(utils.CycleEnum(m.currentTab, -1, lastTab))
		case key.Matches(msg, m.keys.Right):
			m.setTab(utils.CycleEnum(m.currentTab, 1, lastTab))
		case key.Matches(msg, m.keys.Enter):
			m.showDetail = !m.showDetail && len(m.visible) > 0
		case key.Matches(msg, m.keys.Escape):
			m.showDetail = false
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) setTab(tab TabType) {
	if tab == m.currentTab {
		return
	}
	m.currentTab = tab
	m.showDetail = false
	m.applyFilter()
}

// applyFilter recomputes the visible records for the current tab and
// resets the cursor.
func (m *Model) applyFilter() {
	m.visible = filterRecords(m.records, m.currentTab.Kind())
	m.table.SetRows(rows(m.visible))
	m.table.SetCursor(0)
}

// Selected returns the record under the cursor.
func (m *Model) Selected() (finding.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return finding.Record{}, false
	}
	return m.visible[i], true
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	if rec, ok := m.Selected(); ok && m.showDetail {
		content = RenderDetail(rec, m.width)
	} else if len(m.visible) == 0 {
		content = utils.MutedStyle.Render("No findings in this view")
	} else {
		content = m.table.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		RenderChart(m.records, m.width),
		content,
		utils.HelpBarStyle.Width(m.width).Render(m.help.View(m.keys)),
	)
}

func (m *Model) renderHeader() string {
	counts := finding.CountByKind(m.records)

	var tabs []string
	for i, name := range tabNames {
		tab := TabType(i)
		n := len(m.records)
		if kind := tab.Kind(); kind != "" {
			n = counts[kind]
		}

		style := utils.TabInactiveStyle
		indicator := " "
		if tab == m.currentTab {
			style = utils.TabActiveStyle
			indicator = "●"
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%s %s (%d) [%d]", indicator, name, n, i+1)))
	}

	title := utils.TitleStyle.Render("inthunter") + utils.MutedStyle.Render(m.source)
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		strings.Join(tabs, "  "),
		strings.Repeat("─", m.width),
	)
}

// StartTUI browses records loaded from source until the user quits.
func StartTUI(records []finding.Record, source string) error {
	program := tea.NewProgram(
		initialModel(records, source),
		tea.WithAltScreen(),
	)

	_, err := program.Run()
	return err
}
