package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"

	"github.com/mabhi256/inthunter/internal/finding"
)

type Model struct {
	// Data
	records []finding.Record
	source  string
	visible []finding.Record // records passing the current tab filter

	// UI State
	currentTab TabType
	width      int
	height     int
	showDetail bool

	table table.Model
	help  help.Model
	keys  KeyMap
}

type TabType int

const (
	AllTab TabType = iota
	HibernateTab
	TemplateTab
	StatementTab
)

const lastTab = StatementTab

var tabNames = []string{"All", "Entities", "JdbcTemplate", "Statements"}

// Kind is the finding kind shown on the tab, empty for AllTab.
func (t TabType) Kind() finding.Kind {
	switch t {
	case HibernateTab:
		return finding.KindHibernateIntField
	case TemplateTab:
		return finding.KindJdbcTemplateInt
	case StatementTab:
		return finding.KindPreparedStatement
	default:
		return ""
	}
}

type KeyMap struct {
	Tab1   key.Binding
	Tab2   key.Binding
	Tab3   key.Binding
	Tab4   key.Binding
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Escape key.Binding
	Quit   key.Binding
}

func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Left, km.Right, km.Enter, km.Quit}
}

func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Up, km.Down, km.Left, km.Right},
		{km.Tab1, km.Tab2, km.Tab3, km.Tab4},
		{km.Enter, km.Escape, km.Quit},
	}
}

func k(keys []string, help, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(help, desc),
	)
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:   k([]string{"1"}, "1", "all"),
		Tab2:   k([]string{"2"}, "2", "entities"),
		Tab3:   k([]string{"3"}, "3", "jdbc template"),
		Tab4:   k([]string{"4"}, "4", "statements"),
		Left:   k([]string{"left", "h", "shift+tab"}, "←/h", "prev tab"),
		Right:  k([]string{"right", "l", "tab"}, "→/l", "next tab"),
		Up:     k([]string{"up", "k"}, "↑/k", "up"),
		Down:   k([]string{"down", "j"}, "↓/j", "down"),
		Enter:  k([]string{"enter"}, "enter", "details"),
		Escape: k([]string{"esc"}, "esc", "close details"),
		Quit:   k([]string{"q", "ctrl+c"}, "q", "quit"),
	}
}
