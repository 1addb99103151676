package monitor

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mdouchement/tenmactl"
	"github.com/mdouchement/tenmactl/tenma"
)

var footer = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))

type toggled struct {
	err error
}

type model struct {
	ps     *tenma.PowerSupply
	table  table.Model
	mode   *tenma.OperatingMode
	status string
}

func newTUI(ps *tenma.PowerSupply) *model {
	columns := []table.Column{
		{Title: "Channels", Width: 10},
		{Title: "Mode", Width: 6},
		{Title: "Voltage", Width: 10},
		{Title: "Current", Width: 10},
		{Title: "Power", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		Foreground(lipgloss.Color("#00afff")).
		BorderForeground(lipgloss.Color("#00afff")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Bold(false)
	t.SetStyles(s)

	return &model{
		ps:    ps,
		table: t,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height - 2)
	case tenmactl.Reading:
		m.update(msg)
	case toggled:
		m.status = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "o":
			return m, m.toggle()
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	help := fmt.Sprintf("%s - o: toggle output - q: quit", m.output())
	if m.status != "" {
		help += " - " + m.status
	}
	return m.table.View() + "\n" + footer.Render(help)
}

func (m *model) output() string {
	if m.mode == nil {
		return "Output: -"
	}
	if m.mode.Output1 {
		return "Output: ON"
	}
	return "Output: OFF"
}

// toggle switches the outputs outside of the event loop.
func (m *model) toggle() tea.Cmd {
	enable := m.mode == nil || !m.mode.Output1
	ps := m.ps

	return func() tea.Msg {
		if enable {
			return toggled{err: ps.On()}
		}
		return toggled{err: ps.Off()}
	}
}

func (m *model) update(r tenmactl.Reading) {
	if r.Mode != nil {
		m.mode = r.Mode
	}

	rows := make([]table.Row, 0, len(r.Samples))
	for _, sample := range r.Samples {
		current, power := "-", "-"
		if sample.Current != nil {
			current = fmt.Sprintf("%6.3f A", *sample.Current)
			power = fmt.Sprintf("%6.2f W", sample.Power())
		}

		rows = append(rows, table.Row{
			fmt.Sprintf("CH%d", sample.Channel),
			m.channelMode(sample.Channel),
			fmt.Sprintf("%6.2f V", sample.Voltage),
			current,
			power,
		})
	}

	m.table.SetRows(rows)
}

func (m *model) channelMode(channel int) string {
	if m.mode == nil {
		return "-"
	}

	switch channel {
	case 1:
		return m.mode.Channel1.String()
	case 2:
		return m.mode.Channel2.String()
	default:
		return "-"
	}
}
