package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-kcp/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sideStyles = map[string]lipgloss.Style{
		"a": lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		"b": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
	}

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const transcriptLines = 16

type chatModel struct {
	err        error
	ctx        context.Context
	cancel     context.CancelFunc
	pair       *pair
	engineName string
	from       string
	transcript []string
	input      textinput.Model
}

type recvMsg struct {
	err  error
	side string
	data []byte
	at   time.Time
}

type sendErrMsg struct {
	err error
}

func newChatModel(p *pair, engineName string) *chatModel {
	ti := textinput.New()
	ti.Placeholder = "message"
	ti.Width = 48
	ti.Focus()

	ctx, cancel := context.WithCancel(context.Background())
	return &chatModel{
		ctx:        ctx,
		cancel:     cancel,
		pair:       p,
		engineName: engineName,
		from:       "a",
		input:      ti,
	}
}

func (m *chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitRecv("a"), m.waitRecv("b"))
}

// waitRecv blocks on one Recv of side; the result re-arms the wait.
func (m *chatModel) waitRecv(side string) tea.Cmd {
	s, _ := m.pair.side(side)
	return func() tea.Msg {
		data, err := s.Recv(m.ctx, 0)
		return recvMsg{side: side, data: data, err: err, at: time.Now()}
	}
}

func (m *chatModel) send(s *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		if err := s.Send([]byte(text)); err != nil {
			return sendErrMsg{err: err}
		}
		return nil
	}
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit

		case "tab":
			if m.from == "a" {
				m.from = "b"
			} else {
				m.from = "a"
			}
			return m, nil

		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.err = nil
			src, _ := m.pair.side(m.from)
			return m, m.send(src, text)
		}

	case recvMsg:
		if msg.err != nil {
			if m.ctx.Err() != nil {
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		peer := "a"
		if msg.side == "a" {
			peer = "b"
		}
		m.appendLine(fmt.Sprintf("%s %s -> %s  %s",
			msg.at.Format("15:04:05.000"),
			sideStyles[peer].Render(peer),
			sideStyles[msg.side].Render(msg.side),
			string(msg.data)))
		return m, m.waitRecv(msg.side)

	case sendErrMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	if len(m.transcript) > transcriptLines {
		m.transcript = m.transcript[len(m.transcript)-transcriptLines:]
	}
}

func (m *chatModel) View() string {
	var b strings.Builder

	name := m.engineName
	if name == "" {
		name = "built-in loopback engine"
	}
	b.WriteString(titleStyle.Render("KCP Chat"))
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString("\n\n")

	for _, line := range m.transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := len(m.transcript); i < transcriptLines; i++ {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(sideStyles[m.from].Render(m.from + " > "))
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	a, bs := m.pair.side("a")
	stats := m.pair.inst.Stats()
	b.WriteString(statStyle.Render(fmt.Sprintf("ticks a=%d b=%d  calls=%d outputs=%d dropped=%d",
		a.Ticks(), bs.Ticks(), stats.Calls, stats.Outputs, stats.Dropped)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • tab switch side • esc quit"))

	return b.String()
}

func runInteractive(p *pair, engineName string) error {
	prog := tea.NewProgram(newChatModel(p, engineName), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
