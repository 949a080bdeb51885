package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Choose: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "choose"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc", "q"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// choiceModel is the bubbletea model for a single-choice prompt.
type choiceModel struct {
	title     string
	labels    []string
	cursor    int
	chosen    string
	cancelled bool
	keys      keyMap
	help      help.Model
	styles    Styles
}

func newChoiceModel(title string, labels []string, styles Styles) *choiceModel {
	return &choiceModel{
		title:  title,
		labels: labels,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: styles,
	}
}

// Init implements tea.Model.
func (m *choiceModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.labels)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Choose):
			m.chosen = m.labels[m.cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

// View implements tea.Model.
func (m *choiceModel) View() string {
	if m.chosen != "" || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n\n")
	for i, l := range m.labels {
		if i == m.cursor {
			b.WriteString(m.styles.Cursor.Render("> "))
			b.WriteString(m.styles.Selected.Render(l))
		} else {
			b.WriteString("  ")
			b.WriteString(m.styles.Option.Render(l))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render(m.help.View(m.keys)))
	return m.styles.Panel.Render(b.String()) + "\n"
}

// runChoice shows the prompt on the terminal until a label is chosen.
func runChoice(ctx context.Context, cfg Config, styles Styles, title string, labels []string) (string, error) {
	model := newChoiceModel(title, labels, styles)
	p := tea.NewProgram(model,
		tea.WithInput(cfg.Input),
		tea.WithOutput(cfg.Output),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m, ok := final.(*choiceModel)
	if !ok || m.cancelled || m.chosen == "" {
		return "", ErrNoChoice
	}
	return m.chosen, nil
}
