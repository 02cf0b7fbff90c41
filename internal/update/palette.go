package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todotui/internal/commands"
	"github.com/sandeepkv93/todotui/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		return m.executePaletteCommand(m.commandInput.Value())
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

func (m *Model) closePalette() {
	m.Palette = false
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand(input string) (Model, tea.Cmd) {
	m.closePalette()
	cmd, err := commands.Parse(strings.TrimSpace(input))
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var out tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			m.Tasks.OpenCreate()
			focus := m.fillForm(model.Task{Title: a.Title})
			out = tea.Batch(focus, m.Tasks.Submit(a.Title, "", ""))
			return commands.Result{Message: fmt.Sprintf("adding task: %s", a.Title)}, nil
		},
		Search: func(s commands.SearchArgs) (commands.Result, error) {
			out = m.setSearch(s.Term)
			if s.Term == "" {
				return commands.Result{Message: "search cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("searching for %q", s.Term)}, nil
		},
		Page: func(p commands.PageArgs) (commands.Result, error) {
			target := p.Number
			if p.Delta != 0 {
				target = m.Tasks.CurrentPage + p.Delta
			}
			if !m.Tasks.SetPage(target) && target != m.Tasks.CurrentPage {
				total := m.Tasks.Visible().TotalPages
				return commands.Result{}, &commands.CommandError{
					Code:    commands.ErrCodeInvalidArgument,
					Message: fmt.Sprintf("page %d out of range 1-%d", target, total),
				}
			}
			m.Cursor = 0
			return commands.Result{Message: fmt.Sprintf("page %d", m.Tasks.CurrentPage)}, nil
		},
		Reload: func() (commands.Result, error) {
			out = tea.Batch(m.Tasks.Load(), m.startSpinner())
			return commands.Result{Message: "reloading tasks"}, nil
		},
		Logout: func() (commands.Result, error) {
			out = m.logout()
			return commands.Result{Message: "logging out"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, out
}
