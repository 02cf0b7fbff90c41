// Package update is the root bubbletea model. It routes between the
// checking placeholder, the login and registration forms and the task
// screen based on the session, and turns key presses into session and task
// list operations.
package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/guard"
	"github.com/sandeepkv93/todotui/internal/tasklist"
	"github.com/sandeepkv93/todotui/internal/views"
)

// Init restores the persisted session off the UI goroutine; the checking
// placeholder is shown until it finishes.
func (m Model) Init() tea.Cmd {
	ctx, session := m.ctx, m.session
	hydrate := func() tea.Msg {
		session.Hydrate(ctx)
		return sessionChangedMsg{}
	}
	return tea.Batch(hydrate, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(typed.Width/2-4, 32)
		m.helpModel.Width = typed.Width
		return m, nil
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		next, cmd := m.handleKey(typed)
		next, routeCmd := next.syncRoute()
		return next, tea.Batch(cmd, routeCmd)
	case spinner.TickMsg:
		if !m.busy() {
			m.spinnerActive = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		m.spinnerActive = true
		return m, cmd
	case sessionChangedMsg:
		m.Submitting = false
	case authDoneMsg:
		m.Submitting = false
		if typed.Err == nil {
			m.clearAuthInputs()
			m.Status = StatusBar{}
		}
	case logoutDoneMsg:
		m.Status = StatusBar{Text: "logged out"}
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case tasklist.SubmitResult:
		if !m.Tasks.Accepts(typed) {
			break
		}
		cmds = append(cmds, m.Tasks.Update(typed))
		if typed.OK() {
			m.blurForm()
			if typed.Created() {
				m.Status = StatusBar{Text: "task created"}
			} else {
				m.Status = StatusBar{Text: "task updated"}
			}
		} else if m.Tasks.FormOpen {
			cmds = append(cmds, m.focusForm(m.formFocus))
		}
		m.noteSessionLoss(typed.Err)
	case tasklist.LoadedMsg:
		if !m.Tasks.Accepts(typed) {
			break
		}
		cmds = append(cmds, m.Tasks.Update(typed))
		m.noteSessionLoss(typed.Err)
	case tasklist.ToggledMsg:
		if !m.Tasks.Accepts(typed) {
			break
		}
		cmds = append(cmds, m.Tasks.Update(typed))
		m.noteSessionLoss(typed.Err)
	case tasklist.RemovedMsg:
		if !m.Tasks.Accepts(typed) {
			break
		}
		cmds = append(cmds, m.Tasks.Update(typed))
		if typed.Err == nil {
			m.Status = StatusBar{Text: "task deleted"}
		}
		m.noteSessionLoss(typed.Err)
	default:
		cmds = append(cmds, m.Tasks.Update(msg))
	}

	m.clampCursor()
	next, cmd := m.syncRoute()
	cmds = append(cmds, cmd)
	return next, tea.Batch(cmds...)
}

// View never panics: a rendering failure is logged and replaced with a
// fallback screen.
func (m Model) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("render panic", "panic", r, "screen", m.Screen)
			out = views.RenderFatal(fmt.Sprint(r))
		}
	}()
	if m.Quitting {
		return ""
	}

	var body, side string
	switch m.Screen {
	case ScreenChecking:
		body = views.RenderChecking(m.spinner.View())
	case ScreenLogin:
		body = m.renderLogin()
	case ScreenRegister:
		body = m.renderRegister()
	case ScreenTasks:
		body, side = m.renderTasks()
	}
	if m.Palette {
		body += "\n\n" + views.RenderCommandPalette(true, m.commandInput.View())
	}
	if h := m.renderHelpIfVisible(); h != "" {
		side = strings.TrimSpace(side + "\n\n" + h)
	}

	return views.RenderApp(views.AppData{
		Header:      m.header(),
		Body:        body,
		Side:        side,
		StatusLine:  m.statusLine(),
		StatusError: m.Status.IsError,
		Footer:      m.footer(),
	})
}

// syncRoute re-reads the session and moves to the screen the guard allows.
// A newly authenticated user gets a fresh task list.
func (m Model) syncRoute() (Model, tea.Cmd) {
	s := m.session.Snapshot()
	m.Route = guard.Evaluate(s)

	switch m.Route {
	case guard.Authenticated:
		if m.tasksOwner == s.UserID() && m.Screen == ScreenTasks {
			return m, nil
		}
		m.tasksOwner = s.UserID()
		m.Tasks = tasklist.New(m.ctx, m.gateway,
			tasklist.WithViewer(s.UserID()),
			tasklist.WithSearchDelay(m.searchDelay),
		)
		m.Screen = ScreenTasks
		m.Cursor = 0
		m.Searching = false
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.logger.Info("showing tasks", "user", s.User.Username)
		return m, tea.Batch(m.Tasks.Init(), m.startSpinner())
	case guard.Checking:
		if m.Screen == ScreenChecking {
			return m, m.startSpinner()
		}
		// A login or registration in flight keeps its form on screen.
		return m, nil
	default:
		if m.Screen == ScreenLogin || m.Screen == ScreenRegister {
			return m, nil
		}
		if m.Screen == ScreenTasks {
			m.logger.Info("session ended, showing login")
		}
		m.tasksOwner = 0
		m.Tasks = tasklist.Controller{}
		m.Palette = false
		m.Searching = false
		return m, m.openLogin()
	}
}

func (m Model) busy() bool {
	switch m.Screen {
	case ScreenChecking:
		return true
	case ScreenTasks:
		return m.Tasks.IsLoading || m.Tasks.Submitting
	default:
		return m.Submitting
	}
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive || !m.busy() {
		return nil
	}
	m.spinnerActive = true
	return m.spinner.Tick
}

func (m *Model) noteSessionLoss(err error) {
	if errors.Is(err, apiclient.ErrAuthInvalid) {
		m.Status = StatusBar{Text: "session expired", IsError: true}
	}
}

func (m Model) header() string {
	s := m.session.Snapshot()
	if !s.Authenticated() {
		return "todotui"
	}
	out := fmt.Sprintf("todotui | %s", s.User.DisplayName())
	if !s.ExpiresAt.IsZero() {
		out += fmt.Sprintf(" | token until %s", s.ExpiresAt.Local().Format("15:04"))
	}
	return out
}

func (m Model) statusLine() string {
	if m.Status.Text == "" {
		return ""
	}
	if m.Status.IsError {
		return "status: error: " + m.Status.Text
	}
	return "status: " + m.Status.Text
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Palette {
		return m.handlePaletteKey(msg)
	}
	switch m.Screen {
	case ScreenLogin, ScreenRegister:
		return m.handleAuthKey(msg)
	case ScreenTasks:
		return m.handleTasksKey(msg)
	default:
		if key.Matches(msg, m.keys.Quit) {
			m.Quitting = true
			return m, tea.Quit
		}
		return m, nil
	}
}
