package update

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todotui/internal/model"
	"github.com/sandeepkv93/todotui/internal/tasklist"
	"github.com/sandeepkv93/todotui/internal/views"
)

func (m Model) selected() (model.Task, bool) {
	page := m.Tasks.Visible()
	if m.Cursor < 0 || m.Cursor >= len(page.Tasks) {
		return model.Task{}, false
	}
	return page.Tasks[m.Cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.Tasks.Visible().Tasks)
	m.Cursor = min(max(m.Cursor, 0), max(n-1, 0))
}

func (m Model) handleTasksKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Tasks.FormOpen {
		return m.handleFormKey(msg)
	}
	if m.Searching {
		return m.handleSearchKey(msg)
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.HelpOpen = !m.HelpOpen
	case key.Matches(msg, k.Palette):
		m.Palette = true
		m.commandInput.SetValue("")
		return m, m.commandInput.Focus()
	case key.Matches(msg, k.Up):
		m.Cursor--
	case key.Matches(msg, k.Down):
		m.Cursor++
	case key.Matches(msg, k.PrevPage):
		if m.Tasks.PrevPage() {
			m.Cursor = 0
		}
	case key.Matches(msg, k.NextPage):
		if m.Tasks.NextPage() {
			m.Cursor = 0
		}
	case key.Matches(msg, k.Toggle):
		if task, ok := m.selected(); ok {
			return m, m.Tasks.ToggleComplete(task.ID, !task.IsCompleted)
		}
	case key.Matches(msg, k.New):
		m.Tasks.OpenCreate()
		return m, m.fillForm(model.Task{})
	case key.Matches(msg, k.Edit):
		if task, ok := m.selected(); ok {
			if err := m.Tasks.OpenEdit(task.ID); err != nil {
				m.Status = StatusBar{Text: tasklist.MsgNotOwner, IsError: true}
				return m, nil
			}
			return m, m.fillForm(task)
		}
	case key.Matches(msg, k.Delete):
		if task, ok := m.selected(); ok {
			cmd := m.Tasks.Remove(task.ID)
			m.clampCursor()
			return m, cmd
		}
	case key.Matches(msg, k.Search):
		m.Searching = true
		return m, m.searchInput.Focus()
	case key.Matches(msg, k.Reload):
		return m, tea.Batch(m.Tasks.Load(), m.startSpinner())
	case key.Matches(msg, k.Logout):
		return m, m.logout()
	}
	m.clampCursor()
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.Searching = false
		m.searchInput.Blur()
		return m, nil
	}
	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		m.Cursor = 0
		return m, tea.Batch(cmd, m.Tasks.SetSearch(after))
	}
	return m, cmd
}

// setSearch is used by the palette to replace the whole term at once.
func (m *Model) setSearch(term string) tea.Cmd {
	m.searchInput.SetValue(term)
	m.Cursor = 0
	return m.Tasks.SetSearch(term)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Cancel):
		m.Tasks.CloseForm()
		m.blurForm()
		return m, nil
	case key.Matches(msg, k.Save):
		return m, m.submitForm()
	case key.Matches(msg, k.NextField):
		return m, m.focusForm(m.formFocus + 1)
	case key.Matches(msg, k.PrevField):
		return m, m.focusForm(m.formFocus - 1)
	}

	var cmd tea.Cmd
	switch m.formFocus {
	case formTitle:
		if msg.String() == "enter" {
			return m, m.focusForm(formDescription)
		}
		m.titleInput, cmd = m.titleInput.Update(msg)
	case formDescription:
		m.descArea, cmd = m.descArea.Update(msg)
	case formDue:
		if msg.String() == "enter" {
			return m, m.submitForm()
		}
		m.dueInput, cmd = m.dueInput.Update(msg)
	}
	return m, cmd
}

// submitForm is a no-op while a save is already in flight.
func (m *Model) submitForm() tea.Cmd {
	cmd := m.Tasks.Submit(m.titleInput.Value(), m.descArea.Value(), m.dueInput.Value())
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, m.startSpinner())
}

// fillForm loads task into the form inputs; a zero task clears them.
func (m *Model) fillForm(task model.Task) tea.Cmd {
	m.titleInput.SetValue(task.Title)
	m.descArea.SetValue(task.DescriptionText())
	if task.DueDate != nil {
		m.dueInput.SetValue(task.DueDate.String())
	} else {
		m.dueInput.SetValue("")
	}
	return m.focusForm(formTitle)
}

func (m *Model) focusForm(i int) tea.Cmd {
	m.formFocus = (i + formFieldCount) % formFieldCount
	m.titleInput.Blur()
	m.descArea.Blur()
	m.dueInput.Blur()
	switch m.formFocus {
	case formDescription:
		return m.descArea.Focus()
	case formDue:
		return m.dueInput.Focus()
	default:
		return m.titleInput.Focus()
	}
}

func (m *Model) blurForm() {
	m.titleInput.Blur()
	m.descArea.Blur()
	m.dueInput.Blur()
}

func (m *Model) logout() tea.Cmd {
	ctx, session := m.ctx, m.session
	m.Status = StatusBar{Text: "logging out"}
	return func() tea.Msg {
		session.Logout(ctx)
		return logoutDoneMsg{}
	}
}

func (m Model) renderTasks() (string, string) {
	if m.Tasks.FormOpen {
		return views.RenderTaskForm(views.TaskFormData{
			Editing:         m.Tasks.EditingTask != nil,
			TitleView:       m.titleInput.View(),
			DescriptionView: m.descArea.View(),
			DueView:         m.dueInput.View(),
			Error:           m.Tasks.FormError,
			Saving:          m.Tasks.Submitting,
			SpinnerView:     m.spinner.View(),
		}), ""
	}

	page := m.Tasks.Visible()
	rows := make([]views.TaskRowData, 0, len(page.Tasks))
	for i, task := range page.Tasks {
		row := views.TaskRowData{
			Title:       task.Title,
			Description: task.DescriptionText(),
			Owner:       task.CreatedByUsername,
			Completed:   task.IsCompleted,
			Selected:    i == m.Cursor,
			Owned:       m.Tasks.CanModify(task),
		}
		if task.DueDate != nil {
			row.Due = task.DueDate.Display()
		}
		rows = append(rows, row)
	}

	pager := m.pager
	pager.SetTotalPages(page.Matches)
	pager.Page = page.Number - 1

	body := views.RenderTaskList(views.TaskListData{
		SearchView:  m.searchInput.View(),
		Rows:        rows,
		Loading:     m.Tasks.IsLoading,
		SpinnerView: m.spinner.View(),
		ListError:   m.Tasks.ListError,
		Matches:     page.Matches,
		Page:        page.Number,
		TotalPages:  page.TotalPages,
		PagerView:   pager.View(),
	})

	var side string
	if task, ok := m.selected(); ok && !m.Tasks.IsLoading {
		detail := views.TaskDetailData{
			Title:       task.Title,
			Owner:       task.CreatedByUsername,
			Completed:   task.IsCompleted,
			Owned:       m.Tasks.CanModify(task),
			Description: task.DescriptionText(),
		}
		if task.DueDate != nil {
			detail.Due = task.DueDate.Display()
		}
		if !task.CreatedAt.IsZero() {
			detail.Created = task.CreatedAt.Local().Format("Jan 2, 2006 15:04")
		}
		side = views.RenderTaskDetail(detail, m.width)
	}
	return body, side
}
