package update

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todotui/internal/model"
	"github.com/sandeepkv93/todotui/internal/views"
)

// openLogin shows the login form with the last username filled in.
func (m *Model) openLogin() tea.Cmd {
	m.Screen = ScreenLogin
	m.Submitting = false
	if m.loginInputs[loginUsername].Value() == "" {
		m.loginInputs[loginUsername].SetValue(m.session.LastUsername(m.ctx))
	}
	m.authFocus = loginUsername
	if m.loginInputs[loginUsername].Value() != "" {
		m.authFocus = loginPassword
	}
	return m.focusAuth(m.authFocus)
}

func (m *Model) authInputs() []textinput.Model {
	if m.Screen == ScreenRegister {
		return m.registerInputs
	}
	return m.loginInputs
}

func (m *Model) focusAuth(i int) tea.Cmd {
	inputs := m.authInputs()
	m.authFocus = (i + len(inputs)) % len(inputs)
	var cmd tea.Cmd
	for j := range inputs {
		if j == m.authFocus {
			cmd = inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	return cmd
}

func (m *Model) clearAuthInputs() {
	m.loginInputs[loginPassword].SetValue("")
	for i := range m.registerInputs {
		m.registerInputs[i].SetValue("")
	}
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Submitting {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.SwitchAuth):
		m.session.ClearError()
		if m.Screen == ScreenLogin {
			m.Screen = ScreenRegister
		} else {
			m.Screen = ScreenLogin
		}
		return m, m.focusAuth(0)
	case key.Matches(msg, m.keys.NextField):
		return m, m.focusAuth(m.authFocus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.focusAuth(m.authFocus - 1)
	case key.Matches(msg, m.keys.Submit):
		if m.authFocus < len(m.authInputs())-1 {
			return m, m.focusAuth(m.authFocus + 1)
		}
		return m, m.submitAuth()
	}

	inputs := m.authInputs()
	var cmd tea.Cmd
	inputs[m.authFocus], cmd = inputs[m.authFocus].Update(msg)
	return m, cmd
}

// submitAuth runs the login or registration call off the UI goroutine. The
// store records any failure message in the session.
func (m *Model) submitAuth() tea.Cmd {
	ctx, session := m.ctx, m.session
	var call func() error
	if m.Screen == ScreenRegister {
		in := m.registerInputs
		data := model.RegistrationData{
			Username:  in[regUsername].Value(),
			Email:     in[regEmail].Value(),
			FirstName: in[regFirstName].Value(),
			LastName:  in[regLastName].Value(),
			Password:  in[regPassword].Value(),
			Password2: in[regPassword2].Value(),
		}
		call = func() error { return session.Register(ctx, data) }
	} else {
		username := m.loginInputs[loginUsername].Value()
		password := m.loginInputs[loginPassword].Value()
		call = func() error { return session.Login(ctx, username, password) }
	}
	m.Submitting = true
	m.Status = StatusBar{}
	return tea.Batch(func() tea.Msg {
		return authDoneMsg{Err: call()}
	}, m.startSpinner())
}

func (m Model) renderLogin() string {
	s := m.session.Snapshot()
	return views.RenderAuthForm(views.AuthFormData{
		Title: "Log in",
		Fields: []views.FieldData{
			{Label: "Username", View: m.loginInputs[loginUsername].View()},
			{Label: "Password", View: m.loginInputs[loginPassword].View()},
		},
		Error:       s.Error,
		Loading:     m.Submitting,
		SpinnerView: m.spinner.View(),
		Switch:      "No account? ctrl+r to register",
	})
}

func (m Model) renderRegister() string {
	s := m.session.Snapshot()
	in := m.registerInputs
	return views.RenderAuthForm(views.AuthFormData{
		Title: "Create an account",
		Fields: []views.FieldData{
			{Label: "Username", View: in[regUsername].View()},
			{Label: "Email", View: in[regEmail].View()},
			{Label: "First name", View: in[regFirstName].View()},
			{Label: "Last name", View: in[regLastName].View()},
			{Label: "Password", View: in[regPassword].View()},
			{Label: "Confirm password", View: in[regPassword2].View()},
		},
		Error:       s.Error,
		Loading:     m.Submitting,
		SpinnerView: m.spinner.View(),
		Switch:      "Have an account? ctrl+r to log in",
	})
}
