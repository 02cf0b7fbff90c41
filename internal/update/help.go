package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/todotui/internal/views"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Toggle   key.Binding
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Search   key.Binding
	Reload   key.Binding
	Logout   key.Binding
	Palette  key.Binding
	Help     key.Binding
	Quit     key.Binding

	NextField  key.Binding
	PrevField  key.Binding
	Submit     key.Binding
	Save       key.Binding
	Cancel     key.Binding
	SwitchAuth key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
		PrevPage: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "previous page")),
		NextPage: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next page")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle done")),
		New:      key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new task")),
		Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit task")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete task")),
		Search:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "search")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Palette:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command palette")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		NextField:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		SwitchAuth: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "login/register")),
	}
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) screenBindings() []key.Binding {
	k := m.keys
	switch {
	case m.Screen == ScreenTasks && m.Tasks.FormOpen:
		return []key.Binding{k.NextField, k.PrevField, k.Save, k.Cancel}
	case m.Screen == ScreenTasks:
		return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Toggle, k.New, k.Edit, k.Delete, k.Search, k.Reload, k.Logout, k.Palette}
	case m.Screen == ScreenLogin, m.Screen == ScreenRegister:
		return []key.Binding{k.NextField, k.PrevField, k.Submit, k.SwitchAuth}
	default:
		return nil
	}
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpOpen {
		return ""
	}
	bindings := m.screenBindings()
	plain := make([]string, 0, len(bindings))
	for _, b := range bindings {
		plain = append(plain, fmt.Sprintf("- %s: %s", b.Help().Key, b.Help().Desc))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Screen:   string(m.Screen),
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: []key.Binding{m.keys.Help, m.keys.Quit},
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) footer() string {
	return m.helpModel.ShortHelpView(append(m.screenBindings(), m.keys.Help, m.keys.Quit))
}
