package update

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/todotui/internal/auth"
	"github.com/sandeepkv93/todotui/internal/guard"
	"github.com/sandeepkv93/todotui/internal/model"
	"github.com/sandeepkv93/todotui/internal/tasklist"
)

// Session is the part of auth.Store the UI drives.
type Session interface {
	Snapshot() auth.Session
	Hydrate(ctx context.Context)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, data model.RegistrationData) error
	Logout(ctx context.Context)
	LastUsername(ctx context.Context) string
	ClearError()
}

type Screen string

const (
	ScreenChecking Screen = "Checking"
	ScreenLogin    Screen = "Login"
	ScreenRegister Screen = "Register"
	ScreenTasks    Screen = "Tasks"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type Deps struct {
	Context     context.Context
	Session     Session
	Tasks       tasklist.Gateway
	SearchDelay time.Duration
	Logger      *slog.Logger
}

// Login field order.
const (
	loginUsername = iota
	loginPassword
)

// Registration field order.
const (
	regUsername = iota
	regEmail
	regFirstName
	regLastName
	regPassword
	regPassword2
)

// Task form focus order.
const (
	formTitle = iota
	formDescription
	formDue
	formFieldCount
)

type Model struct {
	Screen     Screen
	Route      guard.Route
	Status     StatusBar
	HelpOpen   bool
	Palette    bool
	Searching  bool
	Quitting   bool
	Submitting bool
	Cursor     int
	Tasks      tasklist.Controller

	ctx         context.Context
	session     Session
	gateway     tasklist.Gateway
	searchDelay time.Duration
	logger      *slog.Logger
	keys        keyMap
	tasksOwner  int64
	width       int

	loginInputs    []textinput.Model
	registerInputs []textinput.Model
	authFocus      int

	searchInput  textinput.Model
	commandInput textinput.Model
	titleInput   textinput.Model
	dueInput     textinput.Model
	descArea     textarea.Model
	formFocus    int

	spinner       spinner.Model
	spinnerActive bool
	pager         paginator.Model
	helpModel     help.Model
}

// sessionChangedMsg asks the model to re-evaluate the route after the
// session store changed outside Update.
type sessionChangedMsg struct{}

type authDoneMsg struct {
	Err error
}

type logoutDoneMsg struct{}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

func NewModel(deps Deps) Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	delay := deps.SearchDelay
	if delay < 0 {
		delay = tasklist.DefaultSearchDelay
	}
	m := Model{
		Screen:      ScreenChecking,
		Route:       guard.Checking,
		ctx:         ctx,
		session:     deps.Session,
		gateway:     deps.Tasks,
		searchDelay: delay,
		logger:      logger,
		keys:        defaultKeyMap(),
		width:       64,
	}
	m.initBubbleComponents()
	return m
}

func (m *Model) initBubbleComponents() {
	m.loginInputs = []textinput.Model{
		newInput("username", false),
		newInput("password", true),
	}
	m.registerInputs = []textinput.Model{
		newInput("username", false),
		newInput("email", false),
		newInput("first name", false),
		newInput("last name", false),
		newInput("password", true),
		newInput("confirm password", true),
	}

	m.searchInput = textinput.New()
	m.searchInput.Prompt = "search> "
	m.searchInput.Placeholder = "Search tasks..."
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 40

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.titleInput = textinput.New()
	m.titleInput.Placeholder = "What needs doing?"
	m.titleInput.CharLimit = 200
	m.titleInput.Width = 48

	m.dueInput = textinput.New()
	m.dueInput.Placeholder = "2026-01-31"
	m.dueInput.CharLimit = 10
	m.dueInput.Width = 12

	m.descArea = textarea.New()
	m.descArea.SetWidth(54)
	m.descArea.SetHeight(5)
	m.descArea.ShowLineNumbers = false
	m.descArea.Placeholder = "Description (markdown)"

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot

	m.pager = paginator.New()
	m.pager.Type = paginator.Dots
	m.pager.PerPage = tasklist.PageSize

	m.helpModel = help.New()
}

func newInput(placeholder string, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 150
	in.Width = 40
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '*'
	}
	return in
}
