package update

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/auth"
	"github.com/sandeepkv93/todotui/internal/model"
	"github.com/sandeepkv93/todotui/internal/storage"
	"github.com/sandeepkv93/todotui/internal/tasklist"
)

type fakeAuthRemote struct {
	loginErr  error
	logoutErr error
}

func (f *fakeAuthRemote) Login(_ context.Context, creds model.Credentials) (model.AuthResult, error) {
	if f.loginErr != nil {
		return model.AuthResult{}, f.loginErr
	}
	return model.AuthResult{
		User:   model.User{ID: 1, Username: creds.Username},
		Tokens: model.TokenPair{Access: "access", Refresh: "refresh"},
	}, nil
}

func (f *fakeAuthRemote) Register(ctx context.Context, data model.RegistrationData) (model.AuthResult, error) {
	return f.Login(ctx, model.Credentials{Username: data.Username, Password: data.Password})
}

func (f *fakeAuthRemote) Logout(context.Context, string) error { return f.logoutErr }

type fakeTasks struct {
	mu        sync.Mutex
	tasks     []model.Task
	deleteErr error
	onList    func() error
	creates   int
}

func (f *fakeTasks) List(context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onList != nil {
		if err := f.onList(); err != nil {
			return nil, err
		}
	}
	return slices.Clone(f.tasks), nil
}

func (f *fakeTasks) Create(_ context.Context, draft model.TaskDraft) (model.Task, error) {
	f.mu.Lock()
	f.creates++
	f.mu.Unlock()
	return model.Task{ID: 99, Title: draft.Title, CreatedBy: 1, CreatedByUsername: "ana"}, nil
}

func (f *fakeTasks) Update(_ context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	out := model.Task{ID: id}
	if patch.IsCompleted != nil {
		out.IsCompleted = *patch.IsCompleted
	}
	return out, nil
}

func (f *fakeTasks) Delete(context.Context, int64) error { return f.deleteErr }

type harness struct {
	store  *auth.Store
	remote *fakeAuthRemote
	tasks  *fakeTasks
	mem    *storage.MemoryStore
}

func newHarness() *harness {
	mem := storage.NewMemoryStore()
	remote := &fakeAuthRemote{}
	return &harness{
		store:  auth.NewStore(mem, remote, auth.WithSettings(mem)),
		remote: remote,
		mem:    mem,
		tasks: &fakeTasks{tasks: []model.Task{
			{ID: 1, Title: "Buy milk", CreatedBy: 1, CreatedByUsername: "ana"},
			{ID: 2, Title: "Call mom", Description: strPtr("birthday"), CreatedBy: 1, CreatedByUsername: "ana"},
			{ID: 3, Title: "Team sync", CreatedBy: 2, CreatedByUsername: "bo"},
		}},
	}
}

func (h *harness) model(t *testing.T) Model {
	t.Helper()
	return NewModel(Deps{Context: t.Context(), Session: h.store, Tasks: h.tasks, SearchDelay: 0})
}

func strPtr(s string) *string { return &s }

// drain runs cmd and every command that follows from it, feeding messages
// back into the model. Commands that block (timers, cursor blinks) are
// skipped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := runQuick(c)
		if !ok || msg == nil {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		next, more := m.Update(msg)
		m = next.(Model)
		queue = append(queue, more)
	}
	return m
}

func runQuick(c tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(50 * time.Millisecond):
		return nil, false
	}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = drain(t, next.(Model), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func loggedIn(t *testing.T, h *harness) Model {
	t.Helper()
	m := h.model(t)
	m = drain(t, m, m.Init())
	m = press(t, m, runes("ana"), tab, runes("secret-pass"), enter)
	if m.Screen != ScreenTasks {
		t.Fatalf("expected tasks screen after login, got %s (error %q)", m.Screen, h.store.Snapshot().Error)
	}
	return m
}

func TestNewModelStartsChecking(t *testing.T) {
	m := newHarness().model(t)
	if m.Screen != ScreenChecking {
		t.Fatalf("expected checking screen, got %s", m.Screen)
	}
	if !strings.Contains(m.View(), "checking session") {
		t.Fatalf("expected checking placeholder: %q", m.View())
	}
}

func TestHydrateWithoutSessionShowsLogin(t *testing.T) {
	m := newHarness().model(t)
	m = drain(t, m, m.Init())
	if m.Screen != ScreenLogin {
		t.Fatalf("expected login screen, got %s", m.Screen)
	}
}

func TestLoginLoadsTasks(t *testing.T) {
	h := newHarness()
	m := loggedIn(t, h)

	if m.Tasks.IsLoading || len(m.Tasks.AllTasks) != 3 {
		t.Fatalf("tasks not loaded: %+v", m.Tasks)
	}
	out := m.View()
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "todotui | ana") {
		t.Fatalf("unexpected task view: %q", out)
	}
}

func TestLoginFailureStaysOnForm(t *testing.T) {
	h := newHarness()
	h.remote.loginErr = &apiclient.Error{Code: apiclient.ErrCodeRejected, Status: 401, Detail: "No active account found with the given credentials"}
	m := h.model(t)
	m = drain(t, m, m.Init())
	m = press(t, m, runes("ana"), tab, runes("wrong-pass"), enter)

	if m.Screen != ScreenLogin || m.Submitting {
		t.Fatalf("expected idle login screen, got %s submitting=%v", m.Screen, m.Submitting)
	}
	if !strings.Contains(m.View(), "No active account found") {
		t.Fatalf("expected error on login form: %q", m.View())
	}
}

func TestLoginFormTypesQ(t *testing.T) {
	m := newHarness().model(t)
	m = drain(t, m, m.Init())
	m = press(t, m, runes("q"))
	if m.Quitting {
		t.Fatal("typing q in the login form should not quit")
	}
}

func TestRegisterSwitchAndSubmit(t *testing.T) {
	h := newHarness()
	m := h.model(t)
	m = drain(t, m, m.Init())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.Screen != ScreenRegister {
		t.Fatalf("expected register screen, got %s", m.Screen)
	}
	m = press(t, m,
		runes("cy"), enter,
		runes("cy@example.com"), enter,
		enter, enter,
		runes("secret-pass"), enter,
		runes("secret-pass"), enter,
	)
	if m.Screen != ScreenTasks {
		t.Fatalf("expected tasks screen after register, got %s (error %q)", m.Screen, h.store.Snapshot().Error)
	}
}

func TestDeleteFailureRestoresRow(t *testing.T) {
	h := newHarness()
	h.tasks.deleteErr = errors.New("boom")
	m := loggedIn(t, h)

	m = press(t, m, runes("d"))

	if len(m.Tasks.AllTasks) != 3 || m.Tasks.AllTasks[0].ID != 1 {
		t.Fatalf("expected rollback, got %+v", m.Tasks.AllTasks)
	}
	if !strings.Contains(m.View(), tasklist.MsgDeleteFailed) {
		t.Fatalf("expected delete failure message: %q", m.View())
	}
}

func TestToggleMarksDone(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes(" "))
	if task, _ := m.Tasks.Find(1); !task.IsCompleted {
		t.Fatalf("expected task 1 completed: %+v", task)
	}
}

func TestEditRefusedForOtherUsersTask(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes("j"), runes("j"), runes("e"))
	if m.Tasks.FormOpen {
		t.Fatal("form opened for a task owned by someone else")
	}
	if !m.Status.IsError || m.Status.Text != tasklist.MsgNotOwner {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
}

func TestCreateTaskThroughForm(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes("n"))
	if !m.Tasks.FormOpen {
		t.Fatal("expected form to open")
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.Tasks.FormOpen || m.Tasks.FormError != tasklist.MsgTitleMissing {
		t.Fatalf("expected client-side title error, got open=%v err=%q", m.Tasks.FormOpen, m.Tasks.FormError)
	}

	m = press(t, m, runes("Water plants"), tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.Tasks.FormOpen || m.Tasks.AllTasks[0].Title != "Water plants" {
		t.Fatalf("expected created task at the front: %+v", m.Tasks.AllTasks)
	}
	if m.Status.Text != "task created" {
		t.Fatalf("unexpected status %+v", m.Status)
	}
}

func TestDoubleSaveCreatesOnce(t *testing.T) {
	h := newHarness()
	m := loggedIn(t, h)
	m = press(t, m, runes("n"), runes("Water plants"))

	ctrlS := tea.KeyMsg{Type: tea.KeyCtrlS}
	next, first := m.Update(ctrlS)
	m = next.(Model)
	if !m.Tasks.Submitting || !strings.Contains(m.View(), "saving...") {
		t.Fatal("expected the form to show it is saving")
	}
	next, second := m.Update(ctrlS)
	m = drain(t, next.(Model), tea.Batch(first, second))

	h.tasks.mu.Lock()
	creates := h.tasks.creates
	h.tasks.mu.Unlock()
	if creates != 1 || len(m.Tasks.AllTasks) != 4 {
		t.Fatalf("expected one create, got creates=%d rows=%d", creates, len(m.Tasks.AllTasks))
	}
}

func TestFailedSubmitRefocusesForm(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes("n"))

	res := m.Tasks.Submit("  ", "", "")()
	next, cmd := m.Update(res)
	m = next.(Model)
	if !m.Tasks.FormOpen || m.Tasks.FormError != tasklist.MsgTitleMissing {
		t.Fatalf("expected open form with error, got open=%v err=%q", m.Tasks.FormOpen, m.Tasks.FormError)
	}
	if cmd == nil {
		t.Fatal("expected the refocus command to be returned")
	}
}

func TestForeignSubmitResultIgnored(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes("n"))

	next, _ := m.Update(tasklist.SubmitResult{Task: model.Task{ID: 42, Title: "late"}})
	m = next.(Model)
	if !m.Tasks.FormOpen || m.Status.Text == "task created" {
		t.Fatalf("result from another controller changed the screen: open=%v status=%+v", m.Tasks.FormOpen, m.Status)
	}
	if len(m.Tasks.AllTasks) != 3 {
		t.Fatalf("foreign result modified the list: %+v", m.Tasks.AllTasks)
	}
}

func TestFormEscapeCancels(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes("n"), runes("draft"), esc)
	if m.Tasks.FormOpen || len(m.Tasks.AllTasks) != 3 {
		t.Fatalf("expected cancelled form: %+v", m.Tasks)
	}
}

func TestSearchFiltersList(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes("f"), runes("mom"), enter)
	page := m.Tasks.Visible()
	if page.Matches != 1 || page.Tasks[0].ID != 2 {
		t.Fatalf("unexpected filtered page: %+v", page)
	}
	if m.Searching {
		t.Fatal("enter should leave the search box")
	}
}

func TestPaletteSearchAndUnknownCommand(t *testing.T) {
	m := loggedIn(t, newHarness())
	m = press(t, m, runes("/"), runes("search milk"), enter)
	if m.Palette || m.Tasks.Visible().Matches != 1 {
		t.Fatalf("palette search failed: palette=%v page=%+v", m.Palette, m.Tasks.Visible())
	}

	m = press(t, m, runes("/"), runes("frobnicate"), enter)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unsupported command") {
		t.Fatalf("unexpected status %+v", m.Status)
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	h := newHarness()
	h.remote.logoutErr = errors.New("connection refused")
	m := loggedIn(t, h)

	m = press(t, m, runes("L"))

	if m.Screen != ScreenLogin {
		t.Fatalf("expected login screen after logout, got %s", m.Screen)
	}
	if h.store.Snapshot().Authenticated() {
		t.Fatal("session survived logout")
	}
	if _, err := h.mem.LoadCredentials(t.Context()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("credentials survived logout: %v", err)
	}
	if got := m.loginInputs[loginUsername].Value(); got != "ana" {
		t.Fatalf("expected remembered username, got %q", got)
	}
}

func TestExpiredSessionRoutesToLogin(t *testing.T) {
	h := newHarness()
	m := loggedIn(t, h)
	h.tasks.onList = func() error {
		h.store.Expire(context.Background(), apiclient.ErrAuthInvalid)
		return &apiclient.Error{Code: apiclient.ErrCodeAuthInvalid, Path: "/tasks/"}
	}

	m = press(t, m, runes("r"))

	if m.Screen != ScreenLogin {
		t.Fatalf("expected login after expiry, got %s", m.Screen)
	}
	if !strings.Contains(m.View(), "session has expired") {
		t.Fatalf("expected expiry message: %q", m.View())
	}
}

type panickySession struct {
	*auth.Store
	armed bool
}

func (p *panickySession) Snapshot() auth.Session {
	if p.armed {
		panic("snapshot exploded")
	}
	return p.Store.Snapshot()
}

func TestViewRecoversFromPanic(t *testing.T) {
	h := newHarness()
	session := &panickySession{Store: h.store}
	m := NewModel(Deps{Context: t.Context(), Session: session, Tasks: h.tasks})
	session.armed = true

	out := m.View()
	if !strings.Contains(out, "Something went wrong") {
		t.Fatalf("expected fallback view, got %q", out)
	}
}

func TestStatusMessages(t *testing.T) {
	m := newHarness().model(t)
	updated, _ := m.Update(SetStatusMsg{Text: "ready"})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}
	updated, _ = next.Update(ClearStatusMsg{})
	if updated.(Model).Status.Text != "" {
		t.Fatal("expected cleared status")
	}
}
