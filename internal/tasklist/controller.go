// Package tasklist holds the task screen state: the loaded tasks, search,
// pagination and the create/edit form. Network work is returned as tea.Cmds
// and its results are applied in Update.
package tasklist

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/debounce"
	"github.com/sandeepkv93/todotui/internal/model"
)

const (
	DefaultSearchDelay = 300 * time.Millisecond

	MsgFetchFailed  = "Failed to fetch tasks. Please try again later."
	MsgToggleFailed = "Failed to update status. Please try again."
	MsgDeleteFailed = "Failed to delete task. Reverting changes."
	MsgFormFallback = "An unexpected error occurred."
	MsgNotOwner     = "Only the owner can change this task."
	MsgTitleMissing = "Title is required"
	MsgBadDueDate   = "Due date must be YYYY-MM-DD"
)

var (
	ErrNotOwner = errors.New("tasklist: task belongs to another user")
	ErrNotFound = errors.New("tasklist: task not in list")
)

type Gateway interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, draft model.TaskDraft) (model.Task, error)
	Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id int64) error
}

var lastOwner atomic.Int64

type Controller struct {
	AllTasks            []model.Task
	SearchTerm          string
	DebouncedSearchTerm string
	CurrentPage         int
	IsLoading           bool
	ListError           string
	FormError           string
	FormOpen            bool
	Submitting          bool
	EditingTask         *model.Task

	id       int64
	ctx      context.Context
	gateway  Gateway
	search   debounce.Debouncer
	viewerID int64
}

type Option func(*Controller)

func WithSearchDelay(d time.Duration) Option {
	return func(c *Controller) { c.search = debounce.New(d) }
}

// WithViewer sets the user whose tasks may be edited and deleted.
func WithViewer(userID int64) Option {
	return func(c *Controller) { c.viewerID = userID }
}

func New(ctx context.Context, gateway Gateway, opts ...Option) Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	c := Controller{
		CurrentPage: 1,
		IsLoading:   true,
		id:          lastOwner.Add(1),
		ctx:         ctx,
		gateway:     gateway,
		search:      debounce.New(DefaultSearchDelay),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Controller) Init() tea.Cmd {
	return c.fetch()
}

// Load refetches the whole list.
func (c *Controller) Load() tea.Cmd {
	c.IsLoading = true
	c.ListError = ""
	return c.fetch()
}

func (c Controller) fetch() tea.Cmd {
	ctx, gw, owner := c.ctx, c.gateway, c.id
	return func() tea.Msg {
		tasks, err := gw.List(ctx)
		return LoadedMsg{owner: owner, Tasks: tasks, Err: err}
	}
}

// Visible is the current page of the filtered list.
func (c Controller) Visible() Page {
	return Paginate(Filter(c.AllTasks, c.DebouncedSearchTerm), c.CurrentPage)
}

func (c Controller) Find(id int64) (model.Task, bool) {
	i := c.index(id)
	if i < 0 {
		return model.Task{}, false
	}
	return c.AllTasks[i], true
}

func (c Controller) CanModify(task model.Task) bool {
	return task.OwnedBy(c.viewerID)
}

// SetSearch records the raw term and resets to the first page. The filter
// only follows once the term has been stable for the search delay.
func (c *Controller) SetSearch(term string) tea.Cmd {
	c.SearchTerm = term
	c.CurrentPage = 1
	return c.search.Schedule(term)
}

// SetPage moves to page if it exists and reports whether it moved.
func (c *Controller) SetPage(page int) bool {
	visible := c.Visible()
	if page < 1 || page > visible.TotalPages || page == c.CurrentPage {
		return false
	}
	c.CurrentPage = page
	return true
}

func (c *Controller) NextPage() bool { return c.SetPage(c.CurrentPage + 1) }
func (c *Controller) PrevPage() bool { return c.SetPage(c.CurrentPage - 1) }

func (c *Controller) OpenCreate() {
	c.FormOpen = true
	c.EditingTask = nil
	c.FormError = ""
}

func (c *Controller) OpenEdit(id int64) error {
	task, ok := c.Find(id)
	if !ok {
		return ErrNotFound
	}
	if !c.CanModify(task) {
		c.ListError = MsgNotOwner
		return ErrNotOwner
	}
	c.FormOpen = true
	c.EditingTask = &task
	c.FormError = ""
	return nil
}

func (c *Controller) CloseForm() {
	c.FormOpen = false
	c.EditingTask = nil
	c.FormError = ""
}

// Submit creates a task, or updates EditingTask when the form was opened for
// editing. The returned command always yields a SubmitResult; input that
// fails client-side checks yields one without contacting the server. While
// a request is in flight Submit returns nil.
func (c *Controller) Submit(title, description, dueDate string) tea.Cmd {
	if c.Submitting {
		return nil
	}
	c.FormError = ""
	owner := c.id
	var editingID int64
	if c.EditingTask != nil {
		editingID = c.EditingTask.ID
	}

	draft, err := model.NewTaskDraft(title, description, dueDate)
	if err != nil {
		c.FormError = draftMessage(err)
		return func() tea.Msg {
			return SubmitResult{owner: owner, EditingID: editingID, Err: err}
		}
	}

	c.Submitting = true
	ctx, gw := c.ctx, c.gateway
	return func() tea.Msg {
		var (
			task model.Task
			err  error
		)
		if editingID != 0 {
			task, err = gw.Update(ctx, editingID, draft.Patch())
		} else {
			task, err = gw.Create(ctx, draft)
		}
		return SubmitResult{owner: owner, EditingID: editingID, Task: task, Err: err}
	}
}

// ToggleComplete sends the new completion flag. The local copy only changes
// once the server answers; a failure is reported but not rolled back.
func (c *Controller) ToggleComplete(id int64, done bool) tea.Cmd {
	if _, ok := c.Find(id); !ok {
		return nil
	}
	ctx, gw, owner := c.ctx, c.gateway, c.id
	patch := model.CompletionPatch(done)
	return func() tea.Msg {
		updated, err := gw.Update(ctx, id, patch)
		return ToggledMsg{owner: owner, ID: id, Task: updated, Err: err}
	}
}

// Remove drops the task from the list before the request is sent and
// restores the previous list if the server refuses.
func (c *Controller) Remove(id int64) tea.Cmd {
	task, ok := c.Find(id)
	if !ok {
		return nil
	}
	if !c.CanModify(task) {
		c.ListError = MsgNotOwner
		return nil
	}
	snapshot := slices.Clone(c.AllTasks)
	c.AllTasks = slices.DeleteFunc(slices.Clone(c.AllTasks), func(t model.Task) bool { return t.ID == id })
	c.clampPage()

	ctx, gw, owner := c.ctx, c.gateway, c.id
	return func() tea.Msg {
		err := gw.Delete(ctx, id)
		return RemovedMsg{owner: owner, ID: id, snapshot: snapshot, Err: err}
	}
}

// Accepts reports whether msg is a result issued by this controller.
func (c Controller) Accepts(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case LoadedMsg:
		return msg.owner == c.id
	case SubmitResult:
		return msg.owner == c.id
	case ToggledMsg:
		return msg.owner == c.id
	case RemovedMsg:
		return msg.owner == c.id
	}
	return false
}

// Update applies command results. Messages from another controller are
// ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case debounce.SettledMsg:
		if c.search.Accept(msg) {
			c.DebouncedSearchTerm = msg.Value
			c.clampPage()
		}
	case LoadedMsg:
		if msg.owner != c.id {
			return nil
		}
		c.IsLoading = false
		if msg.Err != nil {
			c.AllTasks = nil
			c.ListError = MsgFetchFailed
			c.clampPage()
			return nil
		}
		c.AllTasks = msg.Tasks
		c.ListError = ""
		c.clampPage()
	case SubmitResult:
		if msg.owner != c.id {
			return nil
		}
		c.applySubmit(msg)
	case ToggledMsg:
		if msg.owner != c.id {
			return nil
		}
		if msg.Err != nil {
			c.ListError = MsgToggleFailed
			return nil
		}
		if i := c.index(msg.ID); i >= 0 {
			c.AllTasks = slices.Clone(c.AllTasks)
			c.AllTasks[i] = c.AllTasks[i].Merge(msg.Task)
		}
	case RemovedMsg:
		if msg.owner != c.id {
			return nil
		}
		if msg.Err != nil {
			c.ListError = MsgDeleteFailed
			c.AllTasks = msg.snapshot
			c.clampPage()
		}
	}
	return nil
}

func (c *Controller) applySubmit(res SubmitResult) {
	c.Submitting = false
	if res.Err != nil {
		c.FormError = draftMessage(res.Err)
		return
	}
	if res.EditingID != 0 {
		if i := c.index(res.EditingID); i >= 0 {
			c.AllTasks = slices.Clone(c.AllTasks)
			c.AllTasks[i] = c.AllTasks[i].Merge(res.Task)
		}
	} else {
		c.AllTasks = append([]model.Task{res.Task}, c.AllTasks...)
	}
	c.CloseForm()
	c.clampPage()
}

func (c Controller) index(id int64) int {
	return slices.IndexFunc(c.AllTasks, func(t model.Task) bool { return t.ID == id })
}

func (c *Controller) clampPage() {
	c.CurrentPage = ClampPage(c.CurrentPage, len(Filter(c.AllTasks, c.DebouncedSearchTerm)))
}

// draftMessage turns a submit failure into the form's error line. Field
// errors from the server have the field name capitalized.
func draftMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrTitleRequired):
		return MsgTitleMissing
	case errors.Is(err, model.ErrInvalidDate):
		return MsgBadDueDate
	}
	msg := apiclient.Message(err, MsgFormFallback)
	if field, rest, ok := strings.Cut(msg, ": "); ok && field != "" && !strings.Contains(field, " ") {
		return upperFirst(field) + ": " + rest
	}
	return msg
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
