package tasklist

import "github.com/sandeepkv93/todotui/internal/model"

// Results carry the id of the controller that issued them so a controller
// replaced at logout ignores late responses for the previous user.

type LoadedMsg struct {
	owner int64
	Tasks []model.Task
	Err   error
}

// SubmitResult ends every Submit, successful or not. EditingID is zero for a
// create.
type SubmitResult struct {
	owner     int64
	EditingID int64
	Task      model.Task
	Err       error
}

func (r SubmitResult) OK() bool { return r.Err == nil }

func (r SubmitResult) Created() bool { return r.Err == nil && r.EditingID == 0 }

type ToggledMsg struct {
	owner int64
	ID    int64
	Task  model.Task
	Err   error
}

type RemovedMsg struct {
	owner    int64
	ID       int64
	snapshot []model.Task
	Err      error
}
