// Package gateway exposes the task and auth endpoints as typed calls over
// the authenticated client. It adds no retries or caching; failures come
// back exactly as the client reported them.
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/model"
)

const tasksPath = "/tasks/"

// Doer is the part of apiclient.Client the gateways need.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

type Tasks struct {
	api Doer
}

func NewTasks(api Doer) *Tasks {
	return &Tasks{api: api}
}

func taskPath(id int64) string {
	return fmt.Sprintf("%s%d/", tasksPath, id)
}

func (g *Tasks) List(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := g.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: tasksPath}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

func (g *Tasks) Create(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	var out model.Task
	if err := g.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: tasksPath, Body: draft}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (g *Tasks) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	var out model.Task
	if err := g.api.Do(ctx, apiclient.Request{Method: http.MethodPatch, Path: taskPath(id), Body: patch}, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (g *Tasks) Delete(ctx context.Context, id int64) error {
	return g.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: taskPath(id)}, nil)
}
