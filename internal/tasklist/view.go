package tasklist

import (
	"strings"

	"github.com/sandeepkv93/todotui/internal/model"
)

const PageSize = 5

// Page is one window of the filtered list.
type Page struct {
	Tasks      []model.Task
	Number     int
	TotalPages int
	Matches    int
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Filter keeps tasks whose title or description contains term, ignoring
// case. An empty term keeps everything. Order is preserved.
func Filter(tasks []model.Task, term string) []model.Task {
	needle := strings.ToLower(term)
	if needle == "" {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), needle) ||
			strings.Contains(strings.ToLower(task.DescriptionText()), needle) {
			out = append(out, task)
		}
	}
	return out
}

func TotalPages(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + PageSize - 1) / PageSize
}

func ClampPage(page, count int) int {
	return min(max(page, 1), TotalPages(count))
}

// Paginate returns the window for page, clamping page into range first.
func Paginate(tasks []model.Task, page int) Page {
	page = ClampPage(page, len(tasks))
	start := min((page-1)*PageSize, len(tasks))
	end := min(start+PageSize, len(tasks))
	return Page{
		Tasks:      tasks[start:end],
		Number:     page,
		TotalPages: TotalPages(len(tasks)),
		Matches:    len(tasks),
	}
}
