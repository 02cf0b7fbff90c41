package views

import (
	"fmt"
	"strings"
)

type FieldData struct {
	Label string
	View  string
}

type AuthFormData struct {
	Title       string
	Fields      []FieldData
	Error       string
	Loading     bool
	SpinnerView string
	Switch      string
}

type TaskRowData struct {
	Title       string
	Description string
	Owner       string
	Due         string
	Completed   bool
	Selected    bool
	Owned       bool
}

type TaskListData struct {
	SearchView  string
	Rows        []TaskRowData
	Loading     bool
	SpinnerView string
	ListError   string
	Matches     int
	Page        int
	TotalPages  int
	PagerView   string
}

type TaskFormData struct {
	Editing         bool
	TitleView       string
	DescriptionView string
	DueView         string
	Error           string
	Saving          bool
	SpinnerView     string
}

type TaskDetailData struct {
	Title       string
	Owner       string
	Due         string
	Created     string
	Completed   bool
	Owned       bool
	Description string
}

type HelpPanelData struct {
	Screen   string
	Bindings []string
	HelpView string
}

func RenderChecking(spinner string) string {
	return fmt.Sprintf("%s checking session...", spinner)
}

func RenderAuthForm(data AuthFormData) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(data.Title) + "\n\n")
	for _, f := range data.Fields {
		b.WriteString(fmt.Sprintf("%s\n%s\n\n", f.Label, f.View))
	}
	if data.Loading {
		b.WriteString(data.SpinnerView + " working...\n")
	}
	if data.Error != "" {
		b.WriteString(errorStyle.Render(data.Error) + "\n")
	}
	if data.Switch != "" {
		b.WriteString(mutedStyle.Render(data.Switch))
	}
	return strings.TrimSpace(b.String())
}

func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	b.WriteString(data.SearchView + "\n\n")
	b.WriteString(labelStyle.Render("My Tasks") + "\n")

	switch {
	case data.Loading:
		b.WriteString(data.SpinnerView + " Loading...")
		return b.String()
	case data.ListError != "" && len(data.Rows) == 0:
		b.WriteString(errorStyle.Render(data.ListError))
		return b.String()
	case data.Matches == 0:
		b.WriteString("No tasks found\n")
		b.WriteString(mutedStyle.Render("Try a different search or create a new task!"))
		return b.String()
	}

	if data.ListError != "" {
		b.WriteString(errorStyle.Render(data.ListError) + "\n")
	}
	for _, row := range data.Rows {
		b.WriteString(renderTaskRow(row))
	}
	if data.TotalPages > 1 {
		b.WriteString(fmt.Sprintf("\n%s  Page %d of %d", data.PagerView, data.Page, data.TotalPages))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTaskRow(row TaskRowData) string {
	cursor := " "
	if row.Selected {
		cursor = cursorStyle.Render(">")
	}
	check := "[ ]"
	title := row.Title
	if row.Completed {
		check = "[x]"
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s %s\n", cursor, check, title)
	if row.Description != "" {
		line += "      " + mutedStyle.Render(firstLine(row.Description)) + "\n"
	}
	meta := "By: " + row.Owner
	if row.Due != "" {
		meta += "  Due: " + row.Due
	}
	return line + "      " + mutedStyle.Render(meta) + "\n"
}

func RenderTaskForm(data TaskFormData) string {
	title := "New Task"
	if data.Editing {
		title = "Edit Task"
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(title) + "\n\n")
	b.WriteString("Title\n" + data.TitleView + "\n\n")
	b.WriteString("Description\n" + data.DescriptionView + "\n\n")
	b.WriteString("Due date (YYYY-MM-DD)\n" + data.DueView + "\n")
	if data.Saving {
		b.WriteString("\n" + data.SpinnerView + " saving...\n")
	}
	if data.Error != "" {
		b.WriteString("\n" + errorStyle.Render(data.Error) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("[tab] next field  [ctrl+s] save  [esc] cancel"))
	return b.String()
}

func RenderTaskDetail(data TaskDetailData, width int) string {
	if data.Title == "" {
		return mutedStyle.Render("(no selection)")
	}
	status := "open"
	if data.Completed {
		status = "done"
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(data.Title) + "\n")
	b.WriteString(fmt.Sprintf("status: %s\nby: %s\n", status, data.Owner))
	if data.Due != "" {
		b.WriteString("due: " + data.Due + "\n")
	}
	if data.Created != "" {
		b.WriteString("created: " + data.Created + "\n")
	}
	if !data.Owned {
		b.WriteString(mutedStyle.Render("read only") + "\n")
	}
	if md := RenderMarkdown(data.Description, width); md != "" {
		b.WriteString("\n" + md)
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s keys:\n%s\n%s",
		strings.ToLower(data.Screen),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
