package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Search func(SearchArgs) (Result, error)
	Page   func(PageArgs) (Result, error)
	Reload func() (Result, error)
	Logout func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Add(*cmd.Add)
	case TypeSearch:
		if handlers.Search == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Search(*cmd.Search)
	case TypePage:
		if handlers.Page == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Page(*cmd.Page)
	case TypeReload:
		if handlers.Reload == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Reload()
	case TypeLogout:
		if handlers.Logout == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Logout()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
