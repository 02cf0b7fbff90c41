package commands

import (
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent", TypeAdd},
		{"search milk", TypeSearch},
		{"/search", TypeSearch},
		{"/page 2", TypePage},
		{"page next", TypePage},
		{"/reload", TypeReload},
		{"/LOGOUT", TypeLogout},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParsePageArguments(t *testing.T) {
	cmd, err := Parse("/page 3")
	if err != nil || cmd.Page.Number != 3 || cmd.Page.Delta != 0 {
		t.Fatalf("unexpected page command: %+v err=%v", cmd.Page, err)
	}
	cmd, err = Parse("/page prev")
	if err != nil || cmd.Page.Delta != -1 {
		t.Fatalf("unexpected page command: %+v err=%v", cmd.Page, err)
	}
	for _, in := range []string{"/page", "/page 0", "/page two", "/page 1 2"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseSearchKeepsSpaces(t *testing.T) {
	cmd, err := Parse("/search call   mom")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Search.Term != "call mom" {
		t.Fatalf("unexpected term %q", cmd.Search.Term)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []struct {
		in   string
		code ErrorCode
	}{
		{"", ErrCodeEmptyInput},
		{"/", ErrCodeEmptyInput},
		{"/unknown do x", ErrCodeUnknownCommand},
		{"/add", ErrCodeInvalidArgument},
		{"/reload now", ErrCodeInvalidArgument},
	}
	for _, tc := range cases {
		_, err := Parse(tc.in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != tc.code {
			t.Fatalf("parse %q: expected %s, got %v", tc.in, tc.code, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Title != "write docs" {
				t.Fatalf("unexpected title: %q", a.Title)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("/logout")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
