package lifecycle

import (
	"errors"
	"testing"
)

func TestValidateForwardChain(t *testing.T) {
	steps := [][2]string{
		{StatusOpen, StatusInProgress},
		{StatusInProgress, StatusCompleted},
		{StatusCompleted, StatusClosed},
	}
	for _, s := range steps {
		if err := Validate(s[0], s[1]); err != nil {
			t.Errorf("Validate(%s, %s): unexpected error %v", s[0], s[1], err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := [][2]string{
		{StatusOpen, StatusCompleted},   // skip
		{StatusOpen, StatusClosed},      // skip
		{StatusInProgress, StatusOpen},  // reverse
		{StatusCompleted, StatusOpen},   // reverse
		{StatusOpen, StatusOpen},        // self
		{StatusClosed, StatusClosed},    // terminal self
		{StatusClosed, StatusOpen},      // out of terminal
		{StatusOpen, "cancelled"},       // unknown target
		{"draft", StatusOpen},           // unknown source
	}
	for _, c := range cases {
		err := Validate(c[0], c[1])
		if err == nil {
			t.Errorf("Validate(%s, %s): expected error", c[0], c[1])
			continue
		}
		var ite *InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Errorf("Validate(%s, %s): error type %T", c[0], c[1], err)
			continue
		}
		if ite.From != c[0] || ite.To != c[1] {
			t.Errorf("Validate(%s, %s): error carries %s -> %s", c[0], c[1], ite.From, ite.To)
		}
	}
}

func TestNext(t *testing.T) {
	if next, err := Next(StatusOpen); err != nil || next != StatusInProgress {
		t.Fatalf("Next(open): got %s, %v", next, err)
	}
	if _, err := Next(StatusClosed); err == nil {
		t.Fatal("Next(closed): expected error")
	}
}

func TestIsValid(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusInProgress, StatusCompleted, StatusClosed} {
		if !IsValid(s) {
			t.Errorf("IsValid(%s): got false", s)
		}
	}
	if IsValid("archived") {
		t.Error("IsValid(archived): got true")
	}
}
