package jwerr

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestExitCodes(t *testing.T) {
	cases := []struct {
		class FailureClass
		want  int
	}{
		{InvalidOperation, 2},
		{DepthLimitExceeded, 2},
		{ArgumentTooLarge, 2},
		{InvalidUTF8, 2},
		{InvalidUTF16, 2},
		{InvalidFloatValue, 2},
		{OutOfSpace, 2},
		{CLIUsage, 2},
		{Overcommit, 10},
		{InternalIO, 10},
	}
	for _, tc := range cases {
		if got := tc.class.ExitCode(); got != tc.want {
			t.Errorf("%s: exit code %d, want %d", tc.class, got, tc.want)
		}
	}
}

func TestErrorMessageIncludesOffset(t *testing.T) {
	err := New(InvalidUTF8, 17, "truncated sequence")
	msg := err.Error()
	if !strings.Contains(msg, "INVALID_UTF8") || !strings.Contains(msg, "17") {
		t.Fatalf("message missing class or offset: %q", msg)
	}

	err = New(InvalidOperation, -1, "value not allowed here")
	if strings.Contains(err.Error(), "index") {
		t.Fatalf("offset-free message should not mention an index: %q", err.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	err := Wrap(InternalIO, -1, "writing output", io.ErrClosedPipe)
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("errors.Is failed to find wrapped cause")
	}
}

func TestClassOf(t *testing.T) {
	if got := ClassOf(New(OutOfSpace, -1, "fixed span exhausted")); got != OutOfSpace {
		t.Fatalf("got %s, want %s", got, OutOfSpace)
	}
	wrapped := Wrap(InvalidUTF16, 3, "lone high surrogate", nil)
	if got := ClassOf(wrapped); got != InvalidUTF16 {
		t.Fatalf("got %s, want %s", got, InvalidUTF16)
	}
	if got := ClassOf(io.EOF); got != InternalIO {
		t.Fatalf("non-jwerr error classified as %s, want %s", got, InternalIO)
	}
}
