package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"
)

func TestSurveyDriver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &surveyDriver{out: &bytes.Buffer{}}

	if _, err := d.Input(ctx, InputConfig{Message: "Email"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Input: expected context.Canceled, got %v", err)
	}
	if _, err := d.Password(ctx, InputConfig{Message: "Password", Default: "ignored"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Password: expected context.Canceled, got %v", err)
	}
	if _, err := d.Confirm(ctx, ConfirmConfig{Message: "Agree"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Confirm: expected context.Canceled, got %v", err)
	}
	if _, err := d.Select(ctx, SelectConfig{Message: "Role", Options: []string{"a"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Select: expected context.Canceled, got %v", err)
	}
	if _, err := d.MultiSelect(ctx, SelectConfig{Message: "Sources", Options: []string{"a"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("MultiSelect: expected context.Canceled, got %v", err)
	}
	if err := d.Info(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Info: expected context.Canceled, got %v", err)
	}
}

func TestSurveyDriver_Info(t *testing.T) {
	var buf bytes.Buffer
	d := &surveyDriver{out: &buf}
	if err := d.Info(context.Background(), "Form reset."); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Form reset.\n" {
		t.Fatalf("Info wrote %q", got)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	if err := translateSurveyErr(fmt.Errorf("prompt: %w", terminal.InterruptErr)); !errors.Is(err, ErrAborted) {
		t.Fatalf("interrupt must map to ErrAborted, got %v", err)
	}
	boom := errors.New("boom")
	if err := translateSurveyErr(boom); err != boom {
		t.Fatalf("other errors pass through, got %v", err)
	}
}

func TestSelectHelpers(t *testing.T) {
	options := []string{"google", "friend", "other"}
	if got := indexOf(options, "friend"); got != 1 {
		t.Fatalf("indexOf = %d", got)
	}
	if got := indexOf(options, "missing"); got != -1 {
		t.Fatalf("indexOf missing = %d", got)
	}
	if diff := cmp.Diff([]int{0, 2}, indicesOf(options, []string{"other", "google"})); diff != "" {
		t.Fatalf("indicesOf (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"google", "other"}, defaultsFromIndices(options, []int{0, 5, 2})); diff != "" {
		t.Fatalf("defaultsFromIndices (-want +got):\n%s", diff)
	}
}
