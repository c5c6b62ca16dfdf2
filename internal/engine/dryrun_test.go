package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

func TestBuildPreview_OneOrderedLinePerStep(t *testing.T) {
	wf := threeStepWorkflow()
	report := buildPreview(wf, fastConfig().WithDefaults())

	if len(report.Lines) != len(wf.Steps) {
		t.Fatalf("got %d lines, want %d", len(report.Lines), len(wf.Steps))
	}
	for i, line := range report.Lines {
		if line.StepID != wf.Steps[i].ID {
			t.Fatalf("line %d has step id %d, want %d", i, line.StepID, wf.Steps[i].ID)
		}
	}

	if report.Lines[0].PostCondition == "" {
		t.Fatalf("step 1 has a post-condition; its line must describe it")
	}
	if !strings.Contains(report.Lines[0].PostCondition, "ok-button.png") {
		t.Fatalf("condition description %q should name the anchor", report.Lines[0].PostCondition)
	}
	if report.Lines[1].PostCondition != "" {
		t.Fatalf("step 2 has no post-condition, got %q", report.Lines[1].PostCondition)
	}
}

func TestBuildPreview_RendersNumberedList(t *testing.T) {
	report := buildPreview(threeStepWorkflow(), fastConfig().WithDefaults())

	text := report.String()
	for _, want := range []string{"invoice-entry", "1.", `type "hello"`, "press enter"} {
		if !strings.Contains(text, want) {
			t.Fatalf("report output missing %q:\n%s", want, text)
		}
	}
}

func TestMaxAttempts_StepOverrideWinsOverDefault(t *testing.T) {
	cfg := api.Config{DefaultMaxAttempts: 2}

	plain := api.Step{ID: 1, Action: api.ActionType, Text: "x"}
	if got := maxAttempts(plain, cfg); got != 2 {
		t.Fatalf("maxAttempts = %d, want engine default 2", got)
	}

	overridden := plain
	overridden.Retry = &api.RetryPolicy{MaxAttempts: 5}
	if got := maxAttempts(overridden, cfg); got != 5 {
		t.Fatalf("maxAttempts = %d, want step override 5", got)
	}

	if got := maxAttempts(plain, api.Config{}); got != 1 {
		t.Fatalf("maxAttempts = %d, want fallback 1", got)
	}
}

func TestBuildPreview_ShowsAttemptBudget(t *testing.T) {
	wf := api.Workflow{
		Name: "retry-preview",
		Steps: []api.Step{
			{
				ID:     1,
				Action: api.ActionClick,
				Target: api.Target{Absolute: &api.Point{X: 1, Y: 1}},
				Retry:  &api.RetryPolicy{MaxAttempts: 3},
				Wait:   api.Duration(time.Second),
			},
		},
	}
	report := buildPreview(wf, fastConfig().WithDefaults())
	if report.Lines[0].MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", report.Lines[0].MaxAttempts)
	}
	if !strings.Contains(report.String(), "up to 3 attempts") {
		t.Fatalf("rendered report should mention the attempt budget:\n%s", report.String())
	}
}
