package engine

import (
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

// buildPreview renders the ordered replay plan for a workflow. It uses the
// same per-step policy computation as the live path but touches no
// provider: zero captures, zero injections.
func buildPreview(wf api.Workflow, cfg api.Config) *api.PreviewReport {
	report := &api.PreviewReport{
		Workflow:    wf.Name,
		GeneratedAt: time.Now(),
		Lines:       make([]api.PreviewLine, 0, len(wf.Steps)),
	}

	for _, step := range wf.Steps {
		line := api.PreviewLine{
			StepID:      step.ID,
			Action:      step.Action,
			Description: step.Describe(),
			MaxAttempts: maxAttempts(step, cfg),
		}
		if step.Post != nil {
			line.PostCondition = step.Post.Describe()
		}
		report.Lines = append(report.Lines, line)
	}
	return report
}

// maxAttempts is the step's effective attempt budget, first attempt
// included.
func maxAttempts(step api.Step, cfg api.Config) int {
	if step.Retry != nil && step.Retry.MaxAttempts > 0 {
		return step.Retry.MaxAttempts
	}
	if cfg.DefaultMaxAttempts > 0 {
		return cfg.DefaultMaxAttempts
	}
	return 1
}
