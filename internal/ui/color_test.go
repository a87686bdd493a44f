package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/pattern"
	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/step"
)

func basket() *engine.Scenario {
	return &engine.Scenario{FeaturePath: "features/basket.feature", Name: "Eating", Line: 3}
}

func TestScenarioLine(t *testing.T) {
	var buf bytes.Buffer
	ScenarioLine(&buf, engine.Result{Scenario: basket(), Status: engine.Passed})
	ScenarioLine(&buf, engine.Result{Scenario: basket(), Status: engine.Skipped, Message: "pending"})

	out := buf.String()
	assert.Contains(t, out, "pass  features/basket.feature:3  Eating\n")
	assert.Contains(t, out, "skip  features/basket.feature:3  Eating  (pending)\n")
}

func TestStepLines_OnlyForUnsuccessfulScenarios(t *testing.T) {
	steps := []engine.StepResult{
		{Keyword: "Given", Text: "a user has 5 cucumbers", Status: engine.Passed},
		{Keyword: "Then", Text: "3 remain", Status: engine.Failed},
	}

	var buf bytes.Buffer
	StepLines(&buf, engine.Result{Scenario: basket(), Status: engine.Passed, Steps: steps})
	assert.Empty(t, buf.String())

	StepLines(&buf, engine.Result{
		Scenario: basket(),
		Status:   engine.Failed,
		Steps:    steps,
		Failure:  &engine.StepError{Index: 1, Keyword: "Then", Text: "3 remain", Err: errors.New("boom")},
	})
	out := buf.String()
	assert.Contains(t, out, "Given a user has 5 cucumbers")
	assert.Contains(t, out, "Then 3 remain")
	assert.Contains(t, out, "boom")
}

func TestSummaryLine(t *testing.T) {
	report := &engine.Report{
		Results: []engine.Result{
			{Scenario: basket(), Status: engine.Passed},
			{Scenario: basket(), Status: engine.Failed},
		},
		Filtered: 1,
		Duration: 1234567 * time.Microsecond,
	}
	var buf bytes.Buffer
	SummaryLine(&buf, report)
	assert.Equal(t, "2 scenarios (1 passed, 1 failed, 0 skipped, 1 filtered out) in 1.235s\n", buf.String())
}

func TestStepDefLine(t *testing.T) {
	s := &registry.Step{
		Keyword:  step.Given,
		Pattern:  pattern.New("a user has {count:u32} cucumbers"),
		Location: registry.Location{File: "steps.go", Line: 12},
	}
	var buf bytes.Buffer
	StepDefLine(&buf, s, 10, true)
	assert.Equal(t, "Given  a user has {count:u32} cucumbers  steps.go:12  unused\n", buf.String())
}

func TestCaptureLine(t *testing.T) {
	var buf bytes.Buffer
	CaptureLine(&buf, "count", "u32", uint32(5))
	CaptureLine(&buf, "name", "", "dark red")
	assert.Equal(t, "  count:u32 = 5\n  name:raw = \"dark red\"\n", buf.String())
}

func TestResultRow(t *testing.T) {
	var buf bytes.Buffer
	ResultRow(&buf, "failed", "a.feature:2", "Checkout", "wrong total")
	assert.Equal(t, "FAIL  a.feature:2  Checkout  wrong total\n", buf.String())
}
