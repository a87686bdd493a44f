package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/db"
	"github.com/chriserin/stepwise/internal/logging"
	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/step"
	"github.com/chriserin/stepwise/pkg/stepctx"
)

const basketFeature = `@shop
Feature: Basket

  Background:
    Given a user has 5 cucumbers

  @smoke
  Scenario: Eating
    When 2 are eaten
    Then 3 remain

  Scenario: Overeating
    When 4 are eaten
    Then 3 remain

  @wip
  Scenario: Pending
    When the basket is weighed
`

type basket struct {
	cucumbers uint32
}

func basketRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(registry.WithLogger(logging.Discard()))
	require.NoError(t, reg.Given("a user has {count:u32} cucumbers", step.Func1(
		func(_ context.Context, sc *stepctx.Context, count uint32) error {
			sc.Override(&basket{cucumbers: count})
			return nil
		})))
	require.NoError(t, reg.When("{n:u32} are eaten", step.Func1(
		func(_ context.Context, sc *stepctx.Context, n uint32) error {
			b, _ := stepctx.Get[*basket](sc, "basket")
			b.cucumbers -= n
			return nil
		})))
	require.NoError(t, reg.Then("{count:u32} remain", step.Func1(
		func(_ context.Context, sc *stepctx.Context, count uint32) error {
			b, _ := stepctx.Get[*basket](sc, "basket")
			if b.cucumbers != count {
				return errors.New("wrong number of cucumbers")
			}
			return nil
		})))
	require.NoError(t, reg.When("the basket is weighed", step.Func(
		func(ctx context.Context, _ *stepctx.Context, _ step.Args) error {
			return step.Skip(ctx, "no scale")
		})))
	require.NoError(t, reg.Then("the basket is empty", step.Func(
		func(context.Context, *stepctx.Context, step.Args) error { return nil })))
	return reg
}

func basketFixtures(*engine.Scenario) *stepctx.Context {
	sc := stepctx.New()
	sc.Insert("basket", &basket{})
	return sc
}

// setupProject initializes a project in a temp dir and writes the basket
// feature.
func setupProject(t *testing.T) *config.Config {
	t.Helper()
	inTempDir(t)
	runInit(t)
	writeFeature(t, "basket.feature", basketFeature)
	cfg, err := config.Load(config.FileName)
	require.NoError(t, err)
	return cfg
}

func writeFeature(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join("features", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func quietContext() context.Context {
	return logging.WithLogger(context.Background(), logging.Discard())
}

func runRun(t *testing.T, reg *registry.Registry, cfg *config.Config, opts RunOptions) (*engine.Report, string, error) {
	t.Helper()
	var buf bytes.Buffer
	if opts.Fixtures == nil {
		opts.Fixtures = basketFixtures
	}
	report, err := RunRun(quietContext(), &buf, reg, cfg, opts)
	return report, buf.String(), err
}

func TestRun_ReportsEveryOutcome(t *testing.T) {
	cfg := setupProject(t)

	report, out, err := runRun(t, basketRegistry(t), cfg, RunOptions{})
	require.ErrorIs(t, err, ErrScenariosFailed)
	assert.EqualError(t, err, "1 of 3 scenarios failed")

	require.NotNil(t, report)
	assert.Equal(t, 1, report.Count(engine.Passed))
	assert.Equal(t, 1, report.Count(engine.Failed))
	assert.Equal(t, 1, report.Count(engine.Skipped))

	assert.Contains(t, out, "pass  features/basket.feature:8  Eating")
	assert.Contains(t, out, "FAIL  features/basket.feature:12  Overeating")
	assert.Contains(t, out, "wrong number of cucumbers")
	assert.Contains(t, out, "skip  features/basket.feature:17  Pending  (no scale)")
	assert.Contains(t, out, "3 scenarios (1 passed, 1 failed, 1 skipped)")
	assert.Contains(t, out, "recorded run ")
}

func TestRun_RecordsResults(t *testing.T) {
	cfg := setupProject(t)
	_, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{Tags: "@smoke"})
	require.NoError(t, err)

	sqlDB, err := db.Open(cfg.Database)
	require.NoError(t, err)
	defer sqlDB.Close()

	run, err := db.LatestRun(context.Background(), sqlDB)
	require.NoError(t, err)
	assert.Equal(t, "@smoke", run.Filter)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Total())
}

func TestRun_TagFilter(t *testing.T) {
	cfg := setupProject(t)

	report, out, err := runRun(t, basketRegistry(t), cfg, RunOptions{Tags: "@shop and not @wip and not @smoke", NoRecord: true})
	require.ErrorIs(t, err, ErrScenariosFailed)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Overeating", report.Results[0].Scenario.Name)
	assert.Equal(t, 2, report.Filtered)
	assert.Contains(t, out, "2 filtered out")
	assert.NotContains(t, out, "recorded run")
}

func TestRun_ConfiguredTagsAndEnvOverride(t *testing.T) {
	cfg := setupProject(t)
	t.Setenv(config.EnvTags, "@wip")
	cfg, err := config.Load(config.FileName)
	require.NoError(t, err)

	report, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{NoRecord: true})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, engine.Skipped, report.Results[0].Status)
}

func TestRun_FailOnSkipped(t *testing.T) {
	cfg := setupProject(t)
	cfg.FailOnSkipped = true

	report, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{Tags: "@wip", NoRecord: true})
	require.ErrorIs(t, err, ErrScenariosFailed)
	assert.Equal(t, engine.Failed, report.Results[0].Status)
}

func TestRun_UndefinedStepAbortsBeforeRunning(t *testing.T) {
	cfg := setupProject(t)
	writeFeature(t, "extra.feature", "Feature: Extra\n  Scenario: Unknown\n    Given nothing is defined\n")

	report, out, err := runRun(t, basketRegistry(t), cfg, RunOptions{NoRecord: true})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorContains(t, err, "binding steps")
	assert.ErrorContains(t, err, `no step definition matches Given "nothing is defined"`)
	assert.ErrorContains(t, err, "features/extra.feature:3")
	assert.Empty(t, out)
}

func TestRun_UndefinedStepRecordsNoRun(t *testing.T) {
	cfg := setupProject(t)
	writeFeature(t, "extra.feature", "Feature: Extra\n  Scenario: Unknown\n    Given nothing is defined\n")

	_, out, err := runRun(t, basketRegistry(t), cfg, RunOptions{})
	require.ErrorContains(t, err, "binding steps")
	assert.Empty(t, out)

	sqlDB, err := db.Open(cfg.Database)
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = db.LatestRun(context.Background(), sqlDB)
	assert.ErrorIs(t, err, db.ErrNoRuns)
	runs, err := db.Runs(context.Background(), sqlDB, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRun_ParseErrorsAreReported(t *testing.T) {
	cfg := setupProject(t)
	writeFeature(t, "broken.feature", "Feature: Broken\n  Scenario Outline: Many\n    Given <x>\n")

	_, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{NoRecord: true})
	assert.ErrorContains(t, err, `features/broken.feature:2: Scenario Outline "Many" has no Examples`)
}

func TestRun_InvalidTagExpression(t *testing.T) {
	cfg := setupProject(t)

	_, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{Tags: "@a and", NoRecord: true})
	assert.ErrorContains(t, err, "invalid tag expression")
}

func TestRun_ExplicitFiles(t *testing.T) {
	cfg := setupProject(t)
	writeFeature(t, "nested/other.feature", "Feature: Other\n  Scenario: Empty basket\n    Then the basket is empty\n")

	report, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{Files: []string{"features/nested/other.feature"}, NoRecord: true})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Empty basket", report.Results[0].Scenario.Name)
}

func TestRun_MissingFeaturesDirectory(t *testing.T) {
	inTempDir(t)

	_, _, err := runRun(t, basketRegistry(t), config.Default(), RunOptions{NoRecord: true})
	assert.ErrorContains(t, err, "features directory features not found")
}

func TestRootCommand_Run(t *testing.T) {
	setupProject(t)

	root := NewRootCommand(basketRegistry(t), WithFixtures(basketFixtures))
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"run", "--tags", "@smoke", "--no-record"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "1 scenarios (1 passed, 0 failed, 0 skipped, 2 filtered out)")
}
