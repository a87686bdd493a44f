package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/logging"
	"github.com/chriserin/stepwise/pkg/registry"
	"github.com/chriserin/stepwise/pkg/step"
	"github.com/chriserin/stepwise/pkg/stepctx"
)

func generateFeatureFile(name string, scenarioCount int) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Feature: %s\n", name)
	buf.WriteString("  Background:\n")
	buf.WriteString("    Given the system is running\n\n")
	for i := 1; i <= scenarioCount; i++ {
		if i%2 == 0 {
			buf.WriteString("  @even\n")
		}
		fmt.Fprintf(&buf, "  Scenario: %s scenario %d\n", name, i)
		fmt.Fprintf(&buf, "    Given precondition %d\n", i)
		fmt.Fprintf(&buf, "    When action %d is taken\n", i)
		fmt.Fprintf(&buf, "    Then result %d is observed\n\n", i)
	}
	return buf.String()
}

func benchRegistry(b *testing.B) *registry.Registry {
	b.Helper()
	reg := registry.New(registry.WithLogger(logging.Discard()))
	noop := step.Func(func(context.Context, *stepctx.Context, step.Args) error { return nil })
	require.NoError(b, reg.Given("the system is running", noop))
	require.NoError(b, reg.Given("precondition {n:u32}", noop))
	require.NoError(b, reg.When("action {n:u32} is taken", noop))
	require.NoError(b, reg.Then("result {n:u32} is observed", noop))
	return reg
}

func setupBenchProject(b *testing.B, fileCount, scenariosPerFile int) *config.Config {
	b.Helper()
	dir := b.TempDir()
	orig, err := os.Getwd()
	require.NoError(b, err)
	require.NoError(b, os.Chdir(dir))
	b.Cleanup(func() { os.Chdir(orig) })

	var buf bytes.Buffer
	require.NoError(b, RunInit(&buf))

	for i := 0; i < fileCount; i++ {
		name := fmt.Sprintf("feature_%d", i)
		content := generateFeatureFile(name, scenariosPerFile)
		require.NoError(b, os.WriteFile(fmt.Sprintf("features/%s.feature", name), []byte(content), 0o644))
	}

	cfg, err := config.Load(config.FileName)
	require.NoError(b, err)
	return cfg
}

func benchmarkRun(b *testing.B, fileCount, scenariosPerFile int, opts RunOptions) {
	cfg := setupBenchProject(b, fileCount, scenariosPerFile)
	reg := benchRegistry(b)
	ctx := logging.WithLogger(context.Background(), logging.Discard())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		_, err := RunRun(ctx, &buf, reg, cfg, opts)
		require.NoError(b, err)
	}
}

func BenchmarkRun_10Files_10Scenarios(b *testing.B) {
	benchmarkRun(b, 10, 10, RunOptions{NoRecord: true})
}

func BenchmarkRun_100Files_10Scenarios(b *testing.B) {
	benchmarkRun(b, 100, 10, RunOptions{NoRecord: true})
}

func BenchmarkRun_TagFiltered(b *testing.B) {
	benchmarkRun(b, 50, 10, RunOptions{Tags: "@even", NoRecord: true})
}

func BenchmarkRun_Recorded(b *testing.B) {
	benchmarkRun(b, 10, 10, RunOptions{})
}

func BenchmarkLoadScenarios(b *testing.B) {
	cfg := setupBenchProject(b, 100, 10)
	paths, err := featurePaths(cfg.Features, nil)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := loadScenarios(paths)
		require.NoError(b, err)
	}
}
