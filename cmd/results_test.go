package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/db"
)

func TestResults_LatestRun(t *testing.T) {
	cfg := setupProject(t)
	_, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{})
	require.ErrorIs(t, err, ErrScenariosFailed)

	var buf bytes.Buffer
	require.NoError(t, RunResults(quietContext(), &buf, cfg, ""))

	out := buf.String()
	assert.Contains(t, out, "run ")
	assert.Contains(t, out, "pass  features/basket.feature:8  Eating")
	assert.Contains(t, out, "FAIL  features/basket.feature:12  Overeating")
	assert.Contains(t, out, "wrong number of cucumbers")
	assert.Contains(t, out, "skip  features/basket.feature:17  Pending  no scale")
	assert.Contains(t, out, "1 passed, 1 failed, 1 skipped")
}

func TestResults_ByRunID(t *testing.T) {
	cfg := setupProject(t)
	_, first, err := runRun(t, basketRegistry(t), cfg, RunOptions{Tags: "@smoke"})
	require.NoError(t, err)
	_, _, err = runRun(t, basketRegistry(t), cfg, RunOptions{Tags: "@wip"})
	require.NoError(t, err)

	id := first[len(first)-37 : len(first)-1]

	var buf bytes.Buffer
	require.NoError(t, RunResults(quietContext(), &buf, cfg, id))
	assert.Contains(t, buf.String(), "Eating")
	assert.NotContains(t, buf.String(), "Pending")
}

func TestResults_NoRuns(t *testing.T) {
	cfg := setupProject(t)

	var buf bytes.Buffer
	err := RunResults(quietContext(), &buf, cfg, "")
	assert.ErrorIs(t, err, db.ErrNoRuns)
}

func TestResults_NoDatabase(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunResults(quietContext(), &buf, config.Default(), "")
	assert.ErrorContains(t, err, "no results database at .stepwise/results.db")
}

func TestHistory_NewestFirst(t *testing.T) {
	cfg := setupProject(t)
	for _, expr := range []string{"@smoke", "@wip"} {
		_, _, err := runRun(t, basketRegistry(t), cfg, RunOptions{Tags: expr})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, RunHistory(quietContext(), &buf, cfg, 5))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "0 passed, 0 failed, 1 skipped")
	assert.Contains(t, string(lines[1]), "1 passed, 0 failed, 0 skipped")
}
