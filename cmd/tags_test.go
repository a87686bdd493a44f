package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags_ShowsAdmittedScenarios(t *testing.T) {
	cfg := setupProject(t)

	var buf bytes.Buffer
	require.NoError(t, RunTags(&buf, cfg, "@shop and not @WIP", nil))

	out := buf.String()
	assert.Contains(t, out, "expression: (@shop and not @WIP)")
	assert.Contains(t, out, "features/basket.feature:8  Eating  @shop @smoke")
	assert.Contains(t, out, "features/basket.feature:12  Overeating  @shop")
	assert.Contains(t, out, "features/basket.feature:17  Pending  @shop @wip")
	assert.Contains(t, out, "3 of 3 scenarios admitted")
}

func TestTags_Precedence(t *testing.T) {
	cfg := setupProject(t)

	var buf bytes.Buffer
	require.NoError(t, RunTags(&buf, cfg, "@smoke or @wip and not @shop", nil))
	assert.Contains(t, buf.String(), "expression: (@smoke or (@wip and not @shop))")
	assert.Contains(t, buf.String(), "1 of 3 scenarios admitted")
}

func TestTags_InvalidExpression(t *testing.T) {
	cfg := setupProject(t)

	var buf bytes.Buffer
	err := RunTags(&buf, cfg, "(@a or @b", nil)
	assert.ErrorContains(t, err, "missing ')'")
}
