package export_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborhsm/statetree/export"
	"github.com/arborhsm/statetree/examples/turnstile"
	"github.com/arborhsm/statetree/internal/tree"
	"github.com/arborhsm/statetree/statekey"
)

func TestDiagramContextRejectsDuplicateRegistration(t *testing.T) {
	ctx := export.NewDiagramContext()
	assert.Empty(t, ctx.Nodes())

	info := &tree.BuildInfo{Key: statekey.New("dup")}
	_, err := ctx.BuildLeaf(info)
	require.NoError(t, err)
	_, err = ctx.BuildRoot(info)
	assert.Error(t, err)
}

func TestRenderPlantUMLWrapsStartAndEndTags(t *testing.T) {
	tb, err := turnstile.Build()
	require.NoError(t, err)

	ctx := export.NewDiagramContext()
	root, err := tb.Materialize(ctx)
	require.NoError(t, err)

	diagram := export.RenderPlantUML(root)
	assert.Contains(t, diagram, "@startuml")
	assert.Contains(t, diagram, "@enduml")
}

func TestRenderPlantUMLIncludesDeclaredStatesAndTransitions(t *testing.T) {
	tb, err := turnstile.Build()
	require.NoError(t, err)

	ctx := export.NewDiagramContext()
	root, err := tb.Materialize(ctx)
	require.NoError(t, err)

	diagram := export.RenderPlantUML(root)
	assert.Contains(t, diagram, "locked")
	assert.Contains(t, diagram, "unlocked")
	assert.Contains(t, diagram, "-->")
}

func TestDiagramContextRecordsEveryMaterializedNode(t *testing.T) {
	tb, err := turnstile.Build()
	require.NoError(t, err)

	ctx := export.NewDiagramContext()
	_, err = tb.Materialize(ctx)
	require.NoError(t, err)

	nodes := ctx.Nodes()
	assert.Contains(t, nodes, "locked")
	assert.Contains(t, nodes, "unlocked")
}
