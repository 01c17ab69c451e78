package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

type stubNode struct {
	id      string
	routing Routing
}

func (n *stubNode) ID() string { return n.id }

func (n *stubNode) Execute(_ context.Context, _ *models.ExecutionState) (models.StatePatch, Routing, error) {
	return models.StatePatch{}, n.routing, nil
}

func node(id string) *stubNode {
	return &stubNode{id: id, routing: Continue()}
}

func TestBuildValidGraph(t *testing.T) {
	def, err := NewBuilder(models.WorkflowPeakHour).
		AddNode(node("aggregate")).
		AddNode(node("classify")).
		AddNode(node("record")).
		SetStart("aggregate").
		AddEdge("aggregate", "classify").
		AddEdge("classify", EndID).
		AddEdge("record", EndID).
		AddBranch("classify", "peak", "record").
		AddBranch("classify", "low", "record").
		AddBranch("classify", "normal", EndID).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "aggregate", def.Start())
	assert.Equal(t, models.WorkflowPeakHour, def.WorkflowType())

	_, ok := def.Node("classify")
	assert.True(t, ok)
}

func TestBuildRejectsInvalidGraphs(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		wantErr string
	}{
		{
			name:    "missing start",
			builder: NewBuilder(models.WorkflowQueue).AddNode(node("a")).AddEdge("a", EndID),
			wantErr: "start node not set",
		},
		{
			name: "start does not exist",
			builder: NewBuilder(models.WorkflowQueue).
				AddNode(node("a")).
				AddEdge("a", EndID).
				SetStart("missing"),
			wantErr: "does not exist",
		},
		{
			name: "branch target unknown",
			builder: NewBuilder(models.WorkflowQueue).
				AddNode(node("a")).
				SetStart("a").
				AddEdge("a", EndID).
				AddBranch("a", "critical", "ghost"),
			wantErr: "unknown node",
		},
		{
			name: "node without default edge",
			builder: NewBuilder(models.WorkflowQueue).
				AddNode(node("a")).
				AddNode(node("b")).
				SetStart("a").
				AddEdge("a", "b"),
			wantErr: "no default edge",
		},
		{
			name: "cycle that never terminates",
			builder: NewBuilder(models.WorkflowQueue).
				AddNode(node("a")).
				AddNode(node("b")).
				SetStart("a").
				AddEdge("a", "b").
				AddEdge("b", "a"),
			wantErr: "cannot reach a terminal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNextResolution(t *testing.T) {
	def, err := NewBuilder(models.WorkflowOvercrowding).
		AddNode(node("occupancy")).
		AddNode(node("alert")).
		SetStart("occupancy").
		AddEdge("occupancy", EndID).
		AddEdge("alert", EndID).
		AddBranch("occupancy", "over", "alert").
		AddBranch("occupancy", "normal", EndID).
		Build()
	require.NoError(t, err)

	next, err := def.Next("occupancy", Branch("over"))
	require.NoError(t, err)
	assert.Equal(t, "alert", next)

	next, err = def.Next("occupancy", Branch("normal"))
	require.NoError(t, err)
	assert.Equal(t, EndID, next)

	next, err = def.Next("occupancy", Continue())
	require.NoError(t, err)
	assert.Equal(t, EndID, next)

	next, err = def.Next("alert", End())
	require.NoError(t, err)
	assert.Equal(t, EndID, next)

	_, err = def.Next("occupancy", Branch("bogus"))
	assert.ErrorIs(t, err, ErrUnmappedLabel)
}
