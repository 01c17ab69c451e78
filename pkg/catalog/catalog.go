// Package catalog builds the shipped analytics workflow graphs: hourly peak
// detection, realtime overcrowding, queue monitoring, daily demographics and
// zone popularity. Each workflow is a small directed graph over the engine's
// node contract, wired to the detection source, persistence and counters.
package catalog

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/vallabhn1/MallCCTV/pkg/counters"
	"github.com/vallabhn1/MallCCTV/pkg/detection"
	"github.com/vallabhn1/MallCCTV/pkg/graph"
	"github.com/vallabhn1/MallCCTV/pkg/models"
	"github.com/vallabhn1/MallCCTV/pkg/persistence"
)

// Deps bundles what workflow nodes need at execution time.
type Deps struct {
	Logger     *slog.Logger
	Detections detection.Source
	Analytics  persistence.AnalyticsStore
	Counters   counters.Counter
	Config     Config

	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}

	return time.Now().UTC()
}

// Catalog holds the validated workflow definitions.
type Catalog struct {
	deps        *Deps
	definitions map[models.WorkflowType]*graph.Definition
}

// NewCatalog builds and validates every workflow graph. A build error here
// means a programming mistake in a graph shape, not bad runtime input.
func NewCatalog(deps Deps) (*Catalog, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	c := &Catalog{
		deps:        &deps,
		definitions: make(map[models.WorkflowType]*graph.Definition),
	}

	builders := map[models.WorkflowType]func(*Deps) (*graph.Definition, error){
		models.WorkflowPeakHour:     buildPeakHour,
		models.WorkflowOvercrowding: buildOvercrowding,
		models.WorkflowQueue:        buildQueue,
		models.WorkflowDemographics: buildDemographics,
		models.WorkflowPopularity:   buildPopularity,
	}

	for workflowType, build := range builders {
		def, err := build(c.deps)
		if err != nil {
			return nil, fmt.Errorf("build %s graph: %w", workflowType, err)
		}

		c.definitions[workflowType] = def
	}

	return c, nil
}

// Definition returns the graph for a workflow type.
func (c *Catalog) Definition(workflowType models.WorkflowType) (*graph.Definition, error) {
	def, ok := c.definitions[workflowType]
	if !ok {
		return nil, fmt.Errorf("no workflow registered for type %q", workflowType)
	}

	return def, nil
}

// Types lists the registered workflow types.
func (c *Catalog) Types() []models.WorkflowType {
	types := make([]models.WorkflowType, 0, len(c.definitions))
	for workflowType := range c.definitions {
		types = append(types, workflowType)
	}

	return types
}

// InitialState validates the trigger payload against the workflow's schema
// and builds the starting execution state.
func (c *Catalog) InitialState(workflowType models.WorkflowType, entityID, threadID string, payload map[string]any) (*models.ExecutionState, error) {
	if _, ok := c.definitions[workflowType]; !ok {
		return nil, fmt.Errorf("no workflow registered for type %q", workflowType)
	}

	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}

	if err := validatePayload(workflowType, payload); err != nil {
		return nil, err
	}

	return models.NewExecutionState(workflowType, entityID, threadID, payload), nil
}
