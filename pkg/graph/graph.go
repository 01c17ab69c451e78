// Package graph defines the directed workflow graph model: the node contract,
// routing signals, and construction-time validation of edges and branch
// tables.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/vallabhn1/MallCCTV/pkg/models"
)

// EndID is the terminal pseudo-node every path must reach.
const EndID = "__end__"

var (
	// ErrUnknownNode indicates routing resolved to a node id that is not in
	// the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnmappedLabel indicates a node produced a branch label with no entry
	// in its routing table. Validation rejects graphs whose declared labels
	// are unmapped, so hitting this at runtime is a construction bug.
	ErrUnmappedLabel = errors.New("branch label not mapped")
)

// Node is one unit of computation. Execute receives the current state plus
// whatever collaborators the node was constructed with, and returns a patch
// to merge and a routing signal. It must not mutate the state it receives.
type Node interface {
	ID() string
	Execute(ctx context.Context, state *models.ExecutionState) (models.StatePatch, Routing, error)
}

// Definition is an immutable, validated workflow graph.
type Definition struct {
	workflowType models.WorkflowType
	start        string
	nodes        map[string]Node
	defaults     map[string]string
	branches     map[string]map[string]string
}

func (d *Definition) WorkflowType() models.WorkflowType {
	return d.workflowType
}

func (d *Definition) Start() string {
	return d.start
}

// Node looks up a node by id.
func (d *Definition) Node(id string) (Node, bool) {
	node, ok := d.nodes[id]

	return node, ok
}

// Next resolves a routing signal produced by nodeID to the next node id or
// EndID.
func (d *Definition) Next(nodeID string, routing Routing) (string, error) {
	switch routing.kind {
	case routingEnd:
		return EndID, nil
	case routingContinue:
		next, ok := d.defaults[nodeID]
		if !ok {
			return "", fmt.Errorf("node %s has no default edge: %w", nodeID, ErrUnknownNode)
		}

		return next, nil
	case routingBranch:
		next, ok := d.branches[nodeID][routing.label]
		if !ok {
			return "", fmt.Errorf("node %s label %q: %w", nodeID, routing.label, ErrUnmappedLabel)
		}

		return next, nil
	default:
		return "", fmt.Errorf("node %s: unsupported routing kind %d", nodeID, routing.kind)
	}
}

// Builder assembles a Definition. Build validates the result; an invalid
// graph never becomes a Definition, which is what keeps routing dead-ends a
// construction-time failure instead of a runtime one.
type Builder struct {
	workflowType models.WorkflowType
	start        string
	nodes        map[string]Node
	defaults     map[string]string
	branches     map[string]map[string]string
}

func NewBuilder(workflowType models.WorkflowType) *Builder {
	return &Builder{
		workflowType: workflowType,
		nodes:        make(map[string]Node),
		defaults:     make(map[string]string),
		branches:     make(map[string]map[string]string),
	}
}

func (b *Builder) AddNode(node Node) *Builder {
	b.nodes[node.ID()] = node

	return b
}

func (b *Builder) SetStart(id string) *Builder {
	b.start = id

	return b
}

// AddEdge declares the default successor of a node. Use EndID to terminate.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.defaults[from] = to

	return b
}

// AddBranch maps one branch label of a node to its successor.
func (b *Builder) AddBranch(from, label, to string) *Builder {
	if b.branches[from] == nil {
		b.branches[from] = make(map[string]string)
	}

	b.branches[from][label] = to

	return b
}

func (b *Builder) Build() (*Definition, error) {
	if b.start == "" {
		return nil, fmt.Errorf("graph %s: start node not set", b.workflowType)
	}

	if _, ok := b.nodes[b.start]; !ok {
		return nil, fmt.Errorf("graph %s: start node %s does not exist", b.workflowType, b.start)
	}

	for from, to := range b.defaults {
		if err := b.checkEndpoint(from, to); err != nil {
			return nil, err
		}
	}

	for from, table := range b.branches {
		for label, to := range table {
			if err := b.checkEndpoint(from, to); err != nil {
				return nil, fmt.Errorf("label %q: %w", label, err)
			}
		}
	}

	// Every node needs a default edge as the fallback branch, even when all
	// its declared labels are mapped.
	for id := range b.nodes {
		if _, ok := b.defaults[id]; !ok {
			return nil, fmt.Errorf("graph %s: node %s has no default edge", b.workflowType, id)
		}
	}

	if err := b.checkTerminates(); err != nil {
		return nil, err
	}

	return &Definition{
		workflowType: b.workflowType,
		start:        b.start,
		nodes:        b.nodes,
		defaults:     b.defaults,
		branches:     b.branches,
	}, nil
}

func (b *Builder) checkEndpoint(from, to string) error {
	if _, ok := b.nodes[from]; !ok {
		return fmt.Errorf("graph %s: edge from unknown node %s", b.workflowType, from)
	}

	if to == EndID {
		return nil
	}

	if _, ok := b.nodes[to]; !ok {
		return fmt.Errorf("graph %s: edge from %s to unknown node %s", b.workflowType, from, to)
	}

	return nil
}

// checkTerminates verifies END is reachable from every node, so no path can
// loop forever or strand execution.
func (b *Builder) checkTerminates() error {
	// Walk the edge set backwards from END.
	reachesEnd := map[string]bool{EndID: true}

	for changed := true; changed; {
		changed = false

		for id := range b.nodes {
			if reachesEnd[id] {
				continue
			}

			if reachesEnd[b.defaults[id]] {
				reachesEnd[id] = true
				changed = true

				continue
			}

			for _, to := range b.branches[id] {
				if reachesEnd[to] {
					reachesEnd[id] = true
					changed = true

					break
				}
			}
		}
	}

	for id := range b.nodes {
		if !reachesEnd[id] {
			return fmt.Errorf("graph %s: node %s cannot reach a terminal", b.workflowType, id)
		}
	}

	return nil
}
