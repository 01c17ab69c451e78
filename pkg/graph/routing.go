package graph

// routingKind is the closed set of routing outcomes a node can produce.
type routingKind int

const (
	routingContinue routingKind = iota
	routingBranch
	routingEnd
)

// Routing is the signal a node returns to steer execution: follow the default
// edge, resolve a branch label against the node's routing table, or stop.
type Routing struct {
	kind  routingKind
	label string
}

func Continue() Routing {
	return Routing{kind: routingContinue}
}

func Branch(label string) Routing {
	return Routing{kind: routingBranch, label: label}
}

func End() Routing {
	return Routing{kind: routingEnd}
}

func (r Routing) IsEnd() bool {
	return r.kind == routingEnd
}

func (r Routing) Label() string {
	return r.label
}
