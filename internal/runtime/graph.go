package runtime

// LinkKind distinguishes direct sources from children produced by
// flattening operators.
type LinkKind int

const (
	LinkSource LinkKind = iota
	LinkFlat
)

// GraphRegistry maintains the structural links between live subscriptions:
// sink/rootSink upward toward the consumer, sources/flats downward toward
// producers. Tracking is opt-in per subscription; untracked subscriptions
// project to an absent graph.
type GraphRegistry struct {
	nodes map[string]*graphNode
}

type graphNode struct {
	id   string
	sink *graphNode

	sources []*graphNode
	flats   []*graphNode

	// Counts of links cleared by Unlink, preserved so fan-out stays
	// reportable after the history is flushed.
	sourcesFlushed int
	flatsFlushed   int
}

// NewGraphRegistry creates an empty graph registry.
func NewGraphRegistry() *GraphRegistry {
	return &GraphRegistry{nodes: make(map[string]*graphNode)}
}

// Track enables graph tracking for a subscription id. Link implies Track for
// both ends; Track exists so roots with no links still project a graph.
func (g *GraphRegistry) Track(subscriptionID string) {
	g.node(subscriptionID)
}

// Tracked reports whether graph tracking is enabled for the subscription.
func (g *GraphRegistry) Tracked(subscriptionID string) bool {
	_, ok := g.nodes[subscriptionID]
	return ok
}

func (g *GraphRegistry) node(id string) *graphNode {
	n, ok := g.nodes[id]
	if !ok {
		n = &graphNode{id: id}
		g.nodes[id] = n
	}
	return n
}

// Link records that child is a source or flat of parent and sets the
// child's sink to the parent. The root sink is derived by walking sinks at
// projection time so later re-parenting never leaves it stale. Duplicate
// links are idempotent.
func (g *GraphRegistry) Link(parentID, childID string, kind LinkKind) {
	if parentID == childID {
		return
	}
	parent := g.node(parentID)
	child := g.node(childID)

	switch kind {
	case LinkFlat:
		if !containsNode(parent.flats, childID) {
			parent.flats = append(parent.flats, child)
		}
	default:
		if !containsNode(parent.sources, childID) {
			parent.sources = append(parent.sources, child)
		}
	}

	child.sink = parent
}

func containsNode(nodes []*graphNode, id string) bool {
	for _, n := range nodes {
		if n.id == id {
			return true
		}
	}
	return false
}

func rootOf(n *graphNode) *graphNode {
	for n.sink != nil {
		n = n.sink
	}
	return n
}

// Unlink flushes a subscription's downward links on unsubscribe. The link
// sets are cleared and their sizes folded into the flushed counts so
// downward-growing trees do not retain unbounded history.
func (g *GraphRegistry) Unlink(subscriptionID string) {
	n, ok := g.nodes[subscriptionID]
	if !ok {
		return
	}
	n.sourcesFlushed += len(n.sources)
	n.flatsFlushed += len(n.flats)
	n.sources = nil
	n.flats = nil
}

// GraphOf projects a subscription's current links into the wire shape.
// Returns nil if graph tracking was never enabled for that subscription.
func (g *GraphRegistry) GraphOf(subscriptionID string) *Graph {
	n, ok := g.nodes[subscriptionID]
	if !ok {
		return nil
	}

	graph := &Graph{
		Flats:          nodeIDs(n.flats),
		FlatsFlushed:   n.flatsFlushed > 0,
		Sources:        nodeIDs(n.sources),
		SourcesFlushed: n.sourcesFlushed > 0,
	}
	if n.sink != nil {
		sinkID := n.sink.id
		graph.Sink = &sinkID
	}
	if root := rootOf(n); root != n {
		rootID := root.id
		graph.RootSink = &rootID
	}
	return graph
}

func nodeIDs(nodes []*graphNode) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.id)
	}
	return ids
}

// SinkOf returns the id of the subscription consuming from the given one,
// or empty if it is a root or untracked.
func (g *GraphRegistry) SinkOf(subscriptionID string) string {
	if n, ok := g.nodes[subscriptionID]; ok && n.sink != nil {
		return n.sink.id
	}
	return ""
}
