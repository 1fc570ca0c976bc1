package inet

import (
	"fmt"
	"sync/atomic"
)

// Kind identifies the type of agent.
type Kind uint8

const (
	KindFree Kind = iota // released arena slot
	KindRoot             // boundary of the net, node 0
	KindEraser
	KindCon // λ abstraction or application
	KindDup // labelled duplicator
)

func (k Kind) String() string {
	switch k {
	case KindFree:
		return "Free"
	case KindRoot:
		return "Root"
	case KindEraser:
		return "Eraser"
	case KindCon:
		return "Con"
	case KindDup:
		return "Dup"
	default:
		return "Unknown"
	}
}

// NodeID addresses a node in the arena.
type NodeID uint32

// RootNode is the boundary node. Its principal port holds the value of the
// whole expression.
const RootNode NodeID = 0

// Port identifies a connection point as (node, slot). Slot 0 is the
// principal port; slots 1 and 2 are auxiliary.
type Port uint64

// PortOf returns the port of node id at the given slot.
func PortOf(id NodeID, slot int) Port {
	return Port(id)<<2 | Port(slot&3)
}

func (p Port) Node() NodeID { return NodeID(p >> 2) }
func (p Port) Slot() int    { return int(p & 3) }

func (p Port) String() string {
	return fmt.Sprintf("%d:%d", p.Node(), p.Slot())
}

// RootPort is the free boundary port of every net.
var RootPort = PortOf(RootNode, 0)

type node struct {
	kind  Kind
	label uint32
}

// Arity returns the number of ports of a node of this kind.
func (k Kind) Arity() int {
	switch k {
	case KindCon, KindDup:
		return 3
	case KindRoot, KindEraser:
		return 1
	default:
		return 0
	}
}

// Net is an interaction net stored as an arena of nodes plus a separate
// port-to-port connection table.
type Net struct {
	nodes []node
	links []Port
	free  []NodeID

	live      int
	nextLabel uint32

	// queue is only set while an exhaustive strategy is running.
	queue *Scheduler

	stats Stats

	traceBuf []TraceEvent
	traceCap uint64
	traceIdx uint64
	traceOn  bool
}

// Stats holds reduction statistics.
type Stats struct {
	Rewrites      uint64
	Annihilations uint64
	Commutations  uint64
	Erasures      uint64
	// Loops counts traversal steps of the lazy strategy.
	Loops     uint64
	PeakNodes int
}

var totalRewrites atomic.Uint64

// TotalRewrites returns the number of active pairs eliminated by every net
// in this process.
func TotalRewrites() uint64 {
	return totalRewrites.Load()
}

// New returns an empty net holding only the root node. The root port is
// linked to itself until a term is attached.
func New() *Net {
	n := &Net{nextLabel: 1}
	n.alloc(KindRoot, 0)
	n.links[RootPort] = RootPort
	return n
}

func (n *Net) alloc(kind Kind, label uint32) NodeID {
	var id NodeID
	if l := len(n.free); l > 0 {
		id = n.free[l-1]
		n.free = n.free[:l-1]
		n.nodes[id] = node{kind: kind, label: label}
	} else {
		id = NodeID(len(n.nodes))
		n.nodes = append(n.nodes, node{kind: kind, label: label})
		n.links = append(n.links, 0, 0, 0, 0)
	}
	base := Port(id) << 2
	for i := Port(0); i < 4; i++ {
		n.links[base+i] = base + i
	}
	n.live++
	if n.live > n.stats.PeakNodes {
		n.stats.PeakNodes = n.live
	}
	return id
}

func (n *Net) release(id NodeID) {
	if id == RootNode || n.nodes[id].kind == KindFree {
		return
	}
	n.nodes[id] = node{}
	n.free = append(n.free, id)
	n.live--
}

// NewCon allocates a constructor node (λ or application).
func (n *Net) NewCon() NodeID { return n.alloc(KindCon, 0) }

// NewEraser allocates an eraser.
func (n *Net) NewEraser() NodeID { return n.alloc(KindEraser, 0) }

// NewDup allocates a duplicator with the given label. Labels must be
// positive; use FreshLabel to obtain an unused one.
func (n *Net) NewDup(label uint32) NodeID {
	if label == 0 {
		panic("inet: duplicator label must be positive")
	}
	if label >= n.nextLabel {
		n.nextLabel = label + 1
	}
	return n.alloc(KindDup, label)
}

// FreshLabel returns a duplicator label not used so far in this net.
func (n *Net) FreshLabel() uint32 {
	l := n.nextLabel
	n.nextLabel++
	return l
}

// Free releases a node built by hand. The caller must relink its
// neighbours.
func (n *Net) Free(id NodeID) { n.release(id) }

// Kind returns the kind of node id.
func (n *Net) Kind(id NodeID) Kind {
	if int(id) >= len(n.nodes) {
		return KindFree
	}
	return n.nodes[id].kind
}

// Label returns the duplicator label of node id (0 for other kinds).
func (n *Net) Label(id NodeID) uint32 { return n.nodes[id].label }

// Len returns the number of live nodes, root included.
func (n *Net) Len() int { return n.live }

// Nodes calls fn for every live node.
func (n *Net) Nodes(fn func(id NodeID, kind Kind)) {
	for i, nd := range n.nodes {
		if nd.kind != KindFree {
			fn(NodeID(i), nd.kind)
		}
	}
}

// Enter returns the port connected to p.
func (n *Net) Enter(p Port) Port {
	return n.links[p]
}

// Link connects two ports. An active pair formed by the link is queued when
// an exhaustive strategy is running.
func (n *Net) Link(a, b Port) {
	n.links[a] = b
	n.links[b] = a
	if n.queue != nil && a.Slot() == 0 && b.Slot() == 0 && a != b && n.interacts(a.Node()) && n.interacts(b.Node()) {
		n.queue.Push(a)
	}
}

// Unlink leaves p connected to itself. Its former partner keeps pointing
// at p until it is relinked.
func (n *Net) Unlink(p Port) {
	n.links[p] = p
}

// IsConnected reports whether ports a and b are linked to each other.
func (n *Net) IsConnected(a, b Port) bool {
	return n.links[a] == b && n.links[b] == a
}

func (n *Net) interacts(id NodeID) bool {
	switch n.nodes[id].kind {
	case KindEraser, KindCon, KindDup:
		return true
	default:
		return false
	}
}

// IsActive reports whether p is a principal port facing another
// principal port.
func (n *Net) IsActive(p Port) bool {
	q := n.links[p]
	return p.Slot() == 0 && q.Slot() == 0 && p != q && n.interacts(p.Node()) && n.interacts(q.Node())
}

// ActivePairs returns one principal port per active pair.
func (n *Net) ActivePairs() []Port {
	var pairs []Port
	for i, nd := range n.nodes {
		if nd.kind == KindFree {
			continue
		}
		p := PortOf(NodeID(i), 0)
		if n.IsActive(p) && p < n.links[p] {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// Stats returns the statistics accumulated over every Reduce call.
func (n *Net) Stats() Stats {
	return n.stats
}

// Verify checks that the connection table is a perfect matching over the
// ports of live nodes.
func (n *Net) Verify() error {
	for i, nd := range n.nodes {
		if nd.kind == KindFree {
			continue
		}
		for s := 0; s < nd.kind.Arity(); s++ {
			p := PortOf(NodeID(i), s)
			q := n.links[p]
			if q == p {
				if p == RootPort {
					continue
				}
				return fmt.Errorf("port %v is not connected", p)
			}
			if n.Kind(q.Node()) == KindFree || q.Slot() >= n.Kind(q.Node()).Arity() {
				return fmt.Errorf("port %v is connected to dead port %v", p, q)
			}
			if n.links[q] != p {
				return fmt.Errorf("port %v links to %v but %v links to %v", p, q, q, n.links[q])
			}
		}
	}
	return nil
}

func (n *Net) annihilate(a, b NodeID) {
	a1, b1 := n.Enter(PortOf(a, 1)), n.Enter(PortOf(b, 1))
	n.Link(a1, b1)
	a2, b2 := n.Enter(PortOf(a, 2)), n.Enter(PortOf(b, 2))
	n.Link(a2, b2)
	n.release(a)
	n.release(b)
}

func (n *Net) erase(era, victim NodeID) {
	for i := 1; i < n.nodes[victim].kind.Arity(); i++ {
		e := n.NewEraser()
		n.Link(PortOf(e, 0), n.Enter(PortOf(victim, i)))
	}
	n.release(era)
	n.release(victim)
}

// commute copies each node through the other. The copies of b face a's
// neighbours and the copies of a face b's neighbours.
func (n *Net) commute(a, b NodeID) {
	ka, kb := n.nodes[a], n.nodes[b]
	p := n.alloc(kb.kind, kb.label)
	q := n.alloc(kb.kind, kb.label)
	r := n.alloc(ka.kind, ka.label)
	s := n.alloc(ka.kind, ka.label)

	n.Link(PortOf(r, 1), PortOf(p, 1))
	n.Link(PortOf(s, 1), PortOf(p, 2))
	n.Link(PortOf(r, 2), PortOf(q, 1))
	n.Link(PortOf(s, 2), PortOf(q, 2))

	n.Link(PortOf(p, 0), n.Enter(PortOf(a, 1)))
	n.Link(PortOf(q, 0), n.Enter(PortOf(a, 2)))
	n.Link(PortOf(r, 0), n.Enter(PortOf(b, 1)))
	n.Link(PortOf(s, 0), n.Enter(PortOf(b, 2)))

	n.release(a)
	n.release(b)
}

// rewrite eliminates the active pair (a, b) and returns the rule applied.
func (n *Net) rewrite(a, b NodeID) RuleKind {
	na, nb := n.nodes[a], n.nodes[b]
	var rule RuleKind
	switch {
	case na.kind == KindEraser && nb.kind == KindEraser:
		rule = RuleVoid
	case na.kind == KindEraser || nb.kind == KindEraser:
		rule = RuleErasure
	case na == nb && na.kind == KindCon:
		rule = RuleBeta
	case na == nb:
		rule = RuleDupDup
	default:
		rule = RuleCommute
	}
	n.recordTrace(rule, a, na.kind, b, nb.kind)

	switch rule {
	case RuleVoid:
		n.release(a)
		n.release(b)
		n.stats.Erasures++
	case RuleErasure:
		if na.kind == KindEraser {
			n.erase(a, b)
		} else {
			n.erase(b, a)
		}
		n.stats.Erasures++
	case RuleBeta, RuleDupDup:
		n.annihilate(a, b)
		n.stats.Annihilations++
	default:
		n.commute(a, b)
		n.stats.Commutations++
	}
	n.stats.Rewrites++
	totalRewrites.Add(1)
	return rule
}
