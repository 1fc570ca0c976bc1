package inet

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy selects the order in which active pairs are eliminated.
type Strategy int

const (
	// StrategyLazy walks from the root and only fires pairs the value of
	// the root depends on. Terms built with fixpoint combinators need it.
	StrategyLazy Strategy = iota
	// StrategyFIFO fires every active pair of the net in creation order.
	StrategyFIFO
	// StrategyLIFO fires every active pair, most recent first.
	StrategyLIFO
)

func (s Strategy) String() string {
	switch s {
	case StrategyLazy:
		return "lazy"
	case StrategyFIFO:
		return "fifo"
	case StrategyLIFO:
		return "lifo"
	default:
		return "unknown"
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "lazy", "":
		return StrategyLazy, nil
	case "fifo":
		return StrategyFIFO, nil
	case "lifo":
		return StrategyLIFO, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}

type Options struct {
	// Budget caps the rewrites of one Reduce call. Zero means unlimited.
	Budget        uint64
	Strategy      Strategy
	TraceCapacity int
}

type Option func(*Options)

func WithBudget(n uint64) Option { return func(o *Options) { o.Budget = n } }

func WithStrategy(s Strategy) Option { return func(o *Options) { o.Strategy = s } }

func WithTrace(capacity int) Option { return func(o *Options) { o.TraceCapacity = capacity } }

type Status int

const (
	StatusNormal Status = iota
	StatusBudgetExceeded
)

func (s Status) String() string {
	if s == StatusBudgetExceeded {
		return "budget exceeded"
	}
	return "normal"
}

// Result describes one Reduce call.
type Result struct {
	Status Status
	// Rewrites performed by this call.
	Rewrites uint64
	// Stats accumulated by the net over all calls.
	Stats Stats
}

func (r Result) BudgetExceeded() bool { return r.Status == StatusBudgetExceeded }

// Reduce rewrites the net in place until no active pair the strategy cares
// about remains, or until the budget is spent. A net returned with
// StatusBudgetExceeded is consistent and Reduce may be called on it again.
func (n *Net) Reduce(opts ...Option) Result {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.TraceCapacity > 0 {
		n.EnableTrace(o.TraceCapacity)
	}

	r := &reducer{net: n, budget: o.Budget}
	var finished bool
	switch o.Strategy {
	case StrategyFIFO:
		finished = r.exhaust(false)
	case StrategyLIFO:
		finished = r.exhaust(true)
	default:
		finished = r.normalize()
	}

	res := Result{Rewrites: r.done, Stats: n.stats}
	if !finished {
		res.Status = StatusBudgetExceeded
	}
	return res
}

type reducer struct {
	net    *Net
	budget uint64
	done   uint64
	chain  []Port
}

func (r *reducer) exhausted() bool {
	return r.budget > 0 && r.done >= r.budget
}

func (r *reducer) fire(p Port) {
	r.net.rewrite(p.Node(), r.net.Enter(p).Node())
	r.done++
}

func (r *reducer) exhaust(lifo bool) bool {
	n := r.net
	q := NewScheduler(lifo)
	for _, p := range n.ActivePairs() {
		q.Push(p)
	}
	n.queue = q
	defer func() { n.queue = nil }()

	for {
		p, ok := q.Pop()
		if !ok {
			return true
		}
		if !n.IsActive(p) {
			continue
		}
		if r.exhausted() {
			return false
		}
		r.fire(p)
	}
}

// whnf fires active pairs until the term seen from x has a head: a λ, a
// variable, a superposition or a stuck application. It follows the chain of
// auxiliary-to-principal links below x, firing the deepest pair first. It
// reports false when the budget ran out.
func (r *reducer) whnf(x Port) bool {
	n := r.net
	chain := append(r.chain[:0], x)
	defer func() { r.chain = chain[:0] }()

	for len(chain) > 0 {
		n.stats.Loops++
		top := chain[len(chain)-1]
		q := n.Enter(top)
		if q.Slot() == 0 {
			if !n.IsActive(top) {
				return true
			}
			if r.exhausted() {
				return false
			}
			r.fire(top)
			chain = chain[:len(chain)-1]
			continue
		}
		if n.Kind(q.Node()) == KindCon && q.Slot() == 1 {
			return true
		}
		// a chain longer than the net loops on itself
		if len(chain) > n.live {
			return true
		}
		chain = append(chain, PortOf(q.Node(), 0))
	}
	return true
}

// normalize reduces the part of the net reachable from the root to normal
// form, descending into λ bodies, into both sides of stuck applications and
// through duplicators with an exit stack.
func (r *reducer) normalize() bool {
	n := r.net
	type frame struct {
		port Port
		exit *Exit
	}
	todo := []frame{{port: RootPort}}

	for len(todo) > 0 {
		f := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		if !r.whnf(f.port) {
			return false
		}
		q := n.Enter(f.port)
		if q == f.port {
			continue
		}
		id := q.Node()
		switch n.Kind(id) {
		case KindCon:
			switch q.Slot() {
			case 0:
				todo = append(todo, frame{PortOf(id, 2), f.exit})
			case 2:
				todo = append(todo, frame{PortOf(id, 1), f.exit}, frame{PortOf(id, 0), f.exit})
			}
		case KindDup:
			if q.Slot() == 0 {
				if slot, rest, ok := f.exit.Pop(); ok {
					todo = append(todo, frame{PortOf(id, slot), rest})
				}
			} else if f.exit.Depth() < n.live {
				todo = append(todo, frame{PortOf(id, 0), f.exit.Push(q.Slot())})
			}
		}
	}
	return true
}

// Exit is a persistent stack of duplicator slots recording which copy a
// walk took when it entered a duplicator through an auxiliary port. The nil
// *Exit is the empty stack.
type Exit struct {
	slot  int
	depth int
	next  *Exit
}

func (e *Exit) Push(slot int) *Exit {
	return &Exit{slot: slot, depth: e.Depth() + 1, next: e}
}

// Pop returns the top slot and the rest of the stack. ok is false when the
// stack is empty.
func (e *Exit) Pop() (slot int, rest *Exit, ok bool) {
	if e == nil {
		return 0, nil, false
	}
	return e.slot, e.next, true
}

func (e *Exit) Depth() int {
	if e == nil {
		return 0
	}
	return e.depth
}

// Key renders the stack, top first, for use in map keys.
func (e *Exit) Key() string {
	var b strings.Builder
	for s := e; s != nil; s = s.next {
		b.WriteString(strconv.Itoa(s.slot))
	}
	return b.String()
}
