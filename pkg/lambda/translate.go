package lambda

import (
	"fmt"
	"math"

	"github.com/vic/goabsal/pkg/inet"
)

// binding tracks where the value of a bound name leaves the net. A λ
// binder starts with an eraser on its variable port; a let binder starts
// unlinked. Several names share one binding when a let aliases a port
// another binding already owns.
type binding struct {
	port   inet.Port
	eraser inet.NodeID
	hasEra bool
}

type scoped struct {
	name string
	b    *binding
}

type compiler struct {
	net   *inet.Net
	scope []scoped
}

// Compile builds the interaction net of a closed term. The term's value is
// linked to inet.RootPort.
func Compile(term Term) (*inet.Net, error) {
	c := &compiler{net: inet.New()}
	out, err := c.build(term)
	if err != nil {
		return nil, err
	}
	c.net.Link(inet.RootPort, out)
	return c.net, nil
}

func (c *compiler) lookup(name string) *binding {
	for i := len(c.scope) - 1; i >= 0; i-- {
		if c.scope[i].name == name {
			return c.scope[i].b
		}
	}
	return nil
}

// owner returns the binding in scope whose port is p.
func (c *compiler) owner(p inet.Port) *binding {
	for i := len(c.scope) - 1; i >= 0; i-- {
		if c.scope[i].b.port == p {
			return c.scope[i].b
		}
	}
	return nil
}

// use returns a port carrying one more copy of the bound value.
func (c *compiler) use(b *binding) inet.Port {
	n := c.net
	partner := n.Enter(b.port)
	switch {
	case partner == b.port:
		// unlinked let value
		return b.port
	case b.hasEra && partner == inet.PortOf(b.eraser, 0):
		n.Free(b.eraser)
		n.Unlink(b.port)
		b.hasEra = false
		return b.port
	}
	dup := n.NewDup(n.FreshLabel())
	n.Link(inet.PortOf(dup, 0), b.port)
	n.Link(inet.PortOf(dup, 1), partner)
	return inet.PortOf(dup, 2)
}

func (c *compiler) build(term Term) (inet.Port, error) {
	n := c.net
	switch t := term.(type) {
	case *Var:
		b := c.lookup(t.Name)
		if b == nil {
			return 0, &UnboundVariableError{Name: t.Name}
		}
		return c.use(b), nil

	case *Lam:
		lam := n.NewCon()
		era := n.NewEraser()
		n.Link(inet.PortOf(lam, 1), inet.PortOf(era, 0))
		b := &binding{port: inet.PortOf(lam, 1), eraser: era, hasEra: true}
		c.scope = append(c.scope, scoped{name: t.Param, b: b})
		body, err := c.build(t.Body)
		c.scope = c.scope[:len(c.scope)-1]
		if err != nil {
			return 0, err
		}
		n.Link(inet.PortOf(lam, 2), body)
		return inet.PortOf(lam, 0), nil

	case *App:
		app := n.NewCon()
		fun, err := c.build(t.Fun)
		if err != nil {
			return 0, err
		}
		n.Link(inet.PortOf(app, 0), fun)
		arg, err := c.build(t.Arg)
		if err != nil {
			return 0, err
		}
		n.Link(inet.PortOf(app, 1), arg)
		return inet.PortOf(app, 2), nil

	case *Let:
		value, err := c.build(t.Value)
		if err != nil {
			return 0, err
		}
		// a value that is the first use of another binder is an alias:
		// both names must see the same eraser and dup state
		b := c.owner(value)
		if b == nil {
			b = &binding{port: value}
		}
		c.scope = append(c.scope, scoped{name: t.Name, b: b})
		body, err := c.build(t.Body)
		c.scope = c.scope[:len(c.scope)-1]
		if err != nil {
			return 0, err
		}
		// the body may hand the still unlinked port to the caller
		if n.Enter(b.port) == b.port && body != b.port {
			era := n.NewEraser()
			n.Link(b.port, inet.PortOf(era, 0))
			b.eraser, b.hasEra = era, true
		}
		return body, nil

	default:
		panic("lambda: unknown term variant")
	}
}

type readKey struct {
	port inet.Port
	exit *inet.Exit
}

type pushKey struct {
	exit *inet.Exit
	slot int
}

// memoEntry holds the closed terms read at a port that popped the same
// number of exit stack entries, keyed by those entries. Such a term does
// not depend on the rest of the stack.
type memoEntry struct {
	popped int
	terms  map[string]Term
}

type binder struct {
	node inet.NodeID
	name string
}

type decoder struct {
	net     *inet.Net
	binders []binder
	onPath  map[readKey]bool
	memo    map[inet.Port][]memoEntry
	uses    map[Term]int
	order   []Term
	// stacks interns exit stacks so equal stacks are the same pointer
	stacks   map[pushKey]*inet.Exit
	dups     int
	steps    int
	maxSteps int
	maxDepth int
}

// DecompileOption configures Decompile.
type DecompileOption func(*decoder)

// WithReadLimit caps the number of ports the readback visits. The default
// grows with the size of the net.
func WithReadLimit(steps int) DecompileOption {
	return func(d *decoder) { d.maxSteps = steps }
}

const (
	defaultReadSteps = 1 << 20
	readStepsPerNode = 16
	// maxNesting bounds the recursion of the readback, well below the
	// goroutine stack limit
	maxNesting = 1 << 18
)

// Decompile reads the term held at the root of a net. Closed subterms the
// net shares are read once and bound by top-level lets, inner ones first.
// Nets that do not hold a finite term, such as the partial net of a
// reduction stopped by its budget, give a *MalformedNetError.
func Decompile(n *inet.Net, opts ...DecompileOption) (Term, error) {
	d := &decoder{
		net:      n,
		onPath:   make(map[readKey]bool),
		memo:     make(map[inet.Port][]memoEntry),
		uses:     make(map[Term]int),
		stacks:   make(map[pushKey]*inet.Exit),
		maxSteps: defaultReadSteps + readStepsPerNode*n.Len(),
		maxDepth: -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	n.Nodes(func(_ inet.NodeID, k inet.Kind) {
		if k == inet.KindDup {
			d.dups++
		}
	})
	term, _, _, err := d.read(inet.RootPort, nil)
	if err != nil {
		return nil, err
	}
	return d.hoist(term), nil
}

func (d *decoder) malformed(p inet.Port, reason string) error {
	return &MalformedNetError{Node: p.Node(), Port: p, Reason: reason}
}

func (d *decoder) push(e *inet.Exit, slot int) *inet.Exit {
	k := pushKey{exit: e, slot: slot}
	if s, ok := d.stacks[k]; ok {
		return s
	}
	s := e.Push(slot)
	d.stacks[k] = s
	return s
}

// exitPrefix renders the top k slots of an exit stack.
func exitPrefix(e *inet.Exit, k int) (string, bool) {
	if e.Depth() < k {
		return "", false
	}
	var b []byte
	for ; k > 0; k-- {
		var slot int
		slot, e, _ = e.Pop()
		b = append(b, byte('0'+slot))
	}
	return string(b), true
}

func (d *decoder) lookup(p inet.Port, exit *inet.Exit) (Term, int, bool) {
	for _, m := range d.memo[p] {
		prefix, ok := exitPrefix(exit, m.popped)
		if !ok {
			continue
		}
		if t, ok := m.terms[prefix]; ok {
			return t, m.popped, true
		}
	}
	return nil, 0, false
}

func (d *decoder) remember(p inet.Port, exit *inet.Exit, popped int, t Term) {
	prefix, _ := exitPrefix(exit, popped)
	for _, m := range d.memo[p] {
		if m.popped == popped {
			m.terms[prefix] = t
			return
		}
	}
	d.memo[p] = append(d.memo[p], memoEntry{popped: popped, terms: map[string]Term{prefix: t}})
}

// read decodes the value flowing into port p. Besides the term it returns
// the lowest binder depth the term refers to (math.MaxInt for none) and
// how many entries of exit the walk popped.
func (d *decoder) read(p inet.Port, exit *inet.Exit) (term Term, minRef, popped int, err error) {
	n := d.net
	if t, k, ok := d.lookup(p, exit); ok {
		d.uses[t]++
		return t, math.MaxInt, k, nil
	}
	d.steps++
	if d.steps > d.maxSteps {
		return nil, 0, 0, d.malformed(p, fmt.Sprintf("readback visited more than %d ports", d.maxSteps))
	}
	if len(d.onPath) >= maxNesting {
		return nil, 0, 0, d.malformed(p, "readback nested too deep")
	}
	key := readKey{port: p, exit: exit}
	if d.onPath[key] {
		return nil, 0, 0, d.malformed(p, "cycle")
	}
	d.onPath[key] = true
	defer delete(d.onPath, key)

	depth := len(d.binders)
	q := n.Enter(p)
	id := q.Node()
	minRef = math.MaxInt

	switch n.Kind(id) {
	case inet.KindCon:
		switch q.Slot() {
		case 0:
			name := varName(depth)
			if depth > d.maxDepth {
				d.maxDepth = depth
			}
			d.binders = append(d.binders, binder{node: id, name: name})
			var body Term
			body, minRef, popped, err = d.read(inet.PortOf(id, 2), exit)
			d.binders = d.binders[:depth]
			if err != nil {
				return nil, 0, 0, err
			}
			term = &Lam{Param: name, Body: body}
		case 1:
			i := depth - 1
			for ; i >= 0 && d.binders[i].node != id; i-- {
			}
			if i < 0 {
				return nil, 0, 0, d.malformed(q, "variable of a λ that is not an ancestor")
			}
			return &Var{Name: d.binders[i].name}, i, 0, nil
		default:
			fun, fref, fpop, ferr := d.read(inet.PortOf(id, 0), exit)
			if ferr != nil {
				return nil, 0, 0, ferr
			}
			arg, aref, apop, aerr := d.read(inet.PortOf(id, 1), exit)
			if aerr != nil {
				return nil, 0, 0, aerr
			}
			term, minRef, popped = &App{Fun: fun, Arg: arg}, min(fref, aref), max(fpop, apop)
		}

	case inet.KindDup:
		if q.Slot() == 0 {
			slot, rest, ok := exit.Pop()
			if !ok {
				return nil, 0, 0, d.malformed(q, "superposition reached with an empty exit stack")
			}
			term, minRef, popped, err = d.read(inet.PortOf(id, slot), rest)
			return term, minRef, popped + 1, err
		}
		if exit.Depth() >= d.dups {
			return nil, 0, 0, d.malformed(q, "exit stack deeper than the number of duplicators")
		}
		term, minRef, popped, err = d.read(inet.PortOf(id, 0), d.push(exit, q.Slot()))
		return term, minRef, max(popped-1, 0), err

	case inet.KindEraser:
		return nil, 0, 0, d.malformed(q, "eraser reached")
	case inet.KindRoot:
		return nil, 0, 0, d.malformed(q, "root reached")
	default:
		return nil, 0, 0, d.malformed(q, "dangling port")
	}

	if minRef >= depth {
		d.remember(p, exit, popped, term)
		d.uses[term] = 1
		d.order = append(d.order, term)
		minRef = math.MaxInt
	}
	return term, minRef, popped, nil
}

func (d *decoder) hoist(body Term) Term {
	names := make(map[Term]string)
	var lets []*Let
	for _, t := range d.order {
		if d.uses[t] < 2 {
			continue
		}
		name := varName(d.maxDepth + 1 + len(lets))
		lets = append(lets, &Let{Name: name, Value: replaceShared(t, names, make(map[Term]Term))})
		names[t] = name
	}
	if len(lets) == 0 {
		return body
	}
	body = replaceShared(body, names, make(map[Term]Term))
	for i := len(lets) - 1; i >= 0; i-- {
		lets[i].Body = body
		body = lets[i]
	}
	return body
}

func replaceShared(t Term, names map[Term]string, seen map[Term]Term) Term {
	if name, ok := names[t]; ok {
		return &Var{Name: name}
	}
	if r, ok := seen[t]; ok {
		return r
	}
	var r Term
	switch t := t.(type) {
	case *Lam:
		r = &Lam{Param: t.Param, Body: replaceShared(t.Body, names, seen)}
	case *App:
		r = &App{Fun: replaceShared(t.Fun, names, seen), Arg: replaceShared(t.Arg, names, seen)}
	case *Let:
		r = &Let{Name: t.Name, Value: replaceShared(t.Value, names, seen), Body: replaceShared(t.Body, names, seen)}
	default:
		r = t
	}
	seen[t] = r
	return r
}

// varName returns the i-th name of the sequence a, b, ..., z, aa, ab, ...
func varName(i int) string {
	var buf []byte
	for i++; i > 0; i = (i - 1) / 26 {
		buf = append(buf, byte('a'+(i-1)%26))
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}
