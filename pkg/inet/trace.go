package inet

type RuleKind int

const (
	RuleUnknown RuleKind = iota
	RuleBeta             // Con-Con annihilation
	RuleDupDup           // same-label duplicator annihilation
	RuleCommute
	RuleErasure
	RuleVoid // eraser-eraser
)

func (r RuleKind) String() string {
	switch r {
	case RuleBeta:
		return "beta"
	case RuleDupDup:
		return "dup-dup"
	case RuleCommute:
		return "commute"
	case RuleErasure:
		return "erase"
	case RuleVoid:
		return "void"
	default:
		return "unknown"
	}
}

type TraceEvent struct {
	Step  uint64
	Rule  RuleKind
	AKind Kind
	AID   NodeID
	BKind Kind
	BID   NodeID
}

// EnableTrace records the first capacity rewrites performed from now on.
func (n *Net) EnableTrace(capacity int) {
	if capacity <= 0 {
		capacity = 1
	}
	n.traceBuf = make([]TraceEvent, capacity)
	n.traceCap = uint64(capacity)
	n.traceIdx = 0
	n.traceOn = true
}

func (n *Net) DisableTrace() {
	n.traceOn = false
}

func (n *Net) TraceSnapshot() []TraceEvent {
	if !n.traceOn {
		return nil
	}
	count := n.traceIdx
	if count > n.traceCap {
		count = n.traceCap
	}
	res := make([]TraceEvent, count)
	copy(res, n.traceBuf[:count])
	return res
}

func (n *Net) recordTrace(rule RuleKind, a NodeID, ak Kind, b NodeID, bk Kind) {
	if !n.traceOn || n.traceCap == 0 {
		return
	}
	idx := n.traceIdx
	n.traceIdx++
	if idx >= n.traceCap {
		return
	}
	n.traceBuf[idx] = TraceEvent{
		Step:  idx,
		Rule:  rule,
		AKind: ak,
		AID:   a,
		BKind: bk,
		BID:   b,
	}
}
