package inet

// Scheduler holds the pending active pairs of an exhaustive reduction.
// Entries may go stale when a node takes part in another rewrite first;
// the reducer re-checks each popped port.
type Scheduler struct {
	items []Port
	head  int
	lifo  bool
}

func NewScheduler(lifo bool) *Scheduler {
	return &Scheduler{lifo: lifo}
}

func (s *Scheduler) Push(p Port) {
	s.items = append(s.items, p)
}

// Pop returns the next pending port. FIFO schedulers hand out pairs in
// creation order, LIFO schedulers the most recent one.
func (s *Scheduler) Pop() (Port, bool) {
	if s.head >= len(s.items) {
		s.items = s.items[:0]
		s.head = 0
		return 0, false
	}
	if s.lifo {
		last := len(s.items) - 1
		p := s.items[last]
		s.items = s.items[:last]
		return p, true
	}
	p := s.items[s.head]
	s.head++
	if s.head > 1024 && s.head*2 > len(s.items) {
		n := copy(s.items, s.items[s.head:])
		s.items = s.items[:n]
		s.head = 0
	}
	return p, true
}

func (s *Scheduler) Len() int {
	return len(s.items) - s.head
}
