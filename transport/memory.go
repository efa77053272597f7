package transport

import (
	"math/rand"
	"sort"
	"sync"
)

// LinkConditions impair the unreliable class of a MemoryNetwork. Delays are
// measured in receiver polls. Reliable messages are never lost; ordered ones
// are never delayed past one another.
type LinkConditions struct {
	Loss      float64
	Duplicate float64
	MaxDelay  int
	Seed      int64
}

// MemoryNetwork connects in-process endpoints. It stands in for a datagram
// transport in tests and local simulations.
type MemoryNetwork struct {
	mu         sync.Mutex
	conditions LinkConditions
	rng        *rand.Rand
}

func NewMemoryNetwork(conditions LinkConditions) *MemoryNetwork {
	return &MemoryNetwork{
		conditions: conditions,
		rng:        rand.New(rand.NewSource(conditions.Seed)),
	}
}

// SetConditions changes the impairments for subsequent sends.
func (n *MemoryNetwork) SetConditions(conditions LinkConditions) {
	n.mu.Lock()
	n.conditions.Loss = conditions.Loss
	n.conditions.Duplicate = conditions.Duplicate
	n.conditions.MaxDelay = conditions.MaxDelay
	n.mu.Unlock()
}

type delivery struct {
	due   int
	seq   int
	event Event
}

// MemoryEndpoint is one side of a MemoryNetwork.
type MemoryEndpoint struct {
	network *MemoryNetwork
	polls   int
	seq     int
	inbox   []delivery
	links   map[ConnID]*MemoryEndpoint
	// last due slot used for ordered delivery, per connection
	ordered map[ConnID]int
	closed  bool
}

func (n *MemoryNetwork) NewEndpoint() *MemoryEndpoint {
	return &MemoryEndpoint{
		network: n,
		links:   make(map[ConnID]*MemoryEndpoint),
		ordered: make(map[ConnID]int),
	}
}

// Connect links client to server and returns the connection id both sides
// use. Both receive EventConnected on their next Poll.
func (n *MemoryNetwork) Connect(client, server *MemoryEndpoint) ConnID {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := NewConnID()
	client.links[id] = server
	server.links[id] = client
	client.enqueueLocked(Event{Kind: EventConnected, Conn: id}, client.polls)
	server.enqueueLocked(Event{Kind: EventConnected, Conn: id}, server.polls)
	return id
}

func (e *MemoryEndpoint) enqueueLocked(ev Event, due int) {
	e.seq++
	e.inbox = append(e.inbox, delivery{due: due, seq: e.seq, event: ev})
}

func (e *MemoryEndpoint) Send(conn ConnID, payload []byte, method DeliveryMethod) error {
	n := e.network
	n.mu.Lock()
	defer n.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	peer, ok := e.links[conn]
	if !ok {
		return ErrUnknownConn
	}

	copies := 1
	due := peer.polls
	switch method {
	case Unreliable:
		if n.rng.Float64() < n.conditions.Loss {
			return nil
		}
		if n.rng.Float64() < n.conditions.Duplicate {
			copies = 2
		}
	case ReliableUnordered:
		if n.conditions.MaxDelay > 0 {
			due += n.rng.Intn(n.conditions.MaxDelay + 1)
		}
	case ReliableOrdered:
		if last := peer.ordered[conn]; last > due {
			due = last
		}
		peer.ordered[conn] = due
	}
	for i := 0; i < copies; i++ {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		d := due
		if method == Unreliable && n.conditions.MaxDelay > 0 {
			d += n.rng.Intn(n.conditions.MaxDelay + 1)
		}
		peer.enqueueLocked(Event{Kind: EventReceived, Conn: conn, Payload: msg}, d)
	}
	return nil
}

// Poll delivers every event that is due, oldest first.
func (e *MemoryEndpoint) Poll(handler func(Event)) int {
	n := e.network
	n.mu.Lock()
	ready := make([]delivery, 0, len(e.inbox))
	pending := e.inbox[:0]
	for _, d := range e.inbox {
		if d.due <= e.polls {
			ready = append(ready, d)
		} else {
			pending = append(pending, d)
		}
	}
	e.inbox = pending
	e.polls++
	n.mu.Unlock()

	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].due != ready[j].due {
			return ready[i].due < ready[j].due
		}
		return ready[i].seq < ready[j].seq
	})
	for _, d := range ready {
		handler(d.event)
	}
	return len(ready)
}

func (e *MemoryEndpoint) Disconnect(conn ConnID, reason string) {
	n := e.network
	n.mu.Lock()
	defer n.mu.Unlock()
	e.disconnectLocked(conn, reason)
}

func (e *MemoryEndpoint) disconnectLocked(conn ConnID, reason string) {
	peer, ok := e.links[conn]
	if !ok {
		return
	}
	delete(e.links, conn)
	delete(peer.links, conn)
	err := &DisconnectError{Conn: conn, Reason: reason}
	e.enqueueLocked(Event{Kind: EventDisconnected, Conn: conn, Err: err}, e.polls)
	peer.enqueueLocked(Event{Kind: EventDisconnected, Conn: conn, Err: err}, peer.polls)
}

func (e *MemoryEndpoint) Close() error {
	n := e.network
	n.mu.Lock()
	defer n.mu.Unlock()
	for conn := range e.links {
		e.disconnectLocked(conn, "closed")
	}
	e.closed = true
	return nil
}

var _ Endpoint = (*MemoryEndpoint)(nil)
