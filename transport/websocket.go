package transport

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
)

// peers tracks live websocket connections and funnels their traffic into a
// single event channel that Poll drains on the loop goroutine.
type peers struct {
	cfg    Config
	mu     sync.Mutex
	conns  map[ConnID]*wsConn
	events chan Event
	// gone holds disconnect events; unlike events it never fills up.
	gone   []Event
	closed bool
}

type wsConn struct {
	id        ConnID
	c         *websocket.Conn
	send      chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newPeers(cfg Config) *peers {
	return &peers{
		cfg:    cfg,
		conns:  make(map[ConnID]*wsConn),
		events: make(chan Event, cfg.RecvQueueSize),
	}
}

func (p *peers) add(ctx context.Context, c *websocket.Conn) (*wsConn, error) {
	ctx, cancel := context.WithCancel(ctx)
	conn := &wsConn{
		id:     NewConnID(),
		c:      c,
		send:   make(chan []byte, p.cfg.SendQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	if p.cfg.ReadLimit > 0 {
		c.SetReadLimit(p.cfg.ReadLimit)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		cancel()
		return nil, ErrClosed
	}
	p.conns[conn.id] = conn
	return conn, nil
}

func (p *peers) remove(id ConnID) {
	p.mu.Lock()
	delete(p.conns, id)
	p.mu.Unlock()
}

func (p *peers) lookup(id ConnID) *wsConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[id]
}

func (p *peers) emit(ctx context.Context, ev Event) {
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}

// run owns conn until it closes: the writer drains the send queue while the
// calling goroutine reads. The disconnect event is queued exactly once and is
// never dropped, however full the event channel is.
func (p *peers) run(conn *wsConn) {
	p.emit(conn.ctx, Event{Kind: EventConnected, Conn: conn.id})

	go p.writeLoop(conn)
	err := p.readLoop(conn)

	conn.close(websocket.StatusNormalClosure, "")
	conn.cancel()
	p.remove(conn.id)

	reason := "read failed"
	if status := websocket.CloseStatus(err); status != -1 {
		reason = status.String()
	}
	p.mu.Lock()
	p.gone = append(p.gone, Event{Kind: EventDisconnected, Conn: conn.id, Err: &DisconnectError{Conn: conn.id, Reason: reason, Err: err}})
	p.mu.Unlock()
}

func (p *peers) readLoop(conn *wsConn) error {
	for {
		typ, b, err := conn.c.Read(conn.ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary || len(b) == 0 {
			continue
		}
		p.emit(conn.ctx, Event{Kind: EventReceived, Conn: conn.id, Payload: b})
	}
}

func (p *peers) writeLoop(conn *wsConn) {
	for {
		select {
		case msg := <-conn.send:
			ctx, cancel := context.WithTimeout(conn.ctx, p.cfg.WriteTimeout)
			err := conn.c.Write(ctx, websocket.MessageBinary, msg)
			cancel()
			if err != nil {
				conn.close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-conn.ctx.Done():
			return
		}
	}
}

func (c *wsConn) close(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		go func() {
			// Close waits for the peer's close frame; keep it off the loop.
			c.c.Close(status, reason)
			c.cancel()
		}()
	})
}

// Send queues payload without blocking. Unreliable messages are dropped when
// the queue is full; a reliable message that would block closes the
// connection, since a stalled peer can never catch up.
func (p *peers) Send(id ConnID, payload []byte, method DeliveryMethod) error {
	conn := p.lookup(id)
	if conn == nil {
		return ErrUnknownConn
	}
	msg := make([]byte, len(payload))
	copy(msg, payload)
	select {
	case conn.send <- msg:
		return nil
	default:
	}
	if method == Unreliable {
		return nil
	}
	conn.close(websocket.StatusPolicyViolation, "write would block")
	return &DisconnectError{Conn: id, Reason: "send queue full"}
}

// Poll hands queued events to handler. Disconnects taken at the start are
// delivered after the events already queued, so each connection's traffic
// precedes its disconnect.
func (p *peers) Poll(handler func(Event)) int {
	p.mu.Lock()
	gone := p.gone
	p.gone = nil
	p.mu.Unlock()

	n := 0
drain:
	for {
		select {
		case ev := <-p.events:
			handler(ev)
			n++
		default:
			break drain
		}
	}
	for _, ev := range gone {
		handler(ev)
		n++
	}
	return n
}

func (p *peers) Disconnect(id ConnID, reason string) {
	if conn := p.lookup(id); conn != nil {
		conn.close(websocket.StatusNormalClosure, reason)
	}
}

func (p *peers) Close() error {
	p.mu.Lock()
	p.closed = true
	conns := make([]*wsConn, 0, len(p.conns))
	for _, conn := range p.conns {
		conns = append(conns, conn)
	}
	p.mu.Unlock()

	for _, conn := range conns {
		conn.close(websocket.StatusGoingAway, "shutting down")
	}
	return nil
}

// WebsocketServer accepts websocket connections on an http.Handler and
// exposes them as an Endpoint.
type WebsocketServer struct {
	*peers
}

func NewWebsocketServer(cfg Config) *WebsocketServer {
	return &WebsocketServer{peers: newPeers(cfg)}
}

func (s *WebsocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.OriginPatterns,
	})
	if err != nil {
		log.Println(err)
		return
	}
	conn, err := s.add(r.Context(), c)
	if err != nil {
		c.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	s.run(conn)
}

// WebsocketClient is an Endpoint holding a single connection to the server.
type WebsocketClient struct {
	*peers
	Conn ConnID
}

func Dial(ctx context.Context, url string, cfg Config) (*WebsocketClient, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	p := newPeers(cfg)
	conn, err := p.add(context.Background(), c)
	if err != nil {
		c.Close(websocket.StatusInternalError, "")
		return nil, err
	}
	go p.run(conn)
	return &WebsocketClient{peers: p, Conn: conn.id}, nil
}

var (
	_ Endpoint = (*WebsocketServer)(nil)
	_ Endpoint = (*WebsocketClient)(nil)
)

// IsClosed reports whether err came from a normally closed websocket.
func IsClosed(err error) bool {
	var derr *DisconnectError
	if errors.As(err, &derr) {
		err = derr.Err
	}
	status := websocket.CloseStatus(err)
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway
}
