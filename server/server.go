package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"arenanet/protocol"
	"arenanet/transport"
	"arenanet/world"
)

// Server drives a Simulation from a transport endpoint. Connections are only
// known to the simulation by the entity id they were given on join.
type Server struct {
	endpoint transport.Endpoint
	sim      *Simulation
	timer    *world.LogicTimer
	conns    map[transport.ConnID]uint8
	peers    map[uint8]transport.ConnID
}

func NewServer(endpoint transport.Endpoint, cfg SimConfig, clock world.TimeSource) (*Server, error) {
	sim, err := NewSimulation(cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		endpoint: endpoint,
		sim:      sim,
		conns:    make(map[transport.ConnID]uint8),
		peers:    make(map[uint8]transport.ConnID),
	}
	s.timer = world.NewLogicTimer(cfg.FixedStep, clock, s.onTick)
	s.timer.Start()
	return s, nil
}

func (s *Server) Simulation() *Simulation {
	return s.sim
}

// PlayerID returns the entity bound to conn, if it has joined.
func (s *Server) PlayerID(conn transport.ConnID) (uint8, bool) {
	id, ok := s.conns[conn]
	return id, ok
}

// Poll drains the endpoint and runs whatever ticks are due.
func (s *Server) Poll() {
	s.endpoint.Poll(s.handleEvent)
	s.timer.Update()
}

// Serve polls every pollInterval until ctx is done.
func (s *Server) Serve(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.timer.Stop()
			return ctx.Err()
		case <-ticker.C:
			s.Poll()
		}
	}
}

func (s *Server) onTick() {
	s.sim.Step(s)
}

func (s *Server) SendTo(id uint8, payload []byte, method transport.DeliveryMethod) {
	conn, ok := s.peers[id]
	if !ok {
		return
	}
	if err := s.endpoint.Send(conn, payload, method); err != nil {
		log.Printf("[S] send to %d: %v", id, err)
	}
}

func (s *Server) Broadcast(payload []byte, method transport.DeliveryMethod) {
	for id := range s.peers {
		s.SendTo(id, payload, method)
	}
}

func (s *Server) broadcastExcept(except uint8, msg protocol.ControlMessage) {
	payload := protocol.EncodeControl(msg)
	for id := range s.peers {
		if id != except {
			s.SendTo(id, payload, transport.ReliableOrdered)
		}
	}
}

func (s *Server) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnected:
		log.Printf("[S] player connected: %s", ev.Conn)

	case transport.EventDisconnected:
		log.Printf("[S] player disconnected: %s: %v", ev.Conn, ev.Err)
		s.leave(ev.Conn, "disconnected")

	case transport.EventReceived:
		if err := s.handlePacket(ev.Conn, ev.Payload); err != nil {
			log.Printf("[S] dropping packet from %s: %v", ev.Conn, err)
		}
	}
}

func (s *Server) handlePacket(conn transport.ConnID, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("packet handler panic: %v", r)
		}
	}()

	typ, body, err := protocol.Split(payload)
	if err != nil {
		return err
	}
	if typ == protocol.PacketInput {
		id, ok := s.conns[conn]
		if !ok {
			return errors.New("input before join")
		}
		cmds, err := protocol.DecodeInput(body)
		if err != nil {
			return err
		}
		s.sim.Enqueue(id, cmds)
		return nil
	}

	msg, err := protocol.DecodeControl(typ, body)
	if err != nil {
		return err
	}
	join, ok := msg.(*protocol.Join)
	if !ok {
		return fmt.Errorf("unexpected %s from client", typ)
	}
	return s.join(conn, join.UserName)
}

func (s *Server) join(conn transport.ConnID, name string) error {
	if _, ok := s.conns[conn]; ok {
		return fmt.Errorf("%s joined twice", conn)
	}
	log.Printf("[S] join packet received: %q", name)
	p, err := s.sim.Join(name)
	if err != nil {
		s.endpoint.Disconnect(conn, err.Error())
		return err
	}
	id := p.ID()
	s.conns[conn] = id
	s.peers[id] = conn

	s.SendTo(id, protocol.EncodeControl(&protocol.JoinAccept{
		ID:         id,
		ServerTick: s.sim.Tick(),
		Position:   p.Position(),
	}), transport.ReliableOrdered)

	s.broadcastExcept(id, joinedMessage(p, true))
	s.sim.ForEachPlayer(func(other uint8, existing *ServerPlayer) {
		if other != id {
			s.SendTo(id, protocol.EncodeControl(joinedMessage(existing, false)), transport.ReliableOrdered)
		}
	})
	return nil
}

func joinedMessage(p *ServerPlayer, isNew bool) *protocol.PlayerJoined {
	return &protocol.PlayerJoined{
		UserName:  p.Name(),
		ID:        p.ID(),
		NewPlayer: isNew,
		Position:  p.Position(),
		Rotation:  p.Rotation(),
		Health:    p.Health(),
	}
}

func (s *Server) leave(conn transport.ConnID, reason string) {
	id, ok := s.conns[conn]
	if !ok {
		return
	}
	delete(s.conns, conn)
	delete(s.peers, id)
	s.sim.Leave(id)
	s.broadcastExcept(id, &protocol.PlayerLeft{ID: id, Reason: reason})
}

type Config struct {
	Address      string
	PollInterval time.Duration
	Sim          SimConfig
	Transport    transport.Config
}

func DefaultConfig() Config {
	return Config{
		Address:      "localhost:4242",
		PollInterval: 5 * time.Millisecond,
		Sim:          DefaultSimConfig(),
		Transport:    transport.DefaultConfig(),
	}
}

// Run listens for websocket clients on cfg.Address and runs the simulation
// until ctx is cancelled or the process is interrupted.
func Run(ctx context.Context, cfg Config) error {
	l, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	log.Printf("Listening on ws://%v", l.Addr())

	ws := transport.NewWebsocketServer(cfg.Transport)
	server, err := NewServer(ws, cfg.Sim, nil)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", ws)
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.Serve(ctx, cfg.PollInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("terminating: %v", ctx.Err())
		ws.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
