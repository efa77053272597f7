package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"arenanet/protocol"
	"arenanet/transport"
	"arenanet/world"
)

type Config struct {
	UserName          string
	FixedStep         time.Duration
	CommandBufferSize int
	RemoteBufferSize  int
	TargetLatency     time.Duration
	MaxPacketSize     int
}

func DefaultConfig() Config {
	return Config{
		UserName:          "player",
		FixedStep:         time.Second / 60,
		CommandBufferSize: 60,
		RemoteBufferSize:  30,
		TargetLatency:     100 * time.Millisecond,
		MaxPacketSize:     1024,
	}
}

// LocalShot is a predicted shot resolved against what the player currently
// sees. The server's ShootEvent is the authoritative outcome.
type LocalShot struct {
	From   world.Vector
	To     world.Vector
	Target uint8
	Hit    bool
}

// Game is the client loop. Poll drains the transport, runs fixed ticks and
// advances remote interpolation; everything happens on the caller's
// goroutine.
type Game struct {
	cfg       Config
	endpoint  transport.Endpoint
	conn      transport.ConnID
	connected bool
	closed    bool
	closeErr  error

	timer   *world.LogicTimer
	tick    world.Tick
	player  *PredictedPlayer
	remotes *world.World[*RemotePlayer]
	intent  Intent

	serverTick    world.Tick
	hasServerTick bool

	onShoot     func(world.ShootEvent)
	onLocalShot func(LocalShot)
}

func NewGame(endpoint transport.Endpoint, cfg Config, clock world.TimeSource) *Game {
	g := &Game{
		cfg:      cfg,
		endpoint: endpoint,
		remotes:  world.NewWorld[*RemotePlayer](),
	}
	g.timer = world.NewLogicTimer(cfg.FixedStep, clock, g.onLogicUpdate)
	return g
}

func (g *Game) OnShoot(callback func(world.ShootEvent)) {
	g.onShoot = callback
}

func (g *Game) OnLocalShot(callback func(LocalShot)) {
	g.onLocalShot = callback
}

// SetIntent records the latest presentation sample.
func (g *Game) SetIntent(intent Intent) {
	g.intent = intent
}

// Player is nil until the server accepts the join.
func (g *Game) Player() *PredictedPlayer {
	return g.player
}

func (g *Game) Remote(id uint8) (*RemotePlayer, bool) {
	return g.remotes.Entity(id)
}

func (g *Game) ForEachRemote(callback func(uint8, *RemotePlayer)) {
	g.remotes.ForEachEntity(callback)
}

func (g *Game) LerpAlpha() float32 {
	return g.timer.LerpAlpha()
}

func (g *Game) ServerTick() world.Tick {
	return g.serverTick
}

func (g *Game) Closed() (bool, error) {
	return g.closed, g.closeErr
}

// Poll is called once per frame with the frame's duration in seconds.
func (g *Game) Poll(frameDelta float32) {
	g.endpoint.Poll(g.handleEvent)
	g.timer.Update()
	g.remotes.ForEachEntity(func(_ uint8, p *RemotePlayer) {
		p.UpdatePosition(frameDelta)
	})
}

// Run polls every pollInterval until ctx ends or the server goes away.
// sample, if set, supplies the intent for each frame.
func (g *Game) Run(ctx context.Context, pollInterval time.Duration, sample func(delta float32) Intent) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			g.endpoint.Close()
			return ctx.Err()
		case now := <-ticker.C:
			delta := float32(now.Sub(last).Seconds())
			last = now
			if sample != nil {
				g.SetIntent(sample(delta))
			}
			g.Poll(delta)
			if g.closed {
				return g.closeErr
			}
		}
	}
}

func (g *Game) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnected:
		log.Printf("[C] connected to server: %s", ev.Conn)
		g.conn = ev.Conn
		g.connected = true
		g.send(&protocol.Join{UserName: g.cfg.UserName}, transport.ReliableOrdered)

	case transport.EventDisconnected:
		log.Printf("[C] disconnected from server: %v", ev.Err)
		g.teardown(ev.Err)

	case transport.EventReceived:
		if err := g.handlePacket(ev.Payload); err != nil {
			if errors.Is(err, world.ErrStale) {
				return
			}
			log.Printf("[C] dropping packet: %v", err)
		}
	}
}

func (g *Game) handlePacket(payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("packet handler panic: %v", r)
		}
	}()

	typ, body, err := protocol.Split(payload)
	if err != nil {
		return err
	}
	switch typ {
	case protocol.PacketServerState:
		state, err := protocol.DecodeServerState(body)
		if err != nil {
			return err
		}
		return g.onServerState(state)

	case protocol.PacketShoot:
		shot, err := protocol.DecodeShoot(body)
		if err != nil {
			return err
		}
		if g.onShoot != nil {
			g.onShoot(shot)
		}
		return nil

	default:
		msg, err := protocol.DecodeControl(typ, body)
		if err != nil {
			return err
		}
		return g.onControl(msg)
	}
}

func (g *Game) onControl(msg protocol.ControlMessage) error {
	switch m := msg.(type) {
	case *protocol.JoinAccept:
		log.Printf("[C] join accepted, player id %d", m.ID)
		g.player = NewPredictedPlayer(m.ID, g.cfg.UserName, g.cfg.CommandBufferSize, float32(g.cfg.FixedStep.Seconds()))
		g.player.Spawn(m.Position)
		g.player.OnShoot(g.castLocalShot)
		g.serverTick = m.ServerTick
		g.hasServerTick = true
		g.timer.Start()

	case *protocol.PlayerJoined:
		if g.player != nil && m.ID == g.player.ID() {
			return nil
		}
		remote := NewRemotePlayer(m.ID, m.UserName, g.cfg.RemoteBufferSize,
			float32(g.cfg.FixedStep.Seconds()), float32(g.cfg.TargetLatency.Seconds()))
		remote.Spawn(m.Position)
		remote.SetPose(m.Position, m.Rotation)
		remote.SetHealth(m.Health)
		if err := g.remotes.AddEntity(m.ID, remote); err != nil {
			return err
		}
		log.Printf("[C] player joined: %d %q", m.ID, m.UserName)

	case *protocol.PlayerLeft:
		if g.remotes.RemoveEntity(m.ID) {
			log.Printf("[C] player left: %d (%s)", m.ID, m.Reason)
		}

	case *protocol.PlayerDamaged:
		if g.player != nil && m.ID == g.player.ID() {
			g.player.SetHealth(m.Health)
		} else if remote, ok := g.remotes.Entity(m.ID); ok {
			remote.SetHealth(m.Health)
		}

	default:
		return fmt.Errorf("unexpected %s from server", msg.PacketType())
	}
	return nil
}

func (g *Game) onServerState(state world.ServerState) error {
	if !g.hasServerTick || world.Newer(state.Tick, g.serverTick) {
		g.serverTick = state.Tick
		g.hasServerTick = true
	}
	for _, ps := range state.PlayerStates {
		if g.player != nil && ps.ID == g.player.ID() {
			err := g.player.ReceiveServerState(state, ps)
			var desync *DesyncError
			if errors.As(err, &desync) {
				log.Printf("[C] %v", desync)
			}
			continue
		}
		if remote, ok := g.remotes.Entity(ps.ID); ok {
			remote.OnPlayerState(ps)
		}
	}
	return nil
}

// observedServerTick is the tick the remote entities on screen are
// displayed at: the newest server tick minus the interpolation delay.
func (g *Game) observedServerTick() world.Tick {
	delay := int(g.cfg.TargetLatency / g.cfg.FixedStep)
	return g.serverTick.Add(-delay)
}

func (g *Game) onLogicUpdate() {
	ctx := world.SimContext{Tick: g.tick, FixedDelta: g.timer.FixedDelta()}
	if g.player != nil {
		cmd := g.player.NextCommand(g.intent.Keys, g.intent.Rotation, g.observedServerTick())
		g.player.ApplyInput(cmd, ctx)
		g.player.Update(ctx)
		g.sendInput()
	}
	g.remotes.Update(ctx)
	g.tick = g.tick.Next()
}

// sendInput sends the unacknowledged window oldest first, so a lost packet is
// covered by the next one. When the window outgrows a packet only the newest
// commands are kept.
func (g *Game) sendInput() {
	cmds := g.player.PendingCommands()
	if max := protocol.MaxInputCommands(g.cfg.MaxPacketSize); len(cmds) > max {
		cmds = cmds[len(cmds)-max:]
	}
	if len(cmds) == 0 {
		return
	}
	if err := g.endpoint.Send(g.conn, protocol.EncodeInput(cmds), transport.Unreliable); err != nil {
		log.Printf("[C] send input: %v", err)
	}
}

func (g *Game) castLocalShot(origin, dir world.Vector) {
	targets := make([]world.Target, 0, g.remotes.Len())
	g.remotes.ForEachEntity(func(id uint8, p *RemotePlayer) {
		if p.Alive() {
			targets = append(targets, world.Target{ID: id, Position: p.Position()})
		}
	})
	shot := LocalShot{From: origin, To: origin.Add(dir.Scale(world.ShotMaxLength))}
	if hit, ok := world.CastToPlayer(origin, dir, world.ShotMaxLength, g.player.ID(), targets); ok {
		shot.To = hit.Point
		shot.Target = hit.ID
		shot.Hit = true
	}
	if g.onLocalShot != nil {
		g.onLocalShot(shot)
	}
}

func (g *Game) send(msg protocol.ControlMessage, method transport.DeliveryMethod) {
	if !g.connected {
		return
	}
	if err := g.endpoint.Send(g.conn, protocol.EncodeControl(msg), method); err != nil {
		log.Printf("[C] send %s: %v", msg.PacketType(), err)
	}
}

// teardown drops all session state; buffers referencing entities go with it.
func (g *Game) teardown(err error) {
	g.timer.Stop()
	g.connected = false
	g.closed = true
	g.closeErr = err
	g.player = nil
	g.remotes = world.NewWorld[*RemotePlayer]()
}
