package server

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"arenanet/protocol"
	"arenanet/transport"
	"arenanet/world"
)

var ErrServerFull = errors.New("server full")

type SimConfig struct {
	FixedStep        time.Duration
	SnapshotEvery    int
	MaxPacketSize    int
	AntilagWindow    int
	CommandQueueSize int
	MaxPlayers       int
	Seed             int64
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		FixedStep:        time.Second / 60,
		SnapshotEvery:    2,
		MaxPacketSize:    1024,
		AntilagWindow:    60,
		CommandQueueSize: 60,
		MaxPlayers:       world.MaxPlayers,
		Seed:             time.Now().UnixNano(),
	}
}

// Outbox receives what the simulation emits during a tick. Payloads are only
// valid for the duration of the call.
type Outbox interface {
	SendTo(id uint8, payload []byte, method transport.DeliveryMethod)
	Broadcast(payload []byte, method transport.DeliveryMethod)
}

// Simulation owns the authoritative player table.
type Simulation struct {
	cfg        SimConfig
	fixedDelta float32
	tick       world.Tick
	players    *world.World[*ServerPlayer]
	antilag    *Antilag
	snapshot   *protocol.SnapshotBuilder
	states     []world.PlayerState
	targets    []world.Target
	rng        *rand.Rand
}

func NewSimulation(cfg SimConfig) (*Simulation, error) {
	if cfg.SnapshotEvery < 1 {
		return nil, fmt.Errorf("snapshot cadence must be positive, got %d", cfg.SnapshotEvery)
	}
	if cfg.AntilagWindow < 1 || cfg.CommandQueueSize < 1 {
		return nil, fmt.Errorf("antilag window and command queue must be positive")
	}
	if cfg.MaxPlayers < 1 || cfg.MaxPlayers > 256 {
		return nil, fmt.Errorf("max players out of range: %d", cfg.MaxPlayers)
	}
	snapshot := protocol.NewSnapshotBuilder(make([]byte, cfg.MaxPacketSize))
	if snapshot.Capacity() < 1 {
		return nil, fmt.Errorf("max packet size %d cannot hold a single player state", cfg.MaxPacketSize)
	}
	return &Simulation{
		cfg:        cfg,
		fixedDelta: float32(cfg.FixedStep.Seconds()),
		players:    world.NewWorld[*ServerPlayer](),
		antilag:    NewAntilag(cfg.AntilagWindow),
		snapshot:   snapshot,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (s *Simulation) Tick() world.Tick {
	return s.tick
}

func (s *Simulation) Player(id uint8) (*ServerPlayer, bool) {
	return s.players.Entity(id)
}

func (s *Simulation) ForEachPlayer(callback func(uint8, *ServerPlayer)) {
	s.players.ForEachEntity(callback)
}

func (s *Simulation) PlayerCount() int {
	return s.players.Len()
}

// Join spawns a new player at a random point near the origin.
func (s *Simulation) Join(name string) (*ServerPlayer, error) {
	id, ok := s.players.FreeID(s.cfg.MaxPlayers)
	if !ok {
		return nil, ErrServerFull
	}
	p := NewServerPlayer(id, name, s.cfg.CommandQueueSize)
	p.Spawn(world.Vector{
		X: s.rng.Float32()*4 - 2,
		Y: s.rng.Float32()*4 - 2,
	})
	if err := s.players.AddEntity(id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Leave removes player id along with its lag compensation history.
func (s *Simulation) Leave(id uint8) bool {
	if !s.players.RemoveEntity(id) {
		return false
	}
	s.antilag.Forget(id)
	return true
}

// Enqueue queues input for player id and returns how many commands were new.
func (s *Simulation) Enqueue(id uint8, cmds []world.InputCommand) int {
	p, ok := s.players.Entity(id)
	if !ok {
		return 0
	}
	return p.Enqueue(cmds)
}

// Step runs one tick: pending commands, cooldowns, history, snapshots.
func (s *Simulation) Step(out Outbox) {
	ctx := world.SimContext{Tick: s.tick, FixedDelta: s.fixedDelta}
	s.players.ForEachEntity(func(_ uint8, p *ServerPlayer) {
		p.drain(func(cmd world.InputCommand) {
			p.ApplyInput(cmd, ctx)
			if p.TryShoot(cmd) {
				s.shoot(p, cmd, out)
			}
		})
	})
	s.players.Update(ctx)
	s.antilag.Store(s.tick, s.players)
	if int(s.tick)%s.cfg.SnapshotEvery == 0 {
		s.sendSnapshots(out)
	}
	s.tick = s.tick.Next()
}

func (s *Simulation) shoot(shooter *ServerPlayer, cmd world.InputCommand, out Outbox) {
	origin, dir := shooter.ShotRay()
	var (
		hit world.Hit
		ok  bool
	)
	s.antilag.Rewind(cmd.ServerTick, shooter.ID(), s.players, func() {
		hit, ok = world.CastToPlayer(origin, dir, world.ShotMaxLength, shooter.ID(), s.liveTargets())
	})

	end := origin.Add(dir.Scale(world.ShotMaxLength))
	if ok {
		end = hit.Point
		if target, found := s.players.Entity(hit.ID); found {
			health := target.Damage(world.ShotDamage)
			out.Broadcast(protocol.EncodeControl(&protocol.PlayerDamaged{
				ID:         hit.ID,
				AttackerID: shooter.ID(),
				Health:     health,
			}), transport.ReliableOrdered)
			if health == 0 {
				log.Printf("[S] %s killed by %d", target, shooter.ID())
			}
		}
	}
	out.Broadcast(protocol.EncodeShoot(world.ShootEvent{
		ShooterID:  shooter.ID(),
		CommandID:  cmd.ID,
		Hit:        end,
		ServerTick: s.tick,
	}), transport.ReliableUnordered)
}

func (s *Simulation) liveTargets() []world.Target {
	s.targets = s.targets[:0]
	s.players.ForEachEntity(func(id uint8, p *ServerPlayer) {
		if p.Alive() {
			s.targets = append(s.targets, world.Target{ID: id, Position: p.Position()})
		}
	})
	return s.targets
}

// sendSnapshots sends every player the full state list, split across as
// many packets as the packet size requires, each stamped with that
// player's last processed command.
func (s *Simulation) sendSnapshots(out Outbox) {
	s.states = s.states[:0]
	s.players.ForEachEntity(func(_ uint8, p *ServerPlayer) {
		s.states = append(s.states, p.State(s.tick))
	})
	if len(s.states) == 0 {
		return
	}

	capacity := s.snapshot.Capacity()
	s.players.ForEachEntity(func(id uint8, p *ServerPlayer) {
		for start := 0; start < len(s.states); start += capacity {
			end := start + capacity
			if end > len(s.states) {
				end = len(s.states)
			}
			s.snapshot.Begin(s.tick, p.LastProcessed())
			for slot, state := range s.states[start:end] {
				s.snapshot.Put(slot, state)
			}
			out.SendTo(id, s.snapshot.Bytes(end-start), transport.Unreliable)
		}
	})
}
