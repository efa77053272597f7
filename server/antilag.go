package server

import "arenanet/world"

type antilagFrame struct {
	tick      world.Tick
	valid     bool
	positions map[uint8]world.Vector
}

// Antilag keeps the positions of every living player for the last window
// ticks so a shot can be checked against what the shooter saw.
type Antilag struct {
	frames []antilagFrame
	cursor int
	last   world.Tick
	saved  map[uint8]world.Vector
}

func NewAntilag(window int) *Antilag {
	frames := make([]antilagFrame, window)
	for i := range frames {
		frames[i].positions = make(map[uint8]world.Vector, world.MaxPlayers)
	}
	return &Antilag{
		frames: frames,
		saved:  make(map[uint8]world.Vector, world.MaxPlayers),
	}
}

func (a *Antilag) Window() int {
	return len(a.frames)
}

// Store records the live positions for tick. Ticks are expected in order.
func (a *Antilag) Store(tick world.Tick, players *world.World[*ServerPlayer]) {
	frame := &a.frames[a.cursor]
	for id := range frame.positions {
		delete(frame.positions, id)
	}
	players.ForEachEntity(func(id uint8, p *ServerPlayer) {
		if p.Alive() {
			frame.positions[id] = p.Position()
		}
	})
	frame.tick = tick
	frame.valid = true
	a.last = tick
	a.cursor = (a.cursor + 1) % len(a.frames)
}

// Forget drops id from every stored frame so a later player reusing the id
// is never rewound onto the old one's history.
func (a *Antilag) Forget(id uint8) {
	for i := range a.frames {
		delete(a.frames[i].positions, id)
	}
}

// Positions returns the positions stored for tick, if it is still inside
// the window.
func (a *Antilag) Positions(tick world.Tick) (map[uint8]world.Vector, bool) {
	age := world.SeqDiff(a.last, tick)
	if age < 0 || age >= len(a.frames) {
		return nil, false
	}
	idx := (a.cursor - 1 - age + 2*len(a.frames)) % len(a.frames)
	frame := &a.frames[idx]
	if !frame.valid || frame.tick != tick {
		return nil, false
	}
	return frame.positions, true
}

// Rewind moves every player but shooter back to where it was at tick, runs
// fn and puts everyone back, even if fn panics. Ticks outside the window
// run fn against the live positions. It reports whether history was used.
func (a *Antilag) Rewind(tick world.Tick, shooter uint8, players *world.World[*ServerPlayer], fn func()) bool {
	history, ok := a.Positions(tick)
	if !ok {
		fn()
		return false
	}

	for id := range a.saved {
		delete(a.saved, id)
	}
	defer a.restore(players)
	players.ForEachEntity(func(id uint8, p *ServerPlayer) {
		if id == shooter {
			return
		}
		a.saved[id] = p.Position()
		if pos, ok := history[id]; ok {
			p.SetPosition(pos)
		}
	})
	fn()
	return true
}

func (a *Antilag) restore(players *world.World[*ServerPlayer]) {
	for id, pos := range a.saved {
		if p, ok := players.Entity(id); ok {
			p.SetPosition(pos)
		}
	}
}
