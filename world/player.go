package world

import "fmt"

const (
	PlayerSpeed   float32 = 3
	PlayerRadius  float32 = 0.5
	ShotMaxLength float32 = 20
	ShootCooldown float32 = 0.2
	SpawnHealth   uint8   = 100
	ShotDamage    uint8   = 10
	MaxPlayers            = 8
)

// Keys is the movement/fire bitmask carried by every InputCommand.
type Keys uint8

const (
	KeyLeft Keys = 1 << iota
	KeyRight
	KeyUp
	KeyDown
	KeyFire
)

func (k Keys) Has(key Keys) bool {
	return k&key != 0
}

// Velocity sums the unit vectors of the pressed directions and normalizes the
// result. Opposite keys cancel.
func (k Keys) Velocity() Vector {
	var v Vector
	if k.Has(KeyLeft) {
		v.X -= 1
	}
	if k.Has(KeyRight) {
		v.X += 1
	}
	if k.Has(KeyUp) {
		v.Y -= 1
	}
	if k.Has(KeyDown) {
		v.Y += 1
	}
	return v.Normalized()
}

type InputCommand struct {
	ID         Tick
	Keys       Keys
	Rotation   float32
	ServerTick Tick
}

// PlayerState is the fixed-size per-entity record of a ServerState.
type PlayerState struct {
	ID       uint8
	Position Vector
	Rotation float32
	Tick     Tick
}

type ServerState struct {
	Tick                 Tick
	LastProcessedCommand Tick
	PlayerStates         []PlayerState
}

type ShootEvent struct {
	ShooterID  uint8
	CommandID  Tick
	Hit        Vector
	ServerTick Tick
}

// Player holds the state shared by every entity variant: pose, health and the
// shoot cooldown.
type Player struct {
	id         uint8
	name       string
	position   Vector
	rotation   float32
	health     uint8
	shootTimer Cooldown
}

func NewPlayer(id uint8, name string) *Player {
	return &Player{
		id:         id,
		name:       name,
		shootTimer: NewCooldown(ShootCooldown),
	}
}

func (p *Player) ID() uint8 {
	return p.id
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Position() Vector {
	return p.position
}

func (p *Player) Rotation() float32 {
	return p.rotation
}

func (p *Player) Health() uint8 {
	return p.health
}

func (p *Player) Alive() bool {
	return p.health > 0
}

func (p *Player) Spawn(position Vector) {
	p.position = position
	p.rotation = 0
	p.health = SpawnHealth
	p.shootTimer = NewCooldown(ShootCooldown)
}

func (p *Player) SetPose(position Vector, rotation float32) {
	p.position = position
	p.rotation = rotation
}

func (p *Player) SetPosition(position Vector) {
	p.position = position
}

func (p *Player) SetHealth(health uint8) {
	p.health = health
}

// Damage subtracts amount from health, saturating at zero, and returns the
// remaining health.
func (p *Player) Damage(amount uint8) uint8 {
	if amount >= p.health {
		p.health = 0
	} else {
		p.health -= amount
	}
	return p.health
}

// Move integrates cmd over delta. It is pure with respect to the command so
// replaying the same sequence from the same state yields the same result.
func (p *Player) Move(cmd InputCommand, delta float32) {
	p.position = p.position.Add(cmd.Keys.Velocity().Scale(PlayerSpeed * delta))
	p.rotation = cmd.Rotation
}

// TryShoot consumes the cooldown if cmd asks to fire and the weapon is ready.
func (p *Player) TryShoot(cmd InputCommand) bool {
	if !cmd.Keys.Has(KeyFire) || !p.Alive() || !p.shootTimer.Elapsed() {
		return false
	}
	p.shootTimer.Reset()
	return true
}

func (p *Player) Update(ctx SimContext) {
	p.shootTimer.Advance(ctx.FixedDelta)
}

// ShotRay returns the origin and unit direction of a shot fired now.
func (p *Player) ShotRay() (Vector, Vector) {
	return p.position, Direction(p.rotation)
}

func (p *Player) State(tick Tick) PlayerState {
	return PlayerState{
		ID:       p.id,
		Position: p.position,
		Rotation: p.rotation,
		Tick:     tick,
	}
}

func (p *Player) String() string {
	return fmt.Sprintf("player %d %q (%.2f,%.2f) hp=%d", p.id, p.name, p.position.X, p.position.Y, p.health)
}
