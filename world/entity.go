package world

// Entity is the capability every player variant exposes to the loops. The
// concrete variant (predicted, remote, authoritative) is chosen when the
// entity is created and never changes.
type Entity interface {
	ID() uint8
	Position() Vector
	Rotation() float32
	Health() uint8
	ApplyInput(cmd InputCommand, ctx SimContext)
	Update(ctx SimContext)
}
