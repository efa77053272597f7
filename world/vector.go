package world

import "math"

type Vector struct {
	X, Y float32
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) Scale(s float32) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

func (v Vector) Dot(o Vector) float32 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector) LengthSquared() float32 {
	return v.Dot(v)
}

func (v Vector) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

// Normalized returns the unit vector, or the zero vector for zero input.
func (v Vector) Normalized() Vector {
	l := v.Length()
	if l == 0 {
		return Vector{}
	}
	return Vector{X: v.X / l, Y: v.Y / l}
}

func (v Vector) Lerp(to Vector, t float32) Vector {
	return Vector{
		X: lerp(v.X, to.X, t),
		Y: lerp(v.Y, to.Y, t),
	}
}

// Direction returns the unit vector pointing at angle radians.
func Direction(angle float32) Vector {
	s, c := math.Sincos(float64(angle))
	return Vector{X: float32(c), Y: float32(s)}
}

func lerp(v0, v1, t float32) float32 {
	return (1-t)*v0 + t*v1
}

// LerpAngle blends two angles along the shortest arc.
func LerpAngle(a, b, t float32) float32 {
	delta := math.Mod(float64(b-a), 2*math.Pi)
	if delta > math.Pi {
		delta -= 2 * math.Pi
	} else if delta < -math.Pi {
		delta += 2 * math.Pi
	}
	return a + float32(delta)*t
}
