package world

import "math"

// Target is a hit-scan candidate: an entity id and the center it is tested at.
type Target struct {
	ID       uint8
	Position Vector
}

type Hit struct {
	ID uint8
	// Distance from the ray origin to where the ray enters the target.
	Distance float32
	Point    Vector
}

// CheckIntersection tests the segment origin + dir*[0,length] against the
// circle at center. dir must be a unit vector. It returns the distance along
// the ray at which the segment enters the circle, or 0 when origin is inside.
func CheckIntersection(origin, dir Vector, length float32, center Vector, radius float32) (float32, bool) {
	along := center.Sub(origin).Dot(dir)
	closest := origin.Add(dir.Scale(along))
	offset := closest.Sub(center).LengthSquared()
	if offset > radius*radius {
		return 0, false
	}
	half := float32(math.Sqrt(float64(radius*radius - offset)))
	entry, exit := along-half, along+half
	if exit < 0 || entry > length {
		return 0, false
	}
	if entry < 0 {
		entry = 0
	}
	return entry, true
}

// CastToPlayer returns the candidate the ray enters first, skipping
// exclude. Equal distances resolve to the lower id so the result never
// depends on iteration order.
func CastToPlayer(origin, dir Vector, length float32, exclude uint8, targets []Target) (Hit, bool) {
	var best Hit
	found := false
	for _, target := range targets {
		if target.ID == exclude {
			continue
		}
		distance, ok := CheckIntersection(origin, dir, length, target.Position, PlayerRadius)
		if !ok {
			continue
		}
		if !found || distance < best.Distance || (distance == best.Distance && target.ID < best.ID) {
			best = Hit{
				ID:       target.ID,
				Distance: distance,
				Point:    origin.Add(dir.Scale(distance)),
			}
			found = true
		}
	}
	return best, found
}
