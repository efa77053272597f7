package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqDiffAntisymmetric(t *testing.T) {
	for a := 0; a < MaxSequence; a += 7 {
		for b := 0; b < MaxSequence; b += 13 {
			d := SeqDiff(Tick(a), Tick(b))
			if d == -HalfMaxSequence {
				// The half-way point is its own negation modulo M.
				assert.Equal(t, -HalfMaxSequence, SeqDiff(Tick(b), Tick(a)))
				continue
			}
			assert.Equal(t, -d, SeqDiff(Tick(b), Tick(a)), "a=%d b=%d", a, b)
		}
	}
}

func TestSeqDiffSuccessor(t *testing.T) {
	for a := 0; a < MaxSequence; a++ {
		tick := Tick(a)
		assert.Equal(t, 1, SeqDiff(tick.Next(), tick))
		assert.Equal(t, 0, SeqDiff(tick, tick))
	}
}

func TestSeqDiffWraparound(t *testing.T) {
	tests := []struct {
		a, b Tick
		want int
	}{
		{0, MaxSequence - 1, 1},
		{2, MaxSequence - 3, 5},
		{MaxSequence - 3, 2, -5},
		{43, 41, 2},
		{5, 10, -5},
		{600, 100, 500},
		{100, 700, 424},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SeqDiff(tc.a, tc.b), "SeqDiff(%d, %d)", tc.a, tc.b)
	}
}

func TestTickAdd(t *testing.T) {
	assert.Equal(t, Tick(0), Tick(MaxSequence-1).Add(1))
	assert.Equal(t, Tick(MaxSequence-2), Tick(1).Add(-3))
	assert.Equal(t, Tick(6), Tick(5).Add(1))
	assert.True(t, Newer(Tick(0), Tick(MaxSequence-1)))
	assert.False(t, Newer(Tick(3), Tick(3)))
}
