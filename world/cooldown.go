package world

// Cooldown counts up towards Max; it is elapsed once Time reaches Max.
type Cooldown struct {
	Max  float32
	Time float32
}

func NewCooldown(max float32) Cooldown {
	return Cooldown{Max: max, Time: max}
}

func (c *Cooldown) Elapsed() bool {
	return c.Time >= c.Max
}

func (c *Cooldown) Reset() {
	c.Time = 0
}

func (c *Cooldown) Advance(delta float32) {
	if c.Time < c.Max {
		c.Time += delta
	}
}
