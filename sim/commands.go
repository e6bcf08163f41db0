package sim

// Commands buffers the structural changes a frame produces so the entity
// collection is never modified while the resolver iterates it. Flush applies
// removals before spawns, so freed slots can be reused in the same frame.
type Commands struct {
	spawns   []SpawnRequest
	removals []*Entity
}

func newCommands() *Commands {
	return &Commands{}
}

// Spawn queues a particle creation.
func (c *Commands) Spawn(req SpawnRequest) {
	c.spawns = append(c.spawns, req)
}

// Remove queues a particle removal. Queuing the same entity twice is harmless.
func (c *Commands) Remove(e *Entity) {
	c.removals = append(c.removals, e)
}

// Flush applies every queued change to the simulation and resets the buffer.
// It returns how many entities were actually removed and spawned.
func (c *Commands) Flush(s *Simulation) (removed, spawned int) {
	for _, e := range c.removals {
		if s.Remove(e) {
			removed++
		}
	}

	for _, req := range c.spawns {
		if e := s.Spawn(req.X, req.Y, req.Type); e != nil {
			e.VX, e.VY = req.VX, req.VY
			spawned++
		}
	}

	clear(c.removals)
	c.spawns = c.spawns[:0]
	c.removals = c.removals[:0]
	return removed, spawned
}
