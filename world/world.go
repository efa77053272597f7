package world

import (
	"fmt"
	"sort"
)

// World is an id-keyed entity table iterated in ascending id order, so every
// tick visits entities in the same sequence.
type World[E Entity] struct {
	entities map[uint8]E
	order    []uint8
}

func NewWorld[E Entity]() *World[E] {
	return &World[E]{
		entities: make(map[uint8]E),
	}
}

func (w *World[E]) Update(ctx SimContext) {
	for _, id := range w.order {
		w.entities[id].Update(ctx)
	}
}

func (w *World[E]) AddEntity(id uint8, e E) error {
	if _, ok := w.entities[id]; ok {
		return fmt.Errorf("entity %d already exists", id)
	}
	w.entities[id] = e
	w.order = append(w.order, id)
	sort.Slice(w.order, func(i, j int) bool { return w.order[i] < w.order[j] })
	return nil
}

func (w *World[E]) Entity(id uint8) (E, bool) {
	e, ok := w.entities[id]
	return e, ok
}

func (w *World[E]) RemoveEntity(id uint8) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	for i, existing := range w.order {
		if existing == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

func (w *World[E]) Len() int {
	return len(w.order)
}

func (w *World[E]) ForEachEntity(callback func(uint8, E)) {
	for _, id := range w.order {
		callback(id, w.entities[id])
	}
}

// FreeID returns the lowest id not in use, or false when max ids are taken.
func (w *World[E]) FreeID(max int) (uint8, bool) {
	for id := 0; id < max; id++ {
		if _, ok := w.entities[uint8(id)]; !ok {
			return uint8(id), true
		}
	}
	return 0, false
}
