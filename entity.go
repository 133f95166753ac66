package cadence

import (
	"fmt"

	"github.com/TheBitDrifter/table"
)

// Entity is a generational handle into a World
// The zero Entity never refers to a live entity
type Entity struct {
	ID  uint32
	Gen uint32
}

// Valid reports whether the handle was ever issued
func (e Entity) Valid() bool {
	return e.ID != 0
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.ID, e.Gen)
}

type recordState uint8

const (
	recordFree recordState = iota
	recordReserved
	recordAlive
)

type entityRecord struct {
	entry table.Entry
	gen   uint32
	state recordState
}

// reserve hands out a record slot, reusing freed ids first
func (w *World) reserve() Entity {
	var id uint32
	if n := len(w.free); n > 0 {
		id = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		w.records = append(w.records, entityRecord{gen: 1})
		id = uint32(len(w.records))
	}
	rec := &w.records[id-1]
	rec.state = recordReserved
	return Entity{ID: id, Gen: rec.gen}
}

// release returns a slot to the free list and invalidates outstanding handles
func (w *World) release(e Entity) {
	rec := &w.records[e.ID-1]
	if rec.state == recordAlive {
		w.alive--
	}
	rec.entry = nil
	rec.state = recordFree
	rec.gen++
	w.free = append(w.free, e.ID)
}

func (w *World) record(e Entity) (*entityRecord, bool) {
	if e.ID == 0 || int(e.ID) > len(w.records) {
		return nil, false
	}
	rec := &w.records[e.ID-1]
	if rec.gen != e.Gen || rec.state == recordFree {
		return nil, false
	}
	return rec, true
}

func (w *World) live(e Entity) (*entityRecord, bool) {
	rec, ok := w.record(e)
	if !ok || rec.state != recordAlive {
		return nil, false
	}
	return rec, true
}

func (w *World) reserved(e Entity) bool {
	rec, ok := w.record(e)
	return ok && rec.state == recordReserved
}
