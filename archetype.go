package cadence

import (
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

var _ Archetype = archetype{}

type archetypeID uint32

type archetype struct {
	id    archetypeID
	table table.Table
}

type archetypes struct {
	nextID           archetypeID
	asSlice          []archetype
	idsGroupedByMask map[mask.Mask]archetypeID
}

func newArchetypes() *archetypes {
	return &archetypes{
		nextID:           1,
		idsGroupedByMask: make(map[mask.Mask]archetypeID),
	}
}

func newArchetype(w *World, id archetypeID, components ...Component) (archetype, error) {
	elementTypes := make([]table.ElementType, len(components))
	for i, comp := range components {
		elementTypes[i] = comp
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(w.schema).
		WithEntryIndex(w.entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(w.tableEvents).
		Build()
	if err != nil {
		return archetype{}, err
	}
	return archetype{
		table: tbl,
		id:    id,
	}, nil
}

// forMask returns the archetype registered under m, building it from components when missing.
// components must describe exactly the bits of m.
func (a *archetypes) forMask(w *World, m mask.Mask, components []Component) (archetype, error) {
	if id, found := a.idsGroupedByMask[m]; found {
		return a.asSlice[id-1], nil
	}
	created, err := newArchetype(w, a.nextID, components...)
	if err != nil {
		return archetype{}, err
	}
	a.asSlice = append(a.asSlice, created)
	a.idsGroupedByMask[m] = a.nextID
	a.nextID++
	return created, nil
}

func (a archetype) ID() uint32 {
	return uint32(a.id)
}

func (a archetype) Table() table.Table {
	return a.table
}
