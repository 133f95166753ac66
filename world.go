package cadence

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	iter_util "github.com/TheBitDrifter/util/iter"
)

var _ RowIndexer = &World{}

// TickLock is the lock bit held by a Scheduler while systems run. Hosts may use any other bit.
const TickLock uint32 = 0

// World is the archetype store systems run against
// Structural changes made while the world is locked must go through Commands
type World struct {
	schema      table.Schema
	entryIndex  table.EntryIndex
	tableEvents table.TableEvents
	archetypes  *archetypes

	records []entityRecord
	free    []uint32
	alive   int

	locks    mask.Mask
	cursors  int
	commands *Commands
}

func newWorld(schema table.Schema) *World {
	w := &World{
		schema:     schema,
		entryIndex: table.Factory.NewEntryIndex(),
		archetypes: newArchetypes(),
	}
	w.commands = newCommands(w)
	return w
}

// SetTableEvents configures the table event callbacks used by archetypes created afterwards
func (w *World) SetTableEvents(te table.TableEvents) {
	w.tableEvents = te
}

func (w *World) RowIndexFor(c Component) uint32 {
	b := baseOf(c)
	w.schema.Register(b)
	return w.schema.RowIndexFor(b)
}

// Commands returns the deferred mutation encoder of this world
func (w *World) Commands() *Commands {
	return w.commands
}

// Len reports the number of live entities
func (w *World) Len() int {
	return w.alive
}

// Alive reports whether e refers to a spawned, not yet despawned entity
func (w *World) Alive(e Entity) bool {
	_, ok := w.live(e)
	return ok
}

// Has reports whether the live entity e carries component c
func (w *World) Has(e Entity, c Component) bool {
	rec, ok := w.live(e)
	if !ok {
		return false
	}
	return rec.entry.Table().Contains(baseOf(c))
}

// Components lists the components of a live entity
func (w *World) Components(e Entity) []Component {
	rec, ok := w.live(e)
	if !ok {
		return nil
	}
	hidden := w.RowIndexFor(handleComponent)
	var comps []Component
	for et := range rec.entry.Table().ElementTypes() {
		if w.RowIndexFor(et) == hidden {
			continue
		}
		comps = append(comps, et)
	}
	return comps
}

func (w *World) Locked() bool {
	return w.locks != (mask.Mask{}) || w.cursors > 0
}

func (w *World) AddLock(bit uint32) {
	w.locks.Mark(bit)
}

// RemoveLock clears bit and applies queued commands once no lock remains
func (w *World) RemoveLock(bit uint32) error {
	w.locks.Unmark(bit)
	if w.Locked() || w.commands.Len() == 0 {
		return nil
	}
	return w.commands.apply()
}

// Flush applies queued commands in the order they were recorded
func (w *World) Flush() error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.commands.apply()
}

// Discard drops queued commands without applying them
func (w *World) Discard() {
	w.commands.reset()
}

func (w *World) NewQuery() Query {
	return newQuery()
}

// Query returns a cursor over the entities matched by node
func (w *World) Query(node QueryNode) *Cursor {
	return newCursor(node, w)
}

func (w *World) Spawn(components ...Component) (Entity, error) {
	entities, err := w.SpawnBatch(1, components...)
	if err != nil {
		return Entity{}, err
	}
	return entities[0], nil
}

func (w *World) SpawnBatch(n int, components ...Component) ([]Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	if len(components) == 0 {
		return nil, EmptyComponentSetError{}
	}
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = w.reserve()
	}
	if err := w.spawnInto(entities, components); err != nil {
		for _, e := range entities {
			w.release(e)
		}
		return nil, err
	}
	return entities, nil
}

func (w *World) spawnInto(entities []Entity, components []Component) error {
	var entityMask mask.Mask
	all := make([]Component, 0, len(components)+1)
	all = append(all, components...)
	all = append(all, handleComponent)

	comps := make([]Component, 0, len(all))
	for _, c := range all {
		b := baseOf(c)
		bit := w.RowIndexFor(b)
		if entityMask.ContainsAll(bitMask(bit)) {
			continue
		}
		entityMask.Mark(bit)
		comps = append(comps, b)
	}

	entityArchetype, err := w.archetypes.forMask(w, entityMask, comps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	entries, err := entityArchetype.table.NewEntries(len(entities))
	if err != nil {
		return err
	}
	for i, entry := range entries {
		rec := &w.records[entities[i].ID-1]
		rec.entry = entry
		rec.state = recordAlive
		w.alive++

		*handleComponent.Get(entry.Index(), entry.Table()) = handle{entity: entities[i]}
		for _, c := range components {
			if v, ok := c.(valued); ok {
				v.assign(entry)
			}
		}
	}
	return nil
}

// Despawn destroys live entities. Dead or stale handles are ignored.
func (w *World) Despawn(entities ...Entity) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.despawn(entities)
}

func (w *World) despawn(entities []Entity) error {
	tableGroups := make(map[table.Table][]int)
	doomed := make([]Entity, 0, len(entities))
	seen := make(map[Entity]struct{}, len(entities))
	for _, e := range entities {
		rec, ok := w.live(e)
		if !ok {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		tableGroups[rec.entry.Table()] = append(tableGroups[rec.entry.Table()], int(rec.entry.ID()))
		doomed = append(doomed, e)
	}
	for tbl, ids := range tableGroups {
		if _, err := tbl.DeleteEntries(ids...); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
	}
	for _, e := range doomed {
		w.release(e)
	}
	return nil
}

// Insert attaches c to a live entity, moving it to the matching archetype
func (w *World) Insert(e Entity, c Component) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.insert(e, c)
}

func (w *World) insert(e Entity, c Component) error {
	rec, ok := w.live(e)
	if !ok {
		return DeadEntityError{Entity: e}
	}
	b := baseOf(c)
	originTable := rec.entry.Table()
	if originTable.Contains(b) {
		return ComponentExistsError{Component: b}
	}

	destMask := originTable.(mask.Maskable).Mask()
	destMask.Mark(w.RowIndexFor(b))

	originalComps := iter_util.Collect(originTable.ElementTypes())
	newComps := make([]Component, len(originalComps)+1)
	for i, ogComp := range originalComps {
		newComps[i] = ogComp
	}
	newComps[len(newComps)-1] = b

	destArchetype, err := w.archetypes.forMask(w, destMask, newComps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	if err := originTable.TransferEntries(destArchetype.table, rec.entry.Index()); err != nil {
		return fmt.Errorf("failed to transfer entity: %w", err)
	}
	if v, ok := c.(valued); ok {
		v.assign(rec.entry)
	}
	return nil
}

// Remove detaches c from a live entity
func (w *World) Remove(e Entity, c Component) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	return w.remove(e, c)
}

func (w *World) remove(e Entity, c Component) error {
	rec, ok := w.live(e)
	if !ok {
		return DeadEntityError{Entity: e}
	}
	b := baseOf(c)
	originTable := rec.entry.Table()
	if !originTable.Contains(b) {
		return ComponentNotFoundError{Component: b}
	}
	bit := w.RowIndexFor(b)
	if bit == w.RowIndexFor(handleComponent) {
		return ComponentNotFoundError{Component: b}
	}

	destMask := originTable.(mask.Maskable).Mask()
	destMask.Unmark(bit)

	originalComps := iter_util.Collect(originTable.ElementTypes())
	newComps := make([]Component, 0, len(originalComps)-1)
	for _, comp := range originalComps {
		if w.RowIndexFor(comp) != bit {
			newComps = append(newComps, comp)
		}
	}

	destArchetype, err := w.archetypes.forMask(w, destMask, newComps)
	if err != nil {
		return fmt.Errorf("failed to get/create archetype: %w", err)
	}
	if err := originTable.TransferEntries(destArchetype.table, rec.entry.Index()); err != nil {
		return fmt.Errorf("failed to transfer entity: %w", err)
	}
	return nil
}

func bitMask(bit uint32) mask.Mask {
	var m mask.Mask
	m.Mark(bit)
	return m
}
