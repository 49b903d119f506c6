package model

import (
	"fmt"

	"github.com/hashicorp/go-memdb"
)

// tableSpecies, tableRobots, and tableTasks name the in-memory tables backing
// Catalog. Each is indexed by ID only: the catalog is a lookup convenience,
// not a query engine, so a single "id" index is all ITAGS and the scheduler
// ever need.
const (
	tableSpecies = "species"
	tableRobots  = "robots"
	tableTasks   = "tasks"
)

func catalogSchema() *memdb.DBSchema {
	idIndex := func() map[string]*memdb.IndexSchema {
		return map[string]*memdb.IndexSchema{
			"id": {
				Name:    "id",
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
		}
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableSpecies: {Name: tableSpecies, Indexes: idIndex()},
			tableRobots:  {Name: tableRobots, Indexes: idIndex()},
			tableTasks:   {Name: tableTasks, Indexes: idIndex()},
		},
	}
}

// Catalog is an indexed, name-addressable store of a problem's species,
// robots, and tasks, backed by an in-memory go-memdb database. ITAGS and the
// scheduler both need fast "look up by ID" access during search; Catalog
// centralizes that rather than each component carrying its own map.
type Catalog struct {
	db *memdb.MemDB
}

// NewCatalog builds a Catalog from a problem's species, robots, and tasks.
// Every robot must reference a known species, and every task must satisfy
// Task.Validate; otherwise NewCatalog returns an error rather than
// constructing a partially-populated catalog.
func NewCatalog(species []Species, robots []Robot, tasks []Task) (*Catalog, error) {
	db, err := memdb.NewMemDB(catalogSchema())
	if err != nil {
		return nil, fmt.Errorf("model: allocate catalog: %w", err)
	}

	known := make(map[string]struct{}, len(species))
	txn := db.Txn(true)
	for _, sp := range species {
		if sp.ID == "" {
			txn.Abort()
			return nil, ErrEmptyID
		}
		if err := txn.Insert(tableSpecies, sp); err != nil {
			txn.Abort()
			return nil, fmt.Errorf("model: insert species %q: %w", sp.ID, err)
		}
		known[sp.ID] = struct{}{}
	}
	for _, r := range robots {
		if r.ID == "" {
			txn.Abort()
			return nil, ErrEmptyID
		}
		if _, ok := known[r.SpeciesID]; !ok {
			txn.Abort()
			return nil, fmt.Errorf("%w: robot %q references species %q", ErrUnknownSpecies, r.ID, r.SpeciesID)
		}
		if err := txn.Insert(tableRobots, r); err != nil {
			txn.Abort()
			return nil, fmt.Errorf("model: insert robot %q: %w", r.ID, err)
		}
	}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			txn.Abort()
			return nil, err
		}
		if err := txn.Insert(tableTasks, t); err != nil {
			txn.Abort()
			return nil, fmt.Errorf("model: insert task %q: %w", t.ID, err)
		}
	}
	txn.Commit()

	return &Catalog{db: db}, nil
}

// Species looks a species up by ID.
func (c *Catalog) Species(id string) (Species, bool) {
	txn := c.db.Txn(false)
	raw, err := txn.First(tableSpecies, "id", id)
	if err != nil || raw == nil {
		return Species{}, false
	}
	return raw.(Species), true
}

// Robot looks a robot up by ID.
func (c *Catalog) Robot(id string) (Robot, bool) {
	txn := c.db.Txn(false)
	raw, err := txn.First(tableRobots, "id", id)
	if err != nil || raw == nil {
		return Robot{}, false
	}
	return raw.(Robot), true
}

// Task looks a task up by ID.
func (c *Catalog) Task(id string) (Task, bool) {
	txn := c.db.Txn(false)
	raw, err := txn.First(tableTasks, "id", id)
	if err != nil || raw == nil {
		return Task{}, false
	}
	return raw.(Task), true
}

// Robots returns all robots, ordered by the memdb iterator (which walks the
// "id" index and is therefore lexicographic by ID — callers relying on
// search determinism should use this ordering rather than re-sort).
func (c *Catalog) Robots() []Robot {
	txn := c.db.Txn(false)
	it, err := txn.Get(tableRobots, "id")
	if err != nil {
		return nil
	}
	var out []Robot
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(Robot))
	}
	return out
}

// Tasks returns all tasks in ID order.
func (c *Catalog) Tasks() []Task {
	txn := c.db.Txn(false)
	it, err := txn.Get(tableTasks, "id")
	if err != nil {
		return nil
	}
	var out []Task
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(Task))
	}
	return out
}
