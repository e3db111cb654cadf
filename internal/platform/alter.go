package platform

import (
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/tordrt/ddlgen/internal/alteration"
	"github.com/tordrt/ddlgen/internal/schema"
)

// AlterSchema emits the statements that turn current into desired and
// returns current as it looks after them.
func (b *Builder) AlterSchema(current, desired *schema.Schema, sink Sink) (*schema.Schema, error) {
	comparator := alteration.NewComparator(
		alteration.WithCaseSensitive(b.caseSensitive),
		alteration.WithDefaultSizes(b.info.DefaultSizes),
		alteration.WithLogger(b.logger))
	changes, err := comparator.Compare(current, desired)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return b.ProcessChanges(current, changes, sink)
}

// ProcessChanges emits the given changes in an order the engine accepts and
// applies each one to a copy of current as it goes. The order is:
//
//   - foreign key and index removals
//   - table removals, then table additions
//   - per table: primary key removals, then column changes, then primary
//     key additions
//   - index additions, then foreign key additions
//
// Constraints that depend on a column being retyped or on a primary key
// being dropped are dropped before the table's changes and created again
// afterwards. The first change the dialect cannot express stops processing
// with an *UnsupportedChangeError; statements already emitted stay emitted.
func (b *Builder) ProcessChanges(current *schema.Schema, changes []alteration.Change, sink Sink) (*schema.Schema, error) {
	if err := current.Validate(b.caseSensitive); err != nil {
		return nil, errors.Trace(err)
	}
	r := &alterRun{b: b, working: current.Clone(), sink: sink}

	var fkRemovals, idxRemovals, tableRemovals, tableAdds, idxAdds, fkAdds, structural []alteration.Change
	for _, c := range changes {
		switch c.(type) {
		case *alteration.RemoveForeignKeyChange:
			fkRemovals = append(fkRemovals, c)
		case *alteration.RemoveIndexChange:
			idxRemovals = append(idxRemovals, c)
		case *alteration.RemoveTableChange:
			tableRemovals = append(tableRemovals, c)
		case *alteration.AddTableChange:
			tableAdds = append(tableAdds, c)
		case *alteration.AddIndexChange:
			idxAdds = append(idxAdds, c)
		case *alteration.AddForeignKeyChange:
			fkAdds = append(fkAdds, c)
		default:
			structural = append(structural, c)
		}
	}

	if b.info.ForeignKeysInline {
		tableAdds, fkAdds = b.inlineForeignKeys(tableAdds, fkAdds)
	}

	for _, group := range [][]alteration.Change{fkRemovals, idxRemovals, tableRemovals, tableAdds} {
		if err := r.applyAll(group); err != nil {
			return nil, err
		}
	}

	for _, table := range alteration.TableNames(structural, b.caseSensitive) {
		tableChanges := alteration.ForTable(structural, table, b.caseSensitive)
		b.logger.Debug("processing table changes", zap.String("table", table), zap.Int("changes", len(tableChanges)))
		if err := r.processTable(table, tableChanges); err != nil {
			return nil, errors.Annotatef(err, "altering table %s", table)
		}
	}

	for _, group := range [][]alteration.Change{r.indexReadds, idxAdds, r.foreignKeyReadds, fkAdds} {
		if err := r.applyAll(group); err != nil {
			return nil, err
		}
	}
	return r.working, nil
}

// inlineForeignKeys moves the foreign keys of new tables into their CREATE
// TABLE statements.
func (b *Builder) inlineForeignKeys(tableAdds, fkAdds []alteration.Change) ([]alteration.Change, []alteration.Change) {
	var remaining []alteration.Change
	consumed := make(map[alteration.Change]bool)
	merged := make([]alteration.Change, len(tableAdds))
	for i, c := range tableAdds {
		add := c.(*alteration.AddTableChange)
		table := add.Table.Clone()
		for _, fc := range fkAdds {
			fk := fc.(*alteration.AddForeignKeyChange)
			if schema.NamesEqual(fk.Table, table.Name, b.caseSensitive) {
				table.ForeignKeys = append(table.ForeignKeys, fk.ForeignKey.Clone())
				consumed[fc] = true
			}
		}
		merged[i] = &alteration.AddTableChange{Table: table}
	}
	for _, fc := range fkAdds {
		if !consumed[fc] {
			remaining = append(remaining, fc)
		}
	}
	return merged, remaining
}

// alterRun carries the state of one ProcessChanges call. It implements
// alteration.Visitor: each Visit method emits the statements for one change
// and applies it to the working model.
type alterRun struct {
	b       *Builder
	working *schema.Schema
	sink    Sink

	indexReadds      []alteration.Change
	foreignKeyReadds []alteration.Change
}

func (r *alterRun) apply(c alteration.Change) error {
	return c.Accept(r)
}

func (r *alterRun) applyAll(changes []alteration.Change) error {
	for _, c := range changes {
		if err := r.apply(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *alterRun) table(name string) (*schema.Table, error) {
	t := r.working.FindTable(name, r.b.caseSensitive)
	if t == nil {
		return nil, errors.NotFoundf("table %s", name)
	}
	return t, nil
}

func (r *alterRun) processTable(table string, changes []alteration.Change) error {
	t, err := r.table(table)
	if err != nil {
		return err
	}
	if err := r.dropDependents(t, changes); err != nil {
		return err
	}

	// Phase 1: primary key removals.
	var remaining, deferred []alteration.Change
	for _, c := range changes {
		switch c := c.(type) {
		case *alteration.RemovePrimaryKeyChange:
			if err := r.apply(c); err != nil {
				return err
			}
		case *alteration.PrimaryKeyChange:
			if !r.b.info.PrimaryKeyChanges {
				return r.b.unsupported(c, "primary keys cannot be changed on an existing table")
			}
			remove, add := c.Split()
			if err := r.apply(remove); err != nil {
				return err
			}
			deferred = append(deferred, add)
		default:
			remaining = append(remaining, c)
		}
	}

	// Tables are looked up again after every phase because applying a change
	// may reallocate the working model's slices.
	if t, err = r.table(table); err != nil {
		return err
	}
	if r.needsPrimaryKeyDrop(t, remaining) {
		columns := append([]string(nil), t.PrimaryKey...)
		r.b.logger.Debug("dropping primary key for column change", zap.String("table", t.Name), zap.Strings("columns", columns))
		if err := r.apply(&alteration.RemovePrimaryKeyChange{Table: t.Name, Columns: columns}); err != nil {
			return err
		}
		deferred = append(deferred, &alteration.AddPrimaryKeyChange{Table: t.Name, Columns: columns})
	}

	// Phase 2: columns. New columns are added together, at the place of the
	// first one, in an order where every position they name already exists.
	var additions []alteration.Change
	var columns []*alteration.AddColumnChange
	for _, c := range remaining {
		if c, ok := c.(*alteration.AddColumnChange); ok {
			columns = append(columns, c)
		}
	}
	for _, c := range remaining {
		switch c.(type) {
		case *alteration.AddPrimaryKeyChange:
			additions = append(additions, c)
			continue
		case *alteration.AddColumnChange:
			if err := r.addColumns(table, columns); err != nil {
				return err
			}
			columns = nil
			continue
		}
		if err := r.apply(c); err != nil {
			return err
		}
	}

	// Phase 3: primary key additions.
	return r.applyAll(append(additions, deferred...))
}

// addColumns applies column additions in passes. A pass adds every column
// whose predecessor is already in the working table; a pass that adds
// nothing means the chain of predecessors cannot be resolved.
func (r *alterRun) addColumns(table string, pending []*alteration.AddColumnChange) error {
	for len(pending) > 0 {
		var waiting []*alteration.AddColumnChange
		for _, c := range pending {
			t, err := r.table(table)
			if err != nil {
				return err
			}
			if c.Previous != "" {
				if col, _ := t.FindColumn(c.Previous, r.b.caseSensitive); col == nil {
					waiting = append(waiting, c)
					continue
				}
			}
			if err := r.apply(c); err != nil {
				return err
			}
		}
		if len(waiting) == len(pending) {
			c := waiting[0]
			return errors.NotValidf("position of column %s after %s in table %s", c.Column.Name, c.Previous, table)
		}
		pending = waiting
	}
	return nil
}

// needsPrimaryKeyDrop reports whether the table's primary key has to be
// dropped before its columns can be changed.
func (r *alterRun) needsPrimaryKeyDrop(t *schema.Table, changes []alteration.Change) bool {
	if len(t.PrimaryKey) == 0 {
		return false
	}
	info := r.b.info
	for _, c := range changes {
		switch c := c.(type) {
		case *alteration.ColumnDefinitionChange:
			if (info.AlterPrimaryKeyColumnNeedsDrop || info.ColumnChange == AlterRecreate) &&
				schema.ContainsName(t.PrimaryKey, c.Source.Name, r.b.caseSensitive) {
				return true
			}
		case *alteration.ColumnDefaultValueChange:
			if info.DefaultChange == AlterRecreate &&
				schema.ContainsName(t.PrimaryKey, c.Column.Name, r.b.caseSensitive) {
				return true
			}
		}
	}
	return false
}

// dropDependents drops the foreign keys and indexes that would block the
// table's changes and queues them for re-creation.
func (r *alterRun) dropDependents(t *schema.Table, changes []alteration.Change) error {
	info := r.b.info
	cs := r.b.caseSensitive

	var retyped, unkeyed []string
	for _, c := range changes {
		switch c := c.(type) {
		case *alteration.ColumnDefinitionChange:
			if info.ColumnChange == AlterRecreate || c.TypeChanged(info.DefaultSizes) {
				retyped = append(retyped, c.Source.Name)
			}
		case *alteration.ColumnDefaultValueChange:
			if info.DefaultChange == AlterRecreate {
				retyped = append(retyped, c.Column.Name)
			}
		case *alteration.RemovePrimaryKeyChange, *alteration.PrimaryKeyChange:
			unkeyed = t.PrimaryKey
		}
	}
	if unkeyed == nil && r.needsPrimaryKeyDrop(t, changes) {
		unkeyed = t.PrimaryKey
	}
	if len(retyped) == 0 && len(unkeyed) == 0 {
		return nil
	}
	referenced := append(append([]string(nil), retyped...), unkeyed...)
	tableName := t.Name

	var fkDrops []*alteration.RemoveForeignKeyChange
	for _, owner := range r.working.Tables {
		for _, fk := range owner.ForeignKeys {
			own := schema.NamesEqual(owner.Name, tableName, cs) && containsAny(fk.LocalColumns(), retyped, cs)
			refs := schema.NamesEqual(fk.ForeignTable, tableName, cs) && containsAny(fk.ForeignColumns(), referenced, cs)
			if own || refs {
				fkDrops = append(fkDrops, &alteration.RemoveForeignKeyChange{Table: owner.Name, ForeignKey: fk.Clone()})
			}
		}
	}
	var idxDrops []*alteration.RemoveIndexChange
	for _, idx := range t.Indexes {
		if idx.Covers(retyped, cs) {
			idxDrops = append(idxDrops, &alteration.RemoveIndexChange{Table: tableName, Index: idx.Clone()})
		}
	}

	for _, c := range fkDrops {
		r.b.logger.Debug("dropping dependent foreign key", zap.String("table", c.Table), zap.String("foreign_key", c.ForeignKey.Name))
		if err := r.apply(c); err != nil {
			return err
		}
		r.foreignKeyReadds = append(r.foreignKeyReadds, &alteration.AddForeignKeyChange{Table: c.Table, ForeignKey: c.ForeignKey})
	}
	for _, c := range idxDrops {
		r.b.logger.Debug("dropping dependent index", zap.String("table", c.Table), zap.String("index", c.Index.Name))
		if err := r.apply(c); err != nil {
			return err
		}
		r.indexReadds = append(r.indexReadds, &alteration.AddIndexChange{Table: c.Table, Index: c.Index})
	}
	return nil
}

func containsAny(names, candidates []string, caseSensitive bool) bool {
	for _, c := range candidates {
		if schema.ContainsName(names, c, caseSensitive) {
			return true
		}
	}
	return false
}
