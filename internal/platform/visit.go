package platform

import (
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/tordrt/ddlgen/internal/alteration"
	"github.com/tordrt/ddlgen/internal/schema"
)

func (r *alterRun) VisitAddTable(c *alteration.AddTableChange) error {
	if err := r.b.CreateTable(&c.Table, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

func (r *alterRun) VisitRemoveTable(c *alteration.RemoveTableChange) error {
	t, err := r.table(c.Table.Name)
	if err != nil {
		return err
	}
	if err := r.b.DropTable(t, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

func (r *alterRun) VisitAddColumn(c *alteration.AddColumnChange) error {
	b := r.b
	info := b.info
	col := c.Column

	if col.AutoIncrement {
		switch {
		case info.AutoIncrement == AutoIncrementUnsupported:
			return b.unsupported(c, "auto-increment columns are not supported")
		case info.AutoIncrementInlinePK:
			return b.unsupported(c, "auto-increment columns can only be declared with the table")
		}
	}
	if info.NotNullAddNeedsDefault && !col.EffectiveNullable() && col.DefaultValue == nil {
		return b.unsupported(c, "a NOT NULL column without a default cannot be added")
	}

	if c.Previous != "" {
		t, err := r.table(c.Table)
		if err != nil {
			return err
		}
		if prev, _ := t.FindColumn(c.Previous, b.caseSensitive); prev == nil {
			return errors.NotFoundf("column %s preceding %s in table %s", c.Previous, col.Name, c.Table)
		}
	}

	position := ""
	appendInstead := false
	if !c.AtEnd {
		switch {
		case info.ColumnPositioning && c.Previous == "":
			position = " FIRST"
		case info.ColumnPositioning:
			position = " AFTER " + b.Identifier(c.Previous)
		case b.appendColumns:
			b.logger.Warn("appending column that belongs in the middle of the table",
				zap.String("table", c.Table), zap.String("column", col.Name), zap.String("after", c.Previous))
			appendInstead = true
		default:
			return b.unsupported(c, "columns can only be added at the end of a table")
		}
	}

	if err := b.emit(r.sink, b.alterTable(c.Table, info.AddColumnClause+" "+b.columnDefinition(col, false)+position)); err != nil {
		return err
	}
	if appendInstead {
		t, err := r.table(c.Table)
		if err != nil {
			return err
		}
		if err := t.AppendColumn(col.Clone(), b.caseSensitive); err != nil {
			return err
		}
	} else if err := c.Apply(r.working, b.caseSensitive); err != nil {
		return err
	}

	if col.AutoIncrement {
		return r.createAutoIncrement(c.Table, col.Name)
	}
	return nil
}

func (r *alterRun) VisitRemoveColumn(c *alteration.RemoveColumnChange) error {
	b := r.b
	t, err := r.table(c.Table)
	if err != nil {
		return err
	}
	col, _ := t.FindColumn(c.Column.Name, b.caseSensitive)
	if col == nil {
		return b.unsupported(c, "column does not exist")
	}
	if col.AutoIncrement {
		if err := r.dropAutoIncrement(c.Table, col.Name); err != nil {
			return err
		}
	}
	b.logger.Warn("dropping column", zap.String("table", c.Table), zap.String("column", c.Column.Name))
	if err := r.dropColumn(c.Table, c.Column.Name); err != nil {
		return err
	}
	return c.Apply(r.working, b.caseSensitive)
}

func (r *alterRun) VisitColumnDefinition(c *alteration.ColumnDefinitionChange) error {
	b := r.b
	info := b.info
	source, target := c.Source, c.Target

	switch info.ColumnChange {
	case AlterUnsupported:
		return b.unsupported(c, "column definitions cannot be changed")
	case AlterRecreate:
		return r.recreateColumn(c, source, target)
	}

	if source.AutoIncrement != target.AutoIncrement {
		switch {
		case info.AutoIncrementInlinePK:
			return b.unsupported(c, "auto-increment can only be declared with the table")
		case target.AutoIncrement && info.AutoIncrement == AutoIncrementUnsupported:
			return b.unsupported(c, "auto-increment columns are not supported")
		case info.AutoIncrement == AutoIncrementNative && info.AlterSyntax == AlterColumnSyntax &&
			((target.AutoIncrement && info.IdentityAdd == "") || (source.AutoIncrement && info.IdentityDrop == "")):
			return b.unsupported(c, "auto-increment cannot be changed on an existing column")
		}
	}

	if source.AutoIncrement {
		if err := r.dropAutoIncrementFor(c.Table, source, target); err != nil {
			return err
		}
	}

	var clauses []string
	switch info.AlterSyntax {
	case ModifyColumnSyntax:
		clauses = []string{"MODIFY COLUMN " + b.columnDefinition(target, false)}
	case ModifyParensSyntax:
		clauses = []string{b.modifyParens(source, target, true)}
	default:
		clauses = b.alterColumnClauses(c, source, target)
	}
	for _, clause := range clauses {
		if err := b.emit(r.sink, b.alterTable(c.Table, clause)); err != nil {
			return err
		}
	}

	if err := c.Apply(r.working, b.caseSensitive); err != nil {
		return err
	}

	if target.AutoIncrement {
		return r.createAutoIncrementFor(c.Table, source, target)
	}
	return nil
}

func (r *alterRun) VisitColumnDefaultValue(c *alteration.ColumnDefaultValueChange) error {
	b := r.b
	target := c.Target()

	switch b.info.DefaultChange {
	case AlterUnsupported:
		return b.unsupported(c, "column defaults cannot be changed")
	case AlterRecreate:
		return r.recreateColumn(c, c.Column, target)
	}

	var clause string
	switch b.info.AlterSyntax {
	case ModifyColumnSyntax:
		clause = "MODIFY COLUMN " + b.columnDefinition(target, false)
	case ModifyParensSyntax:
		clause = b.modifyParens(c.Column, target, false)
	default:
		clause = b.defaultClause(target)
	}
	if err := b.emit(r.sink, b.alterTable(c.Table, clause)); err != nil {
		return err
	}
	return c.Apply(r.working, b.caseSensitive)
}

func (r *alterRun) VisitAddPrimaryKey(c *alteration.AddPrimaryKeyChange) error {
	if !r.b.info.PrimaryKeyChanges {
		return r.b.unsupported(c, "primary keys cannot be added to an existing table")
	}
	if err := r.b.addPrimaryKey(c.Table, c.Columns, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

func (r *alterRun) VisitRemovePrimaryKey(c *alteration.RemovePrimaryKeyChange) error {
	if !r.b.info.PrimaryKeyChanges {
		return r.b.unsupported(c, "primary keys cannot be dropped from an existing table")
	}
	if err := r.b.dropPrimaryKey(c.Table, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

// VisitPrimaryKey handles a primary key change outside the phased table
// processing by dropping the old key and adding the new one.
func (r *alterRun) VisitPrimaryKey(c *alteration.PrimaryKeyChange) error {
	if !r.b.info.PrimaryKeyChanges {
		return r.b.unsupported(c, "primary keys cannot be changed on an existing table")
	}
	remove, add := c.Split()
	if err := r.apply(remove); err != nil {
		return err
	}
	return r.apply(add)
}

func (r *alterRun) VisitAddForeignKey(c *alteration.AddForeignKeyChange) error {
	if r.b.info.ForeignKeysInline {
		return r.b.unsupported(c, "foreign keys can only be declared with the table")
	}
	if err := r.b.createForeignKey(c.Table, c.ForeignKey, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

func (r *alterRun) VisitRemoveForeignKey(c *alteration.RemoveForeignKeyChange) error {
	if r.b.info.ForeignKeysInline {
		return r.b.unsupported(c, "foreign keys cannot be dropped from an existing table")
	}
	if err := r.b.dropForeignKey(c.Table, c.ForeignKey, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

func (r *alterRun) VisitAddIndex(c *alteration.AddIndexChange) error {
	if err := r.b.createIndex(c.Table, c.Index, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

func (r *alterRun) VisitRemoveIndex(c *alteration.RemoveIndexChange) error {
	if err := r.b.dropIndex(c.Table, c.Index, r.sink); err != nil {
		return err
	}
	return c.Apply(r.working, r.b.caseSensitive)
}

func (r *alterRun) dropColumn(table, column string) error {
	return r.b.emit(r.sink, r.b.alterTable(table, "DROP COLUMN "+r.b.Identifier(column)))
}

// recreateColumn replaces a column by dropping it and adding the target
// definition at the end of the table. The column's data is lost.
func (r *alterRun) recreateColumn(c alteration.Change, source, target schema.Column) error {
	b := r.b
	if target.AutoIncrement && b.info.AutoIncrement == AutoIncrementUnsupported {
		return b.unsupported(c, "auto-increment columns are not supported")
	}
	t, err := r.table(c.TableName())
	if err != nil {
		return err
	}
	b.logger.Warn("recreating column, existing values are lost",
		zap.String("table", t.Name), zap.String("column", source.Name))

	if source.AutoIncrement {
		if err := r.dropAutoIncrement(t.Name, source.Name); err != nil {
			return err
		}
	}
	if err := r.dropColumn(t.Name, source.Name); err != nil {
		return err
	}
	if err := b.emit(r.sink, b.alterTable(t.Name, b.info.AddColumnClause+" "+b.columnDefinition(target, false))); err != nil {
		return err
	}

	if err := t.RemoveColumn(source.Name, b.caseSensitive); err != nil {
		return err
	}
	if err := t.AppendColumn(target.Clone(), b.caseSensitive); err != nil {
		return err
	}

	if target.AutoIncrement {
		return r.createAutoIncrement(t.Name, target.Name)
	}
	return nil
}

// createAutoIncrement creates the sequence and trigger serving a column on
// engines that emulate auto-increment.
func (r *alterRun) createAutoIncrement(table, column string) error {
	if err := r.b.createSequence(table, column, r.sink); err != nil {
		return err
	}
	return r.b.createTrigger(table, column, r.sink)
}

func (r *alterRun) dropAutoIncrement(table, column string) error {
	if err := r.b.dropTrigger(table, column, r.sink); err != nil {
		return err
	}
	return r.b.dropSequence(table, column, r.sink)
}

// dropAutoIncrementFor tears down the objects serving an auto-increment
// column before its definition changes. Triggers always go since they are
// bound to the column; a bare sequence only goes when the column stops
// being auto-increment.
func (r *alterRun) dropAutoIncrementFor(table string, source, target schema.Column) error {
	switch r.b.info.AutoIncrement {
	case AutoIncrementSequenceTrigger:
		return r.dropAutoIncrement(table, source.Name)
	case AutoIncrementSequence:
		if !target.AutoIncrement {
			return r.b.dropSequence(table, source.Name, r.sink)
		}
	}
	return nil
}

func (r *alterRun) createAutoIncrementFor(table string, source, target schema.Column) error {
	switch r.b.info.AutoIncrement {
	case AutoIncrementSequenceTrigger:
		return r.createAutoIncrement(table, target.Name)
	case AutoIncrementSequence:
		if !source.AutoIncrement {
			return r.b.createSequence(table, target.Name, r.sink)
		}
	}
	return nil
}
