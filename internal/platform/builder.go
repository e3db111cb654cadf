package platform

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/tordrt/ddlgen/internal/schema"
)

// Builder emits DDL for one dialect
type Builder struct {
	dialect       Dialect
	info          *Info
	delimited     bool
	caseSensitive bool
	appendColumns bool
	logger        *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithDelimitedIdentifiers turns identifier quoting on or off
func WithDelimitedIdentifiers(delimited bool) Option {
	return func(b *Builder) { b.delimited = delimited }
}

// WithCaseSensitive controls how identifiers are matched in the models
func WithCaseSensitive(caseSensitive bool) Option {
	return func(b *Builder) { b.caseSensitive = caseSensitive }
}

// WithAppendMisplacedColumns lets dialects that cannot insert a column at a
// position append it at the end instead of failing. The resulting column
// order differs from the desired model.
func WithAppendMisplacedColumns(appendColumns bool) Option {
	return func(b *Builder) { b.appendColumns = appendColumns }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder for the dialect. Identifiers are delimited
// and matched case-insensitively unless configured otherwise.
func NewBuilder(d Dialect, opts ...Option) *Builder {
	b := &Builder{
		dialect:   d,
		info:      d.Info(),
		delimited: true,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dialect returns the dialect the builder emits for
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Logger returns the logger the builder reports to
func (b *Builder) Logger() *zap.Logger {
	return b.logger
}

// Info returns the dialect's static facts
func (b *Builder) Info() *Info {
	return b.info
}

// NativeType returns the engine's type name for the column, without size
func (b *Builder) NativeType(col schema.Column) string {
	if col.AutoIncrement && b.info.AutoIncrementInlinePK {
		return "INTEGER"
	}
	if name, ok := b.info.NativeTypes[col.Type]; ok {
		return name
	}
	return col.Type.String()
}

// SQLType returns the full column type including size or precision
func (b *Builder) SQLType(col schema.Column) string {
	native := b.NativeType(col)
	if b.info.UnsizedTypes[col.Type] || strings.Contains(native, "(") {
		return native
	}
	size := schema.EffectiveSize(col, b.info.DefaultSizes)
	switch {
	case col.Type.HasPrecision() && size > 0:
		if col.Scale > 0 {
			return fmt.Sprintf("%s(%d,%d)", native, size, col.Scale)
		}
		return fmt.Sprintf("%s(%d)", native, size)
	case col.Type.HasSize() && size > 0:
		return fmt.Sprintf("%s(%d)", native, size)
	}
	return native
}

// CastExpression converts the source column to the target column's type
func (b *Builder) CastExpression(source, target schema.Column) string {
	return b.dialect.CastExpression(b, source, target)
}

// DefaultValue renders the column's default as an engine literal. The second
// result is false when the column has no default.
func (b *Builder) DefaultValue(col schema.Column) (string, bool) {
	if col.DefaultValue == nil {
		return "", false
	}
	value, raw := b.dialect.NativeDefault(col)
	if raw || col.Type.IsNumeric() {
		return value, true
	}
	if b.info.ConvertsDateDefaults && col.Type.IsDateTime() {
		b.logger.Warn("default value is not in ISO format and is emitted verbatim",
			zap.String("column", col.Name), zap.String("value", value))
	}
	return b.Literal(value), true
}

// columnDefinition renders name, type, default, nullability and the
// auto-increment attribute of a column.
func (b *Builder) columnDefinition(col schema.Column, inlinePK bool) string {
	parts := []string{b.Identifier(col.Name), b.SQLType(col)}

	native := col.AutoIncrement && b.info.AutoIncrement == AutoIncrementNative
	if !native {
		if value, ok := b.DefaultValue(col); ok {
			parts = append(parts, "DEFAULT "+value)
		}
	}
	if inlinePK {
		parts = append(parts, "PRIMARY KEY")
	} else if !col.EffectiveNullable() {
		parts = append(parts, "NOT NULL")
	}
	if native && b.info.AutoIncrementClause != "" {
		parts = append(parts, b.info.AutoIncrementClause)
	}
	return strings.Join(parts, " ")
}

// inlinePrimaryKey returns the column that carries the primary key inline,
// for engines where an auto-increment column must be declared that way.
func (b *Builder) inlinePrimaryKey(t *schema.Table) (string, error) {
	if !b.info.AutoIncrementInlinePK {
		return "", nil
	}
	autoInc := t.AutoIncrementColumns()
	if len(autoInc) == 0 {
		return "", nil
	}
	if len(autoInc) > 1 || len(t.PrimaryKey) != 1 || !schema.NamesEqual(t.PrimaryKey[0], autoInc[0].Name, b.caseSensitive) {
		return "", errors.NotSupportedf("%s: auto-increment column in table %s that is not the single primary key column", b.info.Name, t.Name)
	}
	return autoInc[0].Name, nil
}

func (b *Builder) checkAutoIncrement(t *schema.Table) error {
	if b.info.AutoIncrement == AutoIncrementUnsupported && len(t.AutoIncrementColumns()) > 0 {
		return errors.NotSupportedf("%s: auto-increment columns in table %s", b.info.Name, t.Name)
	}
	return nil
}

// CreateSchema emits the statements that create every table of the model:
// sequences and tables first, then foreign keys, then indexes.
func (b *Builder) CreateSchema(s *schema.Schema, sink Sink) error {
	if err := s.Validate(b.caseSensitive); err != nil {
		return errors.Trace(err)
	}
	for i := range s.Tables {
		if err := b.createTable(&s.Tables[i], sink); err != nil {
			return errors.Annotatef(err, "creating table %s", s.Tables[i].Name)
		}
	}
	if !b.info.ForeignKeysInline {
		for _, t := range s.Tables {
			for _, fk := range t.ForeignKeys {
				if err := b.createForeignKey(t.Name, fk, sink); err != nil {
					return err
				}
			}
		}
	}
	for _, t := range s.Tables {
		for _, idx := range t.Indexes {
			if err := b.createIndex(t.Name, idx, sink); err != nil {
				return err
			}
		}
	}
	return nil
}

// DropSchema emits the statements that drop every table of the model,
// foreign keys first and tables in reverse order.
func (b *Builder) DropSchema(s *schema.Schema, sink Sink) error {
	if b.info.DropTableSuffix == "" && !b.info.ForeignKeysInline {
		for _, t := range s.Tables {
			for _, fk := range t.ForeignKeys {
				if err := b.dropForeignKey(t.Name, fk, sink); err != nil {
					return err
				}
			}
		}
	}
	for i := len(s.Tables) - 1; i >= 0; i-- {
		if err := b.DropTable(&s.Tables[i], sink); err != nil {
			return errors.Annotatef(err, "dropping table %s", s.Tables[i].Name)
		}
	}
	return nil
}

// CreateTable emits a single table with its indexes. Foreign keys are
// declared inline on engines that require it; elsewhere they are left to
// the caller so that referenced tables can be created first.
func (b *Builder) CreateTable(t *schema.Table, sink Sink) error {
	if err := b.createTable(t, sink); err != nil {
		return err
	}
	for _, idx := range t.Indexes {
		if err := b.createIndex(t.Name, idx, sink); err != nil {
			return err
		}
	}
	return nil
}

// CreateForeignKeys emits the statements adding the table's foreign keys.
// Engines that declare foreign keys inline emit nothing.
func (b *Builder) CreateForeignKeys(t *schema.Table, sink Sink) error {
	if b.info.ForeignKeysInline {
		return nil
	}
	for _, fk := range t.ForeignKeys {
		if err := b.createForeignKey(t.Name, fk, sink); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) createTable(t *schema.Table, sink Sink) error {
	if err := b.checkAutoIncrement(t); err != nil {
		return err
	}
	inlinePK, err := b.inlinePrimaryKey(t)
	if err != nil {
		return err
	}

	for _, col := range t.AutoIncrementColumns() {
		if err := b.createSequence(t.Name, col.Name, sink); err != nil {
			return err
		}
	}

	var lines []string
	for _, col := range t.Columns {
		lines = append(lines, indent+b.columnDefinition(col, inlinePK != "" && schema.NamesEqual(col.Name, inlinePK, b.caseSensitive)))
	}
	if len(t.PrimaryKey) > 0 && inlinePK == "" {
		lines = append(lines, indent+"PRIMARY KEY ("+b.identifierList(t.PrimaryKey)+")")
	}
	if b.info.ForeignKeysInline {
		for _, fk := range t.ForeignKeys {
			lines = append(lines, indent+b.foreignKeyClause(t.Name, fk))
		}
	}

	stmt := "CREATE TABLE " + b.Identifier(t.Name) + "\n(\n" + strings.Join(lines, ",\n") + "\n)"
	if err := b.emit(sink, stmt); err != nil {
		return err
	}

	for _, col := range t.AutoIncrementColumns() {
		if err := b.createTrigger(t.Name, col.Name, sink); err != nil {
			return err
		}
	}
	return nil
}

// DropTable emits the statements that drop the table and the objects that
// serve its auto-increment columns.
func (b *Builder) DropTable(t *schema.Table, sink Sink) error {
	b.logger.Warn("dropping table", zap.String("table", t.Name))
	if err := b.emit(sink, "DROP TABLE "+b.Identifier(t.Name)+b.info.DropTableSuffix); err != nil {
		return err
	}
	for _, col := range t.AutoIncrementColumns() {
		if err := b.dropTrigger(t.Name, col.Name, sink); err != nil {
			return err
		}
		if err := b.dropSequence(t.Name, col.Name, sink); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) sequenceName(table, column string) string {
	return b.ConstraintName("seq", table, column)
}

func (b *Builder) triggerName(table, column string) string {
	return b.ConstraintName("trg", table, column)
}

func (b *Builder) usesSequence() bool {
	return b.info.AutoIncrement == AutoIncrementSequence || b.info.AutoIncrement == AutoIncrementSequenceTrigger
}

func (b *Builder) createSequence(table, column string, sink Sink) error {
	if !b.usesSequence() {
		return nil
	}
	return b.emit(sink, "CREATE SEQUENCE "+b.Identifier(b.sequenceName(table, column)))
}

func (b *Builder) dropSequence(table, column string, sink Sink) error {
	if !b.usesSequence() {
		return nil
	}
	return b.emit(sink, "DROP SEQUENCE "+b.Identifier(b.sequenceName(table, column)))
}

// createTrigger writes the trigger that fills the column from its sequence.
// The PL/SQL block keeps its own terminating delimiter on one line so that
// script splitters do not cut it apart.
func (b *Builder) createTrigger(table, column string, sink Sink) error {
	if b.info.AutoIncrement != AutoIncrementSequenceTrigger {
		return nil
	}
	col := b.Identifier(column)
	stmt := fmt.Sprintf("CREATE OR REPLACE TRIGGER %s BEFORE INSERT ON %s FOR EACH ROW WHEN (new.%s IS NULL)\nBEGIN SELECT %s.nextval INTO :new.%s FROM dual%s END%s",
		b.Identifier(b.triggerName(table, column)), b.Identifier(table), col,
		b.Identifier(b.sequenceName(table, column)), col,
		b.info.StatementDelimiter, b.info.StatementDelimiter)
	return b.emit(sink, stmt)
}

func (b *Builder) dropTrigger(table, column string, sink Sink) error {
	if b.info.AutoIncrement != AutoIncrementSequenceTrigger {
		return nil
	}
	return b.emit(sink, "DROP TRIGGER "+b.Identifier(b.triggerName(table, column)))
}

// ForeignKeyName returns the key's name or a name derived from its columns
func (b *Builder) ForeignKeyName(table string, fk schema.ForeignKey) string {
	if fk.Name != "" {
		return fk.Name
	}
	return b.ConstraintName("fk", table, strings.Join(fk.LocalColumns(), "_"))
}

// IndexName returns the index's name or a name derived from its columns
func (b *Builder) IndexName(table string, idx schema.Index) string {
	if idx.Name != "" {
		return idx.Name
	}
	return b.ConstraintName("idx", table, strings.Join(idx.Columns, "_"))
}

func (b *Builder) foreignKeyClause(table string, fk schema.ForeignKey) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		b.Identifier(b.ForeignKeyName(table, fk)),
		b.identifierList(fk.LocalColumns()),
		b.Identifier(fk.ForeignTable),
		b.identifierList(fk.ForeignColumns()))
}

func (b *Builder) alterTable(table, clause string) string {
	return "ALTER TABLE " + b.Identifier(table) + "\n" + indent + clause
}

func (b *Builder) createForeignKey(table string, fk schema.ForeignKey, sink Sink) error {
	return b.emit(sink, b.alterTable(table, "ADD "+b.foreignKeyClause(table, fk)))
}

func (b *Builder) dropForeignKey(table string, fk schema.ForeignKey, sink Sink) error {
	return b.emit(sink, b.alterTable(table, b.info.ForeignKeyDropClause+" "+b.Identifier(b.ForeignKeyName(table, fk))))
}

func (b *Builder) createIndex(table string, idx schema.Index, sink Sink) error {
	unique := ""
	if idx.IsUnique {
		unique = "UNIQUE "
	}
	return b.emit(sink, fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, b.Identifier(b.IndexName(table, idx)), b.Identifier(table), b.identifierList(idx.Columns)))
}

func (b *Builder) dropIndex(table string, idx schema.Index, sink Sink) error {
	stmt := "DROP INDEX " + b.Identifier(b.IndexName(table, idx))
	if b.info.IndexDropOnTable {
		stmt += " ON " + b.Identifier(table)
	}
	return b.emit(sink, stmt)
}

func (b *Builder) addPrimaryKey(table string, columns []string, sink Sink) error {
	return b.emit(sink, b.alterTable(table, "ADD PRIMARY KEY ("+b.identifierList(columns)+")"))
}

func (b *Builder) dropPrimaryKey(table string, sink Sink) error {
	if b.info.PrimaryKeyConstraintSuffix != "" {
		return b.emit(sink, b.alterTable(table, "DROP CONSTRAINT "+b.Identifier(b.PrimaryKeyName(table))))
	}
	return b.emit(sink, b.alterTable(table, "DROP PRIMARY KEY"))
}

// PrimaryKeyName returns the name the engine gives an unnamed primary key
// constraint: the table name clipped so that it still fits the identifier
// limit with the suffix appended.
func (b *Builder) PrimaryKeyName(table string) string {
	suffix := b.info.PrimaryKeyConstraintSuffix
	name := table + suffix
	if limit := b.info.MaxIdentifierLength; limit > len(suffix) && len(name) > limit {
		name = clipName(table, limit-len(suffix)) + suffix
	}
	return name
}
