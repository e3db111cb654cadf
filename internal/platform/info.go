// Package platform turns schema models and change lists into DDL for a
// specific database engine.
//
// Engine differences are described by a Dialect: a static Info record plus a
// few hooks for the parts that need code (default literals, cast
// expressions). A single Builder drives every dialect.
package platform

import "github.com/tordrt/ddlgen/internal/schema"

// AutoIncrementStrategy describes how an engine generates column values
type AutoIncrementStrategy int

const (
	// AutoIncrementNative uses a column attribute such as AUTO_INCREMENT
	AutoIncrementNative AutoIncrementStrategy = iota
	// AutoIncrementSequenceTrigger pairs a sequence with a BEFORE INSERT trigger
	AutoIncrementSequenceTrigger
	// AutoIncrementSequence creates a sequence the application draws from
	AutoIncrementSequence
	// AutoIncrementUnsupported rejects auto-increment columns
	AutoIncrementUnsupported
)

func (s AutoIncrementStrategy) String() string {
	switch s {
	case AutoIncrementNative:
		return "native"
	case AutoIncrementSequenceTrigger:
		return "sequence+trigger"
	case AutoIncrementSequence:
		return "sequence"
	default:
		return "unsupported"
	}
}

// AlterStrategy says how a column is changed on an existing table
type AlterStrategy int

const (
	// AlterInPlace issues an ALTER statement for the column
	AlterInPlace AlterStrategy = iota
	// AlterRecreate drops the column and adds it again, losing its data
	AlterRecreate
	// AlterUnsupported rejects the change
	AlterUnsupported
)

// AlterSyntax is the statement shape used for in-place column changes
type AlterSyntax int

const (
	// AlterColumnSyntax issues one ALTER COLUMN clause per changed attribute
	AlterColumnSyntax AlterSyntax = iota
	// ModifyColumnSyntax restates the whole column with MODIFY COLUMN
	ModifyColumnSyntax
	// ModifyParensSyntax uses MODIFY (column ...) with only the changed parts
	ModifyParensSyntax
)

// Escape replaces one character sequence inside string literals
type Escape struct {
	From string
	To   string
}

// Info holds the static facts about a database engine
type Info struct {
	Name string

	IdentifierQuote     string
	ValueQuote          string
	EscapedChars        []Escape
	StatementDelimiter  string
	MaxIdentifierLength int // 0 means unlimited

	NativeTypes  map[schema.TypeCode]string
	DefaultSizes map[schema.TypeCode]int
	// UnsizedTypes lists types whose native name takes no size even though
	// the type code normally has one.
	UnsizedTypes map[schema.TypeCode]bool

	AutoIncrement         AutoIncrementStrategy
	AutoIncrementClause   string
	AutoIncrementInlinePK bool
	IdentityAdd           string
	IdentityDrop          string

	AddColumnClause                string
	NotNullAddNeedsDefault         bool
	ColumnChange                   AlterStrategy
	DefaultChange                  AlterStrategy
	AlterSyntax                    AlterSyntax
	AlterTypeClause                string
	AlterTypeUsing                 bool
	ColumnPositioning              bool
	AlterPrimaryKeyColumnNeedsDrop bool
	ConvertsDateDefaults           bool

	PrimaryKeyChanges          bool
	PrimaryKeyConstraintSuffix string
	ForeignKeyDropClause       string
	ForeignKeysInline          bool
	IndexDropOnTable           bool
	DropTableSuffix            string
}

// DefaultSize returns the size assumed for a column of the given type that
// declares none.
func (i *Info) DefaultSize(t schema.TypeCode) int {
	return i.DefaultSizes[t]
}

// standardSizes are the sizes most engines assume when a column declares none
func standardSizes() map[schema.TypeCode]int {
	return map[schema.TypeCode]int{
		schema.TypeChar:      254,
		schema.TypeVarchar:   254,
		schema.TypeBinary:    254,
		schema.TypeVarbinary: 254,
		schema.TypeNumeric:   15,
		schema.TypeDecimal:   15,
	}
}

func quoteEscapes() []Escape {
	return []Escape{{From: "'", To: "''"}}
}
