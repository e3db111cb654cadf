package alteration

import (
	"sort"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/tordrt/ddlgen/internal/schema"
)

// Comparator detects the changes that turn one schema model into another
type Comparator struct {
	caseSensitive bool
	defaultSizes  map[schema.TypeCode]int
	logger        *zap.Logger
}

// Option configures a Comparator
type Option func(*Comparator)

// WithCaseSensitive controls whether identifiers differing only in case are
// considered different.
func WithCaseSensitive(caseSensitive bool) Option {
	return func(c *Comparator) { c.caseSensitive = caseSensitive }
}

// WithDefaultSizes supplies the sizes assumed for columns that declare none
func WithDefaultSizes(sizes map[schema.TypeCode]int) Option {
	return func(c *Comparator) { c.defaultSizes = sizes }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Comparator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewComparator creates a comparator. Identifiers are compared
// case-insensitively unless configured otherwise.
func NewComparator(opts ...Option) *Comparator {
	c := &Comparator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare returns the changes needed to transform current into desired.
// Both models are validated first. For identical inputs the result is always
// the same, in the same order; the order is not safe for direct execution.
func (c *Comparator) Compare(current, desired *schema.Schema) ([]Change, error) {
	if err := current.Validate(c.caseSensitive); err != nil {
		return nil, errors.Annotate(err, "current model")
	}
	if err := desired.Validate(c.caseSensitive); err != nil {
		return nil, errors.Annotate(err, "desired model")
	}

	var changes []Change

	for _, t := range current.Tables {
		if desired.FindTable(t.Name, c.caseSensitive) == nil {
			changes = append(changes, &RemoveTableChange{Table: t.Clone()})
		}
	}

	for i := range desired.Tables {
		target := &desired.Tables[i]
		source := current.FindTable(target.Name, c.caseSensitive)
		if source == nil {
			continue
		}
		tableChanges := c.compareTables(source, target)
		c.logger.Debug("compared table",
			zap.String("table", source.Name),
			zap.Int("changes", len(tableChanges)))
		changes = append(changes, tableChanges...)
	}

	var newForeignKeys []Change
	for _, t := range desired.Tables {
		if current.FindTable(t.Name, c.caseSensitive) != nil {
			continue
		}
		table := t.Clone()
		for _, fk := range table.ForeignKeys {
			newForeignKeys = append(newForeignKeys, &AddForeignKeyChange{Table: table.Name, ForeignKey: fk})
		}
		table.ForeignKeys = nil
		changes = append(changes, &AddTableChange{Table: table})
	}
	changes = append(changes, newForeignKeys...)

	return changes, nil
}

func (c *Comparator) compareTables(source, target *schema.Table) []Change {
	var changes []Change
	name := source.Name

	removedFKs, addedFKs := matchByKey(
		foreignKeyKeys(source.ForeignKeys, c.caseSensitive), foreignKeyNames(source.ForeignKeys),
		foreignKeyKeys(target.ForeignKeys, c.caseSensitive), foreignKeyNames(target.ForeignKeys))
	for _, i := range removedFKs {
		changes = append(changes, &RemoveForeignKeyChange{Table: name, ForeignKey: source.ForeignKeys[i].Clone()})
	}

	removedIdx, addedIdx := matchByKey(
		indexKeys(source.Indexes, c.caseSensitive), indexNames(source.Indexes),
		indexKeys(target.Indexes, c.caseSensitive), indexNames(target.Indexes))
	for _, i := range removedIdx {
		changes = append(changes, &RemoveIndexChange{Table: name, Index: source.Indexes[i].Clone()})
	}

	changes = append(changes, c.compareColumns(source, target)...)

	if pk := c.comparePrimaryKeys(source, target); pk != nil {
		changes = append(changes, pk)
	}

	for _, i := range addedIdx {
		changes = append(changes, &AddIndexChange{Table: name, Index: target.Indexes[i].Clone()})
	}
	for _, i := range addedFKs {
		changes = append(changes, &AddForeignKeyChange{Table: name, ForeignKey: target.ForeignKeys[i].Clone()})
	}
	return changes
}

func (c *Comparator) compareColumns(source, target *schema.Table) []Change {
	var adds, removes, modifications []Change

	isNew := make([]bool, len(target.Columns))
	for i, col := range target.Columns {
		existing, _ := source.FindColumn(col.Name, c.caseSensitive)
		isNew[i] = existing == nil
	}

	for i, col := range target.Columns {
		if !isNew[i] {
			continue
		}
		change := &AddColumnChange{Table: source.Name, Column: col.Clone(), AtEnd: true}
		if i > 0 {
			change.Previous = target.Columns[i-1].Name
		}
		for j := i + 1; j < len(target.Columns); j++ {
			if !isNew[j] {
				change.AtEnd = false
				break
			}
		}
		adds = append(adds, change)
	}

	for _, col := range source.Columns {
		if existing, _ := target.FindColumn(col.Name, c.caseSensitive); existing == nil {
			removes = append(removes, &RemoveColumnChange{Table: source.Name, Column: col.Clone()})
		}
	}

	for i, col := range target.Columns {
		if isNew[i] {
			continue
		}
		existing, _ := source.FindColumn(col.Name, c.caseSensitive)
		desired := col.Clone()
		desired.Name = existing.Name
		desired.PrimaryKey = existing.PrimaryKey

		switch {
		case schema.DefinitionChanged(*existing, desired, c.defaultSizes):
			modifications = append(modifications, &ColumnDefinitionChange{
				Table:  source.Name,
				Source: existing.Clone(),
				Target: desired,
			})
		case schema.DefaultChanged(*existing, desired):
			modifications = append(modifications, &ColumnDefaultValueChange{
				Table:           source.Name,
				Column:          existing.Clone(),
				NewDefaultValue: desired.DefaultValue,
			})
		}
	}

	changes := append(adds, removes...)
	return append(changes, modifications...)
}

func (c *Comparator) comparePrimaryKeys(source, target *schema.Table) Change {
	switch {
	case len(source.PrimaryKey) == 0 && len(target.PrimaryKey) == 0:
		return nil
	case len(source.PrimaryKey) == 0:
		return &AddPrimaryKeyChange{Table: source.Name, Columns: cloneNames(target.PrimaryKey)}
	case len(target.PrimaryKey) == 0:
		return &RemovePrimaryKeyChange{Table: source.Name, Columns: cloneNames(source.PrimaryKey)}
	case !schema.SameNames(source.PrimaryKey, target.PrimaryKey, c.caseSensitive):
		return &PrimaryKeyChange{
			Table:      source.Name,
			OldColumns: cloneNames(source.PrimaryKey),
			NewColumns: cloneNames(target.PrimaryKey),
		}
	}
	return nil
}

// matchByKey pairs entries with equal keys. When several entries share a key
// they are paired in name order, then model order, so the outcome never
// depends on map iteration. It returns the unmatched source and target
// positions in model order.
func matchByKey(sourceKeys, sourceNames, targetKeys, targetNames []string) (unmatchedSource, unmatchedTarget []int) {
	group := func(keys, names []string) map[string][]int {
		groups := make(map[string][]int)
		for i, key := range keys {
			groups[key] = append(groups[key], i)
		}
		for _, idxs := range groups {
			sort.SliceStable(idxs, func(a, b int) bool { return names[idxs[a]] < names[idxs[b]] })
		}
		return groups
	}
	sourceGroups := group(sourceKeys, sourceNames)
	targetGroups := group(targetKeys, targetNames)

	matchedSource := make(map[int]bool)
	matchedTarget := make(map[int]bool)
	for key, sources := range sourceGroups {
		targets := targetGroups[key]
		for i := 0; i < len(sources) && i < len(targets); i++ {
			matchedSource[sources[i]] = true
			matchedTarget[targets[i]] = true
		}
	}

	for i := range sourceKeys {
		if !matchedSource[i] {
			unmatchedSource = append(unmatchedSource, i)
		}
	}
	for i := range targetKeys {
		if !matchedTarget[i] {
			unmatchedTarget = append(unmatchedTarget, i)
		}
	}
	return unmatchedSource, unmatchedTarget
}

func foreignKeyKeys(fks []schema.ForeignKey, caseSensitive bool) []string {
	keys := make([]string, len(fks))
	for i, fk := range fks {
		keys[i] = fk.Key(caseSensitive)
	}
	return keys
}

func foreignKeyNames(fks []schema.ForeignKey) []string {
	names := make([]string, len(fks))
	for i, fk := range fks {
		names[i] = fk.Name
	}
	return names
}

func indexKeys(indexes []schema.Index, caseSensitive bool) []string {
	keys := make([]string, len(indexes))
	for i, idx := range indexes {
		keys[i] = idx.Key(caseSensitive)
	}
	return keys
}

func indexNames(indexes []schema.Index) []string {
	names := make([]string, len(indexes))
	for i, idx := range indexes {
		names[i] = idx.Name
	}
	return names
}

func cloneNames(names []string) []string {
	return append([]string(nil), names...)
}
