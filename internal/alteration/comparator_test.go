package alteration

import (
	"reflect"
	"testing"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

func strPtr(s string) *string { return &s }

func baseModel() *schema.Schema {
	return &schema.Schema{Tables: []schema.Table{
		{
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInteger, AutoIncrement: true, PrimaryKey: true},
				{Name: "email", Type: schema.TypeVarchar, Size: 50},
				{Name: "status", Type: schema.TypeVarchar, Size: 20, Nullable: true},
			},
			PrimaryKey: []string{"id"},
			Indexes:    []schema.Index{{Name: "idx_users_email", Columns: []string{"email"}, IsUnique: true}},
		},
		{
			Name: "orders",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInteger, PrimaryKey: true},
				{Name: "user_id", Type: schema.TypeInteger},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []schema.ForeignKey{{
				Name:         "fk_orders_user",
				ForeignTable: "users",
				References:   []schema.Reference{{Local: "user_id", Foreign: "id"}},
			}},
		},
	}}
}

func describe(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.String()
	}
	return out
}

func TestCompareIdentical(t *testing.T) {
	changes, err := NewComparator().Compare(baseModel(), baseModel())
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("Expected no changes, got %v", describe(changes))
	}
}

func TestCompareColumnChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *schema.Schema)
		check  func(t *testing.T, changes []Change)
	}{
		{
			name: "size and default change is one definition change",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns[1].Size = 100
				s.Tables[0].Columns[1].DefaultValue = strPtr("none@example.com")
			},
			check: func(t *testing.T, changes []Change) {
				if len(changes) != 1 {
					t.Fatalf("Expected 1 change, got %v", describe(changes))
				}
				c, ok := changes[0].(*ColumnDefinitionChange)
				if !ok {
					t.Fatalf("Expected *ColumnDefinitionChange, got %T", changes[0])
				}
				if c.Target.Size != 100 || c.Target.DefaultValue == nil || *c.Target.DefaultValue != "none@example.com" {
					t.Errorf("Unexpected target column: %+v", c.Target)
				}
				if c.Source.Size != 50 {
					t.Errorf("Expected source size 50, got %d", c.Source.Size)
				}
			},
		},
		{
			name: "default only",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns[2].DefaultValue = strPtr("active")
			},
			check: func(t *testing.T, changes []Change) {
				if len(changes) != 1 {
					t.Fatalf("Expected 1 change, got %v", describe(changes))
				}
				c, ok := changes[0].(*ColumnDefaultValueChange)
				if !ok {
					t.Fatalf("Expected *ColumnDefaultValueChange, got %T", changes[0])
				}
				if c.NewDefaultValue == nil || *c.NewDefaultValue != "active" {
					t.Errorf("Expected new default 'active', got %v", c.NewDefaultValue)
				}
			},
		},
		{
			name: "columns appended at end",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns = append(s.Tables[0].Columns,
					schema.Column{Name: "created_at", Type: schema.TypeTimestamp, Nullable: true},
					schema.Column{Name: "updated_at", Type: schema.TypeTimestamp, Nullable: true})
			},
			check: func(t *testing.T, changes []Change) {
				if len(changes) != 2 {
					t.Fatalf("Expected 2 changes, got %v", describe(changes))
				}
				for i, prev := range []string{"status", "created_at"} {
					c := changes[i].(*AddColumnChange)
					if !c.AtEnd || c.Previous != prev {
						t.Errorf("Change %d: expected at end after %s, got %s", i, prev, c)
					}
				}
			},
		},
		{
			name: "column inserted in the middle",
			mutate: func(s *schema.Schema) {
				cols := s.Tables[0].Columns
				s.Tables[0].Columns = []schema.Column{cols[0], {Name: "name", Type: schema.TypeVarchar, Size: 80, Nullable: true}, cols[1], cols[2]}
			},
			check: func(t *testing.T, changes []Change) {
				if len(changes) != 1 {
					t.Fatalf("Expected 1 change, got %v", describe(changes))
				}
				c := changes[0].(*AddColumnChange)
				if c.AtEnd || c.Previous != "id" {
					t.Errorf("Expected insert after id, got %s", c)
				}
			},
		},
		{
			name: "column removed",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Columns = s.Tables[0].Columns[:2]
			},
			check: func(t *testing.T, changes []Change) {
				if len(changes) != 1 {
					t.Fatalf("Expected 1 change, got %v", describe(changes))
				}
				if c, ok := changes[0].(*RemoveColumnChange); !ok || c.Column.Name != "status" {
					t.Errorf("Expected removal of status, got %s", changes[0])
				}
			},
		},
		{
			name: "name case ignored",
			mutate: func(s *schema.Schema) {
				s.Tables[0].Name = "USERS"
				s.Tables[0].Columns[1].Name = "Email"
				s.Tables[0].Indexes[0].Columns = []string{"Email"}
			},
			check: func(t *testing.T, changes []Change) {
				if len(changes) != 0 {
					t.Errorf("Expected no changes, got %v", describe(changes))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desired := baseModel()
			tt.mutate(desired)
			changes, err := NewComparator().Compare(baseModel(), desired)
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			tt.check(t, changes)
		})
	}
}

func TestComparePrimaryKey(t *testing.T) {
	tests := []struct {
		name     string
		current  []string
		desired  []string
		wantType string
	}{
		{name: "add", desired: []string{"id"}, wantType: "*alteration.AddPrimaryKeyChange"},
		{name: "remove", current: []string{"id"}, wantType: "*alteration.RemovePrimaryKeyChange"},
		{name: "change", current: []string{"id"}, desired: []string{"id", "code"}, wantType: "*alteration.PrimaryKeyChange"},
		{name: "reordered", current: []string{"code", "id"}, desired: []string{"id", "code"}, wantType: "*alteration.PrimaryKeyChange"},
	}

	build := func(pk []string) *schema.Schema {
		table := schema.Table{
			Name: "items",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInteger},
				{Name: "code", Type: schema.TypeChar, Size: 4},
			},
		}
		if err := table.SetPrimaryKey(pk, false); err != nil {
			t.Fatalf("SetPrimaryKey failed: %v", err)
		}
		return &schema.Schema{Tables: []schema.Table{table}}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := NewComparator().Compare(build(tt.current), build(tt.desired))
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if len(changes) != 1 {
				t.Fatalf("Expected 1 change, got %v", describe(changes))
			}
			if got := reflect.TypeOf(changes[0]).String(); got != tt.wantType {
				t.Errorf("Expected %s, got %s", tt.wantType, got)
			}
		})
	}
}

func TestCompareConstraintsMatchedByKey(t *testing.T) {
	desired := baseModel()
	desired.Tables[0].Indexes[0].Name = "users_email_key"
	desired.Tables[1].ForeignKeys[0].Name = "orders_user_id_fkey"

	changes, err := NewComparator().Compare(baseModel(), desired)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("Expected renamed constraints to match, got %v", describe(changes))
	}

	desired.Tables[0].Indexes[0].IsUnique = false
	changes, err = NewComparator().Compare(baseModel(), desired)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	want := []string{
		"remove index unique idx_users_email on users(email)",
		"add index users_email_key on users(email)",
	}
	if got := describe(changes); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCompareDuplicateKeysPairedByName(t *testing.T) {
	current := baseModel()
	current.Tables[1].Indexes = []schema.Index{
		{Name: "b_idx", Columns: []string{"user_id"}},
		{Name: "a_idx", Columns: []string{"user_id"}},
	}
	desired := baseModel()
	desired.Tables[1].Indexes = []schema.Index{
		{Name: "z_idx", Columns: []string{"user_id"}},
	}

	changes, err := NewComparator().Compare(current, desired)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("Expected 1 change, got %v", describe(changes))
	}
	c, ok := changes[0].(*RemoveIndexChange)
	if !ok || c.Index.Name != "b_idx" {
		t.Errorf("Expected removal of b_idx, got %s", changes[0])
	}
}

func TestCompareTables(t *testing.T) {
	desired := baseModel()
	desired.Tables = append(desired.Tables, schema.Table{
		Name: "payments",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeBigInt, PrimaryKey: true},
			{Name: "order_id", Type: schema.TypeInteger},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{{
			Name:         "fk_payments_order",
			ForeignTable: "orders",
			References:   []schema.Reference{{Local: "order_id", Foreign: "id"}},
		}},
	})
	current := baseModel()
	current.Tables = append(current.Tables, schema.Table{
		Name:    "audit",
		Columns: []schema.Column{{Name: "entry", Type: schema.TypeClob, Nullable: true}},
	})

	changes, err := NewComparator().Compare(current, desired)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	want := []string{
		"remove table audit",
		"add table payments",
		"add foreign key fk_payments_order on payments(order_id) -> orders(id)",
	}
	if got := describe(changes); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	added := changes[1].(*AddTableChange)
	if len(added.Table.ForeignKeys) != 0 {
		t.Error("Expected added table to carry no foreign keys")
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	desired := baseModel()
	desired.Tables[0].Columns[1].Size = 120
	desired.Tables[0].Indexes = append(desired.Tables[0].Indexes,
		schema.Index{Name: "idx_a", Columns: []string{"status"}},
		schema.Index{Name: "idx_b", Columns: []string{"email", "status"}})
	desired.Tables[1].ForeignKeys = nil

	first, err := NewComparator().Compare(baseModel(), desired)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := NewComparator().Compare(baseModel(), desired)
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		if !reflect.DeepEqual(describe(first), describe(again)) {
			t.Fatalf("Expected identical change lists, got %v and %v", describe(first), describe(again))
		}
	}
}

func TestCompareRejectsInvalidModel(t *testing.T) {
	desired := baseModel()
	desired.Tables[0].PrimaryKey = []string{"missing"}

	_, err := NewComparator().Compare(baseModel(), desired)
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !errors.Is(err, errors.NotValid) {
		t.Errorf("Expected NotValid error, got %v", err)
	}
	var modelErr *schema.ModelError
	if !errors.As(err, &modelErr) {
		t.Errorf("Expected *schema.ModelError, got %T", err)
	}
}

func TestApplyConverges(t *testing.T) {
	desired := baseModel()
	desired.Tables[0].Columns = append(desired.Tables[0].Columns[:1],
		schema.Column{Name: "name", Type: schema.TypeVarchar, Size: 80, Nullable: true},
		desired.Tables[0].Columns[1])
	desired.Tables[0].Columns[2].Size = 255
	desired.Tables[0].Indexes = append(desired.Tables[0].Indexes, schema.Index{Name: "idx_name", Columns: []string{"name"}})
	desired.Tables[1].Columns = append(desired.Tables[1].Columns, schema.Column{Name: "total", Type: schema.TypeDecimal, Size: 10, Scale: 2, DefaultValue: strPtr("0")})
	if err := desired.Tables[1].SetPrimaryKey([]string{"id", "user_id"}, false); err != nil {
		t.Fatalf("SetPrimaryKey failed: %v", err)
	}
	desired.Tables = append(desired.Tables, schema.Table{
		Name:    "tags",
		Columns: []schema.Column{{Name: "label", Type: schema.TypeVarchar, Size: 30}},
	})

	current := baseModel()
	changes, err := NewComparator().Compare(current, desired)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	working := current.Clone()
	for _, c := range changes {
		if err := c.Apply(working, false); err != nil {
			t.Fatalf("Apply %s failed: %v", c, err)
		}
	}
	if !schema.Equal(working, desired, false) {
		t.Error("Expected applied changes to reproduce the desired model")
	}

	again, err := NewComparator().Compare(working, desired)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Expected no changes after applying, got %v", describe(again))
	}
}

func TestApplyErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		change Change
		kind   error
	}{
		{
			name:   "existing table",
			change: &AddTableChange{Table: schema.Table{Name: "users"}},
			kind:   errors.AlreadyExists,
		},
		{
			name:   "column on unknown table",
			change: &AddColumnChange{Table: "tags", Column: schema.Column{Name: "label", Type: schema.TypeVarchar}, AtEnd: true},
			kind:   errors.NotFound,
		},
		{
			name:   "existing column",
			change: &AddColumnChange{Table: "users", Column: schema.Column{Name: "email", Type: schema.TypeVarchar}, AtEnd: true},
			kind:   errors.AlreadyExists,
		},
		{
			name:   "default of unknown column",
			change: &ColumnDefaultValueChange{Table: "users", Column: schema.Column{Name: "nickname"}, NewDefaultValue: strPtr("x")},
			kind:   errors.NotFound,
		},
		{
			name:   "unknown index",
			change: &RemoveIndexChange{Table: "users", Index: schema.Index{Name: "idx_status", Columns: []string{"status"}}},
			kind:   errors.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Apply(baseModel(), false)
			if !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v error, got %v", tt.kind, err)
			}
		})
	}
}

func TestVisitorDispatch(t *testing.T) {
	changes := []Change{
		&AddTableChange{}, &RemoveTableChange{}, &AddColumnChange{}, &RemoveColumnChange{},
		&ColumnDefinitionChange{}, &ColumnDefaultValueChange{}, &AddPrimaryKeyChange{},
		&RemovePrimaryKeyChange{}, &PrimaryKeyChange{}, &AddForeignKeyChange{},
		&RemoveForeignKeyChange{}, &AddIndexChange{}, &RemoveIndexChange{},
	}
	v := &countingVisitor{}
	for _, c := range changes {
		if err := c.Accept(v); err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
	}
	if v.count != len(changes) {
		t.Errorf("Expected %d visits, got %d", len(changes), v.count)
	}
}

type countingVisitor struct{ count int }

func (v *countingVisitor) visit() error { v.count++; return nil }

func (v *countingVisitor) VisitAddTable(*AddTableChange) error                     { return v.visit() }
func (v *countingVisitor) VisitRemoveTable(*RemoveTableChange) error               { return v.visit() }
func (v *countingVisitor) VisitAddColumn(*AddColumnChange) error                   { return v.visit() }
func (v *countingVisitor) VisitRemoveColumn(*RemoveColumnChange) error             { return v.visit() }
func (v *countingVisitor) VisitColumnDefinition(*ColumnDefinitionChange) error     { return v.visit() }
func (v *countingVisitor) VisitColumnDefaultValue(*ColumnDefaultValueChange) error { return v.visit() }
func (v *countingVisitor) VisitAddPrimaryKey(*AddPrimaryKeyChange) error           { return v.visit() }
func (v *countingVisitor) VisitRemovePrimaryKey(*RemovePrimaryKeyChange) error     { return v.visit() }
func (v *countingVisitor) VisitPrimaryKey(*PrimaryKeyChange) error                 { return v.visit() }
func (v *countingVisitor) VisitAddForeignKey(*AddForeignKeyChange) error           { return v.visit() }
func (v *countingVisitor) VisitRemoveForeignKey(*RemoveForeignKeyChange) error     { return v.visit() }
func (v *countingVisitor) VisitAddIndex(*AddIndexChange) error                     { return v.visit() }
func (v *countingVisitor) VisitRemoveIndex(*RemoveIndexChange) error               { return v.visit() }
