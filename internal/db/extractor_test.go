package db

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/juju/errors"

	"github.com/tordrt/ddlgen/internal/schema"
)

func strPtr(s string) *string { return &s }

func TestTypeFromNative(t *testing.T) {
	tests := []struct {
		native    string
		wantType  schema.TypeCode
		wantSize  int
		wantScale int
	}{
		{"varchar(50)", schema.TypeVarchar, 50, 0},
		{"character varying", schema.TypeVarchar, 0, 0},
		{"CHAR(4)", schema.TypeChar, 4, 0},
		{"int(11)", schema.TypeInteger, 0, 0},
		{"int unsigned", schema.TypeInteger, 0, 0},
		{"bigint(20) unsigned", schema.TypeBigInt, 0, 0},
		{"tinyint(1)", schema.TypeBoolean, 0, 0},
		{"tinyint(4)", schema.TypeTinyInt, 0, 0},
		{"decimal(10,2)", schema.TypeDecimal, 10, 2},
		{"numeric(8)", schema.TypeNumeric, 8, 0},
		{"double precision", schema.TypeDouble, 0, 0},
		{"timestamp without time zone", schema.TypeTimestamp, 0, 0},
		{"timestamp(3) with time zone", schema.TypeTimestamp, 0, 0},
		{"datetime", schema.TypeTimestamp, 0, 0},
		{"TEXT", schema.TypeClob, 0, 0},
		{"bytea", schema.TypeBlob, 0, 0},
		{"varbinary(16)", schema.TypeVarbinary, 16, 0},
		{"int4[]", schema.TypeInteger, 0, 0},
		{"geometry", schema.TypeOther, 0, 0},
		{"", schema.TypeOther, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			code, size, scale := typeFromNative(tt.native)
			if code != tt.wantType || size != tt.wantSize || scale != tt.wantScale {
				t.Errorf("Expected %s(%d,%d), got %s(%d,%d)", tt.wantType, tt.wantSize, tt.wantScale, code, size, scale)
			}
		})
	}
}

func TestPostgresType(t *testing.T) {
	ten, two, fifty, thirtyTwo := 10, 2, 50, 32

	tests := []struct {
		name      string
		dataType  string
		udtName   string
		charMax   *int
		precision *int
		scale     *int
		wantType  schema.TypeCode
		wantSize  int
		wantScale int
	}{
		{name: "varchar", dataType: "character varying", udtName: "varchar", charMax: &fifty, wantType: schema.TypeVarchar, wantSize: 50},
		{name: "numeric", dataType: "numeric", udtName: "numeric", precision: &ten, scale: &two, wantType: schema.TypeNumeric, wantSize: 10, wantScale: 2},
		{name: "integer ignores precision", dataType: "integer", udtName: "int4", precision: &thirtyTwo, wantType: schema.TypeInteger},
		{name: "array", dataType: "ARRAY", udtName: "_int4", wantType: schema.TypeOther},
		{name: "enum", dataType: "USER-DEFINED", udtName: "mood", wantType: schema.TypeOther},
		{name: "falls back to udt", dataType: "oid-ish", udtName: "int8", wantType: schema.TypeBigInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, size, scale := postgresType(tt.dataType, tt.udtName, tt.charMax, tt.precision, tt.scale)
			if code != tt.wantType || size != tt.wantSize || scale != tt.wantScale {
				t.Errorf("Expected %s(%d,%d), got %s(%d,%d)", tt.wantType, tt.wantSize, tt.wantScale, code, size, scale)
			}
		})
	}
}

func TestNormalizeDefault(t *testing.T) {
	tests := []struct {
		name     string
		raw      *string
		want     *string
		wantAuto bool
	}{
		{name: "nil", raw: nil, want: nil},
		{name: "plain number", raw: strPtr("0"), want: strPtr("0")},
		{name: "quoted", raw: strPtr("'active'"), want: strPtr("active")},
		{name: "embedded quote", raw: strPtr("'it''s'"), want: strPtr("it's")},
		{name: "postgres cast", raw: strPtr("'active'::character varying"), want: strPtr("active")},
		{name: "postgres sized cast", raw: strPtr("'x'::character varying(20)"), want: strPtr("x")},
		{name: "parenthesized", raw: strPtr("('x')"), want: strPtr("x")},
		{name: "parenthesized number", raw: strPtr("(0)"), want: strPtr("0")},
		{name: "function call kept", raw: strPtr("now()"), want: strPtr("now()")},
		{name: "expression kept", raw: strPtr("(1) + (2)"), want: strPtr("(1) + (2)")},
		{name: "null", raw: strPtr("NULL"), want: nil},
		{name: "sequence", raw: strPtr("nextval('users_id_seq'::regclass)"), want: nil, wantAuto: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, auto := normalizeDefault(tt.raw)
			if auto != tt.wantAuto {
				t.Errorf("Expected auto-increment %v, got %v", tt.wantAuto, auto)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", deref(tt.want), deref(got))
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q", *s)
}

func TestAppendReference(t *testing.T) {
	var fks []schema.ForeignKey
	fks = appendReference(fks, "fk_a", "x", "parent", "id")
	fks = appendReference(fks, "fk_a", "y", "parent", "code")
	fks = appendReference(fks, "fk_b", "z", "other", "id")

	want := []schema.ForeignKey{
		{Name: "fk_a", ForeignTable: "parent", References: []schema.Reference{{Local: "x", Foreign: "id"}, {Local: "y", Foreign: "code"}}},
		{Name: "fk_b", ForeignTable: "other", References: []schema.Reference{{Local: "z", Foreign: "id"}}},
	}
	if !reflect.DeepEqual(fks, want) {
		t.Errorf("Expected %+v, got %+v", want, fks)
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		wantType string
		wantConn string
		wantErr  bool
	}{
		{url: "postgres://u:p@localhost/db", wantType: "postgresql", wantConn: "postgres://u:p@localhost/db"},
		{url: "postgresql://localhost/db", wantType: "postgresql", wantConn: "postgresql://localhost/db"},
		{url: "mysql://u:p@tcp(localhost:3306)/db", wantType: "mysql", wantConn: "u:p@tcp(localhost:3306)/db"},
		{url: "sqlite://data/app.db", wantType: "sqlite", wantConn: "data/app.db"},
		{url: "oracle://localhost", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dbType, conn, err := ParseURL(tt.url)
			if tt.wantErr {
				if !errors.Is(err, errors.NotValid) {
					t.Errorf("Expected NotValid error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if dbType != tt.wantType || conn != tt.wantConn {
				t.Errorf("Expected (%s, %s), got (%s, %s)", tt.wantType, tt.wantConn, dbType, conn)
			}
		})
	}
}

func TestParseDatabaseName(t *testing.T) {
	name, err := ParseDatabaseName("user:pass@tcp(localhost:3306)/shop?parseTime=true")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name != "shop" {
		t.Errorf("Expected shop, got %s", name)
	}

	if _, err := ParseDatabaseName("user:pass@tcp(localhost:3306)/"); err == nil {
		t.Error("Expected error for DSN without database")
	}
}

type recordingExecer struct {
	statements []string
	failOn     int
}

func (r *recordingExecer) ExecStatement(_ context.Context, stmt string) error {
	if r.failOn > 0 && len(r.statements)+1 == r.failOn {
		return fmt.Errorf("syntax error")
	}
	r.statements = append(r.statements, stmt)
	return nil
}

func TestExecSink(t *testing.T) {
	execer := &recordingExecer{failOn: 3}
	sink := NewExecSink(context.Background(), execer, nil)

	for _, stmt := range []string{"CREATE TABLE a (x INTEGER)", "CREATE TABLE b (y INTEGER)"} {
		if err := sink.WriteStatement(stmt); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if err := sink.WriteStatement("CREATE TABLE"); err == nil {
		t.Fatal("Expected error from failing statement")
	}
	if sink.Executed() != 2 || len(execer.statements) != 2 {
		t.Errorf("Expected 2 executed statements, got %d", sink.Executed())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewExecSink(ctx, execer, nil).WriteStatement("DROP TABLE a"); err == nil {
		t.Error("Expected error from cancelled context")
	}
}
