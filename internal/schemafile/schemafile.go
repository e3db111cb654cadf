// Package schemafile reads and writes the YAML rendition of a schema model.
//
//	name: shop
//	tables:
//	  - name: users
//	    columns:
//	      - {name: id, type: INTEGER, autoIncrement: true}
//	      - {name: email, type: VARCHAR, size: 255}
//	    primaryKey: [id]
//	    indexes:
//	      - {name: idx_users_email, columns: [email], unique: true}
package schemafile

import (
	"bytes"
	"os"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/ddlgen/internal/schema"
)

// File is the document root
type File struct {
	Name   string  `yaml:"name,omitempty"`
	Tables []Table `yaml:"tables"`
}

// Table is one table entry
type Table struct {
	Name        string       `yaml:"name"`
	Columns     []Column     `yaml:"columns"`
	PrimaryKey  []string     `yaml:"primaryKey,omitempty,flow"`
	ForeignKeys []ForeignKey `yaml:"foreignKeys,omitempty"`
	Indexes     []Index      `yaml:"indexes,omitempty"`
}

// Column is one column entry. Nullable defaults to true when omitted;
// primary key columns are never nullable.
type Column struct {
	Name          string  `yaml:"name"`
	Type          string  `yaml:"type"`
	Size          int     `yaml:"size,omitempty"`
	Scale         int     `yaml:"scale,omitempty"`
	Nullable      *bool   `yaml:"nullable,omitempty"`
	Default       *string `yaml:"default,omitempty"`
	AutoIncrement bool    `yaml:"autoIncrement,omitempty"`
}

// ForeignKey is one foreign key entry
type ForeignKey struct {
	Name         string      `yaml:"name,omitempty"`
	ForeignTable string      `yaml:"foreignTable"`
	References   []Reference `yaml:"references"`
}

// Reference pairs a local and a foreign column
type Reference struct {
	Local   string `yaml:"local"`
	Foreign string `yaml:"foreign"`
}

// Index is one index entry
type Index struct {
	Name    string   `yaml:"name,omitempty"`
	Columns []string `yaml:"columns,flow"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// Parse decodes a YAML document into a validated model
func Parse(data []byte, caseSensitive bool) (*schema.Schema, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Annotate(err, "decoding schema file")
	}

	s, err := f.Model(caseSensitive)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := s.Validate(caseSensitive); err != nil {
		return nil, errors.Trace(err)
	}
	return s, nil
}

// Load reads and parses the schema file at path
func Load(path string, caseSensitive bool) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading schema file")
	}
	s, err := Parse(data, caseSensitive)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", path)
	}
	return s, nil
}

// Model converts the document into a schema model
func (f *File) Model(caseSensitive bool) (*schema.Schema, error) {
	s := &schema.Schema{Name: f.Name}
	for _, ft := range f.Tables {
		t := schema.Table{Name: ft.Name}
		for _, fc := range ft.Columns {
			code, err := schema.ParseTypeCode(fc.Type)
			if err != nil {
				return nil, errors.NewNotValid(err, "table "+ft.Name+" column "+fc.Name)
			}
			t.Columns = append(t.Columns, schema.Column{
				Name:          fc.Name,
				Type:          code,
				Size:          fc.Size,
				Scale:         fc.Scale,
				Nullable:      fc.Nullable == nil || *fc.Nullable,
				DefaultValue:  fc.Default,
				AutoIncrement: fc.AutoIncrement,
			})
		}
		if err := t.SetPrimaryKey(ft.PrimaryKey, caseSensitive); err != nil {
			return nil, errors.NewNotValid(err, "")
		}
		for i := range t.Columns {
			if t.Columns[i].PrimaryKey {
				t.Columns[i].Nullable = false
			}
		}
		for _, ffk := range ft.ForeignKeys {
			fk := schema.ForeignKey{Name: ffk.Name, ForeignTable: ffk.ForeignTable}
			for _, ref := range ffk.References {
				fk.References = append(fk.References, schema.Reference{Local: ref.Local, Foreign: ref.Foreign})
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
		for _, fi := range ft.Indexes {
			t.Indexes = append(t.Indexes, schema.Index{
				Name:     fi.Name,
				Columns:  append([]string(nil), fi.Columns...),
				IsUnique: fi.Unique,
			})
		}
		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

// FromModel converts a schema model into its document form
func FromModel(s *schema.Schema) *File {
	f := &File{Name: s.Name}
	for _, t := range s.Tables {
		ft := Table{Name: t.Name, PrimaryKey: append([]string(nil), t.PrimaryKey...)}
		for _, c := range t.Columns {
			fc := Column{
				Name:          c.Name,
				Type:          c.Type.String(),
				Size:          c.Size,
				Scale:         c.Scale,
				AutoIncrement: c.AutoIncrement,
			}
			if c.DefaultValue != nil {
				v := *c.DefaultValue
				fc.Default = &v
			}
			// Primary key columns are non-null implicitly
			if !c.Nullable && !c.PrimaryKey {
				nullable := false
				fc.Nullable = &nullable
			}
			ft.Columns = append(ft.Columns, fc)
		}
		for _, fk := range t.ForeignKeys {
			ffk := ForeignKey{Name: fk.Name, ForeignTable: fk.ForeignTable}
			for _, ref := range fk.References {
				ffk.References = append(ffk.References, Reference{Local: ref.Local, Foreign: ref.Foreign})
			}
			ft.ForeignKeys = append(ft.ForeignKeys, ffk)
		}
		for _, idx := range t.Indexes {
			ft.Indexes = append(ft.Indexes, Index{
				Name:    idx.Name,
				Columns: append([]string(nil), idx.Columns...),
				Unique:  idx.IsUnique,
			})
		}
		f.Tables = append(f.Tables, ft)
	}
	return f
}

// Marshal encodes a schema model as YAML
func Marshal(s *schema.Schema) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromModel(s)); err != nil {
		return nil, errors.Annotate(err, "encoding schema file")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Trace(err)
	}
	return buf.Bytes(), nil
}

// Save writes a schema model to path
func Save(path string, s *schema.Schema) error {
	data, err := Marshal(s)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(os.WriteFile(path, data, 0o644), "writing schema file")
}
