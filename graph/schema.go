package graph

// FieldType is the closed set of column types a TableSchema field may
// declare. The core treats tables as opaque beyond this: encoding,
// conformance and columnar layout live in the external storage layer.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldFloat
	FieldBool
	FieldDate
	FieldDateTime
	FieldDecimal
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldBool:
		return "bool"
	case FieldDate:
		return "date"
	case FieldDateTime:
		return "datetime"
	case FieldDecimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// Field is one column of a TableSchema.
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
	Label    string
}

// TableSchema describes the columns of a table without describing storage
// or encoding, mirroring the narrow shape the storage interface consumes.
type TableSchema struct {
	Fields []Field
}

// ByName returns the field with the given name and whether it was found.
func (s TableSchema) ByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Equal reports whether two schemas declare the same fields (name, type,
// optionality) in the same order; labels are not compared. Storage
// backends and RunContext.PutTable use it to check a table's schema
// against a declared one.
func (s TableSchema) Equal(other TableSchema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		g := other.Fields[i]
		if f.Name != g.Name || f.Type != g.Type || f.Optional != g.Optional {
			return false
		}
	}
	return true
}
