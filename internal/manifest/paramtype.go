package manifest

import "encoding/json"

// TypeKind enumerates the param types the declaration generator knows.
type TypeKind int

const (
	KindString TypeKind = iota
	KindNumber
	KindBoolean
	KindObject
	KindArray
	// KindRaw carries a free-form type hint such as `"light" | "full"`.
	KindRaw
)

// ParamType is a recognized primitive or a raw type hint. The zero value
// is the string type.
type ParamType struct {
	kind TypeKind
	raw  string
}

var (
	TypeString  = ParamType{kind: KindString}
	TypeNumber  = ParamType{kind: KindNumber}
	TypeBoolean = ParamType{kind: KindBoolean}
	TypeObject  = ParamType{kind: KindObject}
	TypeArray   = ParamType{kind: KindArray}
)

var primitiveNames = map[string]ParamType{
	"string":  TypeString,
	"number":  TypeNumber,
	"boolean": TypeBoolean,
	"object":  TypeObject,
	"array":   TypeArray,
}

// ParseParamType maps a type name to its kind. Unrecognized text becomes a
// raw type, kept verbatim.
func ParseParamType(s string) ParamType {
	if t, ok := primitiveNames[s]; ok {
		return t
	}
	return ParamType{kind: KindRaw, raw: s}
}

// RawType builds a raw type hint.
func RawType(s string) ParamType {
	return ParamType{kind: KindRaw, raw: s}
}

// Kind returns the type's kind.
func (t ParamType) Kind() TypeKind {
	return t.kind
}

// String returns the manifest spelling of the type.
func (t ParamType) String() string {
	switch t.kind {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return t.raw
	}
}

// MarshalJSON encodes the type as its manifest spelling.
func (t ParamType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a manifest spelling.
func (t *ParamType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseParamType(s)
	return nil
}
