package types

import (
	"fmt"
	"strings"
)

// ShapeKind identifies the variant of a Shape.
type ShapeKind string

const (
	KindString  ShapeKind = "string"
	KindInteger ShapeKind = "integer"
	KindNumber  ShapeKind = "number"
	KindBoolean ShapeKind = "boolean"
	KindNull    ShapeKind = "null"
	KindObject  ShapeKind = "object"
	KindArray   ShapeKind = "array"
	KindUnion   ShapeKind = "union"
)

// Shape describes the target type a model reply must decode into.
// It is a tagged union: exactly one of Fields, Element or Members is
// populated depending on Kind; scalar kinds carry no payload.
//
// Nilability is a derived property, not a flag: a shape admits null iff it
// is the null scalar itself or a union containing the null scalar.
type Shape struct {
	Kind ShapeKind

	// Name is an optional display name used in diagnostics (e.g. the Go
	// struct name a shape was bound from). It never affects synthesis.
	Name string

	// Fields holds the ordered field list when Kind is KindObject.
	Fields []Field

	// Element holds the element shape when Kind is KindArray.
	Element *Shape

	// Members holds the member shapes when Kind is KindUnion.
	Members []Shape
}

// Field describes a single object field.
type Field struct {
	Name     string
	Shape    Shape
	Optional bool
}

// NewStringShape returns the string scalar shape.
func NewStringShape() Shape { return Shape{Kind: KindString} }

// NewIntegerShape returns the integer scalar shape.
func NewIntegerShape() Shape { return Shape{Kind: KindInteger} }

// NewNumberShape returns the number scalar shape. Both floating and
// fixed-point numeric kinds map here.
func NewNumberShape() Shape { return Shape{Kind: KindNumber} }

// NewBooleanShape returns the boolean scalar shape.
func NewBooleanShape() Shape { return Shape{Kind: KindBoolean} }

// NewNullShape returns the null scalar shape.
func NewNullShape() Shape { return Shape{Kind: KindNull} }

// NewObjectShape returns an object shape with the given ordered fields.
func NewObjectShape(fields ...Field) Shape {
	return Shape{Kind: KindObject, Fields: fields}
}

// NewArrayShape returns an array shape with the given element shape.
func NewArrayShape(element Shape) Shape {
	return Shape{Kind: KindArray, Element: &element}
}

// NewUnionShape returns a union shape over the given members.
func NewUnionShape(members ...Shape) Shape {
	return Shape{Kind: KindUnion, Members: members}
}

// NewNilableShape returns a union of the given shape and the null scalar,
// the canonical encoding of a nilable type.
func NewNilableShape(s Shape) Shape {
	return Shape{Kind: KindUnion, Members: []Shape{s, NewNullShape()}}
}

// IsScalar reports whether the shape is one of the five scalar kinds.
func (s Shape) IsScalar() bool {
	switch s.Kind {
	case KindString, KindInteger, KindNumber, KindBoolean, KindNull:
		return true
	}
	return false
}

// WithName returns a copy of the shape carrying a display name.
func (s Shape) WithName(name string) Shape {
	s.Name = name
	return s
}

// Describe renders a human-readable description of the shape, used in
// invalid-generation diagnostics. Nilable unions render as "<inner>?".
func (s Shape) Describe() string {
	if s.Name != "" {
		return s.Name
	}
	switch s.Kind {
	case KindString, KindInteger, KindNumber, KindBoolean, KindNull:
		return string(s.Kind)
	case KindArray:
		return fmt.Sprintf("array<%s>", s.Element.Describe())
	case KindObject:
		if len(s.Fields) == 0 {
			return "object{}"
		}
		parts := make([]string, 0, len(s.Fields))
		for _, f := range s.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Shape.Describe()))
		}
		return "object{" + strings.Join(parts, ", ") + "}"
	case KindUnion:
		nonNull := make([]string, 0, len(s.Members))
		hasNull := false
		for _, m := range s.Members {
			if m.Kind == KindNull {
				hasNull = true
				continue
			}
			nonNull = append(nonNull, m.Describe())
		}
		switch {
		case len(nonNull) == 1 && hasNull:
			return nonNull[0] + "?"
		case len(nonNull) == 0 && hasNull:
			return "null"
		case hasNull:
			return "union(" + strings.Join(nonNull, "|") + ")?"
		default:
			return "union(" + strings.Join(nonNull, "|") + ")"
		}
	}
	return string(s.Kind)
}
