package structured

import (
	"fmt"

	"github.com/typedflow/typedflow/types"
)

// IsSimple reports whether a shape is simple: a scalar, or a union whose
// every member is a scalar. Simple shapes synthesize to leaf or oneOf nodes
// and never need object wrapping below the root.
func IsSimple(s types.Shape) bool {
	if s.IsScalar() {
		return true
	}
	if s.Kind != types.KindUnion {
		return false
	}
	for _, m := range s.Members {
		if !m.IsScalar() {
			return false
		}
	}
	return true
}

// IsNilable reports whether a shape admits a JSON null: the null scalar
// itself, or a union containing the null scalar as a member.
func IsNilable(s types.Shape) bool {
	if s.Kind == types.KindNull {
		return true
	}
	if s.Kind != types.KindUnion {
		return false
	}
	for _, m := range s.Members {
		if m.Kind == types.KindNull {
			return true
		}
	}
	return false
}

// nonNullMembers returns the union members that are not the null scalar.
// For non-union shapes it returns the shape itself.
func nonNullMembers(s types.Shape) []types.Shape {
	if s.Kind != types.KindUnion {
		return []types.Shape{s}
	}
	out := make([]types.Shape, 0, len(s.Members))
	for _, m := range s.Members {
		if m.Kind != types.KindNull {
			out = append(out, m)
		}
	}
	return out
}

// scalarTypeName maps a scalar shape kind to its canonical schema type name.
// Any non-scalar kind is a hard unsupported-shape failure: the caller
// requested a target shape the engine cannot represent.
func scalarTypeName(k types.ShapeKind) (types.SchemaType, error) {
	switch k {
	case types.KindString:
		return types.SchemaTypeString, nil
	case types.KindInteger:
		return types.SchemaTypeInteger, nil
	case types.KindNumber:
		return types.SchemaTypeNumber, nil
	case types.KindBoolean:
		return types.SchemaTypeBoolean, nil
	case types.KindNull:
		return types.SchemaTypeNull, nil
	default:
		return "", types.NewError(types.ErrUnsupportedShape,
			fmt.Sprintf("shape kind %q has no scalar schema type", k))
	}
}
