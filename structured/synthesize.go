package structured

import (
	"fmt"

	"github.com/typedflow/typedflow/types"
)

// ResultKey is the synthetic property name used when a non-object root shape
// is wrapped into a single-field object schema.
const ResultKey = "result"

// ResponseSchema is the synthesizer's output contract consumed by the
// request assembler and the response decoder.
type ResponseSchema struct {
	// Schema is the synthesized schema. Its root is an object, except for a
	// nilable object root where it is oneOf:[<object schema>, {type:"null"}].
	Schema *types.JSONSchema

	// Wrapped is true iff the original root shape was not itself an object
	// (ignoring a top-level null union). In that case Schema has exactly one
	// synthetic property, ResultKey, holding the true schema.
	Wrapped bool
}

// Synthesize turns a target shape into a ResponseSchema.
//
// Non-object roots (scalars, arrays, scalar unions) are wrapped into a
// single-field object under ResultKey so the tool-call argument document
// always has object type at its root; the root's own nilability becomes the
// required-ness of that one field.
func Synthesize(shape types.Shape) (*ResponseSchema, error) {
	node, err := synthesizeNode(shape)
	if err != nil {
		return nil, err
	}

	if isObjectRoot(shape) {
		return &ResponseSchema{Schema: node, Wrapped: false}, nil
	}

	wrapper := types.NewObjectSchema().AddProperty(ResultKey, node)
	if !IsNilable(shape) {
		wrapper.AddRequired(ResultKey)
	}
	return &ResponseSchema{Schema: wrapper, Wrapped: true}, nil
}

// isObjectRoot reports whether the root shape is an object, ignoring a
// top-level null union: Union{Object, null} still counts as an object root.
func isObjectRoot(s types.Shape) bool {
	if s.Kind == types.KindObject {
		return true
	}
	if s.Kind != types.KindUnion {
		return false
	}
	members := nonNullMembers(s)
	return len(members) == 1 && members[0].Kind == types.KindObject
}

// synthesizeNode recursively builds the schema node for a shape, including
// the oneOf disjunction for nilable shapes.
func synthesizeNode(s types.Shape) (*types.JSONSchema, error) {
	switch {
	case s.IsScalar():
		return scalarNode(s.Kind)

	case s.Kind == types.KindArray:
		items, err := synthesizeNode(*s.Element)
		if err != nil {
			return nil, err
		}
		return types.NewArraySchema(items), nil

	case s.Kind == types.KindObject:
		node := types.NewObjectSchema()
		for _, f := range s.Fields {
			prop, err := synthesizeNode(f.Shape)
			if err != nil {
				return nil, err
			}
			node.AddProperty(f.Name, prop)
			// Required is recomputed here, not taken from the caller: it
			// affects validation, not merely documentation.
			if !IsNilable(f.Shape) && !f.Optional {
				node.AddRequired(f.Name)
			}
		}
		return node, nil

	case s.Kind == types.KindUnion:
		return synthesizeUnion(s)

	default:
		return nil, types.NewError(types.ErrUnsupportedShape,
			fmt.Sprintf("cannot synthesize a schema for shape %q", s.Describe()))
	}
}

// synthesizeUnion builds the node for a union shape. A union of scalars maps
// to a oneOf over its member leaves (collapsed when only one member remains).
// A union with a structured member is supported only as that sole member plus
// an optional null; any other non-null member next to it is unsupported,
// since the tool-call argument object cannot be disambiguated across
// structurally divergent shapes without a discriminant.
func synthesizeUnion(s types.Shape) (*types.JSONSchema, error) {
	members := nonNullMembers(s)
	nilable := IsNilable(s)

	if len(members) == 0 {
		return types.NewNullSchema(), nil
	}

	if IsSimple(s) {
		leaves := make([]*types.JSONSchema, 0, len(members)+1)
		for _, m := range members {
			leaf, err := scalarNode(m.Kind)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, leaf)
		}
		if nilable {
			leaves = append(leaves, types.NewNullSchema())
		}
		if len(leaves) == 1 {
			return leaves[0], nil
		}
		return types.NewOneOfSchema(leaves...), nil
	}

	if len(members) > 1 {
		return nil, types.NewError(types.ErrUnsupportedShape,
			fmt.Sprintf("union %s mixes a structured member with other non-null members", s.Describe()))
	}

	inner, err := synthesizeNode(members[0])
	if err != nil {
		return nil, err
	}
	if nilable {
		return types.NewOneOfSchema(inner, types.NewNullSchema()), nil
	}
	return inner, nil
}

func scalarNode(k types.ShapeKind) (*types.JSONSchema, error) {
	name, err := scalarTypeName(k)
	if err != nil {
		return nil, err
	}
	return &types.JSONSchema{Type: name}, nil
}
