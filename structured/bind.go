package structured

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/typedflow/typedflow/types"
)

// ShapeFor builds the target shape for a Go type. It is the boundary binding
// layer replacing runtime type reflection inside the engine: the shape is
// built once here and the engine itself only dispatches over shape variants.
func ShapeFor[T any]() (types.Shape, error) {
	return ShapeOf(reflect.TypeOf((*T)(nil)).Elem())
}

// ShapeOf builds a shape from a reflected Go type. Pointers become nilable
// unions, structs become objects (honoring json tags; omitempty marks a
// field optional), slices and arrays become arrays, and basic kinds become
// scalars. Maps, interfaces, channels and funcs have no schema
// representation and fail with an unsupported-shape error.
func ShapeOf(t reflect.Type) (types.Shape, error) {
	return shapeOf(t, make(map[reflect.Type]bool))
}

func shapeOf(t reflect.Type, visited map[reflect.Type]bool) (types.Shape, error) {
	if t == nil {
		return types.Shape{}, types.NewError(types.ErrUnsupportedShape, "cannot bind a shape for a nil type")
	}

	if t.Kind() == reflect.Ptr {
		inner, err := shapeOf(t.Elem(), visited)
		if err != nil {
			return types.Shape{}, err
		}
		return types.NewNilableShape(inner), nil
	}

	switch t.Kind() {
	case reflect.String:
		return types.NewStringShape(), nil

	case reflect.Bool:
		return types.NewBooleanShape(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return types.NewIntegerShape(), nil

	case reflect.Float32, reflect.Float64:
		return types.NewNumberShape(), nil

	case reflect.Slice, reflect.Array:
		elem, err := shapeOf(t.Elem(), visited)
		if err != nil {
			return types.Shape{}, err
		}
		return types.NewArrayShape(elem), nil

	case reflect.Struct:
		if visited[t] {
			return types.Shape{}, types.NewError(types.ErrUnsupportedShape,
				fmt.Sprintf("recursive type %s cannot be represented as a schema", t))
		}
		visited[t] = true
		defer delete(visited, t)
		return structShape(t, visited)

	default:
		return types.Shape{}, types.NewError(types.ErrUnsupportedShape,
			fmt.Sprintf("Go kind %s cannot be represented as a target shape", t.Kind()))
	}
}

func structShape(t reflect.Type, visited map[reflect.Type]bool) (types.Shape, error) {
	fields := make([]types.Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, optional, skip := parseJSONTag(sf)
		if skip {
			continue
		}
		shape, err := shapeOf(sf.Type, visited)
		if err != nil {
			return types.Shape{}, err
		}
		fields = append(fields, types.Field{Name: name, Shape: shape, Optional: optional})
	}
	return types.NewObjectShape(fields...).WithName(t.Name()), nil
}

// parseJSONTag extracts the wire name and optionality from a json tag.
func parseJSONTag(sf reflect.StructField) (name string, optional, skip bool) {
	name = sf.Name
	tag := sf.Tag.Get("json")
	if tag == "" {
		return name, false, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] == "-" && len(parts) == 1 {
		return "", false, true
	}
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			optional = true
		}
	}
	return name, optional, false
}
