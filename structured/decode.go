package structured

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/typedflow/typedflow/types"
)

// maxValueRender caps the rendered received value in diagnostics.
const maxValueRender = 240

// Decode parses raw tool-call arguments and validates them into the target
// shape. The raw text must be the JSON argument document of the forced tool
// call; schema carries the synthesizer's wrapping decision for the same
// target shape.
//
// Scalars decode to string/bool/int64/float64, objects to map[string]any,
// arrays to []any and null to nil. A value that does not structurally match
// the target fails with an invalid-generation error carrying both the
// expected shape description and a rendering of the received value; nothing
// is ever silently defaulted.
func Decode(raw []byte, schema *ResponseSchema, target types.Shape) (any, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		parseErr := types.NewError(types.ErrResponseParse,
			fmt.Sprintf("tool arguments are not valid JSON: %v", err))
		return nil, invalidGeneration("$", target, string(raw)).WithCause(parseErr)
	}

	if schema != nil && schema.Wrapped {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, invalidGeneration("$", target, doc).WithCause(
				types.NewError(types.ErrInvalidGeneration,
					fmt.Sprintf("wrapped response root must be an object with a %q key", ResultKey)))
		}
		inner, present := obj[ResultKey]
		if !present {
			if IsNilable(target) {
				// A nilable root leaves the synthetic field out of the
				// required list, so its absence decodes to null.
				return nil, nil
			}
			return nil, invalidGeneration("$", target, doc).WithCause(
				types.NewError(types.ErrInvalidGeneration,
					fmt.Sprintf("wrapped response is missing the %q key", ResultKey)))
		}
		doc = inner
	}

	return decodeValue(doc, target, "$")
}

// decodeValue validates v against shape s at the given path and returns the
// canonical decoded value.
func decodeValue(v any, s types.Shape, path string) (any, error) {
	switch s.Kind {
	case types.KindNull:
		if v == nil {
			return nil, nil
		}
		return nil, invalidGeneration(path, s, v)

	case types.KindString:
		if str, ok := v.(string); ok {
			return str, nil
		}
		return nil, invalidGeneration(path, s, v)

	case types.KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, invalidGeneration(path, s, v)

	case types.KindInteger:
		// encoding/json parses all numbers as float64; accept only values
		// without a fractional part.
		f, ok := v.(float64)
		if !ok || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, invalidGeneration(path, s, v)
		}
		return int64(f), nil

	case types.KindNumber:
		if f, ok := v.(float64); ok {
			return f, nil
		}
		return nil, invalidGeneration(path, s, v)

	case types.KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, invalidGeneration(path, s, v)
		}
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			fv, present := obj[f.Name]
			fieldPath := path + "." + f.Name
			if !present {
				if !IsNilable(f.Shape) && !f.Optional {
					return nil, invalidGeneration(path, s, v).WithCause(
						types.NewError(types.ErrInvalidGeneration,
							fmt.Sprintf("required field %q is missing at %s", f.Name, path)))
				}
				continue
			}
			decoded, err := decodeValue(fv, f.Shape, fieldPath)
			if err != nil {
				return nil, err
			}
			out[f.Name] = decoded
		}
		return out, nil

	case types.KindArray:
		arr, ok := v.([]any)
		if !ok {
			return nil, invalidGeneration(path, s, v)
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			decoded, err := decodeValue(elem, *s.Element, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil

	case types.KindUnion:
		if v == nil {
			if IsNilable(s) {
				return nil, nil
			}
			return nil, invalidGeneration(path, s, v)
		}
		for _, m := range nonNullMembers(s) {
			if decoded, err := decodeValue(v, m, path); err == nil {
				return decoded, nil
			}
		}
		return nil, invalidGeneration(path, s, v)

	default:
		return nil, types.NewError(types.ErrUnsupportedShape,
			fmt.Sprintf("cannot decode into shape %q", s.Describe()))
	}
}

// invalidGeneration builds the primary user-visible failure: what was
// expected, and what actually arrived.
func invalidGeneration(path string, expected types.Shape, actual any) *types.Error {
	return types.NewError(types.ErrInvalidGeneration,
		fmt.Sprintf("response does not match the target type at %s: expected %s, found %s",
			path, expected.Describe(), renderValue(actual)))
}

// renderValue renders a received value for diagnostics, truncated so a large
// malformed reply cannot flood the error message.
func renderValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", v))
	}
	if len(data) > maxValueRender {
		return string(data[:maxValueRender]) + "..."
	}
	return string(data)
}
