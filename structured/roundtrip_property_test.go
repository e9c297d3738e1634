package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/typedflow/typedflow/types"
)

// genShape draws a random target shape. Union members are drawn from
// distinct unambiguous scalar kinds (number is excluded because a whole
// float matches both integer and number).
func genShape(t *rapid.T, depth int) types.Shape {
	kinds := []string{"string", "integer", "number", "boolean", "nilable"}
	if depth > 0 {
		kinds = append(kinds, "object", "array", "union")
	}
	switch rapid.SampledFrom(kinds).Draw(t, "kind") {
	case "string":
		return types.NewStringShape()
	case "integer":
		return types.NewIntegerShape()
	case "number":
		return types.NewNumberShape()
	case "boolean":
		return types.NewBooleanShape()
	case "nilable":
		return types.NewNilableShape(types.NewStringShape())
	case "array":
		return types.NewArrayShape(genShape(t, depth-1))
	case "union":
		members := []types.Shape{types.NewStringShape(), types.NewIntegerShape(), types.NewBooleanShape()}
		n := rapid.IntRange(1, 3).Draw(t, "members")
		union := types.NewUnionShape(members[:n]...)
		if rapid.Bool().Draw(t, "withNull") {
			union.Members = append(union.Members, types.NewNullShape())
		}
		return union
	default:
		n := rapid.IntRange(0, 3).Draw(t, "fields")
		fields := make([]types.Field, n)
		for i := 0; i < n; i++ {
			fields[i] = types.Field{
				Name:  rapid.StringMatching(`f[0-9]`).Draw(t, "name") + string(rune('a'+i)),
				Shape: genShape(t, depth-1),
			}
		}
		return types.NewObjectShape(fields...)
	}
}

// genValue draws a value conforming to shape, already in the decoder's
// canonical form.
func genValue(t *rapid.T, s types.Shape) any {
	switch s.Kind {
	case types.KindString:
		return rapid.StringMatching(`[a-z ]{0,12}`).Draw(t, "str")
	case types.KindInteger:
		return rapid.Int64Range(-1_000_000_000, 1_000_000_000).Draw(t, "int")
	case types.KindNumber:
		return rapid.Float64Range(-1e6, 1e6).Draw(t, "num")
	case types.KindBoolean:
		return rapid.Bool().Draw(t, "bool")
	case types.KindNull:
		return nil
	case types.KindArray:
		n := rapid.IntRange(0, 3).Draw(t, "len")
		out := make([]any, n)
		for i := range out {
			out[i] = genValue(t, *s.Element)
		}
		return out
	case types.KindObject:
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			out[f.Name] = genValue(t, f.Shape)
		}
		return out
	case types.KindUnion:
		members := s.Members
		m := rapid.SampledFrom(members).Draw(t, "member")
		return genValue(t, m)
	default:
		t.Fatalf("unexpected shape kind %q", s.Kind)
		return nil
	}
}

// A value conforming to a shape survives synthesis, wrapping and decoding
// unchanged.
func TestDecodeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shape := genShape(t, 3)
		value := genValue(t, shape)

		rs, err := Synthesize(shape)
		require.NoError(t, err)

		doc := value
		if rs.Wrapped {
			doc = map[string]any{ResultKey: value}
		}
		raw, err := json.Marshal(doc)
		require.NoError(t, err)

		decoded, err := Decode(raw, rs, shape)
		require.NoError(t, err)
		require.Equal(t, value, decoded)
	})
}
