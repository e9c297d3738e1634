package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedflow/typedflow/types"
)

func TestSynthesizeScalarRootIsWrapped(t *testing.T) {
	rs, err := Synthesize(types.NewIntegerShape())
	require.NoError(t, err)

	assert.True(t, rs.Wrapped)
	assert.Equal(t, types.SchemaTypeObject, rs.Schema.Type)

	inner := rs.Schema.GetProperty(ResultKey)
	require.NotNil(t, inner)
	assert.Equal(t, types.SchemaTypeInteger, inner.Type)
	assert.True(t, rs.Schema.IsRequired(ResultKey))
}

func TestSynthesizeObjectRootIsNotWrapped(t *testing.T) {
	shape := types.NewObjectShape(
		types.Field{Name: "name", Shape: types.NewStringShape()},
		types.Field{Name: "age", Shape: types.NewIntegerShape()},
	)

	rs, err := Synthesize(shape)
	require.NoError(t, err)

	assert.False(t, rs.Wrapped)
	assert.Equal(t, types.SchemaTypeObject, rs.Schema.Type)
	require.NotNil(t, rs.Schema.GetProperty("name"))
	require.NotNil(t, rs.Schema.GetProperty("age"))
	assert.True(t, rs.Schema.IsRequired("name"))
	assert.True(t, rs.Schema.IsRequired("age"))
}

func TestSynthesizeNilableFieldNotRequired(t *testing.T) {
	shape := types.NewObjectShape(
		types.Field{Name: "id", Shape: types.NewIntegerShape()},
		types.Field{Name: "nickname", Shape: types.NewNilableShape(types.NewStringShape())},
		types.Field{Name: "note", Shape: types.NewStringShape(), Optional: true},
	)

	rs, err := Synthesize(shape)
	require.NoError(t, err)

	assert.True(t, rs.Schema.IsRequired("id"))
	assert.False(t, rs.Schema.IsRequired("nickname"))
	assert.False(t, rs.Schema.IsRequired("note"))

	nick := rs.Schema.GetProperty("nickname")
	require.NotNil(t, nick)
	require.Len(t, nick.OneOf, 2)
	assert.Equal(t, types.SchemaTypeString, nick.OneOf[0].Type)
	assert.Equal(t, types.SchemaTypeNull, nick.OneOf[1].Type)
}

func TestSynthesizeEmptyObject(t *testing.T) {
	rs, err := Synthesize(types.NewObjectShape())
	require.NoError(t, err)

	assert.False(t, rs.Wrapped)
	assert.Equal(t, types.SchemaTypeObject, rs.Schema.Type)
	assert.NotNil(t, rs.Schema.Properties)
	assert.Empty(t, rs.Schema.Properties)
	assert.NotNil(t, rs.Schema.Required)
	assert.Empty(t, rs.Schema.Required)
}

func TestSynthesizeArrayRoot(t *testing.T) {
	rs, err := Synthesize(types.NewArrayShape(types.NewStringShape()))
	require.NoError(t, err)

	assert.True(t, rs.Wrapped)
	inner := rs.Schema.GetProperty(ResultKey)
	require.NotNil(t, inner)
	assert.Equal(t, types.SchemaTypeArray, inner.Type)
	require.NotNil(t, inner.Items)
	assert.Equal(t, types.SchemaTypeString, inner.Items.Type)
}

func TestSynthesizeNestedArrays(t *testing.T) {
	shape := types.NewArrayShape(types.NewArrayShape(types.NewNumberShape()))
	rs, err := Synthesize(shape)
	require.NoError(t, err)

	inner := rs.Schema.GetProperty(ResultKey)
	require.NotNil(t, inner)
	assert.Equal(t, types.SchemaTypeArray, inner.Type)
	assert.Equal(t, types.SchemaTypeArray, inner.Items.Type)
	assert.Equal(t, types.SchemaTypeNumber, inner.Items.Items.Type)
}

func TestSynthesizeNilableScalarRootNotRequired(t *testing.T) {
	rs, err := Synthesize(types.NewNilableShape(types.NewIntegerShape()))
	require.NoError(t, err)

	assert.True(t, rs.Wrapped)
	assert.False(t, rs.Schema.IsRequired(ResultKey))

	inner := rs.Schema.GetProperty(ResultKey)
	require.NotNil(t, inner)
	require.Len(t, inner.OneOf, 2)
	assert.Equal(t, types.SchemaTypeInteger, inner.OneOf[0].Type)
	assert.Equal(t, types.SchemaTypeNull, inner.OneOf[1].Type)
}

func TestSynthesizeScalarUnion(t *testing.T) {
	rs, err := Synthesize(types.NewUnionShape(types.NewStringShape(), types.NewIntegerShape()))
	require.NoError(t, err)

	inner := rs.Schema.GetProperty(ResultKey)
	require.NotNil(t, inner)
	require.Len(t, inner.OneOf, 2)
	assert.Equal(t, types.SchemaTypeString, inner.OneOf[0].Type)
	assert.Equal(t, types.SchemaTypeInteger, inner.OneOf[1].Type)
}

func TestSynthesizeNilableObjectRoot(t *testing.T) {
	shape := types.NewNilableShape(types.NewObjectShape(
		types.Field{Name: "x", Shape: types.NewIntegerShape()},
	))

	rs, err := Synthesize(shape)
	require.NoError(t, err)

	// Union{Object, null} still counts as an object root: no wrapping, the
	// nilability surfaces as a top-level oneOf.
	assert.False(t, rs.Wrapped)
	require.Len(t, rs.Schema.OneOf, 2)
	assert.Equal(t, types.SchemaTypeObject, rs.Schema.OneOf[0].Type)
	assert.Equal(t, types.SchemaTypeNull, rs.Schema.OneOf[1].Type)
}

func TestSynthesizeMultiStructuredUnionUnsupported(t *testing.T) {
	shape := types.NewUnionShape(
		types.NewObjectShape(types.Field{Name: "a", Shape: types.NewStringShape()}),
		types.NewObjectShape(types.Field{Name: "b", Shape: types.NewStringShape()}),
	)

	_, err := Synthesize(shape)
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedShape, types.GetErrorCode(err))
}

func TestSynthesizeMixedUnionUnsupported(t *testing.T) {
	// A structured member alongside a non-null scalar is neither a simple
	// union nor a single structured shape; no schema is synthesized for it.
	shape := types.NewUnionShape(
		types.NewObjectShape(types.Field{Name: "a", Shape: types.NewStringShape()}),
		types.NewIntegerShape(),
	)

	_, err := Synthesize(shape)
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedShape, types.GetErrorCode(err))
}

func TestSynthesizeUnionOfArrayAndNull(t *testing.T) {
	rs, err := Synthesize(types.NewNilableShape(types.NewArrayShape(types.NewIntegerShape())))
	require.NoError(t, err)

	assert.True(t, rs.Wrapped)
	assert.False(t, rs.Schema.IsRequired(ResultKey))

	inner := rs.Schema.GetProperty(ResultKey)
	require.Len(t, inner.OneOf, 2)
	assert.Equal(t, types.SchemaTypeArray, inner.OneOf[0].Type)
	assert.Equal(t, types.SchemaTypeNull, inner.OneOf[1].Type)
}
