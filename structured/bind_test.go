package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedflow/typedflow/types"
)

type review struct {
	Author  string   `json:"author"`
	Stars   int      `json:"stars"`
	Comment *string  `json:"comment"`
	Tags    []string `json:"tags,omitempty"`
	hidden  bool
	Skipped string   `json:"-"`
}

type node struct {
	Next *node `json:"next"`
}

func TestShapeForStruct(t *testing.T) {
	shape, err := ShapeFor[review]()
	require.NoError(t, err)

	assert.Equal(t, types.KindObject, shape.Kind)
	assert.Equal(t, "review", shape.Name)
	require.Len(t, shape.Fields, 4)

	assert.Equal(t, "author", shape.Fields[0].Name)
	assert.Equal(t, types.KindString, shape.Fields[0].Shape.Kind)
	assert.False(t, shape.Fields[0].Optional)

	assert.Equal(t, "stars", shape.Fields[1].Name)
	assert.Equal(t, types.KindInteger, shape.Fields[1].Shape.Kind)

	assert.Equal(t, "comment", shape.Fields[2].Name)
	assert.True(t, IsNilable(shape.Fields[2].Shape))

	assert.Equal(t, "tags", shape.Fields[3].Name)
	assert.Equal(t, types.KindArray, shape.Fields[3].Shape.Kind)
	assert.True(t, shape.Fields[3].Optional)
}

func TestShapeForScalars(t *testing.T) {
	for name, tt := range map[string]struct {
		got  func() (types.Shape, error)
		want types.ShapeKind
	}{
		"string":  {func() (types.Shape, error) { return ShapeFor[string]() }, types.KindString},
		"int":     {func() (types.Shape, error) { return ShapeFor[int]() }, types.KindInteger},
		"uint8":   {func() (types.Shape, error) { return ShapeFor[uint8]() }, types.KindInteger},
		"float64": {func() (types.Shape, error) { return ShapeFor[float64]() }, types.KindNumber},
		"bool":    {func() (types.Shape, error) { return ShapeFor[bool]() }, types.KindBoolean},
	} {
		t.Run(name, func(t *testing.T) {
			shape, err := tt.got()
			require.NoError(t, err)
			assert.Equal(t, tt.want, shape.Kind)
		})
	}
}

func TestShapeForPointerIsNilable(t *testing.T) {
	shape, err := ShapeFor[*int]()
	require.NoError(t, err)
	assert.True(t, IsNilable(shape))
	members := nonNullMembers(shape)
	require.Len(t, members, 1)
	assert.Equal(t, types.KindInteger, members[0].Kind)
}

func TestShapeForSlice(t *testing.T) {
	shape, err := ShapeFor[[]review]()
	require.NoError(t, err)
	assert.Equal(t, types.KindArray, shape.Kind)
	assert.Equal(t, types.KindObject, shape.Element.Kind)
}

func TestShapeForRecursiveTypeRejected(t *testing.T) {
	_, err := ShapeFor[node]()
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedShape, types.GetErrorCode(err))
}

func TestShapeForUnsupportedKinds(t *testing.T) {
	_, err := ShapeFor[map[string]int]()
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedShape, types.GetErrorCode(err))

	_, err = ShapeFor[func()]()
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedShape, types.GetErrorCode(err))
}

func TestBoundShapeSynthesizes(t *testing.T) {
	shape, err := ShapeFor[review]()
	require.NoError(t, err)

	rs, err := Synthesize(shape)
	require.NoError(t, err)
	assert.False(t, rs.Wrapped)
	assert.True(t, rs.Schema.IsRequired("author"))
	assert.False(t, rs.Schema.IsRequired("comment"))
	assert.False(t, rs.Schema.IsRequired("tags"))
}
