package asana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	fields := indexFields([]CustomField{
		{GID: "num", NumberValue: num(7)},
		{GID: "num-empty"},
		{GID: "multi", MultiEnumValues: []EnumOption{{Name: "A"}, {Name: ""}, {Name: "B"}}},
		{GID: "multi-empty"},
		{GID: "enum", EnumValue: &EnumOption{Name: "Gold"}},
		{GID: "enum-empty"},
		{GID: "text", TextValue: str("hello")},
		{GID: "text-empty"},
	})

	t.Run("number", func(t *testing.T) {
		v, ok := Extract(fields, FieldSpec{GID: "num", Kind: FieldNumber})
		require.True(t, ok)
		assert.Equal(t, 7, v.Int())
	})

	t.Run("number without value", func(t *testing.T) {
		v, ok := Extract(fields, FieldSpec{GID: "num-empty", Kind: FieldNumber})
		assert.False(t, ok)
		assert.Zero(t, v.Int())
	})

	t.Run("multi enum skips blank labels", func(t *testing.T) {
		v, ok := Extract(fields, FieldSpec{GID: "multi", Kind: FieldMultiEnum})
		require.True(t, ok)
		assert.Equal(t, []string{"A", "B"}, v.Labels)
	})

	t.Run("multi enum without values", func(t *testing.T) {
		v, ok := Extract(fields, FieldSpec{GID: "multi-empty", Kind: FieldMultiEnum})
		require.True(t, ok)
		assert.Empty(t, v.Labels)
	})

	t.Run("enum yields option name", func(t *testing.T) {
		v, ok := Extract(fields, FieldSpec{GID: "enum", Kind: FieldEnum})
		require.True(t, ok)
		assert.Equal(t, "Gold", *v.Text)
	})

	t.Run("enum without value", func(t *testing.T) {
		_, ok := Extract(fields, FieldSpec{GID: "enum-empty", Kind: FieldEnum})
		assert.False(t, ok)
	})

	t.Run("text", func(t *testing.T) {
		v, ok := Extract(fields, FieldSpec{GID: "text", Kind: FieldText})
		require.True(t, ok)
		assert.Equal(t, "hello", *v.Text)
	})

	t.Run("text without value", func(t *testing.T) {
		_, ok := Extract(fields, FieldSpec{GID: "text-empty", Kind: FieldText})
		assert.False(t, ok)
	})

	t.Run("missing field", func(t *testing.T) {
		_, ok := Extract(fields, FieldSpec{GID: "nope", Kind: FieldText})
		assert.False(t, ok)
	})

	t.Run("unconfigured gid", func(t *testing.T) {
		_, ok := Extract(fields, FieldSpec{Kind: FieldNumber})
		assert.False(t, ok)
	})
}

func TestFieldKind_String(t *testing.T) {
	assert.Equal(t, "text", FieldText.String())
	assert.Equal(t, "number", FieldNumber.String())
	assert.Equal(t, "enum", FieldEnum.String())
	assert.Equal(t, "multi_enum", FieldMultiEnum.String())
	assert.Equal(t, "unknown", FieldKind(99).String())
}

func TestNewFieldMapping(t *testing.T) {
	m := NewFieldMapping("r", "s", "h", "c")
	assert.Equal(t, FieldSpec{GID: "r", Kind: FieldNumber}, m.Researchers)
	assert.Equal(t, FieldSpec{GID: "s", Kind: FieldNumber}, m.Students)
	assert.Equal(t, FieldSpec{GID: "h", Kind: FieldMultiEnum}, m.HardwareTypes)
	assert.Equal(t, FieldSpec{GID: "c", Kind: FieldText}, m.PointOfContact)
}
