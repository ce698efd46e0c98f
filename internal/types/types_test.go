package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockTable_AppendKeepsOrder(t *testing.T) {
	table := NewBlockTable()
	table.Append("X310", Record{"a"})
	table.Append("X300", Record{"b"})
	table.Append("X310", Record{"c", "d"})

	assert.Equal(t, []BlockCode{"X310", "X300"}, table.Codes())
	assert.Equal(t, []Record{{"a"}, {"c", "d"}}, table.Rows("X310"))
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 3, table.RowCount())
	assert.Equal(t, 2, table.ColumnCount("X310"))
	assert.Equal(t, 0, table.ColumnCount("X999"))
	assert.Nil(t, table.Rows("X999"))
}

func TestBlockTable_CodesIsACopy(t *testing.T) {
	table := NewBlockTable()
	table.Append("X200", Record{})

	codes := table.Codes()
	codes[0] = "mutated"

	assert.Equal(t, []BlockCode{"X200"}, table.Codes())
}

func TestBlockCode_ParentChild(t *testing.T) {
	assert.True(t, BlockCode("X300").IsParent())
	assert.True(t, BlockCode("X320").IsParent())
	assert.True(t, BlockCode("X310").IsChild())
	assert.True(t, BlockCode("X330").IsChild())
	assert.False(t, BlockCode("X200").IsParent())
	assert.False(t, BlockCode("X200").IsChild())
	assert.False(t, BlockCode("X310").IsParent())
}
