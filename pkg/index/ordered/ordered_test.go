package ordered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_InsertEraseFind(t *testing.T) {
	m := New()

	// Insert {2,4,6,8}, erase ordinals 0 and 2 (keys 2 and 6).
	for _, k := range []uint64{2, 4, 6, 8} {
		m.InsertOrAssign(k, k*10)
	}
	require.Equal(t, 4, m.Len())

	m.Erase(2)
	m.Erase(6)

	_, found := m.Find(2)
	assert.False(t, found)
	_, found = m.Find(6)
	assert.False(t, found)

	v, found := m.Find(4)
	assert.True(t, found)
	assert.Equal(t, uint64(40), v)
	v, found = m.Find(8)
	assert.True(t, found)
	assert.Equal(t, uint64(80), v)

	assert.Equal(t, 2, m.Len())
}

func TestMap_EraseAbsentIsNoOp(t *testing.T) {
	m := New()
	m.InsertOrAssign(1, 1)

	m.Erase(999)
	assert.Equal(t, 1, m.Len())

	m.Erase(999)
	assert.Equal(t, 1, m.Len())
}

func TestMap_InsertOrAssignUpdatesInPlace(t *testing.T) {
	m := New()

	m.InsertOrAssign(7, 1)
	m.InsertOrAssign(7, 2)

	assert.Equal(t, 1, m.Len())
	v, found := m.Find(7)
	require.True(t, found)
	assert.Equal(t, uint64(2), v)
}

func TestMap_SizeGrowsWithContent(t *testing.T) {
	m := New()
	assert.Zero(t, m.IndexSizeInBytes())

	for i := uint64(0); i < 1000; i++ {
		m.InsertOrAssign(i, i)
	}
	assert.Equal(t, 1000, m.Len())
	assert.Greater(t, m.IndexSizeInBytes(), 0)
}
