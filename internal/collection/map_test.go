package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[uint64, string]()
	m.Put(1, "tools/list")
	m.Put(2, "tools/call")

	value, ok := m.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "tools/list", value)

	value, ok = m.Take(2)
	assert.True(t, ok)
	assert.Equal(t, "tools/call", value)
	_, ok = m.Take(2)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}
