package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreAbsentKey(t *testing.T) {
	m := NewMemStore()
	value, err := m.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestMemStoreCopiesValues(t *testing.T) {
	m := NewMemStore()
	original := []byte("payload")
	require.NoError(t, m.Put("k", original))

	// Mutating the slice handed in must not affect the stored value.
	original[0] = 'X'
	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// Mutating the slice handed out must not affect subsequent reads.
	got[0] = 'Y'
	again, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)
}

func TestMemStoreDelete(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Put("k", []byte("v")))
	require.NoError(t, m.Delete("k"))
	value, err := m.Get("k")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, m.Delete("never-existed"))
}

func TestMemStoreListOrder(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.Put("Batch~b", []byte("2")))
	require.NoError(t, m.Put("Batch~a", []byte("1")))
	require.NoError(t, m.Put("Batch~c", []byte("3")))
	require.NoError(t, m.Put("Other~x", []byte("9")))

	kvs, err := m.List("Batch~")
	require.NoError(t, err)
	require.Len(t, kvs, 3)
	assert.Equal(t, "Batch~a", kvs[0].Key)
	assert.Equal(t, "Batch~b", kvs[1].Key)
	assert.Equal(t, "Batch~c", kvs[2].Key)
}
