package plateau

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/plateau/internal/sweep"
)

func TestNewSessionClassifiesDataset(t *testing.T) {
	ds := &sweep.Dataset{ID: "test:1", Source: "fixture", Records: gridRecords()}

	sess, err := NewSession(ds, 0)
	require.NoError(t, err)
	assert.Equal(t, "test:1", sess.DatasetID)
	assert.Equal(t, []string{gridStrategy}, sess.Class.Keys)
	assert.NotNil(t, sess.Index)
}

func TestNewSessionEnforcesRecordLimit(t *testing.T) {
	ds := &sweep.Dataset{ID: "test:big", Records: gridRecords()}

	_, err := NewSession(ds, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestNewSessionNilDataset(t *testing.T) {
	_, err := NewSession(nil, 0)
	assert.Error(t, err)
}

func TestHolderSwapPublishesNewSession(t *testing.T) {
	first, err := NewSession(&sweep.Dataset{ID: "a", Records: gridRecords()}, 0)
	require.NoError(t, err)
	second, err := NewSession(&sweep.Dataset{ID: "b", Records: gridRecords()}, 0)
	require.NoError(t, err)

	holder := NewHolder(first)
	assert.Same(t, first, holder.Current())

	prev := holder.Swap(second)
	assert.Same(t, first, prev)
	assert.Same(t, second, holder.Current())
}

func TestHolderStartsEmpty(t *testing.T) {
	holder := NewHolder(nil)
	assert.Nil(t, holder.Current())
}
