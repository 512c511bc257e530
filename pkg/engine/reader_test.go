package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisegni/rowtree/pkg/shape"
)

func TestTakeResultContract(t *testing.T) {
	x, err := NewExtractor(mustAggregate(t, customerShape))
	require.NoError(t, err)

	c := NewCursor(customerRows().iterator())
	a := newArena(x, c, nil)

	root, ok := a.readerFor("")
	require.True(t, ok)
	entry, ok := a.readerFor("orders[]")
	require.True(t, ok)

	assert.Equal(t, Empty, root.State())
	_, err = root.TakeResult()
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = c.Advance()
	require.NoError(t, err)
	require.NoError(t, a.consumeRow(c))

	assert.Equal(t, Accumulating, root.State())
	assert.False(t, root.HasCompletedResult())
	_, err = root.TakeResult()
	assert.ErrorIs(t, err, ErrNoResult)

	// the first order ends on the first row
	assert.Equal(t, Ready, entry.State())
	v, err := entry.TakeResult()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.(Entry).Key)
	assert.Equal(t, Empty, entry.State())

	_, err = entry.TakeResult()
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestConsumeBeforeTakeFails(t *testing.T) {
	x, err := NewExtractor(mustAggregate(t, customerShape))
	require.NoError(t, err)

	c := NewCursor(customerRows().iterator())
	a := newArena(x, c, nil)

	_, err = c.Advance()
	require.NoError(t, err)
	require.NoError(t, a.consumeRow(c))

	// skipping deliver leaves the first order waiting
	_, err = c.Advance()
	require.NoError(t, err)
	assert.Error(t, a.consumeRow(c))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Empty", Empty.String())
	assert.Equal(t, "Accumulating", Accumulating.String())
	assert.Equal(t, "Ready", Ready.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestSameIdentity(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{"equal ints", int64(1), int64(1), true},
		{"int and int64", 1, int64(1), true},
		{"int and float", int64(3), 3.0, true},
		{"json number", json.Number("42"), int32(42), true},
		{"decimal scale", decimal.RequireFromString("1.50"), 1.5, true},
		{"different numbers", 1, 2, false},
		{"string and number", "1", 1, false},
		{"strings", "a", "a", true},
		{"bytes by content", []byte("ab"), []byte("ab"), true},
		{"times by instant", now, now.In(time.FixedZone("x", 3600)), true},
		{"nil never equal", nil, nil, false},
		{"nil and value", nil, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameIdentity(tt.a, tt.b))
		})
	}
}

func TestContainers(t *testing.T) {
	list := newContainer(shape.List)
	require.NoError(t, list.add(Entry{Key: int64(1), Value: "b"}, nil))
	require.NoError(t, list.add(Entry{Key: int64(0), Value: "a"}, nil))
	assert.Equal(t, []interface{}{"a", "b"}, list.value())
	assert.Error(t, list.add("bare", nil))
	assert.ErrorIs(t, list.add(Entry{Key: int64(-2)}, nil), ErrNegativeIndex)
	assert.ErrorIs(t, list.add(Entry{Key: MaxListIndex + 1}, nil), ErrIndexTooLarge)
	assert.Equal(t, 2, list.len(), "a rejected index leaves the list alone")

	m := newContainer(shape.Map)
	require.NoError(t, m.add(Entry{Key: decimal.RequireFromString("2.0"), Value: "x"}, nil))
	assert.Equal(t, map[interface{}]interface{}{"2": "x"}, m.value())

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	byTime := newContainer(shape.Map)
	require.NoError(t, byTime.add(Entry{Key: at, Value: "utc"}, nil))
	require.NoError(t, byTime.add(Entry{Key: at.In(time.FixedZone("x", 7200)), Value: "zoned"}, nil))
	assert.Equal(t, map[interface{}]interface{}{at: "zoned"}, byTime.value(), "one instant is one key")

	odd := newContainer(shape.Map)
	assert.NotPanics(t, func() {
		require.NoError(t, odd.add(Entry{Key: []interface{}{1}, Value: "a"}, nil))
		require.NoError(t, odd.add(Entry{Key: []interface{}{1}, Value: "b"}, nil))
	})
	assert.Equal(t, 1, odd.len())

	set := newContainer(shape.Set)
	require.NoError(t, set.add("a", "a"))
	require.NoError(t, set.add("a", "a"))
	require.NoError(t, set.add(nil, nil))
	require.NoError(t, set.add(nil, nil))
	assert.Equal(t, []interface{}{"a", nil, nil}, set.value())
}
