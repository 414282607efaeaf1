package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStack(t *testing.T) {
	s, err := ParseStack("minecraft:stick", 2)
	require.NoError(t, err)
	assert.Equal(t, Stack{ID: StickItemID, Count: 2}, s)

	s, err = ParseStack("bone_meal:15", 1)
	require.NoError(t, err)
	assert.Equal(t, BoneMealItemID, s.ID)
	assert.Equal(t, 15, s.Meta)

	_, err = ParseStack("diamond", 1)
	assert.Error(t, err)
}

func TestStackRemaining(t *testing.T) {
	shovel := Stack{ID: WoodenShovelItemID, Count: 1, Damage: 9}
	assert.Equal(t, 50, shovel.Remaining())

	stick := NewStack(StickItemID, 3)
	assert.Equal(t, -1, stick.Remaining(), "палка не расходует прочность")

	var empty *Stack
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 0, empty.Remaining())
}
