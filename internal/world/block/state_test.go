package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_NormalizesNames(t *testing.T) {
	id, ok := Lookup("minecraft:Grass")
	assert.True(t, ok, "grass должен быть зарегистрирован")
	assert.Equal(t, GrassBlockID, id)

	_, ok = Lookup("obsidian")
	assert.False(t, ok)
	assert.Equal(t, "path", PathBlockID.Name())
	assert.Equal(t, "unknown", BlockID(9999).Name())
}

func TestStateMatches(t *testing.T) {
	s := NewState(LogBlockID).With("axis", "y")

	assert.True(t, s.Matches(LogBlockID, nil), "пустой набор свойств совпадает с любым состоянием")
	assert.True(t, s.Matches(LogBlockID, map[string]string{"axis": "y"}))
	assert.False(t, s.Matches(LogBlockID, map[string]string{"axis": "x"}))
	assert.False(t, s.Matches(StrippedLogBlockID, nil))
}

func TestStateClone(t *testing.T) {
	original := NewState(FarmlandBlockID).With("moisture", "3")
	clone := original.Clone()
	clone.Properties["moisture"] = "7"

	assert.Equal(t, "3", original.Properties["moisture"], "изменение клона не должно влиять на оригинал")
	assert.False(t, original.Equal(clone))
	assert.Equal(t, "farmland[moisture=3]", original.String())
}

func TestDefinitionAllowsProperty(t *testing.T) {
	def, ok := Get(LogBlockID)
	assert.True(t, ok)
	assert.True(t, def.AllowsProperty("axis", "z"))
	assert.False(t, def.AllowsProperty("axis", "w"))
	assert.False(t, def.AllowsProperty("color", "red"))
}
