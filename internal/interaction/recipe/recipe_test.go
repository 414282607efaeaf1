package recipe

import (
	"errors"
	"testing"

	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
	"github.com/stretchr/testify/assert"
)

func TestPolicyAllows(t *testing.T) {
	assert.True(t, PolicyAlways.Allows(true))
	assert.True(t, PolicyAlways.Allows(false))
	assert.True(t, PolicyOnSuccess.Allows(true))
	assert.False(t, PolicyOnSuccess.Allows(false))
	assert.False(t, PolicyOnFailure.Allows(true))
	assert.True(t, PolicyOnFailure.Allows(false))
}

func TestParseZone(t *testing.T) {
	z, err := ParseZone("inside")
	assert.NoError(t, err)
	assert.Equal(t, ZoneInside, z)

	z, err = ParseZone("OUT")
	assert.NoError(t, err)
	assert.Equal(t, ZoneOutside, z)

	_, err = ParseZone("around")
	assert.True(t, errors.Is(err, ErrUnknownZone))
	assert.False(t, Zone(0).Valid(), "нулевое значение зоны не должно считаться валидным")
}

func TestToolMatch(t *testing.T) {
	shovel := item.NewStack(item.WoodenShovelItemID, 1)
	meta := 15
	boneMeal := item.Stack{ID: item.BoneMealItemID, Count: 3, Meta: 15}
	otherDye := item.Stack{ID: item.BoneMealItemID, Count: 3, Meta: 4}

	assert.True(t, ToolMatch{Item: item.WoodenShovelItemID}.Matches(&shovel))
	assert.False(t, ToolMatch{Item: item.WoodenHoeItemID}.Matches(&shovel))
	assert.False(t, ToolMatch{Item: item.WoodenShovelItemID}.Matches(nil))

	assert.True(t, ToolMatch{Item: item.BoneMealItemID, Meta: &meta}.Matches(&boneMeal))
	assert.False(t, ToolMatch{Item: item.BoneMealItemID, Meta: &meta}.Matches(&otherDye))

	hand := ToolMatch{Item: item.AirItemID}
	assert.True(t, hand.Matches(nil), "пустая рука совпадает с рецептом без инструмента")
	assert.False(t, hand.Matches(&shovel))
}

func TestRecipeEligibility(t *testing.T) {
	r := &Recipe{
		ID:     "r",
		Target: TargetMatch{Block: block.GrassBlockID},
		Drop:   &Drop{Stack: item.NewStack(item.StickItemID, 1), Chance: 100, Requires: PolicyOnSuccess},
		Damage: &Damage{Amount: 1, Chance: 100, Requires: PolicyOnFailure},
	}

	assert.False(t, r.ChangesTargetBlock())
	assert.True(t, r.DropsItem(true))
	assert.False(t, r.DropsItem(false))
	assert.False(t, r.DamagesHeldItem(true))
	assert.True(t, r.DamagesHeldItem(false))
	assert.False(t, r.SpawnsParticles())

	empty := &Recipe{ID: "empty", Target: TargetMatch{Block: block.GrassBlockID}}
	assert.False(t, empty.DropsItem(true), "нет блока drop: нет дропа")
	assert.False(t, empty.DamagesHeldItem(false), "нет блока damage: нет урона")
}

func TestAllowsFace(t *testing.T) {
	anyFace := &Recipe{}
	assert.True(t, anyFace.AllowsFace(vec.FaceNorth))

	up := &Recipe{Faces: []vec.Face{vec.FaceUp}}
	assert.True(t, up.AllowsFace(vec.FaceUp))
	assert.False(t, up.AllowsFace(vec.FaceDown))
}

func TestValidate(t *testing.T) {
	valid := func() *Recipe {
		return &Recipe{
			ID:        "ok",
			Target:    TargetMatch{Block: block.GrassBlockID},
			Tool:      ToolMatch{Item: item.WoodenShovelItemID},
			Change:    &BlockChange{State: block.NewState(block.PathBlockID), Chance: 100},
			Particles: &Particles{Type: "crit", Min: 0, Max: 2, Zone: ZoneInside},
		}
	}
	assert.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(r *Recipe)
		want   error
	}{
		{"missing id", func(r *Recipe) { r.ID = "" }, ErrMissingID},
		{"chance over 100", func(r *Recipe) { r.Change.Chance = 101 }, ErrInvalidChance},
		{"negative chance", func(r *Recipe) { r.Change.Chance = -1 }, ErrInvalidChance},
		{"unknown zone", func(r *Recipe) { r.Particles.Zone = 0 }, ErrUnknownZone},
		{"inverted range", func(r *Recipe) { r.Particles.Min = 3; r.Particles.Max = 1 }, ErrInvalidRange},
		{"bad property", func(r *Recipe) { r.Target.Properties = map[string]string{"axis": "y"} }, ErrBadProperty},
		{"unknown block", func(r *Recipe) { r.Change.State.ID = 4242 }, ErrUnknownBlock},
		{"empty drop", func(r *Recipe) {
			r.Drop = &Drop{Stack: item.NewStack(item.StickItemID, 0), Chance: 100}
		}, ErrInvalidCount},
		{"zero damage", func(r *Recipe) { r.Damage = &Damage{Amount: 0, Chance: 100} }, ErrInvalidCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid()
			tc.mutate(r)
			err := r.Validate()
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
