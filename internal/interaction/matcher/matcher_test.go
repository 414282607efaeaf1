package matcher

import (
	"testing"

	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
	"github.com/stretchr/testify/assert"
)

func newAction(wm *world.WorldManager, held *item.Stack, face vec.Face) interaction.Action {
	return interaction.Action{
		World: wm,
		Pos:   vec.Vec3{X: 1, Y: 2, Z: 3},
		Face:  face,
		Held:  held,
	}
}

func TestFindMatches_OrderAndCriteria(t *testing.T) {
	wm := world.NewWorldManager(nil)
	wm.SetBlockState(vec.Vec3{X: 1, Y: 2, Z: 3}, block.NewState(block.GrassBlockID).With("snowy", "false"))

	shovel := item.NewStack(item.WoodenShovelItemID, 1)

	path := &recipe.Recipe{ID: "path", Target: recipe.TargetMatch{Block: block.GrassBlockID},
		Tool: recipe.ToolMatch{Item: item.WoodenShovelItemID}, Faces: []vec.Face{vec.FaceUp}}
	anyFace := &recipe.Recipe{ID: "dust", Target: recipe.TargetMatch{Block: block.GrassBlockID},
		Tool: recipe.ToolMatch{Item: item.WoodenShovelItemID}}
	snowy := &recipe.Recipe{ID: "snowy", Target: recipe.TargetMatch{Block: block.GrassBlockID,
		Properties: map[string]string{"snowy": "true"}}, Tool: recipe.ToolMatch{Item: item.WoodenShovelItemID}}
	hoe := &recipe.Recipe{ID: "hoe", Target: recipe.TargetMatch{Block: block.GrassBlockID},
		Tool: recipe.ToolMatch{Item: item.WoodenHoeItemID}}
	dirt := &recipe.Recipe{ID: "dirt", Target: recipe.TargetMatch{Block: block.DirtBlockID},
		Tool: recipe.ToolMatch{Item: item.WoodenShovelItemID}}

	recipes := []*recipe.Recipe{anyFace, snowy, hoe, path, dirt}

	got := FindMatches(recipes, newAction(wm, &shovel, vec.FaceUp))
	assert.Equal(t, []*recipe.Recipe{anyFace, path}, got, "порядок вставки сохраняется")

	got = FindMatches(recipes, newAction(wm, &shovel, vec.FaceNorth))
	assert.Equal(t, []*recipe.Recipe{anyFace}, got, "ограничение по грани")

	got = FindMatches(recipes, newAction(wm, nil, vec.FaceUp))
	assert.Empty(t, got, "пустая рука не подходит под рецепты с инструментом")
}

func TestFindMatches_NoDuplicates(t *testing.T) {
	wm := world.NewWorldManager(nil)
	wm.SetBlockState(vec.Vec3{X: 1, Y: 2, Z: 3}, block.NewState(block.GravelBlockID))

	sift := &recipe.Recipe{ID: "sift", Target: recipe.TargetMatch{Block: block.GravelBlockID}}

	got := FindMatches([]*recipe.Recipe{sift, nil, sift}, newAction(wm, nil, vec.FaceUp))
	assert.Equal(t, []*recipe.Recipe{sift}, got)
}

func TestFindMatches_Empty(t *testing.T) {
	assert.Nil(t, FindMatches(nil, interaction.Action{}))
}
