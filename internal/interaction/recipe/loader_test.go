package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pathRecipeYAML = `
recipes:
  - id: grass_path
    target: { block: grass }
    tool: { item: wooden_shovel }
    faces: [up]
    change: { block: path, chance: 100 }
    drop: { item: stick, count: 1 }
    particles: { type: blockdust, param: dirt, min: 0, max: 0, zone: in }
`

func TestParse_ValidRecipe(t *testing.T) {
	recipes, problems, err := Parse("tools.yaml", []byte(pathRecipeYAML))
	require.NoError(t, err)
	require.Empty(t, problems)
	require.Len(t, recipes, 1)

	r := recipes[0]
	assert.Equal(t, "grass_path", r.ID)
	assert.Equal(t, "tools.yaml", r.Source)
	assert.Equal(t, block.GrassBlockID, r.Target.Block)
	assert.Equal(t, item.WoodenShovelItemID, r.Tool.Item)
	assert.Equal(t, []vec.Face{vec.FaceUp}, r.Faces)

	require.NotNil(t, r.Change)
	assert.Equal(t, block.PathBlockID, r.Change.State.ID)

	require.NotNil(t, r.Drop)
	assert.Equal(t, item.NewStack(item.StickItemID, 1), r.Drop.Stack)
	assert.Equal(t, DefaultChance, r.Drop.Chance, "chance по умолчанию: 100")
	assert.Equal(t, PolicyAlways, r.Drop.Requires)

	assert.Nil(t, r.Damage, "блок damage не задан")

	require.NotNil(t, r.Particles)
	assert.Equal(t, ZoneInside, r.Particles.Zone)
	assert.Equal(t, item.DirtItemID, r.Particles.Param)
}

func TestParse_SkipsMalformedRecipes(t *testing.T) {
	data := `
recipes:
  - id: good
    target: { block: dirt }
    change: { block: farmland }
  - id: bad_zone
    target: { block: dirt }
    particles: { type: crit, zone: around }
  - id: bad_block
    target: { block: obsidian }
  - id: bad_chance
    target: { block: dirt }
    drop: { item: stick, chance: 150 }
  - id: bad_field
    target: { block: dirt }
    explode: true
  - id: good_too
    target: { block: gravel }
    drop: { item: flint, requires: failure }
`
	recipes, problems, err := Parse("mixed.yaml", []byte(data))
	require.NoError(t, err)

	ids := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"good", "good_too"}, ids, "порядок валидных рецептов сохраняется")

	require.Len(t, problems, 4)
	assert.Equal(t, "bad_zone", problems[0].ID)
	assert.Equal(t, 1, problems[0].Index)
	assert.ErrorIs(t, problems[0], ErrSchemaMismatch)
	assert.ErrorIs(t, problems[1], ErrUnknownBlock)
	assert.ErrorIs(t, problems[2], ErrSchemaMismatch)
	assert.ErrorIs(t, problems[3], ErrSchemaMismatch)
}

func TestParse_BrokenDocument(t *testing.T) {
	_, _, err := Parse("broken.yaml", []byte("recipes: [unclosed"))
	assert.Error(t, err)
}

func TestLoadDir_OrderAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b.yaml", `
recipes:
  - id: second
    target: { block: stone }
  - id: first
    target: { block: sand }
`)
	write("a.yml", `
recipes:
  - id: first
    target: { block: dirt }
`)
	write("notes.txt", "не рецепт")
	write("c.yaml", "recipes: [")

	res, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, res.Recipes, 2)
	assert.Equal(t, "first", res.Recipes[0].ID)
	assert.Equal(t, block.DirtBlockID, res.Recipes[0].Target.Block, "побеждает первое определение")
	assert.Equal(t, "second", res.Recipes[1].ID)

	require.Len(t, res.Problems, 2)
	assert.ErrorIs(t, res.Problems[0], ErrDuplicateID)
	assert.Equal(t, 1, res.Problems[0].Index)
	assert.Equal(t, "c.yaml", res.Problems[1].File)
	assert.Equal(t, -1, res.Problems[1].Index)
}

func TestLoadDir_MissingDir(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestShippedRecipesAreValid(t *testing.T) {
	res, err := LoadDir(filepath.Join("..", "..", "..", "assets", "recipes"))
	require.NoError(t, err)
	assert.Empty(t, res.Problems)
	assert.Len(t, res.Recipes, 5)
}
