// Package matcher отбирает рецепты, подходящие под действие игрока.
// Сопоставление чистое: без побочных эффектов и случайности.
package matcher

import (
	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/world/block"
)

// Matches проверяет один рецепт против действия и уже прочитанного состояния цели
func Matches(r *recipe.Recipe, a interaction.Action, target block.State) bool {
	return r.Target.Matches(target) && r.Tool.Matches(a.Held) && r.AllowsFace(a.Face)
}

// FindMatches возвращает все подходящие рецепты в порядке recipes.
// Состояние цели читается из мира один раз на вызов.
func FindMatches(recipes []*recipe.Recipe, a interaction.Action) []*recipe.Recipe {
	if len(recipes) == 0 {
		return nil
	}

	target := a.Target()
	var out []*recipe.Recipe
	seen := make(map[*recipe.Recipe]struct{})

	for _, r := range recipes {
		if r == nil {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		if Matches(r, a, target) {
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
