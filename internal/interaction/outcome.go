package interaction

import (
	"time"

	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
)

// Outcome: итог применения одного рецепта на авторитетной стороне
type Outcome struct {
	RecipeID     string        `json:"recipe_id"`
	ActorID      uint64        `json:"actor_id"`
	Pos          vec.Vec3      `json:"pos"`
	BlockChanged bool          `json:"block_changed"`
	NewState     *block.State  `json:"new_state,omitempty"`
	Drop         *item.Stack   `json:"drop,omitempty"`
	DropAt       vec.Vec3Float `json:"drop_at"`
	Damage       int           `json:"damage,omitempty"` // решение рецепта; мир может не списать прочность (креатив)
	At           time.Time     `json:"at"`
}

// Applied сообщает, изменил ли рецепт хоть что-то в мире
func (o Outcome) Applied() bool {
	return o.BlockChanged || o.Drop != nil || o.Damage > 0
}
