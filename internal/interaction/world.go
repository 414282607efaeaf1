package interaction

import (
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
)

// World: минимальный доступ к миру, нужный для сопоставления рецептов
type World interface {
	// BlockAt возвращает состояние блока в позиции
	BlockAt(pos vec.Vec3) block.State
}

// AuthoritativeWorld: мир на авторитетной стороне: изменения состояния
type AuthoritativeWorld interface {
	World

	// SetBlockState заменяет состояние блока
	SetBlockState(pos vec.Vec3, state block.State)

	// SpawnItem создаёт сущность-предмет в точке
	SpawnItem(stack item.Stack, at vec.Vec3Float)

	// DamageItem расходует прочность предмета в руке;
	// actor отвечает за последствия (поломка, статистика)
	DamageItem(held *item.Stack, amount int, actor Actor)
}

// Particle: запрос на отображение частицы
type Particle struct {
	Type  string
	Pos   vec.Vec3Float
	Vel   vec.Vec3Float
	Param int // числовой ID предмета-параметра, 0 если нет
}

// PresentationWorld: мир на стороне отображения: только косметика
type PresentationWorld interface {
	World

	SpawnParticle(p Particle)
}

// PermissionChecker решает, может ли актор изменять блок этим предметом
type PermissionChecker interface {
	CanEdit(actor Actor, pos vec.Vec3, face vec.Face, held *item.Stack) bool
}

// PermissionFunc адаптирует функцию к PermissionChecker
type PermissionFunc func(actor Actor, pos vec.Vec3, face vec.Face, held *item.Stack) bool

func (f PermissionFunc) CanEdit(actor Actor, pos vec.Vec3, face vec.Face, held *item.Stack) bool {
	return f(actor, pos, face, held)
}

// AllowAll разрешает любое действие
var AllowAll = PermissionFunc(func(Actor, vec.Vec3, vec.Face, *item.Stack) bool { return true })

// AllOf разрешает действие, только если его разрешают все проверки по порядку
func AllOf(checkers ...PermissionChecker) PermissionChecker {
	return PermissionFunc(func(actor Actor, pos vec.Vec3, face vec.Face, held *item.Stack) bool {
		for _, c := range checkers {
			if c != nil && !c.CanEdit(actor, pos, face, held) {
				return false
			}
		}
		return true
	})
}
