// Package interaction описывает контракты движка рецептов взаимодействия:
// действие игрока (Action), сторону симуляции и интерфейсы мира,
// через которые применяются эффекты.
package interaction

import (
	"fmt"

	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
)

// Side определяет сторону, на которой обрабатывается действие
type Side uint8

const (
	// SideAuthoritative: сторона, чьи изменения мира каноничны (сервер)
	SideAuthoritative Side = iota
	// SidePresentation: локальная сторона с косметическими эффектами (клиент)
	SidePresentation
)

func (s Side) String() string {
	switch s {
	case SideAuthoritative:
		return "authoritative"
	case SidePresentation:
		return "presentation"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Actor: сущность, совершающая действие
type Actor interface {
	ID() uint64
	Name() string
}

// Action: контекст одного взаимодействия "предмет в руке по блоку".
// Создаётся на каждое событие и не сохраняется.
type Action struct {
	Actor Actor
	World World
	Side  Side
	Pos   vec.Vec3      // целевой блок
	Face  vec.Face      // грань, по которой кликнули
	Hit   vec.Vec3Float // точная точка попадания, сюда падает дроп
	Held  *item.Stack   // предмет в руке; nil: пустая рука
}

// Target возвращает текущее состояние целевого блока
func (a Action) Target() block.State {
	if a.World == nil {
		return block.NewState(block.AirBlockID)
	}
	return a.World.BlockAt(a.Pos)
}

// ActorID возвращает ID актора или 0
func (a Action) ActorID() uint64 {
	if a.Actor == nil {
		return 0
	}
	return a.Actor.ID()
}
