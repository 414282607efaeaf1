package entity

import (
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/item"
)

// GameMode определяет права игрока на изменение мира
type GameMode uint8

const (
	ModeSurvival GameMode = iota
	ModeCreative
	ModeSpectator
)

// Player представляет игрока; реализует interaction.Actor
type Player struct {
	Entity
	name string
	Mode GameMode
	Hand item.Stack // предмет в основной руке

	brokenItems int
}

// NewPlayer создаёт игрока в точке pos
func NewPlayer(id uint64, name string, pos vec.Vec3Float) *Player {
	return &Player{
		Entity: *NewEntity(id, EntityTypePlayer, pos),
		name:   name,
	}
}

// ID возвращает идентификатор игрока
func (p *Player) ID() uint64 {
	return p.Entity.ID
}

// Name возвращает имя игрока
func (p *Player) Name() string {
	return p.name
}

// CanBuild сообщает, может ли игрок менять блоки
func (p *Player) CanBuild() bool {
	return p.Mode != ModeSpectator
}

// UsesDurability сообщает, тратится ли прочность инструментов
func (p *Player) UsesDurability() bool {
	return p.Mode == ModeSurvival
}

// OnItemBroken учитывает сломанный инструмент
func (p *Player) OnItemBroken(stack item.Stack) {
	p.brokenItems++
}

// BrokenItems возвращает число сломанных инструментов
func (p *Player) BrokenItems() int {
	return p.brokenItems
}
