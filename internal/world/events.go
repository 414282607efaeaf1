package world

import (
	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
)

// EventType определяет тип события мира
type EventType uint8

const (
	EventTypeBlockChange EventType = iota // Изменение блока
	EventTypeItemSpawn                    // Появление предмета
	EventTypeItemDamage                   // Износ предмета в руке
	EventTypeItemBreak                    // Поломка предмета
	EventTypeParticle                     // Частица (только сторона отображения)
)

func (t EventType) String() string {
	switch t {
	case EventTypeBlockChange:
		return "block_change"
	case EventTypeItemSpawn:
		return "item_spawn"
	case EventTypeItemDamage:
		return "item_damage"
	case EventTypeItemBreak:
		return "item_break"
	case EventTypeParticle:
		return "particle"
	default:
		return "unknown"
	}
}

// Event описывает одно изменение мира
type Event struct {
	Type     EventType
	Position vec.Vec3      // Блок, к которому относится событие
	At       vec.Vec3Float // Точка для предметов и частиц
	Previous block.State   // Для EventTypeBlockChange
	Block    block.State   // Для EventTypeBlockChange
	EntityID uint64        // Сущность-предмет для EventTypeItemSpawn
	Stack    item.Stack    // Предмет события
	ActorID  uint64        // Ответственный актор
	Amount   int           // Величина износа
	Particle *interaction.Particle
}

// Listener получает события мира (сеть, журнал, тесты)
type Listener interface {
	OnWorldEvent(ev Event)
}

// ListenerFunc адаптирует функцию к Listener
type ListenerFunc func(ev Event)

func (f ListenerFunc) OnWorldEvent(ev Event) { f(ev) }
