package entity

import (
	"time"

	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/item"
)

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeItem
)

// Entity представляет базовую сущность в мире
type Entity struct {
	ID         uint64        // Уникальный идентификатор сущности
	Type       EntityType    // Тип сущности
	PrecisePos vec.Vec3Float // Точная позиция
	Velocity   vec.Vec3Float // Текущая скорость
	Active     bool          // Активна ли сущность
}

// NewEntity создаёт новую сущность
func NewEntity(id uint64, entityType EntityType, pos vec.Vec3Float) *Entity {
	return &Entity{
		ID:         id,
		Type:       entityType,
		PrecisePos: pos,
		Active:     true,
	}
}

// Position возвращает блок, в котором стоит сущность
func (e *Entity) Position() vec.Vec3 {
	return e.PrecisePos.Floor()
}

// ItemEntity: выпавший предмет, лежащий в мире
type ItemEntity struct {
	Entity
	Stack     item.Stack
	SpawnedAt time.Time
}

// NewItemEntity создаёт сущность-предмет
func NewItemEntity(id uint64, stack item.Stack, at vec.Vec3Float) *ItemEntity {
	return &ItemEntity{
		Entity:    *NewEntity(id, EntityTypeItem, at),
		Stack:     stack,
		SpawnedAt: time.Now(),
	}
}
