// Package claims хранит приваты (заявленные игроками блоки) и проверяет
// по ним право изменять мир. Приваты общие для всех узлов, поэтому
// основная реализация живёт в Redis.
package claims

import (
	"context"
	"errors"

	"github.com/annel0/interactions/internal/vec"
)

// ErrInvalidOwner возвращается при попытке заявить блок без владельца
var ErrInvalidOwner = errors.New("claims: недействительный владелец")

// Repo определяет хранилище приватов.
type Repo interface {
	// Claim закрепляет блок за владельцем, перезаписывая прежнего.
	Claim(ctx context.Context, pos vec.Vec3, owner uint64) error

	// Release снимает приват с блока.
	Release(ctx context.Context, pos vec.Vec3) error

	// Owner возвращает владельца блока; false: блок свободен.
	Owner(ctx context.Context, pos vec.Vec3) (uint64, bool, error)

	// Close закрывает соединение с хранилищем.
	Close() error
}
