package claims

import (
	"context"
	"time"

	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/item"
)

// Checker разрешает изменять только свободные блоки и блоки самого актора.
// Реализует interaction.PermissionChecker.
type Checker struct {
	repo    Repo
	timeout time.Duration
	logger  *logging.Logger
}

// NewChecker создаёт проверку приватов; timeout ограничивает запрос к хранилищу
func NewChecker(repo Repo, timeout time.Duration, logger *logging.Logger) *Checker {
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Checker{repo: repo, timeout: timeout, logger: logger}
}

// CanEdit проверяет приват. Ошибка хранилища означает отказ.
func (c *Checker) CanEdit(actor interaction.Actor, pos vec.Vec3, _ vec.Face, _ *item.Stack) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	owner, claimed, err := c.repo.Owner(ctx, pos)
	if err != nil {
		c.logger.Warn("Проверка привата %v не удалась: %v", pos, err)
		return false
	}
	if !claimed {
		return true
	}
	return actor != nil && actor.ID() == owner
}
