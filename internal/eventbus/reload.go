package eventbus

import (
	"context"

	"github.com/annel0/interactions/internal/logging"
)

// RequestReload публикует запрос на перечитывание рецептов
func RequestReload(ctx context.Context, bus EventBus, source string) error {
	ev := NewEnvelope(TypeRecipesReload, source, nil)
	ev.Priority = PriorityHigh
	return bus.Publish(ctx, ev)
}

// OnReload вызывает reload на каждое событие recipes.reload.
// Ошибка перезагрузки только логируется: текущий набор рецептов остаётся в силе.
func OnReload(ctx context.Context, bus EventBus, logger *logging.Logger, reload func() error) (Subscription, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	return bus.Subscribe(ctx, Filter{Types: []string{TypeRecipesReload}}, func(ctx context.Context, ev *Envelope) {
		logger.Info("Запрос перезагрузки рецептов от %s (%s)", ev.Source, ev.ID)
		if err := reload(); err != nil {
			logger.Error("Перезагрузка рецептов не удалась: %v", err)
		}
	})
}
