// Package dispatcher связывает действие игрока с рецептами:
// проверка прав, поиск совпадений и применение эффектов нужной стороны.
package dispatcher

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/interactions/internal/eventbus"
	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/metrics"
	"github.com/annel0/interactions/internal/observability"
)

// Matcher возвращает рецепты, подходящие к действию, в порядке загрузки
type Matcher interface {
	FindMatches(a interaction.Action) []*recipe.Recipe
}

// Effects применяет рецепт на одной из сторон
type Effects interface {
	Authoritative(r *recipe.Recipe, a interaction.Action, w interaction.AuthoritativeWorld) interaction.Outcome
	Presentation(r *recipe.Recipe, a interaction.Action, w interaction.PresentationWorld) int
}

// Dispatcher обрабатывает действия синхронно в вызывающей горутине
type Dispatcher struct {
	matcher Matcher
	effects Effects
	perms   interaction.PermissionChecker

	bus     eventbus.EventBus
	source  string
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *logging.Logger
}

// Option настраивает Dispatcher
type Option func(*Dispatcher)

// WithBus публикует авторитетные исходы в шину от имени source
func WithBus(bus eventbus.EventBus, source string) Option {
	return func(d *Dispatcher) {
		d.bus = bus
		d.source = source
	}
}

// WithMetrics включает учёт метрик
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithTracer задаёт трейсер; по умолчанию берётся глобальный провайдер
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

// WithLogger задаёт логгер
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New создаёт диспетчер. perms == nil разрешает всё.
func New(m Matcher, e Effects, perms interaction.PermissionChecker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		matcher: m,
		effects: e,
		perms:   perms,
		source:  "interactions",
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.perms == nil {
		d.perms = interaction.AllowAll
	}
	if d.tracer == nil {
		d.tracer = observability.Tracer()
	}
	if d.logger == nil {
		d.logger = logging.Nop()
	}
	return d
}

// Handle обрабатывает одно действие. Результат вызывающему не возвращается:
// эффекты видны через мир, шину и метрики.
func (d *Dispatcher) Handle(ctx context.Context, a interaction.Action) {
	start := time.Now()
	side := a.Side.String()

	ctx, span := d.tracer.Start(ctx, "interaction.dispatch", trace.WithAttributes(
		attribute.String("interaction.side", side),
		attribute.Int64("interaction.actor", int64(a.ActorID())),
		attribute.String("interaction.face", a.Face.String()),
	))
	defer span.End()

	result := d.handle(ctx, span, a)

	span.SetAttributes(attribute.String("interaction.result", result))
	if d.metrics != nil {
		d.metrics.Actions.WithLabelValues(side, result).Inc()
		d.metrics.Duration.WithLabelValues(side).Observe(time.Since(start).Seconds())
	}
}

func (d *Dispatcher) handle(ctx context.Context, span trace.Span, a interaction.Action) string {
	if !d.perms.CanEdit(a.Actor, a.Pos, a.Face, a.Held) {
		d.logger.Debug("Действие актора %d по %v отклонено правами", a.ActorID(), a.Pos)
		return metrics.ResultDenied
	}

	matches := d.matcher.FindMatches(a)
	span.SetAttributes(attribute.Int("interaction.matches", len(matches)))
	if len(matches) == 0 {
		return metrics.ResultNoMatch
	}

	switch a.Side {
	case interaction.SideAuthoritative:
		w, ok := a.World.(interaction.AuthoritativeWorld)
		if !ok {
			d.logger.Warn("Мир %T не поддерживает авторитетные изменения", a.World)
			span.SetStatus(codes.Error, "world is not authoritative")
			return metrics.ResultBadWorld
		}
		for _, r := range matches {
			out := d.effects.Authoritative(r, a, w)
			d.recordOutcome(ctx, span, out)
		}

	case interaction.SidePresentation:
		w, ok := a.World.(interaction.PresentationWorld)
		if !ok {
			d.logger.Warn("Мир %T не поддерживает частицы", a.World)
			span.SetStatus(codes.Error, "world is not presentational")
			return metrics.ResultBadWorld
		}
		for _, r := range matches {
			n := d.effects.Presentation(r, a, w)
			d.logger.Trace("Рецепт %s: %d частиц", r.ID, n)
			if d.metrics != nil {
				d.metrics.Applied.WithLabelValues(r.ID, a.Side.String()).Inc()
				d.metrics.Particles.Add(float64(n))
			}
		}

	default:
		d.logger.Warn("Неизвестная сторона действия: %s", a.Side)
		span.SetStatus(codes.Error, "unknown side")
		return metrics.ResultBadWorld
	}

	return metrics.ResultMatched
}

func (d *Dispatcher) recordOutcome(ctx context.Context, span trace.Span, out interaction.Outcome) {
	d.logger.Debug("Рецепт %s у %v: блок=%t дроп=%t урон=%d",
		out.RecipeID, out.Pos, out.BlockChanged, out.Drop != nil, out.Damage)

	span.AddEvent("recipe.applied", trace.WithAttributes(
		attribute.String("recipe.id", out.RecipeID),
		attribute.Bool("recipe.block_changed", out.BlockChanged),
	))

	if d.metrics != nil {
		d.metrics.Applied.WithLabelValues(out.RecipeID, interaction.SideAuthoritative.String()).Inc()
		if out.BlockChanged {
			d.metrics.BlockChanges.Inc()
		}
		if out.Drop != nil {
			d.metrics.Drops.Inc()
		}
		d.metrics.ItemDamage.Add(float64(out.Damage))
	}

	if d.bus == nil {
		return
	}
	if _, err := eventbus.PublishOutcome(ctx, d.bus, d.source, out); err != nil {
		d.logger.Warn("Не удалось опубликовать исход %s: %v", out.RecipeID, err)
		span.RecordError(err)
	}
}
