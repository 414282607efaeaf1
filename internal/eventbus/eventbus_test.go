package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
)

// collector собирает события, доставленные обработчику
type collector struct {
	mu  sync.Mutex
	evs []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.evs = append(c.evs, ev)
	c.mu.Unlock()
}

func (c *collector) events() []*Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Envelope(nil), c.evs...)
}

func TestNewEnvelope(t *testing.T) {
	a := NewEnvelope(TypeRecipesReload, "test", nil)
	b := NewEnvelope(TypeRecipesReload, "test", nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, PriorityNormal, a.Priority)
	assert.Equal(t, time.UTC, a.Timestamp.Location())
}

func TestMemoryBus_FilterByType(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var applied, all collector
	_, err := bus.Subscribe(ctx, Filter{Types: []string{TypeInteractionApplied}}, applied.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, Filter{}, all.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, NewEnvelope(TypeInteractionApplied, "a", nil)))
	require.NoError(t, bus.Publish(ctx, NewEnvelope(TypeRecipesReload, "a", nil)))
	require.NoError(t, bus.Close())

	assert.Len(t, applied.events(), 1)
	assert.Len(t, all.events(), 2)

	stats := bus.Metrics()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(3), stats.Consumed)
}

func TestMemoryBus_FilterBySource(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx := context.Background()

	var c collector
	_, err := bus.Subscribe(ctx, Filter{Sources: []string{"server"}}, c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, NewEnvelope(TypeRecipesReload, "client", nil)))
	require.NoError(t, bus.Publish(ctx, NewEnvelope(TypeRecipesReload, "server", nil)))
	require.NoError(t, bus.Close())

	evs := c.events()
	require.Len(t, evs, 1)
	assert.Equal(t, "server", evs[0].Source)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx := context.Background()

	var c collector
	sub, err := bus.Subscribe(ctx, Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, NewEnvelope(TypeRecipesReload, "x", nil)))
	require.NoError(t, bus.Close())
	assert.Empty(t, c.events())
}

func TestMemoryBus_Closed(t *testing.T) {
	bus := NewMemoryBus(1)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), NewEnvelope(TypeRecipesReload, "x", nil))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOutcomeRoundTrip(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx := context.Background()

	var c collector
	_, err := bus.Subscribe(ctx, Filter{Types: []string{TypeInteractionApplied}}, c.handle)
	require.NoError(t, err)

	state := block.NewState(block.PathBlockID)
	out := interaction.Outcome{
		RecipeID:     "shovel_grass_path",
		ActorID:      7,
		Pos:          vec.Vec3{X: 1, Y: 2, Z: 3},
		BlockChanged: true,
		NewState:     &state,
		At:           time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	ev, err := PublishOutcome(ctx, bus, "server", out)
	require.NoError(t, err)
	assert.Equal(t, "shovel_grass_path", ev.Metadata["recipe"])
	require.NoError(t, bus.Close())

	evs := c.events()
	require.Len(t, evs, 1)
	got, err := DecodeOutcome(evs[0])
	require.NoError(t, err)
	assert.Equal(t, out.RecipeID, got.RecipeID)
	assert.Equal(t, out.Pos, got.Pos)
	assert.True(t, got.BlockChanged)
	require.NotNil(t, got.NewState)
	assert.Equal(t, block.PathBlockID, got.NewState.ID)
	assert.True(t, out.At.Equal(got.At))
}

func TestDecodeOutcome_WrongType(t *testing.T) {
	_, err := DecodeOutcome(NewEnvelope(TypeRecipesReload, "x", nil))
	assert.Error(t, err)
}

func TestOnReload(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx := context.Background()

	var mu sync.Mutex
	calls := 0
	_, err := OnReload(ctx, bus, nil, func() error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, RequestReload(ctx, bus, "ops"))
	require.NoError(t, bus.Publish(ctx, NewEnvelope(TypeInteractionApplied, "ops", nil)))
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestMetricsExporter_Collect(t *testing.T) {
	bus := NewMemoryBus(4)
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	ctx := context.Background()
	_, err := bus.Subscribe(ctx, Filter{}, func(context.Context, *Envelope) {})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(ctx, NewEnvelope(TypeRecipesReload, "x", nil)))
	}
	require.NoError(t, bus.Close())

	me.Collect()
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 3.0, testutil.ToFloat64(me.consumed))
	assert.Equal(t, 0.0, testutil.ToFloat64(me.inflight))

	// Повторный сбор без новых событий ничего не добавляет
	me.Collect()
	assert.Equal(t, 3.0, testutil.ToFloat64(me.published))
}

func TestMetricsExporter_StartStop(t *testing.T) {
	bus := NewMemoryBus(4)
	me := NewMetricsExporter(bus, prometheus.NewRegistry())
	me.Start(time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope(TypeRecipesReload, "x", nil)))
	require.NoError(t, bus.Close())
	me.Stop()

	assert.Equal(t, 1.0, testutil.ToFloat64(me.published))
}
