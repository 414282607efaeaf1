package dispatcher

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/annel0/interactions/internal/eventbus"
	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/chance"
	"github.com/annel0/interactions/internal/interaction/executor"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/interaction/store"
	"github.com/annel0/interactions/internal/metrics"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/entity"
	"github.com/annel0/interactions/internal/world/item"
)

var target = vec.Vec3{X: 0, Y: 64, Z: 0}

func pathRecipe() *recipe.Recipe {
	return &recipe.Recipe{
		ID:     "shovel_grass_path",
		Target: recipe.TargetMatch{Block: block.GrassBlockID},
		Tool:   recipe.ToolMatch{Item: item.WoodenShovelItemID},
		Faces:  []vec.Face{vec.FaceUp},
		Change: &recipe.BlockChange{State: block.NewState(block.PathBlockID), Chance: 100},
		Drop:   &recipe.Drop{Stack: item.NewStack(item.StickItemID, 1), Chance: 100, Requires: recipe.PolicyOnSuccess},
		Damage: &recipe.Damage{Amount: 1, Chance: 100, Requires: recipe.PolicyOnSuccess},
		Particles: &recipe.Particles{
			Type: "block_dust", Param: item.DirtItemID, Min: 2, Max: 2, Zone: recipe.ZoneOutside,
		},
	}
}

type fixture struct {
	world  *world.WorldManager
	player *entity.Player
	bus    eventbus.EventBus
	met    *metrics.Metrics
	spans  *tracetest.SpanRecorder
	disp   *Dispatcher

	mu       sync.Mutex
	outcomes []interaction.Outcome
}

func newFixture(t *testing.T, recipes ...*recipe.Recipe) *fixture {
	t.Helper()
	f := &fixture{
		world: world.NewWorldManager(nil),
		bus:   eventbus.NewMemoryBus(16),
		met:   metrics.New(prometheus.NewRegistry()),
		spans: tracetest.NewSpanRecorder(),
	}
	f.world.SetBlockState(target, block.NewState(block.GrassBlockID))

	f.player = entity.NewPlayer(1, "digger", vec.Vec3Float{X: 0.5, Y: 65, Z: 0.5})
	f.player.Hand = item.NewStack(item.WoodenShovelItemID, 1)

	_, err := f.bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.TypeInteractionApplied}},
		func(_ context.Context, ev *eventbus.Envelope) {
			out, err := eventbus.DecodeOutcome(ev)
			if err != nil {
				return
			}
			f.mu.Lock()
			f.outcomes = append(f.outcomes, out)
			f.mu.Unlock()
		})
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(f.spans))
	f.disp = New(store.New(nil, recipes...), executor.New(&chance.Script{}), f.world,
		WithBus(f.bus, "test"),
		WithMetrics(f.met),
		WithTracer(tp.Tracer("test")),
	)
	return f
}

func (f *fixture) action(side interaction.Side) interaction.Action {
	return interaction.Action{
		Actor: f.player,
		World: f.world,
		Side:  side,
		Pos:   target,
		Face:  vec.FaceUp,
		Hit:   vec.Vec3Float{X: 0.5, Y: 65, Z: 0.5},
		Held:  &f.player.Hand,
	}
}

// published закрывает шину и возвращает доставленные исходы
func (f *fixture) published(t *testing.T) []interaction.Outcome {
	t.Helper()
	require.NoError(t, f.bus.Close())
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomes
}

func (f *fixture) actions(side interaction.Side, result string) float64 {
	return testutil.ToFloat64(f.met.Actions.WithLabelValues(side.String(), result))
}

func TestHandle_Authoritative(t *testing.T) {
	f := newFixture(t, pathRecipe())

	f.disp.Handle(context.Background(), f.action(interaction.SideAuthoritative))

	assert.Equal(t, block.PathBlockID, f.world.BlockAt(target).ID)
	require.Len(t, f.world.Items(), 1)
	assert.Equal(t, 1, f.player.Hand.Damage)
	// Авторитетная сторона частиц не рисует
	assert.Empty(t, f.world.Particles())

	outs := f.published(t)
	require.Len(t, outs, 1)
	assert.Equal(t, "shovel_grass_path", outs[0].RecipeID)
	assert.True(t, outs[0].BlockChanged)

	assert.Equal(t, 1.0, f.actions(interaction.SideAuthoritative, metrics.ResultMatched))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.BlockChanges))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.Drops))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.ItemDamage))
}

func TestHandle_Presentation(t *testing.T) {
	f := newFixture(t, pathRecipe())

	f.disp.Handle(context.Background(), f.action(interaction.SidePresentation))

	// Только косметика: блок, предметы и прочность не тронуты
	assert.Equal(t, block.GrassBlockID, f.world.BlockAt(target).ID)
	assert.Empty(t, f.world.Items())
	assert.Equal(t, 0, f.player.Hand.Damage)

	particles := f.world.Particles()
	assert.Len(t, particles, 3)
	for _, p := range particles {
		assert.Equal(t, int(item.DirtItemID), p.Param)
	}

	assert.Empty(t, f.published(t))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.met.Particles))
}

func TestHandle_PermissionDenied(t *testing.T) {
	f := newFixture(t, pathRecipe())
	f.world.Protect(target)

	f.disp.Handle(context.Background(), f.action(interaction.SideAuthoritative))

	assert.Equal(t, block.GrassBlockID, f.world.BlockAt(target).ID)
	assert.Empty(t, f.world.Items())
	assert.Empty(t, f.published(t))
	assert.Equal(t, 1.0, f.actions(interaction.SideAuthoritative, metrics.ResultDenied))
}

func TestHandle_SpectatorDenied(t *testing.T) {
	f := newFixture(t, pathRecipe())
	f.player.Mode = entity.ModeSpectator

	f.disp.Handle(context.Background(), f.action(interaction.SidePresentation))

	assert.Empty(t, f.world.Particles())
	assert.Equal(t, 1.0, f.actions(interaction.SidePresentation, metrics.ResultDenied))
}

func TestHandle_NoMatch(t *testing.T) {
	f := newFixture(t, pathRecipe())
	a := f.action(interaction.SideAuthoritative)
	a.Face = vec.FaceNorth

	f.disp.Handle(context.Background(), a)

	assert.Equal(t, block.GrassBlockID, f.world.BlockAt(target).ID)
	assert.Empty(t, f.published(t))
	assert.Equal(t, 1.0, f.actions(interaction.SideAuthoritative, metrics.ResultNoMatch))
}

// readOnlyWorld умеет только читать блоки
type readOnlyWorld struct{}

func (readOnlyWorld) BlockAt(vec.Vec3) block.State { return block.NewState(block.GrassBlockID) }

func TestHandle_UnsupportedWorld(t *testing.T) {
	f := newFixture(t, pathRecipe())
	a := f.action(interaction.SideAuthoritative)
	a.World = readOnlyWorld{}

	f.disp.Handle(context.Background(), a)

	assert.Empty(t, f.published(t))
	assert.Equal(t, 1.0, f.actions(interaction.SideAuthoritative, metrics.ResultBadWorld))
}

func TestHandle_AllMatchesInOrder(t *testing.T) {
	first := &recipe.Recipe{
		ID:     "first",
		Target: recipe.TargetMatch{Block: block.GrassBlockID},
		Tool:   recipe.ToolMatch{Item: item.WoodenShovelItemID},
		Drop:   &recipe.Drop{Stack: item.NewStack(item.SeedsItemID, 1), Chance: 100},
	}
	second := pathRecipe()
	f := newFixture(t, first, second)

	f.disp.Handle(context.Background(), f.action(interaction.SideAuthoritative))

	assert.Len(t, f.world.Items(), 2)
	outs := f.published(t)
	require.Len(t, outs, 2)
	ids := map[string]bool{outs[0].RecipeID: true, outs[1].RecipeID: true}
	assert.True(t, ids["first"])
	assert.True(t, ids["shovel_grass_path"])
}

func TestHandle_RecordsSpan(t *testing.T) {
	f := newFixture(t, pathRecipe())

	f.disp.Handle(context.Background(), f.action(interaction.SideAuthoritative))

	spans := f.spans.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "interaction.dispatch", s.Name())

	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "authoritative", attrs["interaction.side"])
	assert.Equal(t, metrics.ResultMatched, attrs["interaction.result"])
	assert.Equal(t, "1", attrs["interaction.matches"])
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "recipe.applied", s.Events()[0].Name)
}

// recordingEffects проверяет, что на одно действие вызывается ровно один путь
type recordingEffects struct {
	auth, pres int
}

func (r *recordingEffects) Authoritative(rc *recipe.Recipe, _ interaction.Action, _ interaction.AuthoritativeWorld) interaction.Outcome {
	r.auth++
	return interaction.Outcome{RecipeID: rc.ID}
}

func (r *recordingEffects) Presentation(*recipe.Recipe, interaction.Action, interaction.PresentationWorld) int {
	r.pres++
	return 0
}

func TestHandle_OnePathPerSide(t *testing.T) {
	wm := world.NewWorldManager(nil)
	wm.SetBlockState(target, block.NewState(block.GrassBlockID))
	fx := &recordingEffects{}
	d := New(store.New(nil, pathRecipe()), fx, nil)

	a := interaction.Action{
		World: wm,
		Pos:   target,
		Face:  vec.FaceUp,
		Held:  &item.Stack{ID: item.WoodenShovelItemID, Count: 1},
	}
	a.Side = interaction.SideAuthoritative
	d.Handle(context.Background(), a)
	assert.Equal(t, 1, fx.auth)
	assert.Equal(t, 0, fx.pres)

	a.Side = interaction.SidePresentation
	d.Handle(context.Background(), a)
	assert.Equal(t, 1, fx.auth)
	assert.Equal(t, 1, fx.pres)
}
