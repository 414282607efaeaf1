// Package executor применяет эффекты сработавшего рецепта.
//
// Есть два независимых пути: Authoritative меняет мир (блок, дроп,
// износ предмета), Presentation только рисует частицы. Для одного
// действия вызывается ровно один из них, и каждый бросает свои кости.
package executor

import (
	"time"

	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/chance"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/vec"
)

// Скорость частицы по каждой оси берётся из [0, particleSpeed)
const particleSpeed = 0.02

// Смещения наружу от ячейки для зоны "out"
var outsideOffsets = [2]float64{-0.1, 1.1}

// Executor применяет рецепты, используя заданный источник случайности
type Executor struct {
	src chance.Source
	now func() time.Time
}

// New создаёт исполнитель; nil означает общий генератор процесса
func New(src chance.Source) *Executor {
	if src == nil {
		src = chance.Default()
	}
	return &Executor{src: src, now: time.Now}
}

// Authoritative применяет эффекты рецепта, меняющие мир.
// Порядок фиксирован: смена блока, дроп, износ. Дроп и износ читают
// уже разрешённый исход смены блока и не перебрасывают его.
func (e *Executor) Authoritative(r *recipe.Recipe, a interaction.Action, w interaction.AuthoritativeWorld) interaction.Outcome {
	out := interaction.Outcome{
		RecipeID: r.ID,
		ActorID:  a.ActorID(),
		Pos:      a.Pos,
		DropAt:   a.Hit,
		At:       e.now(),
	}

	// Без блока смены исход детерминированно "не сменился"
	changed := r.ChangesTargetBlock() && chance.RollPercent(e.src, r.Change.Chance)
	if changed {
		state := r.Change.State.Clone()
		w.SetBlockState(a.Pos, state)
		out.BlockChanged = true
		out.NewState = &state
	}

	if r.DropsItem(changed) && chance.RollPercent(e.src, r.Drop.Chance) {
		stack := r.Drop.Stack
		w.SpawnItem(stack, a.Hit)
		out.Drop = &stack
	}

	if r.DamagesHeldItem(changed) && chance.RollPercent(e.src, r.Damage.Chance) {
		w.DamageItem(a.Held, r.Damage.Amount, a.Actor)
		out.Damage = r.Damage.Amount
	}

	return out
}

// Presentation выпускает частицы рецепта и возвращает их количество.
//
// Число частиц бросается из [Min, Max], после чего цикл выполняется
// count+1 раз: хотя бы одна частица появляется всегда, когда эффект задан.
// Плотность эффектов в существующих рецептах рассчитана на это поведение.
func (e *Executor) Presentation(r *recipe.Recipe, a interaction.Action, w interaction.PresentationWorld) int {
	if !r.SpawnsParticles() {
		return 0
	}
	p := r.Particles
	count := chance.RollRange(e.src, p.Min, p.Max)

	spawned := 0
	for i := 0; i <= count; i++ {
		pos, ok := ParticlePosition(e.src, a.Pos, p.Zone)
		if !ok {
			continue
		}
		w.SpawnParticle(interaction.Particle{
			Type: p.Type,
			Pos:  pos,
			Vel: vec.Vec3Float{
				X: chance.Unit(e.src) * particleSpeed,
				Y: chance.Unit(e.src) * particleSpeed,
				Z: chance.Unit(e.src) * particleSpeed,
			},
			Param: int(p.Param),
		})
		spawned++
	}
	return spawned
}

// ParticlePosition выбирает точку появления частицы относительно блока pos.
//
// ZoneInside: случайная точка внутри ячейки. ZoneOutside: одна случайная
// ось получает смещение -0.1 или +1.1 (чуть снаружи грани), а две другие
// получают случайную точку ячейки. Неизвестная зона возвращает ok=false.
func ParticlePosition(src chance.Source, pos vec.Vec3, zone recipe.Zone) (vec.Vec3Float, bool) {
	base := [3]float64{float64(pos.X), float64(pos.Y), float64(pos.Z)}
	var out [3]float64

	switch zone {
	case recipe.ZoneInside:
		for i := range out {
			out[i] = base[i] + chance.Unit(src)
		}
	case recipe.ZoneOutside:
		side := chance.RollRange(src, 0, 2)
		for i := range out {
			if i == side {
				out[i] = base[i] + outsideOffsets[chance.RollRange(src, 0, 1)]
			} else {
				out[i] = base[i] + chance.Unit(src)
			}
		}
	default:
		return vec.Vec3Float{}, false
	}
	return vec.Vec3Float{X: out[0], Y: out[1], Z: out[2]}, true
}
