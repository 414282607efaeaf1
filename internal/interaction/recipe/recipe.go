package recipe

import (
	"fmt"

	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/item"
)

// TargetMatch: условие на целевой блок
type TargetMatch struct {
	Block      block.BlockID
	Properties map[string]string // подмножество свойств, которое должно совпасть
}

// Matches проверяет состояние блока
func (t TargetMatch) Matches(s block.State) bool {
	return s.Matches(t.Block, t.Properties)
}

// ToolMatch: условие на предмет в руке.
// Item == item.AirItemID означает "пустая рука".
type ToolMatch struct {
	Item item.ItemID
	Meta *int // nil: любой вариант
}

// Matches проверяет предмет в руке
func (t ToolMatch) Matches(held *item.Stack) bool {
	if t.Item == item.AirItemID {
		return held.IsEmpty()
	}
	if held.IsEmpty() || held.ID != t.Item {
		return false
	}
	return t.Meta == nil || held.Meta == *t.Meta
}

// BlockChange: смена состояния целевого блока
type BlockChange struct {
	State  block.State
	Chance int
}

// Drop: выпадение предмета в точке попадания
type Drop struct {
	Stack    item.Stack
	Chance   int
	Requires Policy
}

// Damage: расход прочности предмета в руке
type Damage struct {
	Amount   int
	Chance   int
	Requires Policy
}

// Particles: косметические частицы на стороне отображения
type Particles struct {
	Type  string
	Param item.ItemID // item.AirItemID: без параметра
	Min   int
	Max   int
	Zone  Zone
}

// Recipe: неизменяемое описание взаимодействия.
// Каждый блок эффекта либо задан полностью, либо nil.
type Recipe struct {
	ID     string
	Source string // файл, из которого загружен рецепт
	index  int

	Target TargetMatch
	Tool   ToolMatch
	Faces  []vec.Face // пусто: любая грань

	Change    *BlockChange
	Drop      *Drop
	Damage    *Damage
	Particles *Particles
}

// AllowsFace проверяет ограничение по грани
func (r *Recipe) AllowsFace(face vec.Face) bool {
	if len(r.Faces) == 0 {
		return true
	}
	for _, f := range r.Faces {
		if f == face {
			return true
		}
	}
	return false
}

// ChangesTargetBlock сообщает, задана ли смена блока
func (r *Recipe) ChangesTargetBlock() bool {
	return r.Change != nil
}

// DropsItem сообщает, допустим ли дроп при данном исходе смены блока
func (r *Recipe) DropsItem(changed bool) bool {
	return r.Drop != nil && r.Drop.Requires.Allows(changed)
}

// DamagesHeldItem сообщает, допустим ли урон предмету при данном исходе смены блока
func (r *Recipe) DamagesHeldItem(changed bool) bool {
	return r.Damage != nil && r.Damage.Requires.Allows(changed)
}

// SpawnsParticles сообщает, задан ли эффект частиц
func (r *Recipe) SpawnsParticles() bool {
	return r.Particles != nil
}

func (r *Recipe) String() string {
	return fmt.Sprintf("recipe(%s: %s on %s)", r.ID, r.Tool.Item.Name(), r.Target.Block.Name())
}

// Validate проверяет инварианты рецепта
func (r *Recipe) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if !block.IsValidBlockID(r.Target.Block) {
		return fmt.Errorf("%w: target id %d", ErrUnknownBlock, r.Target.Block)
	}
	if err := checkProperties(r.Target.Block, r.Target.Properties); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if _, ok := item.Get(r.Tool.Item); !ok {
		return fmt.Errorf("%w: tool id %d", ErrUnknownItem, r.Tool.Item)
	}
	for _, f := range r.Faces {
		if !f.Valid() {
			return fmt.Errorf("%w: %v", ErrUnknownFace, f)
		}
	}

	if c := r.Change; c != nil {
		if !block.IsValidBlockID(c.State.ID) {
			return fmt.Errorf("change: %w: id %d", ErrUnknownBlock, c.State.ID)
		}
		if err := checkProperties(c.State.ID, c.State.Properties); err != nil {
			return fmt.Errorf("change: %w", err)
		}
		if err := checkChance(c.Chance); err != nil {
			return fmt.Errorf("change: %w", err)
		}
	}

	if d := r.Drop; d != nil {
		if _, ok := item.Get(d.Stack.ID); !ok || d.Stack.ID == item.AirItemID {
			return fmt.Errorf("drop: %w: id %d", ErrUnknownItem, d.Stack.ID)
		}
		if d.Stack.Count < 1 {
			return fmt.Errorf("drop: %w", ErrInvalidCount)
		}
		if err := checkChance(d.Chance); err != nil {
			return fmt.Errorf("drop: %w", err)
		}
	}

	if d := r.Damage; d != nil {
		if d.Amount < 1 {
			return fmt.Errorf("damage: %w", ErrInvalidCount)
		}
		if err := checkChance(d.Chance); err != nil {
			return fmt.Errorf("damage: %w", err)
		}
	}

	if p := r.Particles; p != nil {
		if p.Type == "" {
			return ErrEmptyParticle
		}
		if !p.Zone.Valid() {
			return fmt.Errorf("particles: %w: %v", ErrUnknownZone, p.Zone)
		}
		if p.Min < 0 || p.Max < p.Min {
			return fmt.Errorf("particles: %w: [%d,%d]", ErrInvalidRange, p.Min, p.Max)
		}
		if _, ok := item.Get(p.Param); !ok {
			return fmt.Errorf("particles: %w: param id %d", ErrUnknownItem, p.Param)
		}
	}
	return nil
}

func checkChance(c int) error {
	if c < 0 || c > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidChance, c)
	}
	return nil
}

func checkProperties(id block.BlockID, props map[string]string) error {
	if len(props) == 0 {
		return nil
	}
	def, _ := block.Get(id)
	for k, v := range props {
		if !def.AllowsProperty(k, v) {
			return fmt.Errorf("%w: %s[%s=%s]", ErrBadProperty, def.Name, k, v)
		}
	}
	return nil
}
