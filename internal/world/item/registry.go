package item

import (
	"strings"
	"sync"
)

// ItemID представляет числовой идентификатор предмета
type ItemID uint16

// Константы ID предметов
const (
	AirItemID ItemID = iota // 0: пустая рука

	// Материалы (начиная с 1)
	StickItemID    ItemID = 1
	FlintItemID    ItemID = 2
	SeedsItemID    ItemID = 3
	BoneMealItemID ItemID = 4
	BarkItemID     ItemID = 5
	DirtItemID     ItemID = 6

	// Инструменты (начиная с 100)
	WoodenShovelItemID ItemID = 100
	StoneShovelItemID  ItemID = 101
	WoodenHoeItemID    ItemID = 102
	StoneAxeItemID     ItemID = 103
)

// Definition описывает тип предмета
type Definition struct {
	ID   ItemID
	Name string
	// MaxDurability: запас прочности; 0 означает неломаемый предмет
	MaxDurability int
	MaxStack      int
}

// Damageable сообщает, расходует ли предмет прочность
func (d Definition) Damageable() bool {
	return d.MaxDurability > 0
}

var (
	mu       sync.RWMutex
	registry = make(map[ItemID]Definition)
	byName   = make(map[string]ItemID)
)

// Register добавляет предмет в регистр
func Register(def Definition) {
	mu.Lock()
	defer mu.Unlock()

	if old, ok := registry[def.ID]; ok {
		delete(byName, old.Name)
	}
	def.Name = normalizeName(def.Name)
	if def.MaxStack == 0 {
		def.MaxStack = 64
	}
	registry[def.ID] = def
	byName[def.Name] = def.ID
}

// Get возвращает определение предмета
func Get(id ItemID) (Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	def, ok := registry[id]
	return def, ok
}

// Lookup ищет предмет по имени
func Lookup(name string) (ItemID, bool) {
	mu.RLock()
	defer mu.RUnlock()
	id, ok := byName[normalizeName(name)]
	return id, ok
}

// Name возвращает имя предмета или "unknown"
func (id ItemID) Name() string {
	if def, ok := Get(id); ok {
		return def.Name
	}
	return "unknown"
}

func (id ItemID) String() string {
	return id.Name()
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "minecraft:")
}

func init() {
	Register(Definition{ID: AirItemID, Name: "air"})
	Register(Definition{ID: StickItemID, Name: "stick"})
	Register(Definition{ID: FlintItemID, Name: "flint"})
	Register(Definition{ID: SeedsItemID, Name: "wheat_seeds"})
	Register(Definition{ID: BoneMealItemID, Name: "bone_meal"})
	Register(Definition{ID: BarkItemID, Name: "bark"})
	Register(Definition{ID: DirtItemID, Name: "dirt"})

	Register(Definition{ID: WoodenShovelItemID, Name: "wooden_shovel", MaxDurability: 59, MaxStack: 1})
	Register(Definition{ID: StoneShovelItemID, Name: "stone_shovel", MaxDurability: 131, MaxStack: 1})
	Register(Definition{ID: WoodenHoeItemID, Name: "wooden_hoe", MaxDurability: 59, MaxStack: 1})
	Register(Definition{ID: StoneAxeItemID, Name: "stone_axe", MaxDurability: 131, MaxStack: 1})
}
