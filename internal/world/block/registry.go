package block

import (
	"sort"
	"strings"
	"sync"
)

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID    BlockID = iota // 0
	StoneBlockID                 // 1
	GrassBlockID                 // 2
	WaterBlockID                 // 3
	SandBlockID                  // 4
	DirtBlockID                  // 5
	GravelBlockID                // 6

	// Блоки, получаемые взаимодействием (начиная с 100)
	PathBlockID        BlockID = 100 // Тропинка (лопата по траве)
	FarmlandBlockID    BlockID = 101 // Пашня (мотыга по земле)
	CoarseDirtBlockID  BlockID = 102 // Каменистая земля
	LogBlockID         BlockID = 103 // Бревно
	StrippedLogBlockID BlockID = 104 // Обтёсанное бревно
)

// Definition описывает зарегистрированный тип блока
type Definition struct {
	ID   BlockID
	Name string
	// Properties перечисляет допустимые значения свойств состояния.
	// Пустая карта: блок без свойств.
	Properties map[string][]string
}

// AllowsProperty проверяет, допустимо ли значение свойства
func (d Definition) AllowsProperty(key, value string) bool {
	values, ok := d.Properties[key]
	if !ok {
		return false
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

var (
	mu       sync.RWMutex
	registry = make(map[BlockID]Definition)
	byName   = make(map[string]BlockID)
)

// Register добавляет тип блока в регистр.
// Повторная регистрация заменяет определение.
func Register(def Definition) {
	mu.Lock()
	defer mu.Unlock()

	if old, ok := registry[def.ID]; ok {
		delete(byName, old.Name)
	}
	def.Name = normalizeName(def.Name)
	registry[def.ID] = def
	byName[def.Name] = def.ID
}

// Get возвращает определение для указанного ID
func Get(id BlockID) (Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	def, exists := registry[id]
	return def, exists
}

// Lookup ищет ID блока по имени ("grass", "minecraft:grass")
func Lookup(name string) (BlockID, bool) {
	mu.RLock()
	defer mu.RUnlock()
	id, exists := byName[normalizeName(name)]
	return id, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// Name возвращает имя блока или "unknown"
func (id BlockID) Name() string {
	if def, ok := Get(id); ok {
		return def.Name
	}
	return "unknown"
}

// String для fmt
func (id BlockID) String() string {
	return id.Name()
}

// Names возвращает отсортированный список зарегистрированных имён
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "minecraft:")
}
