package item

import (
	"fmt"
	"strconv"
	"strings"
)

// Stack представляет стопку предметов в руке или на земле
type Stack struct {
	ID     ItemID `json:"id"`
	Count  int    `json:"count"`
	Meta   int    `json:"meta,omitempty"`   // вариант предмета
	Damage int    `json:"damage,omitempty"` // израсходованная прочность
}

// NewStack создаёт стопку предметов
func NewStack(id ItemID, count int) Stack {
	return Stack{ID: id, Count: count}
}

// IsEmpty сообщает, пуста ли стопка
func (s *Stack) IsEmpty() bool {
	return s == nil || s.ID == AirItemID || s.Count <= 0
}

// Remaining возвращает оставшуюся прочность; -1 для неломаемых предметов
func (s *Stack) Remaining() int {
	if s.IsEmpty() {
		return 0
	}
	def, ok := Get(s.ID)
	if !ok || !def.Damageable() {
		return -1
	}
	return def.MaxDurability - s.Damage
}

func (s Stack) String() string {
	if s.Meta != 0 {
		return fmt.Sprintf("%dx%s:%d", s.Count, s.ID.Name(), s.Meta)
	}
	return fmt.Sprintf("%dx%s", s.Count, s.ID.Name())
}

// ParseStack разбирает идентификатор вида "stick", "minecraft:dye:15".
// Количество задаётся отдельно.
func ParseStack(ref string, count int) (Stack, error) {
	ref = strings.TrimSpace(ref)
	name, meta := ref, 0

	parts := strings.Split(ref, ":")
	if len(parts) > 1 {
		if m, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			meta = m
			name = strings.Join(parts[:len(parts)-1], ":")
		}
	}

	id, ok := Lookup(name)
	if !ok {
		return Stack{}, fmt.Errorf("неизвестный предмет %q", name)
	}
	return Stack{ID: id, Count: count, Meta: meta}, nil
}
