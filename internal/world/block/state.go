package block

import (
	"sort"
	"strings"
)

// State представляет состояние блока: тип и значения свойств
type State struct {
	ID         BlockID           `json:"id"`
	Properties map[string]string `json:"properties,omitempty"`
}

// NewState создаёт состояние без свойств
func NewState(id BlockID) State {
	return State{ID: id}
}

// With возвращает копию состояния с установленным свойством
func (s State) With(key, value string) State {
	c := s.Clone()
	if c.Properties == nil {
		c.Properties = make(map[string]string, 1)
	}
	c.Properties[key] = value
	return c
}

// Property возвращает значение свойства
func (s State) Property(key string) (string, bool) {
	v, ok := s.Properties[key]
	return v, ok
}

// Matches проверяет, что состояние того же типа и содержит все required свойства
func (s State) Matches(id BlockID, required map[string]string) bool {
	if s.ID != id {
		return false
	}
	for k, v := range required {
		if s.Properties[k] != v {
			return false
		}
	}
	return true
}

// Equal сравнивает тип и все свойства
func (s State) Equal(other State) bool {
	if s.ID != other.ID || len(s.Properties) != len(other.Properties) {
		return false
	}
	for k, v := range s.Properties {
		if ov, ok := other.Properties[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone создаёт копию состояния
func (s State) Clone() State {
	if s.Properties == nil {
		return State{ID: s.ID}
	}
	props := make(map[string]string, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	return State{ID: s.ID, Properties: props}
}

// String возвращает запись вида "log[axis=y]"
func (s State) String() string {
	if len(s.Properties) == 0 {
		return s.ID.Name()
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(s.ID.Name())
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s.Properties[k])
	}
	b.WriteByte(']')
	return b.String()
}
