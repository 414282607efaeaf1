package vec

import (
	"fmt"
	"strings"
)

// Face определяет грань блока, по которой пришлось взаимодействие
type Face uint8

const (
	FaceDown Face = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast

	faceCount // всегда последний
)

var faceNames = [faceCount]string{"down", "up", "north", "south", "west", "east"}

// String возвращает имя грани
func (f Face) String() string {
	if f >= faceCount {
		return fmt.Sprintf("face(%d)", uint8(f))
	}
	return faceNames[f]
}

// Valid сообщает, является ли значение известной гранью
func (f Face) Valid() bool {
	return f < faceCount
}

// Normal возвращает единичный вектор наружу от грани
func (f Face) Normal() Vec3 {
	switch f {
	case FaceDown:
		return Vec3{Y: -1}
	case FaceUp:
		return Vec3{Y: 1}
	case FaceNorth:
		return Vec3{Z: -1}
	case FaceSouth:
		return Vec3{Z: 1}
	case FaceWest:
		return Vec3{X: -1}
	case FaceEast:
		return Vec3{X: 1}
	}
	return Vec3{}
}

// ParseFace разбирает имя грани без учёта регистра
func ParseFace(name string) (Face, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, fn := range faceNames {
		if fn == n {
			return Face(i), nil
		}
	}
	return 0, fmt.Errorf("неизвестная грань %q", name)
}
