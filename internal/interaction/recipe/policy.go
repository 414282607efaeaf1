package recipe

import (
	"fmt"
	"strings"
)

// Policy определяет зависимость дропа/урона от успеха смены блока
type Policy uint8

const (
	// PolicyAlways: эффект не зависит от смены блока
	PolicyAlways Policy = iota
	// PolicyOnSuccess: эффект возможен только если блок сменился
	PolicyOnSuccess
	// PolicyOnFailure: эффект возможен только если блок не сменился
	PolicyOnFailure
)

// Allows сообщает, допускает ли политика эффект при данном исходе смены блока
func (p Policy) Allows(changed bool) bool {
	switch p {
	case PolicyOnSuccess:
		return changed
	case PolicyOnFailure:
		return !changed
	default:
		return true
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyAlways:
		return "always"
	case PolicyOnSuccess:
		return "success"
	case PolicyOnFailure:
		return "failure"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy разбирает значение поля requires; пустое значение: always
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always", "any":
		return PolicyAlways, nil
	case "success":
		return PolicyOnSuccess, nil
	case "failure":
		return PolicyOnFailure, nil
	}
	return PolicyAlways, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Zone определяет область появления частиц относительно целевого блока
type Zone uint8

const (
	// ZoneInside: случайная точка внутри ячейки блока
	ZoneInside Zone = iota + 1
	// ZoneOutside: точка у одной из граней, чуть снаружи ячейки
	ZoneOutside
)

// Valid сообщает, известна ли зона
func (z Zone) Valid() bool {
	return z == ZoneInside || z == ZoneOutside
}

func (z Zone) String() string {
	switch z {
	case ZoneInside:
		return "in"
	case ZoneOutside:
		return "out"
	default:
		return fmt.Sprintf("zone(%d)", uint8(z))
	}
}

// ParseZone разбирает "in"/"inside" и "out"/"outside"
func ParseZone(s string) (Zone, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "inside":
		return ZoneInside, nil
	case "out", "outside":
		return ZoneOutside, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownZone, s)
}
