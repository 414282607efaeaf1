package recipe

import "errors"

// Ошибки валидации рецептов
var (
	ErrMissingID      = errors.New("recipe: id is required")
	ErrDuplicateID    = errors.New("recipe: duplicate id")
	ErrUnknownBlock   = errors.New("recipe: unknown block")
	ErrUnknownItem    = errors.New("recipe: unknown item")
	ErrUnknownFace    = errors.New("recipe: unknown face")
	ErrUnknownPolicy  = errors.New("recipe: unknown requires policy")
	ErrUnknownZone    = errors.New("recipe: unknown particle zone")
	ErrBadProperty    = errors.New("recipe: property not allowed for block")
	ErrInvalidChance  = errors.New("recipe: chance must be within [0,100]")
	ErrInvalidCount   = errors.New("recipe: count must be positive")
	ErrInvalidRange   = errors.New("recipe: particle range must satisfy 0 <= min <= max")
	ErrEmptyParticle  = errors.New("recipe: particle type is required")
	ErrSchemaMismatch = errors.New("recipe: schema validation failed")
)
