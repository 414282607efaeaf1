// Package store хранит активный набор рецептов.
//
// Набор публикуется как неизменяемый Snapshot: Reload строит новый
// снимок целиком и подменяет указатель одной атомарной операцией,
// поэтому читатель всегда видит либо старый, либо новый набор.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/matcher"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/logging"
)

// Source поставляет разобранные рецепты (файлы, тестовый набор ...)
type Source interface {
	Recipes() ([]*recipe.Recipe, error)
}

// SourceFunc адаптирует функцию к Source
type SourceFunc func() ([]*recipe.Recipe, error)

func (f SourceFunc) Recipes() ([]*recipe.Recipe, error) { return f() }

// Static возвращает источник с фиксированным набором рецептов
func Static(recipes ...*recipe.Recipe) Source {
	return SourceFunc(func() ([]*recipe.Recipe, error) { return recipes, nil })
}

// Snapshot: неизменяемый набор рецептов одного поколения
type Snapshot struct {
	recipes    []*recipe.Recipe
	byID       map[string]*recipe.Recipe
	generation uint64
	loadedAt   time.Time
}

// Len возвращает количество рецептов
func (s *Snapshot) Len() int { return len(s.recipes) }

// Generation возвращает номер публикации: 1 у снимка из New или первой загрузки Load
func (s *Snapshot) Generation() uint64 { return s.generation }

// LoadedAt возвращает время построения снимка
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Recipes возвращает копию списка рецептов в порядке загрузки
func (s *Snapshot) Recipes() []*recipe.Recipe {
	out := make([]*recipe.Recipe, len(s.recipes))
	copy(out, s.recipes)
	return out
}

// Get ищет рецепт по ID
func (s *Snapshot) Get(id string) (*recipe.Recipe, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// FindMatches отбирает подходящие рецепты внутри снимка
func (s *Snapshot) FindMatches(a interaction.Action) []*recipe.Recipe {
	return matcher.FindMatches(s.recipes, a)
}

// Store держит текущий снимок рецептов
type Store struct {
	current atomic.Pointer[Snapshot]
	gen     atomic.Uint64
	logger  *logging.Logger

	// reloadMu держит чтение источника и публикацию вместе:
	// активным остаётся набор, прочитанный последним
	reloadMu sync.Mutex
}

// New создаёт хранилище с начальным набором рецептов
func New(logger *logging.Logger, recipes ...*recipe.Recipe) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{logger: logger}
	s.publish(recipes)
	return s
}

// Load создаёт хранилище и выполняет первую загрузку из источника
func Load(src Source, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{logger: logger}
	if err := s.Reload(src); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload заменяет набор рецептов целиком.
// При ошибке источника текущий снимок остаётся активным.
// Параллельные вызовы выполняются по очереди.
func (s *Store) Reload(src Source) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	recipes, err := src.Recipes()
	if err != nil {
		s.logger.Error("Перезагрузка рецептов не удалась, оставлено поколение %d: %v", s.generation(), err)
		return fmt.Errorf("reload recipes: %w", err)
	}
	snap := s.publish(recipes)
	s.logger.Info("Рецепты перезагружены: поколение %d, %d рецептов", snap.generation, snap.Len())
	return nil
}

// Snapshot возвращает текущий снимок
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

func (s *Store) generation() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.generation
	}
	return 0
}

// FindMatches отбирает рецепты в текущем снимке
func (s *Store) FindMatches(a interaction.Action) []*recipe.Recipe {
	return s.Snapshot().FindMatches(a)
}

// publish строит снимок полностью и только потом делает его видимым
func (s *Store) publish(recipes []*recipe.Recipe) *Snapshot {
	snap := &Snapshot{
		recipes:    make([]*recipe.Recipe, 0, len(recipes)),
		byID:       make(map[string]*recipe.Recipe, len(recipes)),
		generation: s.gen.Add(1),
		loadedAt:   time.Now(),
	}
	for _, r := range recipes {
		if r == nil {
			continue
		}
		if err := r.Validate(); err != nil {
			s.logger.Warn("Рецепт %q отклонён: %v", r.ID, err)
			continue
		}
		if _, dup := snap.byID[r.ID]; dup {
			s.logger.Warn("Рецепт %q отклонён: %v", r.ID, recipe.ErrDuplicateID)
			continue
		}
		snap.byID[r.ID] = r
		snap.recipes = append(snap.recipes, r)
	}
	s.current.Store(snap)
	return snap
}
