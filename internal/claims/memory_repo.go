package claims

import (
	"context"
	"sync"

	"github.com/annel0/interactions/internal/vec"
)

// MemoryRepo реализует Repo в памяти.
// Используется, когда Redis не настроен, и в тестах.
// ВНИМАНИЕ: данные теряются при перезапуске сервера!
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[vec.Vec3]uint64
}

// NewMemoryRepo создаёт пустое хранилище приватов в памяти
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[vec.Vec3]uint64)}
}

func (r *MemoryRepo) Claim(ctx context.Context, pos vec.Vec3, owner uint64) error {
	if owner == 0 {
		return ErrInvalidOwner
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.data[pos] = owner
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) Release(ctx context.Context, pos vec.Vec3) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.data, pos)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) Owner(ctx context.Context, pos vec.Vec3) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.data[pos]
	return owner, ok, nil
}

func (r *MemoryRepo) Close() error { return nil }
