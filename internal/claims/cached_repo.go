package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/interactions/internal/cache"
	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/vec"
)

type ownerEntry struct {
	owner   uint64
	claimed bool
}

// CachedRepo держит владельцев блоков в памяти процесса поверх общего хранилища.
// Изменения пишутся сразу в хранилище, другие узлы узнают о них через Invalidator.
type CachedRepo struct {
	repo   Repo
	owners *cache.Local[ownerEntry]
	inv    cache.Invalidator
	logger *logging.Logger
}

// NewCachedRepo оборачивает repo кешем с ttl; nil inv: один узел
func NewCachedRepo(ctx context.Context, repo Repo, ttl time.Duration, inv cache.Invalidator, logger *logging.Logger) (*CachedRepo, error) {
	if inv == nil {
		inv = cache.NopInvalidator{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	r := &CachedRepo{repo: repo, owners: cache.NewLocal[ownerEntry](ttl), inv: inv, logger: logger}

	err := inv.SubscribeInvalidations(ctx, func(key string) error {
		r.owners.Delete(key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe claim invalidations: %w", err)
	}
	return r, nil
}

func (r *CachedRepo) Claim(ctx context.Context, pos vec.Vec3, owner uint64) error {
	if err := r.repo.Claim(ctx, pos, owner); err != nil {
		return err
	}
	r.owners.Set(field(pos), ownerEntry{owner: owner, claimed: true})
	r.publish(ctx, pos)
	return nil
}

func (r *CachedRepo) Release(ctx context.Context, pos vec.Vec3) error {
	if err := r.repo.Release(ctx, pos); err != nil {
		return err
	}
	r.owners.Set(field(pos), ownerEntry{})
	r.publish(ctx, pos)
	return nil
}

// Owner отвечает из кеша; ошибки хранилища не кешируются
func (r *CachedRepo) Owner(ctx context.Context, pos vec.Vec3) (uint64, bool, error) {
	key := field(pos)
	if e, ok := r.owners.Get(key); ok {
		return e.owner, e.claimed, nil
	}

	owner, claimed, err := r.repo.Owner(ctx, pos)
	if err != nil {
		return 0, false, err
	}
	r.owners.Set(key, ownerEntry{owner: owner, claimed: claimed})
	return owner, claimed, nil
}

// Metrics возвращает метрики кеша владельцев
func (r *CachedRepo) Metrics() cache.Metrics {
	return r.owners.GetMetrics()
}

func (r *CachedRepo) Close() error {
	if err := r.inv.Close(); err != nil {
		r.logger.Warn("Invalidator приватов закрыт с ошибкой: %v", err)
	}
	return r.repo.Close()
}

// publish рассылает инвалидацию; при сбое чужие кеши догонят по TTL
func (r *CachedRepo) publish(ctx context.Context, pos vec.Vec3) {
	if err := r.inv.PublishInvalidation(ctx, field(pos)); err != nil {
		r.logger.Warn("Инвалидация привата %v не разослана: %v", pos, err)
	}
}
