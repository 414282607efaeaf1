// Package cache: локальный кеш с TTL и распределённая инвалидация через NATS.
//
// Использование:
//
//	c := cache.NewLocal[uint64](time.Second)
//	c.Set("key", 42)
//	v, ok := c.Get("key")
//	inv.PublishInvalidation(ctx, "key")
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadySubscribed возвращается при повторной подписке invalidator
var ErrAlreadySubscribed = errors.New("already subscribed to invalidations")

// Invalidator управляет инвалидацией кеша между узлами через Pub/Sub.
type Invalidator interface {
	// PublishInvalidation отправляет уведомление об инвалидации.
	PublishInvalidation(ctx context.Context, key string) error

	// SubscribeInvalidations подписывается на уведомления других узлов.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	// Close закрывает соединение.
	Close() error
}

// InvalidationHandler обрабатывает уведомления об инвалидации кеша.
type InvalidationHandler func(key string) error

// Metrics содержит метрики кеша.
type Metrics struct {
	Hits      int64     `json:"cache_hits"`
	Misses    int64     `json:"cache_misses"`
	Keys      int       `json:"total_keys"`
	HitRatio  float64   `json:"hit_ratio"`
	LastReset time.Time `json:"last_reset"`
}

// NopInvalidator: инвалидатор одного узла: рассылать некому.
type NopInvalidator struct{}

func (NopInvalidator) PublishInvalidation(context.Context, string) error { return nil }

func (NopInvalidator) SubscribeInvalidations(context.Context, InvalidationHandler) error { return nil }

func (NopInvalidator) Close() error { return nil }
