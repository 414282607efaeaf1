package claims

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/vec"
)

// hashClient: подмножество команд Redis, нужное хранилищу приватов
type hashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Close() error
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr     string // Адрес Redis сервера
	Password string // Пароль (пустой если не требуется)
	DB       int    // Номер базы данных
	Key      string // Ключ хеша с приватами
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr: "localhost:6379",
		Key:  "interactions:claims",
	}
}

// RedisRepo хранит приваты в одном хеше Redis: поле "x:y:z" -> ID владельца
type RedisRepo struct {
	client hashClient
	key    string
}

// NewRedisRepo подключается к Redis и проверяет соединение
func NewRedisRepo(ctx context.Context, config *RedisConfig, logger *logging.Logger) (*RedisRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.Key == "" {
		config.Key = DefaultRedisConfig().Key
	}
	if logger == nil {
		logger = logging.Nop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Приваты: Redis %s, ключ %s", config.Addr, config.Key)
	return newRedisRepo(client, config.Key), nil
}

func newRedisRepo(client hashClient, key string) *RedisRepo {
	return &RedisRepo{client: client, key: key}
}

func (r *RedisRepo) Claim(ctx context.Context, pos vec.Vec3, owner uint64) error {
	if owner == 0 {
		return ErrInvalidOwner
	}
	if err := r.client.HSet(ctx, r.key, field(pos), strconv.FormatUint(owner, 10)).Err(); err != nil {
		return fmt.Errorf("failed to claim %v: %w", pos, err)
	}
	return nil
}

func (r *RedisRepo) Release(ctx context.Context, pos vec.Vec3) error {
	if err := r.client.HDel(ctx, r.key, field(pos)).Err(); err != nil {
		return fmt.Errorf("failed to release %v: %w", pos, err)
	}
	return nil
}

func (r *RedisRepo) Owner(ctx context.Context, pos vec.Vec3) (uint64, bool, error) {
	val, err := r.client.HGet(ctx, r.key, field(pos)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // Блок свободен
	} else if err != nil {
		return 0, false, fmt.Errorf("failed to get owner of %v: %w", pos, err)
	}

	owner, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid owner %q at %v: %w", val, pos, err)
	}
	return owner, true, nil
}

// Close закрывает соединение с Redis
func (r *RedisRepo) Close() error {
	return r.client.Close()
}

func field(pos vec.Vec3) string {
	return fmt.Sprintf("%d:%d:%d", pos.X, pos.Y, pos.Z)
}
