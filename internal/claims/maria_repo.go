package claims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/vec"
)

// MariaRepo хранит приваты в таблице block_claims MariaDB/MySQL.
// Подходит, когда приваты должны переживать перезапуск Redis.
type MariaRepo struct {
	db *sql.DB
}

// NewMariaRepo подключается к базе и создаёт таблицу, если её нет.
//
// dsn - строка подключения (user:pass@tcp(host:port)/dbname)
func NewMariaRepo(ctx context.Context, dsn string, logger *logging.Logger) (*MariaRepo, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaRepo{db: db}
	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	logger.Info("Приваты: MariaDB")
	return repo, nil
}

func (r *MariaRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS block_claims (
			x          INT         NOT NULL,
			y          INT         NOT NULL,
			z          INT         NOT NULL,
			owner_id   BIGINT UNSIGNED NOT NULL,
			updated_at TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE   CURRENT_TIMESTAMP,
			PRIMARY KEY (x, y, z),
			INDEX idx_owner (owner_id)
		) ENGINE=InnoDB
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы block_claims: %w", err)
	}
	return nil
}

// Claim использует INSERT ... ON DUPLICATE KEY UPDATE, прежний владелец перезаписывается
func (r *MariaRepo) Claim(ctx context.Context, pos vec.Vec3, owner uint64) error {
	if owner == 0 {
		return ErrInvalidOwner
	}

	query := `
		INSERT INTO block_claims (x, y, z, owner_id)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			owner_id = VALUES(owner_id),
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.ExecContext(ctx, query, pos.X, pos.Y, pos.Z, owner); err != nil {
		return fmt.Errorf("ошибка сохранения привата %v: %w", pos, err)
	}
	return nil
}

func (r *MariaRepo) Release(ctx context.Context, pos vec.Vec3) error {
	query := `DELETE FROM block_claims WHERE x = ? AND y = ? AND z = ?`
	if _, err := r.db.ExecContext(ctx, query, pos.X, pos.Y, pos.Z); err != nil {
		return fmt.Errorf("ошибка снятия привата %v: %w", pos, err)
	}
	return nil
}

func (r *MariaRepo) Owner(ctx context.Context, pos vec.Vec3) (uint64, bool, error) {
	query := `SELECT owner_id FROM block_claims WHERE x = ? AND y = ? AND z = ?`

	var owner uint64
	err := r.db.QueryRowContext(ctx, query, pos.X, pos.Y, pos.Z).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("ошибка чтения привата %v: %w", pos, err)
	}
	return owner, true, nil
}

// Close закрывает соединение с базой данных
func (r *MariaRepo) Close() error {
	return r.db.Close()
}
