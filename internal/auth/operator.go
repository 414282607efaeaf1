package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrOperatorExists   = errors.New("operator already exists")
	ErrBadCredentials   = errors.New("invalid operator name or password")
)

// Operator: учётная запись оператора административного API
type Operator struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// OperatorRepo хранит операторов. Имена нечувствительны к регистру.
type OperatorRepo interface {
	Get(ctx context.Context, name string) (*Operator, error)
	Create(ctx context.Context, op *Operator) error
	TouchLogin(ctx context.Context, name string, at time.Time) error
	Close() error
}

// Login проверяет пароль и выпускает токен
func Login(ctx context.Context, repo OperatorRepo, issuer *Issuer, name, password string) (string, *Operator, error) {
	op, err := repo.Get(ctx, name)
	if errors.Is(err, ErrOperatorNotFound) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPassword(op.PasswordHash, password) {
		return "", nil, ErrBadCredentials
	}

	token, err := issuer.Generate(op.Name, op.IsAdmin)
	if err != nil {
		return "", nil, err
	}
	now := issuer.now()
	if err := repo.TouchLogin(ctx, op.Name, now); err == nil {
		op.LastLogin = now
	}
	return token, op, nil
}

// EnsureOperator создаёт оператора, если его ещё нет.
// Используется для начального администратора из окружения.
func EnsureOperator(ctx context.Context, repo OperatorRepo, name, password string, admin bool) error {
	if _, err := repo.Get(ctx, name); err == nil {
		return nil
	} else if !errors.Is(err, ErrOperatorNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	err = repo.Create(ctx, &Operator{Name: name, PasswordHash: hash, IsAdmin: admin, CreatedAt: time.Now()})
	if errors.Is(err, ErrOperatorExists) {
		return nil
	}
	return err
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MemoryOperatorRepo: операторы в памяти процесса
type MemoryOperatorRepo struct {
	mu  sync.RWMutex
	ops map[string]Operator
}

func NewMemoryOperatorRepo() *MemoryOperatorRepo {
	return &MemoryOperatorRepo{ops: make(map[string]Operator)}
}

func (r *MemoryOperatorRepo) Get(_ context.Context, name string) (*Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.ops[normalizeName(name)]
	if !ok {
		return nil, ErrOperatorNotFound
	}
	return &op, nil
}

func (r *MemoryOperatorRepo) Create(_ context.Context, op *Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := normalizeName(op.Name)
	if _, ok := r.ops[name]; ok {
		return ErrOperatorExists
	}
	stored := *op
	stored.Name = name
	r.ops[name] = stored
	return nil
}

func (r *MemoryOperatorRepo) TouchLogin(_ context.Context, name string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = normalizeName(name)
	op, ok := r.ops[name]
	if !ok {
		return ErrOperatorNotFound
	}
	op.LastLogin = at
	r.ops[name] = op
	return nil
}

func (r *MemoryOperatorRepo) Close() error { return nil }
