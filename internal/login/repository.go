package login

import (
	"context"

	"github.com/udisondev/la2login/internal/model"
)

// AccountRepository определяет интерфейс для работы с аккаунтами.
// Используется для dependency injection в тестах.
type AccountRepository interface {
	// GetAccount возвращает аккаунт по логину; активный ban_temp даёт AccessLevel -1.
	// Возвращает nil, nil если аккаунт не найден.
	GetAccount(ctx context.Context, login string) (*model.Account, error)

	// CreateAccount создаёт новый аккаунт с указанным паролем и IP.
	CreateAccount(ctx context.Context, login, passwordHash, ip string) error

	// UpdateLastLogin обновляет last_active и last_ip при успешном логине.
	UpdateLastLogin(ctx context.Context, login, ip string) error

	UpdateLastServer(ctx context.Context, login string, serverID int) error
	UpdateAccessLevel(ctx context.Context, login string, level int) error
	UpdateTracert(ctx context.Context, login string, t model.Tracert) error

	// UpdatePassword returns an error when no row was changed.
	UpdatePassword(ctx context.Context, login, passwordHash string) error

	GetIPRules(ctx context.Context, login string) ([]model.IPRule, error)
	SetAccountData(ctx context.Context, login, key, value string) error
}
