package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/la2login/internal/model"
)

// PostgresAccountRepository реализует хранилище аккаунтов для PostgreSQL.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresAccountRepository создаёт новый PostgreSQL repository.
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool, now: time.Now}
}

// GetAccount возвращает аккаунт по логину или nil, nil если его нет.
// Неистёкший account_data.ban_temp превращает access level в -1.
// Значение, не похожее на миллисекунды, игнорируется.
func (r *PostgresAccountRepository) GetAccount(ctx context.Context, login string) (*model.Account, error) {
	login = strings.ToLower(login)
	var acc model.Account
	err := r.pool.QueryRow(ctx,
		`SELECT a.login, a.password,
		        CASE WHEN d.value IS NOT NULL AND d.value::bigint >= $2 THEN -1 ELSE a.access_level END,
		        a.last_server, COALESCE(a.last_ip, ''), COALESCE(a.last_active, to_timestamp(0))
		 FROM accounts a
		 LEFT JOIN account_data d ON d.account_name = a.login AND d.var = $3
		      AND d.value ~ '^[0-9]{1,18}$'
		 WHERE a.login = $1`,
		login, r.now().UnixMilli(), model.AccountDataBanTemp,
	).Scan(&acc.Login, &acc.PasswordHash, &acc.AccessLevel, &acc.LastServer, &acc.LastIP, &acc.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	return &acc, nil
}

// CreateAccount создаёт новый аккаунт с указанным паролем и IP.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, login, passwordHash, ip string) error {
	login = strings.ToLower(login)
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (login, password, last_active, access_level, last_ip)
		 VALUES ($1, $2, $3, 0, $4)`,
		login, passwordHash, r.now(), ip,
	)
	if err != nil {
		return fmt.Errorf("creating account %q: %w", login, err)
	}
	slog.Info("auto-created account", "login", login)
	return nil
}

// UpdateLastLogin обновляет last_active и last_ip при успешном логине.
func (r *PostgresAccountRepository) UpdateLastLogin(ctx context.Context, login, ip string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET last_active = $1, last_ip = $2 WHERE login = $3`,
		r.now(), ip, strings.ToLower(login),
	)
	if err != nil {
		return fmt.Errorf("updating last login for %q: %w", login, err)
	}
	return nil
}

// UpdateLastServer updates the last_server field for the account.
func (r *PostgresAccountRepository) UpdateLastServer(ctx context.Context, login string, serverID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET last_server = $1 WHERE login = $2`,
		serverID, strings.ToLower(login),
	)
	if err != nil {
		return fmt.Errorf("updating last server for %q: %w", login, err)
	}
	return nil
}

// UpdateAccessLevel persists an access level change requested by a game server.
func (r *PostgresAccountRepository) UpdateAccessLevel(ctx context.Context, login string, level int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET access_level = $1 WHERE login = $2`,
		level, strings.ToLower(login),
	)
	if err != nil {
		return fmt.Errorf("updating access level for %q: %w", login, err)
	}
	return nil
}

// UpdateTracert stores the client route reported by a game server.
func (r *PostgresAccountRepository) UpdateTracert(ctx context.Context, login string, t model.Tracert) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET pc_ip = $1, hop1 = $2, hop2 = $3, hop3 = $4, hop4 = $5 WHERE login = $6`,
		t.PCIP, t.Hop1, t.Hop2, t.Hop3, t.Hop4, strings.ToLower(login),
	)
	if err != nil {
		return fmt.Errorf("updating tracert for %q: %w", login, err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresAccountRepository) UpdatePassword(ctx context.Context, login, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET password = $1 WHERE login = $2`,
		passwordHash, strings.ToLower(login),
	)
	if err != nil {
		return fmt.Errorf("updating password for %q: %w", login, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating password for %q: account not found", login)
	}
	return nil
}

// GetIPRules returns the allow/deny rows of accounts_ipauth for the account.
func (r *PostgresAccountRepository) GetIPRules(ctx context.Context, login string) ([]model.IPRule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ip, type FROM accounts_ipauth WHERE login = $1`,
		strings.ToLower(login),
	)
	if err != nil {
		return nil, fmt.Errorf("querying ip rules for %q: %w", login, err)
	}

	rules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.IPRule, error) {
		var rule model.IPRule
		var kind string
		if err := row.Scan(&rule.IP, &kind); err != nil {
			return rule, err
		}
		rule.Type = model.IPRuleType(kind)
		return rule, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning ip rules for %q: %w", login, err)
	}
	return rules, nil
}

// SetAccountData upserts an account_data value.
func (r *PostgresAccountRepository) SetAccountData(ctx context.Context, login, key, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO account_data (account_name, var, value) VALUES ($1, $2, $3)
		 ON CONFLICT (account_name, var) DO UPDATE SET value = EXCLUDED.value`,
		strings.ToLower(login), key, value,
	)
	if err != nil {
		return fmt.Errorf("setting account data %s for %q: %w", key, login, err)
	}
	return nil
}

// GetAccountData returns an account_data value; ok is false when it is not set.
func (r *PostgresAccountRepository) GetAccountData(ctx context.Context, login, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM account_data WHERE account_name = $1 AND var = $2`,
		strings.ToLower(login), key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("querying account data %s for %q: %w", key, login, err)
	}
	return value, true, nil
}
