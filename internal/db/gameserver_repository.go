package db

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/la2login/internal/model"
)

// PostgresGameServerRepository persists game-server id <-> hex id bindings.
type PostgresGameServerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresGameServerRepository создаёт repository регистраций гейм-серверов.
func NewPostgresGameServerRepository(pool *pgxpool.Pool) *PostgresGameServerRepository {
	return &PostgresGameServerRepository{pool: pool}
}

// LoadGameServers returns every registered server ordered by id.
func (r *PostgresGameServerRepository) LoadGameServers(ctx context.Context) ([]model.GameServerRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT server_id, hexid, host FROM gameservers ORDER BY server_id`)
	if err != nil {
		return nil, fmt.Errorf("querying gameservers: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.GameServerRecord, error) {
		var rec model.GameServerRecord
		var hexID string
		if err := row.Scan(&rec.ID, &hexID, &rec.Host); err != nil {
			return rec, err
		}
		b, err := hex.DecodeString(hexID)
		if err != nil {
			return rec, fmt.Errorf("parsing hexid of server %d: %w", rec.ID, err)
		}
		rec.HexID = b
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning gameservers: %w", err)
	}
	return records, nil
}

// RegisterGameServer inserts a new binding. Fails if the id is already stored.
func (r *PostgresGameServerRepository) RegisterGameServer(ctx context.Context, rec model.GameServerRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO gameservers (server_id, hexid, host) VALUES ($1, $2, $3)`,
		rec.ID, hex.EncodeToString(rec.HexID), rec.Host,
	)
	if err != nil {
		return fmt.Errorf("registering gameserver %d: %w", rec.ID, err)
	}
	return nil
}
