package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}
	if err := client.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return client, nil
}

func (p *PostgresClient) Migrate(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS interactions (
			id BIGSERIAL PRIMARY KEY,
			platform VARCHAR(20) NOT NULL,
			chat_id VARCHAR(64) NOT NULL,
			intent VARCHAR(20) NOT NULL,
			ok BOOLEAN NOT NULL,
			latency_ms INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create interactions table: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS interactions_created_at_idx ON interactions (created_at);`)
	if err != nil {
		return fmt.Errorf("create interactions index: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS message_usage (
			platform VARCHAR(20) NOT NULL,
			date DATE NOT NULL,
			messages_received INT NOT NULL DEFAULT 0,
			failures INT NOT NULL DEFAULT 0,
			PRIMARY KEY (platform, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("create message_usage table: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS custom_responses (
			phrase TEXT PRIMARY KEY,
			answer TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create custom_responses table: %w", err)
	}

	slog.Debug("database schema ready")
	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
