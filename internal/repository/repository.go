package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/ollama-chat/internal/config"
	"github.com/Rrens/ollama-chat/internal/domain"
	"github.com/Rrens/ollama-chat/internal/repository/memory"
	"github.com/Rrens/ollama-chat/internal/repository/mongo"
	"github.com/Rrens/ollama-chat/internal/repository/postgres"
	"github.com/Rrens/ollama-chat/internal/repository/redis"
	"github.com/Rrens/ollama-chat/internal/repository/sqlstore"
)

// Backend is a session repository that owns a connection
type Backend interface {
	domain.SessionRepository
	domain.Pinger
	Close() error
}

// Open builds the session repository selected by storage.driver.
// rdb is required only for the redis driver.
func Open(ctx context.Context, cfg *config.Config, rdb *redis.Client) (Backend, error) {
	switch cfg.Storage.Driver {
	case "", "sqlite":
		return sqlstore.OpenSQLite(ctx, cfg.SQLite.Path)
	case "mysql":
		return sqlstore.OpenMySQL(ctx, cfg.MySQL.DSN())
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return &postgresBackend{SessionRepository: postgres.NewSessionRepository(db.Pool), db: db}, nil
	case "mongo":
		return mongo.NewStore(ctx, cfg.Mongo)
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis storage requires a redis client")
		}
		return redis.NewSessionStore(rdb), nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

type postgresBackend struct {
	*postgres.SessionRepository
	db *postgres.DB
}

func (b *postgresBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *postgresBackend) Close() error {
	b.db.Close()
	return nil
}
