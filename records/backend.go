package records

import (
	"context"
	"fmt"
	"strings"
)

const (
	KindFile   = "file"
	KindGdata  = "gdata"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
	KindMemory = "memory"
)

// BackendConfig selects and locates a records backend.
type BackendConfig struct {
	Kind string

	// Text file for the file backend
	Path string
	// Database file for the sqlite backend
	DSN string
	// redis:// URL and list key for the redis backend
	RedisURL string
	Key      string
	// Application name for the gdata backend
	AppName string
}

func NewBackend(ctx context.Context, config BackendConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(config.Kind)) {
	case "", KindFile:
		return NewFileBackend(config.Path), nil
	case KindGdata:
		appName := config.AppName
		if appName == "" {
			appName = "gosweep"
		}
		return OpenGdataBackend(appName)
	case KindSQLite:
		dsn := config.DSN
		if dsn == "" {
			dsn = "gosweep.db"
		}
		return OpenSQLiteBackend(ctx, dsn)
	case KindRedis:
		return OpenRedisBackend(ctx, config.RedisURL, config.Key)
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown records backend %q", config.Kind)
	}
}
