package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultRedisKey = "gosweep:records"

const maxUpdateAttempts = 10

// RedisBackend keeps the record lines in a Redis list. Updates WATCH the key
// and replace the list inside MULTI/EXEC, retrying when another client
// changed it in between.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	if strings.TrimSpace(key) == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{rdb: rdb, key: key}
}

// OpenRedisBackend connects using a redis:// URL.
func OpenRedisBackend(ctx context.Context, url, key string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisBackend(rdb, key), nil
}

func (backend *RedisBackend) Load(ctx context.Context) ([]TimeRecord, error) {
	lines, err := backend.rdb.LRange(ctx, backend.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return backend.decode(lines), nil
}

func (backend *RedisBackend) decode(lines []string) []TimeRecord {
	records := make([]TimeRecord, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		record, ok := DecodeLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	if skipped > 0 {
		logrus.WithFields(logrus.Fields{
			"key":     backend.key,
			"skipped": skipped,
		}).Debug("skipped malformed record lines")
	}
	return records
}

func (backend *RedisBackend) Update(ctx context.Context, change Change) ([]TimeRecord, error) {
	var updated []TimeRecord

	txf := func(tx *redis.Tx) error {
		lines, err := tx.LRange(ctx, backend.key, 0, -1).Result()
		if err != nil {
			return err
		}
		updated = change(backend.decode(lines))

		encoded := make([]interface{}, len(updated))
		for i, record := range updated {
			encoded[i] = EncodeLine(record)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, backend.key)
			if len(encoded) > 0 {
				pipe.RPush(ctx, backend.key, encoded...)
			}
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err := backend.rdb.Watch(ctx, txf, backend.key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"key":     backend.key,
			"attempt": attempt,
		}).Debug("records key changed during update, retrying")
	}
	return nil, fmt.Errorf("update %s: %w", backend.key, redis.TxFailedErr)
}

func (backend *RedisBackend) Close() error {
	return backend.rdb.Close()
}
