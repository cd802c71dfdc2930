package wodstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// RedisStore keeps the blob as one string value. Mutations run as
// WATCH/MULTI read-modify-write transactions.
type RedisStore struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, now: time.Now}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, getter stringGetter) (*blob, error) {
	raw, err := getter.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return newBlob(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read wod blob: %w", err)
	}
	data := newBlob()
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode wod blob: %w", err)
	}
	data.ensure()
	return data, nil
}

// update applies fn to the current blob and writes it back when fn reports a
// change. Concurrent writers cause a retry.
func (s *RedisStore) update(ctx context.Context, fn func(data *blob) (bool, error)) error {
	txf := func(tx *redis.Tx) error {
		data, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		changed, err := fn(data)
		if err != nil || !changed {
			return err
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode wod blob: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, encoded, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update wod blob: %w", redis.TxFailedErr)
}

func (s *RedisStore) List(ctx context.Context) ([]models.WOD, error) {
	data, err := s.read(ctx, s.rdb)
	if err != nil {
		return nil, err
	}
	return data.list(), nil
}

func (s *RedisStore) Get(ctx context.Context, date string) (*models.WOD, error) {
	data, err := s.read(ctx, s.rdb)
	if err != nil {
		return nil, err
	}
	return data.get(date)
}

func (s *RedisStore) Upsert(ctx context.Context, wod models.WOD) (models.WOD, bool, error) {
	wod, err := Normalize(wod)
	if err != nil {
		return models.WOD{}, false, err
	}
	var created bool
	err = s.update(ctx, func(data *blob) (bool, error) {
		created = data.upsert(wod)
		return true, nil
	})
	if err != nil {
		return models.WOD{}, false, err
	}
	return wod, created, nil
}

func (s *RedisStore) Delete(ctx context.Context, date string) (bool, error) {
	var removed bool
	err := s.update(ctx, func(data *blob) (bool, error) {
		removed = data.remove(date)
		return removed, nil
	})
	return removed, err
}

func (s *RedisStore) Comments(ctx context.Context, date string) ([]models.WODComment, error) {
	data, err := s.read(ctx, s.rdb)
	if err != nil {
		return nil, err
	}
	return data.comments(date), nil
}

func (s *RedisStore) AddComment(ctx context.Context, date, text string) (*models.WODComment, error) {
	comment, err := newComment(text, s.now())
	if err != nil {
		return nil, err
	}
	err = s.update(ctx, func(data *blob) (bool, error) {
		if err := data.addComment(date, comment); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *RedisStore) DeleteComment(ctx context.Context, date, commentID string) (bool, error) {
	var removed bool
	err := s.update(ctx, func(data *blob) (bool, error) {
		removed = data.removeComment(date, commentID)
		return removed, nil
	})
	return removed, err
}

// Close is a no-op; the redis client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}
