package wodstore

import (
	"fmt"

	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/redis/go-redis/v9"
)

type Options struct {
	Backend  string
	FilePath string
	RedisKey string
	Redis    *redis.Client
}

func New(opts Options, log logger.Logger) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.FilePath, log)
	case "redis":
		if opts.Redis == nil {
			return nil, fmt.Errorf("wodstore: redis backend needs a client")
		}
		return NewRedisStore(opts.Redis, opts.RedisKey), nil
	default:
		return nil, fmt.Errorf("wodstore: unknown backend %q", opts.Backend)
	}
}
