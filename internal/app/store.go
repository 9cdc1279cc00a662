package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/sagre-kalender/internal/storage"
)

// Store is an opened key-value backend
type Store struct {
	storage.KV

	// Snapshots is set when the backend supports scheduled backups
	Snapshots Snapshotter

	closer func() error
}

// Close releases the backend connection, if any
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// OpenStore opens the backend selected by cfg.Store
func OpenStore(cfg *Config, log *zap.Logger) (*Store, error) {
	switch cfg.Store {
	case StoreFile, "":
		kv, err := storage.NewFileKV(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		log.Info("using file store", zap.String("data_dir", kv.Dir()))
		return &Store{KV: kv, Snapshots: kv}, nil

	case StoreRedis:
		kv, err := storage.NewRedisKV(cfg.RedisURL, storage.DefaultRedisPrefix)
		if err != nil {
			return nil, err
		}
		log.Info("using redis store")
		return &Store{KV: kv, closer: kv.Close}, nil

	case StoreMySQL:
		kv, err := storage.OpenMySQLKV(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		log.Info("using mysql store")
		return &Store{KV: kv, closer: kv.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
