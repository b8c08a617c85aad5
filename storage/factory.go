package storage

import (
	"fmt"

	"github.com/pastebit/pastebit/config"
)

// NewStore builds the storage backend selected by the configuration.
func NewStore(cfg *config.Config) (PasteStore, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		return NewFilesystemStore(cfg.DataDir)
	case "redis":
		return NewRedisStore(cfg.RedisURL)
	case "mongodb":
		return NewMongoStore(cfg.MongoURL, cfg.MongoDB)
	case "dynamodb":
		return NewDynamoStore(cfg.DynamoTable, cfg.AWSRegion)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}
