package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cfoust/dipwatch/pkg/codec"

	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StoreType uint8

const (
	StoreTypeMemory StoreType = iota
	StoreTypeFS
	StoreTypeRedis
	StoreTypeSQL
	StoreTypeMongo
)

func (s StoreType) String() string {
	switch s {
	case StoreTypeMemory:
		return "memory"
	case StoreTypeFS:
		return "fs"
	case StoreTypeRedis:
		return "redis"
	case StoreTypeSQL:
		return "sql"
	case StoreTypeMongo:
		return "mongo"
	}
	return "unknown"
}

type StoreConfig interface {
	Type() StoreType
}

type MemoryStoreConfig struct{}

func (MemoryStoreConfig) Type() StoreType { return StoreTypeMemory }

type FSStoreConfig struct {
	Path string `json:"path"`
}

func (FSStoreConfig) Type() StoreType { return StoreTypeFS }

type RedisStoreConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (RedisStoreConfig) Type() StoreType { return StoreTypeRedis }

type SQLStoreConfig struct {
	Path string `json:"path"`
}

func (SQLStoreConfig) Type() StoreType { return StoreTypeSQL }

type MongoStoreConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

func (MongoStoreConfig) Type() StoreType { return StoreTypeMongo }

// Backend picks a store implementation by its "type" field.
type Backend struct {
	Config StoreConfig
}

func (b *Backend) UnmarshalJSON(data []byte) error {
	var obj map[string]*json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	raw, ok := obj["type"]
	if !ok || raw == nil {
		return fmt.Errorf("store type missing")
	}

	var type_ string
	err := json.Unmarshal(*raw, &type_)
	if err != nil {
		return err
	}

	switch type_ {
	case "memory":
		b.Config = MemoryStoreConfig{}
	case "fs":
		var fs FSStoreConfig
		if err := json.Unmarshal(data, &fs); err != nil {
			return err
		}
		b.Config = fs
	case "redis":
		var redisConfig RedisStoreConfig
		if err := json.Unmarshal(data, &redisConfig); err != nil {
			return err
		}
		b.Config = redisConfig
	case "sql":
		var sqlConfig SQLStoreConfig
		if err := json.Unmarshal(data, &sqlConfig); err != nil {
			return err
		}
		b.Config = sqlConfig
	case "mongo":
		var mongoConfig MongoStoreConfig
		if err := json.Unmarshal(data, &mongoConfig); err != nil {
			return err
		}
		b.Config = mongoConfig
	default:
		return fmt.Errorf("invalid store type: %s", type_)
	}

	return nil
}

func Validate(config StoreConfig) error {
	switch config := config.(type) {
	case MemoryStoreConfig:
		return nil
	case FSStoreConfig:
		if config.Path == "" {
			return fmt.Errorf("fs store requires a path")
		}
	case RedisStoreConfig:
		if config.Address == "" {
			return fmt.Errorf("redis store requires an address")
		}
	case SQLStoreConfig:
		if config.Path == "" {
			return fmt.Errorf("sql store requires a path")
		}
	case MongoStoreConfig:
		if config.URI == "" || config.Database == "" {
			return fmt.Errorf("mongo store requires a uri and a database")
		}
	case nil:
		return fmt.Errorf("no store configured")
	default:
		return fmt.Errorf("unsupported store: %T", config)
	}
	return nil
}

// Open connects to the configured store. The returned function releases
// whatever connections were made.
func Open(ctx context.Context, config StoreConfig, c *codec.Codec) (Store, func(), error) {
	noop := func() {}

	err := Validate(config)
	if err != nil {
		return nil, noop, err
	}

	log.Info().Str("type", config.Type().String()).Msg("opening history store")

	switch config := config.(type) {
	case MemoryStoreConfig:
		return NewMemoryStore(), noop, nil
	case FSStoreConfig:
		store, err := NewFSStore(config.Path, c)
		return store, noop, err
	case RedisStoreConfig:
		client := redis.NewClient(&redis.Options{
			Addr:     config.Address,
			Password: config.Password,
			DB:       config.DB,
		})
		err := client.Ping(ctx).Err()
		if err != nil {
			client.Close()
			return nil, noop, err
		}
		return NewRedisStore(client, c), func() { client.Close() }, nil
	case SQLStoreConfig:
		db, err := InitDB(config.Path)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return NewSQLStore(db, c), cleanup, nil
	case MongoStoreConfig:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() {
			client.Disconnect(context.Background())
		}
		return NewMongoStore(ctx, client.Database(config.Database), c), cleanup, nil
	}

	return nil, noop, fmt.Errorf("unsupported store: %T", config)
}
