package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/survey-service/internal/client"
	"github.com/SAP-F-2025/survey-service/internal/localstore"
	"github.com/SAP-F-2025/survey-service/internal/utils"
)

// commonFlags are shared by every command.
type commonFlags struct {
	server   *string
	store    *string
	redisURL *string
	logLevel *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		server:   fs.String("server", envOr("SURVEY_SERVER", "http://localhost:8080"), "Survey service base URL"),
		store:    fs.String("store", envOr("SURVEY_STORE", "surveyctl.db"), "SQLite file for offline sessions"),
		redisURL: fs.String("redis", os.Getenv("SURVEY_REDIS"), "Redis URL for offline sessions (overrides -store)"),
		logLevel: fs.String("log-level", "warn", "Log level: debug, info, warn or error"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (f *commonFlags) logger() *slog.Logger {
	return utils.NewLogger(os.Stderr, *f.logLevel, false)
}

func (f *commonFlags) client(logger *slog.Logger) *client.Client {
	return client.New(*f.server, client.WithLogger(logger))
}

// openStorage opens the Redis store when -redis is set, otherwise SQLite.
func (f *commonFlags) openStorage(ctx context.Context) (localstore.Storage, error) {
	if *f.redisURL != "" {
		opt, err := redis.ParseURL(*f.redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return &redisStore{RedisStorage: localstore.NewRedisStorage(rdb, "surveyctl:"), client: rdb}, nil
	}
	return localstore.NewSQLiteStorage(*f.store)
}

// redisStore closes the client it was opened with.
type redisStore struct {
	*localstore.RedisStorage
	client *redis.Client
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
