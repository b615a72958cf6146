// Package redis implements the engine storage port on Redis. Histories and
// competitions are stored as JSON blobs, one key per document, plus a set of
// known competition names for listings.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fitcompkit/core"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements engine.Storage on Redis.
// Key layout:
//   - stats:{user_id}   -> JSON History document
//   - comp:{name}       -> JSON Competition document
//   - comps             -> set of competition names
type Store struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing client (useful for testing).
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func statsKey(user core.UserID) string { return "stats:" + string(user) }
func compKey(name string) string       { return "comp:" + name }

const compNamesKey = "comps"

func (s *Store) UserHistory(ctx context.Context, user core.UserID) (core.History, error) {
	data, err := s.client.Get(ctx, statsKey(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	var h core.History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("corrupt history document for %s: %w", user, err)
	}
	return h, nil
}

func (s *Store) PutUserHistory(ctx context.Context, user core.UserID, h core.History) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, statsKey(user), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func (s *Store) Competition(ctx context.Context, name string) (core.Competition, error) {
	data, err := s.client.Get(ctx, compKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Competition{}, core.ErrNotFound
	}
	if err != nil {
		return core.Competition{}, fmt.Errorf("failed to read competition: %w", err)
	}
	var c core.Competition
	if err := json.Unmarshal(data, &c); err != nil {
		return core.Competition{}, fmt.Errorf("corrupt competition document %q: %w", name, err)
	}
	return c, nil
}

func (s *Store) PutCompetition(ctx context.Context, c core.Competition) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, compKey(c.Name), data, 0)
	pipe.SAdd(ctx, compNamesKey, c.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write competition: %w", err)
	}
	return nil
}

func (s *Store) CompetitionNames(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, compNamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return names, nil
}
