package database

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for unknown or expired visitor sessions
var ErrSessionNotFound = errors.New("session not found")

// RedisClient wraps the redis client
type RedisClient struct {
	*redis.Client
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping Redis: %w", err)
	}

	log.Println("Successfully connected to Redis")

	return &RedisClient{Client: client}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.Client != nil {
		log.Println("Closing Redis connection")
		return r.Client.Close()
	}
	return nil
}

// Health checks the Redis connection health
func (r *RedisClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

// RedisKV is a KV store on plain Redis string keys without expiry
type RedisKV struct {
	client *RedisClient
	prefix string
}

// NewRedisKV creates a KV store; every key is namespaced under prefix
func NewRedisKV(client *RedisClient, prefix string) *RedisKV {
	return &RedisKV{client: client, prefix: prefix}
}

// Get returns the value stored under key
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// VisitorStore maps opaque session IDs to anonymous visitor IDs in Redis.
// Sessions slide: every successful lookup refreshes the TTL.
type VisitorStore struct {
	client *RedisClient
	ttl    time.Duration
}

// NewVisitorStore creates a new visitor session store
func NewVisitorStore(client *RedisClient, ttl time.Duration) *VisitorStore {
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &VisitorStore{
		client: client,
		ttl:    ttl,
	}
}

// TTL returns how long an unused session lives
func (s *VisitorStore) TTL() time.Duration {
	return s.ttl
}

// GenerateSessionID generates a cryptographically secure session ID
func (s *VisitorStore) GenerateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Create opens a session for a brand new visitor
func (s *VisitorStore) Create(ctx context.Context) (string, uuid.UUID, error) {
	sessionID, err := s.GenerateSessionID()
	if err != nil {
		return "", uuid.Nil, err
	}

	visitorID := uuid.New()
	if err := s.Set(ctx, sessionID, visitorID); err != nil {
		return "", uuid.Nil, err
	}
	return sessionID, visitorID, nil
}

// Set binds a session to a visitor
func (s *VisitorStore) Set(ctx context.Context, sessionID string, visitorID uuid.UUID) error {
	if err := s.client.Set(ctx, sessionKey(sessionID), visitorID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get resolves a session to its visitor
func (s *VisitorStore) Get(ctx context.Context, sessionID string) (uuid.UUID, error) {
	key := sessionKey(sessionID)

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get session: %w", err)
	}

	visitorID, err := uuid.Parse(val)
	if err != nil {
		// Unreadable session, drop it so the visitor starts over
		if err := s.Delete(ctx, sessionID); err != nil {
			return uuid.Nil, fmt.Errorf("failed to drop corrupt session: %w", err)
		}
		return uuid.Nil, ErrSessionNotFound
	}

	s.client.Expire(ctx, key, s.ttl)

	return visitorID, nil
}

// Delete removes a session
func (s *VisitorStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}
