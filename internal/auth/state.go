package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/syncora/internal/common"
)

const (
	DefaultStateTTL = 10 * time.Minute
	statePrefix     = "syncora:oauth_state:"
)

// StateStore hands out one-time OAuth state values.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	// Consume succeeds at most once per issued state.
	Consume(ctx context.Context, state string) error
}

// backend holds pending nonces until they are used or expire.
type backend interface {
	put(ctx context.Context, nonce string, ttl time.Duration) error
	take(ctx context.Context, nonce string) (bool, error)
}

type signedStateStore struct {
	secret []byte
	ttl    time.Duration
	b      backend
}

// NewRedisStateStore keeps pending states in redis so any replica can finish a login.
func NewRedisStateStore(client *redis.Client, secret string, ttl time.Duration) StateStore {
	return newSigned(&redisBackend{client: client}, secret, ttl)
}

// NewMemoryStateStore keeps pending states in process.
func NewMemoryStateStore(secret string, ttl time.Duration) StateStore {
	return newSigned(&memoryBackend{items: map[string]time.Time{}, now: time.Now}, secret, ttl)
}

func newSigned(b backend, secret string, ttl time.Duration) *signedStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &signedStateStore{secret: []byte(secret), ttl: ttl, b: b}
}

func (s *signedStateStore) Issue(ctx context.Context) (string, error) {
	nonce := uuid.NewString()
	if err := s.b.put(ctx, nonce, s.ttl); err != nil {
		return "", common.WrapError(err, "store oauth state")
	}
	return nonce + "." + s.mac(nonce), nil
}

func (s *signedStateStore) Consume(ctx context.Context, state string) error {
	nonce, sig, ok := strings.Cut(state, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(s.mac(nonce))) {
		return common.UnauthorizedError("invalid oauth state")
	}
	found, err := s.b.take(ctx, nonce)
	if err != nil {
		return common.WrapError(err, "load oauth state")
	}
	if !found {
		return common.UnauthorizedError("oauth state expired or already used")
	}
	return nil
}

func (s *signedStateStore) mac(nonce string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

type redisBackend struct {
	client *redis.Client
}

func (r *redisBackend) put(ctx context.Context, nonce string, ttl time.Duration) error {
	return r.client.Set(ctx, statePrefix+nonce, "1", ttl).Err()
}

func (r *redisBackend) take(ctx context.Context, nonce string) (bool, error) {
	err := r.client.GetDel(ctx, statePrefix+nonce).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return err == nil, err
}

type memoryBackend struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func (m *memoryBackend) put(_ context.Context, nonce string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, exp := range m.items {
		if now.After(exp) {
			delete(m.items, k)
		}
	}
	m.items[nonce] = now.Add(ttl)
	return nil
}

func (m *memoryBackend) take(_ context.Context, nonce string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.items[nonce]
	if !ok {
		return false, nil
	}
	delete(m.items, nonce)
	return !m.now().After(exp), nil
}
