package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter conta falhas de login por chave (ip + usuário) numa janela
type LoginLimiter interface {
	// Bloqueado devolve quanto falta para liberar; zero quando liberado
	Bloqueado(ctx context.Context, chave string) (time.Duration, error)
	RegistrarFalha(ctx context.Context, chave string) error
	Limpar(ctx context.Context, chave string) error
}

func chaveLogin(ip, username string) string {
	return ip + "|" + strings.ToLower(strings.TrimSpace(username))
}

// MemoryLimiter guarda as contagens no processo; zera ao reiniciar e não é
// compartilhado entre instâncias
type MemoryLimiter struct {
	max    int
	janela time.Duration
	now    func() time.Time

	mu         sync.Mutex
	tentativas map[string]*janelaFalhas
}

type janelaFalhas struct {
	falhas int
	expira time.Time
}

func NewMemoryLimiter(max int, janela time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:        max,
		janela:     janela,
		now:        time.Now,
		tentativas: make(map[string]*janelaFalhas),
	}
}

func (m *MemoryLimiter) Bloqueado(_ context.Context, chave string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.tentativas[chave]
	if !ok {
		return 0, nil
	}
	now := m.now()
	if !now.Before(j.expira) {
		delete(m.tentativas, chave)
		return 0, nil
	}
	if j.falhas < m.max {
		return 0, nil
	}
	return j.expira.Sub(now), nil
}

func (m *MemoryLimiter) RegistrarFalha(_ context.Context, chave string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	j, ok := m.tentativas[chave]
	if !ok || !now.Before(j.expira) {
		j = &janelaFalhas{expira: now.Add(m.janela)}
		m.tentativas[chave] = j
	}
	j.falhas++
	return nil
}

func (m *MemoryLimiter) Limpar(_ context.Context, chave string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tentativas, chave)
	return nil
}

// RedisLimiter usa INCR + EXPIRE, compartilhado entre instâncias
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	janela time.Duration
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, max int, janela time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: max, janela: janela, prefix: "coop:login:falhas"}
}

func (r *RedisLimiter) key(chave string) string {
	return r.prefix + ":" + chave
}

func (r *RedisLimiter) Bloqueado(ctx context.Context, chave string) (time.Duration, error) {
	n, err := r.rdb.Get(ctx, r.key(chave)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	if n < r.max {
		return 0, nil
	}
	ttl, err := r.rdb.TTL(ctx, r.key(chave)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl <= 0 {
		return r.janela, nil
	}
	return ttl, nil
}

func (r *RedisLimiter) RegistrarFalha(ctx context.Context, chave string) error {
	k := r.key(chave)
	pipe := r.rdb.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.janela)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

func (r *RedisLimiter) Limpar(ctx context.Context, chave string) error {
	return r.rdb.Del(ctx, r.key(chave)).Err()
}
