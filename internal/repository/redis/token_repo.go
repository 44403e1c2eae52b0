package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenMismatch    = errors.New("token mismatch")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = 30 * time.Minute
)

// 原子执行：比对 token，一致则续期
var verifyScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
if val ~= ARGV[1] then
  return -1
end
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`)

// TokenRepository 一个用户同一时刻只保留最近一次登录的 access token
type TokenRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{Client: client, TTL: UserTokenExpire}
}

func (r *TokenRepository) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func (r *TokenRepository) ttl() time.Duration {
	if r.TTL <= 0 {
		return UserTokenExpire
	}
	return r.TTL
}

func (r *TokenRepository) Add(ctx context.Context, userID uint64, token string) error {
	if err := r.Client.Set(ctx, r.key(userID), token, r.ttl()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, userID uint64) (string, error) {
	token, err := r.Client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// Verify 校验请求携带的 token 是否为当前登录态，成功后顺延过期时间
func (r *TokenRepository) Verify(ctx context.Context, userID uint64, token string) error {
	px := int64(r.ttl() / time.Millisecond)
	res, err := verifyScript.Run(ctx, r.Client, []string{r.key(userID)}, token, px).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	switch res {
	case 0:
		return ErrTokenNotFound
	case -1:
		return ErrTokenMismatch
	}
	return nil
}

// Delete 幂等
func (r *TokenRepository) Delete(ctx context.Context, userID uint64) error {
	if err := r.Client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
