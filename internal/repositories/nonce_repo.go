package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceRepo keeps single-use login nonces in redis.
type NonceRepo struct {
	rdb *redis.Client
}

func NewNonceRepo(rdb *redis.Client) *NonceRepo {
	return &NonceRepo{rdb: rdb}
}

func nonceKey(address string) string {
	return "login_nonce:" + address
}

// Put stores nonce for address, replacing any previous one.
func (r *NonceRepo) Put(ctx context.Context, address, nonce string, ttl time.Duration) error {
	return r.rdb.Set(ctx, nonceKey(address), nonce, ttl).Err()
}

// Consume removes the stored nonce and reports whether it matched.
// The nonce is gone after the call either way.
func (r *NonceRepo) Consume(ctx context.Context, address, nonce string) (bool, error) {
	stored, err := r.rdb.GetDel(ctx, nonceKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == nonce, nil
}
