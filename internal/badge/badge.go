package badge

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingKey = "safespace:requests:pending_count"

// Counter кеширует консультативный счётчик pending-заявок в Redis.
// Схема push-invalidate: записи в очередь сбрасывают ключ, короткий TTL
// подбирает изменения, сделанные другими инстансами. Без Redis (rdb == nil)
// каждый вызов идёт напрямую в источник — значение консультативное,
// точность бейджа важнее доступности не является.
type Counter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCounter(rdb *redis.Client, ttl time.Duration) *Counter {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Counter{rdb: rdb, ttl: ttl}
}

// Get возвращает закешированное значение либо обращается к source и кеширует
// результат. Ошибки Redis не фатальны: считаем напрямую.
func (c *Counter) Get(ctx context.Context, source func(context.Context) (int64, error)) (int64, error) {
	if c.rdb != nil {
		if v, err := c.rdb.Get(ctx, pendingKey).Int64(); err == nil {
			return v, nil
		} else if err != redis.Nil {
			log.Printf("badge: redis get: %v", err)
		}
	}
	n, err := source(ctx)
	if err != nil {
		return 0, err
	}
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, pendingKey, n, c.ttl).Err(); err != nil {
			log.Printf("badge: redis set: %v", err)
		}
	}
	return n, nil
}

// Invalidate сбрасывает кеш. Вызывается после create/accept, чтобы бейдж
// на этом инстансе сошёлся немедленно.
func (c *Counter) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, pendingKey).Err(); err != nil {
		log.Printf("badge: invalidate: %v", err)
	}
}
