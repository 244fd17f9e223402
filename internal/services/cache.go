package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Ключ кэша для снимка всех позиций автобусов
const busSnapshotKey = "buses:snapshot"

// CacheService кэш снимка позиций в Redis. Снимок живет недолго и
// сбрасывается при каждом успешном обновлении локации, поэтому
// клиенты карты не видят устаревшие данные дольше TTL.
type CacheService struct {
	redisClient *redis.Client
	ttl         time.Duration
	enabled     bool
}

// NewCacheService создает сервис кэширования. Если клиент Redis не
// передан или кэширование выключено, сервис работает как заглушка.
func NewCacheService(redisClient *redis.Client) *CacheService {
	cacheEnabled := os.Getenv("CACHE_ENABLED") == "true"

	if !cacheEnabled || redisClient == nil {
		return &CacheService{
			enabled: false,
		}
	}

	// TTL снимка в секундах
	ttl := 5
	if val, err := strconv.Atoi(os.Getenv("CACHE_SNAPSHOT_TTL")); err == nil && val > 0 {
		ttl = val
	}

	return &CacheService{
		redisClient: redisClient,
		ttl:         time.Duration(ttl) * time.Second,
		enabled:     true,
	}
}

// GetSnapshot получает снимок позиций из кэша
func (c *CacheService) GetSnapshot(ctx context.Context, result interface{}) (bool, error) {
	if !c.enabled {
		return false, nil
	}

	val, err := c.redisClient.Get(ctx, busSnapshotKey).Result()
	if err == redis.Nil {
		// Ключ не найден в кэше
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("ошибка при получении снимка из кэша: %w", err)
	}

	if err := json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("ошибка при десериализации снимка из кэша: %w", err)
	}

	return true, nil
}

// SetSnapshot сохраняет снимок позиций в кэш
func (c *CacheService) SetSnapshot(ctx context.Context, value interface{}) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации снимка для кэша: %w", err)
	}

	if err := c.redisClient.Set(ctx, busSnapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка при сохранении снимка в кэш: %w", err)
	}

	return nil
}

// InvalidateSnapshot сбрасывает кэшированный снимок после обновления локации
func (c *CacheService) InvalidateSnapshot(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.redisClient.Del(ctx, busSnapshotKey).Err()
}

// Close закрывает соединение с Redis
func (c *CacheService) Close() error {
	if c.enabled {
		return c.redisClient.Close()
	}
	return nil
}
