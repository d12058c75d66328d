package config

import "os"

// CacheConfig carries the Redis connection settings for the optional
// Redis-backed usage store. Addr empty means the in-memory store is used.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
