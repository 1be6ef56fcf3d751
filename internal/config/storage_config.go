package config

type StorageConfig interface {
	GetDatabaseURL() string
	GetRedisAddr() string
	GetRedisPassword() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetDatabaseURL returns the Postgres connection string. Empty means
// run on the in-memory user repository (development mode).
func (Storage) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

// GetRedisAddr returns the Redis address for the lottery result cache.
// Empty disables caching.
func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}
