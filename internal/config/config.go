package config

import (
	"os"
	"strconv"
)

type CoreServiceConfig struct {
	Port        string
	JWTSecret   string
	FeeBps      int64
	PostgresCfg PostgresConfig
	RabbitMQCfg RabbitMQConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	PoolCfg     PoolConfig
	WorkerCfg   WorkerConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type PoolConfig struct {
	MinProviderStake int64
}

type WorkerConfig struct {
	StatsRefreshSeconds int64
	ExpirySweepEnabled  bool
	ExpirySweepSeconds  int64
}

func New() *CoreServiceConfig {
	return &CoreServiceConfig{
		Port:      getEnvOrDefault("PORT", "8086"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", ""),
		FeeBps:    getEnvInt64("PROTOCOL_FEE_BPS", 500),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "insurance_core"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		PoolCfg: PoolConfig{
			MinProviderStake: getEnvInt64("POOL_MIN_PROVIDER_STAKE", 1),
		},
		WorkerCfg: WorkerConfig{
			StatsRefreshSeconds: getEnvInt64("STATS_REFRESH_SECONDS", 60),
			ExpirySweepEnabled:  getEnvOrDefault("EXPIRY_SWEEP_ENABLED", "false") == "true",
			ExpirySweepSeconds:  getEnvInt64("EXPIRY_SWEEP_SECONDS", 3600),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
