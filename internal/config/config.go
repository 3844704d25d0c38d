package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	JWTSecret string // JWT署名シークレット

	InventoryBaseURL string        // 在庫APIのベースURL
	InventoryTimeout time.Duration // 在庫APIの1リクエストあたりのタイムアウト

	StorageDriver string // postgres/redis/memory
	StorageKey    string // 保存スロットのキー（ユーザーごとに cart:{owner}）

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	RedisAddr string

	OTLPEndpoint string // 空ならトレース無効
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	timeoutMS, err := atoiDefault("INVENTORY_TIMEOUT_MS", 5000)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: getenv("GO_ENV", "dev"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		InventoryBaseURL: strings.TrimRight(os.Getenv("INVENTORY_BASE_URL"), "/"),
		InventoryTimeout: time.Duration(timeoutMS) * time.Millisecond,

		StorageDriver: strings.ToLower(getenv("CART_STORAGE_DRIVER", StorageDriverPostgres)),
		StorageKey:    getenv("CART_STORAGE_KEY", "cart"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "app"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.InventoryBaseURL == "" {
		return Config{}, fmt.Errorf("INVENTORY_BASE_URL is required")
	}
	if cfg.InventoryTimeout <= 0 {
		return Config{}, fmt.Errorf("INVENTORY_TIMEOUT_MS must be > 0")
	}
	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverRedis, StorageDriverMemory:
	default:
		return Config{}, fmt.Errorf("CART_STORAGE_DRIVER must be one of postgres, redis, memory")
	}

	return cfg, nil
}

// ":8080" 形式のアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
