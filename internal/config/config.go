package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig
	Warehouse WarehouseConfig
	Search    SearchConfig
	Ingest    IngestConfig
	Catalog   CatalogConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	SessionStore       string // "memory" or "redis"
	SessionTTL         time.Duration
	RedisURL           string
	NatsURL            string // empty disables the NATS mirror
	TurnTopic          string
	CatalogFile        string // optional YAML, reloaded on change
}

// WarehouseConfig carries the Snowflake connection parameters.
type WarehouseConfig struct {
	Account      string        `env:"ACCOUNT,required"`
	User         string        `env:"USER,required"`
	Password     string        `env:"PASSWORD,required"`
	Warehouse    string        `env:"WAREHOUSE" envDefault:"COMPUTE_WH"`
	Database     string        `env:"DATABASE" envDefault:"MEDICAL_CORTEX_SEARCH_APP"`
	Schema       string        `env:"SCHEMA" envDefault:"DATA"`
	Role         string        `env:"ROLE"`
	LoginTimeout time.Duration `env:"LOGIN_TIMEOUT" envDefault:"30s"`
}

type SearchConfig struct {
	Database    string
	Schema      string
	Service     string
	Limit       int
	Stage       string
	ChunksTable string
	URLTTL      int // seconds
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	TikaURL      string
	TempDir      string
}

// CatalogConfig is the UI selector data. Models can be overridden by CATALOG_FILE.
type CatalogConfig struct {
	Models          []string      `yaml:"models"`
	DefaultModel    string        `yaml:"default_model"`
	DefaultCategory string        `yaml:"default_category"`
	DocumentsTTL    time.Duration `yaml:"documents_ttl"`
}

var defaultModels = []string{
	"mixtral-8x7b",
	"snowflake-arctic",
	"mistral-large",
	"llama3-8b",
	"llama3-70b",
	"reka-flash",
	"mistral-7b",
	"llama2-70b-chat",
	"gemma-7b",
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	var wh WarehouseConfig
	if err := env.ParseWithOptions(&wh, env.Options{Prefix: "SNOWFLAKE_"}); err != nil {
		return nil, fmt.Errorf("parse warehouse config: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			SessionStore:       strings.ToLower(getEnv("SESSION_STORE", "memory")),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			NatsURL:            getEnv("NATS_URL", ""),
			TurnTopic:          getEnv("TURN_EVENT_TOPIC", "CHAT_TURN_COMPLETED"),
			CatalogFile:        getEnv("CATALOG_FILE", ""),
		},
		Warehouse: wh,
		Search: SearchConfig{
			Database:    getEnv("CORTEX_SEARCH_DATABASE", wh.Database),
			Schema:      getEnv("CORTEX_SEARCH_SCHEMA", wh.Schema),
			Service:     getEnv("CORTEX_SEARCH_SERVICE", "CC_SEARCH_SERVICE_CS"),
			Limit:       getEnvAsInt("CORTEX_SEARCH_LIMIT", 3),
			Stage:       getEnv("DOCS_STAGE", "docs"),
			ChunksTable: getEnv("CHUNKS_TABLE", "docs_chunks_table"),
			URLTTL:      getEnvAsInt("PRESIGNED_URL_TTL", 360),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvAsInt("INGEST_CHUNK_SIZE", 1500),
			ChunkOverlap: getEnvAsInt("INGEST_CHUNK_OVERLAP", 100),
			TikaURL:      getEnv("TIKA_URL", ""),
			TempDir:      getEnv("INGEST_TEMP_DIR", os.TempDir()),
		},
		Catalog: DefaultCatalog(),
	}

	if cfg.App.CatalogFile != "" {
		catalog, err := LoadCatalog(cfg.App.CatalogFile)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = *catalog
	}

	return cfg, nil
}

// DefaultCatalog returns the built-in model list and selector defaults.
func DefaultCatalog() CatalogConfig {
	models := make([]string, len(defaultModels))
	copy(models, defaultModels)
	return CatalogConfig{
		Models:          models,
		DefaultModel:    "mixtral-8x7b",
		DefaultCategory: "ALL",
		DocumentsTTL:    5 * time.Minute,
	}
}

// LoadCatalog reads a YAML catalog file. Missing fields fall back to defaults;
// a missing file is an error because the path was given explicitly.
func LoadCatalog(path string) (*CatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var catalog CatalogConfig
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	applyCatalogDefaults(&catalog)
	if !contains(catalog.Models, catalog.DefaultModel) {
		return nil, errors.New("catalog default_model is not in models")
	}
	return &catalog, nil
}

func applyCatalogDefaults(catalog *CatalogConfig) {
	defaults := DefaultCatalog()
	if len(catalog.Models) == 0 {
		catalog.Models = defaults.Models
	}
	if catalog.DefaultModel == "" {
		catalog.DefaultModel = catalog.Models[0]
	}
	if catalog.DefaultCategory == "" {
		catalog.DefaultCategory = defaults.DefaultCategory
	}
	if catalog.DocumentsTTL == 0 {
		catalog.DocumentsTTL = defaults.DocumentsTTL
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
